// Command dynaclusterd runs a single dynamic cluster controller alongside
// its admin HTTP/WebSocket API. Grounded on cmd/ollama-distributed/main.go's
// cobra root command with one subcommand per operation, flags bound with
// cmd.Flags().XVar, and RunE closures calling into plain functions.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dynacluster/dynacluster/adminapi"
	"github.com/dynacluster/dynacluster/cluster"
	"github.com/dynacluster/dynacluster/entity"
	"github.com/dynacluster/dynacluster/locationx"
	"github.com/dynacluster/dynacluster/policy"
	"github.com/dynacluster/dynacluster/sensorstore"
)

var version = "dev"

// zoneConfig describes one availability zone to build under the root
// location.
type zoneConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Addr string `yaml:"addr"`
}

// daemonConfig is dynaclusterd's own configuration file shape: where to
// listen, the controller's location tree, and the embedded cluster.Config.
type daemonConfig struct {
	Cluster cluster.Config `yaml:"cluster"`
	Listen  string         `yaml:"listen"`
	Root    zoneConfig     `yaml:"root"`
	Zones   []zoneConfig   `yaml:"zones"`

	AdminUsername string `yaml:"adminUsername"`
	AdminPassword string `yaml:"adminPassword"`
}

func defaultDaemonConfig() daemonConfig {
	cfg := daemonConfig{
		Cluster: cluster.DefaultConfig(),
		Listen:  ":8080",
		Root:    zoneConfig{ID: "root", Name: "root-zone", Addr: "/ip4/0.0.0.0/tcp/4001"},
	}
	cfg.AdminUsername = "admin"
	cfg.AdminPassword = "admin"
	return cfg
}

func loadDaemonConfig(path string) (daemonConfig, error) {
	cfg := defaultDaemonConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && err != io.EOF {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func main() {
	root := &cobra.Command{
		Use:     "dynaclusterd",
		Short:   "dynaclusterd runs and operates a dynamic cluster controller",
		Version: version,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(resizeCmd())
	root.AddCommand(statusCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the cluster controller and its admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configFile)
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "daemon configuration file")
	return cmd
}

func buildLocations(cfg daemonConfig) (*locationx.Zone, *locationx.Registry, []cluster.Location, error) {
	root, err := locationx.NewZone(cfg.Root.ID, cfg.Root.Name, cfg.Root.Addr)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build root zone: %w", err)
	}

	registry := locationx.NewRegistry()
	var startLocations []cluster.Location
	if len(cfg.Zones) == 0 {
		startLocations = []cluster.Location{root}
	} else {
		zones := make([]*locationx.Zone, 0, len(cfg.Zones))
		for _, z := range cfg.Zones {
			sub, err := locationx.NewSubZone(root, z.ID, z.Name, z.Addr)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("build zone %s: %w", z.ID, err)
			}
			zones = append(zones, sub)
		}
		registry.AddSubZones(root, zones...)
		for _, z := range zones {
			startLocations = append(startLocations, z)
		}
	}
	return root, registry, startLocations, nil
}

func runServe(configFile string) error {
	cfg, err := loadDaemonConfig(configFile)
	if err != nil {
		return err
	}
	cfg.Cluster.ApplyEnvOverrides()

	logger := slog.Default()

	root, registry, _, err := buildLocations(cfg)
	if err != nil {
		return err
	}

	hub := adminapi.NewHub(logger)
	store := sensorstore.NewMemory()

	controller, err := cluster.NewController(cluster.Options{
		ID:               "dynacluster",
		Location:         root,
		Config:           cfg.Cluster,
		Entities:         entity.NewInMemoryManager(),
		LocationResolver: registry,
		SensorStore:      store,
		Events:           hub,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("build controller: %w", err)
	}
	controller.AttachPolicy(policy.NewNoop())

	server, err := adminapi.NewServer(controller, adminapi.Options{
		Listen: cfg.Listen,
		Logger: logger,
		Hub:    hub,
		CORS:   adminapi.CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}},
		RateLimit: adminapi.RateLimitConfig{
			Enabled: true, RequestsPer: 100, Duration: time.Minute, BurstSize: 20,
		},
	})
	if err != nil {
		return fmt.Errorf("build admin server: %w", err)
	}
	if err := server.RegisterCredential(cfg.AdminUsername, cfg.AdminPassword, adminapi.RoleAdmin); err != nil {
		return fmt.Errorf("register admin credential: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := controller.Start(ctx, nil); err != nil {
		return fmt.Errorf("start controller: %w", err)
	}
	logger.Info("cluster controller started", "size", controller.CurrentSize())

	return server.Start(ctx)
}

func resizeCmd() *cobra.Command {
	var apiAddr, token string
	var delta bool
	var size int

	cmd := &cobra.Command{
		Use:   "resize",
		Short: "resize the running cluster to an absolute or relative size",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResize(apiAddr, token, size, delta)
		},
	}
	cmd.Flags().StringVar(&apiAddr, "api", "http://localhost:8080", "admin API base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer access token")
	cmd.Flags().IntVar(&size, "size", 0, "target size (absolute, or relative with --delta)")
	cmd.Flags().BoolVar(&delta, "delta", false, "treat --size as a relative delta")
	return cmd
}

func runResize(apiAddr, token string, size int, delta bool) error {
	path := "/api/v1/cluster/resize"
	body := map[string]int{"desired": size}
	if delta {
		path = "/api/v1/cluster/resize-by-delta"
		body = map[string]int{"delta": size}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, apiAddr+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("resize request failed: %w", err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	fmt.Println(string(out))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("resize request returned status %d", resp.StatusCode)
	}
	return nil
}

func statusCmd() *cobra.Command {
	var apiAddr, token string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "show the running cluster's current size and member list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(apiAddr, token)
		},
	}
	cmd.Flags().StringVar(&apiAddr, "api", "http://localhost:8080", "admin API base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer access token")
	return cmd
}

func runStatus(apiAddr, token string) error {
	req, err := http.NewRequest(http.MethodGet, apiAddr+"/api/v1/cluster", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, mustReadAll(resp.Body), "", "  "); err != nil {
		return fmt.Errorf("decode status response: %w", err)
	}
	fmt.Println(pretty.String())
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status request returned status %d", resp.StatusCode)
	}
	return nil
}

func mustReadAll(r io.Reader) []byte {
	b, _ := io.ReadAll(r)
	return b
}
