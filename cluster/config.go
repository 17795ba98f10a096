package cluster

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the controller's exposed configuration keys (spec §6),
// loadable from YAML the way the teacher's pkg/config loads scheduler
// config, or overridden from the environment the way internal/config does.
type Config struct {
	InitialSize              int            `yaml:"initialSize" json:"initialSize"`
	InitialQuorumSize        int            `yaml:"initialQuorumSize" json:"initialQuorumSize"`
	RemovalStrategy          string         `yaml:"removalStrategy" json:"removalStrategy"`
	ZonePlacementStrategy    string         `yaml:"zonePlacementStrategy" json:"zonePlacementStrategy"`
	ZoneFailureDetector      string         `yaml:"zoneFailureDetector" json:"zoneFailureDetector"`
	UpQuorumCheck            string         `yaml:"upQuorumCheck" json:"upQuorumCheck"`
	EnableAvailabilityZones  bool           `yaml:"enableAvailabilityZones" json:"enableAvailabilityZones"`
	AvailabilityZoneNames    []string       `yaml:"availabilityZoneNames" json:"availabilityZoneNames"`
	NumAvailabilityZones     int            `yaml:"numAvailabilityZones" json:"numAvailabilityZones"`
	QuarantineFailedEntities bool           `yaml:"quarantineFailedEntities" json:"quarantineFailedEntities"`
	CustomChildFlags         map[string]any `yaml:"customChildFlags" json:"customChildFlags"`
	HealthCheckPeriod        time.Duration  `yaml:"healthCheckPeriod" json:"healthCheckPeriod"`
}

// DefaultConfig returns sane defaults: a single member, quorum defaulting
// to "same as initial" (-1), the default strategies, and a 5s health period.
func DefaultConfig() Config {
	return Config{
		InitialSize:           1,
		InitialQuorumSize:     -1,
		RemovalStrategy:       "default",
		ZonePlacementStrategy: "round-robin",
		ZoneFailureDetector:   "threshold",
		UpQuorumCheck:         "at-least-one-unless-empty",
		HealthCheckPeriod:     5 * time.Second,
	}
}

// LoadConfigYAML decodes YAML onto DefaultConfig(), so any field the
// document omits keeps its default.
func LoadConfigYAML(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, fmt.Errorf("decoding cluster config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides overrides fields from CLUSTER_* environment variables
// when present, matching internal/config's getEnvOrDefault family.
func (c *Config) ApplyEnvOverrides() {
	c.InitialSize = getEnvIntOrDefault("CLUSTER_INITIAL_SIZE", c.InitialSize)
	c.InitialQuorumSize = getEnvIntOrDefault("CLUSTER_INITIAL_QUORUM_SIZE", c.InitialQuorumSize)
	c.NumAvailabilityZones = getEnvIntOrDefault("CLUSTER_NUM_AVAILABILITY_ZONES", c.NumAvailabilityZones)
	c.EnableAvailabilityZones = getEnvBoolOrDefault("CLUSTER_ENABLE_AVAILABILITY_ZONES", c.EnableAvailabilityZones)
	c.QuarantineFailedEntities = getEnvBoolOrDefault("CLUSTER_QUARANTINE_FAILED_ENTITIES", c.QuarantineFailedEntities)
	c.RemovalStrategy = getEnvOrDefault("CLUSTER_REMOVAL_STRATEGY", c.RemovalStrategy)
	c.ZonePlacementStrategy = getEnvOrDefault("CLUSTER_ZONE_PLACEMENT_STRATEGY", c.ZonePlacementStrategy)
	c.ZoneFailureDetector = getEnvOrDefault("CLUSTER_ZONE_FAILURE_DETECTOR", c.ZoneFailureDetector)
	c.UpQuorumCheck = getEnvOrDefault("CLUSTER_UP_QUORUM_CHECK", c.UpQuorumCheck)
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBoolOrDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
