package sensorstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/dynacluster/dynacluster/cluster"
)

// Config holds the connection settings for Postgres-backed storage,
// grounded on the teacher's pkg/database/manager.go DatabaseConfig.
type Config struct {
	Host     string `yaml:"host" env:"DYNACLUSTER_DB_HOST"`
	Port     int    `yaml:"port" env:"DYNACLUSTER_DB_PORT"`
	Name     string `yaml:"name" env:"DYNACLUSTER_DB_NAME"`
	User     string `yaml:"user" env:"DYNACLUSTER_DB_USER"`
	Password string `yaml:"password" env:"DYNACLUSTER_DB_PASSWORD"`
	SSLMode  string `yaml:"ssl_mode" env:"DYNACLUSTER_DB_SSL_MODE"`

	MaxOpenConns    int           `yaml:"max_open_conns" env:"DYNACLUSTER_DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DYNACLUSTER_DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DYNACLUSTER_DB_CONN_MAX_LIFETIME"`

	RedisAddr     string `yaml:"redis_addr" env:"DYNACLUSTER_REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"DYNACLUSTER_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"DYNACLUSTER_REDIS_DB"`
}

// applyDefaults mirrors the teacher's NewDatabaseManager default-filling.
func (c *Config) applyDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.SSLMode == "" {
		c.SSLMode = "prefer"
	}
}

// Postgres is a durable cluster.SensorStore: the authoritative counter
// value lives in Postgres, with Redis as a cache in front of reads:
// PutInt64 commits to Postgres and then refreshes Redis, and GetInt64
// checks Redis before falling back to Postgres (a Postgres hit does not
// refill Redis). Every PutInt64, and so every IDAllocator.Next, commits to
// Postgres.
// Grounded on pkg/database/manager.go's DatabaseManager: same
// sqlx.DB + redis.Client pairing, same connection-pool defaults, same
// PingContext-based Health check and WithTransaction helper.
type Postgres struct {
	db     *sqlx.DB
	redis  *redis.Client
	cfg    Config
	logger *slog.Logger
}

// NewPostgres connects to Postgres and Redis and ensures the counter table
// exists.
func NewPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sensorstore: connect postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("sensorstore: ping postgres: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	redisCtx, cancel2 := context.WithTimeout(ctx, 5*time.Second)
	defer cancel2()
	if err := rdb.Ping(redisCtx).Err(); err != nil {
		return nil, fmt.Errorf("sensorstore: ping redis: %w", err)
	}

	p := &Postgres{db: db, redis: rdb, cfg: cfg, logger: logger}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return nil, fmt.Errorf("sensorstore: create schema: %w", err)
	}
	return p, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS cluster_counters (
    cluster_id TEXT NOT NULL,
    key        TEXT NOT NULL,
    value      BIGINT NOT NULL,
    PRIMARY KEY (cluster_id, key)
)`

func cacheKey(clusterID, key string) string {
	return fmt.Sprintf("dynacluster:counter:%s:%s", clusterID, key)
}

// GetInt64 implements cluster.SensorStore, checking Redis before falling
// back to Postgres.
func (p *Postgres) GetInt64(ctx context.Context, clusterID, key string) (int64, bool, error) {
	if v, err := p.redis.Get(ctx, cacheKey(clusterID, key)).Int64(); err == nil {
		return v, true, nil
	} else if !errors.Is(err, redis.Nil) {
		p.logger.Warn("sensorstore: redis read failed, falling back to postgres", "error", err)
	}

	var value int64
	err := p.db.GetContext(ctx, &value,
		`SELECT value FROM cluster_counters WHERE cluster_id = $1 AND key = $2`,
		clusterID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("sensorstore: get %s/%s: %w", clusterID, key, err)
	}
	return value, true, nil
}

// PutInt64 implements cluster.SensorStore, writing through Postgres first
// and then refreshing the Redis cache.
func (p *Postgres) PutInt64(ctx context.Context, clusterID, key string, value int64) error {
	if err := p.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cluster_counters (cluster_id, key, value)
			VALUES ($1, $2, $3)
			ON CONFLICT (cluster_id, key) DO UPDATE SET value = EXCLUDED.value`,
			clusterID, key, value)
		return err
	}); err != nil {
		return fmt.Errorf("sensorstore: put %s/%s: %w", clusterID, key, err)
	}

	if err := p.redis.Set(ctx, cacheKey(clusterID, key), value, time.Hour).Err(); err != nil {
		p.logger.Warn("sensorstore: redis cache refresh failed", "error", err)
	}
	return nil
}

// WithTransaction runs fn inside a Postgres transaction, rolling back on
// error or panic and committing otherwise. Grounded on
// pkg/database/manager.go's WithTransaction.
func (p *Postgres) WithTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Health reports connectivity to both backing stores, grounded on
// pkg/database/manager.go's Health.
func (p *Postgres) Health(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sensorstore: postgres unhealthy: %w", err)
	}
	if err := p.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("sensorstore: redis unhealthy: %w", err)
	}
	return nil
}

// Close releases both backing connections.
func (p *Postgres) Close() error {
	var errs []error
	if err := p.db.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.redis.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

var _ cluster.SensorStore = (*Postgres)(nil)
