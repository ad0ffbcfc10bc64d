package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderS3    = "s3"
	ProviderMinio = "minio"
)

type Region struct {
	Name         string `yaml:"name"`
	Provider     string `yaml:"provider,omitempty"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix,omitempty"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	PathStyle    bool   `yaml:"path_style,omitempty"`
	AccessKey    string `yaml:"access_key,omitempty"`
	SecretKey    string `yaml:"secret_key,omitempty"`
	Insecure     bool   `yaml:"insecure,omitempty"`
	StorageClass string `yaml:"storage_class,omitempty"`
}

type StorageConfig struct {
	PreferredRegion string   `yaml:"preferred_region,omitempty"`
	Regions         []Region `yaml:"regions"`
}

type DatabaseConfig struct {
	DSN            string   `yaml:"dsn"`
	CriticalTables []string `yaml:"critical_tables"`
}

type BackupConfig struct {
	Workers            int `yaml:"workers,omitempty"`
	UnitTimeoutSeconds int `yaml:"unit_timeout_seconds,omitempty"`
	RetentionDays      int `yaml:"retention_days,omitempty"`
}

type RestoreConfig struct {
	BatchSize int `yaml:"batch_size,omitempty"`
}

type TargetsConfig struct {
	RPOHours            float64 `yaml:"rpo_hours,omitempty"`
	RTOHours            float64 `yaml:"rto_hours,omitempty"`
	ThroughputMBPerHour float64 `yaml:"restore_throughput_mb_per_hour,omitempty"`
	HistoryWindow       int     `yaml:"history_window,omitempty"`
}

type AlertConfig struct {
	WebhookURL string `yaml:"webhook_url,omitempty"`
	AuthToken  string `yaml:"auth_token,omitempty"`
}

type ScheduleConfig struct {
	IntervalHours int    `yaml:"interval_hours,omitempty"`
	PreferredHour *int   `yaml:"preferred_hour,omitempty"`
	MetricsListen string `yaml:"metrics_listen,omitempty"`
	LockFile      string `yaml:"lock_file,omitempty"`
}

type LogConfig struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"`
}

type Config struct {
	Environment string         `yaml:"environment"`
	Database    DatabaseConfig `yaml:"database"`
	Storage     StorageConfig  `yaml:"storage"`
	Backup      BackupConfig   `yaml:"backup,omitempty"`
	Restore     RestoreConfig  `yaml:"restore,omitempty"`
	Targets     TargetsConfig  `yaml:"targets,omitempty"`
	Alerts      AlertConfig    `yaml:"alerts,omitempty"`
	Schedule    ScheduleConfig `yaml:"schedule,omitempty"`
	Log         LogConfig      `yaml:"log,omitempty"`
}

func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	seen := make(map[string]bool)
	for i, t := range c.Database.CriticalTables {
		if t == "" {
			return fmt.Errorf("database.critical_tables[%d] must not be empty", i)
		}
		if seen[t] {
			return fmt.Errorf("database.critical_tables[%d] %q is listed twice", i, t)
		}
		seen[t] = true
	}
	if len(c.Storage.Regions) == 0 {
		return fmt.Errorf("at least one storage region is required")
	}
	names := make(map[string]bool)
	for i, r := range c.Storage.Regions {
		if r.Name == "" {
			return fmt.Errorf("storage.regions[%d].name is required", i)
		}
		if names[r.Name] {
			return fmt.Errorf("storage.regions[%d] %q is listed twice", i, r.Name)
		}
		names[r.Name] = true
		if r.Bucket == "" {
			return fmt.Errorf("storage.regions[%d].bucket is required", i)
		}
		switch r.Provider {
		case "", ProviderS3:
		case ProviderMinio:
			if r.Endpoint == "" {
				return fmt.Errorf("storage.regions[%d].endpoint is required for provider minio", i)
			}
			if r.AccessKey == "" || r.SecretKey == "" {
				return fmt.Errorf("storage.regions[%d] needs access_key and secret_key for provider minio", i)
			}
		default:
			return fmt.Errorf("storage.regions[%d].provider must be s3 or minio, got %q", i, r.Provider)
		}
	}
	if c.Storage.PreferredRegion != "" && !names[c.Storage.PreferredRegion] {
		return fmt.Errorf("storage.preferred_region %q does not match any region", c.Storage.PreferredRegion)
	}
	if c.Targets.RPOHours < 0 || c.Targets.RTOHours < 0 {
		return fmt.Errorf("targets.rpo_hours and targets.rto_hours must not be negative")
	}
	if c.Targets.ThroughputMBPerHour < 0 {
		return fmt.Errorf("targets.restore_throughput_mb_per_hour must not be negative")
	}
	if h := c.Schedule.PreferredHour; h != nil && (*h < 0 || *h > 23) {
		return fmt.Errorf("schedule.preferred_hour must be between 0 and 23")
	}
	return nil
}

// PreferredRegion returns the region fallback starts from. Defaults to the
// first configured region.
func (c *Config) PreferredRegion() Region {
	if c.Storage.PreferredRegion != "" {
		for _, r := range c.Storage.Regions {
			if r.Name == c.Storage.PreferredRegion {
				return r
			}
		}
	}
	return c.Storage.Regions[0]
}

// SecondaryRegions returns every other region in configured order.
func (c *Config) SecondaryRegions() []Region {
	preferred := c.PreferredRegion().Name
	secondaries := make([]Region, 0, len(c.Storage.Regions))
	for _, r := range c.Storage.Regions {
		if r.Name != preferred {
			secondaries = append(secondaries, r)
		}
	}
	return secondaries
}

func (c *Config) FindRegion(name string) (*Region, error) {
	for _, r := range c.Storage.Regions {
		if r.Name == name {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("region not found: %s", name)
}

func (c *Config) BackupWorkers() int {
	if c.Backup.Workers > 0 {
		return c.Backup.Workers
	}
	return 4
}

func (c *Config) UnitTimeout() time.Duration {
	if c.Backup.UnitTimeoutSeconds > 0 {
		return time.Duration(c.Backup.UnitTimeoutSeconds) * time.Second
	}
	return 60 * time.Second
}

func (c *Config) RetentionDays() int {
	if c.Backup.RetentionDays > 0 {
		return c.Backup.RetentionDays
	}
	return 30
}

func (c *Config) RestoreBatchSize() int {
	if c.Restore.BatchSize > 0 {
		return c.Restore.BatchSize
	}
	return 100
}

func (c *Config) TargetRPOHours() float64 {
	if c.Targets.RPOHours > 0 {
		return c.Targets.RPOHours
	}
	return 24
}

func (c *Config) TargetRTOHours() float64 {
	if c.Targets.RTOHours > 0 {
		return c.Targets.RTOHours
	}
	return 4
}

func (c *Config) ThroughputMBPerHour() float64 {
	if c.Targets.ThroughputMBPerHour > 0 {
		return c.Targets.ThroughputMBPerHour
	}
	return 1000
}

func (c *Config) HistoryWindow() int {
	if c.Targets.HistoryWindow > 0 {
		return c.Targets.HistoryWindow
	}
	return 10
}

func (c *Config) ScheduleInterval() time.Duration {
	if c.Schedule.IntervalHours > 0 {
		return time.Duration(c.Schedule.IntervalHours) * time.Hour
	}
	return 24 * time.Hour
}

func (c *Config) LockFile() string {
	if c.Schedule.LockFile != "" {
		return c.Schedule.LockFile
	}
	return "/tmp/drsnap.lock"
}

func (c *Config) AlertsEnabled() bool {
	return c.Alerts.WebhookURL != ""
}
