// internal/workers/reporting/index-reporting-snapshot/config.go
package indexreportingsnapshot

import "time"

type Config struct {
	Timeout       time.Duration
	SnapshotIndex string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		SnapshotIndex: "applications-reporting",
	}
}
