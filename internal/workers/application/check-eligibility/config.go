// internal/workers/application/check-eligibility/config.go
package checkeligibility

import "time"

type Config struct {
	Timeout time.Duration

	// CacheTTL bounds how long a verdict may be served without rechecking
	// the candidate's documents.
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  30 * time.Second,
		CacheTTL: 5 * time.Minute,
	}
}
