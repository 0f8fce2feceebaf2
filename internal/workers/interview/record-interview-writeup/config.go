// internal/workers/interview/record-interview-writeup/config.go
package recordinterviewwriteup

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
