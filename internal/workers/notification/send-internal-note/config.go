// internal/workers/notification/send-internal-note/config.go
package sendinternalnote

import "time"

type Config struct {
	// RecipientRoles is the configurable role set that receives internal
	// notes, defaulting to admin, rh and recruteur.
	RecipientRoles []string

	EmailEnabled      bool
	SMSEnabled        bool
	FromEmail         string
	AWSRegion         string
	RecipientCacheTTL time.Duration
	Timeout           time.Duration
}

func LoadConfig() *Config {
	return &Config{
		RecipientRoles:    []string{"admin", "rh", "recruteur"},
		RecipientCacheTTL: 5 * time.Minute,
		Timeout:           30 * time.Second,
	}
}
