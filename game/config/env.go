package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerSettings are the process-level settings read from the environment.
// Command-line flags take precedence over them.
type ServerSettings struct {
	Host      string `env:"GEOCOIN_HOST" envDefault:"localhost"`
	Port      int    `env:"PORT" envDefault:"8080"`
	ConfigDir string `env:"CONFIG_DIR" envDefault:"configs"`
	Debug     bool   `env:"GEOCOIN_DEBUG"`

	SessionMaxAge   time.Duration `env:"GEOCOIN_SESSION_MAX_AGE" envDefault:"24h"`
	CleanupInterval time.Duration `env:"GEOCOIN_CLEANUP_INTERVAL" envDefault:"1h"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServerSettings reads ServerSettings from the environment. NGROK_AUTH_TOKEN
// is accepted as a fallback spelling of NGROK_AUTHTOKEN.
func LoadServerSettings() (*ServerSettings, error) {
	var settings ServerSettings
	if err := ParseEnv(&settings); err != nil {
		return nil, err
	}
	if settings.NgrokAuthToken == "" {
		var alt struct {
			Token string `env:"NGROK_AUTH_TOKEN"`
		}
		if err := ParseEnv(&alt); err != nil {
			return nil, err
		}
		settings.NgrokAuthToken = alt.Token
	}
	return &settings, nil
}

// Addr returns host:port
func (s *ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
