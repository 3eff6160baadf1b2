// Package config loads the finboard service configuration from a YAML file
// with CLI-flag fallbacks and environment overrides for secrets.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a setting is absent from YAML, flags and env.
const (
	DefaultListenAddr   = ":8080"
	DefaultAPIEndpoint  = "https://api.hgbrasil.com/finance"
	DefaultPollInterval = time.Hour
	DefaultOpenHour     = 10
	DefaultCloseHour    = 18
	DefaultMaxHistory   = 20
	DefaultMaxItems     = 10
	DefaultSessionTTL   = 30 * time.Minute
	DefaultUsersDir     = "./wal/users"
)

// Environment variables overriding the config file. Secrets should be set
// this way rather than committed in YAML.
const (
	EnvAPIKey    = "FINBOARD_API_KEY"
	EnvJWTSecret = "FINBOARD_JWT_SECRET"
)

// Config holds all service settings.
type Config struct {
	ListenAddr      string
	APIEndpoint     string
	APIKey          string
	PollInterval    time.Duration
	MarketOpenHour  int
	MarketCloseHour int
	MaxHistory      int
	MaxItems        int
	SessionTTL      time.Duration
	JWTSecret       string
	UsersDir        string
}

// ConfigTmp is the YAML wire form of Config. The setup wizard also uses it
// to generate config files.
type ConfigTmp struct {
	ListenAddr      string        `yaml:"listen_addr"`
	APIEndpoint     string        `yaml:"api_endpoint"`
	APIKey          string        `yaml:"api_key,omitempty"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	MarketOpenHour  *int          `yaml:"market_open_hour,omitempty"`
	MarketCloseHour *int          `yaml:"market_close_hour,omitempty"`
	MaxHistory      int           `yaml:"max_history_points,omitempty"`
	MaxItems        int           `yaml:"max_items,omitempty"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	JWTSecret       string        `yaml:"jwt_secret,omitempty"`
	UsersDir        string        `yaml:"users_dir,omitempty"`
}

// Get loads the configuration. With --config it reads the YAML file,
// otherwise CLI flags are used. FINBOARD_API_KEY and FINBOARD_JWT_SECRET
// override both sources.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	addr := flag.String("addr", DefaultListenAddr, "listen address, example: :8080")
	endpoint := flag.String("endpoint", DefaultAPIEndpoint, "finance API endpoint")
	pollInterval := flag.Duration("pollinterval", DefaultPollInterval, "quote poll interval")
	openHour := flag.Int("openhour", DefaultOpenHour, "market open hour, local time")
	closeHour := flag.Int("closehour", DefaultCloseHour, "market close hour, local time")
	flag.Parse()

	var cfg Config
	var err error
	if *configPath != "" {
		cfg, err = getYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
	} else {
		cfg = Config{
			ListenAddr:      *addr,
			APIEndpoint:     *endpoint,
			PollInterval:    *pollInterval,
			MarketOpenHour:  *openHour,
			MarketCloseHour: *closeHour,
		}
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, fmt.Errorf("decode yaml config: %w", err)
	}

	cfg := Config{
		ListenAddr:   tmp.ListenAddr,
		APIEndpoint:  tmp.APIEndpoint,
		APIKey:       tmp.APIKey,
		PollInterval: tmp.PollInterval,
		MaxHistory:   tmp.MaxHistory,
		MaxItems:     tmp.MaxItems,
		SessionTTL:   tmp.SessionTTL,
		JWTSecret:    tmp.JWTSecret,
		UsersDir:     tmp.UsersDir,
	}
	cfg.MarketOpenHour = DefaultOpenHour
	if tmp.MarketOpenHour != nil {
		cfg.MarketOpenHour = *tmp.MarketOpenHour
	}
	cfg.MarketCloseHour = DefaultCloseHour
	if tmp.MarketCloseHour != nil {
		cfg.MarketCloseHour = *tmp.MarketCloseHour
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = DefaultAPIEndpoint
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.UsersDir == "" {
		cfg.UsersDir = DefaultUsersDir
	}
}

func applyEnv(cfg *Config) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.APIKey = key
	}
	if secret := os.Getenv(EnvJWTSecret); secret != "" {
		cfg.JWTSecret = secret
	}
}

func validate(cfg Config) error {
	if cfg.MarketOpenHour < 0 || cfg.MarketOpenHour > 23 {
		return fmt.Errorf("incorrect 'market_open_hour' param: %d, must be in [0, 23]", cfg.MarketOpenHour)
	}
	if cfg.MarketCloseHour <= cfg.MarketOpenHour || cfg.MarketCloseHour > 24 {
		return fmt.Errorf("incorrect 'market_close_hour' param: %d, must be in (%d, 24]", cfg.MarketCloseHour, cfg.MarketOpenHour)
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required, set 'jwt_secret' in config or %s", EnvJWTSecret)
	}
	return nil
}
