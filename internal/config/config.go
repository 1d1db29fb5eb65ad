package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

// Terminal is a point-of-sale device allowed to request API tokens.
type Terminal struct {
	ID     string `yaml:"id"`
	Secret string `yaml:"secret"`
}

type Config struct {
	App struct {
		Env  string `yaml:"env"`
		Name string `yaml:"name"`
	} `yaml:"app"`
	Server struct {
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		IdleTimeout  time.Duration `yaml:"idle_timeout"`
	} `yaml:"server"`
	Postgres struct {
		DSN     string `yaml:"dsn"`
		Migrate bool   `yaml:"migrate"`
	} `yaml:"postgres"`
	Kafka struct {
		BootstrapServers string `yaml:"bootstrap_servers"`
		Topic            string `yaml:"topic"`
		DLQTopic         string `yaml:"dlq_topic"`
		Group            string `yaml:"group"`
	} `yaml:"kafka"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	RateLimit struct {
		Requests int           `yaml:"requests"`
		Window   time.Duration `yaml:"window"`
	} `yaml:"rate_limit"`
	Jaeger struct {
		Port string `yaml:"port"`
	} `yaml:"jaeger"`
	OIDC struct {
		URL      string `yaml:"url"`
		ClientID string `yaml:"client_id"`
	} `yaml:"oidc"`
	JWT struct {
		Secret string        `yaml:"jwt_secret"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"jwt"`
	Terminals  []Terminal `yaml:"terminals"`
	ClickHouse struct {
		Addr     string `yaml:"addr"`
		Database string `yaml:"database"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"clickhouse"`
}

// PathFromFlags reads --config/-c from args, falling back to CONFIG_PATH and
// then DefaultPath.
func PathFromFlags(args []string) (string, error) {
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.ParseErrorsAllowlist.UnknownFlags = true
	path := fs.StringP("config", "c", "", "path to the YAML config file")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *path != "" {
		return *path, nil
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env, nil
	}
	return DefaultPath, nil
}

// Load reads the YAML file at configPath, expanding ${VAR} references from the
// environment. A .env file in the working directory is loaded first if present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(file)
}

// Parse decodes raw YAML after environment expansion and applies defaults.
func Parse(raw []byte) (*Config, error) {
	cfg := &Config{}
	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "production"
	}
	if c.App.Name == "" {
		c.App.Name = "pos-payment-gateway"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "transactions.accepted"
	}
	if c.Kafka.DLQTopic == "" {
		c.Kafka.DLQTopic = c.Kafka.Topic + ".dlq"
	}
	if c.Kafka.Group == "" {
		c.Kafka.Group = "sales-projector"
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 100
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = time.Hour
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "default"
	}
}

// Validate checks the settings the payment gateway cannot start without.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.jwt_secret is required")
	}
	return nil
}

// TerminalSecret returns the configured secret of a terminal.
func (c *Config) TerminalSecret(id string) (string, bool) {
	for _, t := range c.Terminals {
		if t.ID == id {
			return t.Secret, true
		}
	}
	return "", false
}
