package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mydash-app/mydash/pkg/log"
)

const (
	EnvProd = "prod"
	EnvTest = "test"
)

type Config struct {
	Env string `yaml:"env" env:"ENV" env-upd:""`

	Postgres Postgres `yaml:"postgres"`
	Weather  Weather  `yaml:"weather"`
	Accounts Accounts `yaml:"accounts"`
	Refresh  Refresh  `yaml:"refresh"`
}

type Postgres struct {
	Database string `yaml:"database" env:"POSTGRES_DATABASE" env-upd:""`
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-upd:""`
	Schema   string `yaml:"schema" env:"POSTGRES_SCHEMA" env-upd:""`
	Username string `yaml:"username" env:"POSTGRES_USER" env-upd:""`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-upd:""`
	Port     int64  `yaml:"port" env:"POSTGRES_PORT" env-upd:""`
}

type Weather struct {
	APIKey string `yaml:"api_key" env:"OPENWEATHER_API_KEY" env-upd:""`
	City   string `yaml:"city" env:"OPENWEATHER_CITY" env-default:"Seoul" env-upd:""`
	Units  string `yaml:"units" env:"OPENWEATHER_UNITS" env-default:"metric" env-upd:""`
}

type Accounts struct {
	// Endpoints maps a summary kind ("gmail", "calendar", "tasks") to the
	// JSON endpoint serving it.
	Endpoints map[string]string `yaml:"endpoints"`
}

type Refresh struct {
	Telemetry time.Duration `yaml:"telemetry" env:"REFRESH_INTERVAL_TELEMETRY" env-default:"1s" env-upd:""`
	Quotes    time.Duration `yaml:"quotes" env:"REFRESH_INTERVAL_QUOTES" env-default:"5m" env-upd:""`
	Accounts  time.Duration `yaml:"accounts" env:"REFRESH_INTERVAL_ACCOUNTS" env-default:"5m" env-upd:""`
	Weather   time.Duration `yaml:"weather" env:"REFRESH_INTERVAL_WEATHER" env-default:"10m" env-upd:""`
}

func (c *Config) GetPostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Postgres.Username, c.Postgres.Password, c.Postgres.Host, c.Postgres.Port, c.Postgres.Database)
}

func GetConfig(configPath string) *Config {
	if configPath == "" {
		log.Fatal("config path is required")
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatal(err.Error())
	}

	if err := cleanenv.UpdateEnv(&cfg); err != nil {
		log.Fatal(err.Error())
	}

	return &cfg
}
