package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	applog "shopfront/internal/log"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DBDSN       string `envconfig:"DB_DSN" default:"shopfront.db"` // sqlite file in project root
	MediaDir    string `envconfig:"MEDIA_DIR" default:"./web/media"`
	LogFile     string `envconfig:"LOG_FILE" default:"./shopfront.log"`
	TemplateDir string `envconfig:"TEMPLATE_DIR" default:"./web/templates"`
	StaticDir   string `envconfig:"STATIC_DIR" default:"./web/static"`
	// SecureCookies should be true behind HTTPS.
	SecureCookies bool `envconfig:"SECURE_COOKIES" default:"false"`
	RatePerMinute int  `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		applog.Logger().Debug("config: no .env file, using environment only")
	}
	cfg, err := FromEnv()
	if err != nil {
		return Config{}, err
	}
	applog.Logger().WithFields(map[string]any{
		"port": cfg.Port, "db_dsn": cfg.DBDSN, "media_dir": cfg.MediaDir, "log_file": cfg.LogFile,
	}).Info("config.loaded")
	return cfg, nil
}

// FromEnv reads the process environment only.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "config")
	}
	if cfg.RatePerMinute <= 0 {
		return Config{}, errors.New("config: RATE_LIMIT_PER_MINUTE must be positive")
	}
	return cfg, nil
}
