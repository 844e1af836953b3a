package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	IdP struct {
		// rest | memory
		Mode    string        `yaml:"mode"`
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`

		// Bounds for the provider-email enumeration fallback.
		ScanPageSize  int `yaml:"scan_page_size"`
		ScanPageLimit int `yaml:"scan_page_limit"`
	} `yaml:"idp"`

	Profile struct {
		// pg | memory
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		Pg     struct {
			MaxConns        int32         `yaml:"max_conns"`
			MinConns        int32         `yaml:"min_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		} `yaml:"pg"`
	} `yaml:"profile"`

	Cache struct {
		// memory | redis
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"cache"`

	Providers struct {
		Google    ProviderConfig `yaml:"google"`
		Facebook  ProviderConfig `yaml:"facebook"`
		Microsoft ProviderConfig `yaml:"microsoft"`
		Apple     ProviderConfig `yaml:"apple"`
	} `yaml:"providers"`

	Verification struct {
		TTL           time.Duration `yaml:"ttl"`
		SweepInterval time.Duration `yaml:"sweep_interval"`
	} `yaml:"verification"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Log struct {
		Level string `yaml:"level"`
		// json | console
		Format string `yaml:"format"`
	} `yaml:"log"`
}

type ProviderConfig struct {
	Enabled bool `yaml:"enabled"`
	// Endpoint pisa la URL por defecto del provider (tests / proxies).
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.IdP.Mode == "" {
		c.IdP.Mode = "memory"
	}
	if c.IdP.Timeout == 0 {
		c.IdP.Timeout = 10 * time.Second
	}
	if c.IdP.ScanPageSize == 0 {
		c.IdP.ScanPageSize = 100
	}
	if c.IdP.ScanPageLimit == 0 {
		c.IdP.ScanPageLimit = 20
	}
	if c.Profile.Driver == "" {
		c.Profile.Driver = "memory"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "linkjohn"
	}
	if c.Verification.TTL == 0 {
		c.Verification.TTL = 5 * time.Minute
	}
	if c.Verification.SweepInterval == 0 {
		c.Verification.SweepInterval = time.Minute
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	if v, ok := getEnvStr("IDP_MODE"); ok {
		c.IdP.Mode = v
	}
	if v, ok := getEnvStr("IDP_BASE_URL"); ok {
		c.IdP.BaseURL = v
	}
	if v, ok := getEnvStr("IDP_API_KEY"); ok {
		c.IdP.APIKey = v
	}
	if v, ok := getEnvDur("IDP_TIMEOUT"); ok {
		c.IdP.Timeout = v
	}

	if v, ok := getEnvStr("PROFILE_DRIVER"); ok {
		c.Profile.Driver = v
	}
	if v, ok := getEnvStr("PROFILE_DSN"); ok {
		c.Profile.DSN = v
	}

	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Driver = v
	}
	if v, ok := getEnvStr("CACHE_HOST"); ok {
		c.Cache.Host = v
	}
	if v, ok := getEnvInt("CACHE_PORT"); ok {
		c.Cache.Port = v
	}
	if v, ok := getEnvStr("CACHE_PASSWORD"); ok {
		c.Cache.Password = v
	}
	if v, ok := getEnvInt("CACHE_DB"); ok {
		c.Cache.DB = v
	}

	if v, ok := getEnvBool("PROVIDERS_GOOGLE_ENABLED"); ok {
		c.Providers.Google.Enabled = v
	}
	if v, ok := getEnvBool("PROVIDERS_FACEBOOK_ENABLED"); ok {
		c.Providers.Facebook.Enabled = v
	}
	if v, ok := getEnvBool("PROVIDERS_MICROSOFT_ENABLED"); ok {
		c.Providers.Microsoft.Enabled = v
	}
	if v, ok := getEnvBool("PROVIDERS_APPLE_ENABLED"); ok {
		c.Providers.Apple.Enabled = v
	}

	if v, ok := getEnvDur("VERIFICATION_TTL"); ok {
		c.Verification.TTL = v
	}
	if v, ok := getEnvDur("VERIFICATION_SWEEP_INTERVAL"); ok {
		c.Verification.SweepInterval = v
	}

	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}

	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
}

func (c *Config) Validate() error {
	switch c.IdP.Mode {
	case "rest":
		if c.IdP.BaseURL == "" {
			return fmt.Errorf("idp.base_url is required when idp.mode=rest")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown idp.mode %q (rest|memory)", c.IdP.Mode)
	}

	switch c.Profile.Driver {
	case "pg":
		if c.Profile.DSN == "" {
			return fmt.Errorf("profile.dsn is required when profile.driver=pg")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown profile.driver %q (pg|memory)", c.Profile.Driver)
	}

	switch c.Cache.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache.driver %q (memory|redis)", c.Cache.Driver)
	}

	switch c.SMTP.TLS {
	case "auto", "starttls", "ssl", "none":
	default:
		return fmt.Errorf("unknown smtp.tls %q (auto|starttls|ssl|none)", c.SMTP.TLS)
	}
	return nil
}

// IsProd reporta si corremos en producción.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }
