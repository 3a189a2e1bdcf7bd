package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var ErrMissingToken = errors.New("gologin access token is not configured")

type Config struct {
	Logger   LoggerConfig   `yaml:"logger" mapstructure:"logger"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	GoLogin  GoLoginConfig  `yaml:"gologin" mapstructure:"gologin"`
	Engine   EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Notify   NotifyConfig   `yaml:"notify" mapstructure:"notify"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Verify   VerifyConfig   `yaml:"verify" mapstructure:"verify"`
}

type LoggerConfig struct {
	ServiceName string `yaml:"serviceName" mapstructure:"serviceName"`
	Level       string `yaml:"level" mapstructure:"level"`
	// Format is "console" or "json".
	Format     string `yaml:"format" mapstructure:"format"`
	AddSource  bool   `yaml:"addSource" mapstructure:"addSource"`
	LogFile    string `yaml:"logFile" mapstructure:"logFile"`
	MaxSize    int    `yaml:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `yaml:"maxBackups" mapstructure:"maxBackups"`
	MaxAge     int    `yaml:"maxAge" mapstructure:"maxAge"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver     string `yaml:"driver" mapstructure:"driver"`
	Host       string `yaml:"host" mapstructure:"host"`
	Port       int    `yaml:"port" mapstructure:"port"`
	User       string `yaml:"user" mapstructure:"user"`
	Password   string `yaml:"password" mapstructure:"password"`
	Name       string `yaml:"name" mapstructure:"name"`
	SSLMode    string `yaml:"sslMode" mapstructure:"sslMode"`
	SQLitePath string `yaml:"sqlitePath" mapstructure:"sqlitePath"`
}

// URL is the postgres connection string for the configured fields.
func (c DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
	}
	return u.String()
}

type GoLoginConfig struct {
	BaseURL     string      `yaml:"baseURL" mapstructure:"baseURL"`
	AccessToken string      `yaml:"accessToken" mapstructure:"accessToken"`
	TimeoutMs   int         `yaml:"timeoutMs" mapstructure:"timeoutMs"`
	QPS         float64     `yaml:"qps" mapstructure:"qps"`
	Burst       int         `yaml:"burst" mapstructure:"burst"`
	Retry       RetryConfig `yaml:"retry" mapstructure:"retry"`
}

type RetryConfig struct {
	Count     int `yaml:"count" mapstructure:"count"`
	WaitMs    int `yaml:"waitMs" mapstructure:"waitMs"`
	MaxWaitMs int `yaml:"maxWaitMs" mapstructure:"maxWaitMs"`
}

func (c GoLoginConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c RetryConfig) Wait() time.Duration {
	if c.WaitMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.WaitMs) * time.Millisecond
}

func (c RetryConfig) MaxWait() time.Duration {
	if c.MaxWaitMs <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.MaxWaitMs) * time.Millisecond
}

type EngineConfig struct {
	// Workers bounds how many usernames are provisioned at once. 1 keeps the
	// batch strictly sequential.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// CookieTTLDays is the lifetime given to persistent cookies.
	CookieTTLDays int `yaml:"cookieTTLDays" mapstructure:"cookieTTLDays"`
}

func (c EngineConfig) CookieTTL() time.Duration {
	if c.CookieTTLDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.CookieTTLDays) * 24 * time.Hour
}

type NotifyConfig struct {
	Email EmailConfig `yaml:"email" mapstructure:"email"`
}

type EmailConfig struct {
	Enabled  bool     `yaml:"enabled" mapstructure:"enabled"`
	SMTPHost string   `yaml:"smtpHost" mapstructure:"smtpHost"`
	SMTPPort int      `yaml:"smtpPort" mapstructure:"smtpPort"`
	Username string   `yaml:"username" mapstructure:"username"`
	Password string   `yaml:"password" mapstructure:"password"`
	From     string   `yaml:"from" mapstructure:"from"`
	To       []string `yaml:"to,omitempty" mapstructure:"to"`
}

type ServerConfig struct {
	Addr string     `yaml:"addr" mapstructure:"addr"`
	Cors CorsConfig `yaml:"cors" mapstructure:"cors"`
}

type CorsConfig struct {
	AllowOrigins     []string `yaml:"allowOrigins,omitempty" mapstructure:"allowOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials" mapstructure:"allowCredentials"`
}

type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Format is "json" or "yaml".
	Format string `yaml:"format" mapstructure:"format"`
}

type VerifyConfig struct {
	Headless  bool `yaml:"headless" mapstructure:"headless"`
	TimeoutMs int  `yaml:"timeoutMs" mapstructure:"timeoutMs"`
}

func (c VerifyConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 45 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// envBindings keeps the variable names the account database and the GoLogin
// scripts have always used.
var envBindings = map[string]string{
	"database.host":       "DB_HOST",
	"database.port":       "DB_PORT",
	"database.user":       "DB_USER",
	"database.password":   "DB_PASSWORD",
	"database.name":       "DB_NAME",
	"gologin.accessToken": "GOLOGIN_ACCESS_TOKEN",
}

// Load reads path (optional), the dotenv file next to the working directory
// and the environment, in increasing priority.
func Load(path string) (Config, error) {
	if err := LoadEnvFile(DefaultEnvFile); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("PROFILESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, "PROFILESYNC_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return Config{}, err
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// WriteDefault writes the default configuration as YAML. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	b, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("logger.serviceName", d.Logger.ServiceName)
	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.format", d.Logger.Format)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.sqlitePath", d.Database.SQLitePath)
	v.SetDefault("gologin.baseURL", d.GoLogin.BaseURL)
	v.SetDefault("engine.workers", d.Engine.Workers)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("verify.headless", d.Verify.Headless)
}

func (c *Config) applyDefaults() {
	if c.Logger.ServiceName == "" {
		c.Logger.ServiceName = "profilesync"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "console"
	}
	if c.Logger.MaxSize <= 0 {
		c.Logger.MaxSize = 50
	}
	if c.Logger.MaxBackups <= 0 {
		c.Logger.MaxBackups = 3
	}
	if c.Logger.MaxAge <= 0 {
		c.Logger.MaxAge = 28
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port <= 0 {
		c.Database.Port = 5432
	}
	if c.Database.User == "" {
		c.Database.User = "postgres"
	}
	if c.Database.Name == "" {
		c.Database.Name = "cookies_db"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "./data/accounts.db"
	}
	if c.GoLogin.BaseURL == "" {
		c.GoLogin.BaseURL = "https://api.gologin.com"
	}
	if c.GoLogin.QPS <= 0 {
		c.GoLogin.QPS = 2
	}
	if c.GoLogin.Burst <= 0 {
		c.GoLogin.Burst = 4
	}
	if c.GoLogin.Retry.Count < 0 {
		c.GoLogin.Retry.Count = 0
	}
	if c.Engine.Workers <= 0 {
		c.Engine.Workers = 1
	}
	if c.Engine.CookieTTLDays <= 0 {
		c.Engine.CookieTTLDays = 30
	}
	if c.Notify.Email.SMTPPort <= 0 {
		c.Notify.Email.SMTPPort = 587
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8090"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "./exports"
	}
	if c.Export.Format == "" {
		c.Export.Format = "json"
	}
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	switch c.Export.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("export.format must be json or yaml, got %q", c.Export.Format)
	}
	if c.GoLogin.BaseURL == "" {
		return errors.New("gologin.baseURL is required")
	}
	if c.Notify.Email.Enabled {
		if c.Notify.Email.SMTPHost == "" {
			return errors.New("notify.email.smtpHost is required when email is enabled")
		}
		if len(c.Notify.Email.To) == 0 {
			return errors.New("notify.email.to is required when email is enabled")
		}
	}
	return nil
}
