package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/visiontf/authcore/params"
)

type MySQLConfig struct {
	Dsn             string `mapstructure:"dsn"`
	TablePrefix     string `mapstructure:"tablePrefix"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns"`
	ConnMaxIdleTime int    `mapstructure:"connMaxIdleTime"`
	ConnMaxLifetime int    `mapstructure:"connMaxLifetime"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	PoolSize int    `mapstructure:"poolSize"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	TLS      bool   `mapstructure:"tls"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`
}

type MailConfig struct {
	Backend string     `mapstructure:"backend"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type TokenConfig struct {
	Issuer       string        `mapstructure:"issuer"`
	SigningKey   string        `mapstructure:"signingKey"`
	AccessMaxAge time.Duration `mapstructure:"accessMaxAge"`
}

type MaintenanceConfig struct {
	SessionSweepInterval  time.Duration `mapstructure:"sessionSweepInterval"`
	PasswordSprayInterval time.Duration `mapstructure:"passwordSprayInterval"`
}

type Config struct {
	Debug        bool              `mapstructure:"debug"`
	SiteName     string            `mapstructure:"siteName"`
	BaseURL      string            `mapstructure:"baseURL"`
	ListenAddr   string            `mapstructure:"listenAddr"`
	AllowOrigins []string          `mapstructure:"allowOrigins"`
	MySQL        MySQLConfig       `mapstructure:"mysql"`
	Redis        RedisConfig       `mapstructure:"redis"`
	Mail         MailConfig        `mapstructure:"mail"`
	Token        TokenConfig       `mapstructure:"token"`
	Maintenance  MaintenanceConfig `mapstructure:"maintenance"`
}

func (c *Config) Sanitize() error {
	if c.SiteName == "" {
		c.SiteName = "authcore"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":3000"
	}
	if c.Token.AccessMaxAge == 0 {
		c.Token.AccessMaxAge = params.AccessTokenMaxAge
	}
	if c.Maintenance.SessionSweepInterval == 0 {
		c.Maintenance.SessionSweepInterval = params.SessionSweepInterval
	}
	if c.Maintenance.PasswordSprayInterval == 0 {
		c.Maintenance.PasswordSprayInterval = params.PasswordSprayInterval
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	viper.SetConfigFile(filename)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
