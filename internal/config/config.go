package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Server      ServerConfig      `mapstructure:"server"`
	Rules       RulesConfig       `mapstructure:"rules"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Award       AwardConfig       `mapstructure:"award"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type RulesConfig struct {
	// File optionally overrides the built-in activity catalog.
	File string `mapstructure:"file"`
}

type LeaderboardConfig struct {
	RefreshCron string `mapstructure:"refresh_cron"`
	MaxPageSize int    `mapstructure:"max_page_size"`
}

type AwardConfig struct {
	MaxRetries     int `mapstructure:"max_retries"`
	RetryBackoffMS int `mapstructure:"retry_backoff_ms"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("leaderboard.refresh_cron", "0 */5 * * * *")
	v.SetDefault("leaderboard.max_page_size", 100)
	v.SetDefault("award.max_retries", 3)
	v.SetDefault("award.retry_backoff_ms", 50)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
