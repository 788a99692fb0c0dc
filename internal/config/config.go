package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	DBPath       string        `mapstructure:"db_path"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	StoreTimeout time.Duration `mapstructure:"store_timeout"`
	ReadLimit    int64         `mapstructure:"read_limit"`
	SendBuffer   int           `mapstructure:"send_buffer"`
	MsgRateLimit int           `mapstructure:"msg_rate_limit"`
	MsgRateEvery time.Duration `mapstructure:"msg_rate_every"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 5500)
	v.SetDefault("db_path", "gabble.db")
	v.SetDefault("jwt_secret", "change-me-in-production")
	v.SetDefault("store_timeout", "3s")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("send_buffer", 32)
	v.SetDefault("msg_rate_limit", 30)
	v.SetDefault("msg_rate_every", "10s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
