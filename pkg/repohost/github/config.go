package github

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Token   string `mapstructure:"token" validate:"required"`
	BaseURL string `mapstructure:"base_url"`
}

func LoadConfig(profilePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(profilePath)
	v.SetEnvPrefix("costpilot_github")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse github config: %w", err)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("github token missing in %s", profilePath)
	}
	return &cfg, nil
}
