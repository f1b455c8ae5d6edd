package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Environment string `mapstructure:"environment"`
	DemoMode    bool   `mapstructure:"demo_mode"`
	Server      struct {
		Port       int    `mapstructure:"port"`
		CORSOrigin string `mapstructure:"cors_origin"`
	} `mapstructure:"server"`
	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`
	Identity struct {
		URL    string `mapstructure:"url"`
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"identity"`
	Billing struct {
		URL       string `mapstructure:"url"`
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"billing"`
	TLS struct {
		Enable    bool     `mapstructure:"enable"`
		CertFile  string   `mapstructure:"cert_file"`
		KeyFile   string   `mapstructure:"key_file"`
		Hostnames []string `mapstructure:"hostnames"`
	} `mapstructure:"tls"`
}

// LoadConfig loads the configuration from an optional .env file, a config
// file, and the environment.
func LoadConfig(envFile string) (*Config, error) {
	// Missing .env files are fine; the environment may already be populated.
	if envFile != "" {
		_ = godotenv.Load(envFile)
	} else {
		_ = godotenv.Load()
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("environment", "DEV")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origin", "http://localhost:3000")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.sslmode", "disable")

	if err := viper.ReadInConfig(); err != nil {
		// A config file is optional when everything comes from the env.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Identity.URL = normalizeBaseURL(config.Identity.URL)
	config.Billing.URL = normalizeBaseURL(config.Billing.URL)

	return &config, nil
}

// normalizeBaseURL puts provider base URLs in a predictable form by trimming
// whitespace and any trailing slash, so users can paste the URL straight from
// the provider's console.
func normalizeBaseURL(input string) string {
	url := strings.TrimSpace(input)
	if strings.HasSuffix(url, "/") {
		url = strings.TrimRight(url, "/")
	}
	return url
}
