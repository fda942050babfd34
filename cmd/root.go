package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "interview-screener"
)

type Config struct {
	AI        *AIConfig        `mapstructure:"ai"`
	Catalog   *CatalogConfig   `mapstructure:"catalog"`
	Mongo     *MongoConfig     `mapstructure:"mongo"`
	Redis     *RedisConfig     `mapstructure:"redis"`
	Webhook   *WebhookConfig   `mapstructure:"webhook"`
	Server    *ServerConfig    `mapstructure:"server"`
	Dashboard *DashboardConfig `mapstructure:"dashboard"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	MaxRetries   int           `mapstructure:"max-retries"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

type CatalogConfig struct {
	// Source is one of builtin, file or mongo.
	Source string `mapstructure:"source"`
	File   string `mapstructure:"file"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	SessionTTL   time.Duration `mapstructure:"session-ttl"`
	DashboardTTL time.Duration `mapstructure:"dashboard-ttl"`
}

type WebhookConfig struct {
	URLFile string        `mapstructure:"url-file"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
	DeliveryTimeout time.Duration `mapstructure:"delivery-timeout"`
}

type DashboardConfig struct {
	Limit int `mapstructure:"limit"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-screener runs AI-scored screening interviews for MSP technicians",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"mongo.uri":              "MONGO_URI",
		"redis.addr":             "REDIS_ADDR",
		"webhook.url-file":       "WEBHOOK_URL_FILE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.max-retries", 2)
	viper.SetDefault("ai.gemini.timeout", 30*time.Second)
	viper.SetDefault("catalog.source", "builtin")
	viper.SetDefault("mongo.database", "interview_screener")
	viper.SetDefault("redis.session-ttl", 2*time.Hour)
	viper.SetDefault("redis.dashboard-ttl", 5*time.Minute)
	viper.SetDefault("webhook.timeout", 10*time.Second)
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.shutdown-timeout", 20*time.Second)
	viper.SetDefault("server.delivery-timeout", 15*time.Second)
	viper.SetDefault("dashboard.limit", 500)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional: defaults and environment are enough for a
	// local run. An explicitly given or broken file is still fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
