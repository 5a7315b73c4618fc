package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "cvforge"
)

type Config struct {
	Server   *ServerConfig   `mapstructure:"server"`
	Database *DatabaseConfig `mapstructure:"database"`
	AI       *AIConfig       `mapstructure:"ai"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey        string `mapstructure:"api-key"`
	APIKeyFile    string `mapstructure:"api-key-file"`
	MaxLogLength  int    `mapstructure:"max-log-length"`
	TaskTimeout   string `mapstructure:"task-timeout"`
	IntentTimeout string `mapstructure:"intent-timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cvforge is a resume-builder backend driven by configurable AI tasks",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("database.url", "DATABASE_URL"); err != nil {
		log.Fatalf("binding DATABASE_URL environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cvforge.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for commands touching the database or the AI
	// provider. Version does not need it.
	if serveCmd.CalledAs() == "" && tasksCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Environment variables can carry the whole configuration, so a
		// missing default config file is fine. An explicit one is not.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Database == nil {
		config.Database = &DatabaseConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}

	return config, nil
}
