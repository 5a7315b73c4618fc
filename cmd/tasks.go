package cmd

import (
	"context"
	"fmt"
	"log"

	applogger "github.com/cvforge/cvforge/internal/logger"
	"github.com/cvforge/cvforge/internal/storage/postgres"
	"github.com/cvforge/cvforge/internal/taskconfig"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and manage stored task configurations",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known tasks and their stored configurations",
	Run: func(_ *cobra.Command, _ []string) {
		tasksList()
	},
}

var tasksActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Pick a stored configuration and make it the active one for its task",
	Run: func(_ *cobra.Command, _ []string) {
		tasksActivate()
	},
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksActivateCmd)
}

func openStore(ctx context.Context) (*postgres.Store, *zap.Logger) {
	logger, err := applogger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config.Database.URL == "" {
		logger.Fatal("database url is required",
			zap.String("hint", "set DATABASE_URL or the database.url key in the configuration file"),
		)
	}

	store, err := postgres.Open(ctx, config.Database.URL)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}

	return store, logger
}

func tasksList() {
	ctx := context.Background()
	store, logger := openStore(ctx)
	defer store.Close()

	registry := taskconfig.NewRegistry()
	configs, err := store.ListConfigs(ctx)
	if err != nil {
		logger.Fatal("listing stored configs", zap.Error(err))
	}

	byTask := make(map[string][]*taskconfig.TaskConfig)
	for _, cfg := range configs {
		byTask[cfg.TaskName] = append(byTask[cfg.TaskName], cfg)
	}

	for _, name := range registry.TaskNames() {
		def, _ := registry.Lookup(name)
		fmt.Printf("%s (default model: %s)\n", name, def.ModelName)
		stored := byTask[name]
		if len(stored) == 0 {
			fmt.Println("  no stored configs, defaults apply")
			continue
		}
		for _, cfg := range stored {
			marker := " "
			if cfg.IsActive {
				marker = "*"
			}
			fmt.Printf("  %s %s\n", marker, cfg)
		}
		delete(byTask, name)
	}

	// Stored configs for task names the registry does not know.
	for name, stored := range byTask {
		fmt.Printf("%s (unknown task, configs are inert)\n", name)
		for _, cfg := range stored {
			fmt.Printf("    %s\n", cfg)
		}
	}
}

func tasksActivate() {
	ctx := context.Background()
	store, logger := openStore(ctx)
	defer store.Close()

	configs, err := store.ListConfigs(ctx)
	if err != nil {
		logger.Fatal("listing stored configs", zap.Error(err))
	}

	if len(configs) == 0 {
		fmt.Println("no stored configurations to activate")
		return
	}

	items := make([]string, len(configs))
	for i, cfg := range configs {
		items[i] = cfg.String()
	}

	prompt := promptui.Select{
		Label: "Select a configuration to activate",
		Items: items,
		Size:  10,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	activated, err := store.Activate(ctx, configs[idx].ID)
	if err != nil {
		logger.Fatal("activating config", zap.Error(err))
	}

	fmt.Printf("activated %s\n", activated)
}
