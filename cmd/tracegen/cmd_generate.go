package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/tracegen/internal/generator"
	"github.com/user/tracegen/pkg/llm"
	"github.com/user/tracegen/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run agent sessions over the prompt source and build the dataset",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	provider := openai.New(&llm.Config{
		BaseURL:         cfg.API.BaseURL,
		APIKey:          cfg.API.APIKey,
		Model:           cfg.API.Model,
		ReasoningEffort: cfg.API.ReasoningEffort,
		Timeout:         time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		MaxRetries:      cfg.API.MaxRetries,
	})

	gen, err := generator.New(cfg, provider)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := gen.Run(ctx); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	return nil
}
