package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/factory"
	"github.com/danielkrainas/lapse/pkg/service"
	"github.com/danielkrainas/lapse/pkg/util/log"
)

var (
	configPath string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a toml or yaml config file")
}

var rootContext context.Context

var rootCmd = &cobra.Command{
	Use:          "lapse",
	Short:        "lapse",
	Long:         "lapse expires time-bounded polls and displays push notifications",
	SilenceUsage: true,
}

func Execute(ctx context.Context) {
	SetContext(ctx)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetContext(ctx context.Context) {
	rootContext = ctx
}

// setup resolves the configuration and returns a logging-aware context.
func setup() (*service.Config, context.Context) {
	config, err := service.ResolveConfig(configPath)
	if err != nil {
		log.Fatal("configuration failure", zap.Error(err))
	}

	ctx, err := factory.InitializeLoggingContext(rootContext, config)
	if err != nil {
		log.Fatal("logging configuration failure", zap.Error(err))
	}

	return config, ctx
}
