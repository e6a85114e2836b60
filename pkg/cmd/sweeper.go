package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/factory"
	"github.com/danielkrainas/lapse/pkg/service"
	"github.com/danielkrainas/lapse/pkg/util/log"
)

func init() {
	rootCmd.AddCommand(sweeperCmd)
}

var sweeperCmd = &cobra.Command{
	Use:   "sweeper",
	Short: "run the poll expiry sweeper",
	Long:  "run the poll expiry sweeper on a fixed interval, with the operational api when enabled",
	Run: func(cmd *cobra.Command, args []string) {
		config, ctx := setup()
		componentManager, cleanup, err := factory.SweeperManager(ctx, config)
		if err != nil {
			log.Fatal("initialization failed", zap.Error(err))
			return
		}

		defer cleanup()
		runUntilSignal(componentManager)
	},
}

func runUntilSignal(componentManager *service.ComponentManager) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := componentManager.Run(); err != nil {
			log.Error("component manager failed", zap.Error(err))
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(ch)
	select {
	case <-done:
	case <-ch:
		log.Info("termination signal")
		componentManager.Shutdown()
		<-done
	}
}
