package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/factory"
	"github.com/danielkrainas/lapse/pkg/service"
	"github.com/danielkrainas/lapse/pkg/util/log"
)

func init() {
	rootCmd.AddCommand(sweepCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "run a single sweep and exit",
	Long:  "run a single sweep and exit, for use with an external scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, ctx := setup()
		sweeper, cleanup, err := factory.Sweeper(ctx, config)
		if err != nil {
			log.Fatal("initialization failed", zap.Error(err))
		}

		defer cleanup()
		task := &service.SweepTask{
			Sweeper:  sweeper,
			Deadline: config.Sweeper.Interval,
		}

		if err := task.RunTask(ctx); err != nil {
			log.Error("sweep failed", zap.Error(err))
			return err
		}

		return nil
	},
}
