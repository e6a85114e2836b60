package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/factory"
	"github.com/danielkrainas/lapse/pkg/util/log"
)

func init() {
	rootCmd.AddCommand(receiverCmd)
}

var receiverCmd = &cobra.Command{
	Use:   "receiver",
	Short: "run the notification receiver",
	Long:  "install the notification receiver, serve its client api and display background messages until terminated",
	Run: func(cmd *cobra.Command, args []string) {
		config, ctx := setup()
		componentManager, err := factory.ReceiverManager(ctx, config)
		if err != nil {
			log.Fatal("initialization failed", zap.Error(err))
			return
		}

		runUntilSignal(componentManager)
	},
}
