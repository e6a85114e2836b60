package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/factory"
	"github.com/danielkrainas/lapse/pkg/service"
	"github.com/danielkrainas/lapse/pkg/util/log"
)

var (
	notifyTitle string
	notifyBody  string
	notifyTopic string
)

func init() {
	notifyCmd.Flags().StringVar(&notifyTitle, "title", "", "notification title")
	notifyCmd.Flags().StringVar(&notifyBody, "body", "", "notification body")
	notifyCmd.Flags().StringVar(&notifyTopic, "topic", "", "topic to publish on, defaults to messaging.topic")
	rootCmd.AddCommand(notifyCmd)
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "publish a notification on the push-delivery channel",
	Long:  "publish a notification on the push-delivery channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, _ := setup()
		hub, cleanup, err := factory.Publisher(config)
		if err != nil {
			log.Error("hub initialization failed", zap.Error(err))
			return err
		}

		defer cleanup()
		topic := notifyTopic
		if topic == "" {
			topic = config.Messaging.Topic
		}

		payload := &service.MessagePayload{}
		if notifyTitle != "" || notifyBody != "" {
			payload.Notification = &service.NotificationContent{
				Title: notifyTitle,
				Body:  notifyBody,
			}
		}

		e, err := service.PublishNotification(hub, topic, payload)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "published %s to %s\n", e.ID, topic)
		return nil
	},
}
