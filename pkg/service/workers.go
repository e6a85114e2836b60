package service

import (
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/util/log"
)

// ReceiverWorker installs a receiver and feeds it background messages until
// the component manager shuts down.
type ReceiverWorker struct {
	Receiver  *Receiver
	Messaging Messaging
}

var _ Component = (*ReceiverWorker)(nil)

func (worker *ReceiverWorker) ComponentName() string {
	return "receiver"
}

func (worker *ReceiverWorker) Run(ctx ComponentRunContext) error {
	worker.Receiver.Install()
	if err := worker.Messaging.OnBackgroundMessage(worker.Receiver.HandleBackgroundMessage); err != nil {
		log.Error("background message registration failed, notifications disabled", zap.Error(err))
	} else {
		log.Info("receiver worker ready", zap.String("receiver", worker.Receiver.ID))
	}

	exitReason := "shutdown"
	defer func() {
		log.Info("receiver worker stopped", zap.String("reason", exitReason))
	}()

	<-ctx.QuitCh
	if err := worker.Messaging.Close(); err != nil {
		exitReason = "close failed"
		return err
	}

	return nil
}
