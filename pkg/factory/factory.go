package factory

import (
	"context"
	"fmt"
	"time"

	bagcontext "github.com/danielkrainas/gobag/context"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danielkrainas/lapse/pkg/api"
	"github.com/danielkrainas/lapse/pkg/service"
	"github.com/danielkrainas/lapse/pkg/util/log"
)

func InitializeStorage(ctx context.Context, config *service.Config) (service.PollStore, func(), error) {
	var (
		store service.PollStore
		err   error
	)

	switch config.Storage.Driver {
	case service.StorageDriverFirestore:
		store, err = service.NewFirestoreStore(ctx, service.FirestoreConfig{
			ProjectID:       config.Storage.Firestore.ProjectID,
			CredentialsFile: config.Storage.Firestore.CredentialsFile,
			Collection:      config.Storage.Collection,
		})

	case service.StorageDriverMemory, "":
		store, err = service.NewMemoryStore(nil)

	default:
		err = fmt.Errorf("unsupported storage driver: %q", config.Storage.Driver)
	}

	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn("storage close failed", zap.Error(err))
		}
	}

	return store, cleanup, nil
}

func InitializeSweeper(config *service.Config, store service.PollStore) *service.Sweeper {
	return service.NewSweeper(store, config.Sweeper.Concurrency)
}

func InitializeHubFactory(config *service.Config) service.HubFactory {
	return func() (service.HubConnector, error) {
		switch config.Hub.Driver {
		case service.HubDriverNATS:
			return service.NewNATSHub(service.NATSConfig{
				URL:       config.Hub.NATS.URL,
				ClusterID: config.Hub.NATS.ClusterID,
				ClientID:  config.Hub.NATS.ClientID,
				Durable:   config.Hub.NATS.Durable,
			})

		case service.HubDriverLocal, "":
			return service.NewLocalHub(), nil
		}

		return nil, fmt.Errorf("unsupported hub driver: %q", config.Hub.Driver)
	}
}

func InitializeHub(connect service.HubFactory) (service.HubConnector, func(), error) {
	hub, err := connect()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := hub.Close(); err != nil {
			log.Warn("hub close failed", zap.Error(err))
		}
	}

	return hub, cleanup, nil
}

// Publisher returns a hub for publishing to other lapse processes. The local
// hub has no subscribers outside the current process, so it is refused.
func Publisher(config *service.Config) (service.HubConnector, func(), error) {
	switch config.Hub.Driver {
	case service.HubDriverLocal, "":
		return nil, nil, fmt.Errorf("hub driver %q: %w, use %q", config.Hub.Driver, service.ErrHubNotShared, service.HubDriverNATS)
	}

	return Hub(config)
}

func InitializeMessaging(config *service.Config, connect service.HubFactory) service.Messaging {
	return service.InitMessaging(config.Messaging.Identity, config.Messaging.Topic, connect)
}

func InitializeDisplayer(config *service.Config) service.Displayer {
	return service.NewDisplayer(config.Notifications.Display)
}

func InitializeRegistration() *service.Registration {
	return service.NewRegistration()
}

func InitializeReceiver(config *service.Config, reg *service.Registration, display service.Displayer) *service.Receiver {
	renderer := service.DefaultRenderer()
	if config.Notifications.DefaultTitle != "" {
		renderer.DefaultTitle = config.Notifications.DefaultTitle
	}

	if config.Notifications.DefaultBody != "" {
		renderer.DefaultBody = config.Notifications.DefaultBody
	}

	if config.Notifications.Icon != "" {
		renderer.Icon = config.Notifications.Icon
	}

	return service.NewReceiver(reg, display, renderer)
}

func InitializeAPI(store service.PollStore, sweeper *service.Sweeper) (*api.Mux, error) {
	return api.NewMux(store, sweeper)
}

func InitializeServer(ctx context.Context, config *service.Config, mux *api.Mux) (*api.Server, error) {
	return api.NewServer(ctx, mux, api.ServerConfig{
		Addr: config.HTTP.Addr,
	})
}

func InitializeSweeperManager(ctx context.Context, config *service.Config, sweeper *service.Sweeper, server *api.Server) *service.ComponentManager {
	cm := service.NewComponentManager(ctx)
	task := service.NewTaskComponent("sweep", config.Sweeper.Interval, zapcore.DebugLevel, &service.SweepTask{
		Sweeper:  sweeper,
		Deadline: config.Sweeper.Interval,
	})

	task.Warmup = config.Sweeper.Warmup
	cm.MustUse(task)
	if config.HTTP.Enabled {
		cm.MustUse(server)
	}

	return cm
}

func InitializeReceiverAPI(config *service.Config, reg *service.Registration, receiver *service.Receiver) (*api.Mux, error) {
	return api.NewReceiverMux(reg, receiver, config.Receiver.Upstream, config.Receiver.InboxSize)
}

func InitializeReceiverServer(ctx context.Context, config *service.Config, mux *api.Mux) (*api.Server, error) {
	return api.NewServer(ctx, mux, api.ServerConfig{
		Addr: config.Receiver.Addr,
	})
}

func InitializeReceiverManager(ctx context.Context, config *service.Config, receiver *service.Receiver, messaging service.Messaging, server *api.Server) *service.ComponentManager {
	cm := service.NewComponentManager(ctx)
	cm.MustUse(&service.ReceiverWorker{
		Receiver:  receiver,
		Messaging: messaging,
	})

	if config.HTTP.Enabled {
		cm.MustUse(server)
	}

	return cm
}

// InitializeLoggingContext configures the zap logger used by the services and
// the logrus logger behind the request-scoped loggers of the HTTP layer.
func InitializeLoggingContext(ctx context.Context, config *service.Config) (context.Context, error) {
	if err := log.Configure(config.Log.Level, config.Log.Formatter, config.Log.Fields); err != nil {
		return nil, err
	}

	logrus.SetLevel(logLevel(config.Log.Level))
	switch config.Log.Formatter {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})

	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
		})

	default:
		return nil, fmt.Errorf("unsupported formatter: %q", config.Log.Formatter)
	}

	if len(config.Log.Fields) > 0 {
		var fields []interface{}
		for k := range config.Log.Fields {
			fields = append(fields, k)
		}

		ctx = bagcontext.WithValues(ctx, config.Log.Fields)
		ctx = bagcontext.WithLogger(ctx, bagcontext.GetLogger(ctx, fields...))
	}

	ctx = bagcontext.WithLogger(ctx, bagcontext.GetLogger(ctx))
	log.Debug("logging configured", zap.String("formatter", config.Log.Formatter), zap.String("level", config.Log.Level))
	return ctx, nil
}

func logLevel(level string) logrus.Level {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		l = logrus.InfoLevel
		logrus.Warnf("error parsing level %q: %v, using %q", level, err, l)
	}

	return l
}
