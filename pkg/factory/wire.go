//go:build wireinject
// +build wireinject

package factory

import (
	"context"

	"github.com/google/wire"

	"github.com/danielkrainas/lapse/pkg/service"
)

func Sweeper(ctx context.Context, config *service.Config) (*service.Sweeper, func(), error) {
	wire.Build(InitializeSweeper, InitializeStorage)
	return nil, nil, nil
}

func SweeperManager(ctx context.Context, config *service.Config) (*service.ComponentManager, func(), error) {
	wire.Build(InitializeSweeperManager, InitializeServer, InitializeAPI, InitializeSweeper, InitializeStorage)
	return nil, nil, nil
}

func ReceiverManager(ctx context.Context, config *service.Config) (*service.ComponentManager, error) {
	wire.Build(InitializeReceiverManager, InitializeReceiverServer, InitializeReceiverAPI, InitializeReceiver, InitializeRegistration, InitializeDisplayer, InitializeMessaging, InitializeHubFactory)
	return nil, nil
}

func Hub(config *service.Config) (service.HubConnector, func(), error) {
	wire.Build(InitializeHub, InitializeHubFactory)
	return nil, nil, nil
}
