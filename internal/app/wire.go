//go:build wireinject
// +build wireinject

package app

import (
	"github.com/commercekit/checkout/internal/shared/config"
	"github.com/google/wire"
)

// InitializeInfra creates the infrastructure dependencies using Wire.
func InitializeInfra(cfg *config.Config) (*Infra, func(), error) {
	wire.Build(InfraSet)
	return nil, nil, nil
}
