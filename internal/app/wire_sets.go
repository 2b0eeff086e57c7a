//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

var StoreSet = wire.NewSet(
	wire.FieldsOf(new(BuildOptions), "Logger"),
	NewStore,
	NewSourceDB,
	NewConfig,
	NewPresets,
)

var CoreInfraSet = wire.NewSet(
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
	NewFetcher,
	NewEngine,
	NewCache,
	NewExecutor,
	NewBuilder,
	NewServerParams,
)

var AppSet = wire.NewSet(
	StoreSet,
	CoreInfraSet,
	wire.Struct(new(AppOptions), "*"),
	NewApp,
)
