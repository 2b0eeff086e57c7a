//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

func InitializeApp(opts BuildOptions) (*App, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}
