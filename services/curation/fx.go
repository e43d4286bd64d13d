package curation

import (
	"go.uber.org/fx"
)

var Module = fx.Module("curation.service",
	fx.Provide(NewService),
)
