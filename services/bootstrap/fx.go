package bootstrap

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("bootstrap",
	fx.Invoke(func(lc fx.Lifecycle, db *gorm.DB) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return Migrate(ctx, db)
			},
		})
	}),
)
