package moderation

import (
	"creatorhub-controlplane/services/catalog"
	"creatorhub-controlplane/services/profile"

	"go.uber.org/fx"
)

var Module = fx.Module("moderation",
	fx.Provide(
		func(s *catalog.Service) CatalogDesk { return s },
		func(s *profile.Service) ProfileDesk { return s },
		NewService,
	),
)
