package httpapi

import (
	"creatorhub-controlplane/pkg/config"
	"creatorhub-controlplane/pkg/health"
	"creatorhub-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(
		NewCatalogHandler,
		NewCurationHandler,
		NewPayoutHandler,
		NewModerationHandler,
		NewNotificationHandler,
		NewProfileHandler,
		NewRouter,
	),
)

type RouterParams struct {
	fx.In
	Config       *config.Config
	Health       health.HealthService
	Catalog      *CatalogHandler
	Curation     *CurationHandler
	Payout       *PayoutHandler
	Moderation   *ModerationHandler
	Notification *NotificationHandler
	Profile      *ProfileHandler
}

func NewRouter(p RouterParams) *gin.Engine {
	if p.Config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Error())
	r.Use(middleware.WithActor())

	r.GET("/healthz", p.Health.Liveness)
	r.GET("/readyz", p.Health.Readiness)

	v1 := r.Group("/v1")
	{
		p.Catalog.Register(v1)
		p.Curation.Register(v1)
		p.Payout.Register(v1)
		p.Moderation.Register(v1)
		p.Notification.Register(v1)
		p.Profile.Register(v1)
	}

	return r
}
