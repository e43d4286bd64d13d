package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"creatorhub-controlplane/internal/httpapi"
	"creatorhub-controlplane/pkg/config"
	"creatorhub-controlplane/pkg/db"
	"creatorhub-controlplane/pkg/health"
	"creatorhub-controlplane/pkg/logger"
	"creatorhub-controlplane/pkg/redis"
	"creatorhub-controlplane/pkg/sequence"
	"creatorhub-controlplane/pkg/server"
	"creatorhub-controlplane/pkg/task"
	"creatorhub-controlplane/services/bootstrap"
	"creatorhub-controlplane/services/catalog"
	"creatorhub-controlplane/services/curation"
	"creatorhub-controlplane/services/moderation"
	"creatorhub-controlplane/services/notification"
	"creatorhub-controlplane/services/payout"
	"creatorhub-controlplane/services/profile"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		sequence.Module,
		fx.Provide(
			provideTracerProvider,
			provideSnowflakeNode,
		),
		bootstrap.Module,
		notification.Module,
		catalog.Module,
		curation.Module,
		payout.Module,
		moderation.Module,
		profile.Module,
		health.Module,
		httpapi.Module,
		server.ProvideHTTPServer,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideTracerProvider() trace.TracerProvider {
	return otel.GetTracerProvider()
}

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
