package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"creatorhub-controlplane/pkg/config"
	"creatorhub-controlplane/pkg/db"
	"creatorhub-controlplane/pkg/logger"
	"creatorhub-controlplane/pkg/redis"
	"creatorhub-controlplane/pkg/sequence"
	"creatorhub-controlplane/pkg/task"
	"creatorhub-controlplane/pkg/taskname"
	"creatorhub-controlplane/services/notification"
	"creatorhub-controlplane/services/payout"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		sequence.Module,
		fx.Provide(provideSnowflakeNode),
		notification.Module,
		payout.Module,
		payout.TaskModule,
		task.Server,
		fx.Invoke(registerHandlers),
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

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func registerHandlers(mux *asynq.ServeMux, t *payout.Task) {
	mux.HandleFunc(taskname.PayoutSettle, t.HandleSettleTask)
}
