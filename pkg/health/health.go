package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var Module = fx.Module("health", fx.Provide(ProvideHealth))

type Dependency struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type Health struct {
	Status string       `json:"status"`
	Deps   []Dependency `json:"deps,omitempty"`
}

type HealthService interface {
	Liveness(c *gin.Context)
	Readiness(c *gin.Context)
}

type health struct {
	db    *gorm.DB
	redis *redis.Client
}

type HealthParams struct {
	fx.In
	DB    *gorm.DB      `optional:"true"`
	Redis *redis.Client `optional:"true"`
}

func ProvideHealth(p HealthParams) HealthService {
	return &health{
		db:    p.DB,
		redis: p.Redis,
	}
}

func (h *health) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, Health{Status: "ok"})
}

func (h *health) Readiness(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		mu   = make(chan Dependency, 2)
		g, _ = errgroup.WithContext(ctx)
	)

	if h.db != nil {
		g.Go(func() error {
			dep := Dependency{Name: "database", Status: "ok"}
			sqlDB, err := h.db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				dep.Status = "down"
				dep.Message = err.Error()
			}
			mu <- dep
			return err
		})
	}

	if h.redis != nil {
		g.Go(func() error {
			dep := Dependency{Name: "redis", Status: "ok"}
			if err := h.redis.Ping(ctx).Err(); err != nil {
				dep.Status = "down"
				dep.Message = err.Error()
				mu <- dep
				return err
			}
			mu <- dep
			return nil
		})
	}

	err := g.Wait()
	close(mu)

	out := Health{Status: "ok"}
	for dep := range mu {
		out.Deps = append(out.Deps, dep)
	}

	if err != nil {
		out.Status = "degraded"
		c.JSON(http.StatusServiceUnavailable, out)
		return
	}

	c.JSON(http.StatusOK, out)
}
