package httpapi

import (
	"net/http"

	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/pkg/middleware"
	"creatorhub-controlplane/services/moderation"

	"github.com/gin-gonic/gin"
)

type ModerationHandler struct {
	svc *moderation.Service
}

func NewModerationHandler(svc *moderation.Service) *ModerationHandler {
	return &ModerationHandler{svc: svc}
}

func (h *ModerationHandler) Register(r *gin.RouterGroup) {
	r.POST("/reports", h.file)
	r.GET("/reports", h.list)
	r.GET("/reports/:id", h.get)
	r.POST("/reports/:id/investigate", h.investigate)
	r.POST("/reports/:id/resolve", h.resolve)
	r.POST("/reports/:id/dismiss", h.dismiss)
	r.POST("/moderation/products/:id/:action", h.overrideProduct)
	r.POST("/moderation/users/:id/:action", h.overrideUser)
}

type fileReportRequest struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Reason     string `json:"reason"`
}

func (h *ModerationHandler) file(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		abort(c, err)
		return
	}

	var req fileReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errutil.BadRequest("invalid request body", err))
		return
	}

	report, err := h.svc.FileReport(c.Request.Context(), moderation.FileParams{
		ReporterID: actor.ID,
		TargetType: moderation.TargetType(req.TargetType),
		TargetID:   req.TargetID,
		Reason:     req.Reason,
	})
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *ModerationHandler) list(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	reports, err := h.svc.ListReports(c.Request.Context(), moderation.ListParams{
		Status:     moderation.Status(c.Query("status")),
		TargetType: moderation.TargetType(c.Query("target_type")),
		TargetID:   c.Query("target_id"),
	})
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reports})
}

func (h *ModerationHandler) get(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	report, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ModerationHandler) investigate(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	report, err := h.svc.Investigate(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type closeReportRequest struct {
	Note string `json:"note"`
}

func (h *ModerationHandler) resolve(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	var req closeReportRequest
	_ = c.ShouldBindJSON(&req)

	report, err := h.svc.Resolve(c.Request.Context(), c.Param("id"), req.Note)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ModerationHandler) dismiss(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	var req closeReportRequest
	_ = c.ShouldBindJSON(&req)

	report, err := h.svc.Dismiss(c.Request.Context(), c.Param("id"), req.Note)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ModerationHandler) overrideProduct(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	product, err := h.svc.OverrideProductStatus(c.Request.Context(),
		c.Param("id"), moderation.ProductAction(c.Param("action")))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ModerationHandler) overrideUser(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	profile, err := h.svc.OverrideUserStatus(c.Request.Context(),
		c.Param("id"), moderation.UserAction(c.Param("action")))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
