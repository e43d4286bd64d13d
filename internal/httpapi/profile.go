package httpapi

import (
	"context"
	"net/http"

	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/pkg/middleware"
	"creatorhub-controlplane/services/profile"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	svc *profile.Service
}

func NewProfileHandler(svc *profile.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) Register(r *gin.RouterGroup) {
	r.POST("/profiles/brands", h.createBrand)
	r.POST("/profiles/influencers", h.createInfluencer)
	r.GET("/profiles", h.list)
	r.GET("/profiles/:id", h.get)
	r.PATCH("/profiles/:id", h.update)
	r.POST("/profiles/:id/verify", h.verify)
	r.POST("/profiles/:id/deactivate", h.deactivate)
}

type createProfileRequest struct {
	DisplayName string   `json:"display_name"`
	Categories  []string `json:"categories"`
}

func (h *ProfileHandler) createBrand(c *gin.Context) {
	h.create(c, h.svc.CreateBrand)
}

func (h *ProfileHandler) createInfluencer(c *gin.Context) {
	h.create(c, h.svc.CreateInfluencer)
}

func (h *ProfileHandler) create(c *gin.Context, fn func(ctx context.Context, p profile.CreateParams) (*profile.Profile, error)) {
	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errutil.BadRequest("invalid request body", err))
		return
	}
	p, err := fn(c.Request.Context(), profile.CreateParams{
		DisplayName: req.DisplayName,
		Categories:  req.Categories,
	})
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProfileHandler) list(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	role := profile.Role(c.Query("role"))
	if role != profile.RoleBrand && role != profile.RoleInfluencer {
		abort(c, errutil.BadRequest("role must be brand or influencer", nil))
		return
	}
	profiles, err := h.svc.ListByRole(c.Request.Context(), role)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profiles})
}

func (h *ProfileHandler) get(c *gin.Context) {
	if _, err := requireActor(c); err != nil {
		abort(c, err)
		return
	}
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type updateProfileRequest struct {
	DisplayName string   `json:"display_name"`
	Categories  []string `json:"categories"`
	Onboarded   *bool    `json:"onboarded"`
}

func (h *ProfileHandler) update(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		abort(c, err)
		return
	}
	if actor.Role != middleware.RoleAdmin && actor.ID != c.Param("id") {
		abort(c, errutil.Forbidden("cannot edit another account", nil))
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errutil.BadRequest("invalid request body", err))
		return
	}

	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), profile.UpdateParams{
		DisplayName: req.DisplayName,
		Categories:  req.Categories,
		Onboarded:   req.Onboarded,
	})
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type verifyRequest struct {
	Verified bool `json:"verified"`
}

func (h *ProfileHandler) verify(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errutil.BadRequest("invalid request body", err))
		return
	}
	p, err := h.svc.SetVerified(c.Request.Context(), c.Param("id"), req.Verified)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) deactivate(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		abort(c, err)
		return
	}
	if actor.Role != middleware.RoleAdmin && actor.ID != c.Param("id") {
		abort(c, errutil.Forbidden("cannot deactivate another account", nil))
		return
	}
	p, err := h.svc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
