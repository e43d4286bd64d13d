package httpapi

import (
	"net/http"

	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/pkg/middleware"
	"creatorhub-controlplane/services/catalog"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	svc *catalog.Service
}

func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) Register(r *gin.RouterGroup) {
	r.POST("/products", h.create)
	r.GET("/products", h.list)
	r.GET("/products/:id", h.get)
	r.POST("/products/:id/submit", h.submit)
	r.POST("/products/:id/approve", h.approve)
	r.POST("/products/:id/reject", h.reject)
	r.POST("/products/:id/remove", h.remove)
}

type createProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
}

func (h *CatalogHandler) create(c *gin.Context) {
	actor, err := requireActor(c, middleware.RoleBrand)
	if err != nil {
		abort(c, err)
		return
	}

	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errutil.BadRequest("invalid request body", err))
		return
	}

	product, err := h.svc.Create(c.Request.Context(), catalog.CreateParams{
		BrandID:     actor.ID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) get(c *gin.Context) {
	product, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) list(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		abort(c, err)
		return
	}

	ctx := c.Request.Context()
	switch {
	case c.Query("status") != "":
		if actor.Role != middleware.RoleAdmin {
			abort(c, errutil.Forbidden("only admins list by status", nil))
			return
		}
		products, err := h.svc.ListByStatus(ctx, catalog.Status(c.Query("status")))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": products})
	default:
		brandID := actor.ID
		if actor.Role == middleware.RoleAdmin && c.Query("brand_id") != "" {
			brandID = c.Query("brand_id")
		}
		products, err := h.svc.ListByOwner(ctx, brandID)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": products})
	}
}

func (h *CatalogHandler) submit(c *gin.Context) {
	if err := h.ownerAction(c); err != nil {
		abort(c, err)
		return
	}
	product, err := h.svc.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) approve(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	product, err := h.svc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) reject(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	product, err := h.svc.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) remove(c *gin.Context) {
	actor, err := requireActor(c, middleware.RoleBrand, middleware.RoleAdmin)
	if err != nil {
		abort(c, err)
		return
	}
	if actor.Role == middleware.RoleBrand {
		if err := h.ownerAction(c); err != nil {
			abort(c, err)
			return
		}
	}
	product, err := h.svc.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ownerAction checks the product belongs to the acting brand.
func (h *CatalogHandler) ownerAction(c *gin.Context) error {
	actor, err := requireActor(c, middleware.RoleBrand)
	if err != nil {
		return err
	}
	product, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if product.BrandID != actor.ID {
		return errutil.Forbidden("product belongs to another brand", nil)
	}
	return nil
}
