package httpapi

import (
	"net/http"

	"creatorhub-controlplane/pkg/db/pagination"
	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/pkg/middleware"
	"creatorhub-controlplane/services/curation"

	"github.com/gin-gonic/gin"
)

type CurationHandler struct {
	svc *curation.Service
}

func NewCurationHandler(svc *curation.Service) *CurationHandler {
	return &CurationHandler{svc: svc}
}

func (h *CurationHandler) Register(r *gin.RouterGroup) {
	r.POST("/curation/products/:id/accept", h.accept)
	r.POST("/curation/products/:id/decline", h.decline)
	r.GET("/curation/storefront", h.storefront)
	r.GET("/curation/decisions", h.decisions)
}

func (h *CurationHandler) accept(c *gin.Context) {
	actor, err := requireActor(c, middleware.RoleInfluencer)
	if err != nil {
		abort(c, err)
		return
	}
	entry, err := h.svc.Accept(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *CurationHandler) decline(c *gin.Context) {
	actor, err := requireActor(c, middleware.RoleInfluencer)
	if err != nil {
		abort(c, err)
		return
	}
	entry, err := h.svc.Decline(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// storefront returns the influencer's live accepted catalog. Admins can peek
// at any influencer's storefront with ?influencer_id=.
func (h *CurationHandler) storefront(c *gin.Context) {
	actor, err := requireActor(c, middleware.RoleInfluencer, middleware.RoleAdmin)
	if err != nil {
		abort(c, err)
		return
	}

	influencerID := actor.ID
	if actor.Role == middleware.RoleAdmin {
		if influencerID = c.Query("influencer_id"); influencerID == "" {
			abort(c, errutil.BadRequest("influencer_id is required", nil))
			return
		}
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		abort(c, errutil.BadRequest("invalid pagination", err))
		return
	}

	products, pageInfo, err := h.svc.ListAccepted(c.Request.Context(), influencerID, &page)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      products,
		"page_info": pageInfo,
	})
}

func (h *CurationHandler) decisions(c *gin.Context) {
	actor, err := requireActor(c, middleware.RoleInfluencer)
	if err != nil {
		abort(c, err)
		return
	}
	entries, err := h.svc.ListDecisions(c.Request.Context(), actor.ID)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}
