package httpapi

import (
	"net/http"

	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/pkg/middleware"
	"creatorhub-controlplane/services/payout"

	"github.com/gin-gonic/gin"
)

type PayoutHandler struct {
	svc *payout.Service
}

func NewPayoutHandler(svc *payout.Service) *PayoutHandler {
	return &PayoutHandler{svc: svc}
}

func (h *PayoutHandler) Register(r *gin.RouterGroup) {
	r.POST("/payouts/credits", h.credit)
	r.GET("/payouts/balance", h.balance)
	r.POST("/payouts", h.request)
	r.POST("/payouts/:id/process", h.process)
	r.POST("/payouts/:id/cancel", h.cancel)
	r.GET("/payouts/pending", h.pending)
	r.GET("/payouts", h.list)
	r.GET("/payouts/entries", h.entries)
	r.GET("/payouts/verify", h.verify)
}

type creditRequest struct {
	PayeeID     string `json:"payee_id"`
	Amount      int64  `json:"amount"`
	ReferenceID string `json:"reference_id"`
	Description string `json:"description"`
}

func (h *PayoutHandler) credit(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}

	var req creditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errutil.BadRequest("invalid request body", err))
		return
	}

	entry, err := h.svc.Credit(c.Request.Context(), payout.CreditParams{
		PayeeID:     req.PayeeID,
		Amount:      req.Amount,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
	})
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// payeeFor resolves whose ledger a read targets: influencers see their own,
// admins pick with ?payee_id=.
func payeeFor(c *gin.Context) (string, error) {
	actor, err := requireActor(c, middleware.RoleInfluencer, middleware.RoleAdmin)
	if err != nil {
		return "", err
	}
	if actor.Role == middleware.RoleAdmin {
		payeeID := c.Query("payee_id")
		if payeeID == "" {
			return "", errutil.BadRequest("payee_id is required", nil)
		}
		return payeeID, nil
	}
	return actor.ID, nil
}

func (h *PayoutHandler) balance(c *gin.Context) {
	payeeID, err := payeeFor(c)
	if err != nil {
		abort(c, err)
		return
	}
	balance, err := h.svc.GetBalance(c.Request.Context(), payeeID)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payee_id": payeeID, "balance": balance})
}

type payoutRequestBody struct {
	Amount int64 `json:"amount"`
}

func (h *PayoutHandler) request(c *gin.Context) {
	actor, err := requireActor(c, middleware.RoleInfluencer)
	if err != nil {
		abort(c, err)
		return
	}

	var req payoutRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errutil.BadRequest("invalid request body", err))
		return
	}

	pr, err := h.svc.RequestPayout(c.Request.Context(), actor.ID, req.Amount)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, pr)
}

func (h *PayoutHandler) process(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	pr, err := h.svc.Process(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, pr)
}

func (h *PayoutHandler) cancel(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleInfluencer, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	pr, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, pr)
}

func (h *PayoutHandler) pending(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	requests, err := h.svc.ListPending(c.Request.Context(), c.Query("payee_id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": requests})
}

func (h *PayoutHandler) list(c *gin.Context) {
	payeeID, err := payeeFor(c)
	if err != nil {
		abort(c, err)
		return
	}
	requests, err := h.svc.ListRequests(c.Request.Context(), payeeID)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": requests})
}

func (h *PayoutHandler) entries(c *gin.Context) {
	payeeID, err := payeeFor(c)
	if err != nil {
		abort(c, err)
		return
	}
	entries, err := h.svc.ListEntries(c.Request.Context(), payeeID)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (h *PayoutHandler) verify(c *gin.Context) {
	if _, err := requireActor(c, middleware.RoleAdmin); err != nil {
		abort(c, err)
		return
	}
	payeeID := c.Query("payee_id")
	if payeeID == "" {
		abort(c, errutil.BadRequest("payee_id is required", nil))
		return
	}
	ok, err := h.svc.VerifyChain(c.Request.Context(), payeeID)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payee_id": payeeID, "valid": ok})
}
