package httpapi

import (
	"net/http"

	"creatorhub-controlplane/services/notification"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	svc *notification.Service
}

func NewNotificationHandler(svc *notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) Register(r *gin.RouterGroup) {
	r.GET("/notifications", h.list)
	r.GET("/notifications/unread-count", h.unreadCount)
	r.POST("/notifications/:id/read", h.markRead)
	r.POST("/notifications/read-all", h.markAllRead)
}

func (h *NotificationHandler) list(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		abort(c, err)
		return
	}
	notifications, err := h.svc.List(c.Request.Context(), actor.ID)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": notifications})
}

func (h *NotificationHandler) unreadCount(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		abort(c, err)
		return
	}
	count, err := h.svc.UnreadCount(c.Request.Context(), actor.ID)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *NotificationHandler) markRead(c *gin.Context) {
	if _, err := requireActor(c); err != nil {
		abort(c, err)
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) markAllRead(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		abort(c, err)
		return
	}
	if err := h.svc.MarkAllRead(c.Request.Context(), actor.ID); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
