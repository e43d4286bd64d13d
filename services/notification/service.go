package notification

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/pkg/rediskey"
	"creatorhub-controlplane/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const unreadCacheTTL = time.Minute

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	rdb  *redis.Client

	notifications repository.Repository[Notification]
}

type ServiceParams struct {
	fx.In
	DB    *gorm.DB
	Node  *snowflake.Node
	Redis *redis.Client `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:            p.DB,
		node:          p.Node,
		rdb:           p.Redis,
		notifications: repository.ProvideStore[Notification](p.DB),
	}
}

// Enqueue appends an event record to the recipient's queue. No dedup:
// repeated identical notifications are legitimate.
func (s *Service) Enqueue(ctx context.Context, recipientID, kind string, payload map[string]any) (*Notification, error) {
	if recipientID == "" {
		return nil, errutil.ValidationFailed("recipient_id is required", nil)
	}
	if kind == "" {
		return nil, errutil.ValidationFailed("kind is required", nil)
	}

	var body datatypes.JSON
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, errutil.Internal("failed to encode payload", err)
		}
		body = datatypes.JSON(raw)
	}

	n := &Notification{
		ID:          s.node.Generate().String(),
		RecipientID: recipientID,
		Kind:        kind,
		Payload:     body,
		CreatedAt:   time.Now(),
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}

	s.invalidateUnread(ctx, recipientID)
	return n, nil
}

// Notify implements Notifier for the other subsystems.
func (s *Service) Notify(ctx context.Context, recipientID, kind string, payload map[string]any) error {
	_, err := s.Enqueue(ctx, recipientID, kind, payload)
	return err
}

// List returns the recipient's notifications in creation order.
func (s *Service) List(ctx context.Context, recipientID string) ([]*Notification, error) {
	var out []*Notification
	if err := s.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead is idempotent: marking an already-read notification is a no-op.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	n, err := s.notifications.FindOne(ctx, &Notification{ID: id})
	if err != nil {
		return err
	}
	if n == nil {
		return errutil.NotFound("notification not found", nil)
	}
	if n.Read {
		return nil
	}

	now := time.Now()
	if err := s.notifications.Update(ctx, id, map[string]any{
		"is_read": true,
		"read_at": now,
	}); err != nil {
		return err
	}

	s.invalidateUnread(ctx, n.RecipientID)
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID string) error {
	now := time.Now()
	if err := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]any{"is_read": true, "read_at": now}).Error; err != nil {
		return err
	}

	s.invalidateUnread(ctx, recipientID)
	return nil
}

func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, rediskey.BuildUnreadCountKey(recipientID)).Result()
		if err == nil {
			if count, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
				return count, nil
			}
		}
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, rediskey.BuildUnreadCountKey(recipientID), count, unreadCacheTTL).Err(); err != nil {
			zap.L().Warn("failed to cache unread count", zap.Error(err), zap.String("recipient_id", recipientID))
		}
	}

	return count, nil
}

func (s *Service) invalidateUnread(ctx context.Context, recipientID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, rediskey.BuildUnreadCountKey(recipientID)).Err(); err != nil {
		zap.L().Warn("failed to invalidate unread count", zap.Error(err), zap.String("recipient_id", recipientID))
	}
}
