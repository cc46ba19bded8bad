package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/events"
)

const auditListKey = "auth:audit"

// AuditService records authentication events: structured log entries plus a
// capped JSON trail in redis. Delivery is best effort.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	redis      *redis.Client
	cfg        config.AuditConfig
}

// NewAuditService creates the service. The redis client may be nil.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, client *redis.Client, cfg config.AuditConfig) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		redis:      client,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to authentication events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil || !a.cfg.Enabled {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handle)
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handle)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handle)
}

func (a *AuditService) handle(ctx context.Context, event events.Event) error {
	a.logger.Info("audit",
		zap.String("event", string(event.Type)),
		zap.String("subject", event.Subject),
		zap.Time("at", event.Timestamp))

	if a.redis == nil {
		return nil
	}
	record, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := a.redis.LPush(ctx, auditListKey, record).Err(); err != nil {
		a.logger.Warn("audit trail write failed", zap.Error(err))
		return err
	}
	if a.cfg.HistoryLimit > 0 {
		if err := a.redis.LTrim(ctx, auditListKey, 0, int64(a.cfg.HistoryLimit-1)).Err(); err != nil {
			a.logger.Warn("audit trail trim failed", zap.Error(err))
		}
	}
	return nil
}
