package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/auth"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/middleware/requestid"
)

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// auditTrail records who changed what. Failures are logged, never returned:
// the mutation has already committed.
type auditTrail struct {
	writer auditWriter
	logger *zap.Logger
}

func (a auditTrail) record(ctx context.Context, actor *auth.Claims, action, resource, resourceID string, oldValues, newValues interface{}) {
	if a.writer == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		OldValues:  marshalAudit(oldValues),
		NewValues:  marshalAudit(newValues),
	}
	if actor != nil {
		userID := actor.UserID
		entry.UserID = &userID
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		entry.RequestID = &reqID
	}
	if err := a.writer.CreateAuditLog(context.WithoutCancel(ctx), entry); err != nil && a.logger != nil {
		a.logger.Warn("failed to record audit log", zap.String("action", action), zap.String("resource_id", resourceID), zap.Error(err))
	}
}

func marshalAudit(v interface{}) []byte {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
