package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
)

type ctxAwareAuditWriter struct {
	entries []*models.AuditLog
	ctxErrs []error
	err     error
}

func (w *ctxAwareAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	w.ctxErrs = append(w.ctxErrs, ctx.Err())
	if w.err != nil {
		return w.err
	}
	w.entries = append(w.entries, log)
	return nil
}

func TestAuditTrailOutlivesCancelledRequest(t *testing.T) {
	writer := &ctxAwareAuditWriter{}
	trail := auditTrail{writer: writer}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	trail.record(ctx, testAdmin, models.AuditActionSessionClose, sessionResource, "sess-1", nil, map[string]string{"trigger": "manual"})

	require.Len(t, writer.entries, 1)
	assert.NoError(t, writer.ctxErrs[0])
	entry := writer.entries[0]
	require.NotNil(t, entry.UserID)
	assert.Equal(t, testAdmin.UserID, *entry.UserID)
	assert.JSONEq(t, `{"trigger":"manual"}`, string(entry.NewValues))
	assert.Nil(t, entry.OldValues)
}

func TestAuditTrailFailureDoesNotSurface(t *testing.T) {
	writer := &ctxAwareAuditWriter{err: errors.New("audit table unavailable")}
	trail := auditTrail{writer: writer}

	assert.NotPanics(t, func() {
		trail.record(context.Background(), nil, models.AuditActionSessionOpen, sessionResource, "sess-1", nil, nil)
	})
	assert.Len(t, writer.ctxErrs, 1)
	assert.Empty(t, writer.entries)
}
