// internal/services/audit_service.go
package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/javajoker/rifas-backend/internal/models"
	"github.com/javajoker/rifas-backend/internal/store"
	"github.com/javajoker/rifas-backend/internal/utils"
)

// AuditService stores the audit trail of mutating API calls.
type AuditService struct {
	store store.Store
}

type AuditFilter struct {
	UserID       string
	ResourceType string
	Pagination   utils.PaginationParams
}

func NewAuditService(st store.Store) *AuditService {
	return &AuditService{store: st}
}

func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	attrs := map[string]string{"resource_type": entry.ResourceType}
	if entry.UserID != "" {
		attrs["user_id"] = entry.UserID
	}

	rec, err := encodeRecord(entry.ID, 0, attrs, entry)
	if err != nil {
		return err
	}
	if _, err := s.store.Put(ctx, store.CollectionAuditLogs, rec); err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}
	return nil
}

// List returns audit entries, newest first.
func (s *AuditService) List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, int64, error) {
	attrs := store.Filter{}
	if filter.UserID != "" {
		attrs["user_id"] = filter.UserID
	}
	if filter.ResourceType != "" {
		attrs["resource_type"] = filter.ResourceType
	}

	recs, err := s.store.List(ctx, store.CollectionAuditLogs, attrs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	logs := make([]models.AuditLog, 0, len(recs))
	for _, rec := range recs {
		entry, err := decodeRecord[models.AuditLog](rec)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, *entry)
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })

	start, end := filter.Pagination.Bounds(len(logs))
	return logs[start:end], int64(len(logs)), nil
}
