package event

import (
	"context"
	"errors"
	"time"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOutboxRepository stores entries in outbox_events
type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

func inStatus(statuses ...shared.OutboxStatus) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if len(statuses) == 1 {
			return q.Where("status = ?", statuses[0])
		}
		return q.Where("status IN ?", statuses)
	}
}

func (r *GormOutboxRepository) list(ctx context.Context, q func(*gorm.DB) *gorm.DB) ([]*shared.OutboxEntry, error) {
	var rows []*models.OutboxEntryModel
	if err := q(r.db.WithContext(ctx)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

func (r *GormOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.OutboxEntryModel, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.OutboxEntryModelFromDomain(e))
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// FindPending returns never-attempted entries in insertion order
func (r *GormOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return r.list(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Scopes(inStatus(shared.OutboxStatusPending)).Order("created_at").Limit(limit)
	})
}

// FindRetryable returns failed entries whose next attempt is due by before
func (r *GormOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return r.list(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Scopes(inStatus(shared.OutboxStatusFailed)).
			Where("next_retry_at <= ?", before).
			Order("next_retry_at").
			Limit(limit)
	})
}

// MarkProcessing locks the still-claimable rows among ids with
// FOR UPDATE SKIP LOCKED and flips them to PROCESSING in the same
// transaction. Rows locked by a concurrent processor are left out of the
// result. sqlite has no row locks and ignores the clause.
func (r *GormOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var won []*models.OutboxEntryModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Scopes(inStatus(shared.OutboxStatusPending, shared.OutboxStatusFailed)).
			Where("id IN ?", ids).
			Find(&won).Error
		if err != nil || len(won) == 0 {
			return err
		}

		at := time.Now()
		wonIDs := make([]uuid.UUID, 0, len(won))
		for _, row := range won {
			wonIDs = append(wonIDs, row.ID)
			row.Status, row.UpdatedAt = shared.OutboxStatusProcessing, at
		}
		return tx.Model(&models.OutboxEntryModel{}).
			Where("id IN ?", wonIDs).
			Updates(map[string]any{"status": shared.OutboxStatusProcessing, "updated_at": at}).Error
	})
	if err != nil {
		return nil, err
	}
	return toEntries(won), nil
}

// Update writes the whole row back after a delivery attempt
func (r *GormOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	entry.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(models.OutboxEntryModelFromDomain(entry)).Error
}

// DeleteOlderThan purges SENT rows processed before the cutoff
func (r *GormOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Scopes(inStatus(shared.OutboxStatusSent)).
		Where("processed_at < ?", before).
		Delete(&models.OutboxEntryModel{})
	return res.RowsAffected, res.Error
}

// FindDead pages through dead letters, most recently failed first
func (r *GormOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	dead := inStatus(shared.OutboxStatusDead)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.OutboxEntryModel{}).Scopes(dead).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	entries, err := r.list(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Scopes(dead).
			Order("updated_at DESC").
			Offset(max(page-1, 0) * pageSize).
			Limit(pageSize)
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *GormOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	var row models.OutboxEntryModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

// CountByStatus groups the table by status; absent statuses are absent keys
func (r *GormOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	var groups []struct {
		Status shared.OutboxStatus
		N      int64
	}
	if err := r.db.WithContext(ctx).Model(&models.OutboxEntryModel{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&groups).Error; err != nil {
		return nil, err
	}

	counts := make(map[shared.OutboxStatus]int64, len(groups))
	for _, g := range groups {
		counts[g.Status] = g.N
	}
	return counts, nil
}

func toEntries(rows []*models.OutboxEntryModel) []*shared.OutboxEntry {
	entries := make([]*shared.OutboxEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.ToDomain())
	}
	return entries
}

var _ shared.OutboxRepository = (*GormOutboxRepository)(nil)
