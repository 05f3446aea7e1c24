package timerecord

import (
	"context"
	"errors"

	"rocketcoins/internal/domain"

	"gorm.io/gorm"
)

// Status is the current work state of a user.
type Status struct {
	State      domain.WorkState        `json:"status"`
	Message    string                  `json:"message"`
	LastRecord *domain.PointRecordView `json:"last_record,omitempty"`
}

// Summary counts a user's records by state.
type Summary struct {
	TotalRecords      int64 `json:"total_records"`
	RecordsInProgress int64 `json:"records_in_progress"`
	RecordsApproved   int64 `json:"records_approved"`
}

// RecordsPage is a page of time records.
type RecordsPage struct {
	Records    []domain.PointRecordView `json:"data"`
	Pagination domain.Pagination        `json:"pagination"`
	Summary    *Summary                 `json:"summary,omitempty"`
}

// Status reports whether userID is currently working, based on the most
// recent record by entry time.
func (e *Engine) Status(ctx context.Context, userID uint) (*Status, error) {
	db := e.db.WithContext(ctx)
	last, err := latest(db, userID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return &Status{State: domain.StateNoRecords, Message: "No records found"}, nil
	}
	var user domain.User
	if err := db.First(&user, userID).Error; err == nil {
		last.User = &user
	}
	view := last.View()
	if last.IsOpen() {
		return &Status{State: domain.StateWorking, Message: "User is working", LastRecord: &view}, nil
	}
	return &Status{State: domain.StateNotWorking, Message: "User is not working", LastRecord: &view}, nil
}

// ListByUser pages through userID's records, newest first, with summary counts.
func (e *Engine) ListByUser(ctx context.Context, userID uint, page domain.Page) (*RecordsPage, error) {
	db := e.db.WithContext(ctx)
	var user domain.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	var counts struct {
		Total      int64
		InProgress int64
		Approved   int64
	}
	if err := db.Model(&domain.PointRecord{}).
		Where("user_id = ?", userID).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS in_progress,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS approved`,
			domain.PointInProgress, domain.PointApproved).
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	var records []domain.PointRecord
	if err := db.Where("user_id = ?", userID).
		Order("entry_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	views := make([]domain.PointRecordView, len(records))
	for i := range records {
		records[i].User = &user
		views[i] = records[i].View()
	}
	return &RecordsPage{
		Records:    views,
		Pagination: page.Paginate(counts.Total),
		Summary: &Summary{
			TotalRecords:      counts.Total,
			RecordsInProgress: counts.InProgress,
			RecordsApproved:   counts.Approved,
		},
	}, nil
}

// ListAll pages through every record, newest first.
func (e *Engine) ListAll(ctx context.Context, page domain.Page) (*RecordsPage, error) {
	db := e.db.WithContext(ctx)
	var total int64
	if err := db.Model(&domain.PointRecord{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var records []domain.PointRecord
	if err := db.Preload("User").
		Order("entry_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	views := make([]domain.PointRecordView, len(records))
	for i := range records {
		views[i] = records[i].View()
	}
	return &RecordsPage{Records: views, Pagination: page.Paginate(total)}, nil
}

// Get returns one record with its owner.
func (e *Engine) Get(ctx context.Context, id uint) (*domain.PointRecordView, error) {
	var record domain.PointRecord
	if err := e.db.WithContext(ctx).Preload("User").First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	view := record.View()
	return &view, nil
}

// Last returns the most recently created record of userID.
func (e *Engine) Last(ctx context.Context, userID uint) (*domain.PointRecordView, error) {
	var record domain.PointRecord
	err := e.db.WithContext(ctx).Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	view := record.View()
	return &view, nil
}
