package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PointRecordStatus is the lifecycle state of a time record.
type PointRecordStatus string

const (
	PointPending    PointRecordStatus = "PENDING"
	PointApproved   PointRecordStatus = "APPROVED"
	PointRejected   PointRecordStatus = "REJECTED"
	PointInProgress PointRecordStatus = "IN_PROGRESS"
)

// WorkState is derived from a user's most recent record.
type WorkState string

const (
	StateNoRecords  WorkState = "NO_RECORDS"
	StateWorking    WorkState = "WORKING"
	StateNotWorking WorkState = "NOT_WORKING"
)

// PointRecord Model (clock-in / clock-out pair)
type PointRecord struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UserID      uint              `gorm:"not null;index:idx_point_records_user_entry,priority:1" json:"user_id"`
	User        *User             `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	EntryAt     time.Time         `gorm:"not null;index:idx_point_records_user_entry,priority:2" json:"entry_at"`
	ExitAt      *time.Time        `json:"exit_at"`
	Status      PointRecordStatus `gorm:"type:varchar(16)" json:"status"`
	Description *string           `gorm:"type:text" json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// IsOpen reports whether the record has no exit yet.
func (p *PointRecord) IsOpen() bool {
	return p.ExitAt == nil
}

// WorkingHours is the elapsed time of a closed record.
type WorkingHours struct {
	Hours      int64           `json:"hours"`
	Minutes    int64           `json:"minutes"`
	TotalHours decimal.Decimal `json:"total_hours"`
}

// ComputeWorkingHours splits exit-entry into whole hours, remainder minutes
// and a decimal total rounded to two places. Open records yield nil.
func ComputeWorkingHours(entry time.Time, exit *time.Time) *WorkingHours {
	if exit == nil {
		return nil
	}
	elapsed := exit.Sub(entry)
	if elapsed < 0 {
		elapsed = 0
	}
	hours := int64(elapsed / time.Hour)
	minutes := int64((elapsed % time.Hour) / time.Minute)
	total := decimal.NewFromInt(int64(elapsed)).Div(decimal.NewFromInt(int64(time.Hour))).Round(2)
	return &WorkingHours{Hours: hours, Minutes: minutes, TotalHours: total}
}

// PointRecordView is a record as returned to callers, with the computed hours.
type PointRecordView struct {
	ID           uint              `json:"id"`
	UserID       uint              `json:"user_id"`
	User         *UserSummary      `json:"user"`
	EntryAt      time.Time         `json:"entry_at"`
	ExitAt       *time.Time        `json:"exit_at"`
	Status       PointRecordStatus `json:"status"`
	Description  *string           `json:"description"`
	WorkingHours *WorkingHours     `json:"working_hours"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// View builds the caller-facing form of the record.
func (p *PointRecord) View() PointRecordView {
	v := PointRecordView{
		ID:           p.ID,
		UserID:       p.UserID,
		EntryAt:      p.EntryAt,
		ExitAt:       p.ExitAt,
		Status:       p.Status,
		Description:  p.Description,
		WorkingHours: ComputeWorkingHours(p.EntryAt, p.ExitAt),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.User != nil {
		v.User = &UserSummary{ID: p.User.ID, Name: p.User.Name, Email: p.User.Email}
	}
	return v
}
