// Package timerecord implements the clock-in / clock-out toggle and the
// director's review of time records.
package timerecord

import (
	"context"
	"errors"
	"strings"
	"time"

	"rocketcoins/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DirectorCloseNote is the description written when a director closes a record.
const DirectorCloseNote = "Closed by director."

// Engine records and queries time records.
type Engine struct {
	db  *gorm.DB
	log logrus.FieldLogger
	now func() time.Time
}

// NewEngine builds a time record engine on top of db.
func NewEngine(db *gorm.DB, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{db: db, log: log, now: time.Now}
}

// WithClock replaces the clock used for entry and exit times.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// RecordPoint toggles the work state of userID. With no open record it opens
// one; otherwise it closes the most recent one, which requires a description.
func (e *Engine) RecordPoint(ctx context.Context, userID uint, description string) (*domain.PointRecordView, error) {
	var (
		record domain.PointRecord
		opened bool
	)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		now := e.now().UTC()
		last, err := latest(tx, userID)
		if err != nil {
			return err
		}
		if last == nil || !last.IsOpen() {
			record = domain.PointRecord{UserID: userID, EntryAt: now, Status: domain.PointInProgress}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			record.User = &user
			opened = true
			return nil
		}
		note := strings.TrimSpace(description)
		if note == "" {
			return domain.NewValidationError("description", "description is required to clock out")
		}
		if err := closeOpen(tx, last, now, note); err != nil {
			return err
		}
		record = *last
		record.User = &user
		return nil
	})
	if err != nil {
		e.log.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Point record rejected")
		return nil, err
	}
	msg := "Clocked out"
	if opened {
		msg = "Clocked in"
	}
	e.log.WithFields(logrus.Fields{"user_id": userID, "point_record_id": record.ID}).Info(msg)
	view := record.View()
	return &view, nil
}

// Close force-closes an open record on behalf of a director.
func (e *Engine) Close(ctx context.Context, id uint) (*domain.PointRecordView, error) {
	var record domain.PointRecord
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("User").First(&record, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrRecordNotFound
			}
			return err
		}
		if !record.IsOpen() {
			return domain.ErrRecordAlreadyClosed
		}
		return closeOpen(tx, &record, e.now().UTC(), DirectorCloseNote)
	})
	if err != nil {
		e.log.WithFields(logrus.Fields{"point_record_id": id, "error": err.Error()}).Warn("Point record close rejected")
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"point_record_id": id, "user_id": record.UserID}).Info("Point record closed by director")
	view := record.View()
	return &view, nil
}

// latest returns the most recent record of userID by entry time, or nil.
func latest(db *gorm.DB, userID uint) (*domain.PointRecord, error) {
	var last domain.PointRecord
	err := db.Where("user_id = ?", userID).Order("entry_at DESC").Order("id DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &last, nil
}

// closeOpen sets the exit of record, provided it is still open in the database.
func closeOpen(tx *gorm.DB, record *domain.PointRecord, exit time.Time, description string) error {
	res := tx.Model(&domain.PointRecord{}).
		Where("id = ? AND exit_at IS NULL", record.ID).
		Updates(map[string]any{
			"exit_at":     exit,
			"status":      domain.PointApproved,
			"description": description,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return domain.ErrRecordAlreadyClosed
	}
	record.ExitAt = &exit
	record.Status = domain.PointApproved
	record.Description = &description
	return nil
}
