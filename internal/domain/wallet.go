package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet Model
//
// One wallet per user. Balance and the lifetime totals are only written by the
// ledger engine, always together with the transaction row that explains the change.
type Wallet struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"balance"`
	TotalEarned decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_earned"`
	TotalSpent  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_spent"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	Sequence    uint64          `gorm:"not null;default:0" json:"sequence"` // count of applied transactions
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewWallet returns the zero state every wallet starts from.
func NewWallet(userID uint) Wallet {
	return Wallet{
		UserID:      userID,
		Balance:     decimal.Zero,
		TotalEarned: decimal.Zero,
		TotalSpent:  decimal.Zero,
		IsActive:    true,
	}
}

// CanCover reports whether the current balance covers amount.
func (w *Wallet) CanCover(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
