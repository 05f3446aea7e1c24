package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a balance change.
type TransactionType string

const (
	TransactionCredit TransactionType = "CREDIT"
	TransactionDebit  TransactionType = "DEBIT"
)

// Valid reports whether t is CREDIT or DEBIT.
func (t TransactionType) Valid() bool {
	return t == TransactionCredit || t == TransactionDebit
}

// ParseTransactionType accepts "credit"/"debit" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", NewValidationError("type", fmt.Sprintf("invalid transaction type %q", s))
	}
	return t, nil
}

// TransactionStatus tracks a transaction through the approval workflow.
// The only legal moves are PENDING -> COMPLETED and PENDING -> CANCELLED.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the workflow allows moving from s to next.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	return s == StatusPending && (next == StatusCompleted || next == StatusCancelled)
}

// Transaction Model
type Transaction struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	WalletID      uint              `gorm:"not null;index;index:idx_transactions_lookup,priority:1;uniqueIndex:idx_transactions_wallet_sequence,priority:1" json:"wallet_id"`
	Wallet        *Wallet           `gorm:"foreignKey:WalletID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"wallet,omitempty"`
	Type          TransactionType   `gorm:"type:varchar(10);not null;index;index:idx_transactions_lookup,priority:3" json:"type"`
	Amount        decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Title         string            `gorm:"size:255;not null" json:"title"`
	Description   string            `gorm:"type:text;not null" json:"description"`
	Reference     *string           `gorm:"size:100" json:"reference,omitempty"`
	ProcessedBy   *uint             `gorm:"index" json:"processed_by,omitempty"` // director who approved, rejected or adjusted
	Processor     *User             `gorm:"foreignKey:ProcessedBy;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"processor,omitempty"`
	Status        TransactionStatus `gorm:"type:varchar(10);not null;index;index:idx_transactions_lookup,priority:2" json:"status"`
	BalanceBefore decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"balance_after"`
	Sequence      *uint64           `gorm:"uniqueIndex:idx_transactions_wallet_sequence,priority:2" json:"sequence,omitempty"` // position in the wallet's applied history
	CreatedAt     time.Time         `gorm:"index;index:idx_transactions_lookup,priority:4" json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Signed returns the amount with the sign it has on the balance.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
