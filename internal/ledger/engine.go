// Package ledger owns every change to a wallet's balance. Each change is written
// together with the transaction row describing it, inside one database
// transaction, with the wallet row locked for the read-modify-write.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rocketcoins/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxTitleLen     = 255
	maxReferenceLen = 100
)

// Engine is the ledger. It is safe for concurrent use; serialization per
// wallet happens in the database through row locks.
type Engine struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewEngine builds a ledger on top of db.
func NewEngine(db *gorm.DB, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{db: db, log: log}
}

// Entry is a caller's description of a balance change.
type Entry struct {
	Amount      decimal.Decimal
	Title       string
	Description string
	Reference   string // optional external reference, e.g. a time record id
	ProcessedBy *uint  // director responsible for a manual adjustment
}

// Result pairs the wallet state after an operation with the transaction it wrote.
type Result struct {
	Wallet      domain.Wallet      `json:"wallet"`
	Transaction domain.Transaction `json:"transaction"`
}

type normalizedEntry struct {
	amount      decimal.Decimal
	title       string
	description string
	reference   *string
	processedBy *uint
}

// normalize rounds the amount to cents and validates the text fields.
func (in Entry) normalize() (normalizedEntry, error) {
	amount := in.Amount.Round(2)
	if !amount.IsPositive() {
		return normalizedEntry{}, domain.ErrInvalidAmount
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return normalizedEntry{}, domain.NewValidationError("title", "title is required")
	}
	if len(title) > maxTitleLen {
		return normalizedEntry{}, domain.NewValidationError("title", fmt.Sprintf("title must be at most %d characters", maxTitleLen))
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return normalizedEntry{}, domain.NewValidationError("description", "description is required")
	}
	n := normalizedEntry{amount: amount, title: title, description: description, processedBy: in.ProcessedBy}
	if ref := strings.TrimSpace(in.Reference); ref != "" {
		if len(ref) > maxReferenceLen {
			return normalizedEntry{}, domain.NewValidationError("reference", fmt.Sprintf("reference must be at most %d characters", maxReferenceLen))
		}
		n.reference = &ref
	}
	return n, nil
}

// CreateWallet opens the zero-balance wallet of userID.
func (e *Engine) CreateWallet(ctx context.Context, userID uint) (*domain.Wallet, error) {
	wallet := domain.NewWallet(userID)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Wallet{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrDuplicateWallet
		}
		if err := tx.Create(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateWallet
			}
			return err
		}
		return nil
	})
	if err != nil {
		e.log.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Failed to create wallet")
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"user_id": userID, "wallet_id": wallet.ID}).Info("Wallet created")
	return &wallet, nil
}

// Credit adds coins to the wallet of userID.
func (e *Engine) Credit(ctx context.Context, userID uint, in Entry) (*Result, error) {
	return e.post(ctx, userID, domain.TransactionCredit, in)
}

// Debit removes coins from the wallet of userID immediately, without approval.
func (e *Engine) Debit(ctx context.Context, userID uint, in Entry) (*Result, error) {
	return e.post(ctx, userID, domain.TransactionDebit, in)
}

func (e *Engine) post(ctx context.Context, userID uint, typ domain.TransactionType, in Entry) (*Result, error) {
	entry, err := in.normalize()
	if err != nil {
		return nil, err
	}
	var res Result
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallet, err := lockWalletByUser(tx, userID)
		if err != nil {
			return err
		}
		if !wallet.IsActive {
			return domain.ErrWalletInactive
		}
		before, after, seq, err := apply(tx, wallet, typ, entry.amount)
		if err != nil {
			return err
		}
		t := domain.Transaction{
			WalletID:      wallet.ID,
			Type:          typ,
			Amount:        entry.amount,
			Title:         entry.title,
			Description:   entry.description,
			Reference:     entry.reference,
			ProcessedBy:   entry.processedBy,
			Status:        domain.StatusCompleted,
			BalanceBefore: before,
			BalanceAfter:  after,
			Sequence:      &seq,
		}
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		res = Result{Wallet: *wallet, Transaction: t}
		return nil
	})
	fields := logrus.Fields{"user_id": userID, "type": typ, "amount": entry.amount.StringFixed(2)}
	if err != nil {
		fields["error"] = err.Error()
		e.log.WithFields(fields).Warn("Ledger posting rejected")
		return nil, err
	}
	fields["wallet_id"] = res.Wallet.ID
	fields["transaction_id"] = res.Transaction.ID
	fields["balance"] = res.Wallet.Balance.StringFixed(2)
	e.log.WithFields(fields).Info("Ledger posting completed")
	return &res, nil
}

// RequestSpending records a PENDING debit awaiting a director. The balance is
// checked but neither reserved nor mutated; approval checks it again.
func (e *Engine) RequestSpending(ctx context.Context, userID uint, in Entry) (*Result, error) {
	in.ProcessedBy = nil
	entry, err := in.normalize()
	if err != nil {
		return nil, err
	}
	var res Result
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet domain.Wallet
		if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrWalletNotFound
			}
			return err
		}
		if !wallet.IsActive {
			return domain.ErrWalletInactive
		}
		if !wallet.CanCover(entry.amount) {
			return &domain.InsufficientBalanceError{Balance: wallet.Balance, Requested: entry.amount}
		}
		t := domain.Transaction{
			WalletID:      wallet.ID,
			Type:          domain.TransactionDebit,
			Amount:        entry.amount,
			Title:         entry.title,
			Description:   entry.description,
			Reference:     entry.reference,
			Status:        domain.StatusPending,
			BalanceBefore: wallet.Balance,
			BalanceAfter:  wallet.Balance.Sub(entry.amount), // projected, not applied
		}
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		res = Result{Wallet: wallet, Transaction: t}
		return nil
	})
	if err != nil {
		e.log.WithFields(logrus.Fields{"user_id": userID, "amount": entry.amount.StringFixed(2), "error": err.Error()}).Warn("Spending request rejected")
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"wallet_id":      res.Wallet.ID,
		"transaction_id": res.Transaction.ID,
		"amount":         entry.amount.StringFixed(2),
	}).Info("Spending request created")
	return &res, nil
}

// ApproveSpendingRequest applies a PENDING debit. The balance is re-read under
// lock; when it no longer covers the amount the request stays PENDING.
func (e *Engine) ApproveSpendingRequest(ctx context.Context, transactionID, directorID uint, approvalNote string) (*Result, error) {
	note := strings.TrimSpace(approvalNote)
	var res Result
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, err := lockPendingRequest(tx, transactionID)
		if err != nil {
			return err
		}
		var wallet domain.Wallet
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&wallet, pending.WalletID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrWalletNotFound
			}
			return err
		}
		if !wallet.IsActive {
			return domain.ErrWalletInactive
		}
		before, after, seq, err := apply(tx, &wallet, domain.TransactionDebit, pending.Amount)
		if err != nil {
			return err
		}
		description := pending.Description
		if note != "" {
			description += " | Approved: " + note
		}
		if err := settle(tx, pending.ID, map[string]any{
			"status":         domain.StatusCompleted,
			"processed_by":   directorID,
			"balance_before": before,
			"balance_after":  after,
			"description":    description,
			"sequence":       seq,
		}); err != nil {
			return err
		}
		pending.Status = domain.StatusCompleted
		pending.ProcessedBy = &directorID
		pending.BalanceBefore = before
		pending.BalanceAfter = after
		pending.Description = description
		pending.Sequence = &seq
		res = Result{Wallet: wallet, Transaction: *pending}
		return nil
	})
	fields := logrus.Fields{"transaction_id": transactionID, "director_id": directorID}
	if err != nil {
		fields["error"] = err.Error()
		e.log.WithFields(fields).Warn("Spending approval rejected")
		return nil, err
	}
	fields["wallet_id"] = res.Wallet.ID
	fields["amount"] = res.Transaction.Amount.StringFixed(2)
	fields["balance"] = res.Wallet.Balance.StringFixed(2)
	e.log.WithFields(fields).Info("Spending request approved")
	return &res, nil
}

// RejectSpendingRequest cancels a PENDING debit. The wallet is not touched.
func (e *Engine) RejectSpendingRequest(ctx context.Context, transactionID, directorID uint, rejectionReason string) (*domain.Transaction, error) {
	reason := strings.TrimSpace(rejectionReason)
	if reason == "" {
		return nil, domain.NewValidationError("rejection_reason", "rejection reason is required")
	}
	var out domain.Transaction
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, err := lockPendingRequest(tx, transactionID)
		if err != nil {
			return err
		}
		description := pending.Description + " | Rejected: " + reason
		if err := settle(tx, pending.ID, map[string]any{
			"status":       domain.StatusCancelled,
			"processed_by": directorID,
			"description":  description,
		}); err != nil {
			return err
		}
		pending.Status = domain.StatusCancelled
		pending.ProcessedBy = &directorID
		pending.Description = description
		out = *pending
		return nil
	})
	fields := logrus.Fields{"transaction_id": transactionID, "director_id": directorID}
	if err != nil {
		fields["error"] = err.Error()
		e.log.WithFields(fields).Warn("Spending rejection failed")
		return nil, err
	}
	e.log.WithFields(fields).Info("Spending request rejected")
	return &out, nil
}

// SetWalletActive activates or deactivates the wallet of userID.
func (e *Engine) SetWalletActive(ctx context.Context, userID uint, active bool) (*domain.Wallet, error) {
	res := e.db.WithContext(ctx).Model(&domain.Wallet{}).Where("user_id = ?", userID).Update("is_active", active)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrWalletNotFound
	}
	e.log.WithFields(logrus.Fields{"user_id": userID, "is_active": active}).Info("Wallet status changed")
	return e.GetWallet(ctx, userID)
}

// lockWalletByUser reads the wallet of userID with a row lock held until the
// surrounding transaction ends.
func lockWalletByUser(tx *gorm.DB, userID uint) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func lockPendingRequest(tx *gorm.DB, transactionID uint) (*domain.Transaction, error) {
	var t domain.Transaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status = ? AND type = ?", transactionID, domain.StatusPending, domain.TransactionDebit).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// apply moves the locked wallet by amount and persists it. The update is
// conditional on the sequence read under lock, so a lost update surfaces as
// an error instead of silently overwriting.
func apply(tx *gorm.DB, wallet *domain.Wallet, typ domain.TransactionType, amount decimal.Decimal) (before, after decimal.Decimal, seq uint64, err error) {
	before = wallet.Balance
	earned, spent := wallet.TotalEarned, wallet.TotalSpent
	switch typ {
	case domain.TransactionCredit:
		after = before.Add(amount)
		earned = earned.Add(amount)
	case domain.TransactionDebit:
		if !wallet.CanCover(amount) {
			return before, before, 0, &domain.InsufficientBalanceError{Balance: before, Requested: amount}
		}
		after = before.Sub(amount)
		spent = spent.Add(amount)
	default:
		return before, before, 0, fmt.Errorf("unknown transaction type %q", typ)
	}
	seq = wallet.Sequence + 1
	res := tx.Model(&domain.Wallet{}).
		Where("id = ? AND sequence = ?", wallet.ID, wallet.Sequence).
		Updates(map[string]any{
			"balance":      after,
			"total_earned": earned,
			"total_spent":  spent,
			"sequence":     seq,
		})
	if res.Error != nil {
		return before, before, 0, res.Error
	}
	if res.RowsAffected != 1 {
		return before, before, 0, fmt.Errorf("wallet %d was modified concurrently", wallet.ID)
	}
	wallet.Balance = after
	wallet.TotalEarned = earned
	wallet.TotalSpent = spent
	wallet.Sequence = seq
	return before, after, seq, nil
}

// settle performs the single PENDING -> terminal transition. Exactly one
// caller can win it; the others see ErrRequestNotFound.
func settle(tx *gorm.DB, transactionID uint, updates map[string]any) error {
	res := tx.Model(&domain.Transaction{}).
		Where("id = ? AND status = ?", transactionID, domain.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return domain.ErrRequestNotFound
	}
	return nil
}
