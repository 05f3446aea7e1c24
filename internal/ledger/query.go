package ledger

import (
	"context"
	"errors"

	"rocketcoins/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecentTransactions is how many transactions GetWalletWithRecent attaches by default.
const RecentTransactions = 10

// TransactionView is a transaction together with the wallet owner.
type TransactionView struct {
	domain.Transaction
	User *domain.UserSummary `json:"user,omitempty"`
}

// WalletView is a wallet with its latest transactions.
type WalletView struct {
	Wallet       domain.Wallet        `json:"wallet"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Totals are the lifetime counters of a wallet.
type Totals struct {
	TotalEarned decimal.Decimal `json:"total_earned"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
}

// HistoryPage is a page of COMPLETED transactions.
type HistoryPage struct {
	Transactions []domain.Transaction `json:"transactions"`
	Pagination   domain.Pagination    `json:"pagination"`
	Wallet       Totals               `json:"wallet"`
}

// RequestsPage is a page of PENDING spending requests.
type RequestsPage struct {
	Requests     []TransactionView `json:"requests"`
	Pagination   domain.Pagination `json:"pagination"`
	PendingTotal *decimal.Decimal  `json:"pending_total,omitempty"`
}

// GetWallet returns the wallet of userID.
func (e *Engine) GetWallet(ctx context.Context, userID uint) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := e.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetWalletWithRecent returns the wallet of userID and its latest n transactions
// of any status.
func (e *Engine) GetWalletWithRecent(ctx context.Context, userID uint, n int) (*WalletView, error) {
	wallet, err := e.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = RecentTransactions
	}
	txs := []domain.Transaction{}
	if err := e.db.WithContext(ctx).
		Where("wallet_id = ?", wallet.ID).
		Order("created_at DESC").Order("id DESC").
		Limit(n).
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return &WalletView{Wallet: *wallet, Transactions: txs}, nil
}

// TransactionHistory pages through the COMPLETED transactions of userID, newest first.
func (e *Engine) TransactionHistory(ctx context.Context, userID uint, page domain.Page) (*HistoryPage, error) {
	wallet, err := e.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Model(&domain.Transaction{}).Where("wallet_id = ? AND status = ?", wallet.ID, domain.StatusCompleted)
	}
	var total int64
	if err := e.db.WithContext(ctx).Scopes(scope).Count(&total).Error; err != nil {
		return nil, err
	}
	txs := []domain.Transaction{}
	if err := e.db.WithContext(ctx).Scopes(scope).
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return &HistoryPage{
		Transactions: txs,
		Pagination:   page.Paginate(total),
		Wallet:       Totals{TotalEarned: wallet.TotalEarned, TotalSpent: wallet.TotalSpent},
	}, nil
}

// MyRequests pages through the PENDING requests of userID, newest first, and
// sums every pending amount of that wallet.
func (e *Engine) MyRequests(ctx context.Context, userID uint, page domain.Page) (*RequestsPage, error) {
	wallet, err := e.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Model(&domain.Transaction{}).
			Where("wallet_id = ? AND type = ? AND status = ?", wallet.ID, domain.TransactionDebit, domain.StatusPending)
	}
	var sum struct {
		Total decimal.Decimal
		Count int64
	}
	if err := e.db.WithContext(ctx).Scopes(scope).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Scan(&sum).Error; err != nil {
		return nil, err
	}
	txs := []domain.Transaction{}
	if err := e.db.WithContext(ctx).Scopes(scope).
		Preload("Processor").
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&txs).Error; err != nil {
		return nil, err
	}
	views, err := AttachOwners(ctx, e.db, txs)
	if err != nil {
		return nil, err
	}
	pendingTotal := sum.Total.Round(2)
	return &RequestsPage{Requests: views, Pagination: page.Paginate(sum.Count), PendingTotal: &pendingTotal}, nil
}

// PendingRequests pages through every PENDING request, oldest first, for review.
func (e *Engine) PendingRequests(ctx context.Context, page domain.Page) (*RequestsPage, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Model(&domain.Transaction{}).
			Where("type = ? AND status = ?", domain.TransactionDebit, domain.StatusPending)
	}
	var total int64
	if err := e.db.WithContext(ctx).Scopes(scope).Count(&total).Error; err != nil {
		return nil, err
	}
	txs := []domain.Transaction{}
	if err := e.db.WithContext(ctx).Scopes(scope).
		Order("created_at ASC").Order("id ASC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&txs).Error; err != nil {
		return nil, err
	}
	views, err := AttachOwners(ctx, e.db, txs)
	if err != nil {
		return nil, err
	}
	return &RequestsPage{Requests: views, Pagination: page.Paginate(total)}, nil
}

// AttachOwners resolves the user owning each transaction's wallet.
func AttachOwners(ctx context.Context, db *gorm.DB, txs []domain.Transaction) ([]TransactionView, error) {
	views := make([]TransactionView, len(txs))
	if len(txs) == 0 {
		return views, nil
	}
	walletIDs := make([]uint, 0, len(txs))
	seen := make(map[uint]bool, len(txs))
	for _, t := range txs {
		if !seen[t.WalletID] {
			seen[t.WalletID] = true
			walletIDs = append(walletIDs, t.WalletID)
		}
	}
	var rows []struct {
		WalletID uint
		ID       uint
		Name     string
		Email    string
		Role     domain.Role
	}
	if err := db.WithContext(ctx).Table("wallets").
		Select("wallets.id AS wallet_id, users.id AS id, users.name AS name, users.email AS email, users.role AS role").
		Joins("JOIN users ON users.id = wallets.user_id").
		Where("wallets.id IN ?", walletIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	owners := make(map[uint]*domain.UserSummary, len(rows))
	for _, r := range rows {
		owners[r.WalletID] = &domain.UserSummary{ID: r.ID, Name: r.Name, Email: r.Email, Role: r.Role}
	}
	for i, t := range txs {
		views[i] = TransactionView{Transaction: t, User: owners[t.WalletID]}
	}
	return views, nil
}
