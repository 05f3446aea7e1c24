// Package report answers the director's read-only questions about the ledger:
// the dashboard counters and the filtered transaction report.
package report

import (
	"context"
	"strings"
	"time"

	"rocketcoins/internal/domain"
	"rocketcoins/internal/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	dateLayout        = "2006-01-02"
	DefaultReportSize = 20
)

// Service runs report queries. Calendar days are interpreted in loc.
type Service struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// NewService builds a report service; a nil loc means UTC.
func NewService(db *gorm.DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{db: db, loc: loc, now: time.Now}
}

// WithClock replaces the clock used to find "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Dashboard holds the headline counters.
type Dashboard struct {
	TotalUsers        int64           `json:"total_users"`        // users holding a wallet
	TotalDistributed  decimal.Decimal `json:"total_distributed"`  // sum of total_earned over every wallet
	PendingRequests   int64           `json:"pending_requests"`   // PENDING debits awaiting review
	TransactionsToday int64           `json:"transactions_today"` // COMPLETED transactions created today
}

// DashboardStatistics computes the dashboard counters.
func (s *Service) DashboardStatistics(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	var out Dashboard
	if err := db.Model(&domain.User{}).
		Joins("JOIN wallets ON wallets.user_id = users.id").
		Count(&out.TotalUsers).Error; err != nil {
		return nil, err
	}
	var distributed struct{ Total decimal.Decimal }
	if err := db.Model(&domain.Wallet{}).
		Select("COALESCE(SUM(total_earned), 0) AS total").
		Scan(&distributed).Error; err != nil {
		return nil, err
	}
	out.TotalDistributed = distributed.Total.Round(2)
	if err := db.Model(&domain.Transaction{}).
		Where("status = ? AND type = ?", domain.StatusPending, domain.TransactionDebit).
		Count(&out.PendingRequests).Error; err != nil {
		return nil, err
	}
	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)
	if err := db.Model(&domain.Transaction{}).
		Where("status = ? AND created_at >= ? AND created_at < ?", domain.StatusCompleted, start.UTC(), end.UTC()).
		Count(&out.TransactionsToday).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// Filter selects the transactions of a report. From and To are YYYY-MM-DD
// and both days are included. Type is CREDIT, DEBIT, or empty/"all" for both.
type Filter struct {
	From string
	To   string
	Type string
}

// Statistics aggregates every transaction matched by the filter, not just the page.
type Statistics struct {
	Count           int64           `json:"count"`
	TotalCredits    decimal.Decimal `json:"total_credits"`
	TotalDebits     decimal.Decimal `json:"total_debits"`
	TotalValue      decimal.Decimal `json:"total_value"`
	DistinctWallets int64           `json:"distinct_wallets"`
	NetBalance      decimal.Decimal `json:"net_balance"`
}

// AppliedFilters echoes the filter back with a readable period.
type AppliedFilters struct {
	From   *string `json:"from"`
	To     *string `json:"to"`
	Type   string  `json:"type"`
	Period string  `json:"period"`
}

// TransactionReport is one page of the report plus its aggregates.
type TransactionReport struct {
	Transactions []ledger.TransactionView `json:"transactions"`
	Pagination   domain.Pagination        `json:"pagination"`
	Statistics   Statistics               `json:"statistics"`
	Filters      AppliedFilters           `json:"filters"`
}

type criteria struct {
	from, to *time.Time // [from, to)
	typ      domain.TransactionType
}

func (s *Service) parse(f Filter) (criteria, AppliedFilters, error) {
	var c criteria
	applied := AppliedFilters{Type: "all"}
	if from := strings.TrimSpace(f.From); from != "" {
		day, err := time.ParseInLocation(dateLayout, from, s.loc)
		if err != nil {
			return c, applied, domain.NewValidationError("from", "start date must be in YYYY-MM-DD format")
		}
		c.from = &day
		applied.From = &from
	}
	if to := strings.TrimSpace(f.To); to != "" {
		day, err := time.ParseInLocation(dateLayout, to, s.loc)
		if err != nil {
			return c, applied, domain.NewValidationError("to", "end date must be in YYYY-MM-DD format")
		}
		next := day.AddDate(0, 0, 1)
		c.to = &next
		applied.To = &to
	}
	if c.from != nil && c.to != nil && !c.from.Before(*c.to) {
		return c, applied, domain.NewValidationError("from", "start date must not be after end date")
	}
	switch typ := strings.ToLower(strings.TrimSpace(f.Type)); typ {
	case "", "all", "todos":
	default:
		t, err := domain.ParseTransactionType(typ)
		if err != nil {
			return c, applied, err
		}
		c.typ = t
		applied.Type = string(t)
	}
	applied.Period = periodLabel(applied.From, applied.To)
	return c, applied, nil
}

func periodLabel(from, to *string) string {
	switch {
	case from != nil && to != nil:
		return *from + " to " + *to
	case from != nil:
		return "From " + *from
	case to != nil:
		return "Until " + *to
	default:
		return "All periods"
	}
}

func (c criteria) scope(db *gorm.DB) *gorm.DB {
	db = db.Model(&domain.Transaction{}).Where("status = ?", domain.StatusCompleted)
	if c.from != nil {
		db = db.Where("created_at >= ?", c.from.UTC())
	}
	if c.to != nil {
		db = db.Where("created_at < ?", c.to.UTC())
	}
	if c.typ != "" {
		db = db.Where("type = ?", c.typ)
	}
	return db
}

// TransactionReport pages through COMPLETED transactions matching f, newest first.
func (s *Service) TransactionReport(ctx context.Context, f Filter, page domain.Page) (*TransactionReport, error) {
	c, applied, err := s.parse(f)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var stats Statistics
	if err := db.Scopes(c.scope).
		Select(`COUNT(*) AS count,
			COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS total_credits,
			COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS total_debits,
			COALESCE(SUM(amount), 0) AS total_value,
			COUNT(DISTINCT wallet_id) AS distinct_wallets`,
			domain.TransactionCredit, domain.TransactionDebit).
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	stats.TotalCredits = stats.TotalCredits.Round(2)
	stats.TotalDebits = stats.TotalDebits.Round(2)
	stats.TotalValue = stats.TotalValue.Round(2)
	stats.NetBalance = stats.TotalCredits.Sub(stats.TotalDebits)

	txs := []domain.Transaction{}
	if err := db.Scopes(c.scope).
		Preload("Processor").
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&txs).Error; err != nil {
		return nil, err
	}
	views, err := ledger.AttachOwners(ctx, s.db, txs)
	if err != nil {
		return nil, err
	}
	return &TransactionReport{
		Transactions: views,
		Pagination:   page.Paginate(stats.Count),
		Statistics:   stats,
		Filters:      applied,
	}, nil
}
