package report_test

import (
	"context"
	"testing"
	"time"

	"rocketcoins/internal/domain"
	"rocketcoins/internal/ledger"
	"rocketcoins/internal/report"
	"rocketcoins/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	ctx    context.Context
	db     *gorm.DB
	ledger *ledger.Engine
	alice  *domain.User
	bob    *domain.User
	boss   *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	log, _ := testutil.NewLogger()
	f := &fixture{
		ctx:    context.Background(),
		db:     gdb,
		ledger: ledger.NewEngine(gdb, log),
		alice:  testutil.CreateUser(t, gdb, "alice", domain.RoleMember),
		bob:    testutil.CreateUser(t, gdb, "bob", domain.RoleMember),
		boss:   testutil.CreateUser(t, gdb, "boss", domain.RoleDirector),
	}
	for _, u := range []*domain.User{f.alice, f.bob} {
		_, err := f.ledger.CreateWallet(f.ctx, u.ID)
		require.NoError(t, err)
	}
	return f
}

// post writes a completed transaction and backdates it to at.
func (f *fixture) post(t *testing.T, userID uint, typ domain.TransactionType, amount string, at time.Time) uint {
	t.Helper()
	in := ledger.Entry{Amount: decimal.RequireFromString(amount), Title: "t", Description: "d"}
	var (
		res *ledger.Result
		err error
	)
	if typ == domain.TransactionCredit {
		res, err = f.ledger.Credit(f.ctx, userID, in)
	} else {
		res, err = f.ledger.Debit(f.ctx, userID, in)
	}
	require.NoError(t, err)
	f.backdate(t, res.Transaction.ID, at)
	return res.Transaction.ID
}

func (f *fixture) backdate(t *testing.T, txID uint, at time.Time) {
	t.Helper()
	require.NoError(t, f.db.Model(&domain.Transaction{}).Where("id = ?", txID).Update("created_at", at.UTC()).Error)
}

func day(s string, hour int) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d.Add(time.Duration(hour) * time.Hour)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.StringFixed(2))
}

func TestDashboardStatistics(t *testing.T) {
	f := newFixture(t)
	now := day("2025-03-10", 15)

	f.post(t, f.alice.ID, domain.TransactionCredit, "100", now.Add(-time.Hour))
	f.post(t, f.bob.ID, domain.TransactionCredit, "50.25", now.AddDate(0, 0, -2))
	f.post(t, f.alice.ID, domain.TransactionDebit, "10", now.Add(-2*time.Hour))
	req, err := f.ledger.RequestSpending(f.ctx, f.alice.ID, ledger.Entry{Amount: decimal.NewFromInt(5), Title: "t", Description: "d"})
	require.NoError(t, err)
	f.backdate(t, req.Transaction.ID, now)

	svc := report.NewService(f.db, time.UTC).WithClock(func() time.Time { return now })
	dash, err := svc.DashboardStatistics(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), dash.TotalUsers, "only users holding a wallet count")
	assertAmount(t, "150.25", dash.TotalDistributed)
	assert.Equal(t, int64(1), dash.PendingRequests)
	assert.Equal(t, int64(2), dash.TransactionsToday, "pending and older transactions are excluded")
}

func TestDashboardStatistics_Empty(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := report.NewService(gdb, nil)

	dash, err := svc.DashboardStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), dash.TotalUsers)
	assertAmount(t, "0", dash.TotalDistributed)
	assert.Equal(t, int64(0), dash.PendingRequests)
	assert.Equal(t, int64(0), dash.TransactionsToday)
}

func TestTransactionReport_DateRangeAndStatistics(t *testing.T) {
	f := newFixture(t)
	f.post(t, f.alice.ID, domain.TransactionCredit, "100", day("2025-03-01", 0))
	f.post(t, f.bob.ID, domain.TransactionCredit, "40", day("2025-03-03", 12))
	f.post(t, f.alice.ID, domain.TransactionDebit, "30", day("2025-03-05", 23))
	f.post(t, f.bob.ID, domain.TransactionCredit, "999", day("2025-03-06", 0))
	_, err := f.ledger.RequestSpending(f.ctx, f.alice.ID, ledger.Entry{Amount: decimal.NewFromInt(1), Title: "t", Description: "d"})
	require.NoError(t, err)

	svc := report.NewService(f.db, time.UTC)
	rep, err := svc.TransactionReport(f.ctx, report.Filter{From: "2025-03-01", To: "2025-03-05"}, domain.NewPage(1, 0, report.DefaultReportSize))
	require.NoError(t, err)

	require.Len(t, rep.Transactions, 3)
	assertAmount(t, "30", rep.Transactions[0].Amount)
	assertAmount(t, "100", rep.Transactions[2].Amount)
	for _, tx := range rep.Transactions {
		assert.Equal(t, domain.StatusCompleted, tx.Status)
		require.NotNil(t, tx.User)
	}
	assert.Equal(t, "alice", rep.Transactions[0].User.Name)

	assert.Equal(t, int64(3), rep.Statistics.Count)
	assertAmount(t, "140", rep.Statistics.TotalCredits)
	assertAmount(t, "30", rep.Statistics.TotalDebits)
	assertAmount(t, "170", rep.Statistics.TotalValue)
	assertAmount(t, "110", rep.Statistics.NetBalance)
	assert.Equal(t, int64(2), rep.Statistics.DistinctWallets)

	assert.Equal(t, "2025-03-01 to 2025-03-05", rep.Filters.Period)
	assert.Equal(t, "all", rep.Filters.Type)
	assert.Equal(t, int64(3), rep.Pagination.TotalItems)
	assert.Equal(t, 20, rep.Pagination.ItemsPerPage)
}

func TestTransactionReport_TypeFilterAndPaging(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.post(t, f.alice.ID, domain.TransactionCredit, "10", day("2025-04-01", i))
	}
	f.post(t, f.alice.ID, domain.TransactionDebit, "5", day("2025-04-02", 0))

	svc := report.NewService(f.db, time.UTC)
	rep, err := svc.TransactionReport(f.ctx, report.Filter{Type: "credit"}, domain.NewPage(2, 2, report.DefaultReportSize))
	require.NoError(t, err)

	assert.Len(t, rep.Transactions, 2)
	assert.Equal(t, int64(5), rep.Statistics.Count)
	assertAmount(t, "50", rep.Statistics.TotalCredits)
	assertAmount(t, "0", rep.Statistics.TotalDebits)
	assert.Equal(t, "CREDIT", rep.Filters.Type)
	assert.Equal(t, "All periods", rep.Filters.Period)
	assert.Equal(t, 3, rep.Pagination.TotalPages)
	assert.True(t, rep.Pagination.HasNextPage)
	assert.True(t, rep.Pagination.HasPrevPage)

	for _, typ := range []string{"all", "todos", "ALL", ""} {
		rep, err = svc.TransactionReport(f.ctx, report.Filter{Type: typ}, domain.NewPage(1, 0, report.DefaultReportSize))
		require.NoError(t, err)
		assert.Equal(t, int64(6), rep.Statistics.Count, "type %q", typ)
	}
}

func TestTransactionReport_UsesConfiguredLocation(t *testing.T) {
	f := newFixture(t)
	// 01:00 UTC on the 6th is still the 5th at UTC-3.
	f.post(t, f.alice.ID, domain.TransactionCredit, "10", day("2025-03-06", 1))

	brt := time.FixedZone("BRT", -3*60*60)
	rep, err := report.NewService(f.db, brt).TransactionReport(f.ctx, report.Filter{To: "2025-03-05"}, domain.NewPage(1, 0, report.DefaultReportSize))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rep.Statistics.Count)
	assert.Equal(t, "Until 2025-03-05", rep.Filters.Period)

	rep, err = report.NewService(f.db, time.UTC).TransactionReport(f.ctx, report.Filter{To: "2025-03-05"}, domain.NewPage(1, 0, report.DefaultReportSize))
	require.NoError(t, err)
	assert.Equal(t, int64(0), rep.Statistics.Count)
}

func TestTransactionReport_InvalidFilters(t *testing.T) {
	f := newFixture(t)
	svc := report.NewService(f.db, time.UTC)
	page := domain.NewPage(1, 0, report.DefaultReportSize)

	cases := []report.Filter{
		{From: "03/01/2025"},
		{To: "2025-13-01"},
		{From: "2025-03-10", To: "2025-03-01"},
		{Type: "transfer"},
	}
	for _, filter := range cases {
		_, err := svc.TransactionReport(f.ctx, filter, page)
		assert.ErrorIs(t, err, domain.ErrValidation, "filter %+v", filter)
	}

	rep, err := svc.TransactionReport(f.ctx, report.Filter{From: "2025-03-10"}, page)
	require.NoError(t, err)
	assert.Equal(t, "From 2025-03-10", rep.Filters.Period)
	assert.Empty(t, rep.Transactions)
}
