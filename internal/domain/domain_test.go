package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name              string
		page, limit, def  int
		wantPage, wantLim int
	}{
		{"defaults", 0, 0, 10, 1, 10},
		{"negative", -3, -1, 5, 1, 5},
		{"capped", 2, 500, 10, 2, 100},
		{"explicit", 3, 7, 10, 3, 7},
		{"bad fallback", 1, 0, 0, 1, DefaultPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.page, tt.limit, tt.def)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLim, p.Limit)
		})
	}
}

func TestPaginate(t *testing.T) {
	p := NewPage(2, 10, 10)
	assert.Equal(t, 10, p.Offset())

	pg := p.Paginate(25)
	assert.Equal(t, 3, pg.TotalPages)
	assert.Equal(t, int64(25), pg.TotalItems)
	assert.True(t, pg.HasNextPage)
	assert.True(t, pg.HasPrevPage)

	pg = NewPage(1, 10, 10).Paginate(0)
	assert.Equal(t, 0, pg.TotalPages)
	assert.False(t, pg.HasNextPage)
	assert.False(t, pg.HasPrevPage)
}

func TestComputeWorkingHours(t *testing.T) {
	entry := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	assert.Nil(t, ComputeWorkingHours(entry, nil))

	exit := entry.Add(7*time.Hour + 45*time.Minute + 30*time.Second)
	wh := ComputeWorkingHours(entry, &exit)
	require.NotNil(t, wh)
	assert.Equal(t, int64(7), wh.Hours)
	assert.Equal(t, int64(45), wh.Minutes)
	assert.True(t, decimal.RequireFromString("7.76").Equal(wh.TotalHours), "got %s", wh.TotalHours)

	wh = ComputeWorkingHours(entry, &entry)
	assert.Equal(t, int64(0), wh.Hours)
	assert.True(t, wh.TotalHours.IsZero())
}

func TestParseEnums(t *testing.T) {
	typ, err := ParseTransactionType(" debit ")
	require.NoError(t, err)
	assert.Equal(t, TransactionDebit, typ)
	_, err = ParseTransactionType("transfer")
	assert.ErrorIs(t, err, ErrValidation)

	role, err := ParseRole("director")
	require.NoError(t, err)
	assert.Equal(t, RoleDirector, role)
	_, err = ParseRole("admin")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransactionStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusPending.CanTransitionTo(StatusPending))
}

func TestSignedAndCanCover(t *testing.T) {
	amount := decimal.RequireFromString("12.50")
	assert.True(t, (&Transaction{Type: TransactionDebit, Amount: amount}).Signed().Equal(amount.Neg()))
	assert.True(t, (&Transaction{Type: TransactionCredit, Amount: amount}).Signed().Equal(amount))

	w := NewWallet(1)
	assert.True(t, w.IsActive)
	assert.False(t, w.CanCover(amount))
	w.Balance = amount
	assert.True(t, w.CanCover(amount))
}

func TestInsufficientBalanceErrorMessage(t *testing.T) {
	err := &InsufficientBalanceError{Balance: decimal.NewFromInt(40), Requested: decimal.NewFromInt(60)}
	assert.Equal(t, "insufficient balance: current balance 40.00, requested 60.00", err.Error())
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}
