package ledger

import (
	"context"
	"fmt"

	"rocketcoins/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ReplayState is what a wallet should look like after a run of transactions.
type ReplayState struct {
	Balance     decimal.Decimal `json:"balance"`
	TotalEarned decimal.Decimal `json:"total_earned"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	Applied     uint64          `json:"applied"`
}

// Replay folds the COMPLETED transactions of one wallet, in the order given,
// starting from zero. Non-completed entries are skipped. Every broken link in
// the balance chain is reported as an issue.
func Replay(txs []domain.Transaction) (ReplayState, []string) {
	state := ReplayState{Balance: decimal.Zero, TotalEarned: decimal.Zero, TotalSpent: decimal.Zero}
	var issues []string
	for _, t := range txs {
		if t.Status != domain.StatusCompleted {
			continue
		}
		state.Applied++
		if !t.BalanceBefore.Equal(state.Balance) {
			issues = append(issues, fmt.Sprintf("transaction %d: balance_before %s, expected %s",
				t.ID, t.BalanceBefore.StringFixed(2), state.Balance.StringFixed(2)))
		}
		expectedAfter := t.BalanceBefore.Add(t.Signed())
		if !t.BalanceAfter.Equal(expectedAfter) {
			issues = append(issues, fmt.Sprintf("transaction %d: balance_after %s, expected %s",
				t.ID, t.BalanceAfter.StringFixed(2), expectedAfter.StringFixed(2)))
		}
		if t.Sequence != nil && *t.Sequence != state.Applied {
			issues = append(issues, fmt.Sprintf("transaction %d: sequence %d, expected %d", t.ID, *t.Sequence, state.Applied))
		}
		state.Balance = state.Balance.Add(t.Signed())
		switch t.Type {
		case domain.TransactionCredit:
			state.TotalEarned = state.TotalEarned.Add(t.Amount)
		case domain.TransactionDebit:
			state.TotalSpent = state.TotalSpent.Add(t.Amount)
		}
		if state.Balance.IsNegative() {
			issues = append(issues, fmt.Sprintf("transaction %d: balance went negative (%s)", t.ID, state.Balance.StringFixed(2)))
		}
	}
	return state, issues
}

// AuditReport compares a wallet against the replay of its history.
type AuditReport struct {
	WalletID   uint          `json:"wallet_id"`
	UserID     uint          `json:"user_id"`
	Consistent bool          `json:"consistent"`
	Expected   ReplayState   `json:"expected"`
	Actual     domain.Wallet `json:"actual"`
	Issues     []string      `json:"issues"`
}

// VerifyWallet replays the applied history of userID's wallet and checks it
// reproduces the stored balance and totals.
func (e *Engine) VerifyWallet(ctx context.Context, userID uint) (*AuditReport, error) {
	wallet, err := e.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	var txs []domain.Transaction
	if err := e.db.WithContext(ctx).
		Where("wallet_id = ? AND status = ?", wallet.ID, domain.StatusCompleted).
		Order("sequence ASC").Order("id ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	state, issues := Replay(txs)
	if !state.Balance.Equal(wallet.Balance) {
		issues = append(issues, fmt.Sprintf("balance %s, replay gives %s", wallet.Balance.StringFixed(2), state.Balance.StringFixed(2)))
	}
	if !state.TotalEarned.Equal(wallet.TotalEarned) {
		issues = append(issues, fmt.Sprintf("total_earned %s, replay gives %s", wallet.TotalEarned.StringFixed(2), state.TotalEarned.StringFixed(2)))
	}
	if !state.TotalSpent.Equal(wallet.TotalSpent) {
		issues = append(issues, fmt.Sprintf("total_spent %s, replay gives %s", wallet.TotalSpent.StringFixed(2), state.TotalSpent.StringFixed(2)))
	}
	if state.Applied != wallet.Sequence {
		issues = append(issues, fmt.Sprintf("sequence %d, replay applied %d", wallet.Sequence, state.Applied))
	}
	report := &AuditReport{
		WalletID:   wallet.ID,
		UserID:     wallet.UserID,
		Consistent: len(issues) == 0,
		Expected:   state,
		Actual:     *wallet,
		Issues:     issues,
	}
	if !report.Consistent {
		e.log.WithFields(logrus.Fields{"user_id": userID, "wallet_id": wallet.ID, "issues": len(issues)}).Error("Wallet audit found inconsistencies")
	}
	return report, nil
}
