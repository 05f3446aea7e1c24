package api

import (
	"net/http" // HTTP status codes

	"rocketcoins/internal/report" // Reporting queries

	"github.com/gin-gonic/gin" // Gin web framework
)

// DashboardHandler returns the director dashboard counters
func DashboardHandler(reports *report.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		dash, err := reports.DashboardStatistics(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"total_users":        dash.TotalUsers,
			"total_distributed":  dash.TotalDistributed.StringFixed(2),
			"pending_requests":   dash.PendingRequests,
			"transactions_today": dash.TransactionsToday,
		})
	}
}

// TransactionReportHandler returns COMPLETED transactions filtered by date
// range (from, to as YYYY-MM-DD) and type, with aggregates
func TransactionReportHandler(reports *report.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := report.Filter{
			From: c.Query("from"), // Start day, inclusive
			To:   c.Query("to"),   // End day, inclusive
			Type: c.Query("type"), // CREDIT, DEBIT or all
		}
		rep, err := reports.TransactionReport(c.Request.Context(), filter, parsePage(c, report.DefaultReportSize))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"transactions": rep.Transactions,
			"pagination":   rep.Pagination,
			"statistics": gin.H{
				"count":            rep.Statistics.Count,
				"total_credits":    rep.Statistics.TotalCredits.StringFixed(2),
				"total_debits":     rep.Statistics.TotalDebits.StringFixed(2),
				"total_value":      rep.Statistics.TotalValue.StringFixed(2),
				"distinct_wallets": rep.Statistics.DistinctWallets,
				"net_balance":      rep.Statistics.NetBalance.StringFixed(2),
			},
			"filters": rep.Filters,
		})
	}
}
