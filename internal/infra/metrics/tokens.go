package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(tokenPurchasesTotal, tokensSoldTotal, ledgerEntriesTotal) }

var tokenPurchasesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "token_purchases_total",
		Help: "Token purchases by voucher usage (with_voucher/without_voucher).",
	},
	[]string{"voucher"},
)

var tokensSoldTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "tokens_sold_total",
		Help: "Total number of tokens credited through purchases.",
	},
)

var ledgerEntriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledger_entries_total",
		Help: "Ledger rows appended, by transaction type.",
	},
	[]string{"type"},
)

func IncTokenPurchase(withVoucher bool, tokens int64) {
	lbl := "without_voucher"
	if withVoucher {
		lbl = "with_voucher"
	}
	tokenPurchasesTotal.WithLabelValues(lbl).Inc()
	tokensSoldTotal.Add(float64(tokens))
}

func IncLedgerEntry(txType string) {
	ledgerEntriesTotal.WithLabelValues(norm(txType)).Inc()
}
