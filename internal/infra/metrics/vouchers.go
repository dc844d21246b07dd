package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(voucherRedemptionsTotal, voucherRejectionsTotal) }

var voucherRedemptionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "voucher_redemptions_total",
		Help: "Successful voucher redemptions.",
	},
)

var voucherRejectionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "voucher_rejections_total",
		Help: "Voucher validation failures by reason.",
	},
	[]string{"reason"},
)

func IncVoucherRedemption() {
	voucherRedemptionsTotal.Inc()
}

func IncVoucherRejection(reason string) {
	voucherRejectionsTotal.WithLabelValues(norm(reason)).Inc()
}
