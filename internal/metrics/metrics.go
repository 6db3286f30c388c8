package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MenuCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "menu_cache",
		Name:      "lookups_total",
		Help:      "Category menu cache lookups by result (hit, miss, error).",
	}, []string{"result"})

	MenuRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "menu_cache",
		Name:      "rebuilds_total",
		Help:      "Times the visible category menu was rebuilt from the database.",
	})

	MenuInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "menu_cache",
		Name:      "invalidations_total",
		Help:      "Explicit menu cache evictions by triggering mutation.",
	}, []string{"reason"})

	ResetTokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "password_reset",
		Name:      "tokens_issued_total",
		Help:      "Password reset tokens issued.",
	})

	ResetTokensConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "password_reset",
		Name:      "tokens_consumed_total",
		Help:      "Password reset tokens consumed after a successful password update.",
	})

	ResetTokenRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "password_reset",
		Name:      "token_rejections_total",
		Help:      "Rejected reset token validations by reason.",
	}, []string{"reason"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the fixed window limiter, by route group.",
	}, []string{"route"})
)
