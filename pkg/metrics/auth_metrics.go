package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AuthMetrics contains all authentication-related metrics
var (
	// Login metrics
	AuthLoginSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_login_success_total",
		Help: "Total number of successful login attempts",
	})

	AuthLoginFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_login_failed_total",
		Help: "Total number of failed login attempts",
	})

	// Signup metrics
	AuthSignupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_signup_total",
		Help: "Total number of signup attempts",
	}, []string{"role", "status"})
)
