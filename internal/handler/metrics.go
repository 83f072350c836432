package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_registrations_total",
		Help: "Total number of successful user registrations.",
	})

	loginsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_logins_total",
		Help: "Total number of successful logins.",
	})

	refreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_token_refreshes_total",
		Help: "Total number of successful token refreshes.",
	})

	blogsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_posts_created_total",
		Help: "Total number of created blog posts.",
	})

	tokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_token_verifications_total",
			Help: "Total number of access token verification attempts by status.",
		},
		[]string{"status"},
	)
)
