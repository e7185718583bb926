package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scoresSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truthquest_scores_submitted_total",
		Help: "Total number of accepted score submissions.",
	})

	powerUpsEarnedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthquest_powerups_earned_total",
			Help: "Total number of power-up grants created, by power-up type.",
		},
		[]string{"type"},
	)

	powerUpsUsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthquest_powerups_used_total",
			Help: "Total number of power-up grants redeemed, by power-up type.",
		},
		[]string{"type"},
	)

	invitesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truthquest_invites_created_total",
		Help: "Total number of game invites created.",
	})
)
