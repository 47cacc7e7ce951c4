package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VotesTotal counts successful votes by target kind and direction.
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "namethatobject_votes_total",
		Help: "Total number of votes cast",
	}, []string{"target", "direction"})

	// AccountDeletions counts account deletion attempts by outcome.
	AccountDeletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "namethatobject_account_deletions_total",
		Help: "Total number of account deletions by outcome",
	}, []string{"outcome"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "namethatobject_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// MediaUploads counts stored media files by kind.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "namethatobject_media_uploads_total",
		Help: "Total number of stored media uploads by kind",
	}, []string{"kind"})
)
