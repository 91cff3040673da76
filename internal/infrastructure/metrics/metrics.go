package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beatvote_rooms_created_total",
		Help: "Number of rooms created.",
	})

	SongsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beatvote_songs_submitted_total",
		Help: "Number of songs submitted across all rooms.",
	})

	VotesCast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beatvote_votes_cast_total",
		Help: "Number of accepted votes.",
	})

	RoundsFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beatvote_rounds_finalized_total",
		Help: "Number of rounds finalized with a winner.",
	})

	ActiveViewers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beatvote_ws_active_connections",
		Help: "Currently open WebSocket viewer connections.",
	})

	CatalogSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beatvote_catalog_searches_total",
		Help: "Catalog search calls by outcome.",
	}, []string{"outcome"})
)

// Handler serves the default registry, which promauto registers into.
func Handler() http.Handler {
	return promhttp.Handler()
}
