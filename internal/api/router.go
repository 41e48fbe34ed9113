package api

import (
	"net/http"
	"terrain-profile-service/internal/adapters/chart"
	"terrain-profile-service/internal/api/handlers"
	"terrain-profile-service/internal/ports"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the adapters the API is composed from.
type Deps struct {
	Provider     ports.ElevationProvider
	Store        ports.CoordinateStore
	ShareBaseURL string
	ChartWidth   int
	ChartHeight  int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	profileHandler := &handlers.ProfileHandler{
		Provider:     deps.Provider,
		Store:        deps.Store,
		ShareBaseURL: deps.ShareBaseURL,
		ChartWidth:   deps.ChartWidth,
		ChartHeight:  deps.ChartHeight,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/api/view", profileHandler.View)
	mux.HandleFunc("/api/profile", profileHandler.Submit)
	mux.HandleFunc("/api/profile/chart.png", profileHandler.Chart(chart.FormatPNG))
	mux.HandleFunc("/api/profile/chart.svg", profileHandler.Chart(chart.FormatSVG))
	mux.Handle("/metrics", promhttp.Handler())

	// The request id is set before logging so access lines carry it.
	return requestIDMiddleware(loggingMiddleware(mux))
}
