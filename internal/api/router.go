package api

import (
	"net/http"
	"voyage-routing-service/internal/api/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
// A nil gatherer leaves /metrics unmounted.
func NewRouter(svc handlers.VoyageService, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware)

	// Set before mounting so sub-routers inherit them.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	voyage := &handlers.VoyageHandler{Service: svc}
	cp := &handlers.CharterPartyHandler{Service: svc}

	r.Get("/health", handlers.Health)
	r.Route("/voyage", func(r chi.Router) {
		r.Post("/calculate", voyage.Calculate)
		r.Post("/optimize", voyage.Optimize)
		r.Get("/weather-along-route", voyage.AlongRoute)
	})
	r.Get("/weather/point", voyage.Point)
	r.Get("/vessel/specs", voyage.VesselSpecs)
	r.Route("/charter-party", func(r chi.Router) {
		r.Get("/beaufort-scale", cp.BeaufortScale)
		r.Post("/good-weather", cp.GoodWeather)
		r.Post("/good-weather/from-legs", cp.GoodWeatherFromLegs)
		r.Post("/verify-warranty", cp.VerifyWarranty)
		r.Post("/verify-warranty/from-legs", cp.VerifyWarrantyFromLegs)
		r.Post("/off-hire", cp.OffHire)
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}` + "\n"))
}
