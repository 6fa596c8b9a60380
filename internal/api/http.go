// Package api serves the rates snapshot, the derived comparison view, a
// live websocket stream, and the operational endpoints.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bher20/fxratemanager/internal/api/swagger"
	"github.com/bher20/fxratemanager/internal/compare"
	"github.com/bher20/fxratemanager/internal/rates"
	"github.com/bher20/fxratemanager/internal/storage"
	"github.com/bher20/fxratemanager/internal/ui"
)

// Deps are the collaborators the HTTP layer needs. Store and Hub may be nil.
type Deps struct {
	Service     *rates.Service
	Store       storage.Storage
	Comparator  *compare.Comparator
	Hub         *Hub
	CORSOrigins []string
}

// NewMux constructs the HTTP mux with the API, metrics, health, UI and
// docs routes.
func NewMux(d Deps) *http.ServeMux {
	if d.Comparator == nil {
		d.Comparator = compare.New()
	}
	h := &handlers{svc: d.Service, store: d.Store, cmp: d.Comparator}

	mux := http.NewServeMux()

	// Metrics endpoint.
	mux.Handle("/metrics", promhttp.Handler())

	// Health / readiness / liveness.
	mux.HandleFunc("/healthz", h.healthz)
	mux.HandleFunc("/livez", h.livez)
	mux.HandleFunc("/readyz", h.readyz)

	// Rates API.
	mux.Handle("/api/", get(instrument("/api/", h.getRoot)))
	mux.Handle("/api/rates", get(instrument("/api/rates", h.getRates)))
	mux.Handle("/api/rates/refresh", get(instrument("/api/rates/refresh", h.getRefresh)))
	mux.Handle("/api/compare", get(instrument("/api/compare", h.getCompare)))
	mux.Handle("/api/bureaus", get(instrument("/api/bureaus", h.listBureaus)))
	mux.Handle("/api/status", get(instrument("/api/status", h.getStatus)))
	mux.Handle("/api/settings/refresh_interval", methods(map[string]http.Handler{
		http.MethodGet: instrument("/api/settings/refresh_interval", h.getRefreshInterval),
		http.MethodPut: instrument("/api/settings/refresh_interval", h.putRefreshInterval),
	}))
	if d.Hub != nil {
		mux.Handle("/api/rates/stream", get(d.Hub))
	}

	// Docs and web UI.
	mux.Handle("/swagger/", http.StripPrefix("/swagger", swagger.Handler()))
	mux.Handle("/ui/", http.StripPrefix("/ui/", ui.Handler()))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	return mux
}

// NewHandler wraps NewMux with CORS handling.
func NewHandler(d Deps) http.Handler {
	return cors(d.CORSOrigins, NewMux(d))
}
