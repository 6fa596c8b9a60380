package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bher20/fxratemanager/internal/compare"
	"github.com/bher20/fxratemanager/internal/cron"
	"github.com/bher20/fxratemanager/internal/rates"
	"github.com/bher20/fxratemanager/internal/storage"
)

type handlers struct {
	svc   *rates.Service
	store storage.Storage
	cmp   *compare.Comparator
}

// MessageResponse is the body of GET /api/.
type MessageResponse struct {
	Message string `json:"message"`
}

// BureauDTO represents a configured bureau in the API.
type BureauDTO struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Group    string `json:"group"`
	Kind     string `json:"kind,omitempty"`
	Position int    `json:"position"`
}

// StatusResponse describes the freshness of the served data.
type StatusResponse struct {
	SnapshotID      string                `json:"snapshot_id,omitempty"`
	Timestamp       *rates.Timestamp      `json:"timestamp,omitempty"`
	AgeSeconds      float64               `json:"age_seconds,omitempty"`
	Bureaus         int                   `json:"bureaus"`
	RefreshInterval string                `json:"refresh_interval,omitempty"`
	Job             *storage.ScheduledJob `json:"job,omitempty"`
}

// getRoot
// @Summary API banner
// @Tags rates
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /api/ [get]
func (h *handlers) getRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Currency Exchange Rate Comparison API"})
}

// getRates serves the latest snapshot, collecting one when the cached copy
// is stale.
// @Summary Latest rate snapshot
// @Description Quotes from every bureau, in bureau order
// @Tags rates
// @Produce json
// @Success 200 {object} rates.Snapshot
// @Failure 500 {string} string
// @Router /api/rates [get]
func (h *handlers) getRates(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Latest(r.Context())
	if err != nil {
		log.Printf("api: latest snapshot failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// getRefresh
// @Summary Force a new collection
// @Tags rates
// @Produce json
// @Success 200 {object} rates.Snapshot
// @Failure 500 {string} string
// @Router /api/rates/refresh [get]
func (h *handlers) getRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Refresh(r.Context())
	if err != nil {
		log.Printf("api: refresh failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// getCompare serves the best-rate view of the latest snapshot.
// @Summary Best rates and gold-ounce spread
// @Tags compare
// @Produce json
// @Success 200 {object} compare.View
// @Failure 500 {string} string
// @Router /api/compare [get]
func (h *handlers) getCompare(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Latest(r.Context())
	if err != nil {
		log.Printf("api: latest snapshot failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.cmp.Compare(*snap))
}

// listBureaus
// @Summary List bureaus
// @Tags rates
// @Produce json
// @Success 200 {array} BureauDTO
// @Router /api/bureaus [get]
func (h *handlers) listBureaus(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		list, err := h.store.ListBureaus(r.Context())
		if err == nil && len(list) > 0 {
			out := make([]BureauDTO, 0, len(list))
			for _, b := range list {
				out = append(out, BureauDTO{Key: b.Key, Name: b.Name, URL: b.URL, Group: b.Group, Kind: b.Kind, Position: b.Position})
			}
			writeJSON(w, http.StatusOK, out)
			return
		}
		if err != nil {
			log.Printf("api: list bureaus from storage failed, using configuration: %v", err)
		}
	}

	list := h.svc.Bureaus()
	out := make([]BureauDTO, 0, len(list))
	for i, b := range list {
		out = append(out, BureauDTO{Key: b.Key(), Name: b.Name(), URL: b.LandingURL(), Group: string(b.Group()), Position: i})
	}
	writeJSON(w, http.StatusOK, out)
}

// getStatus
// @Summary Snapshot freshness and refresh job state
// @Tags ops
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /api/status [get]
func (h *handlers) getStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Bureaus: len(h.svc.Bureaus())}
	if snap := h.svc.Current(); snap != nil {
		ts := snap.Timestamp
		resp.SnapshotID = snap.ID
		resp.Timestamp = &ts
		if !ts.IsZero() {
			resp.AgeSeconds = time.Since(ts.Time).Seconds()
		}
	}
	if h.store != nil {
		ctx := r.Context()
		if val, err := h.store.GetSetting(ctx, cron.IntervalSetting); err == nil {
			resp.RefreshInterval = val
		}
		if job, err := h.store.GetScheduledJob(ctx, cron.JobName); err == nil {
			resp.Job = job
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// SettingDTO is a runtime setting.
type SettingDTO struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// getRefreshInterval
// @Summary Effective refresh job cadence
// @Tags ops
// @Produce json
// @Success 200 {object} SettingDTO
// @Failure 503 {string} string "no storage"
// @Router /api/settings/refresh_interval [get]
func (h *handlers) getRefreshInterval(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "settings unavailable", http.StatusServiceUnavailable)
		return
	}
	val, err := h.store.GetSetting(r.Context(), cron.IntervalSetting)
	if err != nil {
		log.Printf("api: get setting failed: %v", err)
		http.Error(w, "failed to read setting", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, SettingDTO{Key: cron.IntervalSetting, Value: val})
}

// putRefreshInterval
// @Summary Change the refresh job cadence
// @Description The value is integer seconds or a standard cron expression. Running workers pick it up within a second.
// @Tags ops
// @Accept json
// @Produce json
// @Param body body SettingDTO true "new value"
// @Success 200 {object} SettingDTO
// @Failure 400 {string} string "invalid interval"
// @Router /api/settings/refresh_interval [put]
func (h *handlers) putRefreshInterval(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "settings unavailable", http.StatusServiceUnavailable)
		return
	}
	var body SettingDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	body.Value = strings.TrimSpace(body.Value)
	if !cron.ValidInterval(body.Value) {
		http.Error(w, "invalid interval: want seconds or a cron expression", http.StatusBadRequest)
		return
	}
	if err := h.store.SetSetting(r.Context(), cron.IntervalSetting, body.Value); err != nil {
		log.Printf("api: set setting failed: %v", err)
		http.Error(w, "failed to save setting", http.StatusInternalServerError)
		return
	}
	log.Printf("api: %s set to %q", cron.IntervalSetting, body.Value)
	writeJSON(w, http.StatusOK, SettingDTO{Key: cron.IntervalSetting, Value: body.Value})
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) livez(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("live"))
}

func (h *handlers) readyz(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			log.Printf("readyz: db ping failed: %v", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response failed: %v", err)
	}
}
