// Package slots exposes the analytics core to the surrounding web
// layer. The handlers are plain net/http so any router or frontend can
// mount them.
package slots

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kverne/parkcast/core/aggregate"
	"github.com/kverne/parkcast/core/forecast"
	corelogger "github.com/kverne/parkcast/core/logger"
	"github.com/kverne/parkcast/core/metrics"
	"github.com/kverne/parkcast/core/model"
	"github.com/kverne/parkcast/core/occupancy"
)

// Handler wires the occupancy tracker, profile service and forecast
// strategies into HTTP endpoints.
type Handler struct {
	tracker         *occupancy.Tracker
	profiles        *aggregate.ProfileService
	engines         map[string]forecast.Engine
	defaultStrategy string
	sink            metrics.Sink
	log             corelogger.Logger
	now             func() time.Time
}

// New creates a Handler. A nil sink disables forecast metrics.
func New(tracker *occupancy.Tracker, profiles *aggregate.ProfileService, engines map[string]forecast.Engine, defaultStrategy string, sink metrics.Sink, log corelogger.Logger) *Handler {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Handler{
		tracker:         tracker,
		profiles:        profiles,
		engines:         engines,
		defaultStrategy: defaultStrategy,
		sink:            sink,
		log:             log,
		now:             time.Now,
	}
}

// Mux returns a ServeMux with all slot routes mounted.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/slots/{id}/status", h.updateStatus)
	mux.HandleFunc("GET /api/slots/profile", h.hourlyProfile)
	mux.HandleFunc("GET /api/slots/prediction", h.prediction)
	return mux
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	slotID := r.PathValue("id")

	var body statusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid body"})
		return
	}
	status, err := model.ParseStatus(body.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	err = h.tracker.RecordTransition(r.Context(), slotID, status, h.now())
	var invalid occupancy.InvalidSlotError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid slot"})
	case err != nil:
		h.log.Errorf("request %s: record transition: %v", reqID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	default:
		h.log.Infow("status updated", map[string]any{
			"request_id": reqID,
			"slot_id":    slotID,
			"status":     status.String(),
		})
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *Handler) hourlyProfile(w http.ResponseWriter, r *http.Request) {
	slotID := r.URL.Query().Get("slot")
	class, err := aggregate.ParseWeekdayClass(r.URL.Query().Get("class"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	if slotID == "" || slotID == "all" {
		writeJSON(w, http.StatusOK, h.profiles.Profiles(r.Context(), class))
		return
	}
	profile, err := h.profiles.Profile(r.Context(), slotID, class)
	var invalid occupancy.InvalidSlotError
	if errors.As(err, &invalid) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid slot"})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]float64{slotID: profile})
}

type predictionResponse struct {
	Slot     string  `json:"slot"`
	Hour     int     `json:"hour"`
	Strategy string  `json:"strategy"`
	Score    float64 `json:"score"`
}

func (h *Handler) prediction(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	q := r.URL.Query()
	slotID := q.Get("slot")
	hour, weekday, err := parseHourWeekday(q.Get("hour"), q.Get("weekday"), h.now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	strategy := q.Get("strategy")
	if strategy == "" {
		strategy = h.defaultStrategy
	}
	engine, ok := h.engines[strategy]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unknown strategy"})
		return
	}

	start := h.now()
	score, err := engine.Forecast(r.Context(), slotID, hour, weekday)
	ev := metrics.ForecastEvent{
		SlotID:   slotID,
		Strategy: strategy,
		Hour:     hour,
		Score:    score,
		Outcome:  "ok",
		Elapsed:  h.now().Sub(start),
		Time:     start,
	}

	var invalid occupancy.InvalidSlotError
	switch {
	case errors.Is(err, forecast.ErrInsufficientData):
		ev.Outcome = "insufficient_data"
		writeJSON(w, http.StatusOK, map[string]any{"result": "insufficient data"})
	case errors.As(err, &invalid):
		ev.Outcome = "invalid_slot"
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid slot"})
	case err != nil:
		ev.Outcome = "error"
		h.log.Errorf("request %s: forecast: %v", reqID, err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	default:
		h.log.Infow("forecast served", map[string]any{
			"request_id": reqID,
			"slot_id":    slotID,
			"strategy":   strategy,
			"score":      score,
		})
		writeJSON(w, http.StatusOK, predictionResponse{Slot: slotID, Hour: hour, Strategy: strategy, Score: score})
	}
	if serr := h.sink.RecordForecast(ev); serr != nil {
		h.log.Debugf("record forecast metric: %v", serr)
	}
}

func parseHourWeekday(hourStr, weekdayStr string, now time.Time) (int, time.Weekday, error) {
	hour := now.Hour()
	if hourStr != "" {
		h, err := parseIntInRange(hourStr, 0, 23)
		if err != nil {
			return 0, 0, errors.New("hour must be within 0-23")
		}
		hour = h
	}
	weekday := now.Weekday()
	if weekdayStr != "" {
		wd, err := parseIntInRange(weekdayStr, 0, 6)
		if err != nil {
			return 0, 0, errors.New("weekday must be within 0-6")
		}
		weekday = time.Weekday(wd)
	}
	return hour, weekday, nil
}

func parseIntInRange(s string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < lo || v > hi {
		return 0, errors.New("out of range")
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
