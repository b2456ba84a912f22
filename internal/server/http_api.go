package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/playlytics/playlytics/internal/shared"
	"github.com/playlytics/playlytics/internal/storage"
)

// HTTPAPI serves the telemetry ingestion and query surface.
type HTTPAPI struct {
	store     *storage.Storage
	hub       *Hub
	notifier  *AlertNotifier
	dedup     *eventDedupCache
	gate      *versionGate
	apiKey    string
	logger    *zap.Logger
	metrics   *Metrics
	dashboard dashboardOptions

	now func() time.Time
}

type dashboardOptions struct {
	defaultWindowDays int
	maxRows           int
}

func NewHTTPAPI(store *storage.Storage, apiKey string, minClientVersion string, windowDays, maxRows int, logger *zap.Logger) (*HTTPAPI, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	if maxRows <= 0 {
		maxRows = 1000
	}

	gate, err := newVersionGate(minClientVersion)
	if err != nil {
		return nil, err
	}
	dedup, err := newEventDedupCache(dedupSessionLimit, dedupCacheSizePerSession)
	if err != nil {
		return nil, err
	}

	return &HTTPAPI{
		store:   store,
		dedup:   dedup,
		gate:    gate,
		apiKey:  apiKey,
		logger:  logger,
		metrics: GetMetrics(),
		dashboard: dashboardOptions{
			defaultWindowDays: windowDays,
			maxRows:           maxRows,
		},
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (a *HTTPAPI) SetHub(hub *Hub) {
	a.hub = hub
}

func (a *HTTPAPI) SetAlertNotifier(notifier *AlertNotifier) {
	a.notifier = notifier
}

func (a *HTTPAPI) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", a.handleWelcome)
	mux.HandleFunc("GET /healthz", a.handleLiveness)
	mux.HandleFunc("GET /readyz", a.handleReadiness)
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("POST /api/sessions/start", a.ingestChain(http.HandlerFunc(a.handleSessionStart)))
	mux.Handle("POST /api/sessions/end", a.ingestChain(http.HandlerFunc(a.handleSessionEnd)))
	mux.Handle("POST /api/events", a.ingestChain(http.HandlerFunc(a.handleCreateEvent)))
	mux.Handle("POST /api/events/batch", a.ingestChain(http.HandlerFunc(a.handleEventBatch)))
	mux.Handle("POST /api/metrics", a.ingestChain(http.HandlerFunc(a.handleCreateMetric)))
	mux.Handle("POST /api/metrics/batch", a.ingestChain(http.HandlerFunc(a.handleMetricBatch)))

	mux.Handle("GET /api/sessions/{id}", a.requireAuth(http.HandlerFunc(a.handleGetSession)))
	mux.Handle("GET /api/events", a.requireAuth(http.HandlerFunc(a.handleListEvents)))
	mux.Handle("GET /api/events/{id}", a.requireAuth(http.HandlerFunc(a.handleGetEvent)))
	mux.Handle("GET /api/metrics", a.requireAuth(http.HandlerFunc(a.handleListMetrics)))
	mux.Handle("GET /api/metrics/{id}", a.requireAuth(http.HandlerFunc(a.handleGetMetric)))
	mux.Handle("GET /api/dashboard", a.requireAuth(http.HandlerFunc(a.handleDashboard)))

	if a.hub != nil {
		mux.Handle("GET /ws/live", a.requireAuth(http.HandlerFunc(a.hub.ServeWS)))
	}

	return a.withCorrelation(mux)
}

type apiResponse struct {
	Data interface{} `json:"data"`
	Meta *apiMeta    `json:"meta,omitempty"`
}

type apiMeta struct {
	Total int `json:"total"`
	Limit int `json:"limit,omitempty"`
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// withCorrelation attaches a correlation ID to every request and echoes it
// back for client-side log stitching.
func (a *HTTPAPI) withCorrelation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Correlation-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Correlation-ID", id)
		next.ServeHTTP(w, r.WithContext(shared.WithCorrelationID(r.Context(), id)))
	})
}

// ingestChain guards write endpoints: API key first, then the client
// version gate.
func (a *HTTPAPI) ingestChain(next http.Handler) http.Handler {
	return a.requireAuth(a.requireClientVersion(next))
}

func (a *HTTPAPI) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := ""
		if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if token == "" {
			// Browser dashboards cannot set headers on websocket upgrades.
			token = r.URL.Query().Get("api_key")
		}

		if token != a.apiKey {
			writeError(w, http.StatusUnauthorized, "unauthorized", "AUTH_REQUIRED")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAPI) requireClientVersion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.gate.allow(r.Header.Get(clientVersionHeader)) {
			writeError(w, http.StatusUpgradeRequired, "client version is no longer supported", "CLIENT_UPGRADE_REQUIRED")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAPI) handleWelcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "game telemetry ingestion api",
		"version": "1.0.0",
	})
}

func (a *HTTPAPI) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (a *HTTPAPI) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
	Timestamp  time.Time         `json:"timestamp"`
}

func (a *HTTPAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"database":    a.checkDBHealth(),
		"live_stream": a.checkHubHealth(),
	}

	status := "healthy"
	for _, v := range components {
		if v != "ok" && v != "disabled" {
			status = "degraded"
			break
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:     status,
		Components: components,
		Timestamp:  a.now(),
	})
}

func (a *HTTPAPI) checkDBHealth() string {
	if a.store == nil {
		return "unavailable"
	}
	if err := a.store.Ping(); err != nil {
		return "unavailable"
	}
	return "ok"
}

func (a *HTTPAPI) checkHubHealth() string {
	if a.hub == nil {
		return "disabled"
	}
	return "ok"
}

type sessionJSON struct {
	SessionID       string     `json:"session_id"`
	PlayerID        string     `json:"player_id"`
	DeviceInfo      string     `json:"device_info"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationSeconds *int64     `json:"duration_seconds"`
}

func toSessionJSON(s storage.Session) sessionJSON {
	return sessionJSON{
		SessionID:       s.SessionID,
		PlayerID:        s.PlayerID,
		DeviceInfo:      s.DeviceInfo,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationSeconds: s.DurationSeconds,
	}
}

func (a *HTTPAPI) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { a.metrics.RecordRequestDuration("sessions_start", time.Since(start).Seconds()) }()

	var req sessionStartRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		a.rejectValidation(w, "session", err)
		return
	}
	if err := req.Validate(); err != nil {
		a.rejectValidation(w, "session", err)
		return
	}

	// Clients that crash before generating an id may omit it.
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = uuid.NewString()
	}

	session, err := a.store.CreateSession(storage.Session{
		SessionID:  req.SessionID,
		PlayerID:   req.PlayerID,
		DeviceInfo: req.DeviceInfo,
		StartTime:  a.now(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateSession) {
			a.metrics.RecordIngest("session", "conflict")
			writeError(w, http.StatusConflict, "session already started", "CONFLICT")
			return
		}
		a.storageError(w, r, "create session failed", err)
		return
	}

	a.metrics.RecordIngest("session", "created")
	if a.hub != nil {
		a.hub.Publish("session_start", toSessionJSON(session))
	}
	shared.LogWithContext(r.Context(), a.logger, "session started",
		zap.String("session_id", session.SessionID),
		zap.String("player_id", session.PlayerID),
	)

	writeJSON(w, http.StatusCreated, apiResponse{Data: toSessionJSON(session)})
}

func (a *HTTPAPI) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { a.metrics.RecordRequestDuration("sessions_end", time.Since(start).Seconds()) }()

	var req sessionEndRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		a.rejectValidation(w, "session", err)
		return
	}
	if err := req.Validate(); err != nil {
		a.rejectValidation(w, "session", err)
		return
	}

	endTime := a.now()
	if req.EndTime != nil {
		endTime, _ = parseTimestamp(*req.EndTime)
	}

	existing, err := a.store.GetSession(req.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
			return
		}
		a.storageError(w, r, "load session failed", err)
		return
	}

	if endTime.Before(existing.StartTime) {
		a.rejectValidation(w, "session", invalidField("end_time", "must not be before start_time"))
		return
	}

	session, err := a.store.EndSession(req.SessionID, endTime)
	if err != nil {
		a.storageError(w, r, "end session failed", err)
		return
	}

	a.metrics.RecordIngest("session", "ended")
	if a.hub != nil {
		a.hub.Publish("session_end", toSessionJSON(session))
	}
	shared.LogWithContext(r.Context(), a.logger, "session ended",
		zap.String("session_id", session.SessionID),
		zap.Int64p("duration_seconds", session.DurationSeconds),
	)

	writeJSON(w, http.StatusOK, apiResponse{Data: toSessionJSON(session)})
}

type eventJSON struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	EventType string          `json:"event_type"`
	EventName string          `json:"event_name"`
	Timestamp time.Time       `json:"timestamp"`
	LevelID   *string         `json:"level_id"`
	PositionX *float64        `json:"position_x"`
	PositionY *float64        `json:"position_y"`
	PositionZ *float64        `json:"position_z"`
	Details   json.RawMessage `json:"details"`
}

func toEventJSON(e storage.Event) eventJSON {
	out := eventJSON{
		ID:        e.ID,
		SessionID: e.SessionID,
		EventType: e.EventType,
		EventName: e.EventName,
		Timestamp: e.Timestamp,
		LevelID:   e.LevelID,
		PositionX: e.PositionX,
		PositionY: e.PositionY,
		PositionZ: e.PositionZ,
	}
	if e.Details != nil {
		out.Details = json.RawMessage(*e.Details)
	}
	return out
}

func (a *HTTPAPI) eventFromRequest(req eventRequest) storage.Event {
	event := storage.Event{
		SessionID: req.SessionID,
		EventType: req.EventType,
		EventName: req.EventName,
		Timestamp: a.now(),
		LevelID:   req.LevelID,
		PositionX: req.PositionX,
		PositionY: req.PositionY,
		PositionZ: req.PositionZ,
	}
	if req.Timestamp != nil {
		event.Timestamp, _ = parseTimestamp(*req.Timestamp)
	}
	if req.Details != nil {
		if data, err := json.Marshal(req.Details); err == nil {
			details := string(data)
			event.Details = &details
		}
	}
	return event
}

func (a *HTTPAPI) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { a.metrics.RecordRequestDuration("events_create", time.Since(start).Seconds()) }()

	var req eventRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		a.rejectValidation(w, "event", err)
		return
	}
	if err := req.Validate(); err != nil {
		a.rejectValidation(w, "event", err)
		return
	}

	if a.dedup.contains(req.SessionID, req.EventID) {
		a.metrics.RecordDedupHit()
		writeJSON(w, http.StatusOK, apiResponse{Data: map[string]interface{}{
			"duplicate": true,
			"event_id":  req.EventID,
		}})
		return
	}

	event, err := a.store.InsertEvent(a.eventFromRequest(req))
	if err != nil {
		a.storageError(w, r, "insert event failed", err)
		return
	}
	a.dedup.record(req.SessionID, req.EventID)

	a.metrics.RecordIngest("event", "created")
	if a.hub != nil {
		a.hub.Publish("event", toEventJSON(event))
	}
	if a.notifier != nil {
		a.notifier.NotifyEvent(event)
	}

	writeJSON(w, http.StatusCreated, apiResponse{Data: toEventJSON(event)})
}

func (a *HTTPAPI) handleEventBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { a.metrics.RecordRequestDuration("events_batch", time.Since(start).Seconds()) }()

	var req eventBatchRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		a.rejectValidation(w, "event", err)
		return
	}
	if len(req.Events) == 0 {
		a.rejectValidation(w, "event", invalidField("events", "must be a non-empty array"))
		return
	}

	// Validate everything first so a bad element rejects the whole batch
	// before any row is written.
	for i := range req.Events {
		if err := req.Events[i].Validate(); err != nil {
			a.rejectValidation(w, "event", &ValidationError{
				Field:   "events[" + strconv.Itoa(i) + "]",
				Message: err.Error(),
			})
			return
		}
	}

	events := make([]storage.Event, 0, len(req.Events))
	fresh := make([]eventRequest, 0, len(req.Events))
	duplicates := 0
	for i := range req.Events {
		if a.dedup.contains(req.Events[i].SessionID, req.Events[i].EventID) {
			a.metrics.RecordDedupHit()
			duplicates++
			continue
		}
		fresh = append(fresh, req.Events[i])
		events = append(events, a.eventFromRequest(req.Events[i]))
	}

	if err := a.store.InsertEvents(events); err != nil {
		a.storageError(w, r, "insert event batch failed", err)
		return
	}
	// Record ids only now that the batch has committed; a failed insert must
	// leave retries eligible.
	for i := range fresh {
		a.dedup.record(fresh[i].SessionID, fresh[i].EventID)
	}

	for i := range events {
		a.metrics.RecordIngest("event", "created")
		if a.hub != nil {
			a.hub.Publish("event", toEventJSON(events[i]))
		}
		if a.notifier != nil {
			a.notifier.NotifyEvent(events[i])
		}
	}

	writeJSON(w, http.StatusCreated, apiResponse{
		Data: map[string]int{
			"inserted":   len(events),
			"duplicates": duplicates,
		},
	})
}

type metricJSON struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	MetricName  string    `json:"metric_name"`
	MetricValue float64   `json:"metric_value"`
	Timestamp   time.Time `json:"timestamp"`
	LevelID     *string   `json:"level_id"`
}

func toMetricJSON(m storage.Metric) metricJSON {
	return metricJSON{
		ID:          m.ID,
		SessionID:   m.SessionID,
		MetricName:  m.MetricName,
		MetricValue: m.MetricValue,
		Timestamp:   m.Timestamp,
		LevelID:     m.LevelID,
	}
}

func (a *HTTPAPI) metricFromRequest(req metricRequest) storage.Metric {
	metric := storage.Metric{
		SessionID:   req.SessionID,
		MetricName:  req.MetricName,
		MetricValue: *req.MetricValue,
		Timestamp:   a.now(),
		LevelID:     req.LevelID,
	}
	if req.Timestamp != nil {
		metric.Timestamp, _ = parseTimestamp(*req.Timestamp)
	}
	return metric
}

func (a *HTTPAPI) handleCreateMetric(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { a.metrics.RecordRequestDuration("metrics_create", time.Since(start).Seconds()) }()

	var req metricRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		a.rejectValidation(w, "metric", err)
		return
	}
	if err := req.Validate(); err != nil {
		a.rejectValidation(w, "metric", err)
		return
	}

	metric, err := a.store.InsertMetric(a.metricFromRequest(req))
	if err != nil {
		a.storageError(w, r, "insert metric failed", err)
		return
	}

	a.metrics.RecordIngest("metric", "created")
	if a.hub != nil {
		a.hub.Publish("metric", toMetricJSON(metric))
	}

	writeJSON(w, http.StatusCreated, apiResponse{Data: toMetricJSON(metric)})
}

func (a *HTTPAPI) handleMetricBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { a.metrics.RecordRequestDuration("metrics_batch", time.Since(start).Seconds()) }()

	var req metricBatchRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		a.rejectValidation(w, "metric", err)
		return
	}
	if len(req.Metrics) == 0 {
		a.rejectValidation(w, "metric", invalidField("metrics", "must be a non-empty array"))
		return
	}

	for i := range req.Metrics {
		if err := req.Metrics[i].Validate(); err != nil {
			a.rejectValidation(w, "metric", &ValidationError{
				Field:   "metrics[" + strconv.Itoa(i) + "]",
				Message: err.Error(),
			})
			return
		}
	}

	metrics := make([]storage.Metric, 0, len(req.Metrics))
	for i := range req.Metrics {
		metrics = append(metrics, a.metricFromRequest(req.Metrics[i]))
	}

	if err := a.store.InsertMetrics(metrics); err != nil {
		a.storageError(w, r, "insert metric batch failed", err)
		return
	}

	for i := range metrics {
		a.metrics.RecordIngest("metric", "created")
		if a.hub != nil {
			a.hub.Publish("metric", toMetricJSON(metrics[i]))
		}
	}

	writeJSON(w, http.StatusCreated, apiResponse{
		Data: map[string]int{"inserted": len(metrics)},
	})
}

func (a *HTTPAPI) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, err := a.store.GetSession(id)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
			return
		}
		a.storageError(w, r, "get session failed", err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Data: toSessionJSON(session)})
}

func (a *HTTPAPI) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.EventFilter{
		SessionID: q.Get("session_id"),
		EventType: q.Get("event_type"),
		LevelID:   q.Get("level_id"),
		Limit:     a.boundedLimit(q.Get("limit")),
	}
	if since := q.Get("since"); since != "" {
		if t, err := parseTimestamp(since); err == nil {
			filter.Since = t
		}
	}
	if until := q.Get("until"); until != "" {
		if t, err := parseTimestamp(until); err == nil {
			filter.Until = t
		}
	}

	events, err := a.store.ListEvents(filter)
	if err != nil {
		a.storageError(w, r, "list events failed", err)
		return
	}

	out := make([]eventJSON, len(events))
	for i, e := range events {
		out[i] = toEventJSON(e)
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Data: out,
		Meta: &apiMeta{Total: len(out), Limit: filter.Limit},
	})
}

func (a *HTTPAPI) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer", "VALIDATION_ERROR")
		return
	}

	event, err := a.store.GetEvent(id)
	if err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, "event not found", "NOT_FOUND")
			return
		}
		a.storageError(w, r, "get event failed", err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Data: toEventJSON(event)})
}

func (a *HTTPAPI) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.MetricFilter{
		SessionID:  q.Get("session_id"),
		MetricName: q.Get("metric_name"),
		LevelID:    q.Get("level_id"),
		Limit:      a.boundedLimit(q.Get("limit")),
	}
	if since := q.Get("since"); since != "" {
		if t, err := parseTimestamp(since); err == nil {
			filter.Since = t
		}
	}
	if until := q.Get("until"); until != "" {
		if t, err := parseTimestamp(until); err == nil {
			filter.Until = t
		}
	}

	metrics, err := a.store.ListMetrics(filter)
	if err != nil {
		a.storageError(w, r, "list metrics failed", err)
		return
	}

	out := make([]metricJSON, len(metrics))
	for i, m := range metrics {
		out[i] = toMetricJSON(m)
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Data: out,
		Meta: &apiMeta{Total: len(out), Limit: filter.Limit},
	})
}

func (a *HTTPAPI) handleGetMetric(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer", "VALIDATION_ERROR")
		return
	}

	metric, err := a.store.GetMetric(id)
	if err != nil {
		if errors.Is(err, storage.ErrMetricNotFound) {
			writeError(w, http.StatusNotFound, "metric not found", "NOT_FOUND")
			return
		}
		a.storageError(w, r, "get metric failed", err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Data: toMetricJSON(metric)})
}

func (a *HTTPAPI) rejectValidation(w http.ResponseWriter, entity string, err error) {
	a.metrics.RecordValidationFailure(entity)
	writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
}

func (a *HTTPAPI) storageError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	shared.LogErrorWithContext(r.Context(), a.logger, msg, err)
	writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
}

func (a *HTTPAPI) boundedLimit(raw string) int {
	limit := parseIntParam(raw, 100)
	if limit > a.dashboard.maxRows {
		limit = a.dashboard.maxRows
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiError{Error: message, Code: code})
}

func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	return v
}
