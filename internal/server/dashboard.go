package server

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/playlytics/playlytics/internal/storage"
)

type dashboardResponse struct {
	From     time.Time                `json:"from"`
	To       time.Time                `json:"to"`
	Events   []storage.EventTypeCount `json:"events"`
	Metrics  []storage.MetricStat     `json:"metrics"`
	Sessions storage.SessionSummary   `json:"sessions"`
}

func (a *HTTPAPI) handleDashboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { a.metrics.RecordRequestDuration("dashboard", time.Since(start).Seconds()) }()

	q := r.URL.Query()

	to := a.now()
	if raw := q.Get("to"); raw != "" {
		t, err := parseWindowBound(raw)
		if err != nil {
			a.rejectValidation(w, "dashboard", invalidField("to", "must be an RFC3339 timestamp or YYYY-MM-DD date"))
			return
		}
		to = t
	}

	from := to.AddDate(0, 0, -a.dashboard.defaultWindowDays)
	if raw := q.Get("from"); raw != "" {
		t, err := parseWindowBound(raw)
		if err != nil {
			a.rejectValidation(w, "dashboard", invalidField("from", "must be an RFC3339 timestamp or YYYY-MM-DD date"))
			return
		}
		from = t
	}
	if from.After(to) {
		a.rejectValidation(w, "dashboard", invalidField("from", "must not be after to"))
		return
	}

	filter := storage.AggregateFilter{
		From:      from,
		To:        to,
		EventType: q.Get("event_type"),
		LevelID:   q.Get("level_id"),
	}

	events, err := a.store.EventCounts(filter)
	if err != nil {
		a.storageError(w, r, "event aggregation failed", err)
		return
	}
	metrics, err := a.store.MetricStats(filter)
	if err != nil {
		a.storageError(w, r, "metric aggregation failed", err)
		return
	}
	sessions, err := a.store.Sessions(filter)
	if err != nil {
		a.storageError(w, r, "session aggregation failed", err)
		return
	}

	resp := dashboardResponse{
		From:     from,
		To:       to,
		Events:   events,
		Metrics:  metrics,
		Sessions: sessions,
	}

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := dashboardTemplate.Execute(w, resp); err != nil {
			a.logger.Error("dashboard render failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Data: resp})
}

func wantsHTML(r *http.Request) bool {
	if r.URL.Query().Get("format") == "html" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

// parseWindowBound accepts RFC3339 timestamps or bare dates.
func parseWindowBound(raw string) (time.Time, error) {
	if t, err := parseTimestamp(raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Telemetry Dashboard</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: left; }
th { background: #f0f0f0; }
h2 { margin-top: 1.5em; }
.window { color: #666; }
</style>
</head>
<body>
<h1>Telemetry Dashboard</h1>
<p class="window">{{.From.Format "2006-01-02 15:04"}} &ndash; {{.To.Format "2006-01-02 15:04"}} UTC</p>

<h2>Sessions</h2>
<table>
<tr><th>Total</th><th>Active</th><th>Completed</th><th>Avg duration (s)</th></tr>
<tr><td>{{.Sessions.Total}}</td><td>{{.Sessions.Active}}</td><td>{{.Sessions.Completed}}</td><td>{{printf "%.1f" .Sessions.AvgDurationSeconds}}</td></tr>
</table>

<h2>Events by type</h2>
<table>
<tr><th>Event type</th><th>Count</th></tr>
{{range .Events}}<tr><td>{{.EventType}}</td><td>{{.Count}}</td></tr>
{{else}}<tr><td colspan="2">no events in window</td></tr>
{{end}}</table>

<h2>Metrics</h2>
<table>
<tr><th>Metric</th><th>Count</th><th>Average</th><th>Min</th><th>Max</th></tr>
{{range .Metrics}}<tr><td>{{.MetricName}}</td><td>{{.Count}}</td><td>{{printf "%.3f" .Average}}</td><td>{{printf "%.3f" .Min}}</td><td>{{printf "%.3f" .Max}}</td></tr>
{{else}}<tr><td colspan="5">no metrics in window</td></tr>
{{end}}</table>
</body>
</html>
`))
