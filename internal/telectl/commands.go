package telectl

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"text/tabwriter"
	"time"
)

type dashboardView struct {
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Events []struct {
		EventType string `json:"event_type"`
		Count     int64  `json:"count"`
	} `json:"events"`
	Metrics []struct {
		MetricName string  `json:"metric_name"`
		Count      int64   `json:"count"`
		Average    float64 `json:"average"`
		Min        float64 `json:"min"`
		Max        float64 `json:"max"`
	} `json:"metrics"`
	Sessions struct {
		Total              int64   `json:"total"`
		Active             int64   `json:"active"`
		Completed          int64   `json:"completed"`
		AvgDurationSeconds float64 `json:"avg_duration_seconds"`
	} `json:"sessions"`
}

type eventView struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	EventType string    `json:"event_type"`
	EventName string    `json:"event_name"`
	Timestamp time.Time `json:"timestamp"`
	LevelID   *string   `json:"level_id"`
}

type sessionView struct {
	SessionID       string     `json:"session_id"`
	PlayerID        string     `json:"player_id"`
	DeviceInfo      string     `json:"device_info"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationSeconds *int64     `json:"duration_seconds"`
}

// Dashboard fetches and renders the aggregate dashboard.
func Dashboard(client *HTTPClient, out io.Writer, from, to string, asJSON bool) error {
	query := url.Values{}
	if from != "" {
		query.Set("from", from)
	}
	if to != "" {
		query.Set("to", to)
	}
	path := "/api/dashboard"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := client.Get(path)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(out, resp.Data)
	}

	var view dashboardView
	if err := json.Unmarshal(resp.Data, &view); err != nil {
		return fmt.Errorf("failed to decode dashboard: %w", err)
	}

	fmt.Fprintf(out, "Window: %s - %s\n\n", view.From.Format(time.RFC3339), view.To.Format(time.RFC3339))
	fmt.Fprintf(out, "Sessions: %d total, %d active, %d completed, avg duration %.1fs\n\n",
		view.Sessions.Total, view.Sessions.Active, view.Sessions.Completed, view.Sessions.AvgDurationSeconds)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EVENT TYPE\tCOUNT")
	for _, e := range view.Events {
		fmt.Fprintf(w, "%s\t%d\n", e.EventType, e.Count)
	}
	w.Flush()

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tCOUNT\tAVG\tMIN\tMAX")
	for _, m := range view.Metrics {
		fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%.3f\n", m.MetricName, m.Count, m.Average, m.Min, m.Max)
	}
	return w.Flush()
}

// Session fetches and renders one session by id.
func Session(client *HTTPClient, out io.Writer, sessionID string, asJSON bool) error {
	resp, err := client.Get("/api/sessions/" + url.PathEscape(sessionID))
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(out, resp.Data)
	}

	var view sessionView
	if err := json.Unmarshal(resp.Data, &view); err != nil {
		return fmt.Errorf("failed to decode session: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Session:\t%s\n", view.SessionID)
	fmt.Fprintf(w, "Player:\t%s\n", view.PlayerID)
	fmt.Fprintf(w, "Device:\t%s\n", view.DeviceInfo)
	fmt.Fprintf(w, "Started:\t%s\n", view.StartTime.Format(time.RFC3339))
	if view.EndTime != nil {
		fmt.Fprintf(w, "Ended:\t%s\n", view.EndTime.Format(time.RFC3339))
	} else {
		fmt.Fprintf(w, "Ended:\t(active)\n")
	}
	if view.DurationSeconds != nil {
		fmt.Fprintf(w, "Duration:\t%ds\n", *view.DurationSeconds)
	}
	return w.Flush()
}

// Events fetches and renders recent events with optional filters.
func Events(client *HTTPClient, out io.Writer, sessionID, eventType string, limit int, asJSON bool) error {
	query := url.Values{}
	if sessionID != "" {
		query.Set("session_id", sessionID)
	}
	if eventType != "" {
		query.Set("event_type", eventType)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	path := "/api/events"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := client.Get(path)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(out, resp.Data)
	}

	var views []eventView
	if err := json.Unmarshal(resp.Data, &views); err != nil {
		return fmt.Errorf("failed to decode events: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSESSION\tTYPE\tNAME\tLEVEL\tTIMESTAMP")
	for _, e := range views {
		level := "-"
		if e.LevelID != nil {
			level = *e.LevelID
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.SessionID, e.EventType, e.EventName, level, e.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}

// SendEvent posts a smoke-test event on an ad hoc session.
func SendEvent(client *HTTPClient, out io.Writer, sessionID, eventType, eventName string) error {
	resp, err := client.Post("/api/events", map[string]interface{}{
		"session_id": sessionID,
		"event_type": eventType,
		"event_name": eventName,
	})
	if err != nil {
		return err
	}
	return printJSON(out, resp.Data)
}

func printJSON(out io.Writer, data json.RawMessage) error {
	var pretty interface{}
	if err := json.Unmarshal(data, &pretty); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}
