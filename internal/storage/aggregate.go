package storage

import (
	"fmt"
	"time"
)

// AggregateFilter bounds dashboard aggregation queries.
type AggregateFilter struct {
	From      time.Time
	To        time.Time
	EventType string
	LevelID   string
}

// EventTypeCount is the per-type event total within the filtered window.
type EventTypeCount struct {
	EventType string `json:"event_type"`
	Count     int64  `json:"count"`
}

// MetricStat holds basic statistics for one metric name.
type MetricStat struct {
	MetricName string  `json:"metric_name"`
	Count      int64   `json:"count"`
	Average    float64 `json:"average"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

// SessionSummary aggregates session counts and mean duration.
type SessionSummary struct {
	Total              int64   `json:"total"`
	Active             int64   `json:"active"`
	Completed          int64   `json:"completed"`
	AvgDurationSeconds float64 `json:"avg_duration_seconds"`
}

func (f AggregateFilter) windowClause(column string) (string, []interface{}) {
	clause := ""
	args := make([]interface{}, 0, 2)
	if !f.From.IsZero() {
		clause += fmt.Sprintf(" AND %s >= ?", column)
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		clause += fmt.Sprintf(" AND %s <= ?", column)
		args = append(args, formatTime(f.To))
	}
	return clause, args
}

// EventCounts returns per-type event totals within the filtered window.
func (s *Storage) EventCounts(filter AggregateFilter) ([]EventTypeCount, error) {
	query := `
		SELECT event_type, COUNT(*)
		FROM events
		WHERE 1=1`
	window, args := filter.windowClause("timestamp")
	query += window

	if filter.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, filter.EventType)
	}
	if filter.LevelID != "" {
		query += ` AND level_id = ?`
		args = append(args, filter.LevelID)
	}
	query += `
		GROUP BY event_type
		ORDER BY event_type ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query event counts: %w", err)
	}
	defer rows.Close()

	result := make([]EventTypeCount, 0)
	for rows.Next() {
		var row EventTypeCount
		if err := rows.Scan(&row.EventType, &row.Count); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// MetricStats returns count/average/min/max per metric name within the window.
func (s *Storage) MetricStats(filter AggregateFilter) ([]MetricStat, error) {
	query := `
		SELECT metric_name, COUNT(*), AVG(metric_value), MIN(metric_value), MAX(metric_value)
		FROM metrics
		WHERE 1=1`
	window, args := filter.windowClause("timestamp")
	query += window

	if filter.LevelID != "" {
		query += ` AND level_id = ?`
		args = append(args, filter.LevelID)
	}
	query += `
		GROUP BY metric_name
		ORDER BY metric_name ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metric stats: %w", err)
	}
	defer rows.Close()

	result := make([]MetricStat, 0)
	for rows.Next() {
		var row MetricStat
		if err := rows.Scan(&row.MetricName, &row.Count, &row.Average, &row.Min, &row.Max); err != nil {
			return nil, fmt.Errorf("scan metric stat: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Sessions returns session counts and average completed-session duration for
// sessions started within the window.
func (s *Storage) Sessions(filter AggregateFilter) (SessionSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN end_time IS NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN end_time IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(duration_seconds), 0)
		FROM sessions
		WHERE 1=1`
	window, args := filter.windowClause("start_time")
	query += window

	var summary SessionSummary
	err := s.db.QueryRow(query, args...).Scan(
		&summary.Total, &summary.Active, &summary.Completed, &summary.AvgDurationSeconds)
	if err != nil {
		return SessionSummary{}, fmt.Errorf("query session summary: %w", err)
	}
	return summary, nil
}
