package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// MetricFilter narrows ListMetrics results. Zero values are ignored.
type MetricFilter struct {
	SessionID  string
	MetricName string
	LevelID    string
	Since      time.Time
	Until      time.Time
	Limit      int
}

// InsertMetric writes one metric row and returns it with the server-assigned id.
func (s *Storage) InsertMetric(metric Metric) (Metric, error) {
	result, err := s.db.Exec(`
		INSERT INTO metrics (session_id, metric_name, metric_value, timestamp, level_id)
		VALUES (?, ?, ?, ?, ?)
	`, metric.SessionID, metric.MetricName, metric.MetricValue, formatTime(metric.Timestamp), metric.LevelID)
	if err != nil {
		return Metric{}, fmt.Errorf("insert metric: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Metric{}, fmt.Errorf("metric insert id: %w", err)
	}
	metric.ID = id
	return metric, nil
}

// InsertMetrics writes a batch of metrics in a single transaction.
func (s *Storage) InsertMetrics(metrics []Metric) error {
	if len(metrics) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin metric batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO metrics (session_id, metric_name, metric_value, timestamp, level_id)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare metric batch: %w", err)
	}
	defer stmt.Close()

	for _, metric := range metrics {
		if _, err := stmt.Exec(metric.SessionID, metric.MetricName, metric.MetricValue,
			formatTime(metric.Timestamp), metric.LevelID); err != nil {
			return fmt.Errorf("insert metric in batch: %w", err)
		}
	}

	return tx.Commit()
}

// GetMetric fetches one metric by its surrogate key.
func (s *Storage) GetMetric(id int64) (Metric, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, metric_name, metric_value, timestamp, level_id
		FROM metrics WHERE id = ?
	`, id)
	if err != nil {
		return Metric{}, fmt.Errorf("query metric: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Metric{}, fmt.Errorf("query metric: %w", err)
		}
		return Metric{}, ErrMetricNotFound
	}
	return scanMetric(rows)
}

// ListMetrics returns metrics matching the filter, newest first.
func (s *Storage) ListMetrics(filter MetricFilter) ([]Metric, error) {
	query := `
		SELECT id, session_id, metric_name, metric_value, timestamp, level_id
		FROM metrics WHERE 1=1`
	args := make([]interface{}, 0, 6)

	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	if filter.MetricName != "" {
		query += ` AND metric_name = ?`
		args = append(args, filter.MetricName)
	}
	if filter.LevelID != "" {
		query += ` AND level_id = ?`
		args = append(args, filter.LevelID)
	}
	if !filter.Since.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, formatTime(filter.Since))
	}
	if !filter.Until.IsZero() {
		query += ` AND timestamp <= ?`
		args = append(args, formatTime(filter.Until))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	metrics := make([]Metric, 0)
	for rows.Next() {
		metric, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, metric)
	}
	return metrics, rows.Err()
}

func scanMetric(rows *sql.Rows) (Metric, error) {
	var (
		metric    Metric
		timestamp string
		levelID   sql.NullString
	)
	if err := rows.Scan(&metric.ID, &metric.SessionID, &metric.MetricName,
		&metric.MetricValue, &timestamp, &levelID); err != nil {
		return Metric{}, fmt.Errorf("scan metric: %w", err)
	}

	metric.Timestamp = parseTime(timestamp)
	if levelID.Valid {
		metric.LevelID = &levelID.String
	}
	return metric, nil
}
