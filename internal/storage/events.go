package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// EventFilter narrows ListEvents results. Zero values are ignored.
type EventFilter struct {
	SessionID string
	EventType string
	LevelID   string
	Since     time.Time
	Until     time.Time
	Limit     int
}

// InsertEvent writes one event row and returns it with the server-assigned id.
func (s *Storage) InsertEvent(event Event) (Event, error) {
	result, err := s.db.Exec(`
		INSERT INTO events (session_id, event_type, event_name, timestamp, level_id, position_x, position_y, position_z, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.SessionID, event.EventType, event.EventName, formatTime(event.Timestamp),
		event.LevelID, event.PositionX, event.PositionY, event.PositionZ, event.Details)
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Event{}, fmt.Errorf("event insert id: %w", err)
	}
	event.ID = id
	return event, nil
}

// InsertEvents writes a batch of events in a single transaction. Either all
// rows land or none do.
func (s *Storage) InsertEvents(events []Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin event batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO events (session_id, event_type, event_name, timestamp, level_id, position_x, position_y, position_z, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare event batch: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		if _, err := stmt.Exec(event.SessionID, event.EventType, event.EventName,
			formatTime(event.Timestamp), event.LevelID,
			event.PositionX, event.PositionY, event.PositionZ, event.Details); err != nil {
			return fmt.Errorf("insert event in batch: %w", err)
		}
	}

	return tx.Commit()
}

// GetEvent fetches one event by its surrogate key.
func (s *Storage) GetEvent(id int64) (Event, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, event_type, event_name, timestamp, level_id, position_x, position_y, position_z, details
		FROM events WHERE id = ?
	`, id)
	if err != nil {
		return Event{}, fmt.Errorf("query event: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Event{}, fmt.Errorf("query event: %w", err)
		}
		return Event{}, ErrEventNotFound
	}
	return scanEvent(rows)
}

// ListEvents returns events matching the filter, newest first.
func (s *Storage) ListEvents(filter EventFilter) ([]Event, error) {
	query := `
		SELECT id, session_id, event_type, event_name, timestamp, level_id, position_x, position_y, position_z, details
		FROM events WHERE 1=1`
	args := make([]interface{}, 0, 6)

	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	if filter.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, filter.EventType)
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
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		event     Event
		timestamp string
		levelID   sql.NullString
		posX      sql.NullFloat64
		posY      sql.NullFloat64
		posZ      sql.NullFloat64
		details   sql.NullString
	)
	if err := rows.Scan(&event.ID, &event.SessionID, &event.EventType, &event.EventName,
		&timestamp, &levelID, &posX, &posY, &posZ, &details); err != nil {
		return Event{}, fmt.Errorf("scan event: %w", err)
	}

	event.Timestamp = parseTime(timestamp)
	if levelID.Valid {
		event.LevelID = &levelID.String
	}
	if posX.Valid {
		event.PositionX = &posX.Float64
	}
	if posY.Valid {
		event.PositionY = &posY.Float64
	}
	if posZ.Valid {
		event.PositionZ = &posZ.Float64
	}
	if details.Valid {
		event.Details = &details.String
	}
	return event, nil
}
