package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// CreateSession inserts a new session row. The session_id uniqueness policy
// is enforced here: starting the same session twice returns
// ErrDuplicateSession.
func (s *Storage) CreateSession(session Session) (Session, error) {
	result, err := s.db.Exec(`
		INSERT INTO sessions (session_id, player_id, device_info, start_time)
		VALUES (?, ?, ?, ?)
	`, session.SessionID, session.PlayerID, session.DeviceInfo, formatTime(session.StartTime))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return Session{}, ErrDuplicateSession
		}
		return Session{}, fmt.Errorf("insert session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Session{}, fmt.Errorf("session insert id: %w", err)
	}
	session.ID = id
	return session, nil
}

// GetSession looks a session up by its client-generated session_id.
func (s *Storage) GetSession(sessionID string) (Session, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, player_id, device_info, start_time, end_time, duration_seconds
		FROM sessions WHERE session_id = ?
	`, sessionID)
	return scanSession(row)
}

// EndSession sets end_time and the derived duration on an open session.
// The caller is expected to have validated end_time >= start_time.
func (s *Storage) EndSession(sessionID string, endTime time.Time) (Session, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return Session{}, err
	}

	duration := int64(endTime.Sub(session.StartTime).Seconds())
	_, err = s.db.Exec(`
		UPDATE sessions SET end_time = ?, duration_seconds = ? WHERE session_id = ?
	`, formatTime(endTime), duration, sessionID)
	if err != nil {
		return Session{}, fmt.Errorf("update session end: %w", err)
	}

	end := endTime.UTC()
	session.EndTime = &end
	session.DurationSeconds = &duration
	return session, nil
}

func scanSession(row *sql.Row) (Session, error) {
	var (
		session    Session
		startTime  string
		endTime    sql.NullString
		duration   sql.NullInt64
		deviceInfo sql.NullString
	)
	err := row.Scan(&session.ID, &session.SessionID, &session.PlayerID, &deviceInfo,
		&startTime, &endTime, &duration)
	if err == sql.ErrNoRows {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("scan session: %w", err)
	}

	session.DeviceInfo = deviceInfo.String
	session.StartTime = parseTime(startTime)
	if endTime.Valid {
		t := parseTime(endTime.String)
		session.EndTime = &t
	}
	if duration.Valid {
		d := duration.Int64
		session.DurationSeconds = &d
	}
	return session, nil
}
