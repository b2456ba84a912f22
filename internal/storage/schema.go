package storage

import (
	"database/sql"
	"errors"
	"time"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrDuplicateSession = errors.New("session already exists")
	ErrEventNotFound    = errors.New("event not found")
	ErrMetricNotFound   = errors.New("metric not found")
)

// Session is one continuous play period bounded by start/end calls.
type Session struct {
	ID              int64
	SessionID       string
	PlayerID        string
	DeviceInfo      string
	StartTime       time.Time
	EndTime         *time.Time
	DurationSeconds *int64
}

// Event is a discrete named occurrence during a session.
type Event struct {
	ID        int64
	SessionID string
	EventType string
	EventName string
	Timestamp time.Time
	LevelID   *string
	PositionX *float64
	PositionY *float64
	PositionZ *float64
	Details   *string
}

// Metric is a named numeric measurement associated with a session.
type Metric struct {
	ID          int64
	SessionID   string
	MetricName  string
	MetricValue float64
	Timestamp   time.Time
	LevelID     *string
}

type Storage struct {
	db *sql.DB
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Ping() error {
	return s.db.Ping()
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// timeLayout is fixed width so that the text ordering SQLite applies to
// timestamp columns matches chronological order. RFC3339Nano would drop
// trailing zeros, making "10:00:00.5Z" sort before "10:00:00Z".
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
