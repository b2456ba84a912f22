package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ValidationError carries a field-level message surfaced to callers as 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

type sessionStartRequest struct {
	SessionID  string `json:"session_id"`
	PlayerID   string `json:"player_id"`
	DeviceInfo string `json:"device_info"`
}

func (r *sessionStartRequest) Validate() error {
	if strings.TrimSpace(r.PlayerID) == "" {
		return invalidField("player_id", "is required")
	}
	return nil
}

type sessionEndRequest struct {
	SessionID string  `json:"session_id"`
	EndTime   *string `json:"end_time"`
}

func (r *sessionEndRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return invalidField("session_id", "is required")
	}
	if r.EndTime != nil {
		if _, err := parseTimestamp(*r.EndTime); err != nil {
			return invalidField("end_time", "must be an RFC3339 timestamp")
		}
	}
	return nil
}

type eventRequest struct {
	EventID   string                 `json:"event_id"`
	SessionID string                 `json:"session_id"`
	EventType string                 `json:"event_type"`
	EventName string                 `json:"event_name"`
	LevelID   *string                `json:"level_id"`
	PositionX *float64               `json:"position_x"`
	PositionY *float64               `json:"position_y"`
	PositionZ *float64               `json:"position_z"`
	Details   map[string]interface{} `json:"details"`
	Timestamp *string                `json:"timestamp"`
}

func (r *eventRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return invalidField("session_id", "is required")
	}
	if strings.TrimSpace(r.EventType) == "" {
		return invalidField("event_type", "is required")
	}
	if strings.TrimSpace(r.EventName) == "" {
		return invalidField("event_name", "is required")
	}
	if r.Timestamp != nil {
		if _, err := parseTimestamp(*r.Timestamp); err != nil {
			return invalidField("timestamp", "must be an RFC3339 timestamp")
		}
	}
	if r.Details != nil {
		if err := validateDetails("details", r.Details, 0); err != nil {
			return err
		}
	}
	return nil
}

type eventBatchRequest struct {
	Events []eventRequest `json:"events"`
}

type metricRequest struct {
	SessionID   string   `json:"session_id"`
	MetricName  string   `json:"metric_name"`
	MetricValue *float64 `json:"metric_value"`
	LevelID     *string  `json:"level_id"`
	Timestamp   *string  `json:"timestamp"`
}

func (r *metricRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return invalidField("session_id", "is required")
	}
	if strings.TrimSpace(r.MetricName) == "" {
		return invalidField("metric_name", "is required")
	}
	if r.MetricValue == nil {
		return invalidField("metric_value", "is required and must be a number")
	}
	if r.Timestamp != nil {
		if _, err := parseTimestamp(*r.Timestamp); err != nil {
			return invalidField("timestamp", "must be an RFC3339 timestamp")
		}
	}
	return nil
}

type metricBatchRequest struct {
	Metrics []metricRequest `json:"metrics"`
}

const maxDetailsDepth = 8

// validateDetails enforces the accepted value union for the details map:
// strings, numbers, booleans, and nested maps of the same. Arrays and nulls
// are rejected at the boundary rather than stored opaquely.
func validateDetails(path string, details map[string]interface{}, depth int) error {
	if depth >= maxDetailsDepth {
		return invalidField(path, "is nested too deeply")
	}
	for key, value := range details {
		fieldPath := path + "." + key
		switch v := value.(type) {
		case string, float64, bool:
		case map[string]interface{}:
			if err := validateDetails(fieldPath, v, depth+1); err != nil {
				return err
			}
		default:
			return invalidField(fieldPath, "must be a string, number, boolean, or nested object")
		}
	}
	return nil
}

// parseTimestamp accepts RFC3339 with or without sub-second precision.
// Client-supplied timestamps are trusted when parseable; anything else is a
// validation error rather than a silent fallback to server time.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// decodeJSON decodes a request body, translating JSON type mismatches into
// field-level validation errors ("position_x must be a number" rather than a
// raw decoder message).
func decodeJSON(body io.Reader, dst interface{}) error {
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return invalidField(typeErr.Field, fmt.Sprintf("must be of type %s", friendlyTypeName(typeErr.Type.String())))
		}
		return &ValidationError{Message: "invalid request body"}
	}
	return nil
}

func friendlyTypeName(goType string) string {
	switch goType {
	case "float64", "*float64":
		return "number"
	case "string", "*string":
		return "string"
	default:
		return strings.TrimPrefix(goType, "*")
	}
}
