package server

import (
	"strings"
	"testing"
	"time"
)

func TestEventRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     eventRequest
		wantErr string
	}{
		{
			name:    "valid",
			req:     eventRequest{SessionID: "s1", EventType: "combat", EventName: "hit"},
			wantErr: "",
		},
		{
			name:    "missing session id",
			req:     eventRequest{EventType: "combat", EventName: "hit"},
			wantErr: "session_id",
		},
		{
			name:    "missing event type",
			req:     eventRequest{SessionID: "s1", EventName: "hit"},
			wantErr: "event_type",
		},
		{
			name:    "missing event name",
			req:     eventRequest{SessionID: "s1", EventType: "combat"},
			wantErr: "event_name",
		},
		{
			name:    "whitespace name",
			req:     eventRequest{SessionID: "s1", EventType: "combat", EventName: "   "},
			wantErr: "event_name",
		},
		{
			name: "bad timestamp",
			req: eventRequest{SessionID: "s1", EventType: "combat", EventName: "hit",
				Timestamp: strPtr("noon")},
			wantErr: "timestamp",
		},
		{
			name: "good timestamp",
			req: eventRequest{SessionID: "s1", EventType: "combat", EventName: "hit",
				Timestamp: strPtr("2026-03-14T12:00:00Z")},
			wantErr: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestMetricRequestValidate(t *testing.T) {
	value := 58.7

	valid := metricRequest{SessionID: "s1", MetricName: "fps", MetricValue: &value}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid, got %v", err)
	}

	noValue := metricRequest{SessionID: "s1", MetricName: "fps"}
	if err := noValue.Validate(); err == nil || !strings.Contains(err.Error(), "metric_value") {
		t.Errorf("expected metric_value error, got %v", err)
	}

	noName := metricRequest{SessionID: "s1", MetricValue: &value}
	if err := noName.Validate(); err == nil || !strings.Contains(err.Error(), "metric_name") {
		t.Errorf("expected metric_name error, got %v", err)
	}
}

func TestValidateDetails(t *testing.T) {
	cases := []struct {
		name    string
		details map[string]interface{}
		valid   bool
	}{
		{
			name:    "flat scalars",
			details: map[string]interface{}{"weapon": "rifle", "combo": 4.0, "crit": true},
			valid:   true,
		},
		{
			name: "nested object",
			details: map[string]interface{}{
				"loadout": map[string]interface{}{"primary": "rifle", "ammo": 120.0},
			},
			valid: true,
		},
		{
			name:    "array rejected",
			details: map[string]interface{}{"targets": []interface{}{"a", "b"}},
			valid:   false,
		},
		{
			name:    "null rejected",
			details: map[string]interface{}{"weapon": nil},
			valid:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateDetails("details", tc.details, 0)
			if tc.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tc.valid && err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidateDetailsDepthLimit(t *testing.T) {
	details := map[string]interface{}{"leaf": "v"}
	for i := 0; i < maxDetailsDepth+1; i++ {
		details = map[string]interface{}{"nested": details}
	}

	if err := validateDetails("details", details, 0); err == nil {
		t.Error("expected depth limit error, got nil")
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := parseTimestamp("2026-03-14T12:00:00.123456Z")
	if err != nil {
		t.Fatalf("sub-second timestamp rejected: %v", err)
	}
	if got.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", got.Location())
	}

	got, err = parseTimestamp("2026-03-14T14:00:00+02:00")
	if err != nil {
		t.Fatalf("offset timestamp rejected: %v", err)
	}
	want := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if _, err := parseTimestamp("14/03/2026"); err == nil {
		t.Error("expected error for non-RFC3339 input")
	}
}

func TestDecodeJSONTypeMismatch(t *testing.T) {
	var req metricRequest
	err := decodeJSON(strings.NewReader(`{"session_id":"s1","metric_name":"fps","metric_value":"58.7"}`), &req)
	if err == nil {
		t.Fatal("expected type error, got nil")
	}
	if !strings.Contains(err.Error(), "metric_value") || !strings.Contains(err.Error(), "number") {
		t.Errorf("expected friendly field error, got %v", err)
	}
}

func strPtr(s string) *string { return &s }
