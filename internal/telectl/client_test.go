package telectl

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetSendsAuthHeader(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"status":"ok"}}`))
	}))
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "secret")
	resp, err := client.Get("/api/health")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
	if resp.Data == nil {
		t.Error("expected data in response")
	}
}

func TestGetNoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":null}`))
	}))
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	if _, err := client.Get("/api/health"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no auth header, got %q", gotAuth)
	}
}

func TestPostSendsJSONBody(t *testing.T) {
	var gotBody map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":1}}`))
	}))
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	_, err := client.Post("/api/events", map[string]string{"event_name": "hit"})
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if gotBody["event_name"] != "hit" {
		t.Errorf("unexpected body %v", gotBody)
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"session not found","code":"NOT_FOUND"}`))
	}))
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	_, err := client.Get("/api/sessions/missing")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "session not found") || !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("expected API error message and code, got %v", err)
	}
}

func TestStatusFallbackMessages(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{http.StatusUnauthorized, "unauthorized"},
		{http.StatusNotFound, "not found"},
		{http.StatusInternalServerError, "status 500"},
	}

	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte("plain text failure"))
		}))

		client := NewHTTPClient(ts.URL, "")
		_, err := client.Get("/api/health")
		ts.Close()

		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("status %d: expected error containing %q, got %v", tc.status, tc.want, err)
		}
	}
}

func TestDashboardTableOutput(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/dashboard" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"data":{
			"from":"2026-03-07T00:00:00Z","to":"2026-03-14T00:00:00Z",
			"events":[{"event_type":"combat","count":42}],
			"metrics":[{"metric_name":"fps","count":10,"average":58.5,"min":30,"max":90}],
			"sessions":{"total":5,"active":2,"completed":3,"avg_duration_seconds":120.5}
		}}`))
	}))
	defer ts.Close()

	var out bytes.Buffer
	client := NewHTTPClient(ts.URL, "")
	if err := Dashboard(client, &out, "", "", false); err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	rendered := out.String()
	for _, want := range []string{"combat", "42", "fps", "5 total", "2 active"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, rendered)
		}
	}
}

func TestDashboardJSONOutput(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"sessions":{"total":1}}}`))
	}))
	defer ts.Close()

	var out bytes.Buffer
	client := NewHTTPClient(ts.URL, "")
	if err := Dashboard(client, &out, "", "", true); err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("expected valid JSON output: %v", err)
	}
}

func TestDashboardWindowQuery(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":{"sessions":{}}}`))
	}))
	defer ts.Close()

	var out bytes.Buffer
	client := NewHTTPClient(ts.URL, "")
	if err := Dashboard(client, &out, "2026-03-01", "2026-03-14", true); err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if !strings.Contains(gotQuery, "from=2026-03-01") || !strings.Contains(gotQuery, "to=2026-03-14") {
		t.Errorf("expected window in query, got %q", gotQuery)
	}
}

func TestSessionTableOutput(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/sess-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"data":{
			"session_id":"sess-1","player_id":"player-7","device_info":"Quest 3",
			"start_time":"2026-03-14T10:00:00Z","end_time":null,"duration_seconds":null
		}}`))
	}))
	defer ts.Close()

	var out bytes.Buffer
	client := NewHTTPClient(ts.URL, "")
	if err := Session(client, &out, "sess-1", false); err != nil {
		t.Fatalf("Session failed: %v", err)
	}

	rendered := out.String()
	if !strings.Contains(rendered, "player-7") {
		t.Errorf("expected player in output, got:\n%s", rendered)
	}
	if !strings.Contains(rendered, "(active)") {
		t.Errorf("expected active marker for open session, got:\n%s", rendered)
	}
}

func TestEventsListOutput(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("event_type"); got != "combat" {
			t.Errorf("expected event_type filter, got %q", got)
		}
		w.Write([]byte(`{"data":[
			{"id":1,"session_id":"s1","event_type":"combat","event_name":"hit",
			 "timestamp":"2026-03-14T10:00:00Z","level_id":"level_2"}
		],"meta":{"total":1}}`))
	}))
	defer ts.Close()

	var out bytes.Buffer
	client := NewHTTPClient(ts.URL, "")
	if err := Events(client, &out, "", "combat", 10, false); err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	rendered := out.String()
	for _, want := range []string{"hit", "level_2", "s1"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, rendered)
		}
	}
}

func TestSendEvent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["event_name"] != "smoke_test" {
			t.Errorf("unexpected body %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":7,"event_name":"smoke_test"}}`))
	}))
	defer ts.Close()

	var out bytes.Buffer
	client := NewHTTPClient(ts.URL, "")
	if err := SendEvent(client, &out, "sess-1", "diagnostic", "smoke_test"); err != nil {
		t.Fatalf("SendEvent failed: %v", err)
	}
	if !strings.Contains(out.String(), "smoke_test") {
		t.Errorf("expected event echoed in output, got:\n%s", out.String())
	}
}
