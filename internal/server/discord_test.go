package server

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/playlytics/playlytics/internal/storage"
)

type mockDiscordSession struct {
	mu       sync.Mutex
	opened   bool
	closed   bool
	openErr  error
	sendErr  error
	messages []*discordgo.MessageEmbed
	channels []string
}

func (m *mockDiscordSession) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	m.opened = true
	return nil
}

func (m *mockDiscordSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockDiscordSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.channels = append(m.channels, channelID)
	m.messages = append(m.messages, embed)
	return &discordgo.Message{}, nil
}

func (m *mockDiscordSession) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func (m *mockDiscordSession) lastMessage() *discordgo.MessageEmbed {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return nil
	}
	return m.messages[len(m.messages)-1]
}

func TestAlertNotifierSendsForAlertType(t *testing.T) {
	mock := &mockDiscordSession{}
	notifier := newAlertNotifier(mock, "channel-1", []string{"Crash"}, nil)

	if err := notifier.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	level := "level_2"
	notifier.NotifyEvent(storage.Event{
		SessionID: "sess-1",
		EventType: "Crash",
		EventName: "null_reference",
		Timestamp: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		LevelID:   &level,
	})

	if err := notifier.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if mock.sentCount() != 1 {
		t.Fatalf("expected 1 alert sent, got %d", mock.sentCount())
	}

	embed := mock.lastMessage()
	if !strings.Contains(embed.Title, "Crash") {
		t.Errorf("expected alert title to name the event type, got %q", embed.Title)
	}
	if mock.channels[0] != "channel-1" {
		t.Errorf("expected channel-1, got %q", mock.channels[0])
	}

	foundLevel := false
	for _, f := range embed.Fields {
		if f.Name == "Level" && f.Value == "level_2" {
			foundLevel = true
		}
	}
	if !foundLevel {
		t.Error("expected a Level field on the embed")
	}
}

func TestAlertNotifierIgnoresOtherTypes(t *testing.T) {
	mock := &mockDiscordSession{}
	notifier := newAlertNotifier(mock, "channel-1", []string{"Crash"}, nil)

	if err := notifier.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	notifier.NotifyEvent(storage.Event{SessionID: "s", EventType: "combat", EventName: "hit"})

	if err := notifier.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if mock.sentCount() != 0 {
		t.Errorf("expected no alerts for non-alert types, got %d", mock.sentCount())
	}
}

func TestAlertNotifierTruncatesDetails(t *testing.T) {
	mock := &mockDiscordSession{}
	notifier := newAlertNotifier(mock, "channel-1", []string{"Crash"}, nil)

	if err := notifier.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	details := strings.Repeat("x", 2000)
	notifier.NotifyEvent(storage.Event{
		SessionID: "s", EventType: "Crash", EventName: "oom", Details: &details,
	})

	if err := notifier.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	embed := mock.lastMessage()
	if embed == nil {
		t.Fatal("expected an alert to be sent")
	}
	for _, f := range embed.Fields {
		if f.Name == "Details" && len(f.Value) > 1100 {
			t.Errorf("expected details truncated, got %d bytes", len(f.Value))
		}
	}
}

func TestAlertNotifierOpenFailure(t *testing.T) {
	mock := &mockDiscordSession{openErr: fmt.Errorf("gateway unreachable")}
	notifier := newAlertNotifier(mock, "channel-1", []string{"Crash"}, nil)

	if err := notifier.Start(); err == nil {
		t.Error("expected Start to surface the session open error")
	}

	// A failed start leaves the notifier stopped; Stop is a no-op.
	if err := notifier.Stop(); err != nil {
		t.Errorf("Stop after failed start returned %v", err)
	}
}

func TestAlertNotifierNotRunningDropsSilently(t *testing.T) {
	mock := &mockDiscordSession{}
	notifier := newAlertNotifier(mock, "channel-1", []string{"Crash"}, nil)

	// Never started.
	notifier.NotifyEvent(storage.Event{SessionID: "s", EventType: "Crash", EventName: "oom"})

	if mock.sentCount() != 0 {
		t.Errorf("expected no sends before Start, got %d", mock.sentCount())
	}
}

func TestNewAlertNotifierRequiresCredentials(t *testing.T) {
	if _, err := NewAlertNotifier("", "channel", []string{"Crash"}, nil); err == nil {
		t.Error("expected error for missing token")
	}
	if _, err := NewAlertNotifier("token", "", []string{"Crash"}, nil); err == nil {
		t.Error("expected error for missing channel id")
	}
}
