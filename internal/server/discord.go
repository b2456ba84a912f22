package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/playlytics/playlytics/internal/storage"
)

const (
	colorAlert = 0xCC3333

	alertQueueSize = 64
)

// DiscordSession abstracts the discordgo.Session methods used by
// AlertNotifier, enabling mock-based testing without real Discord API calls.
type DiscordSession interface {
	Open() error
	Close() error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type realDiscordSession struct {
	s *discordgo.Session
}

func (r *realDiscordSession) Open() error {
	return r.s.Open()
}

func (r *realDiscordSession) Close() error {
	return r.s.Close()
}

func (r *realDiscordSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendEmbed(channelID, embed, options...)
}

// AlertNotifier posts an embed to a Discord channel whenever an event of a
// configured alert type (e.g. "Crash") is ingested. Dispatch is asynchronous
// and lossy: a full queue drops the alert rather than stalling ingestion.
type AlertNotifier struct {
	session    DiscordSession
	channelID  string
	eventTypes map[string]struct{}
	logger     *zap.Logger
	metrics    *Metrics

	queue chan storage.Event
	done  chan struct{}

	mu      sync.Mutex
	running bool
}

// NewAlertNotifier creates an AlertNotifier with a real discordgo session.
func NewAlertNotifier(token, channelID string, eventTypes []string, logger *zap.Logger) (*AlertNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token is required")
	}
	if channelID == "" {
		return nil, fmt.Errorf("discord channel id is required")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	return newAlertNotifier(&realDiscordSession{s: session}, channelID, eventTypes, logger), nil
}

func newAlertNotifier(session DiscordSession, channelID string, eventTypes []string, logger *zap.Logger) *AlertNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	types := make(map[string]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			types[trimmed] = struct{}{}
		}
	}
	return &AlertNotifier{
		session:    session,
		channelID:  channelID,
		eventTypes: types,
		logger:     logger,
		metrics:    GetMetrics(),
		queue:      make(chan storage.Event, alertQueueSize),
		done:       make(chan struct{}),
	}
}

// Start opens the Discord session and begins draining the alert queue.
func (n *AlertNotifier) Start() error {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return fmt.Errorf("alert notifier is already running")
	}
	n.running = true
	n.mu.Unlock()

	if err := n.session.Open(); err != nil {
		n.mu.Lock()
		n.running = false
		n.mu.Unlock()
		return fmt.Errorf("open discord session: %w", err)
	}

	go n.drain()
	return nil
}

// Stop closes the queue and the Discord session.
func (n *AlertNotifier) Stop() error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	n.running = false
	n.mu.Unlock()

	close(n.queue)
	<-n.done
	return n.session.Close()
}

// NotifyEvent queues an alert if the event type is on the alert list.
func (n *AlertNotifier) NotifyEvent(event storage.Event) {
	if _, alerting := n.eventTypes[event.EventType]; !alerting {
		return
	}

	n.mu.Lock()
	running := n.running
	n.mu.Unlock()
	if !running {
		return
	}

	select {
	case n.queue <- event:
	default:
		n.metrics.RecordAlert("dropped")
		n.logger.Warn("alert queue full, dropping alert",
			zap.String("event_type", event.EventType),
			zap.String("session_id", event.SessionID),
		)
	}
}

func (n *AlertNotifier) drain() {
	defer close(n.done)
	for event := range n.queue {
		if err := n.send(event); err != nil {
			n.metrics.RecordAlert("failure")
			n.logger.Warn("failed to send alert",
				zap.String("event_type", event.EventType),
				zap.Error(err),
			)
			continue
		}
		n.metrics.RecordAlert("success")
	}
}

func (n *AlertNotifier) send(event storage.Event) error {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Session", Value: event.SessionID, Inline: true},
		{Name: "Event", Value: event.EventName, Inline: true},
	}
	if event.LevelID != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Level", Value: *event.LevelID, Inline: true,
		})
	}
	if event.Details != nil {
		details := *event.Details
		if len(details) > 1000 {
			details = details[:1000] + "..."
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Details", Value: "```json\n" + details + "\n```",
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Telemetry alert: %s", event.EventType),
		Color:     colorAlert,
		Fields:    fields,
		Timestamp: event.Timestamp.Format(time.RFC3339),
	}

	_, err := n.session.ChannelMessageSendEmbed(n.channelID, embed)
	return err
}
