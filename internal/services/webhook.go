package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/monitoring"
	"github.com/safetytracker/safetytracker/internal/pkg/logger"
	"github.com/safetytracker/safetytracker/internal/pkg/worker"
	"github.com/safetytracker/safetytracker/internal/types"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorRed    = 16711680 // #FF0000 - Incident reported
	ColorGreen  = 65280    // #00FF00 - Incident resolved or closed
	ColorOrange = 16753920 // #FFA500 - Other status change

	WebhookUsername = "Safety Tracker"
)

// IncidentEvents receives incident lifecycle events for external channels.
type IncidentEvents interface {
	IncidentReported(incident models.Incident)
	StatusChanged(incident models.Incident, from, to types.Status)
}

type noopEvents struct{}

func (noopEvents) IncidentReported(models.Incident) {}
func (noopEvents) StatusChanged(models.Incident, types.Status, types.Status) {}

// WebhookNotifier posts incident events to Discord and Slack on the worker
// pool. Delivery failures are logged and never reach the caller.
type WebhookNotifier struct {
	discordURL string
	slackURL   string
	client     *http.Client
	pool       *worker.Pool
}

func NewWebhookNotifier(discordURL, slackURL string, timeout time.Duration, pool *worker.Pool) *WebhookNotifier {
	return &WebhookNotifier{
		discordURL: discordURL,
		slackURL:   slackURL,
		client:     &http.Client{Timeout: timeout},
		pool:       pool,
	}
}

// Enabled reports whether any channel is configured.
func (w *WebhookNotifier) Enabled() bool {
	return w.discordURL != "" || w.slackURL != ""
}

func (w *WebhookNotifier) IncidentReported(incident models.Incident) {
	if w.discordURL != "" {
		w.dispatch("discord", incident.Slug, func(ctx context.Context) error {
			return w.sendDiscord(ctx, discordIncidentReported(incident))
		})
	}
	if w.slackURL != "" {
		w.dispatch("slack", incident.Slug, func(ctx context.Context) error {
			return w.sendSlack(ctx, slackIncidentReported(incident))
		})
	}
}

func (w *WebhookNotifier) StatusChanged(incident models.Incident, from, to types.Status) {
	if from == to {
		return
	}
	if w.discordURL != "" {
		w.dispatch("discord", incident.Slug, func(ctx context.Context) error {
			return w.sendDiscord(ctx, discordStatusChanged(incident, from, to))
		})
	}
	if w.slackURL != "" {
		w.dispatch("slack", incident.Slug, func(ctx context.Context) error {
			return w.sendSlack(ctx, slackStatusChanged(incident, from, to))
		})
	}
}

func (w *WebhookNotifier) dispatch(channel, slug string, send func(ctx context.Context) error) {
	err := w.pool.Submit(func(ctx context.Context) {
		if err := send(ctx); err != nil {
			monitoring.WebhookDeliveryFailedAmount.WithLabelValues(channel).Inc()
			logger.Warn("Webhook delivery failed",
				zap.String("channel", channel),
				zap.String("incident_slug", slug),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		logger.Warn("Webhook delivery not queued",
			zap.String("channel", channel),
			zap.String("incident_slug", slug),
			zap.Error(err),
		)
	}
}

func reporterName(incident models.Incident) string {
	if incident.Reporter != nil {
		return incident.Reporter.Username
	}
	return "Unknown"
}

func assigneeName(incident models.Incident) string {
	if incident.AssignedTo != nil {
		return incident.AssignedTo.Username
	}
	return "Unassigned"
}

func statusColor(s types.Status) int {
	switch s {
	case types.StatusResolved, types.StatusClosed:
		return ColorGreen
	default:
		return ColorOrange
	}
}

func discordIncidentReported(incident models.Incident) DiscordWebhookRequest {
	return DiscordWebhookRequest{
		Username: WebhookUsername,
		Embeds: []DiscordEmbed{
			{
				Title:       "🚨 **INCIDENT REPORTED**",
				Description: fmt.Sprintf("**%s** was reported and needs triage.", incident.Title),
				Color:       ColorRed,
				Fields: []DiscordWebhookField{
					{Name: "📝 Title", Value: incident.Title, Inline: false},
					{Name: "⚠️ Status", Value: "**" + incident.Status.Label() + "**", Inline: true},
					{Name: "👤 Reporter", Value: reporterName(incident), Inline: true},
					{Name: "🔗 Slug", Value: incident.Slug, Inline: true},
				},
				Footer:    &DiscordFooter{Text: "Safety Tracker"},
				Timestamp: incident.CreatedAt.Format(time.RFC3339),
			},
		},
	}
}

func discordStatusChanged(incident models.Incident, from, to types.Status) DiscordWebhookRequest {
	return DiscordWebhookRequest{
		Username: WebhookUsername,
		Embeds: []DiscordEmbed{
			{
				Title:       "🔄 **INCIDENT STATUS CHANGED**",
				Description: fmt.Sprintf("**%s** moved from %s to %s.", incident.Title, from.Label(), to.Label()),
				Color:       statusColor(to),
				Fields: []DiscordWebhookField{
					{Name: "⏮️ From", Value: from.Label(), Inline: true},
					{Name: "⏭️ To", Value: "**" + to.Label() + "**", Inline: true},
					{Name: "🧑‍🔧 Assigned To", Value: assigneeName(incident), Inline: true},
					{Name: "🔗 Slug", Value: incident.Slug, Inline: true},
				},
				Footer:    &DiscordFooter{Text: "Safety Tracker"},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}
}

func slackIncidentReported(incident models.Incident) SlackWebhookRequest {
	return SlackWebhookRequest{
		Username:  WebhookUsername,
		IconEmoji: ":rotating_light:",
		Text:      ":rotating_light: *INCIDENT REPORTED*",
		Attachments: []SlackAttachment{
			{
				Color: "danger",
				Title: incident.Title,
				Text:  incident.Body,
				Fields: []SlackField{
					{Title: "Status", Value: incident.Status.Label(), Short: true},
					{Title: "Reporter", Value: reporterName(incident), Short: true},
					{Title: "Slug", Value: incident.Slug, Short: false},
				},
				Footer:    "Safety Tracker",
				Timestamp: incident.CreatedAt.Unix(),
			},
		},
	}
}

func slackStatusChanged(incident models.Incident, from, to types.Status) SlackWebhookRequest {
	color := "warning"
	if statusColor(to) == ColorGreen {
		color = "good"
	}
	return SlackWebhookRequest{
		Username:  WebhookUsername,
		IconEmoji: ":arrows_counterclockwise:",
		Text:      ":arrows_counterclockwise: *INCIDENT STATUS CHANGED*",
		Attachments: []SlackAttachment{
			{
				Color: color,
				Title: incident.Title,
				Text:  fmt.Sprintf("Status changed from %s to %s", from.Label(), to.Label()),
				Fields: []SlackField{
					{Title: "From", Value: from.Label(), Short: true},
					{Title: "To", Value: to.Label(), Short: true},
					{Title: "Assigned To", Value: assigneeName(incident), Short: true},
					{Title: "Slug", Value: incident.Slug, Short: true},
				},
				Footer:    "Safety Tracker",
				Timestamp: time.Now().Unix(),
			},
		},
	}
}

func (w *WebhookNotifier) sendDiscord(ctx context.Context, payload DiscordWebhookRequest) error {
	return w.post(ctx, "Discord", w.discordURL, payload)
}

func (w *WebhookNotifier) sendSlack(ctx context.Context, payload SlackWebhookRequest) error {
	return w.post(ctx, "Slack", w.slackURL, payload)
}

func (w *WebhookNotifier) post(ctx context.Context, name, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s webhook: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s webhook returned status %d", name, resp.StatusCode)
	}

	return nil
}
