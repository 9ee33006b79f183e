package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/monitoring"
	"github.com/safetytracker/safetytracker/internal/pkg/logger"
	"github.com/safetytracker/safetytracker/internal/types"
)

// MaxMessageLength is the stored size of a notification message, in characters.
const MaxMessageLength = 255

// NotificationWriter persists a single notification.
type NotificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Pusher tells connected clients of the given users to refresh.
type Pusher interface {
	Refresh(userIDs ...uint)
}

type noopPusher struct{}

func (noopPusher) Refresh(...uint) {}

// RecipientFailure records a recipient whose notification could not be written.
type RecipientFailure struct {
	UserID uint
	Err    error
}

// Delivery is the outcome of one fan-out. Every recipient is attempted
// regardless of earlier failures.
type Delivery struct {
	Type       types.NotificationType
	IncidentID uint
	Succeeded  []uint
	Failed     []RecipientFailure
	// RecipientsErr is set when the recipient list itself could not be loaded,
	// in which case nobody was notified.
	RecipientsErr error
}

// Err returns a *FanOutError when any recipient failed or the recipients
// could not be resolved.
func (d Delivery) Err() error {
	if len(d.Failed) == 0 && d.RecipientsErr == nil {
		return nil
	}
	return &FanOutError{
		Type:       d.Type,
		IncidentID: d.IncidentID,
		Failed:     d.Failed,
		Attempted:  len(d.Succeeded) + len(d.Failed),
		Cause:      d.RecipientsErr,
	}
}

// FanOutError lists the recipients a fan-out failed to notify.
type FanOutError struct {
	Type       types.NotificationType
	IncidentID uint
	Attempted  int
	Failed     []RecipientFailure
	Cause      error
}

func (e *FanOutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("notify %s for incident %d: resolve recipients: %v", e.Type, e.IncidentID, e.Cause)
	}
	ids := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		ids = append(ids, fmt.Sprintf("%d", f.UserID))
	}
	return fmt.Sprintf("notify %s for incident %d: %d of %d recipients failed: [%s]",
		e.Type, e.IncidentID, len(e.Failed), e.Attempted, strings.Join(ids, " "))
}

func (e *FanOutError) Unwrap() error {
	return e.Cause
}

// FailedUserIDs returns the ids of the recipients that were not notified.
func (e *FanOutError) FailedUserIDs() []uint {
	ids := make([]uint, 0, len(e.Failed))
	for _, f := range e.Failed {
		ids = append(ids, f.UserID)
	}
	return ids
}

func NewIncidentMessage(title string) string {
	return truncate("New incident reported: " + title)
}

func StatusChangeMessage(title string, from, to types.Status) string {
	return truncate(fmt.Sprintf("Your incident '%s' status changed from %s to %s", title, from.Label(), to.Label()))
}

func AssignedMessage(title string) string {
	return truncate("You have been assigned to incident: " + title)
}

func truncate(msg string) string {
	r := []rune(msg)
	if len(r) <= MaxMessageLength {
		return msg
	}
	return string(r[:MaxMessageLength])
}

// Notifier turns incident events into notification records.
type Notifier struct {
	writer NotificationWriter
	pusher Pusher
}

func NewNotifier(writer NotificationWriter, pusher Pusher) *Notifier {
	if pusher == nil {
		pusher = noopPusher{}
	}
	return &Notifier{writer: writer, pusher: pusher}
}

// Deliver writes one notification per recipient. A failed write is logged and
// recorded in the result; it does not undo the writes that succeeded.
func (n *Notifier) Deliver(ctx context.Context, typ types.NotificationType, incident *models.Incident, recipients []uint, message string) Delivery {
	d := Delivery{Type: typ, IncidentID: incident.ID}

	for _, userID := range recipients {
		notification := &models.Notification{
			UserID:     userID,
			IncidentID: incident.ID,
			Message:    message,
			Type:       typ,
		}
		if err := n.writer.Create(ctx, notification); err != nil {
			d.Failed = append(d.Failed, RecipientFailure{UserID: userID, Err: err})
			monitoring.NotificationFailedAmount.WithLabelValues(string(typ)).Inc()
			logger.Error("Failed to create notification",
				zap.String("type", string(typ)),
				zap.String("incident_slug", incident.Slug),
				zap.Uint("recipient_id", userID),
				zap.Error(err),
			)
			continue
		}
		d.Succeeded = append(d.Succeeded, userID)
		monitoring.NotificationCreatedAmount.WithLabelValues(string(typ)).Inc()
	}

	if len(d.Succeeded) > 0 {
		n.pusher.Refresh(d.Succeeded...)
	}

	if err := d.Err(); err != nil {
		logger.Warn("Notification fan-out incomplete",
			zap.String("incident_slug", incident.Slug),
			zap.Uints("succeeded", d.Succeeded),
			zap.Uints("failed", err.(*FanOutError).FailedUserIDs()),
		)
	}

	return d
}

// IncidentReported notifies every manager of a new incident.
func (n *Notifier) IncidentReported(ctx context.Context, incident *models.Incident, managerIDs []uint) Delivery {
	return n.Deliver(ctx, types.NotificationNewIncident, incident, managerIDs, NewIncidentMessage(incident.Title))
}

// StatusChanged notifies the reporter of a status change. It reports false when
// nothing was sent because the status is unchanged or there is no reporter.
func (n *Notifier) StatusChanged(ctx context.Context, incident *models.Incident, from, to types.Status) (Delivery, bool) {
	if from == to || incident.ReporterID == nil {
		return Delivery{}, false
	}
	msg := StatusChangeMessage(incident.Title, from, to)
	return n.Deliver(ctx, types.NotificationStatusChange, incident, []uint{*incident.ReporterID}, msg), true
}

// Assigned notifies a new assignee. Re-saving the same assignee sends nothing.
func (n *Notifier) Assigned(ctx context.Context, incident *models.Incident, previous, current *uint) (Delivery, bool) {
	if current == nil || (previous != nil && *previous == *current) {
		return Delivery{}, false
	}
	return n.Deliver(ctx, types.NotificationAssigned, incident, []uint{*current}, AssignedMessage(incident.Title)), true
}
