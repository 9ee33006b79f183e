package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/types"
)

type memoryWriter struct {
	written []models.Notification
	failFor map[uint]bool
}

func (w *memoryWriter) Create(ctx context.Context, n *models.Notification) error {
	if w.failFor[n.UserID] {
		return errors.New("connection reset")
	}
	w.written = append(w.written, *n)
	return nil
}

func TestNotifier_PartialFailure(t *testing.T) {
	writer := &memoryWriter{failFor: map[uint]bool{3: true, 5: true}}
	pusher := &recordingPusher{}
	n := NewNotifier(writer, pusher)

	incident := &models.Incident{Title: "Spill", Slug: "spill"}
	incident.ID = 9

	d := n.IncidentReported(context.Background(), incident, []uint{1, 2, 3, 4, 5})

	assert.Equal(t, []uint{1, 2, 4}, d.Succeeded)
	require.Len(t, d.Failed, 2)
	assert.Equal(t, uint(3), d.Failed[0].UserID)
	assert.Equal(t, uint(5), d.Failed[1].UserID)
	assert.Len(t, writer.written, 3)
	assert.Equal(t, []uint{1, 2, 4}, pusher.users)

	err := d.Err()
	var fanOut *FanOutError
	require.ErrorAs(t, err, &fanOut)
	assert.Equal(t, []uint{3, 5}, fanOut.FailedUserIDs())
	assert.Equal(t, "notify new_incident for incident 9: 2 of 5 recipients failed: [3 5]", err.Error())
}

func TestNotifier_AllSucceeded(t *testing.T) {
	n := NewNotifier(&memoryWriter{}, nil)
	incident := &models.Incident{Title: "Spill"}

	d := n.IncidentReported(context.Background(), incident, []uint{1})
	assert.NoError(t, d.Err())
	assert.Equal(t, types.NotificationNewIncident, d.Type)
}

func TestNotifier_StatusChanged(t *testing.T) {
	writer := &memoryWriter{}
	n := NewNotifier(writer, nil)
	ctx := context.Background()

	orphan := &models.Incident{Title: "Spill"}
	_, sent := n.StatusChanged(ctx, orphan, types.StatusNew, types.StatusResolved)
	assert.False(t, sent)

	reported := &models.Incident{Title: "Spill", ReporterID: ptr(4)}
	_, sent = n.StatusChanged(ctx, reported, types.StatusNew, types.StatusNew)
	assert.False(t, sent)

	d, sent := n.StatusChanged(ctx, reported, types.StatusNew, types.StatusInProgress)
	assert.True(t, sent)
	assert.Equal(t, []uint{4}, d.Succeeded)
	require.Len(t, writer.written, 1)
	assert.Equal(t, "Your incident 'Spill' status changed from New to In Progress", writer.written[0].Message)
}

func TestNotifier_Assigned(t *testing.T) {
	n := NewNotifier(&memoryWriter{}, nil)
	ctx := context.Background()
	incident := &models.Incident{Title: "Spill"}

	tests := []struct {
		name     string
		previous *uint
		current  *uint
		want     bool
	}{
		{"first assignment", nil, ptr(2), true},
		{"reassignment", ptr(1), ptr(2), true},
		{"same assignee", ptr(2), ptr(2), false},
		{"cleared", ptr(2), nil, false},
		{"still unassigned", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, sent := n.Assigned(ctx, incident, tt.previous, tt.current)
			assert.Equal(t, tt.want, sent)
		})
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "New incident reported: Spill", NewIncidentMessage("Spill"))
	assert.Equal(t, "You have been assigned to incident: Spill", AssignedMessage("Spill"))
	assert.Equal(t, "Your incident 'Spill' status changed from Resolved to Closed",
		StatusChangeMessage("Spill", types.StatusResolved, types.StatusClosed))

	long := StatusChangeMessage(strings.Repeat("é", 300), types.StatusNew, types.StatusClosed)
	assert.Equal(t, MaxMessageLength, len([]rune(long)))
}
