package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/safetytracker/safetytracker/internal/accesscontrol"
	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/monitoring"
	apperrors "github.com/safetytracker/safetytracker/internal/pkg/errors"
	"github.com/safetytracker/safetytracker/internal/pkg/logger"
	"github.com/safetytracker/safetytracker/internal/repositories"
	"github.com/safetytracker/safetytracker/internal/types"
	"github.com/safetytracker/safetytracker/internal/utils"
)

type ReportInput struct {
	Title  string `json:"title" form:"title" validate:"required,max=75"`
	Body   string `json:"body" form:"body" validate:"required"`
	Banner string `json:"banner" form:"banner" validate:"max=255"`
}

// UpdateInput changes status and/or assignment. An empty Status keeps the
// current one; AssignedToID is only applied when AssignedToSet is true, and a
// nil AssignedToID then clears the assignment.
type UpdateInput struct {
	Status        types.Status
	AssignedToSet bool
	AssignedToID  *uint
}

// UpdateResult carries the persisted incident and the notifications it produced.
type UpdateResult struct {
	Incident   *models.Incident
	OldStatus  types.Status
	Deliveries []Delivery
}

type DashboardStats struct {
	Total           int64
	ByStatus        map[types.Status]int64
	Unassigned      int64
	AssignedToMe    int64
	RecentIncidents []models.Incident
	RecentActivity  []models.IncidentActivity
}

type IncidentServiceConfig struct {
	DefaultBanner        string
	DashboardRecentLimit int
}

type IncidentService struct {
	db         *gorm.DB
	incidents  *repositories.IncidentRepository
	users      *repositories.UserRepository
	activities *repositories.ActivityRepository
	notifier   *Notifier
	events     IncidentEvents
	gate       *accesscontrol.Gate
	cfg        IncidentServiceConfig
}

func NewIncidentService(
	db *gorm.DB,
	incidents *repositories.IncidentRepository,
	users *repositories.UserRepository,
	activities *repositories.ActivityRepository,
	notifier *Notifier,
	events IncidentEvents,
	gate *accesscontrol.Gate,
	cfg IncidentServiceConfig,
) *IncidentService {
	if events == nil {
		events = noopEvents{}
	}
	if cfg.DefaultBanner == "" {
		cfg.DefaultBanner = "fallback.jpg"
	}
	if cfg.DashboardRecentLimit <= 0 {
		cfg.DashboardRecentLimit = 10
	}
	return &IncidentService{
		db:         db,
		incidents:  incidents,
		users:      users,
		activities: activities,
		notifier:   notifier,
		events:     events,
		gate:       gate,
		cfg:        cfg,
	}
}

// Report creates an incident with status new and a unique slug, then notifies
// every manager. A partial notification failure is reported in the returned
// Delivery and does not fail the report.
func (s *IncidentService) Report(ctx context.Context, reporter *models.User, in ReportInput) (*models.Incident, Delivery, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	in.Banner = strings.TrimSpace(in.Banner)

	if err := validateStruct(in); err != nil {
		return nil, Delivery{}, err
	}
	if in.Banner == "" {
		in.Banner = s.cfg.DefaultBanner
	}

	incident := &models.Incident{
		Title:  in.Title,
		Body:   in.Body,
		Banner: in.Banner,
		Status: types.StatusNew,
	}
	if reporter != nil {
		incident.ReporterID = &reporter.ID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.incidents.WithTx(tx).CreateWithSlug(ctx, incident, utils.SlugBase(in.Title)); err != nil {
			return err
		}
		return s.activities.WithTx(tx).Create(ctx, newActivity(incident.ID, reporter, types.ActivityReported, map[string]any{
			"title":  incident.Title,
			"status": incident.Status,
		}))
	})
	if err != nil {
		if errors.Is(err, repositories.ErrSlugExhausted) {
			monitoring.SlugExhaustedAmount.Inc()
			return nil, Delivery{}, apperrors.Conflict(apperrors.CodeSlugConflict, "could not allocate a unique slug, please retry")
		}
		return nil, Delivery{}, apperrors.Internal(apperrors.CodeInternal, "failed to report incident", err)
	}
	monitoring.IncidentReportedAmount.Inc()

	incident.Reporter = reporter

	var delivery Delivery
	managers, err := s.users.ListByRole(ctx, types.RoleManager)
	if err != nil {
		logger.Error("Failed to list managers for notification",
			zap.String("incident_slug", incident.Slug),
			zap.Error(err),
		)
		monitoring.NotificationFailedAmount.WithLabelValues(string(types.NotificationNewIncident)).Inc()
		delivery = Delivery{Type: types.NotificationNewIncident, IncidentID: incident.ID, RecipientsErr: err}
	} else {
		delivery = s.notifier.IncidentReported(ctx, incident, userIDs(managers))
	}
	s.events.IncidentReported(*incident)

	logger.Info("Incident reported",
		zap.String("incident_slug", incident.Slug),
		zap.Int("managers_notified", len(delivery.Succeeded)),
	)

	return incident, delivery, nil
}

// UpdateStatusAndAssignment applies a manager's status and assignment change
// and fans out the resulting notifications.
func (s *IncidentService) UpdateStatusAndAssignment(ctx context.Context, actor *models.User, slug string, in UpdateInput) (*UpdateResult, error) {
	if !s.gate.Allowed(actor, accesscontrol.UpdateIncident) {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "only managers can update incidents")
	}

	incident, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	oldStatus := incident.Status
	oldAssignee := incident.AssignedToID

	newStatus := oldStatus
	if in.Status != "" {
		if !in.Status.Valid() {
			return nil, apperrors.FieldInvalid("status", "invalid_choice",
				fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", in.Status))
		}
		newStatus = in.Status
	}

	newAssignee := oldAssignee
	var assignee *models.User
	if in.AssignedToSet {
		newAssignee = in.AssignedToID
		if newAssignee != nil {
			if !s.gate.Allowed(actor, accesscontrol.AssignIncident) {
				return nil, apperrors.Forbidden(apperrors.CodeForbidden, "not allowed to assign incidents")
			}
			assignee, err = s.users.FindByID(ctx, *newAssignee)
			if err != nil || !assignee.IsManager() {
				return nil, apperrors.FieldInvalid("assigned_to", "invalid_choice",
					"Select a valid choice. That choice is not one of the available choices.")
			}
		}
	}

	statusChanged := newStatus != oldStatus
	assigneeChanged := !sameID(oldAssignee, newAssignee)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.incidents.WithTx(tx).UpdateFields(ctx, incident.ID, newStatus, newAssignee); err != nil {
			return err
		}

		activities := s.activities.WithTx(tx)
		if statusChanged {
			if err := activities.Create(ctx, newActivity(incident.ID, actor, types.ActivityStatusChanged, map[string]any{
				"from": oldStatus,
				"to":   newStatus,
			})); err != nil {
				return err
			}
		}
		if assigneeChanged {
			kind := types.ActivityAssigned
			details := map[string]any{"previous_assignee_id": oldAssignee}
			if newAssignee == nil {
				kind = types.ActivityUnassigned
			} else {
				details["assignee_id"] = *newAssignee
				details["assignee"] = assignee.Username
			}
			if err := activities.Create(ctx, newActivity(incident.ID, actor, kind, details)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to update incident", err)
	}

	incident.Status = newStatus
	incident.AssignedToID = newAssignee
	if in.AssignedToSet {
		incident.AssignedTo = assignee
	}

	result := &UpdateResult{Incident: incident, OldStatus: oldStatus}

	if d, sent := s.notifier.StatusChanged(ctx, incident, oldStatus, newStatus); sent {
		result.Deliveries = append(result.Deliveries, d)
	}
	if d, sent := s.notifier.Assigned(ctx, incident, oldAssignee, newAssignee); sent {
		result.Deliveries = append(result.Deliveries, d)
	}

	if statusChanged {
		monitoring.IncidentStatusChangedAmount.WithLabelValues(string(newStatus)).Inc()
		s.events.StatusChanged(*incident, oldStatus, newStatus)
	}
	if assigneeChanged && newAssignee != nil {
		monitoring.IncidentAssignedAmount.Inc()
	}

	logger.Info("Incident updated",
		zap.String("incident_slug", incident.Slug),
		zap.Uint("actor_id", actor.ID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(newStatus)),
		zap.Bool("assignee_changed", assigneeChanged),
	)

	return result, nil
}

func (s *IncidentService) GetBySlug(ctx context.Context, slug string) (*models.Incident, error) {
	incident, err := s.incidents.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeIncidentNotFound, "incident not found")
		}
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to load incident", err)
	}
	return incident, nil
}

func (s *IncidentService) List(ctx context.Context, filter repositories.IncidentFilter) ([]models.Incident, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.FieldInvalid("status", "invalid_choice", "Select a valid choice.")
	}
	incidents, err := s.incidents.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to list incidents", err)
	}
	return incidents, nil
}

// ListByReporter returns the incidents the user reported, newest first.
func (s *IncidentService) ListByReporter(ctx context.Context, reporter *models.User) ([]models.Incident, error) {
	return s.List(ctx, repositories.IncidentFilter{ReporterID: &reporter.ID})
}

// AssigneeCandidates returns the users an incident may be assigned to.
func (s *IncidentService) AssigneeCandidates(ctx context.Context) ([]models.User, error) {
	managers, err := s.users.ListByRole(ctx, types.RoleManager)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to list managers", err)
	}
	return managers, nil
}

func (s *IncidentService) History(ctx context.Context, incidentID uint) ([]models.IncidentActivity, error) {
	entries, err := s.activities.ListForIncident(ctx, incidentID)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to load incident history", err)
	}
	return entries, nil
}

// Dashboard aggregates incident statistics for a manager.
func (s *IncidentService) Dashboard(ctx context.Context, manager *models.User) (*DashboardStats, error) {
	if !s.gate.Allowed(manager, accesscontrol.ViewDashboard) {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "only managers can view the dashboard")
	}

	stats := &DashboardStats{}
	var err error

	if stats.Total, err = s.incidents.Count(ctx); err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to count incidents", err)
	}
	if stats.ByStatus, err = s.incidents.CountByStatus(ctx); err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to count incidents", err)
	}
	if stats.Unassigned, err = s.incidents.CountUnassigned(ctx); err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to count incidents", err)
	}
	if stats.AssignedToMe, err = s.incidents.CountAssignedTo(ctx, manager.ID); err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to count incidents", err)
	}
	if stats.RecentIncidents, err = s.incidents.List(ctx, repositories.IncidentFilter{Limit: s.cfg.DashboardRecentLimit}); err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to list incidents", err)
	}
	if stats.RecentActivity, err = s.activities.Recent(ctx, s.cfg.DashboardRecentLimit); err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to list activity", err)
	}

	return stats, nil
}

func newActivity(incidentID uint, actor *models.User, kind types.ActivityKind, details map[string]any) *models.IncidentActivity {
	a := &models.IncidentActivity{IncidentID: incidentID, Kind: kind}
	if actor != nil {
		a.ActorID = &actor.ID
	}
	if raw, err := json.Marshal(details); err == nil {
		a.Details = datatypes.JSON(raw)
	}
	return a
}

func userIDs(users []models.User) []uint {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
