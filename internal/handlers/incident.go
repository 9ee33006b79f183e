package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safetytracker/safetytracker/internal/models"
	apperrors "github.com/safetytracker/safetytracker/internal/pkg/errors"
	"github.com/safetytracker/safetytracker/internal/repositories"
	"github.com/safetytracker/safetytracker/internal/services"
	"github.com/safetytracker/safetytracker/internal/types"
	"github.com/safetytracker/safetytracker/internal/utils"
)

const dateLayout = "2006-01-02"

type IncidentHandler struct {
	incidents *services.IncidentService
}

func NewIncidentHandler(incidents *services.IncidentService) *IncidentHandler {
	return &IncidentHandler{incidents: incidents}
}

type updateStatusRequest struct {
	Status string `json:"status" form:"status"`
	// Absent keeps the current assignee; an empty value clears it.
	AssignedTo *string `json:"assigned_to" form:"assigned_to"`
}

// parseFilter reads the list filters from the query string.
func parseFilter(ctx *gin.Context) (repositories.IncidentFilter, error) {
	var (
		filter      repositories.IncidentFilter
		fieldErrors []apperrors.FieldError
	)

	filter.Search = strings.TrimSpace(ctx.Query("search"))
	filter.Status = types.Status(strings.TrimSpace(ctx.Query("status")))

	parseID := func(name string) *uint {
		raw := strings.TrimSpace(ctx.Query(name))
		if raw == "" {
			return nil
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			fieldErrors = append(fieldErrors, apperrors.FieldError{Field: name, Code: "invalid", Message: "Enter a whole number."})
			return nil
		}
		v := uint(id)
		return &v
	}
	parseDate := func(name string) *time.Time {
		raw := strings.TrimSpace(ctx.Query(name))
		if raw == "" {
			return nil
		}
		d, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			fieldErrors = append(fieldErrors, apperrors.FieldError{Field: name, Code: "invalid", Message: "Enter a valid date."})
			return nil
		}
		return &d
	}

	filter.ReporterID = parseID("reporter")
	filter.AssignedToID = parseID("assigned_to")
	filter.DateFrom = parseDate("date_from")
	filter.DateTo = parseDate("date_to")

	if len(fieldErrors) > 0 {
		return filter, apperrors.Validation(fieldErrors...)
	}
	return filter, nil
}

func (h *IncidentHandler) List(ctx *gin.Context) {
	filter, err := parseFilter(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	incidents, err := h.incidents.List(ctx.Request.Context(), filter)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"incidents":      incidentResponses(incidents),
		"status_choices": types.StatusChoices(),
		"filters": gin.H{
			"search":      ctx.Query("search"),
			"status":      ctx.Query("status"),
			"reporter":    ctx.Query("reporter"),
			"assigned_to": ctx.Query("assigned_to"),
			"date_from":   ctx.Query("date_from"),
			"date_to":     ctx.Query("date_to"),
		},
	})
}

func (h *IncidentHandler) MyIncidents(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	incidents, err := h.incidents.ListByReporter(ctx.Request.Context(), user)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"incidents": incidentResponses(incidents)})
}

// NewForm describes the report form.
func (h *IncidentHandler) NewForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"fields": []gin.H{
			{"name": "title", "label": "Incident Title", "placeholder": "Brief incident title", "required": true, "max_length": 75},
			{"name": "body", "label": "Description", "placeholder": "Detailed description of the incident", "required": true},
			{"name": "banner", "label": "Photo (optional)", "required": false},
		},
	})
}

func (h *IncidentHandler) Create(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req services.ReportInput

	if err := ctx.ShouldBind(&req); err != nil {
		_ = ctx.Error(apperrors.FromValidator(err))
		return
	}

	if _, _, err := h.incidents.Report(ctx.Request.Context(), user, req); err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.Redirect(http.StatusSeeOther, "/")
}

func (h *IncidentHandler) Detail(ctx *gin.Context) {
	incident, err := h.incidents.GetBySlug(ctx.Request.Context(), ctx.Param("slug"))

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	history, err := h.incidents.History(ctx.Request.Context(), incident.ID)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"incident": incidentResponse(incident),
		"history":  activityResponses(history),
	})
}

// UpdateForm returns the incident with the status choices and the managers it
// may be assigned to.
func (h *IncidentHandler) UpdateForm(ctx *gin.Context) {
	incident, err := h.incidents.GetBySlug(ctx.Request.Context(), ctx.Param("slug"))

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	candidates, err := h.incidents.AssigneeCandidates(ctx.Request.Context())

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"incident":       incidentResponse(incident),
		"status_choices": types.StatusChoices(),
		"assignees":      userRefs(candidates),
	})
}

func (h *IncidentHandler) Update(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req updateStatusRequest

	if err := ctx.ShouldBind(&req); err != nil {
		_ = ctx.Error(apperrors.FromValidator(err))
		return
	}

	in, err := req.toInput()

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	result, err := h.incidents.UpdateStatusAndAssignment(ctx.Request.Context(), user, ctx.Param("slug"), in)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.Redirect(http.StatusSeeOther, incidentPath(result.Incident))
}

func (r updateStatusRequest) toInput() (services.UpdateInput, error) {
	in := services.UpdateInput{Status: types.Status(strings.TrimSpace(r.Status))}

	if r.AssignedTo == nil {
		return in, nil
	}

	in.AssignedToSet = true
	raw := strings.TrimSpace(*r.AssignedTo)

	if raw == "" {
		return in, nil
	}

	id, err := strconv.ParseUint(raw, 10, 64)

	if err != nil {
		return in, apperrors.FieldInvalid("assigned_to", "invalid_choice",
			"Select a valid choice. That choice is not one of the available choices.")
	}

	v := uint(id)
	in.AssignedToID = &v
	return in, nil
}

func incidentPath(inc *models.Incident) string {
	return "/" + inc.Slug + "/"
}
