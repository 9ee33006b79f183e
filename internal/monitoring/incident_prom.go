package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var IncidentReportedAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "safetytracker_incident_reported_amount",
	Help: "The total number of incidents reported",
})

var IncidentStatusChangedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetytracker_incident_status_changed_amount",
	Help: "The total number of incident status changes, by new status",
}, []string{"status"})

var IncidentAssignedAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "safetytracker_incident_assigned_amount",
	Help: "The total number of incident (re)assignments",
})

var SlugExhaustedAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "safetytracker_slug_exhausted_amount",
	Help: "The total number of incident reports that could not allocate a unique slug",
})
