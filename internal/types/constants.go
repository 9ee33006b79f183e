package types

const ContextUserKey = "user"

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

var roleLabels = map[Role]string{
	RoleEmployee: "Employee",
	RoleManager:  "Manager",
}

func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Status is the lifecycle state of an incident. Any status may follow any other.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Statuses lists the choices in display order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusResolved, StatusClosed}

var statusLabels = map[Status]string{
	StatusNew:        "New",
	StatusInProgress: "In Progress",
	StatusResolved:   "Resolved",
	StatusClosed:     "Closed",
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

type NotificationType string

const (
	NotificationNewIncident  NotificationType = "new_incident"
	NotificationStatusChange NotificationType = "status_change"
	NotificationAssigned     NotificationType = "assigned"
)

var notificationTypeLabels = map[NotificationType]string{
	NotificationNewIncident:  "New Incident",
	NotificationStatusChange: "Status Change",
	NotificationAssigned:     "Assigned to Incident",
}

func (t NotificationType) Label() string {
	if l, ok := notificationTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

type ActivityKind string

const (
	ActivityReported      ActivityKind = "reported"
	ActivityStatusChanged ActivityKind = "status_changed"
	ActivityAssigned      ActivityKind = "assigned"
	ActivityUnassigned    ActivityKind = "unassigned"
)

// Choice is a value/label pair rendered in form metadata.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func StatusChoices() []Choice {
	choices := make([]Choice, 0, len(Statuses))
	for _, s := range Statuses {
		choices = append(choices, Choice{Value: string(s), Label: s.Label()})
	}
	return choices
}
