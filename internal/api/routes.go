package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/icanhaztessera"

	AdminParent            = "/v1/admin/"
	ListAuditsRoute        = AdminParent + "audits"
	ListActiveTicketsRoute = AdminParent + "tickets"

	ListTasksRoute   = AdminParent + "tasks"
	TriggerTaskRoute = AdminParent + "tasks/{name}/trigger"
	LogsForTaskRoute = AdminParent + "tasks/{name}/logs"
)
