package transport

import (
	"time"

	"github.com/google/uuid"
)

// TeamPerformanceRequest bounds the report. Dates are inclusive calendar
// days; both default to the last 30 days.
type TeamPerformanceRequest struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

type MemberPerformance struct {
	MemberID              uuid.UUID          `json:"memberId"`
	FullName              string             `json:"fullName"`
	Role                  string             `json:"role"`
	LeadsAssigned         int                `json:"leadsAssigned"`
	LeadsWon              int                `json:"leadsWon"`
	LeadsLost             int                `json:"leadsLost"`
	WonValue              float64            `json:"wonValue"`
	TasksCompleted        int                `json:"tasksCompleted"`
	TasksOverdue          int                `json:"tasksOverdue"`
	AppointmentsCompleted int                `json:"appointmentsCompleted"`
	AppointmentsNoShow    int                `json:"appointmentsNoShow"`
	ConversionRate        float64            `json:"conversionRate"`
	Score                 int                `json:"score"`
	Factors               map[string]float64 `json:"factors"`
	Rank                  int                `json:"rank"`
}

func (m MemberPerformance) RankScore() int   { return m.Score }
func (m MemberPerformance) RankName() string { return m.FullName }

type TeamPerformanceResponse struct {
	From         time.Time           `json:"from"`
	To           time.Time           `json:"to"`
	ScoreVersion string              `json:"scoreVersion"`
	Members      []MemberPerformance `json:"members"`
}

type DashboardResponse struct {
	TotalLeads           int                `json:"totalLeads"`
	NewLeadsThisWeek     int                `json:"newLeadsThisWeek"`
	OpenTasks            int                `json:"openTasks"`
	OverdueTasks         int                `json:"overdueTasks"`
	UpcomingAppointments int                `json:"upcomingAppointments"`
	PipelineByStatus     map[string]float64 `json:"pipelineByStatus"`
	PipelineValue        float64            `json:"pipelineValue"`
}
