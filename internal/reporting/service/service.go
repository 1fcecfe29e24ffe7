// Package service assembles team performance and dashboard reports.
package service

import (
	"context"
	"math"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/domain"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/reporting/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/reporting/scoring"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/reporting/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	dateLayout        = "2006-01-02"
	defaultWindowDays = 30
	maxWindowDays     = 366
)

type Service struct {
	repo repository.Reader
	log  *logger.Logger
	now  func() time.Time
}

func New(repo repository.Reader, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, log: log, now: time.Now}
}

// perMember carries the five query results for one report.
type perMember struct {
	members      []repository.Member
	assignments  map[uuid.UUID]int
	outcomes     map[uuid.UUID]repository.LeadOutcome
	tasks        map[uuid.UUID]repository.TaskCounts
	appointments map[uuid.UUID]repository.AppointmentCounts
}

// TeamPerformance scores every active member. Associates only get their own
// row, scored against the whole team.
func (s *Service) TeamPerformance(ctx context.Context, actor access.Actor, req transport.TeamPerformanceRequest) (*transport.TeamPerformanceResponse, error) {
	window, err := s.resolveWindow(req)
	if err != nil {
		return nil, err
	}

	data, err := s.load(ctx, actor.OrgID, window)
	if err != nil {
		return nil, err
	}

	stats := make([]scoring.Stats, len(data.members))
	for i, m := range data.members {
		stats[i] = statsFor(m.ID, data)
	}
	team := scoring.MaxOf(stats)

	rows := make([]transport.MemberPerformance, 0, len(data.members))
	for i, m := range data.members {
		st := stats[i]
		score, factors := scoring.Compute(st, team)
		rows = append(rows, transport.MemberPerformance{
			MemberID:              m.ID,
			FullName:              m.FullName,
			Role:                  m.Role,
			LeadsAssigned:         st.LeadsAssigned,
			LeadsWon:              st.LeadsWon,
			LeadsLost:             st.LeadsLost,
			WonValue:              st.WonValue,
			TasksCompleted:        st.TasksCompleted,
			TasksOverdue:          st.TasksOverdue,
			AppointmentsCompleted: st.AppointmentsCompleted,
			AppointmentsNoShow:    st.AppointmentsNoShow,
			ConversionRate:        conversionRate(st.LeadsWon, st.LeadsLost),
			Score:                 score,
			Factors:               factors,
		})
	}

	scoring.Rank(rows)
	for i := range rows {
		rows[i].Rank = i + 1
	}

	if !actor.SeesAll() {
		own := make([]transport.MemberPerformance, 0, 1)
		for _, row := range rows {
			if row.MemberID == actor.MemberID {
				own = append(own, row)
			}
		}
		rows = own
	}

	return &transport.TeamPerformanceResponse{
		From:         window.From,
		To:           window.To,
		ScoreVersion: scoring.Version,
		Members:      rows,
	}, nil
}

// load runs the member, lead, outcome, task and appointment queries
// concurrently.
func (s *Service) load(ctx context.Context, orgID uuid.UUID, w repository.Window) (*perMember, error) {
	var data perMember
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		data.members, err = s.repo.ActiveMembers(gctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		data.assignments, err = s.repo.LeadAssignments(gctx, orgID, w)
		return err
	})
	g.Go(func() error {
		var err error
		data.outcomes, err = s.repo.LeadOutcomes(gctx, orgID, w)
		return err
	})
	g.Go(func() error {
		var err error
		data.tasks, err = s.repo.TaskCounts(gctx, orgID, w)
		return err
	})
	g.Go(func() error {
		var err error
		data.appointments, err = s.repo.AppointmentCounts(gctx, orgID, w)
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Error("team performance query failed", "error", err, "organizationId", orgID)
		return nil, err
	}
	return &data, nil
}

func statsFor(memberID uuid.UUID, data *perMember) scoring.Stats {
	outcome := data.outcomes[memberID]
	tasks := data.tasks[memberID]
	appts := data.appointments[memberID]
	return scoring.Stats{
		LeadsAssigned:         data.assignments[memberID],
		LeadsWon:              outcome.Won,
		LeadsLost:             outcome.Lost,
		WonValue:              outcome.WonValue,
		TasksCompleted:        tasks.Completed,
		TasksOverdue:          tasks.Overdue,
		AppointmentsCompleted: appts.Completed,
		AppointmentsNoShow:    appts.NoShow,
	}
}

func conversionRate(won, lost int) float64 {
	if won+lost == 0 {
		return 0
	}
	return math.Round(float64(won)/float64(won+lost)*1000) / 1000
}

// resolveWindow turns inclusive calendar days into a half-open UTC range.
func (s *Service) resolveWindow(req transport.TeamPerformanceRequest) (repository.Window, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	to := today.AddDate(0, 0, 1)
	if req.To != "" {
		parsed, err := time.Parse(dateLayout, req.To)
		if err != nil {
			return repository.Window{}, apperr.BadRequest("invalid to date")
		}
		to = parsed.AddDate(0, 0, 1)
	}

	from := to.AddDate(0, 0, -defaultWindowDays)
	if req.From != "" {
		parsed, err := time.Parse(dateLayout, req.From)
		if err != nil {
			return repository.Window{}, apperr.BadRequest("invalid from date")
		}
		from = parsed
	}

	if !from.Before(to) {
		return repository.Window{}, apperr.Validation("from must not be after to")
	}
	if to.Sub(from) > maxWindowDays*24*time.Hour {
		return repository.Window{}, apperr.Validation("reporting window is limited to one year")
	}
	return repository.Window{From: from, To: to, Now: now}, nil
}

// Dashboard returns organization KPIs. Associates see their own book.
func (s *Service) Dashboard(ctx context.Context, actor access.Actor) (*transport.DashboardResponse, error) {
	owner := actor.OwnerFilter()
	now := s.now()

	var counts repository.Dashboard
	var pipeline map[string]float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.repo.DashboardCounts(gctx, actor.OrgID, owner, now)
		return err
	})
	g.Go(func() error {
		var err error
		pipeline, err = s.repo.PipelineByStatus(gctx, actor.OrgID, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byStatus := make(map[string]float64, len(domain.Statuses))
	var open float64
	for _, status := range domain.Statuses {
		value := pipeline[status]
		byStatus[status] = value
		if !domain.IsClosed(status) {
			open += value
		}
	}

	return &transport.DashboardResponse{
		TotalLeads:           counts.TotalLeads,
		NewLeadsThisWeek:     counts.NewLeadsThisWeek,
		OpenTasks:            counts.OpenTasks,
		OverdueTasks:         counts.OverdueTasks,
		UpcomingAppointments: counts.UpcomingAppointments,
		PipelineByStatus:     byStatus,
		PipelineValue:        open,
	}, nil
}
