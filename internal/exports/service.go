// Package exports streams the leads a member can see as CSV or XLSX.
package exports

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/adapters"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"

	"github.com/google/uuid"
)

const (
	pageSize = 100
	MaxRows  = 50000
)

// Columns is the header row of every export.
var Columns = []string{
	"ID", "Full name", "Email", "Phone", "Company", "Source", "Status", "Value",
	"Assigned to", "Last contacted", "Created at", "Updated at", "Notes",
}

// LeadLister pages through leads with visibility already applied.
type LeadLister interface {
	List(ctx context.Context, actor access.Actor, req transport.ListLeadsRequest) (transport.LeadListResponse, error)
}

type MemberLister interface {
	ActiveMembers(ctx context.Context, organizationID uuid.UUID) ([]adapters.MemberContact, error)
}

// RowWriter receives the header and then one row per lead.
type RowWriter interface {
	WriteHeader(cols []string) error
	WriteLead(row Row) error
	Close() error
}

// Row is a lead flattened for export.
type Row struct {
	Lead      transport.LeadResponse
	OwnerName string
}

func (r Row) Strings() []string {
	return []string{
		r.Lead.ID.String(),
		r.Lead.FullName,
		deref(r.Lead.Email),
		deref(r.Lead.Phone),
		deref(r.Lead.Company),
		r.Lead.Source,
		r.Lead.Status,
		strconv.FormatFloat(r.Lead.Value, 'f', 2, 64),
		r.OwnerName,
		formatTime(r.Lead.LastContactedAt),
		r.Lead.CreatedAt.UTC().Format(time.RFC3339),
		r.Lead.UpdatedAt.UTC().Format(time.RFC3339),
		deref(r.Lead.Notes),
	}
}

type Service struct {
	leads   LeadLister
	members MemberLister
	log     *logger.Logger
}

func NewService(leads LeadLister, members MemberLister, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{leads: leads, members: members, log: log}
}

// Prepare fetches the first page so filter and size errors surface before
// anything is written to the response.
func (s *Service) Prepare(ctx context.Context, actor access.Actor, req transport.ListLeadsRequest) (*Export, error) {
	req.Page = 1
	req.PageSize = pageSize
	if req.SortBy == "" {
		req.SortBy = "createdAt"
	}

	first, err := s.leads.List(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if first.Total > MaxRows {
		return nil, apperr.TooLarge(fmt.Sprintf("export is limited to %d leads, narrow the filters", MaxRows))
	}

	owners := map[uuid.UUID]string{}
	if s.members != nil {
		members, err := s.members.ActiveMembers(ctx, actor.OrgID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			owners[m.ID] = m.FullName
		}
	}

	return &Export{svc: s, actor: actor, req: req, first: first, owners: owners}, nil
}

// Export is a prepared export ready to stream.
type Export struct {
	svc    *Service
	actor  access.Actor
	req    transport.ListLeadsRequest
	first  transport.LeadListResponse
	owners map[uuid.UUID]string
}

func (e *Export) Total() int { return e.first.Total }

// WriteTo streams every page into w and returns the number of rows written.
func (e *Export) WriteTo(ctx context.Context, w RowWriter) (int, error) {
	if err := w.WriteHeader(Columns); err != nil {
		return 0, err
	}

	written := 0
	page := e.first
	for {
		for _, lead := range page.Items {
			if err := w.WriteLead(Row{Lead: lead, OwnerName: e.ownerName(lead.AssignedTo)}); err != nil {
				return written, err
			}
			written++
		}
		if page.Page >= page.TotalPages || len(page.Items) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}

		req := e.req
		req.Page = page.Page + 1
		next, err := e.svc.leads.List(ctx, e.actor, req)
		if err != nil {
			return written, err
		}
		page = next
	}

	if err := w.Close(); err != nil {
		return written, err
	}
	e.svc.log.Info("leads exported", "organizationId", e.actor.OrgID, "memberId", e.actor.MemberID, "rows", written)
	return written, nil
}

func (e *Export) ownerName(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	if name, ok := e.owners[*id]; ok {
		return name
	}
	return id.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
