package management

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/domain"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"

	"github.com/google/uuid"
)

type fakeRepo struct {
	leads    map[uuid.UUID]repository.Lead
	keys     map[uuid.UUID]string
	activity []repository.ActivityParams

	// beforeAssign runs between the service's read and its write.
	beforeAssign func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: map[uuid.UUID]repository.Lead{}, keys: map[uuid.UUID]string{}}
}

func (f *fakeRepo) GetByID(_ context.Context, id, org uuid.UUID) (repository.Lead, error) {
	l, ok := f.leads[id]
	if !ok || l.OrganizationID != org {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return l, nil
}

func (f *fakeRepo) List(_ context.Context, p repository.ListParams) ([]repository.Lead, int, error) {
	out := []repository.Lead{}
	for _, l := range f.leads {
		if l.OrganizationID != p.OrganizationID {
			continue
		}
		if p.AssignedTo != nil && (l.AssignedTo == nil || *l.AssignedTo != *p.AssignedTo) {
			continue
		}
		out = append(out, l)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Create(_ context.Context, p repository.CreateLeadParams) (repository.Lead, error) {
	l := repository.Lead{
		ID:              uuid.New(),
		OrganizationID:  p.OrganizationID,
		FullName:        p.FullName,
		Email:           p.Email,
		Phone:           p.Phone,
		PhoneNormalized: p.PhoneNormalized,
		Company:         p.Company,
		Source:          p.Source,
		Status:          p.Status,
		Value:           p.Value,
		AssignedTo:      p.AssignedTo,
		Notes:           p.Notes,
		CreatedBy:       p.CreatedBy,
	}
	f.leads[l.ID] = l
	f.keys[l.ID] = p.NameKey
	return l, nil
}

func (f *fakeRepo) CreateBatch(ctx context.Context, ps []repository.CreateLeadParams) ([]repository.Lead, error) {
	out := make([]repository.Lead, 0, len(ps))
	for _, p := range ps {
		l, _ := f.Create(ctx, p)
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeRepo) Update(ctx context.Context, id, org uuid.UUID, p repository.UpdateLeadParams) (repository.Lead, error) {
	l, err := f.GetByID(ctx, id, org)
	if err != nil {
		return l, err
	}
	if p.FullName != nil {
		l.FullName = *p.FullName
	}
	if p.Value != nil {
		l.Value = *p.Value
	}
	if p.Email != nil {
		l.Email = p.Email
	}
	f.leads[id] = l
	return l, nil
}

func (f *fakeRepo) SetAssignee(ctx context.Context, id, org uuid.UUID, previous, assignee *uuid.UUID) (repository.Lead, error) {
	if f.beforeAssign != nil {
		f.beforeAssign()
	}
	l, err := f.GetByID(ctx, id, org)
	if err != nil {
		return l, err
	}
	if !sameMember(l.AssignedTo, previous) {
		return repository.Lead{}, apperr.Conflict("lead owner changed in the meantime, reload and try again")
	}
	l.AssignedTo = assignee
	f.leads[id] = l
	return l, nil
}

func (f *fakeRepo) SetStatus(ctx context.Context, id, org uuid.UUID, status string) (repository.Lead, error) {
	l, err := f.GetByID(ctx, id, org)
	if err != nil {
		return l, err
	}
	l.Status = status
	f.leads[id] = l
	return l, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id, org uuid.UUID) error {
	if _, err := f.GetByID(ctx, id, org); err != nil {
		return err
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeRepo) BulkDelete(_ context.Context, ids []uuid.UUID, org uuid.UUID) ([]repository.DeletedLead, error) {
	out := []repository.DeletedLead{}
	for _, id := range ids {
		if l, ok := f.leads[id]; ok && l.OrganizationID == org {
			out = append(out, repository.DeletedLead{ID: id, AssignedTo: l.AssignedTo})
			delete(f.leads, id)
		}
	}
	return out, nil
}

func (f *fakeRepo) AddActivity(_ context.Context, p repository.ActivityParams) error {
	f.activity = append(f.activity, p)
	return nil
}

func (f *fakeRepo) ListActivity(_ context.Context, leadID, _ uuid.UUID) ([]repository.Activity, error) {
	out := []repository.Activity{}
	for _, a := range f.activity {
		if a.LeadID == leadID {
			out = append(out, repository.Activity{LeadID: a.LeadID, Action: a.Action, Meta: a.Meta})
		}
	}
	return out, nil
}

func (f *fakeRepo) FindDuplicateCandidates(_ context.Context, org uuid.UUID, k repository.DuplicateKeys) ([]repository.Lead, error) {
	out := []repository.Lead{}
	for id, l := range f.leads {
		if l.OrganizationID != org {
			continue
		}
		phoneHit := k.PhoneNormalized != "" && l.PhoneNormalized != nil && *l.PhoneNormalized == k.PhoneNormalized
		emailHit := k.Email != "" && l.Email != nil && strings.EqualFold(*l.Email, k.Email)
		nameHit := k.NameKey != "" && f.keys[id] == k.NameKey
		if phoneHit || emailHit || nameHit {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetMetrics(_ context.Context, org uuid.UUID, assignedTo *uuid.UUID) (repository.LeadMetrics, error) {
	m := repository.LeadMetrics{ByStatus: map[string]int{}, ValueByStatus: map[string]float64{}}
	for _, l := range f.leads {
		if l.OrganizationID != org || (assignedTo != nil && !sameMember(l.AssignedTo, assignedTo)) {
			continue
		}
		m.TotalLeads++
		m.ByStatus[l.Status]++
		m.ValueByStatus[l.Status] += l.Value
		m.TotalValue += l.Value
	}
	return m, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	sort.Strings(out)
	return out
}

type fakeDirectory map[uuid.UUID]bool

func (d fakeDirectory) IsActiveMember(_ context.Context, _, id uuid.UUID) (bool, error) {
	return d[id], nil
}

type fixture struct {
	repo      *fakeRepo
	bus       *recordingBus
	svc       *Service
	org       uuid.UUID
	admin     access.Actor
	associate access.Actor
	other     access.Actor
}

func newFixture() fixture {
	org := uuid.New()
	f := fixture{
		repo:      newFakeRepo(),
		bus:       &recordingBus{},
		org:       org,
		admin:     access.Actor{OrgID: org, MemberID: uuid.New(), Role: access.RoleAdmin},
		associate: access.Actor{OrgID: org, MemberID: uuid.New(), Role: access.RoleSalesAssociate},
		other:     access.Actor{OrgID: org, MemberID: uuid.New(), Role: access.RoleSalesAssociate},
	}
	dir := fakeDirectory{f.admin.MemberID: true, f.associate.MemberID: true, f.other.MemberID: true}
	f.svc = New(f.repo, f.bus, dir, nil)
	return f
}

func TestCreateNormalizesAndSelfAssignsAssociates(t *testing.T) {
	f := newFixture()
	someoneElse := f.other.MemberID

	lead, err := f.svc.Create(context.Background(), f.associate, LeadInput{
		FullName:   "  Ann   Lee ",
		Email:      " ANN@Example.com",
		Phone:      "(650) 253-0000",
		AssignedTo: &someoneElse,
	}, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if lead.FullName != "Ann Lee" {
		t.Fatalf("expected sanitized name, got %q", lead.FullName)
	}
	if lead.Email == nil || *lead.Email != "ann@example.com" {
		t.Fatalf("expected lowercased email, got %v", lead.Email)
	}
	if lead.Phone == nil || *lead.Phone != "+16502530000" {
		t.Fatalf("expected E.164 phone, got %v", lead.Phone)
	}
	if lead.AssignedTo == nil || *lead.AssignedTo != f.associate.MemberID {
		t.Fatalf("expected self assignment, got %v", lead.AssignedTo)
	}
	if lead.Status != domain.StatusNew || lead.Source != defaultSource {
		t.Fatalf("unexpected defaults %s/%s", lead.Status, lead.Source)
	}
}

func TestCreateBlocksDuplicatesUnlessForced(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.admin, LeadInput{FullName: "Ann Lee", Phone: "650 253 0000"}, false); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := f.svc.Create(ctx, f.admin, LeadInput{FullName: "A. Lee", Phone: "+1 (650) 253-0000"}, false)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	details, ok := appErr.Details.(map[string]interface{})
	if !ok {
		t.Fatalf("expected match details, got %#v", appErr.Details)
	}
	matches := details["matches"].([]domain.Match)
	if len(matches) != 1 || matches[0].MatchedOn[0] != domain.MatchPhone {
		t.Fatalf("unexpected matches %+v", matches)
	}

	if _, err := f.svc.Create(ctx, f.admin, LeadInput{FullName: "A. Lee", Phone: "+1 (650) 253-0000"}, true); err != nil {
		t.Fatalf("forced create: %v", err)
	}
	if len(f.repo.leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(f.repo.leads))
	}
}

func TestCreateRejectsInactiveAssignee(t *testing.T) {
	f := newFixture()
	stranger := uuid.New()
	_, err := f.svc.Create(context.Background(), f.admin, LeadInput{FullName: "Ann", AssignedTo: &stranger}, false)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAssociateVisibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	lead, err := f.svc.Create(ctx, f.other, LeadInput{FullName: "Private Lead"}, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.GetByID(ctx, f.associate, lead.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for other associate, got %v", err)
	}
	if _, err := f.svc.GetByID(ctx, f.admin, lead.ID); err != nil {
		t.Fatalf("admin should see lead: %v", err)
	}
	name := "Renamed"
	if _, err := f.svc.Update(ctx, f.associate, lead.ID, transport.UpdateLeadRequest{FullName: &name}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if err := f.svc.Delete(ctx, f.other, lead.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("associates cannot delete, got %v", err)
	}

	params, err := ListParams(f.associate, transport.ListLeadsRequest{AssignedTo: f.other.MemberID.String()})
	if err != nil {
		t.Fatalf("list params: %v", err)
	}
	if params.AssignedTo == nil || *params.AssignedTo != f.associate.MemberID {
		t.Fatalf("associate list must be limited to own leads, got %v", params.AssignedTo)
	}
}

func TestClaimLosesToConcurrentClaim(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	lead, err := f.svc.Create(ctx, f.admin, LeadInput{FullName: "Contested Lead"}, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	winner := f.other.MemberID
	f.repo.beforeAssign = func() {
		f.repo.beforeAssign = nil
		l := f.repo.leads[lead.ID]
		l.AssignedTo = &winner
		f.repo.leads[lead.ID] = l
	}

	self := f.associate.MemberID
	if _, err := f.svc.Assign(ctx, f.associate, lead.ID, &self); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for the later claim, got %v", err)
	}
	if got := f.repo.leads[lead.ID].AssignedTo; got == nil || *got != winner {
		t.Fatalf("first claim must stand, owner is %v", got)
	}
	for _, a := range f.repo.activity {
		if a.Action == domain.ActionAssigned {
			t.Fatal("a lost claim must not be recorded")
		}
	}
}

func TestAssignRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pool, err := f.svc.Create(ctx, f.admin, LeadInput{FullName: "Pool Lead"}, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	self := f.associate.MemberID
	claimed, err := f.svc.Assign(ctx, f.associate, pool.ID, &self)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.AssignedTo == nil || *claimed.AssignedTo != self {
		t.Fatalf("expected claim to assign self")
	}

	otherID := f.other.MemberID
	if _, err := f.svc.Assign(ctx, f.associate, pool.ID, &otherID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("associate cannot hand a lead to someone else, got %v", err)
	}
	if _, err := f.svc.Assign(ctx, f.other, pool.ID, &otherID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("associate cannot take someone else's lead, got %v", err)
	}

	released, err := f.svc.Assign(ctx, f.associate, pool.ID, nil)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released.AssignedTo != nil {
		t.Fatalf("expected lead to be released")
	}

	if _, err := f.svc.Assign(ctx, f.admin, pool.ID, &otherID); err != nil {
		t.Fatalf("admin assign: %v", err)
	}

	assigned := 0
	for _, a := range f.repo.activity {
		if a.Action == domain.ActionAssigned {
			assigned++
		}
	}
	if assigned != 3 {
		t.Fatalf("expected 3 assigned activities, got %d", assigned)
	}

	count := 0
	for _, name := range f.bus.names() {
		if name == (events.LeadAssigned{}).EventName() {
			count++
		}
	}
	if count != 3 {
		t.Fatalf("expected 3 LeadAssigned events, got %d", count)
	}
}

func TestUpdateStatusRecordsActivityAndEvent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	lead, err := f.svc.Create(ctx, f.associate, LeadInput{FullName: "Ann"}, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, f.associate, lead.ID, "archived"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	updated, err := f.svc.UpdateStatus(ctx, f.associate, lead.ID, domain.StatusQualified)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != domain.StatusQualified {
		t.Fatalf("unexpected status %s", updated.Status)
	}

	last := f.repo.activity[len(f.repo.activity)-1]
	if last.Action != domain.ActionStatusChanged || last.Meta["from"] != domain.StatusNew {
		t.Fatalf("unexpected activity %+v", last)
	}

	found := false
	for _, name := range f.bus.names() {
		if name == (events.LeadStatusChanged{}).EventName() {
			found = true
		}
	}
	if !found {
		t.Fatal("expected LeadStatusChanged event")
	}
}

func TestBulkDeleteCountsOnlyExisting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, _ := f.svc.Create(ctx, f.admin, LeadInput{FullName: "A"}, false)
	b, _ := f.svc.Create(ctx, f.admin, LeadInput{FullName: "B"}, false)

	n, err := f.svc.BulkDelete(ctx, f.admin, []uuid.UUID{a.ID, b.ID, a.ID, uuid.New()})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
	if _, err := f.svc.BulkDelete(ctx, f.associate, []uuid.UUID{a.ID}); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCaptureMarksDuplicateSubmissions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.Capture(ctx, f.org, LeadInput{FullName: "Ann Lee", Email: "ann@example.com", Source: "website"}, nil)
	if err != nil || first.Duplicate {
		t.Fatalf("first capture: %+v %v", first, err)
	}

	second, err := f.svc.Capture(ctx, f.org, LeadInput{FullName: "Ann", Email: "ANN@example.com"}, map[string]interface{}{"form": "contact"})
	if err != nil {
		t.Fatalf("second capture: %v", err)
	}
	if !second.Duplicate || second.Lead.ID != first.Lead.ID {
		t.Fatalf("expected duplicate of %s, got %+v", first.Lead.ID, second)
	}
	last := f.repo.activity[len(f.repo.activity)-1]
	if last.Action != domain.ActionResubmitted {
		t.Fatalf("expected resubmitted activity, got %s", last.Action)
	}
	if len(f.repo.leads) != 1 {
		t.Fatalf("expected one stored lead, got %d", len(f.repo.leads))
	}
}

func TestCaptureStoresNameOnlyMatchAsNewLead(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.Capture(ctx, f.org, LeadInput{FullName: "Ann Lee", Email: "ann@example.com"}, nil)
	if err != nil {
		t.Fatalf("first capture: %v", err)
	}
	second, err := f.svc.Capture(ctx, f.org, LeadInput{FullName: "Ann Lee", Email: "ann.lee@other.test"}, nil)
	if err != nil {
		t.Fatalf("second capture: %v", err)
	}
	if second.Duplicate || second.Lead.ID == first.Lead.ID {
		t.Fatalf("a name-only match must create a new lead, got %+v", second)
	}
	if len(f.repo.leads) != 2 {
		t.Fatalf("expected two stored leads, got %d", len(f.repo.leads))
	}
}

func TestMetricsConversionRate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, status := range []string{domain.StatusWon, domain.StatusWon, domain.StatusLost, domain.StatusNew} {
		if _, err := f.svc.Create(ctx, f.admin, LeadInput{FullName: uuid.NewString(), Status: status, Value: 100}, true); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	m, err := f.svc.Metrics(ctx, f.admin)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.TotalLeads != 4 || m.ByStatus[domain.StatusWon] != 2 {
		t.Fatalf("unexpected counts %+v", m)
	}
	if m.ConversionRate < 0.66 || m.ConversionRate > 0.67 {
		t.Fatalf("expected 2/3 conversion, got %f", m.ConversionRate)
	}
	if _, ok := m.ByStatus[domain.StatusNegotiation]; !ok {
		t.Fatal("expected every status in the breakdown")
	}
}

func TestListParamsPaging(t *testing.T) {
	actor := access.Actor{OrgID: uuid.New(), Role: access.RoleSalesManager}
	p, err := ListParams(actor, transport.ListLeadsRequest{Page: 3, PageSize: 500, CreatedTo: "2026-03-01"})
	if err != nil {
		t.Fatalf("list params: %v", err)
	}
	if p.Limit != maxPageSize || p.Offset != 2*maxPageSize {
		t.Fatalf("unexpected paging %d/%d", p.Limit, p.Offset)
	}
	if p.CreatedTo == nil || p.CreatedTo.Day() != 2 {
		t.Fatalf("expected end date to include the whole day, got %v", p.CreatedTo)
	}
	if _, err := ListParams(actor, transport.ListLeadsRequest{AssignedTo: "nobody"}); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}
