// Package service turns uploaded spreadsheets into leads.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/adapters"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/adapters/storage"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/imports/fieldmap"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/imports/parse"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/imports/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/domain"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/management"
	leadtransport "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/textnorm"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	previewRows          = 20
	defaultImportSource  = "import"
	duplicateCheckLimit  = 8
	MaxUploadBytes int64 = 10 << 20
)

// LeadImporter is the slice of the lead service an import needs.
type LeadImporter interface {
	DetectDuplicates(ctx context.Context, organizationID uuid.UUID, c domain.Contact) ([]domain.Match, error)
	ImportLeads(ctx context.Context, actor access.Actor, rows []management.LeadInput) ([]leadtransport.LeadResponse, error)
}

type MemberLister interface {
	ActiveMembers(ctx context.Context, organizationID uuid.UUID) ([]adapters.MemberContact, error)
}

// Upload is a file read fully into memory.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

type Service struct {
	leads    LeadImporter
	members  MemberLister
	archiver storage.Archiver
	bucket   string
	eventBus events.Bus
	log      *logger.Logger
}

// New builds the import service. archiver may be nil when object storage is
// not configured; uploads are then not archived.
func New(leads LeadImporter, members MemberLister, archiver storage.Archiver, bucket string, eventBus events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		leads:    leads,
		members:  members,
		archiver: archiver,
		bucket:   bucket,
		eventBus: eventBus,
		log:      log,
	}
}

func (s *Service) load(up Upload) (*parse.Sheet, parse.Format, error) {
	if len(up.Data) == 0 {
		return nil, "", apperr.Validation("file is empty")
	}
	if int64(len(up.Data)) > MaxUploadBytes {
		return nil, "", apperr.TooLarge(fmt.Sprintf("file exceeds %d bytes", MaxUploadBytes))
	}
	format, err := parse.DetectFormat(up.FileName, up.ContentType)
	if err != nil {
		return nil, "", err
	}
	sheet, err := parse.Read(format, bytes.NewReader(up.Data))
	if err != nil {
		return nil, "", err
	}
	return sheet, format, nil
}

// Preview parses the upload and shows how its columns would be imported.
func (s *Service) Preview(_ context.Context, up Upload) (transport.PreviewResponse, error) {
	sheet, format, err := s.load(up)
	if err != nil {
		return transport.PreviewResponse{}, err
	}

	mapping := fieldmap.Guess(sheet.Headers)
	named := make(map[string]string, len(mapping.Columns))
	for f := range mapping.Columns {
		named[string(f)] = mapping.Header(sheet.Headers, f)
	}

	limit := len(sheet.Rows)
	if limit > previewRows {
		limit = previewRows
	}
	rows := make([]map[string]string, 0, limit)
	for _, row := range sheet.Rows[:limit] {
		mapped := make(map[string]string, len(mapping.Columns))
		for f, idx := range mapping.Columns {
			mapped[string(f)] = sheet.Cell(row, idx)
		}
		rows = append(rows, mapped)
	}

	unmapped := mapping.Unmapped
	if unmapped == nil {
		unmapped = []string{}
	}
	return transport.PreviewResponse{
		FileName:  up.FileName,
		Format:    string(format),
		Headers:   sheet.Headers,
		Mapping:   named,
		Unmapped:  unmapped,
		Rows:      rows,
		TotalRows: len(sheet.Rows),
	}, nil
}

// resolveMapping applies an explicit field-to-header override. Without one
// the guessed mapping is used.
func resolveMapping(headers []string, override map[string]string) (fieldmap.Mapping, error) {
	if len(override) == 0 {
		return fieldmap.Guess(headers), nil
	}

	known := make(map[fieldmap.Field]bool, len(fieldmap.Fields))
	for _, f := range fieldmap.Fields {
		known[f] = true
	}
	byHeader := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := byHeader[h]; !dup {
			byHeader[h] = i
		}
	}

	mapping := fieldmap.Mapping{Columns: make(map[fieldmap.Field]int, len(override))}
	used := make(map[int]bool, len(override))
	for name, header := range override {
		f := fieldmap.Field(name)
		if !known[f] {
			return fieldmap.Mapping{}, apperr.Validation(fmt.Sprintf("unknown field %q in mapping", name))
		}
		if header == "" {
			continue
		}
		idx, ok := byHeader[header]
		if !ok {
			return fieldmap.Mapping{}, apperr.Validation(fmt.Sprintf("column %q not found in file", header))
		}
		if used[idx] {
			return fieldmap.Mapping{}, apperr.Validation(fmt.Sprintf("column %q is mapped twice", header))
		}
		used[idx] = true
		mapping.Columns[f] = idx
	}
	for i, h := range headers {
		if !used[i] {
			mapping.Unmapped = append(mapping.Unmapped, h)
		}
	}
	return mapping, nil
}

// options holds the commit defaults after validation.
type options struct {
	skipDuplicates bool
	status         string
	source         string
	assignTo       *uuid.UUID
}

func resolveOptions(req transport.CommitRequest, team *roster) (options, error) {
	opts := options{
		skipDuplicates: true,
		status:         domain.StatusNew,
		source:         defaultImportSource,
	}
	if req.SkipDuplicates != nil {
		opts.skipDuplicates = *req.SkipDuplicates
	}
	if req.DefaultStatus != "" {
		if !domain.ValidStatus(req.DefaultStatus) {
			return options{}, apperr.Validation("invalid default status")
		}
		opts.status = req.DefaultStatus
	}
	if src := strings.TrimSpace(req.DefaultSource); src != "" {
		opts.source = src
	}
	if req.AssignTo != nil {
		if !team.has(*req.AssignTo) {
			return options{}, apperr.Validation("assignTo is not an active team member")
		}
		id := *req.AssignTo
		opts.assignTo = &id
	}
	return opts, nil
}

// roster resolves owner cells to team members by email or folded name.
type roster struct {
	ids     map[uuid.UUID]bool
	byEmail map[string]uuid.UUID
	byName  map[string]uuid.UUID
}

func newRoster(members []adapters.MemberContact) *roster {
	r := &roster{
		ids:     make(map[uuid.UUID]bool, len(members)),
		byEmail: make(map[string]uuid.UUID, len(members)),
		byName:  make(map[string]uuid.UUID, len(members)),
	}
	for _, m := range members {
		if !m.IsActive {
			continue
		}
		r.ids[m.ID] = true
		if e := strings.ToLower(strings.TrimSpace(m.Email)); e != "" {
			r.byEmail[e] = m.ID
		}
		if n := textnorm.Fold(m.FullName); n != "" {
			if _, taken := r.byName[n]; !taken {
				r.byName[n] = m.ID
			}
		}
	}
	return r
}

func (r *roster) has(id uuid.UUID) bool {
	return r.ids[id]
}

func (r *roster) lookup(raw string) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, false
	}
	if id, ok := r.byEmail[strings.ToLower(raw)]; ok {
		return id, true
	}
	id, ok := r.byName[textnorm.Fold(raw)]
	return id, ok
}

// candidate is a row that passed validation and the in-file duplicate check.
type candidate struct {
	row     int
	input   management.LeadInput
	contact domain.Contact
}

// Commit imports every valid row of the upload. Rows that fail validation are
// reported, never fatal; the accepted rows are inserted together or not at all.
func (s *Service) Commit(ctx context.Context, actor access.Actor, up Upload, req transport.CommitRequest) (transport.CommitResponse, error) {
	sheet, _, err := s.load(up)
	if err != nil {
		return transport.CommitResponse{}, err
	}
	mapping, err := resolveMapping(sheet.Headers, req.Mapping)
	if err != nil {
		return transport.CommitResponse{}, err
	}
	if !hasAny(mapping, fieldmap.FullName, fieldmap.FirstName, fieldmap.LastName) {
		return transport.CommitResponse{}, apperr.Validation("no column maps to a lead name")
	}

	members, err := s.members.ActiveMembers(ctx, actor.OrgID)
	if err != nil {
		return transport.CommitResponse{}, err
	}
	team := newRoster(members)
	opts, err := resolveOptions(req, team)
	if err != nil {
		return transport.CommitResponse{}, err
	}

	result := transport.CommitResponse{Failed: []transport.RowFailure{}}
	index := domain.NewIndex()
	var accepted []candidate

	for i, row := range sheet.Rows {
		rowNum := sheet.Line(i)
		in, err := buildInput(sheet, row, mapping, opts, team)
		if err != nil {
			result.Failed = append(result.Failed, transport.RowFailure{Row: rowNum, Reason: reason(err)})
			continue
		}
		contact, err := management.ContactOf(in)
		if err != nil {
			result.Failed = append(result.Failed, transport.RowFailure{Row: rowNum, Reason: reason(err)})
			continue
		}
		if opts.skipDuplicates {
			if index.Seen(contact) >= 0 {
				result.SkippedDuplicates++
				continue
			}
			index.Add(rowNum, contact)
		}
		accepted = append(accepted, candidate{row: rowNum, input: in, contact: contact})
	}

	if opts.skipDuplicates && len(accepted) > 0 {
		keep, err := s.dropStoredDuplicates(ctx, actor.OrgID, accepted)
		if err != nil {
			return transport.CommitResponse{}, err
		}
		result.SkippedDuplicates += len(accepted) - len(keep)
		accepted = keep
	}

	inputs := make([]management.LeadInput, 0, len(accepted))
	for _, c := range accepted {
		inputs = append(inputs, c.input)
	}
	created, err := s.leads.ImportLeads(ctx, actor, inputs)
	if err != nil {
		return transport.CommitResponse{}, err
	}
	result.Created = len(created)

	result.ArchiveKey = s.archive(ctx, actor.OrgID, up)

	s.eventBus.Publish(ctx, events.LeadsImported{
		BaseEvent:         events.NewBaseEvent(),
		OrganizationID:    actor.OrgID,
		ActorID:           actor.MemberID,
		FileName:          up.FileName,
		Created:           result.Created,
		SkippedDuplicates: result.SkippedDuplicates,
		Failed:            len(result.Failed),
	})

	s.log.Info("leads imported",
		"organizationId", actor.OrgID,
		"file", up.FileName,
		"created", result.Created,
		"skipped", result.SkippedDuplicates,
		"failed", len(result.Failed))
	return result, nil
}

// dropStoredDuplicates removes candidates that strongly match an existing
// lead. Checks run concurrently; the input order is preserved.
func (s *Service) dropStoredDuplicates(ctx context.Context, organizationID uuid.UUID, candidates []candidate) ([]candidate, error) {
	duplicate := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(duplicateCheckLimit)
	for i := range candidates {
		i := i
		g.Go(func() error {
			matches, err := s.leads.DetectDuplicates(gctx, organizationID, candidates[i].contact)
			if err != nil {
				return err
			}
			duplicate[i] = domain.HasStrong(matches)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	keep := make([]candidate, 0, len(candidates))
	for i, c := range candidates {
		if !duplicate[i] {
			keep = append(keep, c)
		}
	}
	return keep, nil
}

func (s *Service) archive(ctx context.Context, organizationID uuid.UUID, up Upload) string {
	if s.archiver == nil {
		return ""
	}
	contentType := storage.NormalizeContentType(up.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.archiver.Validate(storage.KindSpreadsheet, contentType, int64(len(up.Data))); err != nil {
		s.log.Warn("import archive skipped", "error", err, "file", up.FileName)
		return ""
	}
	key, err := s.archiver.Archive(ctx, s.bucket, organizationID.String(), up.FileName, contentType, bytes.NewReader(up.Data), int64(len(up.Data)))
	if err != nil {
		s.log.Warn("import archive failed", "error", err, "file", up.FileName)
		return ""
	}
	return key
}

func buildInput(sheet *parse.Sheet, row []string, mapping fieldmap.Mapping, opts options, team *roster) (management.LeadInput, error) {
	cell := func(f fieldmap.Field) string {
		idx, ok := mapping.Columns[f]
		if !ok {
			return ""
		}
		return sheet.Cell(row, idx)
	}

	fullName := cell(fieldmap.FullName)
	if fullName == "" {
		fullName = fieldmap.JoinName(cell(fieldmap.FirstName), cell(fieldmap.LastName))
	}
	if fullName == "" {
		return management.LeadInput{}, apperr.Validation("missing name")
	}

	in := management.LeadInput{
		FullName: fullName,
		Email:    cell(fieldmap.Email),
		Phone:    cell(fieldmap.Phone),
		Company:  cell(fieldmap.Company),
		Source:   cell(fieldmap.Source),
		Status:   fieldmap.StatusFor(cell(fieldmap.Status), opts.status),
		Notes:    cell(fieldmap.Notes),
	}
	if in.Email == "" && in.Phone == "" {
		return management.LeadInput{}, apperr.Validation("email or phone is required")
	}
	if in.Source == "" {
		in.Source = opts.source
	}
	if raw := cell(fieldmap.Value); raw != "" {
		v, err := fieldmap.ParseAmount(raw)
		if err != nil {
			return management.LeadInput{}, apperr.Validation(fmt.Sprintf("invalid value %q", raw))
		}
		in.Value = v
	}

	if id, ok := team.lookup(cell(fieldmap.AssignedTo)); ok {
		in.AssignedTo = &id
	} else if opts.assignTo != nil {
		id := *opts.assignTo
		in.AssignedTo = &id
	}

	if err := management.ValidateInput(in); err != nil {
		return management.LeadInput{}, err
	}
	return in, nil
}

func hasAny(m fieldmap.Mapping, fields ...fieldmap.Field) bool {
	for _, f := range fields {
		if _, ok := m.Columns[f]; ok {
			return true
		}
	}
	return false
}

func reason(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
