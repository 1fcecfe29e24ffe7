package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/appointments/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Appointment represents the appointment database model
type Appointment struct {
	ID              uuid.UUID  `db:"id"`
	OrganizationID  uuid.UUID  `db:"organization_id"`
	AssignedTo      uuid.UUID  `db:"assigned_to"`
	LeadID          *uuid.UUID `db:"lead_id"`
	Title           string     `db:"title"`
	Description     *string    `db:"description"`
	Location        *string    `db:"location"`
	StartTime       time.Time  `db:"start_time"`
	EndTime         time.Time  `db:"end_time"`
	Status          string     `db:"status"`
	ReminderMinutes int        `db:"reminder_minutes"`
	CreatedBy       *uuid.UUID `db:"created_by"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// LeadInfo represents basic lead information for embedding in appointment responses
type LeadInfo struct {
	ID       uuid.UUID
	FullName string
	Phone    string
	Company  string
}

// Store is the persistence contract of the appointments service.
type Store interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, appt *Appointment) error
	UpdateStatus(ctx context.Context, id, organizationID uuid.UUID, status string) error
	Delete(ctx context.Context, id, organizationID uuid.UUID) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	ListForDateRange(ctx context.Context, organizationID, assignedTo uuid.UUID, start, end time.Time) ([]Appointment, error)
	GetLeadInfoBatch(ctx context.Context, leadIDs []uuid.UUID, organizationID uuid.UUID) (map[uuid.UUID]*LeadInfo, error)
}

// Repository provides database operations for appointments
type Repository struct {
	pool *pgxpool.Pool
}

const appointmentNotFoundMsg = "appointment not found"

const appointmentColumns = `id, organization_id, assigned_to, lead_id, title, description, location,
	start_time, end_time, status, reminder_minutes, created_by, created_at, updated_at`

// New creates a new appointments repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	err := row.Scan(
		&appt.ID, &appt.OrganizationID, &appt.AssignedTo, &appt.LeadID, &appt.Title, &appt.Description,
		&appt.Location, &appt.StartTime, &appt.EndTime, &appt.Status, &appt.ReminderMinutes,
		&appt.CreatedBy, &appt.CreatedAt, &appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// Create inserts a new appointment
func (r *Repository) Create(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO crm_appointments (
			id, organization_id, assigned_to, lead_id, title, description, location,
			start_time, end_time, status, reminder_minutes, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	_, err := r.pool.Exec(ctx, query,
		appt.ID, appt.OrganizationID, appt.AssignedTo, appt.LeadID, appt.Title, appt.Description,
		appt.Location, appt.StartTime, appt.EndTime, appt.Status, appt.ReminderMinutes,
		appt.CreatedBy, appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	return nil
}

// GetByID retrieves an appointment by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM crm_appointments WHERE id = $1 AND organization_id = $2`

	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(appointmentNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return appt, nil
}

// Update writes every editable field of appt
func (r *Repository) Update(ctx context.Context, appt *Appointment) error {
	query := `
		UPDATE crm_appointments SET
			assigned_to = $3,
			lead_id = $4,
			title = $5,
			description = $6,
			location = $7,
			start_time = $8,
			end_time = $9,
			reminder_minutes = $10,
			updated_at = $11
		WHERE id = $1 AND organization_id = $2`

	result, err := r.pool.Exec(ctx, query,
		appt.ID, appt.OrganizationID, appt.AssignedTo, appt.LeadID, appt.Title, appt.Description,
		appt.Location, appt.StartTime, appt.EndTime, appt.ReminderMinutes, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(appointmentNotFoundMsg)
	}

	return nil
}

// UpdateStatus updates the status of an appointment
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, status string) error {
	query := `UPDATE crm_appointments SET status = $3, updated_at = $4 WHERE id = $1 AND organization_id = $2`

	result, err := r.pool.Exec(ctx, query, id, organizationID, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(appointmentNotFoundMsg)
	}

	return nil
}

// Delete removes an appointment
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error {
	query := `DELETE FROM crm_appointments WHERE id = $1 AND organization_id = $2`

	result, err := r.pool.Exec(ctx, query, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(appointmentNotFoundMsg)
	}

	return nil
}

// ListParams contains parameters for listing appointments
type ListParams struct {
	OrganizationID uuid.UUID
	AssignedTo     *uuid.UUID
	LeadID         *uuid.UUID
	Status         *string
	StartFrom      *time.Time
	StartTo        *time.Time
	Search         string
	SortBy         string
	SortOrder      string
	Page           int
	PageSize       int
}

// ListResult contains the result of listing appointments
type ListResult struct {
	Items      []Appointment
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

func buildListFilter(params ListParams) (string, []interface{}, int) {
	baseQuery := `FROM crm_appointments WHERE organization_id = $1`
	args := []interface{}{params.OrganizationID}
	argIndex := 2

	addFilter(&baseQuery, &args, &argIndex, params.AssignedTo != nil, " AND assigned_to = $%d", derefUUID(params.AssignedTo))
	addFilter(&baseQuery, &args, &argIndex, params.LeadID != nil, " AND lead_id = $%d", derefUUID(params.LeadID))
	addFilter(&baseQuery, &args, &argIndex, params.Status != nil, " AND status = $%d", derefString(params.Status))
	addFilter(&baseQuery, &args, &argIndex, params.StartFrom != nil, " AND start_time >= $%d", derefTime(params.StartFrom))
	addFilter(&baseQuery, &args, &argIndex, params.StartTo != nil, " AND start_time < $%d", derefTime(params.StartTo))
	addFilter(
		&baseQuery,
		&args,
		&argIndex,
		params.Search != "",
		" AND (title ILIKE $%[1]d OR location ILIKE $%[1]d)",
		db.ContainsPattern(params.Search),
	)
	return baseQuery, args, argIndex
}

func mapSort(sortBy, sortOrder string) (string, string, error) {
	orderBy := "start_time"
	if sortBy != "" {
		columnMap := map[string]string{
			"title":     "title",
			"status":    "status",
			"startTime": "start_time",
			"endTime":   "end_time",
			"createdAt": "created_at",
		}
		col, ok := columnMap[sortBy]
		if !ok {
			return "", "", apperr.BadRequest("invalid sort field")
		}
		orderBy = col
	}

	switch strings.ToLower(sortOrder) {
	case "", "asc":
		return orderBy, "ASC", nil
	case "desc":
		return orderBy, "DESC", nil
	default:
		return "", "", apperr.BadRequest("invalid sort order")
	}
}

// List retrieves appointments with optional filtering
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	orderBy, sortDir, err := mapSort(params.SortBy, params.SortOrder)
	if err != nil {
		return nil, err
	}

	baseQuery, args, argIndex := buildListFilter(params)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	offset := (params.Page - 1) * params.PageSize

	selectQuery := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d`,
		appointmentColumns, baseQuery, orderBy, sortDir, argIndex, argIndex+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	items := make([]Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		items = append(items, *appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetLeadInfoBatch retrieves lead info for multiple lead IDs
func (r *Repository) GetLeadInfoBatch(ctx context.Context, leadIDs []uuid.UUID, organizationID uuid.UUID) (map[uuid.UUID]*LeadInfo, error) {
	if len(leadIDs) == 0 {
		return make(map[uuid.UUID]*LeadInfo), nil
	}

	query := `SELECT id, full_name, COALESCE(phone, ''), COALESCE(company, '')
		FROM crm_leads WHERE id = ANY($1) AND organization_id = $2 AND deleted_at IS NULL`

	rows, err := r.pool.Query(ctx, query, leadIDs, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lead info batch: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]*LeadInfo)
	for rows.Next() {
		var info LeadInfo
		if err := rows.Scan(&info.ID, &info.FullName, &info.Phone, &info.Company); err != nil {
			return nil, fmt.Errorf("failed to scan lead info: %w", err)
		}
		result[info.ID] = &info
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
	}

	return result, nil
}

// ListForDateRange returns the scheduled appointments of one member that
// overlap [startDate, endDate).
func (r *Repository) ListForDateRange(ctx context.Context, organizationID uuid.UUID, assignedTo uuid.UUID, startDate, endDate time.Time) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM crm_appointments
		WHERE organization_id = $1 AND assigned_to = $2
		AND start_time < $4 AND end_time > $3
		AND status = 'scheduled'
		ORDER BY start_time ASC`

	rows, err := r.pool.Query(ctx, query, organizationID, assignedTo, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments for date range: %w", err)
	}
	defer rows.Close()

	items := make([]Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		items = append(items, *appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return items, nil
}

// ToResponse converts an Appointment to AppointmentResponse
func (a *Appointment) ToResponse(leadInfo *LeadInfo) transport.AppointmentResponse {
	resp := transport.AppointmentResponse{
		ID:              a.ID,
		AssignedTo:      a.AssignedTo,
		LeadID:          a.LeadID,
		Title:           a.Title,
		Description:     a.Description,
		Location:        a.Location,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		Status:          transport.AppointmentStatus(a.Status),
		ReminderMinutes: a.ReminderMinutes,
		CreatedBy:       a.CreatedBy,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if leadInfo != nil {
		resp.Lead = &transport.AppointmentLeadInfo{
			ID:       leadInfo.ID,
			FullName: leadInfo.FullName,
			Phone:    leadInfo.Phone,
			Company:  leadInfo.Company,
		}
	}
	return resp
}

// ReminderAt is when the assignee should be reminded.
func (a *Appointment) ReminderAt() time.Time {
	return a.StartTime.Add(-time.Duration(a.ReminderMinutes) * time.Minute)
}

func addFilter(baseQuery *string, args *[]interface{}, argIndex *int, apply bool, clause string, value interface{}) {
	if !apply {
		return
	}
	*baseQuery += fmt.Sprintf(clause, *argIndex)
	*args = append(*args, value)
	*argIndex++
}

func derefUUID(value *uuid.UUID) uuid.UUID {
	if value == nil {
		return uuid.UUID{}
	}
	return *value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func derefTime(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return *value
}
