package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/policlinic/clinic/internal/platform/db"
	"github.com/policlinic/clinic/internal/platform/reporting"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func connFor(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// reportFilter appends the range and dimension filters of q to query. The
// time column is compared half-open; specialty is matched case-insensitively
// on the professional.
func reportFilter(query, timeCol, profCol string, q reporting.FetchQuery) (string, []interface{}) {
	args := []interface{}{q.From, q.To}
	query += fmt.Sprintf(` WHERE %s >= $1 AND %s < $2`, timeCol, timeCol)
	idx := 3

	if q.ProfessionalID != nil {
		query += fmt.Sprintf(` AND %s = $%d`, profCol, idx)
		args = append(args, *q.ProfessionalID)
		idx++
	}
	if q.Specialty != nil && *q.Specialty != "" {
		query += fmt.Sprintf(` AND LOWER(p.specialty) = LOWER($%d)`, idx)
		args = append(args, *q.Specialty)
	}
	return query, args
}

// =========== Professional Repository ===========

type professionalRepoPG struct{ pool *pgxpool.Pool }

func NewProfessionalRepoPG(pool *pgxpool.Pool) ProfessionalRepository {
	return &professionalRepoPG{pool: pool}
}

func (r *professionalRepoPG) Create(ctx context.Context, p *Professional) error {
	return connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO professionals (name, specialty)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		p.Name, p.Specialty).Scan(&p.ID, &p.CreatedAt)
}

func (r *professionalRepoPG) List(ctx context.Context) ([]*Professional, error) {
	rows, err := connFor(ctx, r.pool).Query(ctx, `SELECT id, name, specialty, created_at FROM professionals ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Professional
	for rows.Next() {
		var p Professional
		if err := rows.Scan(&p.ID, &p.Name, &p.Specialty, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	return items, rows.Err()
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	return connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patients (name, email)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		p.Name, p.Email).Scan(&p.ID, &p.CreatedAt)
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const apptSelect = `SELECT a.id, a.scheduled_at, a.status, a.professional_id, a.patient_id,
	p.specialty, a.created_at
	FROM appointments a
	JOIN professionals p ON p.id = a.professional_id`

func (r *appointmentRepoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.ScheduledAt, &a.Status, &a.ProfessionalID, &a.PatientID,
		&a.Specialty, &a.CreatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	return connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO appointments (scheduled_at, status, professional_id, patient_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		a.ScheduledAt, a.Status, a.ProfessionalID, a.PatientID).Scan(&a.ID, &a.CreatedAt)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	a, err := r.scanAppt(connFor(ctx, r.pool).QueryRow(ctx, apptSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("appointment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := connFor(ctx, r.pool).Exec(ctx, `UPDATE appointments SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("appointment %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *appointmentRepoPG) ListBetween(ctx context.Context, q reporting.FetchQuery) ([]*Appointment, error) {
	query, args := reportFilter(apptSelect, "a.scheduled_at", "a.professional_id", q)
	query += ` ORDER BY a.scheduled_at, a.id`

	rows, err := connFor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// =========== Cancellation Repository ===========

type cancellationRepoPG struct{ pool *pgxpool.Pool }

func NewCancellationRepoPG(pool *pgxpool.Pool) CancellationRepository {
	return &cancellationRepoPG{pool: pool}
}

const cancelSelect = `SELECT c.id, c.canceled_at, c.requested_by, c.canceled_by_user,
	c.appointment_id, c.reason, a.professional_id, p.specialty
	FROM cancellations c
	JOIN appointments a ON a.id = c.appointment_id
	JOIN professionals p ON p.id = a.professional_id`

func (r *cancellationRepoPG) Create(ctx context.Context, c *Cancellation) error {
	return connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO cancellations (canceled_at, requested_by, canceled_by_user, appointment_id, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		c.CanceledAt, c.RequestedBy, c.CanceledByUser, c.AppointmentID, c.Reason).Scan(&c.ID)
}

func (r *cancellationRepoPG) ListBetween(ctx context.Context, q reporting.FetchQuery) ([]*Cancellation, error) {
	query, args := reportFilter(cancelSelect, "c.canceled_at", "a.professional_id", q)
	query += ` ORDER BY c.canceled_at, c.id`

	rows, err := connFor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Cancellation
	for rows.Next() {
		var c Cancellation
		if err := rows.Scan(&c.ID, &c.CanceledAt, &c.RequestedBy, &c.CanceledByUser,
			&c.AppointmentID, &c.Reason, &c.ProfessionalID, &c.Specialty); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}
