package scheduling

import (
	"fmt"
	"time"

	"github.com/policlinic/clinic/internal/platform/reporting"
)

// Professional maps to the professionals table.
type Professional struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Specialty *string   `db:"specialty" json:"specialty,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Patient maps to the patients table.
type Patient struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Appointment maps to the appointments table. Specialty is read from the
// professional and is never written.
type Appointment struct {
	ID             int64     `db:"id" json:"id"`
	ScheduledAt    time.Time `db:"scheduled_at" json:"scheduled_at"`
	Status         string    `db:"status" json:"status"`
	ProfessionalID int64     `db:"professional_id" json:"professional_id"`
	PatientID      int64     `db:"patient_id" json:"patient_id"`
	Specialty      *string   `db:"specialty" json:"specialty,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ToRecord converts the row into the read-only snapshot used by reports.
func (a *Appointment) ToRecord() (reporting.AppointmentRecord, error) {
	status, err := reporting.ParseStatus(a.Status)
	if err != nil {
		return reporting.AppointmentRecord{}, fmt.Errorf("appointment %d: %w", a.ID, err)
	}
	return reporting.AppointmentRecord{
		ID:             a.ID,
		Timestamp:      a.ScheduledAt,
		Status:         status,
		Specialty:      a.Specialty,
		ProfessionalID: a.ProfessionalID,
		PatientID:      a.PatientID,
	}, nil
}

// Cancellation maps to the cancellations table. ProfessionalID and Specialty
// come from the canceled appointment.
type Cancellation struct {
	ID             int64     `db:"id" json:"id"`
	CanceledAt     time.Time `db:"canceled_at" json:"canceled_at"`
	RequestedBy    *string   `db:"requested_by" json:"requested_by,omitempty"`
	CanceledByUser *int64    `db:"canceled_by_user" json:"canceled_by_user,omitempty"`
	AppointmentID  int64     `db:"appointment_id" json:"appointment_id"`
	Reason         *string   `db:"reason" json:"reason,omitempty"`
	ProfessionalID int64     `db:"professional_id" json:"professional_id"`
	Specialty      *string   `db:"specialty" json:"specialty,omitempty"`
}

// ToRecord converts the row into the read-only snapshot used by reports. A
// missing requester is reported as the patient.
func (c *Cancellation) ToRecord() (reporting.CancellationRecord, error) {
	requester, err := reporting.ParseRequester(c.RequestedBy)
	if err != nil {
		return reporting.CancellationRecord{}, fmt.Errorf("cancellation %d: %w", c.ID, err)
	}
	return reporting.CancellationRecord{
		ID:             c.ID,
		Timestamp:      c.CanceledAt,
		RequestedBy:    requester,
		CanceledByUser: c.CanceledByUser,
		AppointmentID:  c.AppointmentID,
		ProfessionalID: c.ProfessionalID,
		Specialty:      c.Specialty,
		Reason:         c.Reason,
	}, nil
}
