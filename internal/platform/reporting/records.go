package reporting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidStatus    = errors.New("invalid appointment status")
	ErrInvalidRequester = errors.New("invalid cancellation requester")
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusWaiting   Status = "WAITING"
	StatusAttended  Status = "ATTENDED"
	StatusNoShow    Status = "NO_SHOW"
	StatusCanceled  Status = "CANCELED"
)

var validStatuses = map[Status]bool{
	StatusScheduled: true,
	StatusWaiting:   true,
	StatusAttended:  true,
	StatusNoShow:    true,
	StatusCanceled:  true,
}

// ParseStatus converts a stored status string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !validStatuses[st] {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Requester identifies who asked for a cancellation.
type Requester string

const (
	RequesterPatient      Requester = "PATIENT"
	RequesterProfessional Requester = "PROFESSIONAL"
)

// Requesters lists every known requester in enumeration order.
var Requesters = []Requester{RequesterPatient, RequesterProfessional}

// orPatient folds empty and unknown requesters into PATIENT so that every
// cancellation is counted under exactly one known origin.
func (r Requester) orPatient() Requester {
	if r == RequesterProfessional {
		return r
	}
	return RequesterPatient
}

// ParseRequester converts a stored requester. Unset values default to PATIENT.
func ParseRequester(s *string) (Requester, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return RequesterPatient, nil
	}
	r := Requester(strings.ToUpper(strings.TrimSpace(*s)))
	for _, known := range Requesters {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRequester, *s)
}

// AppointmentRecord is a read-only snapshot of an appointment row.
type AppointmentRecord struct {
	ID             int64
	Timestamp      time.Time
	Status         Status
	Specialty      *string
	ProfessionalID int64
	PatientID      int64
}

// CancellationRecord is a read-only snapshot of a cancellation row. The
// professional and specialty belong to the linked appointment.
type CancellationRecord struct {
	ID             int64
	Timestamp      time.Time
	RequestedBy    Requester
	CanceledByUser *int64
	AppointmentID  int64
	ProfessionalID int64
	Specialty      *string
	Reason         *string
}
