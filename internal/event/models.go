// Package event holds the event reference data the registration engine
// prices against. Events carry the time windows and fee figures; they have no
// knowledge of individual registrations.
package event

import (
	"time"

	"campreg/pkg/domerrors"
)

// Status is the coarse event lifecycle, independent of registration activity.
type Status string

const (
	StatusUpcoming  Status = "UPCOMING"
	StatusOngoing   Status = "ONGOING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var validStatuses = map[Status]bool{
	StatusUpcoming:  true,
	StatusOngoing:   true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// Event is a time-boxed camp with its registration windows and fee figures.
// All fees are non-negative integer currency units (centavos).
type Event struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name" validate:"required,max=150"`
	Location             string    `json:"location,omitempty" validate:"max=200"`
	Description          string    `json:"description,omitempty"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	PreRegStart          time.Time `json:"pre_reg_start"`
	PreRegEnd            time.Time `json:"pre_reg_end"`
	PreRegFee            int64     `json:"pre_reg_fee" validate:"min=0"`
	PreRegSiblingFee     int64     `json:"pre_reg_sibling_fee" validate:"min=0"`
	OnsiteFee            int64     `json:"onsite_fee" validate:"min=0"`
	OnsiteSiblingFee     int64     `json:"onsite_sibling_fee" validate:"min=0"`
	CookFee              int64     `json:"cook_fee" validate:"min=0"`
	Status               Status    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Validate enforces the structural invariants on the event's dates and fees.
func (e Event) Validate() error {
	if e.Name == "" {
		return domerrors.NewReason(domerrors.CodeValidation, "name_required", "event name is required")
	}
	if !validStatuses[e.Status] {
		return domerrors.NewReason(domerrors.CodeValidation, "invalid_status", "unknown event status: "+string(e.Status))
	}
	if e.EndDate.Before(e.StartDate) {
		return domerrors.NewReason(domerrors.CodeValidation, "date_order", "end date must not precede start date")
	}
	if e.PreRegEnd.Before(e.PreRegStart) {
		return domerrors.NewReason(domerrors.CodeValidation, "prereg_window_order", "pre-registration window end must not precede its start")
	}
	if e.PreRegEnd.After(e.StartDate) {
		return domerrors.NewReason(domerrors.CodeValidation, "prereg_window_order", "pre-registration window must close by the event start")
	}
	for _, fee := range []int64{e.PreRegFee, e.PreRegSiblingFee, e.OnsiteFee, e.OnsiteSiblingFee, e.CookFee} {
		if fee < 0 {
			return domerrors.NewReason(domerrors.CodeValidation, "negative_fee", "fees must be non-negative")
		}
	}
	return nil
}
