// Package registration implements the registration and approval workflow
// engine: fee resolution, roster validation, batch submission, and the
// review state machine.
package registration

import "time"

// BatchStatus is the review disposition of a single batch.
type BatchStatus string

const (
	// BatchPending awaits admin review. Only pending batches are mutable.
	BatchPending BatchStatus = "PENDING"
	// BatchApproved is terminal. Approved rosters count toward totals.
	BatchApproved BatchStatus = "APPROVED"
	// BatchRejected is terminal and retained for audit.
	BatchRejected BatchStatus = "REJECTED"
	// BatchWithdrawn is terminal; a president cancelled the batch before
	// review. Withdrawn batches never count toward aggregates.
	BatchWithdrawn BatchStatus = "WITHDRAWN"
)

// Terminal reports whether no further transition is allowed.
func (s BatchStatus) Terminal() bool {
	return s == BatchApproved || s == BatchRejected || s == BatchWithdrawn
}

// RegistrationStatus is the derived, registration-level rollup. It is never
// stored; DeriveStatus computes it from the batches.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "PENDING"
	RegistrationApproved RegistrationStatus = "APPROVED"
	RegistrationRejected RegistrationStatus = "REJECTED"
)

// Gender of a roster person.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Delegate is one roster row. A sibling-flagged delegate is stored alongside
// regular delegates but billed at the discounted rate once the batch carries
// at least three siblings.
type Delegate struct {
	FullName  string `json:"full_name" validate:"required,max=100"`
	Nickname  string `json:"nickname,omitempty" validate:"max=50"`
	Age       int    `json:"age" validate:"min=1,max=120"`
	Gender    Gender `json:"gender" validate:"required,oneof=MALE FEMALE"`
	IsSibling bool   `json:"is_sibling"`
}

// Cook is one roster row. Cooks are never sibling-discounted and are billed
// at the event's flat cook fee.
type Cook struct {
	FullName string `json:"full_name" validate:"required,max=100"`
	Nickname string `json:"nickname,omitempty" validate:"max=50"`
	Age      int    `json:"age" validate:"min=1,max=120"`
	Gender   Gender `json:"gender" validate:"required,oneof=MALE FEMALE"`
}

// Roster is the set of people attached to one batch.
type Roster struct {
	Delegates []Delegate `json:"delegates"`
	Cooks     []Cook     `json:"cooks"`
}

// RegularCount returns the number of non-sibling delegates.
func (r Roster) RegularCount() int {
	n := 0
	for _, d := range r.Delegates {
		if !d.IsSibling {
			n++
		}
	}
	return n
}

// SiblingCount returns the number of sibling-flagged delegates.
func (r Roster) SiblingCount() int {
	n := 0
	for _, d := range r.Delegates {
		if d.IsSibling {
			n++
		}
	}
	return n
}

// Size returns the total number of people on the roster.
func (r Roster) Size() int {
	return len(r.Delegates) + len(r.Cooks)
}

// Batch is the atomic, independently reviewable unit of submission. Fee
// figures are stamped at submission time and immutable once the batch leaves
// PENDING.
type Batch struct {
	ID             string      `json:"id"`
	RegistrationID string      `json:"registration_id"`
	BatchNumber    int         `json:"batch_number"`
	Roster         Roster      `json:"roster"`
	ReceiptURL     string      `json:"receipt_url"`
	FeeType        FeeType     `json:"fee_type"`
	FeePerDelegate int64       `json:"fee_per_delegate"`
	FeePerSibling  int64       `json:"fee_per_sibling"`
	FeePerCook     int64       `json:"fee_per_cook"`
	TotalFee       int64       `json:"total_fee"`
	Status         BatchStatus `json:"status"`
	Remarks        string      `json:"remarks,omitempty"`
	SubmittedBy    string      `json:"submitted_by"`
	SubmittedAt    time.Time   `json:"submitted_at"`
	ReviewerID     string      `json:"reviewer_id,omitempty"`
	ReviewedAt     *time.Time  `json:"reviewed_at,omitempty"`
}

// Registration is the per-(church, event) container of batches. Status is
// derived, never stored.
type Registration struct {
	ID        string    `json:"id"`
	ChurchID  string    `json:"church_id"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
	Batches   []Batch   `json:"batches,omitempty"`
}

// Decision is an admin's review verdict for a pending batch.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)
