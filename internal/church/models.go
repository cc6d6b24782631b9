// Package church holds the organizational reference data: divisions,
// churches, and their presidents. Plain CRUD except for the dependency guards
// that protect registration audit history.
package church

import "time"

// Division groups churches for reporting breakdowns.
type Division struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=100"`
	Code      string    `json:"code" validate:"required,max=10"`
	CreatedAt time.Time `json:"created_at"`
}

// Church is a congregation that registers delegations for events.
type Church struct {
	ID         string    `json:"id"`
	DivisionID string    `json:"division_id" validate:"required"`
	Name       string    `json:"name" validate:"required,max=150"`
	PastorName string    `json:"pastor_name,omitempty" validate:"max=100"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// President is the church representative who submits batches.
type President struct {
	ID        string    `json:"id"`
	ChurchID  string    `json:"church_id" validate:"required"`
	FullName  string    `json:"full_name" validate:"required,max=100"`
	Email     string    `json:"email,omitempty" validate:"omitempty,email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
