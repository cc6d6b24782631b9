package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp   time.Time
	ActorID     string
	Action      string
	SubjectType string
	SubjectID   string
	Outcome     string
	Detail      string
}

// Actions recorded by the registration engine. Denied transitions are
// recorded too; audit review needs the refusals as much as the approvals.
const (
	ActionSubmitBatch   = "submit_batch"
	ActionEditBatch     = "edit_batch"
	ActionApproveBatch  = "approve_batch"
	ActionRejectBatch   = "reject_batch"
	ActionCancelBatch   = "cancel_batch"
	ActionDeniedChange  = "denied_change"
	ActionDeleteBlocked = "delete_blocked"
)

const (
	OutcomeOK     = "ok"
	OutcomeDenied = "denied"
)
