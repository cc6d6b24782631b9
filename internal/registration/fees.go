package registration

import (
	"time"

	"campreg/internal/event"
)

// FeeType labels which registration window priced a batch.
type FeeType string

const (
	FeePreRegistration FeeType = "pre-registration"
	FeeOnSite          FeeType = "on-site"
)

// MinSiblingsForDiscount is the roster-level threshold below which the
// sibling rate does not apply. Rosters with 1 or 2 siblings are rejected by
// the validator instead of silently billed at the regular rate.
const MinSiblingsForDiscount = 3

// FeeQuote carries the per-person figures that apply at a given moment.
type FeeQuote struct {
	FeeType     FeeType `json:"fee_type"`
	DelegateFee int64   `json:"delegate_fee"`
	SiblingFee  int64   `json:"sibling_fee"`
	CookFee     int64   `json:"cook_fee"`
}

// ResolveFee computes the fee tier for ev at now. Pure: no side effects and
// no error path. now must come from a trusted clock, never from the request,
// or a client could buy the early rate late. Deadline enforcement is the
// caller's job.
func ResolveFee(ev event.Event, now time.Time) FeeQuote {
	if inPreRegWindow(ev, now) {
		return FeeQuote{
			FeeType:     FeePreRegistration,
			DelegateFee: ev.PreRegFee,
			SiblingFee:  ev.PreRegSiblingFee,
			CookFee:     ev.CookFee,
		}
	}
	return FeeQuote{
		FeeType:     FeeOnSite,
		DelegateFee: ev.OnsiteFee,
		SiblingFee:  ev.OnsiteSiblingFee,
		CookFee:     ev.CookFee,
	}
}

// inPreRegWindow is inclusive on both ends.
func inPreRegWindow(ev event.Event, now time.Time) bool {
	return !now.Before(ev.PreRegStart) && !now.After(ev.PreRegEnd)
}

// Total prices a roster under the quote. The sibling rate only applies when
// the roster clears the threshold; below it siblings bill as regular
// delegates (the validator rejects 1-2 sibling rosters before this matters).
func (q FeeQuote) Total(roster Roster) int64 {
	siblingFee := q.DelegateFee
	if roster.SiblingCount() >= MinSiblingsForDiscount {
		siblingFee = q.SiblingFee
	}
	total := int64(roster.RegularCount())*q.DelegateFee +
		int64(roster.SiblingCount())*siblingFee +
		int64(len(roster.Cooks))*q.CookFee
	return total
}
