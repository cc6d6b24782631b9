package registration

// DeriveStatus folds the registration-level status from its batches. The
// status is computed at read time and never stored, so it cannot drift from
// the batch dispositions.
//
// Rules: REJECTED when the most recent non-withdrawn batch is rejected and
// nothing is approved or pending; APPROVED when at least one batch is
// approved and none is pending; PENDING otherwise. Withdrawn batches are
// invisible to the fold.
func DeriveStatus(batches []Batch) RegistrationStatus {
	var (
		anyPending  bool
		anyApproved bool
		latest      *Batch
	)
	for i := range batches {
		b := &batches[i]
		switch b.Status {
		case BatchWithdrawn:
			continue
		case BatchPending:
			anyPending = true
		case BatchApproved:
			anyApproved = true
		}
		if latest == nil || b.BatchNumber > latest.BatchNumber {
			latest = b
		}
	}
	switch {
	case anyPending:
		return RegistrationPending
	case anyApproved:
		return RegistrationApproved
	case latest != nil && latest.Status == BatchRejected:
		return RegistrationRejected
	default:
		return RegistrationPending
	}
}

// HasPendingWork reports whether any batch awaits review; such registrations
// appear in admin review queues.
func HasPendingWork(batches []Batch) bool {
	for i := range batches {
		if batches[i].Status == BatchPending {
			return true
		}
	}
	return false
}

// ApprovedTotals sums participant counts and fees over approved batches only.
func ApprovedTotals(batches []Batch) (delegates, siblings, cooks int, fee int64) {
	for i := range batches {
		b := &batches[i]
		if b.Status != BatchApproved {
			continue
		}
		delegates += b.Roster.RegularCount()
		siblings += b.Roster.SiblingCount()
		cooks += len(b.Roster.Cooks)
		fee += b.TotalFee
	}
	return delegates, siblings, cooks, fee
}
