// Package report builds read-only rollups over batches. It adds no
// invariants of its own; everything here is a fold over what the
// registration store returns.
package report

import "campreg/internal/registration"

// GroupCounts are participant counts plus the fee sum for one grouping.
type GroupCounts struct {
	Batches   int   `json:"batches"`
	Delegates int   `json:"delegates"`
	Siblings  int   `json:"siblings"`
	Cooks     int   `json:"cooks"`
	TotalFee  int64 `json:"total_fee"`
}

func (g *GroupCounts) add(rec registration.BatchRecord) {
	g.Batches++
	g.Delegates += rec.Roster.RegularCount()
	g.Siblings += rec.Roster.SiblingCount()
	g.Cooks += len(rec.Roster.Cooks)
	g.TotalFee += rec.TotalFee
}

// Summary is the aggregation view over a filtered set of batches. Approved
// figures count approved batches only; ApprovedFeeTotal is the money actually
// owed.
type Summary struct {
	Total            GroupCounts            `json:"total"`
	Approved         GroupCounts            `json:"approved"`
	ApprovedFeeTotal int64                  `json:"approved_fee_total"`
	ByStatus         map[string]GroupCounts `json:"by_status"`
	ByDivision       map[string]GroupCounts `json:"by_division"`
}

// Summarize folds batch records into a summary. divisionOf maps a church to
// its division; unknown churches group under "unassigned". Empty input yields
// a zeroed summary, not an error.
func Summarize(records []registration.BatchRecord, divisionOf func(churchID string) string) Summary {
	summary := Summary{
		ByStatus:   make(map[string]GroupCounts),
		ByDivision: make(map[string]GroupCounts),
	}
	for _, rec := range records {
		summary.Total.add(rec)

		byStatus := summary.ByStatus[string(rec.Status)]
		byStatus.add(rec)
		summary.ByStatus[string(rec.Status)] = byStatus

		division := "unassigned"
		if divisionOf != nil {
			if d := divisionOf(rec.ChurchID); d != "" {
				division = d
			}
		}
		byDivision := summary.ByDivision[division]
		byDivision.add(rec)
		summary.ByDivision[division] = byDivision

		if rec.Status == registration.BatchApproved {
			summary.Approved.add(rec)
		}
	}
	summary.ApprovedFeeTotal = summary.Approved.TotalFee
	return summary
}
