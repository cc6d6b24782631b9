package registration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"campreg/internal/event"
)

func feeEvent() event.Event {
	return event.Event{
		ID:                   "ev-1",
		PreRegStart:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PreRegEnd:            time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
		RegistrationDeadline: time.Date(2026, 4, 10, 23, 59, 59, 0, time.UTC),
		PreRegFee:            40000,
		PreRegSiblingFee:     30000,
		OnsiteFee:            50000,
		OnsiteSiblingFee:     40000,
		CookFee:              20000,
	}
}

func TestResolveFeeWindowBoundaries(t *testing.T) {
	ev := feeEvent()

	cases := []struct {
		name string
		now  time.Time
		want FeeType
	}{
		{"before window opens", ev.PreRegStart.Add(-time.Second), FeeOnSite},
		{"exactly at window start", ev.PreRegStart, FeePreRegistration},
		{"inside window", ev.PreRegStart.AddDate(0, 0, 10), FeePreRegistration},
		{"exactly at window end", ev.PreRegEnd, FeePreRegistration},
		{"one second after window end", ev.PreRegEnd.Add(time.Second), FeeOnSite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quote := ResolveFee(ev, tc.now)
			assert.Equal(t, tc.want, quote.FeeType)
		})
	}
}

func TestResolveFeeQuoteFigures(t *testing.T) {
	ev := feeEvent()

	pre := ResolveFee(ev, ev.PreRegStart)
	assert.Equal(t, ev.PreRegFee, pre.DelegateFee)
	assert.Equal(t, ev.PreRegSiblingFee, pre.SiblingFee)
	assert.Equal(t, ev.CookFee, pre.CookFee)

	onsite := ResolveFee(ev, ev.PreRegEnd.Add(time.Hour))
	assert.Equal(t, ev.OnsiteFee, onsite.DelegateFee)
	assert.Equal(t, ev.OnsiteSiblingFee, onsite.SiblingFee)
	assert.Equal(t, ev.CookFee, onsite.CookFee)
}

func TestTotalAppliesSiblingDiscountAtThreshold(t *testing.T) {
	quote := FeeQuote{
		FeeType:     FeePreRegistration,
		DelegateFee: 500,
		SiblingFee:  400,
		CookFee:     300,
	}

	roster := Roster{
		Delegates: []Delegate{
			{FullName: "Ana Reyes", Age: 20, Gender: GenderFemale},
			{FullName: "Ben Cruz", Age: 22, Gender: GenderMale},
			{FullName: "Carla Reyes", Age: 14, Gender: GenderFemale, IsSibling: true},
			{FullName: "Dario Reyes", Age: 12, Gender: GenderMale, IsSibling: true},
			{FullName: "Elena Reyes", Age: 10, Gender: GenderFemale, IsSibling: true},
		},
		Cooks: []Cook{
			{FullName: "Fely Santos", Age: 45, Gender: GenderFemale},
		},
	}

	// 2 regular x 500 + 3 siblings x 400 + 1 cook x 300.
	assert.Equal(t, int64(2500), quote.Total(roster))
}

func TestTotalBillsSiblingsAsRegularBelowThreshold(t *testing.T) {
	quote := FeeQuote{DelegateFee: 500, SiblingFee: 400, CookFee: 300}

	roster := Roster{
		Delegates: []Delegate{
			{FullName: "Ana Reyes", Age: 20, Gender: GenderFemale},
			{FullName: "Carla Reyes", Age: 14, Gender: GenderFemale, IsSibling: true},
			{FullName: "Dario Reyes", Age: 12, Gender: GenderMale, IsSibling: true},
		},
	}

	// Below the threshold the sibling rate never applies. The validator
	// rejects this roster upstream; the pricing still must not discount it.
	assert.Equal(t, int64(1500), quote.Total(roster))
}

func TestTotalEmptyRoster(t *testing.T) {
	quote := FeeQuote{DelegateFee: 500, SiblingFee: 400, CookFee: 300}
	assert.Equal(t, int64(0), quote.Total(Roster{}))
}
