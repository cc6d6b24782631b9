package registration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"campreg/pkg/domerrors"
)

// Batch-level roster caps.
const (
	MaxDelegatesPerBatch = 100
	MaxCooksPerBatch     = 50
)

var validate = validator.New()

// ValidateRoster normalizes and validates a candidate roster in place.
// firstBatch selects the stricter non-emptiness rule for a registration's
// first submission. The same path serves manual entry and AI-extracted
// rosters; extraction output gets no trust shortcut.
func ValidateRoster(roster *Roster, firstBatch bool) error {
	for i := range roster.Delegates {
		normalizePerson(&roster.Delegates[i].FullName, &roster.Delegates[i].Nickname, (*string)(&roster.Delegates[i].Gender))
		if err := validate.Struct(roster.Delegates[i]); err != nil {
			return personError("delegate", i, roster.Delegates[i].FullName, err)
		}
	}
	for i := range roster.Cooks {
		normalizePerson(&roster.Cooks[i].FullName, &roster.Cooks[i].Nickname, (*string)(&roster.Cooks[i].Gender))
		if err := validate.Struct(roster.Cooks[i]); err != nil {
			return personError("cook", i, roster.Cooks[i].FullName, err)
		}
	}

	if len(roster.Delegates) > MaxDelegatesPerBatch {
		return domerrors.NewReason(domerrors.CodeValidation, "too_many_delegates",
			fmt.Sprintf("a batch holds at most %d delegates", MaxDelegatesPerBatch))
	}
	if len(roster.Cooks) > MaxCooksPerBatch {
		return domerrors.NewReason(domerrors.CodeValidation, "too_many_cooks",
			fmt.Sprintf("a batch holds at most %d cooks", MaxCooksPerBatch))
	}

	// Siblings exist only to receive the bulk discount, which takes at
	// least three. One or two must be removed or re-flagged as regular
	// delegates.
	if n := roster.SiblingCount(); n > 0 && n < MinSiblingsForDiscount {
		return domerrors.NewReason(domerrors.CodeValidation, "sibling_threshold",
			fmt.Sprintf("sibling discount requires at least %d siblings, got %d", MinSiblingsForDiscount, n))
	}

	if firstBatch {
		if roster.RegularCount() == 0 && roster.SiblingCount() < MinSiblingsForDiscount {
			return domerrors.NewReason(domerrors.CodeValidation, "roster_empty",
				"first batch needs at least one regular delegate or at least three siblings")
		}
	} else if roster.Size() == 0 {
		return domerrors.NewReason(domerrors.CodeValidation, "roster_empty",
			"batch must contain at least one person")
	}

	return nil
}

func normalizePerson(fullName, nickname, gender *string) {
	*fullName = strings.TrimSpace(*fullName)
	*nickname = strings.TrimSpace(*nickname)
	*gender = strings.ToUpper(strings.TrimSpace(*gender))
}

func personError(kind string, index int, name string, err error) error {
	label := name
	if label == "" {
		label = fmt.Sprintf("#%d", index+1)
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		return domerrors.NewReason(domerrors.CodeValidation, "invalid_person",
			fmt.Sprintf("%s %s: invalid %s", kind, label, strings.ToLower(fields[0].Field())))
	}
	return domerrors.NewReason(domerrors.CodeValidation, "invalid_person",
		fmt.Sprintf("%s %s: %v", kind, label, err))
}
