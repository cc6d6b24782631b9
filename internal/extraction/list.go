package extraction

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"campreg/internal/registration"
	"campreg/pkg/domerrors"
)

// ListExtractor parses an uploaded plain-text roster, one person per line:
//
//	full name, age, gender[, sibling|cook]
//
// It backs local development and automated tests until a vision extractor is
// configured; CAMPREG_EXTRACTOR selects it.
type ListExtractor struct{}

func (ListExtractor) ExtractPersons(_ context.Context, image []byte) (registration.Roster, error) {
	var roster registration.Roster
	for n, line := range strings.Split(string(image), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			return registration.Roster{}, lineError(n, "expected name, age, gender")
		}
		name := strings.TrimSpace(fields[0])
		age, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return registration.Roster{}, lineError(n, "age is not a number")
		}
		gender, err := parseGender(strings.TrimSpace(fields[2]))
		if err != nil {
			return registration.Roster{}, lineError(n, err.Error())
		}

		role := ""
		if len(fields) > 3 {
			role = strings.ToLower(strings.TrimSpace(fields[3]))
		}
		switch role {
		case "":
			roster.Delegates = append(roster.Delegates, registration.Delegate{
				FullName: name, Age: age, Gender: gender,
			})
		case "sibling":
			roster.Delegates = append(roster.Delegates, registration.Delegate{
				FullName: name, Age: age, Gender: gender, IsSibling: true,
			})
		case "cook":
			roster.Cooks = append(roster.Cooks, registration.Cook{
				FullName: name, Age: age, Gender: gender,
			})
		default:
			return registration.Roster{}, lineError(n, "unknown role "+strconv.Quote(role))
		}
	}
	return roster, nil
}

func parseGender(raw string) (registration.Gender, error) {
	switch strings.ToUpper(raw) {
	case "M", "MALE":
		return registration.GenderMale, nil
	case "F", "FEMALE":
		return registration.GenderFemale, nil
	default:
		return "", fmt.Errorf("unknown gender %q", raw)
	}
}

func lineError(index int, msg string) error {
	return domerrors.NewReason(domerrors.CodeValidation, "unreadable_list",
		fmt.Sprintf("line %d: %s", index+1, msg))
}
