// Package extraction is the port to the external AI person-list extractor.
// Its output is untrusted input: candidate rosters go through the same
// validator as manually entered ones, never around it.
package extraction

import (
	"context"

	"campreg/internal/registration"
)

// Extractor turns a photographed list into candidate roster rows. The rows
// are suggestions for the client to confirm; nothing is persisted here.
type Extractor interface {
	ExtractPersons(ctx context.Context, image []byte) (registration.Roster, error)
}

// ValidateCandidate checks an extracted roster exactly the way a manual one
// is checked before submission.
func ValidateCandidate(roster registration.Roster, firstBatch bool) (registration.Roster, error) {
	if err := registration.ValidateRoster(&roster, firstBatch); err != nil {
		return registration.Roster{}, err
	}
	return roster, nil
}
