package church

import "context"

// Store persists the organizational reference data.
type Store interface {
	SaveDivision(ctx context.Context, d Division) error
	FindDivision(ctx context.Context, id string) (Division, error)
	ListDivisions(ctx context.Context) ([]Division, error)

	SaveChurch(ctx context.Context, c Church) error
	UpdateChurch(ctx context.Context, c Church) error
	FindChurch(ctx context.Context, id string) (Church, error)
	ListChurches(ctx context.Context, divisionID string) ([]Church, error)
	DeleteChurch(ctx context.Context, id string) error

	SavePresident(ctx context.Context, p President) error
	UpdatePresident(ctx context.Context, p President) error
	FindPresident(ctx context.Context, id string) (President, error)
	ListPresidents(ctx context.Context, churchID string) ([]President, error)
}
