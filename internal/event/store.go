package event

import "context"

// Store is interface-driven so services stay testable against the in-memory
// implementation while production runs on PostgreSQL.
type Store interface {
	Save(ctx context.Context, ev Event) error
	Update(ctx context.Context, ev Event) error
	FindByID(ctx context.Context, id string) (Event, error)
	List(ctx context.Context) ([]Event, error)
	Delete(ctx context.Context, id string) error
}
