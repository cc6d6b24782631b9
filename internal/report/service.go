package report

import (
	"context"

	"campreg/internal/church"
	"campreg/internal/registration"
	"campreg/pkg/domerrors"
)

// BatchLister is the slice of the registration store the read side needs.
type BatchLister interface {
	ListBatchRecords(ctx context.Context, filter registration.Filter) ([]registration.BatchRecord, error)
}

// ChurchLister resolves churches to divisions for breakdowns.
type ChurchLister interface {
	ListChurches(ctx context.Context, divisionID string) ([]church.Church, error)
}

// Service computes summaries, consulting the cache first. A nil cache means
// every call computes directly.
type Service struct {
	batches  BatchLister
	churches ChurchLister
	cache    Cache
}

func NewService(batches BatchLister, churches ChurchLister, cache Cache) *Service {
	return &Service{batches: batches, churches: churches, cache: cache}
}

// SummaryFilter narrows a summary request. DivisionID filters after the
// church join since batches only know their church.
type SummaryFilter struct {
	registration.Filter
	DivisionID string
}

func (s *Service) Summarize(ctx context.Context, filter SummaryFilter) (Summary, error) {
	if s.cache != nil && filter.DivisionID == "" {
		if summary, ok := s.cache.Get(ctx, filter.Filter); ok {
			return summary, nil
		}
	}

	records, err := s.batches.ListBatchRecords(ctx, filter.Filter)
	if err != nil {
		return Summary{}, domerrors.Wrap(domerrors.CodeInternal, "", "list batch records", err)
	}

	divisionOf, err := s.divisionIndex(ctx)
	if err != nil {
		return Summary{}, err
	}
	if filter.DivisionID != "" {
		filtered := records[:0]
		for _, rec := range records {
			if divisionOf(rec.ChurchID) == filter.DivisionID {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	summary := Summarize(records, divisionOf)
	if s.cache != nil && filter.DivisionID == "" {
		s.cache.Set(ctx, filter.Filter, summary)
	}
	return summary, nil
}

func (s *Service) divisionIndex(ctx context.Context) (func(string) string, error) {
	churches, err := s.churches.ListChurches(ctx, "")
	if err != nil {
		return nil, domerrors.Wrap(domerrors.CodeInternal, "", "list churches", err)
	}
	index := make(map[string]string, len(churches))
	for _, c := range churches {
		index[c.ID] = c.DivisionID
	}
	return func(churchID string) string { return index[churchID] }, nil
}
