// Package listview keeps the page, filter and sort state of a list view and
// drives its fetches. Every transition issues exactly one fetch; responses
// that arrive after a newer transition was issued are discarded.
package listview

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/fareledger/internal/domain"
)

var (
	ErrUnknownFilter      = errors.New("listview: unknown filter")
	ErrInvalidFilterValue = errors.New("listview: invalid filter value")
	ErrUnknownSort        = errors.New("listview: unknown sort column")
	ErrInvalidPage        = errors.New("listview: page must be >= 1")
	ErrStale              = errors.New("listview: response superseded by a newer request")
)

// Query is the full parameter set of one fetch.
type Query struct {
	Page      int
	PageSize  int
	Filters   map[string]string
	SortBy    string
	SortOrder domain.SortOrder
}

// Clone returns a deep copy of q.
func (q Query) Clone() Query {
	q.Filters = maps.Clone(q.Filters)
	if q.Filters == nil {
		q.Filters = map[string]string{}
	}
	return q
}

// FetchFunc loads the page described by q.
type FetchFunc[T any] func(ctx context.Context, q Query) (domain.Page[T], error)

// State is a snapshot of a view.
type State[T any] struct {
	Query   Query
	Result  *domain.Page[T] // last applied successful page
	Err     error           // error of the last applied fetch
	Loading bool
	Seq     uint64 // sequence of the newest issued fetch
}

// Config fixes the shape of a view. An empty SortKeys disables sorting.
// ValidateFilter, when set, checks every non-empty value for a known key.
type Config struct {
	PageSize       int
	FilterKeys     []string
	SortKeys       []string
	ValidateFilter func(key, value string) error
	Logger         *zerolog.Logger
}

// View owns the query state of one list view.
type View[T any] struct {
	mu       sync.Mutex
	query    Query
	cfg      Config
	fetch    FetchFunc[T]
	issued   uint64
	applied  uint64
	result   *domain.Page[T]
	err      error
	logger   zerolog.Logger
	onChange func(State[T])
}

// New returns a view on page 1 with no filters. Nothing is fetched until
// Load or a transition is called.
func New[T any](cfg Config, fetch FetchFunc[T]) *View[T] {
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 50
	}
	return &View[T]{
		query: Query{
			Page:     1,
			PageSize: cfg.PageSize,
			Filters:  map[string]string{},
		},
		cfg:    cfg,
		fetch:  fetch,
		logger: logger.With().Str("component", "listview").Logger(),
	}
}

// OnChange registers fn to receive a snapshot after every state change. fn
// runs with the view locked and must not call back into it.
func (v *View[T]) OnChange(fn func(State[T])) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// State returns a snapshot of the view.
func (v *View[T]) State() State[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Load fetches the current query.
func (v *View[T]) Load(ctx context.Context) error {
	return v.transition(ctx, func(*Query) error { return nil })
}

// Refresh refetches the current query. It is the retry action of a failed load.
func (v *View[T]) Refresh(ctx context.Context) error {
	return v.transition(ctx, func(*Query) error { return nil })
}

// SetPage moves to page n. Out-of-range pages are left for the server to clamp.
func (v *View[T]) SetPage(ctx context.Context, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPage, n)
	}
	return v.transition(ctx, func(q *Query) error {
		q.Page = n
		return nil
	})
}

// NextPage moves forward when the last page reported a successor.
func (v *View[T]) NextPage(ctx context.Context) error {
	v.mu.Lock()
	page, ok := v.query.Page+1, v.result != nil && v.result.HasNext
	v.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: no next page", ErrInvalidPage)
	}
	return v.SetPage(ctx, page)
}

// PreviousPage moves back one page.
func (v *View[T]) PreviousPage(ctx context.Context) error {
	v.mu.Lock()
	page := v.query.Page - 1
	v.mu.Unlock()
	return v.SetPage(ctx, page)
}

// SetFilter sets key to value, or removes it when value is empty, and
// returns to page 1.
func (v *View[T]) SetFilter(ctx context.Context, key, value string) error {
	if !slices.Contains(v.cfg.FilterKeys, key) {
		return fmt.Errorf("%w: %q", ErrUnknownFilter, key)
	}
	if value != "" && v.cfg.ValidateFilter != nil {
		if err := v.cfg.ValidateFilter(key, value); err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidFilterValue, key, value, err)
		}
	}
	return v.transition(ctx, func(q *Query) error {
		if value == "" {
			delete(q.Filters, key)
		} else {
			q.Filters[key] = value
		}
		q.Page = 1
		return nil
	})
}

// ClearFilters removes every filter and returns to page 1.
func (v *View[T]) ClearFilters(ctx context.Context) error {
	return v.transition(ctx, func(q *Query) error {
		q.Filters = map[string]string{}
		q.Page = 1
		return nil
	})
}

// SetSort sorts by column ascending, or flips the direction when column is
// already the sort column, and returns to page 1.
func (v *View[T]) SetSort(ctx context.Context, column string) error {
	if !slices.Contains(v.cfg.SortKeys, column) {
		return fmt.Errorf("%w: %q", ErrUnknownSort, column)
	}
	return v.transition(ctx, func(q *Query) error {
		if q.SortBy == column {
			q.SortOrder = q.SortOrder.Toggle()
		} else {
			q.SortBy = column
			q.SortOrder = domain.SortAsc
		}
		q.Page = 1
		return nil
	})
}

// Apply replaces page, filters and sort in a single transition. Empty filter
// values are dropped; an empty SortBy clears the sort. PageSize is kept.
func (v *View[T]) Apply(ctx context.Context, q Query) error {
	if q.Page < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPage, q.Page)
	}
	filters := make(map[string]string, len(q.Filters))
	for key, value := range q.Filters {
		if !slices.Contains(v.cfg.FilterKeys, key) {
			return fmt.Errorf("%w: %q", ErrUnknownFilter, key)
		}
		if value == "" {
			continue
		}
		if v.cfg.ValidateFilter != nil {
			if err := v.cfg.ValidateFilter(key, value); err != nil {
				return fmt.Errorf("%w: %s=%q: %w", ErrInvalidFilterValue, key, value, err)
			}
		}
		filters[key] = value
	}
	order := q.SortOrder
	if q.SortBy != "" {
		if !slices.Contains(v.cfg.SortKeys, q.SortBy) {
			return fmt.Errorf("%w: %q", ErrUnknownSort, q.SortBy)
		}
		if order == "" {
			order = domain.SortAsc
		}
		if !order.Valid() {
			return fmt.Errorf("%w: order %q", ErrUnknownSort, order)
		}
	} else {
		order = ""
	}

	return v.transition(ctx, func(next *Query) error {
		next.Page = q.Page
		next.Filters = filters
		next.SortBy = q.SortBy
		next.SortOrder = order
		return nil
	})
}

func (v *View[T]) transition(ctx context.Context, mutate func(q *Query) error) error {
	v.mu.Lock()
	next := v.query.Clone()
	if err := mutate(&next); err != nil {
		v.mu.Unlock()
		return err
	}
	v.query = next
	v.issued++
	seq := v.issued
	params := next.Clone()
	v.notifyLocked()
	v.mu.Unlock()

	page, err := v.fetch(ctx, params)

	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.issued {
		v.logger.Debug().Uint64("seq", seq).Uint64("latest", v.issued).Msg("listview: discarding stale response")
		return ErrStale
	}

	v.applied = seq
	if err != nil {
		v.err = err
		v.notifyLocked()
		return err
	}

	v.err = nil
	v.result = &page
	if page.Page >= 1 {
		// The server clamps out-of-range pages.
		v.query.Page = page.Page
	}
	v.notifyLocked()
	return nil
}

func (v *View[T]) snapshotLocked() State[T] {
	s := State[T]{
		Query:   v.query.Clone(),
		Err:     v.err,
		Loading: v.applied < v.issued,
		Seq:     v.issued,
	}
	if v.result != nil {
		r := *v.result
		s.Result = &r
	}
	return s
}

func (v *View[T]) notifyLocked() {
	if v.onChange != nil {
		v.onChange(v.snapshotLocked())
	}
}
