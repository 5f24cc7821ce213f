// Package detail loads single entities and turns failures into the messages
// detail views show.
package detail

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gosuda/fareledger/internal/apiclient"
	"github.com/gosuda/fareledger/internal/domain"
)

// Result is the outcome of one load. Message is empty on success.
type Result[T any] struct {
	Item      *T
	Err       error
	Kind      apiclient.Kind
	Message   string
	Retryable bool
}

// OK reports whether the load succeeded.
func (r Result[T]) OK() bool { return r.Err == nil && r.Item != nil }

// Loader fetches one entity of a named type.
type Loader[T any] struct {
	entity string
	fetch  func(ctx context.Context) (*T, error)
}

// NewLoader returns a Loader. entity is the lower-case display name, e.g. "invoice".
func NewLoader[T any](entity string, fetch func(ctx context.Context) (*T, error)) *Loader[T] {
	return &Loader[T]{entity: entity, fetch: fetch}
}

// Load runs the fetch once; GET retries already happened in the client.
func (l *Loader[T]) Load(ctx context.Context) Result[T] {
	item, err := l.fetch(ctx)
	if err != nil {
		kind := apiclient.KindOf(err)
		return Result[T]{
			Err:       err,
			Kind:      kind,
			Message:   Message(l.entity, err),
			Retryable: kind != apiclient.KindNotFound,
		}
	}
	return Result[T]{Item: item}
}

// Message is the user-facing text for a failed load of entity.
func Message(entity string, err error) string {
	if apiclient.IsNotFound(err) {
		return fmt.Sprintf("%s not found", capitalize(entity))
	}
	return fmt.Sprintf("Failed to load %s. Please try again.", entity)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

type AccountGetter interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
}

type InvoiceGetter interface {
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
}

type LedgerEntryGetter interface {
	GetLedgerEntry(ctx context.Context, accountID, id string) (*domain.LedgerEntry, error)
}

func Account(g AccountGetter, id string) *Loader[domain.Account] {
	return NewLoader("account", func(ctx context.Context) (*domain.Account, error) {
		return g.GetAccount(ctx, id)
	})
}

func Invoice(g InvoiceGetter, id string) *Loader[domain.Invoice] {
	return NewLoader("invoice", func(ctx context.Context) (*domain.Invoice, error) {
		return g.GetInvoice(ctx, id)
	})
}

func LedgerEntry(g LedgerEntryGetter, accountID, id string) *Loader[domain.LedgerEntry] {
	return NewLoader("ledger entry", func(ctx context.Context) (*domain.LedgerEntry, error) {
		return g.GetLedgerEntry(ctx, accountID, id)
	})
}
