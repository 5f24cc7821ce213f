// Package metaedit implements the edit flow for invoice metadata: a local
// draft with validation, dirty tracking, a single save call and an unload
// guard while unsaved changes exist.
package metaedit

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/fareledger/internal/apiclient"
	"github.com/gosuda/fareledger/internal/domain"
)

type Mode string

const (
	ModeViewing Mode = "viewing"
	ModeEditing Mode = "editing"
	ModeSaving  Mode = "saving"
)

type Field string

const (
	FieldNotes             Field = "notes"
	FieldInternalReference Field = "internalReference"
	FieldBillingContact    Field = "billingContact"
)

// Limits, counted in characters.
const (
	MaxNotes             = 1000
	MaxInternalReference = 100
)

// DefaultNoticeTTL is how long a success notice stays visible.
const DefaultNoticeTTL = 3 * time.Second

var (
	ErrNotEditing   = errors.New("metaedit: not in edit mode")
	ErrBusy         = errors.New("metaedit: save in progress")
	ErrInvalidDraft = errors.New("metaedit: draft has invalid fields")
	ErrUnknownField = errors.New("metaedit: unknown field")
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// MetadataSaver persists invoice metadata. *apiclient.Client satisfies it.
type MetadataSaver interface {
	UpdateInvoiceMetadata(ctx context.Context, accountID, id string, u apiclient.MetadataUpdate) (*domain.Invoice, error)
}

// Options tune an Editor. Zero values select defaults.
type Options struct {
	NoticeTTL time.Duration
	Now       func() time.Time
	Logger    *zerolog.Logger
}

// Editor holds the edit state of one invoice's metadata.
type Editor struct {
	mu        sync.Mutex
	saver     MetadataSaver
	invoice   domain.Invoice
	mode      Mode
	snapshot  domain.InvoiceMetadata
	draft     domain.InvoiceMetadata
	touched   map[Field]bool
	errs      map[Field]string
	saveErr   string
	notice    string
	noticeAt  time.Time
	noticeTTL time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// New returns an Editor in viewing mode for inv.
func New(saver MetadataSaver, inv domain.Invoice, opts Options) *Editor {
	ttl := opts.NoticeTTL
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Editor{
		saver:     saver,
		invoice:   inv,
		mode:      ModeViewing,
		touched:   map[Field]bool{},
		errs:      map[Field]string{},
		noticeTTL: ttl,
		now:       now,
		logger:    logger.With().Str("component", "metaedit").Str("invoice_id", inv.ID).Logger(),
	}
}

// Invoice returns the displayed invoice: the server's latest copy.
func (e *Editor) Invoice() domain.Invoice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.invoice
}

func (e *Editor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Draft returns the current draft values.
func (e *Editor) Draft() domain.InvoiceMetadata {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Begin enters edit mode with a draft copied from the displayed invoice and
// clears previous banners.
func (e *Editor) Begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.mode {
	case ModeSaving:
		return ErrBusy
	case ModeEditing:
		return nil
	}

	e.snapshot = e.invoice.Metadata()
	e.draft = e.snapshot
	e.touched = map[Field]bool{}
	e.errs = validate(e.draft)
	e.saveErr = ""
	e.notice = ""
	e.mode = ModeEditing
	return nil
}

// SetField changes one draft field and revalidates, as on every keystroke.
func (e *Editor) SetField(f Field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != ModeEditing {
		return ErrNotEditing
	}
	switch f {
	case FieldNotes:
		e.draft.Notes = value
	case FieldInternalReference:
		e.draft.InternalReference = value
	case FieldBillingContact:
		e.draft.BillingContact = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	e.errs = validate(e.draft)
	return nil
}

// Blur marks a field as touched and revalidates.
func (e *Editor) Blur(f Field) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.touched[f] = true
	e.errs = validate(e.draft)
}

// Touched reports whether the field has lost focus at least once.
func (e *Editor) Touched(f Field) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.touched[f]
}

// Errors returns the current field errors, keyed by field.
func (e *Editor) Errors() map[Field]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[Field]string, len(e.errs))
	for k, v := range e.errs {
		out[k] = v
	}
	return out
}

// Dirty reports whether the draft differs from the snapshot taken by Begin.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirtyLocked()
}

// CanSave reports whether Save would be attempted.
func (e *Editor) CanSave() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode == ModeEditing && len(e.errs) == 0
}

// BlockNavigation reports whether leaving the view must be prevented.
func (e *Editor) BlockNavigation() bool {
	return e.Dirty()
}

// SaveError is the inline error of the last failed save.
func (e *Editor) SaveError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveErr
}

// Notice returns the success notice until it expires.
func (e *Editor) Notice() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.notice != "" && e.now().Sub(e.noticeAt) >= e.noticeTTL {
		e.notice = ""
	}
	return e.notice
}

// Save sends the trimmed draft. On success the editor shows the server's
// copy and returns to viewing mode; on failure it stays in edit mode with
// the draft intact.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	switch {
	case e.mode == ModeSaving:
		e.mu.Unlock()
		return ErrBusy
	case e.mode != ModeEditing:
		e.mu.Unlock()
		return ErrNotEditing
	case len(e.errs) > 0:
		e.mu.Unlock()
		return ErrInvalidDraft
	}
	e.mode = ModeSaving
	e.saveErr = ""
	update := BuildUpdate(e.draft)
	accountID, id := e.invoice.AccountID, e.invoice.ID
	e.mu.Unlock()

	saved, err := e.saver.UpdateInvoiceMetadata(ctx, accountID, id, update)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.mode = ModeEditing
		e.saveErr = saveMessage(err)
		e.logger.Warn().Err(err).Msg("metaedit: save failed")
		return err
	}

	e.invoice = *saved
	e.snapshot = saved.Metadata()
	e.draft = e.snapshot
	e.touched = map[Field]bool{}
	e.errs = map[Field]string{}
	e.mode = ModeViewing
	e.notice = "Invoice details saved."
	e.noticeAt = e.now()
	e.logger.Info().Msg("metaedit: metadata saved")
	return nil
}

// Cancel leaves edit mode. When the draft is dirty, confirm decides whether
// the changes are discarded; Cancel reports whether edit mode was left.
func (e *Editor) Cancel(confirm func() bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != ModeEditing {
		return e.mode == ModeViewing
	}
	if e.dirtyLocked() && (confirm == nil || !confirm()) {
		return false
	}
	e.draft = e.snapshot
	e.errs = map[Field]string{}
	e.touched = map[Field]bool{}
	e.saveErr = ""
	e.mode = ModeViewing
	return true
}

func (e *Editor) dirtyLocked() bool {
	return e.mode != ModeViewing && e.draft != e.snapshot
}

// BuildUpdate trims the draft into the payload of a metadata update.
func BuildUpdate(d domain.InvoiceMetadata) apiclient.MetadataUpdate {
	notes := strings.TrimSpace(d.Notes)
	ref := strings.TrimSpace(d.InternalReference)
	contact := strings.TrimSpace(d.BillingContact)
	return apiclient.MetadataUpdate{
		Notes:             &notes,
		InternalReference: &ref,
		BillingContact:    &contact,
	}
}

// Validate returns the field errors of d. All fields are optional.
func Validate(d domain.InvoiceMetadata) map[Field]string {
	return validate(d)
}

func validate(d domain.InvoiceMetadata) map[Field]string {
	errs := map[Field]string{}
	// Lengths are checked on the trimmed values BuildUpdate sends.
	if utf8.RuneCountInString(strings.TrimSpace(d.Notes)) > MaxNotes {
		errs[FieldNotes] = fmt.Sprintf("Notes must be %d characters or fewer.", MaxNotes)
	}
	if utf8.RuneCountInString(strings.TrimSpace(d.InternalReference)) > MaxInternalReference {
		errs[FieldInternalReference] = fmt.Sprintf("Internal reference must be %d characters or fewer.", MaxInternalReference)
	}
	if contact := strings.TrimSpace(d.BillingContact); contact != "" && !emailPattern.MatchString(contact) {
		errs[FieldBillingContact] = "Billing contact must be a valid email address."
	}
	return errs
}

func saveMessage(err error) string {
	switch apiclient.KindOf(err) {
	case apiclient.KindValidation:
		var ce *apiclient.ClientError
		if errors.As(err, &ce) && ce.Message != "" {
			return "Could not save: " + ce.Message
		}
		return "Could not save: the server rejected the changes."
	case apiclient.KindNotFound:
		return "This invoice no longer exists."
	case apiclient.KindForbidden, apiclient.KindUnauthorized:
		return "You are not allowed to edit this invoice."
	default:
		return "Failed to save invoice details. Please try again."
	}
}
