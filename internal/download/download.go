// Package download drives invoice PDF downloads: one request in flight at a
// time, a safe filename and an atomic write to disk.
package download

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/fareledger/internal/apiclient"
	"github.com/gosuda/fareledger/internal/domain"
)

// MaxFilenameRunes bounds a sanitized filename, extension included.
const MaxFilenameRunes = 120

var (
	ErrInFlight     = errors.New("download: a download is already in progress")
	ErrEmptyPayload = errors.New("download: empty document")
)

// Fetcher retrieves a rendered invoice PDF. *apiclient.Client satisfies it.
type Fetcher interface {
	DownloadInvoicePDF(ctx context.Context, accountID, id string) (*apiclient.Artifact, error)
}

// Saver persists a downloaded document under name and returns where it went.
type Saver interface {
	Save(name string, body []byte) (string, error)
}

// Result describes a completed download.
type Result struct {
	Filename string
	Path     string
	Size     int
}

type Options struct {
	Now    func() time.Time
	Logger *zerolog.Logger
}

// Downloader starts at most one download at a time. Further calls while one is
// pending fail fast with ErrInFlight and never reach the Fetcher.
type Downloader struct {
	fetcher Fetcher
	saver   Saver
	busy    atomic.Bool
	now     func() time.Time
	logger  zerolog.Logger
}

func New(fetcher Fetcher, saver Saver, opts Options) *Downloader {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Downloader{
		fetcher: fetcher,
		saver:   saver,
		now:     now,
		logger:  logger.With().Str("component", "download").Logger(),
	}
}

// InFlight reports whether a download is pending.
func (d *Downloader) InFlight() bool {
	return d.busy.Load()
}

// Download fetches the PDF of inv and hands it to the Saver.
func (d *Downloader) Download(ctx context.Context, inv domain.Invoice) (*Result, error) {
	if !d.busy.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}
	defer d.busy.Store(false)

	art, err := d.fetcher.DownloadInvoicePDF(ctx, inv.AccountID, inv.ID)
	if err != nil {
		d.logger.Warn().Err(err).Str("invoice_id", inv.ID).Msg("download: fetch failed")
		return nil, err
	}
	if len(art.Body) == 0 {
		return nil, ErrEmptyPayload
	}

	name := Filename(art.ContentDisposition, inv, d.now())
	path, err := d.saver.Save(name, art.Body)
	if err != nil {
		return nil, fmt.Errorf("download.Download: %w", err)
	}

	d.logger.Info().Str("invoice_id", inv.ID).Str("file", path).Int("bytes", len(art.Body)).Msg("download: saved")
	return &Result{Filename: name, Path: path, Size: len(art.Body)}, nil
}

// Message is the user-facing text for a failed download.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrInFlight):
		return "A download is already in progress."
	case apiclient.IsNotFound(err):
		return "Invoice PDF not found."
	default:
		return "PDF generation failed. Please try again."
	}
}

// Filename picks the saved name: the server-suggested one when the
// Content-Disposition header carries it, otherwise
// {invoiceNumber}_{issue date}.pdf with today standing in for a missing
// issue date.
func Filename(contentDisposition string, inv domain.Invoice, now time.Time) string {
	if name := dispositionFilename(contentDisposition); name != "" {
		if safe := SanitizeFilename(name); safe != "" {
			return safe
		}
	}

	day := now.UTC()
	if inv.IssuedAt != nil {
		day = inv.IssuedAt.UTC()
	}
	base := SanitizeFilename(inv.InvoiceNumber)
	if base == "" {
		base = "invoice"
	}
	return SanitizeFilename(fmt.Sprintf("%s_%s.pdf", base, day.Format(domain.DateFormat)))
}

// dispositionFilename extracts the filename parameter. mime decodes the
// RFC 2231 filename* form into "filename" itself.
func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// SanitizeFilename makes name safe to use as a single path element.
func SanitizeFilename(name string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune('-')
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune('_')
			}
			lastSpace = true
		case r == 0 || unicode.IsControl(r) || strings.ContainsRune(`<>:"|?*`, r):
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	out := b.String()
	for strings.Contains(out, "..") {
		out = strings.ReplaceAll(out, "..", "")
	}
	out = strings.TrimLeft(out, ".-")
	return truncate(out, MaxFilenameRunes)
}

func truncate(name string, limit int) string {
	if utf8.RuneCountInString(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if utf8.RuneCountInString(ext) >= limit {
		ext = ""
	}
	stem := []rune(strings.TrimSuffix(name, ext))
	return string(stem[:limit-utf8.RuneCountInString(ext)]) + ext
}

// FileSaver writes documents into Dir.
type FileSaver struct {
	Dir string
}

// Save writes body to Dir/name through a temporary file and a rename so a
// partially written PDF is never left under the final name.
func (s FileSaver) Save(name string, body []byte) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("download.FileSaver: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".fareledger-*.part")
	if err != nil {
		return "", fmt.Errorf("download.FileSaver: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("download.FileSaver: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("download.FileSaver: %w", err)
	}

	target := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("download.FileSaver: %w", err)
	}
	return target, nil
}
