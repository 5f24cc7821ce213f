package download_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/fareledger/internal/apiclient"
	"github.com/gosuda/fareledger/internal/domain"
	"github.com/gosuda/fareledger/internal/download"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type mockFetcher struct {
	calls     atomic.Int32
	fetchFunc func(ctx context.Context, accountID, id string) (*apiclient.Artifact, error)
}

func (m *mockFetcher) DownloadInvoicePDF(ctx context.Context, accountID, id string) (*apiclient.Artifact, error) {
	m.calls.Add(1)
	return m.fetchFunc(ctx, accountID, id)
}

type memSaver struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (s *memSaver) Save(name string, body []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[name] = body
	return "mem://" + name, nil
}

var pdfBytes = []byte("%PDF-1.4\n%%EOF\n")

func pdfArtifact(disposition string) *apiclient.Artifact {
	return &apiclient.Artifact{Body: pdfBytes, ContentType: "application/pdf", ContentDisposition: disposition}
}

func invoice(number string, issued *time.Time) domain.Invoice {
	return domain.Invoice{ID: "inv-1", AccountID: "acc-1", InvoiceNumber: number, IssuedAt: issued}
}

func ptrTime(t time.Time) *time.Time { return &t }

// ---------------------------------------------------------------------------
// 1. Filenames
// ---------------------------------------------------------------------------

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{`INV/2026\001`, "INV-2026-001"},
		{"INV-2026-001.pdf", "INV-2026-001.pdf"},
		{"../../etc/passwd", "etc-passwd"},
		{"a..b.pdf", "ab.pdf"},
		{"..hidden", "hidden"},
		{"report <final>?.pdf", "report_final.pdf"},
		{"tab\tand  spaces.pdf", "tab_and_spaces.pdf"},
		{"nul\x00ctrl\x07.pdf", "nulctrl.pdf"},
		{`C:"quoted"|pipe*.pdf`, "Cquotedpipe.pdf"},
		{"-leading-dash.pdf", "leading-dash.pdf"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, download.SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilename_Truncates(t *testing.T) {
	t.Parallel()

	got := download.SanitizeFilename(strings.Repeat("é", 300) + ".pdf")

	assert.Equal(t, download.MaxFilenameRunes, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, ".pdf"))
}

func TestSanitizeFilename_NeverEscapesDirectory(t *testing.T) {
	t.Parallel()

	inputs := []string{"../x", `..\..\x`, "a/../../b", "/abs/path.pdf", "....//....//x", ". . /x"}
	for _, in := range inputs {
		got := download.SanitizeFilename(in)
		assert.NotContains(t, got, "/", in)
		assert.NotContains(t, got, `\`, in)
		assert.NotContains(t, got, "..", in)
		assert.Equal(t, got, filepath.Base(got), in)
	}
}

func TestFilename(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)
	issued := ptrTime(time.Date(2026, 3, 31, 22, 0, 0, 0, time.FixedZone("EST", -5*3600)))

	tests := []struct {
		name        string
		disposition string
		inv         domain.Invoice
		want        string
	}{
		{"server filename", `attachment; filename="INV-2026-001.pdf"`, invoice("X", nil), "INV-2026-001.pdf"},
		{"rfc 2231 filename", `attachment; filename*=UTF-8''INV%2F2026%5C001.pdf`, invoice("X", nil), "INV-2026-001.pdf"},
		{"hostile server filename", `attachment; filename="../../evil.pdf"`, invoice("X", nil), "evil.pdf"},
		{"synthesized from issue date in UTC", "", invoice(`INV/2026\001`, issued), "INV-2026-001_2026-04-01.pdf"},
		{"synthesized without issue date", "", invoice("INV-7", nil), "INV-7_2026-10-18.pdf"},
		{"malformed header falls back", "attachment; filename=", invoice("INV-7", nil), "INV-7_2026-10-18.pdf"},
		{"empty number", "", invoice("", nil), "invoice_2026-10-18.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, download.Filename(tt.disposition, tt.inv, now))
		})
	}
}

// ---------------------------------------------------------------------------
// 2. Downloader
// ---------------------------------------------------------------------------

func TestDownloader_Success(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{fetchFunc: func(_ context.Context, accountID, id string) (*apiclient.Artifact, error) {
		assert.Equal(t, "acc-1", accountID)
		assert.Equal(t, "inv-1", id)
		return pdfArtifact(""), nil
	}}
	saver := &memSaver{}
	now := func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	d := download.New(fetcher, saver, download.Options{Now: now})

	res, err := d.Download(context.Background(), invoice("INV-9", nil))

	require.NoError(t, err)
	assert.Equal(t, "INV-9_2026-05-01.pdf", res.Filename)
	assert.Equal(t, "mem://INV-9_2026-05-01.pdf", res.Path)
	assert.Equal(t, len(pdfBytes), res.Size)
	assert.Equal(t, pdfBytes, saver.files["INV-9_2026-05-01.pdf"])
	assert.False(t, d.InFlight())
}

func TestDownloader_RapidClicksIssueOneRequest(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	fetcher := &mockFetcher{fetchFunc: func(context.Context, string, string) (*apiclient.Artifact, error) {
		close(entered)
		<-release
		return pdfArtifact(""), nil
	}}
	d := download.New(fetcher, &memSaver{}, download.Options{})

	done := make(chan error, 1)
	go func() {
		_, err := d.Download(context.Background(), invoice("INV-1", nil))
		done <- err
	}()
	<-entered

	for range 2 {
		_, err := d.Download(context.Background(), invoice("INV-1", nil))
		assert.ErrorIs(t, err, download.ErrInFlight)
	}
	assert.True(t, d.InFlight())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.False(t, d.InFlight())
}

func TestDownloader_FailureRearms(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	fail.Store(true)
	fetcher := &mockFetcher{fetchFunc: func(context.Context, string, string) (*apiclient.Artifact, error) {
		if fail.Load() {
			return nil, apiclient.Classify(500, "", nil)
		}
		return pdfArtifact(`attachment; filename="ok.pdf"`), nil
	}}
	d := download.New(fetcher, &memSaver{}, download.Options{})

	_, err := d.Download(context.Background(), invoice("INV-1", nil))
	require.Error(t, err)
	assert.Equal(t, "PDF generation failed. Please try again.", download.Message(err))
	assert.False(t, d.InFlight())

	fail.Store(false)
	res, err := d.Download(context.Background(), invoice("INV-1", nil))
	require.NoError(t, err)
	assert.Equal(t, "ok.pdf", res.Filename)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestDownloader_SaveErrorRearms(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{fetchFunc: func(context.Context, string, string) (*apiclient.Artifact, error) {
		return pdfArtifact(""), nil
	}}
	d := download.New(fetcher, &memSaver{err: errors.New("disk full")}, download.Options{})

	_, err := d.Download(context.Background(), invoice("INV-1", nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, d.InFlight())
}

func TestDownloader_EmptyBody(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{fetchFunc: func(context.Context, string, string) (*apiclient.Artifact, error) {
		return &apiclient.Artifact{}, nil
	}}
	saver := &memSaver{}
	d := download.New(fetcher, saver, download.Options{})

	_, err := d.Download(context.Background(), invoice("INV-1", nil))

	assert.ErrorIs(t, err, download.ErrEmptyPayload)
	assert.Empty(t, saver.files)
}

func TestMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Invoice PDF not found.", download.Message(apiclient.Classify(404, "", nil)))
	assert.Equal(t, "PDF generation failed. Please try again.", download.Message(apiclient.Classify(502, "", nil)))
	assert.Equal(t, "PDF generation failed. Please try again.", download.Message(apiclient.Classify(0, "", errors.New("reset"))))
	assert.Equal(t, "A download is already in progress.", download.Message(download.ErrInFlight))
}

// ---------------------------------------------------------------------------
// 3. FileSaver
// ---------------------------------------------------------------------------

func TestFileSaver(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "pdfs")
	s := download.FileSaver{Dir: dir}

	path, err := s.Save("INV-1.pdf", pdfBytes)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "INV-1.pdf"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, got)

	_, err = s.Save("INV-1.pdf", []byte("%PDF-2"))
	require.NoError(t, err)
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-2"), got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}
