package v1_test

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/fareledger/internal/api/v1"
	"github.com/gosuda/fareledger/internal/domain"
)

var xrefEntry = regexp.MustCompile(`(?m)^(\d{10}) 00000 n $`)

func TestRenderInvoicePDF_Structure(t *testing.T) {
	t.Parallel()

	doc := v1.RenderInvoicePDF(&domain.Account{Name: "Acme (North)"}, sampleInvoice())

	require.True(t, bytes.HasPrefix(doc, []byte("%PDF-1.4\n")))
	require.True(t, bytes.HasSuffix(doc, []byte("%%EOF\n")))

	// Every xref offset points at the start of its object.
	matches := xrefEntry.FindAllSubmatch(doc, -1)
	require.Len(t, matches, 5)
	for i, m := range matches {
		off, err := strconv.Atoi(string(m[1]))
		require.NoError(t, err)
		want := fmt.Sprintf("%d 0 obj", i+1)
		assert.True(t, bytes.HasPrefix(doc[off:], []byte(want)), "object %d at offset %d", i+1, off)
	}

	// startxref points at the xref table.
	idx := bytes.LastIndex(doc, []byte("startxref\n"))
	require.Positive(t, idx)
	rest := strings.SplitN(string(doc[idx+len("startxref\n"):]), "\n", 2)
	xref, err := strconv.Atoi(rest[0])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc[xref:], []byte("xref\n")))
}

func TestRenderInvoicePDF_Content(t *testing.T) {
	t.Parallel()

	doc := string(v1.RenderInvoicePDF(&domain.Account{Name: "Acme (North)"}, sampleInvoice()))

	assert.Contains(t, doc, `(Account: Acme \(North\)) Tj`, "parentheses are escaped")
	assert.Contains(t, doc, "Total: $48.60")
	assert.Contains(t, doc, "Billing period: 2026-01-01 to 2026-01-31")
	assert.Contains(t, doc, "Issued: 2026-02-01")
}

func TestRenderInvoicePDF_LongInvoiceFitsOnePage(t *testing.T) {
	t.Parallel()

	inv := sampleInvoice()
	inv.LineItems = nil
	for i := range 200 {
		inv.LineItems = append(inv.LineItems, domain.InvoiceLineItem{ID: strconv.Itoa(i), Description: "ride", FareCents: 100})
	}

	doc := string(v1.RenderInvoicePDF(&domain.Account{Name: "Acme"}, inv))

	assert.Contains(t, doc, "more lines) Tj")
	assert.Equal(t, 1, strings.Count(doc, "/Type /Page "), "single page")
	assert.Less(t, strings.Count(doc, ") Tj"), 60)
}
