package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gosuda/fareledger/internal/domain"
)

// Key variants the backend has used over time. Matching is case-insensitive.
var (
	dataKeys       = []string{"data", "items", "results", "records"}
	metaKeys       = []string{"pagination", "meta"}
	pageKeys       = []string{"currentPage", "page"}
	pageSizeKeys   = []string{"pageSize", "perPage", "limit"}
	totalKeys      = []string{"totalItems", "totalCount", "total"}
	totalPagesKeys = []string{"totalPages", "pageCount"}
)

// decodePage is the single place where listing responses of any historical
// shape are turned into a domain.Page. reqPage and reqPageSize fill in
// counters the response leaves out.
func decodePage[T any](resp *response, reqPage, reqPageSize int) (domain.Page[T], error) {
	p, err := parsePage[T](resp.body, reqPage, reqPageSize)
	if err != nil {
		return domain.Page[T]{}, malformed(resp.status, err)
	}
	return p, nil
}

// decodeItem accepts a {"data": item} envelope or a bare item.
func decodeItem[T any](resp *response) (*T, error) {
	item, err := parseItem[T](resp.body)
	if err != nil {
		return nil, malformed(resp.status, err)
	}
	return item, nil
}

// malformed gives an undecodable success body the same shape as any other
// failed call.
func malformed(status int, err error) *ClientError {
	return &ClientError{
		Kind:       KindUnknown,
		Message:    "unexpected response from the server",
		StatusCode: status,
		Err:        err,
	}
}

func parsePage[T any](body []byte, reqPage, reqPageSize int) (domain.Page[T], error) {
	obj, err := decodeObject(body)
	if err != nil {
		return domain.Page[T]{}, err
	}

	rawItems, ok := lookup(obj, dataKeys...)
	if !ok {
		return domain.Page[T]{}, fmt.Errorf("%w: no data array", ErrMalformedResponse)
	}

	// Some responses nest the whole envelope under "data".
	if nested, err := decodeObject(rawItems); err == nil {
		if inner, ok := lookup(nested, dataKeys...); ok {
			obj, rawItems = nested, inner
		}
	}

	var items []T
	if !isNull(rawItems) {
		if err := json.Unmarshal(rawItems, &items); err != nil {
			return domain.Page[T]{}, fmt.Errorf("%w: data: %w", ErrMalformedResponse, err)
		}
	}

	meta := obj
	if rawMeta, ok := lookup(obj, metaKeys...); ok {
		if m, err := decodeObject(rawMeta); err == nil {
			meta = m
		}
	}

	page := intValue(meta, reqPage, pageKeys...)
	pageSize := intValue(meta, reqPageSize, pageSizeKeys...)
	total := intValue(meta, -1, totalKeys...)
	totalPages := intValue(meta, 0, totalPagesKeys...)

	if total < 0 {
		// No total reported: everything up to this page is all we know of.
		total = domain.Offset(page, pageSize) + len(items)
		if totalPages == 0 {
			totalPages = max(page, 1)
		}
	}

	return domain.NewPage(items, page, pageSize, total, totalPages), nil
}

func parseItem[T any](body []byte) (*T, error) {
	obj, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	raw := json.RawMessage(body)
	if inner, ok := lookup(obj, "data"); ok && !isNull(inner) {
		raw = inner
	}
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return &item, nil
}

func decodeObject(b []byte) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedResponse)
	}
	return obj, nil
}

// lookup returns the first present key among names, ignoring case. Exact
// matches take precedence over case-folded ones.
func lookup(obj map[string]json.RawMessage, names ...string) (json.RawMessage, bool) {
	for _, name := range names {
		if v, ok := obj[name]; ok {
			return v, true
		}
		for k, v := range obj {
			if strings.EqualFold(k, name) {
				return v, true
			}
		}
	}
	return nil, false
}

func intValue(obj map[string]json.RawMessage, fallback int, names ...string) int {
	raw, ok := lookup(obj, names...)
	if !ok || isNull(raw) {
		return fallback
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		if n > math.MaxInt32 || n < math.MinInt32 {
			return fallback
		}
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return fallback
		}
		return i
	default:
		return fallback
	}
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
