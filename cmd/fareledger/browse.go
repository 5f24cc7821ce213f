package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gosuda/fareledger/internal/apiclient"
	"github.com/gosuda/fareledger/internal/domain"
	"github.com/gosuda/fareledger/internal/listview"
)

const browsePrompt = "[n]ext [p]rev [g]o <page> [s]ort <column> [f]ilter <key> [value] [c]lear [r]etry [q]uit > "

// browse shows the current page of v and, when in is non-nil, reads paging
// commands from it until "q" or end of input. Unauthorized failures end the
// loop; other failures are shown and the last page stays current.
func browse[T any](ctx context.Context, v *listview.View[T], noun string, render func(domain.Page[T]) string, in io.Reader, prompt io.Writer) error {
	show := func() {
		if st := v.State(); st.Result != nil {
			printMarkdown(render(*st.Result))
		}
	}
	show()
	if in == nil {
		return nil
	}

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(prompt, browsePrompt)
		if !sc.Scan() {
			return sc.Err()
		}

		err := browseStep(ctx, v, strings.Fields(sc.Text()))
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err == nil:
			show()
		case isUnauthorized(err):
			return err
		case errors.Is(err, listview.ErrStale):
		default:
			fmt.Fprintln(prompt, browseMessage(noun, err))
		}
	}
}

var errQuit = errors.New("quit")

var errBrowseUsage = errors.New("unknown command")

func browseStep[T any](ctx context.Context, v *listview.View[T], args []string) error {
	if len(args) == 0 {
		return errBrowseUsage
	}
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch args[0] {
	case "q", "quit":
		return errQuit
	case "n", "next":
		return v.NextPage(ctx)
	case "p", "prev":
		return v.PreviousPage(ctx)
	case "g", "go":
		var n int
		if _, err := fmt.Sscanf(arg(1), "%d", &n); err != nil {
			return fmt.Errorf("%w: %q", listview.ErrInvalidPage, arg(1))
		}
		return v.SetPage(ctx, n)
	case "s", "sort":
		return v.SetSort(ctx, arg(1))
	case "f", "filter":
		return v.SetFilter(ctx, arg(1), strings.Join(args[min(2, len(args)):], " "))
	case "c", "clear":
		return v.ClearFilters(ctx)
	case "r", "retry":
		return v.Refresh(ctx)
	default:
		return errBrowseUsage
	}
}

// browseMessage is the inline text for a failed browse command.
func browseMessage(noun string, err error) string {
	var ce *apiclient.ClientError
	switch {
	case errors.Is(err, errBrowseUsage):
		return "Unknown command."
	case isUsage(err):
		return err.Error()
	case errors.As(err, &ce):
		return fmt.Sprintf("Failed to load %s. Please try again.", noun)
	default:
		return err.Error()
	}
}

// isUsage reports whether err rejects a view transition before any fetch.
func isUsage(err error) bool {
	return errors.Is(err, listview.ErrInvalidPage) ||
		errors.Is(err, listview.ErrUnknownFilter) ||
		errors.Is(err, listview.ErrInvalidFilterValue) ||
		errors.Is(err, listview.ErrUnknownSort)
}

func isUnauthorized(err error) bool {
	return apiclient.KindOf(err) == apiclient.KindUnauthorized
}
