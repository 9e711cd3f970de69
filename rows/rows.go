// Package rows rebuilds table rows from positioned text fragments.
//
// Fragments use PDF page space: origin bottom-left, y growing upward. Rows
// come out top of page first, cells left to right. Everything here is pure
// and safe to call from concurrent page workers.
//
// Coordinates that are NaN or infinite are not rejected; where such a
// fragment lands is unspecified.
package rows

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Fragment is one piece of text at its baseline origin on a page.
type Fragment struct {
	Text string
	X    float64
	Y    float64
}

// Row is the text of one visual line, left to right.
type Row []string

// Sheet is every row of a document, top to bottom and page by page.
type Sheet []Row

// Mode selects how fragments are bucketed into rows.
type Mode int

const (
	// ModeTolerance groups fragments whose y lies within a tolerance of a
	// bucket's first fragment.
	ModeTolerance Mode = iota
	// ModeExact groups fragments by y rounded to an integer.
	ModeExact
)

func (m Mode) String() string {
	switch m {
	case ModeTolerance:
		return "tolerance"
	case ModeExact:
		return "exact"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps "tolerance" or "exact" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tolerance":
		return ModeTolerance, nil
	case "exact":
		return ModeExact, nil
	default:
		return ModeTolerance, fmt.Errorf("unknown row mode %q (expected tolerance or exact)", s)
	}
}

// Options configures a reconstruction pass.
type Options struct {
	Mode      Mode
	Tolerance float64
}

// ReconstructWith dispatches to Reconstruct or ReconstructExact.
func ReconstructWith(fragments []Fragment, opts Options) []Row {
	if opts.Mode == ModeExact {
		return ReconstructExact(fragments)
	}
	return Reconstruct(fragments, opts.Tolerance)
}

type bucket struct {
	y     float64
	items []Fragment
}

// Reconstruct groups fragments into rows by y proximity.
//
// A fragment joins the first existing bucket whose representative y is less
// than tolerance away (equal y always joins); otherwise it opens a new bucket
// at its own y. Representatives stay fixed at the first fragment's y and
// buckets are never merged. Input is put into a canonical order first, so
// the result depends only on the fragments, not on their arrival order.
// A negative tolerance behaves like zero.
func Reconstruct(fragments []Fragment, tolerance float64) []Row {
	if tolerance < 0 {
		tolerance = 0
	}
	kept := clean(fragments)
	if len(kept) == 0 {
		return nil
	}
	slices.SortStableFunc(kept, compareCanonical)

	var buckets []*bucket
	for _, f := range kept {
		var home *bucket
		for _, b := range buckets {
			d := math.Abs(b.y - f.Y)
			if d < tolerance || d == 0 {
				home = b
				break
			}
		}
		if home == nil {
			home = &bucket{y: f.Y}
			buckets = append(buckets, home)
		}
		home.items = append(home.items, f)
	}
	return emit(buckets)
}

// ReconstructExact groups fragments whose y rounds to the same integer.
// Halves round up, so 49.5 and 50.4 share a row.
func ReconstructExact(fragments []Fragment) []Row {
	kept := clean(fragments)
	if len(kept) == 0 {
		return nil
	}
	slices.SortStableFunc(kept, compareCanonical)

	index := make(map[float64]*bucket)
	var buckets []*bucket
	for _, f := range kept {
		key := math.Floor(f.Y + 0.5)
		b, ok := index[key]
		if !ok {
			b = &bucket{y: key}
			index[key] = b
			buckets = append(buckets, b)
		}
		b.items = append(b.items, f)
	}
	return emit(buckets)
}

// Assemble concatenates per-page rows in page order. Pages never share
// buckets.
func Assemble(pages [][]Row) Sheet {
	n := 0
	for _, p := range pages {
		n += len(p)
	}
	sheet := make(Sheet, 0, n)
	for _, p := range pages {
		sheet = append(sheet, p...)
	}
	return sheet
}

// clean drops whitespace-only fragments and trims the rest into a fresh
// slice so the caller's input is never reordered.
func clean(fragments []Fragment) []Fragment {
	out := make([]Fragment, 0, len(fragments))
	for _, f := range fragments {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			continue
		}
		f.Text = text
		out = append(out, f)
	}
	return out
}

// compareCanonical orders top to bottom, then left to right, then by text.
func compareCanonical(a, b Fragment) int {
	if c := cmp.Compare(b.Y, a.Y); c != 0 {
		return c
	}
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return strings.Compare(a.Text, b.Text)
}

func emit(buckets []*bucket) []Row {
	slices.SortStableFunc(buckets, func(a, b *bucket) int {
		return cmp.Compare(b.y, a.y)
	})
	out := make([]Row, 0, len(buckets))
	for _, b := range buckets {
		slices.SortStableFunc(b.items, func(p, q Fragment) int {
			return cmp.Compare(p.X, q.X)
		})
		row := make(Row, len(b.items))
		for i, f := range b.items {
			row[i] = f.Text
		}
		out = append(out, row)
	}
	return out
}
