// Package seatmap derives the full ordered set of seat codes for a screen
// from its row/column geometry.  Seat codes combine an alphabetical row
// label with a 1-based column number, e.g. the first row of a 10-column
// screen yields "A1".."A10".  The package is pure: it performs no I/O and
// holds no state, so the same geometry always produces the same map.
package seatmap

import (
    "errors"
    "strconv"
    "strings"
)

// ErrInvalidGeometry is returned when a screen's rows or cols are less
// than one.  It indicates a configuration error rather than a bad
// request: screens with such geometry should never have been created.
var ErrInvalidGeometry = errors.New("seatmap: invalid screen geometry")

// Generate returns the seat codes for a rows×cols screen in row-major
// order: all of row A, then all of row B, and so on.  Row labels continue
// past "Z" in spreadsheet style (AA, AB, ...).  The result always
// contains exactly rows*cols unique codes.
func Generate(rows, cols int) ([]string, error) {
    if rows < 1 || cols < 1 {
        return nil, ErrInvalidGeometry
    }
    codes := make([]string, 0, rows*cols)
    for r := 0; r < rows; r++ {
        label := RowLabel(r)
        for c := 1; c <= cols; c++ {
            codes = append(codes, label+strconv.Itoa(c))
        }
    }
    return codes, nil
}

// Index is a membership set over a generated seat map.  It is used by the
// reservation coordinator to validate requested seat codes without
// re-deriving the map for every check.
type Index map[string]struct{}

// NewIndex builds an Index for the given geometry.  It fails with
// ErrInvalidGeometry exactly when Generate would.
func NewIndex(rows, cols int) (Index, error) {
    codes, err := Generate(rows, cols)
    if err != nil {
        return nil, err
    }
    idx := make(Index, len(codes))
    for _, code := range codes {
        idx[code] = struct{}{}
    }
    return idx, nil
}

// Contains reports whether code is part of the seat map.  Codes are
// compared after normalization so "a1" and "A1" match.
func (i Index) Contains(code string) bool {
    _, ok := i[Normalize(code)]
    return ok
}

// RowLabel converts a zero-based row index to its alphabetical label:
// 0 -> "A", 25 -> "Z", 26 -> "AA".  Negative indices yield "".
func RowLabel(i int) string {
    if i < 0 {
        return ""
    }
    var res []rune
    for {
        res = append(res, rune('A'+i%26))
        i = i/26 - 1
        if i < 0 {
            break
        }
    }
    for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
        res[j], res[k] = res[k], res[j]
    }
    return string(res)
}

// Normalize upper-cases a seat code and strips surrounding whitespace so
// that user-supplied codes compare equal to generated ones.
func Normalize(code string) string {
    return strings.ToUpper(strings.TrimSpace(code))
}
