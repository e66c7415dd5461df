package model

import (
    "errors"
    "fmt"
    "strconv"
    "strings"
    "time"
)

// Seat statuses as stored in the seats table.  A seat is either open for
// booking or held by exactly one confirmed booking.
const (
    SeatAvailable = "available"
    SeatHeld      = "held"
)

// Seat represents the availability of a single seat for a particular
// showtime.  Each (showtime, seat code) pair is unique; the code is the
// human-facing label such as "A1" or "C7".
//
// Fields:
//  ID         – primary key of the seats row.
//  ShowtimeID – showtime the seat belongs to.
//  Code       – row label plus seat number within the row.
//  Status     – SeatAvailable or SeatHeld.
//  CreatedAt  – timestamp of creation.
//  UpdatedAt  – timestamp of last status change.
type Seat struct {
    ID         uint64    // seats.id
    ShowtimeID uint64    // seats.showtime_id
    Code       string    // seats.seat_code
    Status     string    // seats.status
    CreatedAt  time.Time // seats.created_at
    UpdatedAt  time.Time // seats.updated_at
}

// SeatsPerRow is the number of seats laid out in each row of an
// auditorium.  Seat codes are generated row by row: A1..A8, B1..B8, ...
const SeatsPerRow = 8

// ErrBadSeatCode reports a seat code that does not parse as a row label
// followed by a positive seat number.
var ErrBadSeatCode = errors.New("malformed seat code")

// SeatCodeAt returns the seat code for the i-th position (zero based) in a
// showtime laid out SeatsPerRow seats per row.
func SeatCodeAt(i int) string {
    if i < 0 {
        return ""
    }
    return rowLabel(i/SeatsPerRow) + strconv.Itoa(i%SeatsPerRow+1)
}

// ParseSeatCode splits a seat code into its row label and seat number.  The
// label is normalized to upper case.  Codes with no letters, no digits or a
// non-positive number are rejected with ErrBadSeatCode.
func ParseSeatCode(code string) (row string, number int, err error) {
    s := strings.ToUpper(strings.TrimSpace(code))
    i := 0
    for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
        i++
    }
    if i == 0 || i == len(s) {
        return "", 0, fmt.Errorf("%w: %q", ErrBadSeatCode, code)
    }
    n, convErr := strconv.Atoi(s[i:])
    if convErr != nil || n < 1 {
        return "", 0, fmt.Errorf("%w: %q", ErrBadSeatCode, code)
    }
    return s[:i], n, nil
}

// NormalizeSeatCode upper-cases and validates a caller-supplied seat code.
func NormalizeSeatCode(code string) (string, error) {
    row, n, err := ParseSeatCode(code)
    if err != nil {
        return "", err
    }
    return row + strconv.Itoa(n), nil
}

// rowLabel converts a zero-based row index to an alphabetical label like A,
// B or AA.
func rowLabel(i int) string {
    if i < 0 {
        return ""
    }
    res := []rune{}
    for {
        rem := i % 26
        res = append(res, rune('A'+rem))
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

// RowIndex converts a row label like A or AA into its zero-based index.
func RowIndex(label string) (int, bool) {
    s := strings.ToUpper(strings.TrimSpace(label))
    if s == "" {
        return -1, false
    }
    n := 0
    for i := 0; i < len(s); i++ {
        ch := s[i]
        if ch < 'A' || ch > 'Z' {
            return -1, false
        }
        n = n*26 + int(ch-'A'+1)
    }
    return n - 1, true
}
