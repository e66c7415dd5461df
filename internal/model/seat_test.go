package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestSeatCodeAt(t *testing.T) {
    assert.Equal(t, "A1", SeatCodeAt(0))
    assert.Equal(t, "A8", SeatCodeAt(SeatsPerRow-1))
    assert.Equal(t, "B1", SeatCodeAt(SeatsPerRow))
    assert.Equal(t, "C3", SeatCodeAt(2*SeatsPerRow+2))
    // Row labels roll over past Z.
    assert.Equal(t, "AA1", SeatCodeAt(26*SeatsPerRow))
    assert.Equal(t, "", SeatCodeAt(-1))
}

func TestParseSeatCode(t *testing.T) {
    row, n, err := ParseSeatCode("C7")
    require.NoError(t, err)
    assert.Equal(t, "C", row)
    assert.Equal(t, 7, n)

    // Lower case and whitespace are tolerated.
    row, n, err = ParseSeatCode(" b2 ")
    require.NoError(t, err)
    assert.Equal(t, "B", row)
    assert.Equal(t, 2, n)

    for _, bad := range []string{"", "A", "12", "A0", "A-1", "1A"} {
        _, _, err := ParseSeatCode(bad)
        assert.ErrorIs(t, err, ErrBadSeatCode, "code %q", bad)
    }
}

func TestNormalizeSeatCode(t *testing.T) {
    got, err := NormalizeSeatCode("c07")
    require.NoError(t, err)
    assert.Equal(t, "C7", got)

    _, err = NormalizeSeatCode("!!")
    assert.ErrorIs(t, err, ErrBadSeatCode)
}

func TestRowIndexRoundTrip(t *testing.T) {
    for i := 0; i < 60; i++ {
        label := rowLabel(i)
        idx, ok := RowIndex(label)
        require.True(t, ok, "label %q", label)
        assert.Equal(t, i, idx, "label %q", label)
    }
    _, ok := RowIndex("")
    assert.False(t, ok)
    _, ok = RowIndex("A1")
    assert.False(t, ok)
}
