package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SequenceWidth is the zero-padded width of the trailing sequence number
const SequenceWidth = 5

// TransactionCodeMarker prefixes every transaction code
const TransactionCodeMarker = "GD"

// TransactionCodePrefix returns the sequencer prefix for ledger entries
// created on the business day of at, e.g. "GD-20261016-".
func TransactionCodePrefix(at time.Time, loc *time.Location) string {
	return fmt.Sprintf("%s-%s-", TransactionCodeMarker, businessDay(at, loc))
}

// ProductCodePrefix returns the sequencer prefix for products of typ
// created on the business day of at, e.g. "L1-20261016-".
func ProductCodePrefix(typ ProductType, at time.Time, loc *time.Location) string {
	return fmt.Sprintf("%s-%s-", typ.CodePrefix(), businessDay(at, loc))
}

// FormatCode appends the zero-padded sequence to prefix
func FormatCode(prefix string, seq int64) string {
	return fmt.Sprintf("%s%0*d", prefix, SequenceWidth, seq)
}

// ParseSequence extracts the trailing sequence number of a code sharing
// prefix. ok is false for codes with a foreign prefix or a non-numeric tail.
func ParseSequence(code, prefix string) (seq int64, ok bool) {
	if !strings.HasPrefix(code, prefix) {
		return 0, false
	}
	tail := code[len(prefix):]
	if tail == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(tail, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func businessDay(at time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return at.In(loc).Format("20060102")
}
