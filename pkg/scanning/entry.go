package scanning

import (
	"time"
)

// TimestampLayout - human readable capture time layout stored with every entry
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// Entry - a single accepted scan, never mutated after creation
type Entry struct {
	ID        int64  `json:"id"`
	Value     string `json:"value"`
	Format    string `json:"format"`
	Timestamp string `json:"timestamp"`
}

// NewEntry - builds an entry out of an accepted decode result,
// the identifier is the acceptance time in milliseconds
func NewEntry(res DecodeResult) Entry {
	at := res.At
	if at.IsZero() {
		at = time.Now()
	}
	return Entry{
		ID:        at.UnixMilli(),
		Value:     res.Text,
		Format:    res.Format.String(),
		Timestamp: at.Local().Format(TimestampLayout),
	}
}

// DecodeResult - successful decode event emitted by the decode bridge
type DecodeResult struct {
	Text   string
	Format Format
	// At - when the result was produced, the dispatcher restamps it on arrival
	At time.Time
}
