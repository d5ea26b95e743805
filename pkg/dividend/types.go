package dividend

import "time"

// DateFormat is the calendar date layout used for records on the wire and on disk.
const DateFormat = "2006-01-02"

// Payment is a single dividend event as reported by an upstream provider.
type Payment struct {
	Date   time.Time // Ex-date in the listing exchange's location
	Amount float64   // Cash amount per share
}

// Record is one entry of a cached dividend series.
type Record struct {
	Date   string  `json:"date" msgpack:"date"`
	Amount float64 `json:"amount" msgpack:"amount"`
}

// Series holds the trailing-window records of one ticker, oldest first.
// An empty series is valid and means no dividend was paid in the window.
type Series []Record

// Clone returns a copy that does not share the backing array.
func (s Series) Clone() Series {
	if s == nil {
		return Series{}
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Status labels the latest dividend relative to the one before it.
type Status string

const (
	StatusIncrease Status = "increase"
	StatusCut      Status = "cut"
	StatusNoChange Status = "no_change"
	// StatusSuspension is reported for an empty window. It does not
	// distinguish a halted payer from a ticker that never paid.
	StatusSuspension Status = "suspension"
)

// Verdict is the classification of a series. Absent values are nil.
type Verdict struct {
	Status   Status   `json:"status"`
	Last     *float64 `json:"last"`
	Previous *float64 `json:"previous"`
	Date     *string  `json:"date"`
}
