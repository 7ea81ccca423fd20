package chrono

import (
	"time"
)

// FileTimestampLayout is the layout used to stamp output file names.
const FileTimestampLayout = "2006_01_02_15_04_05"

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current local time.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now()
}

// FixedTime always returns the same instant, it is meant for tests.
type FixedTime struct {
	At time.Time
}

func (f FixedTime) Now() time.Time {
	return f.At
}

// Timestamp formats t for use inside a file name.
func Timestamp(t time.Time) string {
	return t.Format(FileTimestampLayout)
}
