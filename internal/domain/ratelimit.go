package domain

import "time"

// FixedWindow is a calendar-bucketed counter used for the daily post and
// hourly vote quotas. The count resets lazily: any read or record first
// compares the stored bucket against the current one and zeroes the count
// if the window has advanced.
type FixedWindow struct {
	Count  int   `json:"count"`
	Bucket int64 `json:"bucket"`
}

func windowBucket(now time.Time, size time.Duration) int64 {
	return now.UTC().Truncate(size).Unix()
}

func (w *FixedWindow) roll(now time.Time, size time.Duration) {
	b := windowBucket(now, size)
	if b != w.Bucket {
		w.Bucket = b
		w.Count = 0
	}
}

// Allow reports whether another action fits in the current window.
func (w *FixedWindow) Allow(now time.Time, size time.Duration, limit int) bool {
	w.roll(now, size)
	return w.Count < limit
}

// Record counts one action in the current window.
func (w *FixedWindow) Record(now time.Time, size time.Duration) {
	w.roll(now, size)
	w.Count++
}

// Used returns the count consumed in the current window.
func (w *FixedWindow) Used(now time.Time, size time.Duration) int {
	w.roll(now, size)
	return w.Count
}
