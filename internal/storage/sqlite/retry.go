package sqlite

import (
	"strings"
	"time"
)

const (
	busyMaxAttempts = 5
	busyBaseDelay   = 50 * time.Millisecond
)

// isSQLiteBusy reports whether err looks like a SQLITE_BUSY condition
// surfaced by the driver.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn, retrying with a linear backoff while the
// database reports busy. Any other error fails immediately.
func retryOnBusy(fn func() error) error {
	var err error
	for attempt := 0; attempt < busyMaxAttempts; attempt++ {
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * busyBaseDelay)
	}
	return err
}
