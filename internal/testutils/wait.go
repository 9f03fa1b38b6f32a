package testutils

import (
	"time"
)

// Eventually polls cond every few milliseconds until it returns true or timeout
// elapses. It reports whether cond became true.
func Eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// Receive waits for one value from ch, failing t on timeout or a closed channel
func Receive[T any](t interface {
	Helper()
	Fatalf(format string, args ...any)
}, ch <-chan T, timeout time.Duration) T {
	t.Helper()

	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed before a value was received")
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for a value", timeout)
	}

	var zero T
	return zero
}
