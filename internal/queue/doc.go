// Package queue serializes the delivery of workspace notifications.
//
// A Queue has exactly one consumer goroutine. Tasks begin in the order they
// were scheduled, so two tasks scheduled one after another by the same
// goroutine always start in that order. Tasks from different goroutines
// interleave in whatever order their Schedule calls happened to land.
//
// Each task reports through its own Handle. A task that returns an error or
// panics resolves its handle with that error and the queue moves on.
//
// Close drains: everything scheduled before Close still runs.
package queue
