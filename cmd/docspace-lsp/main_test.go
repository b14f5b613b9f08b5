package main

import (
	"testing"

	"github.com/sasha-s/go-deadlock"
)

func TestConfigureDisablesDeadlockReports(t *testing.T) {
	prev := deadlock.Opts.Disable
	t.Cleanup(func() { deadlock.Opts.Disable = prev })
	deadlock.Opts.Disable = false

	configure()

	if !deadlock.Opts.Disable {
		t.Error("deadlock detection left on; a slow hook would exit the server")
	}
}
