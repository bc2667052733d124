package util

import (
	"os"
	"testing"
)

func TestGetTerminalWidth(t *testing.T) {
	// On a terminal the real size comes back, otherwise the 80 fallback;
	// either way the result must be usable for layout
	if w := GetTerminalWidth(); w <= 0 {
		t.Errorf("expected positive width, got %d", w)
	}

	// Must not panic on any descriptor
	_ = IsTerminal(os.Stdout.Fd())
	_ = IsTerminal(os.Stderr.Fd())
}
