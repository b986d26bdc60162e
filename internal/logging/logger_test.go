package logging

import "testing"

func TestInitializeLevels(t *testing.T) {
	defer Nop()

	for _, level := range []string{"debug", "info", "warn", "warning", "error", ""} {
		if err := Initialize(level, true); err != nil {
			t.Errorf("Initialize(%q) returned error: %v", level, err)
		}
	}

	if err := Initialize("loud", true); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestGetReturnsSameLogger(t *testing.T) {
	defer Nop()
	Nop()

	a := Get(CategoryAnalyzer)
	b := Get(CategoryAnalyzer)
	if a != b {
		t.Error("Get returned different loggers for the same category")
	}
	if c := Get(CategoryChain); c == a {
		t.Error("distinct categories should have distinct loggers")
	}
}
