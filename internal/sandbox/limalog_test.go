package sandbox

import "testing"

func TestBasicInfoMessage(t *testing.T) {
	line := `time="2024-01-01T00:00:00Z" level=info msg="starting instance"`
	got := FormatLimaLogLine(line)
	want := "  starting instance"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTerminalNotAvailableFiltered(t *testing.T) {
	line := `time="2024-01-01T00:00:00Z" level=info msg="Terminal is not available, using fallback"`
	if got := FormatLimaLogLine(line); got != "" {
		t.Errorf("expected filtered line to be dropped, got %q", got)
	}
}

func TestWarningIsNeverFiltered(t *testing.T) {
	line := `time="2024-01-01T00:00:00Z" level=warning msg="Terminal is not available"`
	got := FormatLimaLogLine(line)
	if got == "" {
		t.Error("warning-level lines must never be filtered")
	}
	if got != "  [WARN] Terminal is not available" {
		t.Errorf("got %q", got)
	}
}

func TestErrorPrefixed(t *testing.T) {
	line := `time="2024-01-01T00:00:00Z" level=error msg="boom"`
	got := FormatLimaLogLine(line)
	want := "  [ERROR] boom"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUnescapesQuotes(t *testing.T) {
	line := `time="2024-01-01T00:00:00Z" level=info msg="path is \"quoted\""`
	got := FormatLimaLogLine(line)
	want := `  path is "quoted"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNonMatchingLinePassesThrough(t *testing.T) {
	line := "plain unstructured output"
	got := FormatLimaLogLine(line)
	want := "  plain unstructured output"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
