package sandbox

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

var limaLogLine = regexp.MustCompile(`^time="[^"]*"\s+level=(\w+)\s+msg="((?:[^"\\]|\\.)*)"`)

// filteredSubstrings are noisy messages suppressed at info/debug/trace level
// only; they still surface at warning/error level.
var filteredSubstrings = []string{
	"Terminal is not available",
	"Not forwarding TCP",
}

// FormatLimaLogLine reformats one line of limactl's logrus output for
// display: info/debug/trace lines matching filteredSubstrings are dropped,
// warning/error lines get a [WARN]/[ERROR] prefix, and anything that
// doesn't match the logrus format passes through with a two-space indent.
// Returns "" for a line that should be dropped entirely.
func FormatLimaLogLine(line string) string {
	m := limaLogLine.FindStringSubmatch(line)
	if m == nil {
		return "  " + line
	}
	level, msg := strings.ToLower(m[1]), unescapeLimaMsg(m[2])

	if level == "info" || level == "debug" || level == "trace" {
		for _, sub := range filteredSubstrings {
			if strings.Contains(msg, sub) {
				return ""
			}
		}
	}

	switch level {
	case "warning", "warn":
		return "  [WARN] " + msg
	case "error":
		return "  [ERROR] " + msg
	default:
		return "  " + msg
	}
}

func unescapeLimaMsg(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}

// streamLimaLog copies lines from r to w through FormatLimaLogLine, used to
// reformat a Lima subprocess's stderr as it streams.
func streamLimaLog(r io.Reader, w io.Writer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if formatted := FormatLimaLogLine(scanner.Text()); formatted != "" {
			io.WriteString(w, formatted+"\n")
		}
	}
}
