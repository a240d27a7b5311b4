// Package difftool parses unified diffs into addressable hunks for the
// dashboard's patch mode (spec §4.H): stage/skip/split/undo one hunk at a
// time against a worktree, independent of the dashboard's rendering.
package difftool

import (
	"fmt"
	"regexp"
	"strings"
)

// Hunk is one `@@ ... @@` section of a unified diff, carrying enough of the
// surrounding file header to be re-applied standalone via `git apply`.
type Hunk struct {
	Filename   string
	FileHeader string // the `diff --git`/`---`/`+++` lines preceding the hunk
	HunkBody   string // the `@@ ... @@` line and its body, no trailing newline
}

// Patch renders the hunk as a standalone patch git apply will accept.
func (h Hunk) Patch() string {
	return h.FileHeader + "\n" + h.HunkBody + "\n"
}

var hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// ParseHunkHeader extracts (oldStart, newStart) from a `@@ -a,b +c,d @@` line.
func ParseHunkHeader(hunkBody string) (oldStart, newStart int, ok bool) {
	firstLine := hunkBody
	if idx := strings.IndexByte(hunkBody, '\n'); idx >= 0 {
		firstLine = hunkBody[:idx]
	}
	m := hunkHeaderPattern.FindStringSubmatch(firstLine)
	if m == nil {
		return 0, 0, false
	}
	fmt.Sscanf(m[1], "%d", &oldStart)
	fmt.Sscanf(m[2], "%d", &newStart)
	return oldStart, newStart, true
}

var diffGitLinePattern = regexp.MustCompile(`^diff --git a/(.*) b/(.*)$`)

// ParseHunks splits a `git diff --no-color` stream into per-hunk Hunks, one
// per `@@ ... @@` section, each paired with the file header that precedes
// its first hunk in that file.
func ParseHunks(diff string) []Hunk {
	var hunks []Hunk
	lines := strings.Split(diff, "\n")

	var currentFile string
	var headerLines []string
	var inHeader bool
	var currentHunkLines []string
	flush := func() {
		if len(currentHunkLines) > 0 {
			hunks = append(hunks, Hunk{
				Filename:   currentFile,
				FileHeader: strings.Join(headerLines, "\n"),
				HunkBody:   strings.TrimRight(strings.Join(currentHunkLines, "\n"), "\n"),
			})
			currentHunkLines = nil
		}
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			if m := diffGitLinePattern.FindStringSubmatch(line); m != nil {
				currentFile = m[2]
			}
			headerLines = []string{line}
			inHeader = true
		case strings.HasPrefix(line, "@@ "):
			flush()
			inHeader = false
			currentHunkLines = []string{line}
		case inHeader:
			headerLines = append(headerLines, line)
		default:
			if currentHunkLines != nil {
				currentHunkLines = append(currentHunkLines, line)
			}
		}
	}
	flush()
	return hunks
}

// Split breaks a hunk into smaller hunks at interior runs of 3 or more
// unchanged context lines, recomputing each sub-hunk's @@ header. Returns
// nil if the hunk has no such run (nothing to split).
func (h Hunk) Split() []Hunk {
	lines := strings.Split(h.HunkBody, "\n")
	if len(lines) == 0 {
		return nil
	}
	oldStart, newStart, ok := ParseHunkHeader(h.HunkBody)
	if !ok {
		return nil
	}
	body := lines[1:]

	type segment struct {
		lines             []string
		oldStart, newLine int
	}
	var segments []segment
	var current []string
	oldLine, newLineNum := oldStart, newStart
	segOldStart, segNewStart := oldStart, newStart
	contextRun := 0

	flushSegment := func() {
		// close the current segment (if non-empty) and start a new one
		if len(current) > 0 {
			segments = append(segments, segment{lines: append([]string{}, current...), oldStart: segOldStart, newLine: segNewStart})
		}
		current = nil
	}

	for _, line := range body {
		if line == "" {
			continue
		}
		isContext := strings.HasPrefix(line, " ")
		if isContext {
			contextRun++
		} else {
			if contextRun >= 3 && len(current) > 0 {
				// split point: keep 3 lines of trailing context in this segment,
				// the rest becomes lead-in context for the next
				keep := 3
				trailing := current[len(current)-contextRun:]
				current = current[:len(current)-contextRun]
				current = append(current, trailing[:min(keep, len(trailing))]...)
				flushSegment()
				lead := trailing[min(keep, len(trailing)):]
				current = append(current, lead...)
				segOldStart = oldLine - len(lead)
				segNewStart = newLineNum - len(lead)
			}
			contextRun = 0
		}
		current = append(current, line)
		if isContext {
			oldLine++
			newLineNum++
		} else if strings.HasPrefix(line, "-") {
			oldLine++
		} else if strings.HasPrefix(line, "+") {
			newLineNum++
		}
	}
	flushSegment()

	if len(segments) <= 1 {
		return nil
	}

	out := make([]Hunk, 0, len(segments))
	for _, seg := range segments {
		oldCount, newCount := 0, 0
		for _, l := range seg.lines {
			switch {
			case strings.HasPrefix(l, "-"):
				oldCount++
			case strings.HasPrefix(l, "+"):
				newCount++
			default:
				oldCount++
				newCount++
			}
		}
		header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", seg.oldStart, oldCount, seg.newLine, newCount)
		out = append(out, Hunk{
			Filename:   h.Filename,
			FileHeader: h.FileHeader,
			HunkBody:   header + "\n" + strings.Join(seg.lines, "\n"),
		})
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
