package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultMaxLines bounds previews so a rewritten binary-ish file cannot
// flood a report.
const DefaultMaxLines = 200

// Lines renders a line-oriented diff from current to desired. Unchanged
// lines are prefixed with a space, removed lines with '-', added lines with
// '+'. Identical inputs produce an empty string.
func Lines(current, desired []byte, currentLabel, desiredLabel string) string {
	return LinesMax(current, desired, currentLabel, desiredLabel, DefaultMaxLines)
}

// LinesMax is Lines with an explicit output bound; maxLines <= 0 disables it.
func LinesMax(current, desired []byte, currentLabel, desiredLabel string, maxLines int) string {
	if bytes.Equal(current, desired) {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(string(current), string(desired))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var body []string
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range splitKeepingContent(d.Text) {
			body = append(body, prefix+line)
		}
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "--- %s\n", currentLabel)
	fmt.Fprintf(&buf, "+++ %s\n", desiredLabel)
	if maxLines > 0 && len(body) > maxLines {
		hidden := len(body) - maxLines
		body = body[:maxLines]
		body = append(body, fmt.Sprintf("... (%d more lines)", hidden))
	}
	for _, line := range body {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.String()
}

func splitKeepingContent(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}
	}
	return strings.Split(text, "\n")
}
