package variantfix

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineDiff renders the changed lines between before and after, prefixed
// with "-" for removed and "+" for added lines. Equal lines are omitted.
func LineDiff(before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(src, dst, false), lines)

	var sb strings.Builder

	for _, d := range diffs {
		var prefix string

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffEqual:
			continue
		}

		for line := range strings.SplitAfterSeq(d.Text, "\n") {
			if line == "" {
				continue
			}

			sb.WriteString(prefix)
			sb.WriteString(line)

			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}

	return sb.String()
}
