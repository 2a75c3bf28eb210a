package variantfix

import (
	"io"

	"github.com/fatih/color"
)

// Progress prints the human-readable status lines of a patch run.
// A nil *Progress prints nothing.
type Progress struct {
	out   io.Writer
	start *color.Color
	done  *color.Color
	skip  *color.Color
	plan  *color.Color
}

// NewProgress writes status lines to out. noColor forces plain text.
func NewProgress(out io.Writer, noColor bool) *Progress {
	p := &Progress{
		out:   out,
		start: color.New(color.FgCyan),
		done:  color.New(color.FgGreen),
		skip:  color.New(color.FgYellow),
		plan:  color.New(color.FgBlue),
	}

	if noColor {
		for _, c := range []*color.Color{p.start, p.done, p.skip, p.plan} {
			c.DisableColor()
		}
	}

	return p
}

func (p *Progress) fixing(path string) {
	if p == nil {
		return
	}

	p.start.Fprintf(p.out, "Fixing %s...\n", path)
}

func (p *Progress) fixed(path string, status Status) {
	if p == nil {
		return
	}

	switch status {
	case StatusPlanned:
		p.plan.Fprintf(p.out, "Would fix %s\n", path)
	case StatusUnchanged:
		p.done.Fprintf(p.out, "Fixed %s (no changes)\n", path)
	default:
		p.done.Fprintf(p.out, "Fixed %s\n", path)
	}
}

func (p *Progress) skipped(path string) {
	if p == nil {
		return
	}

	p.skip.Fprintf(p.out, "Skipping %s: file not found\n", path)
}

func (p *Progress) finished(dryRun bool) {
	if p == nil {
		return
	}

	if dryRun {
		p.plan.Fprintln(p.out, "Dry run complete, no files written.")

		return
	}

	p.done.Fprintln(p.out, "All files fixed!")
}
