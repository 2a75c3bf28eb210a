package variantfix

// Status is the result of processing one target.
type Status string

// Target statuses.
const (
	StatusPatched   Status = "patched"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusPlanned   Status = "planned"
	// StatusFailed marks the target that stopped a run. It is recorded in
	// telemetry only; failed targets are not part of the Report.
	StatusFailed Status = "failed"
)

// Outcome describes what happened to one target.
type Outcome struct {
	Path        string    `json:"path"                   yaml:"path"`
	Status      Status    `json:"status"                 yaml:"status"`
	Language    string    `json:"language,omitempty"     yaml:"language,omitempty"`
	Diff        string    `json:"diff,omitempty"         yaml:"diff,omitempty"`
	Hits        []RuleHit `json:"hits,omitempty"         yaml:"hits,omitempty"`
	BytesBefore int64     `json:"bytes_before,omitempty" yaml:"bytes_before,omitempty"`
	BytesAfter  int64     `json:"bytes_after,omitempty"  yaml:"bytes_after,omitempty"`
	Lines       int       `json:"lines,omitempty"        yaml:"lines,omitempty"`
}

// Replacements returns the number of rewrites applied to the target.
func (o Outcome) Replacements() int {
	return TotalHits(o.Hits)
}

// Report is the ordered result of a patch run.
type Report struct {
	Wrapper  string    `json:"wrapper"  yaml:"wrapper"`
	Outcomes []Outcome `json:"targets"  yaml:"targets"`
	DryRun   bool      `json:"dry_run"  yaml:"dry_run"`
}

// Count returns how many targets ended with status.
func (r *Report) Count(status Status) int {
	count := 0

	for _, outcome := range r.Outcomes {
		if outcome.Status == status {
			count++
		}
	}

	return count
}

// Replacements returns the number of rewrites across all targets.
func (r *Report) Replacements() int {
	total := 0
	for _, outcome := range r.Outcomes {
		total += outcome.Replacements()
	}

	return total
}
