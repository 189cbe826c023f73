package types

import "fmt"

// Warning is one recoverable problem encountered during a build, classified
// by a marker error from this package.
type Warning struct {
	Kind    error  // one of the recoverable condition markers
	Stage   string // pipeline stage that reported it
	Subject string // trail id, node id, or anchor the warning concerns
	Detail  string
}

// String renders the warning for logs and the build summary.
func (w Warning) String() string {
	if w.Subject == "" {
		return fmt.Sprintf("%s: %s: %s", w.Stage, w.Kind, w.Detail)
	}
	return fmt.Sprintf("%s: %s: %s: %s", w.Stage, w.Kind, w.Subject, w.Detail)
}

// Diagnostics aggregates the per-item failures and counters of one build so
// a single bad trail cannot abort the whole run. Stages are single-writer;
// parallel sub-computations merge their local Diagnostics afterward.
type Diagnostics struct {
	Warnings []Warning

	TrailsIn        int
	TrailsFiltered  int // below minimum length
	TrailsRejected  int // invalid geometry
	SplitIterations int
	SegmentsCreated int
	SegmentsDropped int // below minimum segment length
	NodesMerged     int
	EdgesDropped    int // self-loops after clustering
	NodesRemoved    int // orphaned after clustering
	Candidates      int // route candidates visited
}

// Warn records one recoverable problem.
func (d *Diagnostics) Warn(kind error, stage, subject, detail string) {
	d.Warnings = append(d.Warnings, Warning{Kind: kind, Stage: stage, Subject: subject, Detail: detail})
}

// Merge folds other into d. Callers serialize merges.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.TrailsIn += other.TrailsIn
	d.TrailsFiltered += other.TrailsFiltered
	d.TrailsRejected += other.TrailsRejected
	d.SplitIterations += other.SplitIterations
	d.SegmentsCreated += other.SegmentsCreated
	d.SegmentsDropped += other.SegmentsDropped
	d.NodesMerged += other.NodesMerged
	d.EdgesDropped += other.EdgesDropped
	d.NodesRemoved += other.NodesRemoved
	d.Candidates += other.Candidates
}

// HasWarning reports whether any recorded warning matches kind.
func (d *Diagnostics) HasWarning(kind error) bool {
	for _, w := range d.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}
