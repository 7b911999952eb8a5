package backfill

// Progress is an immutable snapshot of a backfill run. Invariant at every
// observation point: Succeeded + Failed + Skipped == Processed, and
// Processed <= Total.
type Progress struct {
	Total     int   `json:"total"`
	Processed int   `json:"processed"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	Skipped   int   `json:"skipped"`
	ElapsedMs int64 `json:"elapsed_ms"`
}

// Done reports whether every counted row has been visited.
func (p Progress) Done() bool {
	return p.Processed >= p.Total
}
