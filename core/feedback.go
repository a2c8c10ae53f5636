package core

// RunInfoKey is the reserved EvaluatorInfo entry holding the Provenance of the
// pipeline invocation that produced a FeedbackResult.
const RunInfoKey = "run_info"

// FeedbackResult is the structured grading output for a single run.
//
// Score carries the numeric grade when the parser can derive one; Value holds
// the raw verdict (label, number or structured value). EvaluatorInfo is an
// extensible metadata map the orchestrator augments with provenance.
type FeedbackResult struct {
	Key           string         `json:"key"`
	Score         *float64       `json:"score,omitempty"`
	Value         any            `json:"value,omitempty"`
	Comment       string         `json:"comment,omitempty"`
	Correction    map[string]any `json:"correction,omitempty"`
	EvaluatorInfo map[string]any `json:"evaluator_info,omitempty"`
}

// Float returns a pointer to v. Handy for populating Score.
func Float(v float64) *float64 { return &v }

// SetEvaluatorInfo records key=value in EvaluatorInfo. The map is replaced by a
// copy before the first write so maps shared with a parser or caller are never
// mutated.
func (f *FeedbackResult) SetEvaluatorInfo(key string, value any) {
	info := make(map[string]any, len(f.EvaluatorInfo)+1)
	for k, v := range f.EvaluatorInfo {
		info[k] = v
	}
	info[key] = value
	f.EvaluatorInfo = info
}

// RunInfo returns the provenance recorded under RunInfoKey.
func (f *FeedbackResult) RunInfo() (Provenance, bool) {
	if f == nil {
		return Provenance{}, false
	}
	p, ok := f.EvaluatorInfo[RunInfoKey].(Provenance)
	return p, ok
}
