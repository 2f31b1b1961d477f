package models

// Failure records one reference a stage could not process and why
type Failure struct {
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

// StageResult carries a stage's successful output alongside its partial
// failures, so every pipeline component reports best-effort progress the same
// way instead of logging ad hoc.
type StageResult[T any] struct {
	Succeeded T
	Failed    []Failure
}

// Fail appends a failure record
func (r *StageResult[T]) Fail(ref string, err error) {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	r.Failed = append(r.Failed, Failure{Ref: ref, Reason: reason})
}
