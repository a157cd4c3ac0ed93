package lesson

// State identifies the step a session is on.
type State string

const (
	StateInput   State = "input"   // collecting situation and intent
	StateClarify State = "clarify" // AI understanding shown, awaiting confirm/clarify
	StateResult  State = "result"  // corrections generated
)

// Correction is the structured output of the correction generator.
// Alternatives may be legitimately absent.
type Correction struct {
	Corrected         string `json:"corrected"`
	Notes             string `json:"notes"`
	Alternative1      string `json:"alternative1"`
	Alternative1Notes string `json:"alternative1_notes"`
	Alternative2      string `json:"alternative2"`
	Alternative2Notes string `json:"alternative2_notes"`
}

// Record is the accumulated lesson data, built up step by step across
// a session and persisted once finalized. The session controller is
// the only mutator; collaborators receive copies.
type Record struct {
	Context           string `json:"context"`
	StatedIntent      string `json:"stated_intent"`
	InterpretedIntent string `json:"interpreted_intent"`

	// UserConfirmed is nil until a step-2 decision has been made.
	UserConfirmed        *bool  `json:"user_confirmed,omitempty"`
	UserClarification    string `json:"user_clarification,omitempty"`
	ClarificationApplied bool   `json:"clarification_applied"`

	Corrected         string `json:"corrected,omitempty"`
	CorrectedNotes    string `json:"corrected_notes,omitempty"`
	Alternative1      string `json:"alternative1,omitempty"`
	Alternative1Notes string `json:"alternative1_notes,omitempty"`
	Alternative2      string `json:"alternative2,omitempty"`
	Alternative2Notes string `json:"alternative2_notes,omitempty"`

	// Rating is 0 while unset; 1-5 once the user has rated the lesson.
	Rating int `json:"rating,omitempty"`
}

// Patch is a partial record update. Nil fields are left untouched by Merge.
type Patch struct {
	Context              *string
	StatedIntent         *string
	InterpretedIntent    *string
	UserConfirmed        *bool
	UserClarification    *string
	ClarificationApplied *bool
	Correction           *Correction
	Rating               *int
}

// Merge applies a partial update and returns the resulting record.
// The receiver is not modified.
func (r Record) Merge(p Patch) Record {
	if p.Context != nil {
		r.Context = *p.Context
	}
	if p.StatedIntent != nil {
		r.StatedIntent = *p.StatedIntent
	}
	if p.InterpretedIntent != nil {
		r.InterpretedIntent = *p.InterpretedIntent
	}
	if p.UserConfirmed != nil {
		v := *p.UserConfirmed
		r.UserConfirmed = &v
	}
	if p.UserClarification != nil {
		r.UserClarification = *p.UserClarification
	}
	if p.ClarificationApplied != nil {
		r.ClarificationApplied = *p.ClarificationApplied
	}
	if p.Correction != nil {
		r.Corrected = p.Correction.Corrected
		r.CorrectedNotes = p.Correction.Notes
		r.Alternative1 = p.Correction.Alternative1
		r.Alternative1Notes = p.Correction.Alternative1Notes
		r.Alternative2 = p.Correction.Alternative2
		r.Alternative2Notes = p.Correction.Alternative2Notes
	}
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	return r
}

// ClearDownstream returns a copy with every field produced after step 1
// cleared: the AI understanding, the step-2 decision, the corrections
// and the rating. Context and stated intent survive. This is the reset
// rule that guarantees stale corrections can never be shown against a
// changed intent.
func (r Record) ClearDownstream() Record {
	return Record{
		Context:      r.Context,
		StatedIntent: r.StatedIntent,
	}
}

// ResolvedIntent is the text sent to the correction generator: the
// latest clarification if the user ever clarified, otherwise the
// original stated intent.
func (r Record) ResolvedIntent() string {
	if r.UserClarification != "" {
		return r.UserClarification
	}
	return r.StatedIntent
}

// MergeClarification absorbs a clarification into the lesson context so
// later generator calls see it. The transformation is deterministic:
// repeated rounds always append with the same separator.
func MergeClarification(context, clarification string) string {
	return context + "\n\nAdditional clarification: " + clarification
}

// Equal reports field-for-field equality. Used by tests to verify that
// failed collaborator calls leave no partial mutation behind.
func (r Record) Equal(other Record) bool {
	if (r.UserConfirmed == nil) != (other.UserConfirmed == nil) {
		return false
	}
	if r.UserConfirmed != nil && *r.UserConfirmed != *other.UserConfirmed {
		return false
	}
	rc, oc := r, other
	rc.UserConfirmed, oc.UserConfirmed = nil, nil
	return rc == oc
}
