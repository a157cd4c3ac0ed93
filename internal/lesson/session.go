package lesson

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Session is the lesson state machine for a single user. It owns the
// in-flight Record, sequences calls to the interpreter, generator and
// store, and enforces transition legality. Actions are processed one at
// a time: a collaborator call completes (or fails) before any state is
// committed, so no intermediate state is ever observable.
//
// Every failed collaborator call leaves the record field-for-field
// unchanged; the caller may simply re-issue the same action.
type Session struct {
	mu sync.Mutex

	id     string
	userID string

	state       State
	record      Record
	lessonID    string
	ratingSaved bool

	interpreter IntentInterpreter
	generator   CorrectionGenerator
	store       SessionStore
}

// View is the public snapshot returned by every session action.
type View struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	State     State  `json:"state"`
	Record    Record `json:"record"`
	// LessonID is set once the lesson has been durably saved.
	LessonID string `json:"lesson_id,omitempty"`
}

// NewSession creates a fresh session for the given user. The record
// starts empty in the input state.
func NewSession(userID string, interpreter IntentInterpreter, generator CorrectionGenerator, store SessionStore) *Session {
	return &Session{
		id:          uuid.New().String(),
		userID:      userID,
		state:       StateInput,
		interpreter: interpreter,
		generator:   generator,
		store:       store,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// View returns the current public snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() View {
	return View{
		SessionID: s.id,
		UserID:    s.userID,
		State:     s.state,
		Record:    s.record,
		LessonID:  s.lessonID,
	}
}

// SubmitSituation records the learner's situation and what they want to
// say, asks the interpreter for an understanding of the intent, and
// advances to the clarify step.
func (s *Session) SubmitSituation(ctx context.Context, situation, statedIntent string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInput {
		return s.view(), NewValidationError(fmt.Sprintf("cannot submit a situation in the %s step", s.state))
	}

	situation = strings.TrimSpace(situation)
	statedIntent = strings.TrimSpace(statedIntent)
	if situation == "" || statedIntent == "" {
		return s.view(), NewValidationError("context and intent are both required")
	}

	interpreted, err := s.interpreter.Interpret(ctx, situation, statedIntent, "")
	if err != nil {
		return s.view(), err
	}

	applied := false
	s.record = s.record.Merge(Patch{
		Context:              &situation,
		StatedIntent:         &statedIntent,
		InterpretedIntent:    &interpreted,
		ClarificationApplied: &applied,
	})
	s.state = StateClarify

	return s.view(), nil
}

// ConfirmIntent accepts the AI understanding, generates corrections for
// the resolved intent, and advances to the result step. The resolved
// intent is the latest clarification if the learner ever clarified,
// otherwise the original stated intent — never a blend of rounds.
func (s *Session) ConfirmIntent(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateClarify {
		return s.view(), NewValidationError(fmt.Sprintf("cannot confirm the intent in the %s step", s.state))
	}

	correction, err := s.generator.Generate(ctx, s.record.Context, s.record.ResolvedIntent())
	if err != nil {
		return s.view(), err
	}

	confirmed := true
	s.record = s.record.Merge(Patch{
		UserConfirmed: &confirmed,
		Correction:    &correction,
	})
	s.state = StateResult

	// Best-effort progress save; a store failure must not block the
	// transition or discard the generated corrections.
	if err := s.store.UpsertProgress(ctx, s.userID, s.record); err != nil {
		log.Printf("lesson session %s: progress save failed: %v", s.id, err)
	}

	return s.view(), nil
}

// SubmitClarification rejects the AI understanding and supplies
// clarifying text. The interpreter regenerates the understanding from
// the latest inputs (replacing, never appending), the clarification is
// absorbed into the context, and the session stays in the clarify step
// so the loop can repeat until the learner confirms.
func (s *Session) SubmitClarification(ctx context.Context, clarification string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateClarify {
		return s.view(), NewValidationError(fmt.Sprintf("cannot submit a clarification in the %s step", s.state))
	}

	clarification = strings.TrimSpace(clarification)
	if clarification == "" {
		return s.view(), NewValidationError("clarification text is required")
	}

	interpreted, err := s.interpreter.Interpret(ctx, s.record.Context, s.record.StatedIntent, clarification)
	if err != nil {
		return s.view(), err
	}

	confirmed := false
	applied := true
	merged := MergeClarification(s.record.Context, clarification)
	s.record = s.record.Merge(Patch{
		Context:              &merged,
		InterpretedIntent:    &interpreted,
		UserConfirmed:        &confirmed,
		UserClarification:    &clarification,
		ClarificationApplied: &applied,
	})

	if err := s.store.UpsertProgress(ctx, s.userID, s.record); err != nil {
		log.Printf("lesson session %s: progress save failed: %v", s.id, err)
	}

	return s.view(), nil
}

// RegenerateFromInput discards the AI understanding and everything
// downstream of it, then reinterprets the current context and stated
// intent from scratch. Net effect: a fresh understanding with no stale
// corrections or step-2 decisions left behind.
func (s *Session) RegenerateFromInput(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateClarify {
		return s.view(), NewValidationError(fmt.Sprintf("cannot regenerate from input in the %s step", s.state))
	}

	interpreted, err := s.interpreter.Interpret(ctx, s.record.Context, s.record.StatedIntent, "")
	if err != nil {
		return s.view(), err
	}

	cleared := s.record.ClearDownstream()
	cleared.InterpretedIntent = interpreted
	s.record = cleared
	s.state = StateClarify

	return s.view(), nil
}

// ReturnToClarification steps back from the result to the clarify step
// without re-calling any collaborator; the understanding is already
// defined and the learner may re-decide.
func (s *Session) ReturnToClarification() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateResult {
		return s.view(), NewValidationError(fmt.Sprintf("cannot return to clarification in the %s step", s.state))
	}

	s.state = StateClarify
	return s.view(), nil
}

// SubmitRating records a 1-5 rating and durably saves the full lesson.
// A session holds at most one rating: the first successful save wins
// and later attempts are rejected. On a persistence failure the pending
// rating is rolled back in memory so the learner can retry.
func (s *Session) SubmitRating(ctx context.Context, score int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateResult {
		return s.view(), NewValidationError(fmt.Sprintf("cannot rate the lesson in the %s step", s.state))
	}
	if score < 1 || score > 5 {
		return s.view(), NewValidationError(fmt.Sprintf("rating must be between 1 and 5, got %d", score))
	}
	if s.ratingSaved {
		return s.view(), NewValidationError("this lesson has already been rated")
	}

	rating := score
	s.record = s.record.Merge(Patch{Rating: &rating})

	id, err := s.store.CreateFinal(ctx, s.userID, s.record)
	if err != nil {
		// Do not pretend the save happened.
		zero := 0
		s.record = s.record.Merge(Patch{Rating: &zero})
		return s.view(), err
	}

	s.lessonID = id
	s.ratingSaved = true

	return s.view(), nil
}

// Reset discards the record entirely and returns to the input step with
// a fresh record. Nothing carries over.
func (s *Session) Reset() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = Record{}
	s.state = StateInput
	s.lessonID = ""
	s.ratingSaved = false

	return s.view(), nil
}
