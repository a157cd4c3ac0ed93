package lesson

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeInterpreter returns canned understandings and records its calls.
type fakeInterpreter struct {
	calls []interpretCall
	err   error
}

type interpretCall struct {
	situation     string
	statedIntent  string
	clarification string
}

func (f *fakeInterpreter) Interpret(ctx context.Context, situation, statedIntent, clarification string) (string, error) {
	f.calls = append(f.calls, interpretCall{situation, statedIntent, clarification})
	if f.err != nil {
		return "", f.err
	}
	if clarification != "" {
		return fmt.Sprintf("I see that you are trying to %s (noting: %s). Is this correct?", statedIntent, clarification), nil
	}
	return fmt.Sprintf("I see that you are trying to %s. Is this correct?", statedIntent), nil
}

// fakeGenerator returns a canned correction and records resolved intents.
type fakeGenerator struct {
	calls []generateCall
	err   error
	out   Correction
}

type generateCall struct {
	situation      string
	resolvedIntent string
}

func (f *fakeGenerator) Generate(ctx context.Context, situation, resolvedIntent string) (Correction, error) {
	f.calls = append(f.calls, generateCall{situation, resolvedIntent})
	if f.err != nil {
		return Correction{}, f.err
	}
	return f.out, nil
}

// fakeStore records persistence calls and can fail on demand.
type fakeStore struct {
	upserts    []Record
	finals     []Record
	upsertErr  error
	finalErr   error
	nextFinals int
}

func (f *fakeStore) UpsertProgress(ctx context.Context, userID string, rec Record) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, rec)
	return nil
}

func (f *fakeStore) CreateFinal(ctx context.Context, userID string, rec Record) (string, error) {
	if f.finalErr != nil {
		return "", f.finalErr
	}
	f.finals = append(f.finals, rec)
	f.nextFinals++
	return fmt.Sprintf("lesson-%d", f.nextFinals), nil
}

func newTestSession() (*Session, *fakeInterpreter, *fakeGenerator, *fakeStore) {
	interp := &fakeInterpreter{}
	gen := &fakeGenerator{out: Correction{
		Corrected: "我想要牛肉面 (wǒ xiǎng yào niúròu miàn)",
		Notes:     "Use 想要 for polite requests.",
	}}
	store := &fakeStore{}
	return NewSession("alice", interp, gen, store), interp, gen, store
}

func TestSubmitSituation(t *testing.T) {
	sess, interp, _, _ := newTestSession()
	ctx := context.Background()

	view, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles")
	if err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}

	if view.State != StateClarify {
		t.Errorf("expected state %q, got %q", StateClarify, view.State)
	}
	if view.Record.Context != "at a restaurant" {
		t.Errorf("context not recorded: %q", view.Record.Context)
	}
	if view.Record.StatedIntent != "I want noodles" {
		t.Errorf("stated intent not recorded: %q", view.Record.StatedIntent)
	}
	if view.Record.InterpretedIntent == "" {
		t.Error("expected interpreted intent to be set")
	}
	if view.Record.ClarificationApplied {
		t.Error("clarification_applied should be false after step 1")
	}
	if len(interp.calls) != 1 || interp.calls[0].clarification != "" {
		t.Errorf("unexpected interpreter calls: %+v", interp.calls)
	}
}

func TestSubmitSituationEmptyInputs(t *testing.T) {
	sess, interp, _, _ := newTestSession()
	ctx := context.Background()

	before := sess.View()
	_, err := sess.SubmitSituation(ctx, "", "")
	if CodeOf(err) != CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Rejected before any collaborator call, record unchanged.
	if len(interp.calls) != 0 {
		t.Errorf("interpreter should not be called, got %d calls", len(interp.calls))
	}
	after := sess.View()
	if !after.Record.Equal(before.Record) || after.State != before.State {
		t.Error("record or state changed after rejected submission")
	}
}

func TestSubmitSituationInterpreterFailure(t *testing.T) {
	sess, interp, _, _ := newTestSession()
	interp.err = NewGenerationError("backend down", errors.New("dial tcp: refused"))
	ctx := context.Background()

	before := sess.View()
	_, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles")
	if CodeOf(err) != CodeGeneration {
		t.Fatalf("expected generation error, got %v", err)
	}

	after := sess.View()
	if after.State != StateInput {
		t.Errorf("expected to remain in input, got %q", after.State)
	}
	if !after.Record.Equal(before.Record) {
		t.Error("record mutated despite interpreter failure")
	}
}

func TestConfirmIntent(t *testing.T) {
	sess, _, gen, store := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}

	view, err := sess.ConfirmIntent(ctx)
	if err != nil {
		t.Fatalf("ConfirmIntent: %v", err)
	}

	if view.State != StateResult {
		t.Errorf("expected state %q, got %q", StateResult, view.State)
	}
	if view.Record.UserConfirmed == nil || !*view.Record.UserConfirmed {
		t.Error("expected user_confirmed = true")
	}
	if view.Record.Corrected == "" {
		t.Error("expected corrected text to be populated")
	}

	// Confirmed without clarifying: the stated intent is the resolved intent.
	if len(gen.calls) != 1 || gen.calls[0].resolvedIntent != "I want noodles" {
		t.Errorf("unexpected generator calls: %+v", gen.calls)
	}

	// Progress was persisted after the transition.
	if len(store.upserts) != 1 {
		t.Fatalf("expected 1 progress save, got %d", len(store.upserts))
	}
	if store.upserts[0].Corrected == "" {
		t.Error("progress save is missing the corrections")
	}
}

func TestConfirmGeneratorFailureNoMutation(t *testing.T) {
	sess, _, gen, _ := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}

	gen.err = NewGenerationError("backend down", nil)
	before := sess.View()

	_, err := sess.ConfirmIntent(ctx)
	if CodeOf(err) != CodeGeneration {
		t.Fatalf("expected generation error, got %v", err)
	}

	after := sess.View()
	if after.State != StateClarify {
		t.Errorf("expected to remain in clarify, got %q", after.State)
	}
	if after.Record.UserConfirmed != nil {
		t.Error("user_confirmed must stay undecided on a failed confirm")
	}
	if !after.Record.Equal(before.Record) {
		t.Error("record mutated despite generator failure")
	}
}

func TestClarificationReplacesInterpretation(t *testing.T) {
	sess, _, _, _ := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}

	v1, err := sess.SubmitClarification(ctx, "for a group of 4")
	if err != nil {
		t.Fatalf("SubmitClarification #1: %v", err)
	}
	v2, err := sess.SubmitClarification(ctx, "actually just for two")
	if err != nil {
		t.Fatalf("SubmitClarification #2: %v", err)
	}

	if v2.State != StateClarify {
		t.Errorf("clarification loop must stay in clarify, got %q", v2.State)
	}
	if v2.Record.InterpretedIntent == v1.Record.InterpretedIntent {
		t.Error("second clarification did not replace the interpretation")
	}
	if !v2.Record.ClarificationApplied {
		t.Error("clarification_applied should be true")
	}
	// Replaced, never appended.
	if v2.Record.UserClarification != "actually just for two" {
		t.Errorf("expected latest clarification only, got %q", v2.Record.UserClarification)
	}
}

func TestClarifyDoesNotGenerate(t *testing.T) {
	sess, _, gen, _ := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}
	if _, err := sess.SubmitClarification(ctx, "for a group of 4"); err != nil {
		t.Fatalf("SubmitClarification: %v", err)
	}

	// Declining the understanding only reinterprets; corrections wait
	// for an explicit confirmation.
	if len(gen.calls) != 0 {
		t.Errorf("generator must not run during clarification, got %d calls", len(gen.calls))
	}
}

func TestClarifyMergesContext(t *testing.T) {
	sess, _, _, _ := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}
	view, err := sess.SubmitClarification(ctx, "for a group of 4")
	if err != nil {
		t.Fatalf("SubmitClarification: %v", err)
	}

	want := "at a restaurant\n\nAdditional clarification: for a group of 4"
	if view.Record.Context != want {
		t.Errorf("context merge mismatch:\n got %q\nwant %q", view.Record.Context, want)
	}
}

func TestClarifyEmptyText(t *testing.T) {
	sess, interp, _, _ := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}
	callsBefore := len(interp.calls)

	_, err := sess.SubmitClarification(ctx, "   ")
	if CodeOf(err) != CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(interp.calls) != callsBefore {
		t.Error("interpreter called for an empty clarification")
	}
}

func TestConfirmAfterClarifyUsesLatestClarification(t *testing.T) {
	sess, _, gen, _ := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}
	if _, err := sess.SubmitClarification(ctx, "for a group of 4"); err != nil {
		t.Fatalf("SubmitClarification #1: %v", err)
	}
	if _, err := sess.SubmitClarification(ctx, "order for a group of 4, politely"); err != nil {
		t.Fatalf("SubmitClarification #2: %v", err)
	}

	view, err := sess.ConfirmIntent(ctx)
	if err != nil {
		t.Fatalf("ConfirmIntent: %v", err)
	}

	if view.Record.UserConfirmed == nil || !*view.Record.UserConfirmed {
		t.Error("expected user_confirmed = true after confirming")
	}
	if len(gen.calls) != 1 {
		t.Fatalf("expected 1 generator call, got %d", len(gen.calls))
	}
	// The latest clarification, never the original intent or a blend.
	if gen.calls[0].resolvedIntent != "order for a group of 4, politely" {
		t.Errorf("resolved intent = %q, want latest clarification", gen.calls[0].resolvedIntent)
	}
}

func TestRegenerateClearsDownstream(t *testing.T) {
	sess, _, _, _ := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}
	if _, err := sess.SubmitClarification(ctx, "for a group of 4"); err != nil {
		t.Fatalf("SubmitClarification: %v", err)
	}
	if _, err := sess.ConfirmIntent(ctx); err != nil {
		t.Fatalf("ConfirmIntent: %v", err)
	}
	if _, err := sess.ReturnToClarification(); err != nil {
		t.Fatalf("ReturnToClarification: %v", err)
	}

	view, err := sess.RegenerateFromInput(ctx)
	if err != nil {
		t.Fatalf("RegenerateFromInput: %v", err)
	}

	rec := view.Record
	if rec.Corrected != "" || rec.Alternative1 != "" || rec.Alternative2 != "" {
		t.Error("corrections must be cleared by regeneration")
	}
	if rec.UserConfirmed != nil {
		t.Error("user_confirmed must be cleared by regeneration")
	}
	if rec.UserClarification != "" {
		t.Error("user_clarification must be cleared by regeneration")
	}
	if rec.ClarificationApplied {
		t.Error("clarification_applied must be cleared by regeneration")
	}
	if rec.InterpretedIntent == "" {
		t.Error("expected a fresh interpreted intent")
	}
	if view.State != StateClarify {
		t.Errorf("expected state %q, got %q", StateClarify, view.State)
	}
}

func TestRegenerateFailureLeavesRecord(t *testing.T) {
	sess, interp, _, _ := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}
	if _, err := sess.SubmitClarification(ctx, "for a group of 4"); err != nil {
		t.Fatalf("SubmitClarification: %v", err)
	}

	interp.err = NewGenerationError("backend down", nil)
	before := sess.View()

	_, err := sess.RegenerateFromInput(ctx)
	if CodeOf(err) != CodeGeneration {
		t.Fatalf("expected generation error, got %v", err)
	}

	after := sess.View()
	if !after.Record.Equal(before.Record) || after.State != before.State {
		t.Error("record or state changed despite regeneration failure")
	}
}

func TestReturnToClarification(t *testing.T) {
	sess, interp, gen, _ := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}
	if _, err := sess.ConfirmIntent(ctx); err != nil {
		t.Fatalf("ConfirmIntent: %v", err)
	}

	interpCalls, genCalls := len(interp.calls), len(gen.calls)

	view, err := sess.ReturnToClarification()
	if err != nil {
		t.Fatalf("ReturnToClarification: %v", err)
	}
	if view.State != StateClarify {
		t.Errorf("expected state %q, got %q", StateClarify, view.State)
	}
	if view.Record.InterpretedIntent == "" {
		t.Error("interpreted intent must survive stepping back")
	}
	if len(interp.calls) != interpCalls || len(gen.calls) != genCalls {
		t.Error("stepping back must not call any collaborator")
	}
}

func TestRatingOutOfRange(t *testing.T) {
	sess, _, _, store := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}
	if _, err := sess.ConfirmIntent(ctx); err != nil {
		t.Fatalf("ConfirmIntent: %v", err)
	}

	before := sess.View()
	for _, score := range []int{0, 6, -1} {
		_, err := sess.SubmitRating(ctx, score)
		if CodeOf(err) != CodeValidation {
			t.Errorf("SubmitRating(%d): expected validation error, got %v", score, err)
		}
	}

	after := sess.View()
	if !after.Record.Equal(before.Record) || after.State != before.State {
		t.Error("record or state changed after rejected ratings")
	}
	if len(store.finals) != 0 {
		t.Error("store must not be called for an out-of-range rating")
	}
}

func TestRatingWriteOnce(t *testing.T) {
	sess, _, _, store := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}
	if _, err := sess.ConfirmIntent(ctx); err != nil {
		t.Fatalf("ConfirmIntent: %v", err)
	}

	view, err := sess.SubmitRating(ctx, 4)
	if err != nil {
		t.Fatalf("SubmitRating(4): %v", err)
	}
	if view.Record.Rating != 4 {
		t.Errorf("expected rating 4, got %d", view.Record.Rating)
	}
	if view.LessonID == "" {
		t.Error("expected a lesson id after the final save")
	}

	// First write wins; later attempts are rejected.
	_, err = sess.SubmitRating(ctx, 2)
	if CodeOf(err) != CodeValidation {
		t.Fatalf("expected validation error for duplicate rating, got %v", err)
	}
	if got := sess.View().Record.Rating; got != 4 {
		t.Errorf("stored rating changed to %d, want 4", got)
	}
	if len(store.finals) != 1 {
		t.Errorf("expected exactly 1 final save, got %d", len(store.finals))
	}
}

func TestRatingPersistenceFailureRollsBack(t *testing.T) {
	sess, _, _, store := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}
	if _, err := sess.ConfirmIntent(ctx); err != nil {
		t.Fatalf("ConfirmIntent: %v", err)
	}

	store.finalErr = NewPersistenceError("store unreachable", nil)

	view, err := sess.SubmitRating(ctx, 5)
	if CodeOf(err) != CodePersistence {
		t.Fatalf("expected persistence error, got %v", err)
	}
	// The pending rating is rolled back, the corrections stay visible.
	if view.Record.Rating != 0 {
		t.Errorf("pending rating not rolled back, got %d", view.Record.Rating)
	}
	if view.Record.Corrected == "" {
		t.Error("corrections must survive a failed save")
	}

	// Retry succeeds once the store recovers.
	store.finalErr = nil
	view, err = sess.SubmitRating(ctx, 5)
	if err != nil {
		t.Fatalf("retry SubmitRating: %v", err)
	}
	if view.Record.Rating != 5 {
		t.Errorf("expected rating 5 after retry, got %d", view.Record.Rating)
	}
}

func TestProgressSaveFailureDoesNotBlockConfirm(t *testing.T) {
	sess, _, _, store := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}

	store.upsertErr = NewPersistenceError("store unreachable", nil)

	view, err := sess.ConfirmIntent(ctx)
	if err != nil {
		t.Fatalf("ConfirmIntent must not fail on a progress-save error: %v", err)
	}
	if view.State != StateResult {
		t.Errorf("expected state %q, got %q", StateResult, view.State)
	}
	if view.Record.Corrected == "" {
		t.Error("corrections must remain visible despite the failed save")
	}
}

func TestReset(t *testing.T) {
	sess, _, _, _ := newTestSession()
	ctx := context.Background()

	if _, err := sess.SubmitSituation(ctx, "at a restaurant", "I want noodles"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}
	if _, err := sess.ConfirmIntent(ctx); err != nil {
		t.Fatalf("ConfirmIntent: %v", err)
	}
	if _, err := sess.SubmitRating(ctx, 3); err != nil {
		t.Fatalf("SubmitRating: %v", err)
	}

	view, err := sess.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if view.State != StateInput {
		t.Errorf("expected state %q, got %q", StateInput, view.State)
	}
	if !view.Record.Equal(Record{}) {
		t.Errorf("expected an empty record, got %+v", view.Record)
	}
	if view.LessonID != "" {
		t.Error("lesson id must not carry over a reset")
	}

	// A fresh lesson can be rated again: nothing carries over.
	if _, err := sess.SubmitSituation(ctx, "buying train tickets", "two tickets to Shanghai"); err != nil {
		t.Fatalf("SubmitSituation after reset: %v", err)
	}
	if _, err := sess.ConfirmIntent(ctx); err != nil {
		t.Fatalf("ConfirmIntent after reset: %v", err)
	}
	if _, err := sess.SubmitRating(ctx, 5); err != nil {
		t.Fatalf("SubmitRating after reset: %v", err)
	}
}

func TestActionsRejectedInWrongState(t *testing.T) {
	sess, _, _, _ := newTestSession()
	ctx := context.Background()

	// Nothing but SubmitSituation is legal in the input state.
	if _, err := sess.ConfirmIntent(ctx); CodeOf(err) != CodeValidation {
		t.Errorf("ConfirmIntent in input: expected validation error, got %v", err)
	}
	if _, err := sess.SubmitClarification(ctx, "x"); CodeOf(err) != CodeValidation {
		t.Errorf("SubmitClarification in input: expected validation error, got %v", err)
	}
	if _, err := sess.RegenerateFromInput(ctx); CodeOf(err) != CodeValidation {
		t.Errorf("RegenerateFromInput in input: expected validation error, got %v", err)
	}
	if _, err := sess.ReturnToClarification(); CodeOf(err) != CodeValidation {
		t.Errorf("ReturnToClarification in input: expected validation error, got %v", err)
	}
	if _, err := sess.SubmitRating(ctx, 3); CodeOf(err) != CodeValidation {
		t.Errorf("SubmitRating in input: expected validation error, got %v", err)
	}

	// Submitting a situation twice is rejected as well.
	if _, err := sess.SubmitSituation(ctx, "a", "b"); err != nil {
		t.Fatalf("SubmitSituation: %v", err)
	}
	if _, err := sess.SubmitSituation(ctx, "a", "b"); CodeOf(err) != CodeValidation {
		t.Errorf("second SubmitSituation: expected validation error, got %v", err)
	}
}
