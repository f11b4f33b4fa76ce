package wizard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sheleads/intake/core"
	"github.com/sheleads/intake/core/application"
)

// Terminal marks a wizard session that can no longer advance.
type Terminal int

const (
	TerminalNone Terminal = iota
	TerminalDisqualified
	TerminalCompleted
)

var (
	// ErrTerminal is returned when navigating a finished session.
	ErrTerminal = errors.New("the application has ended")
	// ErrAtStart is returned when retreating from the first visible step.
	ErrAtStart = errors.New("already at the first step")
)

// Submitter hands a completed answer set to the intake pipeline.
// *application.Service satisfies it.
type Submitter interface {
	Submit(ctx context.Context, answers application.AnswerRecord) (application.SubmissionResult, error)
}

// Sequencer drives one applicant through the wizard. Forward motion skips
// steps whose visibility predicate rejects the current answers and wipes
// their fields; backward motion replays the exact path taken, so branch
// changes can never strand the applicant on an unreachable step.
//
// A Sequencer is not safe for concurrent use; each session owns one.
type Sequencer struct {
	steps     []Step
	answers   application.AnswerRecord
	index     int
	history   []int
	terminal  Terminal
	reason    string
	result    *application.SubmissionResult
	submitter Submitter
}

func NewSequencer(submitter Submitter) *Sequencer {
	return &Sequencer{
		steps:     Steps(),
		answers:   application.AnswerRecord{},
		submitter: submitter,
	}
}

// Current returns the step to render.
func (s *Sequencer) Current() Step {
	return s.steps[s.index]
}

// Position returns the 1-based index of the current step among the steps
// visible for the current answers, and the visible total.
func (s *Sequencer) Position() (pos, total int) {
	for i := range s.steps {
		if !s.visible(i) {
			continue
		}
		total++
		if i <= s.index {
			pos++
		}
	}
	return pos, total
}

// Answers returns a copy of everything recorded so far.
func (s *Sequencer) Answers() application.AnswerRecord {
	return s.answers.Clone()
}

func (s *Sequencer) Terminal() Terminal { return s.terminal }

// Reason returns the disqualification message, if any.
func (s *Sequencer) Reason() string { return s.reason }

// Result returns the submission outcome once the session completed.
func (s *Sequencer) Result() *application.SubmissionResult { return s.result }

// Advance records the answers for the current step and moves forward. When
// the last step is left behind, the collected answers are submitted; a
// submission failure keeps the session on the last step so it can be retried.
func (s *Sequencer) Advance(ctx context.Context, values application.AnswerRecord) error {
	if s.terminal != TerminalNone {
		return ErrTerminal
	}

	step := s.steps[s.index]
	for _, f := range step.Fields {
		if v, ok := values[f]; ok {
			s.answers.Set(f, v)
		}
	}
	if step.Normalize != nil {
		step.Normalize(s.answers)
	}

	var flds []core.FieldError
	for _, f := range step.Required {
		if !s.answers.Answered(f) {
			flds = append(flds, core.FieldError{Field: f, Error: "this field is required"})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.New("step is incomplete"), flds...)
	}
	if step.Validate != nil {
		if err := step.Validate(s.answers); err != nil {
			return err
		}
	}

	// disqualification is re-checked over the whole record, not just the
	// step that was answered
	for _, st := range s.steps {
		if st.Disqualifies != nil && st.Disqualifies(s.answers) {
			s.terminal = TerminalDisqualified
			s.reason = st.Reason
			return nil
		}
	}

	next := s.index + 1
	for next < len(s.steps) && !s.visible(next) {
		s.answers.Clear(s.steps[next].Fields...)
		next++
	}
	if next >= len(s.steps) {
		return s.submit(ctx)
	}

	s.history = append(s.history, s.index)
	s.index = next
	return nil
}

// Retreat returns to the step the applicant actually came from.
func (s *Sequencer) Retreat() error {
	if s.terminal != TerminalNone {
		return ErrTerminal
	}
	if len(s.history) == 0 {
		return ErrAtStart
	}
	s.index = s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	return nil
}

func (s *Sequencer) visible(i int) bool {
	if s.steps[i].Visible == nil {
		return true
	}
	return s.steps[i].Visible(s.answers)
}

func (s *Sequencer) submit(ctx context.Context) error {
	res, err := s.submitter.Submit(ctx, s.answers.Clone())
	if err != nil {
		return err
	}
	s.terminal = TerminalCompleted
	s.result = &res
	return nil
}
