package checkout

import "fmt"

// Step is the position in the five-step checkout wizard.
type Step int

const (
	StepReview Step = iota + 1
	StepAddress
	StepShipping
	StepPayment
	StepNotes
)

func (s Step) String() string {
	switch s {
	case StepReview:
		return "review"
	case StepAddress:
		return "address"
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepNotes:
		return "notes"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

func (s Step) Valid() bool {
	return s >= StepReview && s <= StepNotes
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

func (s Status) String() string {
	return string(s)
}

var transitions = map[Status][]Status{
	StatusInProgress: {StatusProcessing},
	StatusProcessing: {StatusSuccess, StatusFailed},
	StatusFailed:     {StatusInProgress},
}

// CanTransitionTo reports whether a session may move from one status to
// another. Success is final.
func CanTransitionTo(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
