package wizard

import "fmt"

// Step is a wizard stage. Steps only move forward; Reset returns to StepUpload.
type Step int

const (
	StepUpload Step = iota
	StepRetouch
	StepHarmonize
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepRetouch:
		return "retouch"
	case StepHarmonize:
		return "harmonize"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// MarshalText encodes the step by name.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a step name written by MarshalText.
func (s *Step) UnmarshalText(text []byte) error {
	switch string(text) {
	case "upload":
		*s = StepUpload
	case "retouch":
		*s = StepRetouch
	case "harmonize":
		*s = StepHarmonize
	case "done":
		*s = StepDone
	default:
		return fmt.Errorf("unknown wizard step %q", text)
	}
	return nil
}

// ActionKind identifies a remote action. At most one action of each kind is
// in flight per session.
type ActionKind int

const (
	ActionEnhance ActionKind = iota
	ActionExtract
	ActionTransfer
	ActionSuggest
)

var actionKinds = []ActionKind{ActionEnhance, ActionExtract, ActionTransfer, ActionSuggest}

func (k ActionKind) String() string {
	switch k {
	case ActionEnhance:
		return "enhance"
	case ActionExtract:
		return "extract"
	case ActionTransfer:
		return "transfer"
	case ActionSuggest:
		return "suggest"
	default:
		return "unknown"
	}
}

// resultStep is the step in which a result of kind may still be applied.
func (k ActionKind) resultStep() Step {
	switch k {
	case ActionExtract, ActionTransfer:
		return StepHarmonize
	default:
		return StepRetouch
	}
}
