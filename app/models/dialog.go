package models

type DialogStep string

const (
	StepIdle                DialogStep = ""
	StepAwaitingSubject     DialogStep = "awaiting_subject"
	StepAwaitingGrade       DialogStep = "awaiting_grade"
	StepAwaitingTopic       DialogStep = "awaiting_topic"
	StepAwaitingProblemText DialogStep = "awaiting_problem_text"
	StepAwaitingBulkFile    DialogStep = "awaiting_bulk_file"
	StepSelectingHistory    DialogStep = "selecting_history"
)

type DialogMode string

const (
	ModeDocument   DialogMode = "document"
	ModeLessonPlan DialogMode = "lesson_plan"
	ModeAdvice     DialogMode = "advice"
	ModeBulk       DialogMode = "bulk"
)

// DialogState is the single active step of a user's input collection flow.
// The zero value is Idle.
type DialogState struct {
	Step DialogStep `bson:"step,omitempty"`
	Mode DialogMode `bson:"mode,omitempty"`
}

func Awaiting(step DialogStep, mode DialogMode) DialogState {
	return DialogState{Step: step, Mode: mode}
}

func (s DialogState) IsIdle() bool {
	return s.Step == StepIdle
}

func (s DialogState) String() string {
	if s.IsIdle() {
		return "idle"
	}
	if s.Mode == "" {
		return string(s.Step)
	}
	return string(s.Step) + "(" + string(s.Mode) + ")"
}

// GenerationMode maps the dialog flow onto the kind of content it generates.
func (m DialogMode) GenerationMode() GenerationMode {
	switch m {
	case ModeLessonPlan:
		return GenerationLessonPlan
	case ModeAdvice:
		return GenerationAdvisoryText
	case ModeBulk:
		return GenerationBulkTopics
	default:
		return GenerationSummaryDocument
	}
}
