package models

type GenerationMode string

const (
	GenerationSummaryDocument GenerationMode = "summary-document"
	GenerationLessonPlan      GenerationMode = "lesson-plan"
	GenerationAdvisoryText    GenerationMode = "advisory-text"
	GenerationBulkTopics      GenerationMode = "bulk-topics"
)

type GenerationRequest struct {
	Subject string         `json:"subject"`
	Grade   string         `json:"grade"`
	Topic   string         `json:"topic"`
	Mode    GenerationMode `json:"mode"`
}
