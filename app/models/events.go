package models

type Action string

const (
	ActionNewDocument   Action = "new_document"
	ActionNewLessonPlan Action = "new_lesson_plan"
	ActionNewAdvice     Action = "new_advice"
	ActionBulkTopics    Action = "bulk_topics"
	ActionHistory       Action = "history"
	ActionCancel        Action = "cancel"
)

type FileKind string

const (
	FileKindXLSX  FileKind = "xlsx"
	FileKindCSV   FileKind = "csv"
	FileKindOther FileKind = "other"
)

// Inbound events produced by the transport.

type TextEvent struct {
	UserID   string
	Username string
	Text     string
}

type FileEvent struct {
	UserID       string
	Username     string
	FileHandle   string
	FileName     string
	DeclaredKind FileKind
}

type PhotoEvent struct {
	UserID     string
	Username   string
	FileHandle string
}

type ActionEvent struct {
	UserID   string
	Username string
	Action   Action
}

type CommandEvent struct {
	UserID   string
	Username string
	Command  string
	Args     []string
}

type AdminDecisionEvent struct {
	AdminID   string
	RequestID int64
	Outcome   Outcome
}

type AdminBlockEvent struct {
	AdminID      string
	TargetUserID string
	Blocked      bool
}

// Outbound effects consumed by the transport, in delivery order.

type AttachmentKind string

const (
	AttachmentDocument AttachmentKind = "document"
	AttachmentPhoto    AttachmentKind = "photo"
)

type Attachment struct {
	Kind   AttachmentKind
	Handle string
}

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// Markup is either a reply keyboard, an inline keyboard or a request to
// remove the current reply keyboard.
type Markup struct {
	Keyboard       [][]string
	Inline         [][]InlineButton
	RemoveKeyboard bool
}

type Effect struct {
	Recipient  string
	Content    string
	Attachment *Attachment
	Markup     *Markup
}

type OutboundEffects []Effect
