package dialog

import (
	"konspektbot/m/v2/app/models"
	"strconv"
)

const (
	ButtonNewDocument   = "📄 Yangi Konspekt"
	ButtonNewLessonPlan = "📝 Dars ishlanma"
	ButtonNewAdvice     = "💡 Metodik maslahat"
	ButtonBulkTopics    = "📊 Ommaviy mavzular"
	ButtonHistory       = "📂 Mening konspektlarim"
	ButtonCancel        = "🔙 Bekor qilish"
	ButtonBack          = "🔙 Orqaga"
	ButtonOtherSubject  = "Boshqa fan"
)

var Subjects = []string{
	"Matematika", "Tarix",
	"Ona tili", "Biologiya",
	"Kimyo", "Fizika",
	"Geografiya", "Ingliz tili",
	"Tasviriy san’at", "Informatika",
}

var buttonActions = map[string]models.Action{
	ButtonNewDocument:   models.ActionNewDocument,
	ButtonNewLessonPlan: models.ActionNewLessonPlan,
	ButtonNewAdvice:     models.ActionNewAdvice,
	ButtonBulkTopics:    models.ActionBulkTopics,
	ButtonHistory:       models.ActionHistory,
	ButtonCancel:        models.ActionCancel,
	ButtonBack:          models.ActionCancel,
}

var actionModes = map[models.Action]models.DialogMode{
	models.ActionNewDocument:   models.ModeDocument,
	models.ActionNewLessonPlan: models.ModeLessonPlan,
	models.ActionNewAdvice:     models.ModeAdvice,
	models.ActionBulkTopics:    models.ModeBulk,
}

// ActionForText maps a reply keyboard button label onto its action.
func ActionForText(text string) (models.Action, bool) {
	action, ok := buttonActions[text]
	return action, ok
}

func mainMenu() *models.Markup {
	return &models.Markup{Keyboard: [][]string{
		{ButtonNewDocument, ButtonNewLessonPlan},
		{ButtonNewAdvice, ButtonBulkTopics},
		{ButtonHistory},
	}}
}

func subjectMenu() *models.Markup {
	rows := [][]string{}
	for i := 0; i < len(Subjects); i += 2 {
		end := i + 2
		if end > len(Subjects) {
			end = len(Subjects)
		}
		rows = append(rows, Subjects[i:end])
	}
	rows = append(rows, []string{ButtonOtherSubject}, []string{ButtonCancel})
	return &models.Markup{Keyboard: rows}
}

func gradeMenu() *models.Markup {
	low, high := []string{}, []string{}
	for grade := 1; grade <= 11; grade++ {
		if grade <= 5 {
			low = append(low, strconv.Itoa(grade))
		} else {
			high = append(high, strconv.Itoa(grade))
		}
	}
	return &models.Markup{Keyboard: [][]string{low, high, {ButtonCancel}}}
}

func cancelMenu() *models.Markup {
	return &models.Markup{Keyboard: [][]string{{ButtonCancel}}}
}

func backMenu() *models.Markup {
	return &models.Markup{Keyboard: [][]string{{ButtonBack}}}
}

func removeKeyboard() *models.Markup {
	return &models.Markup{RemoveKeyboard: true}
}

// menuFor is the keyboard that belongs to a dialog step.
func menuFor(state models.DialogState) *models.Markup {
	switch state.Step {
	case models.StepAwaitingSubject:
		return subjectMenu()
	case models.StepAwaitingGrade:
		return gradeMenu()
	case models.StepAwaitingTopic, models.StepAwaitingProblemText, models.StepAwaitingBulkFile:
		return cancelMenu()
	case models.StepSelectingHistory:
		return backMenu()
	}
	return mainMenu()
}
