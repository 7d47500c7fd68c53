package ai

import (
	"regexp"
	"strings"
)

var (
	fracPattern      = regexp.MustCompile(`\\[dt]?frac\{([^{}]*)\}\{([^{}]*)\}`)
	sqrtPattern      = regexp.MustCompile(`\\sqrt\{([^{}]*)\}`)
	textPattern      = regexp.MustCompile(`\\(?:text|mathrm|mathbf)\{([^{}]*)\}`)
	superPattern     = regexp.MustCompile(`\^\{?([0-9]+)\}?`)
	subPattern       = regexp.MustCompile(`_\{?([0-9]+)\}?`)
	boldPattern      = regexp.MustCompile(`\*\*([^*\n]+)\*\*|__([^_\n]+)__`)
	headingPattern   = regexp.MustCompile(`(?m)^#{1,6}[ \t]*`)
	blankRunsPattern = regexp.MustCompile(`\n{3,}`)

	superscripts = strings.NewReplacer("0", "⁰", "1", "¹", "2", "²", "3", "³", "4", "⁴", "5", "⁵", "6", "⁶", "7", "⁷", "8", "⁸", "9", "⁹")
	subscripts   = strings.NewReplacer("0", "₀", "1", "₁", "2", "₂", "3", "₃", "4", "₄", "5", "₅", "6", "₆", "7", "₇", "8", "₈", "9", "₉")

	symbols = strings.NewReplacer(
		`^\circ`, "°",
		`^{\circ}`, "°",
		`\times`, "×",
		`\cdot`, "·",
		`\div`, "÷",
		`\pm`, "±",
		`\leq`, "≤",
		`\geq`, "≥",
		`\neq`, "≠",
		`\approx`, "≈",
		`\infty`, "∞",
		`\pi`, "π",
		`\alpha`, "α",
		`\beta`, "β",
		`\Delta`, "Δ",
		`\sqrt`, "√",
		`\(`, "",
		`\)`, "",
		`\[`, "",
		`\]`, "",
		`$$`, "",
		`$`, "",
	)
)

// NormalizeText turns the model's LaTeX and markdown leftovers into plain
// text that reads well in a chat message and a .docx paragraph.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = fracPattern.ReplaceAllString(text, "$1/$2")
	text = sqrtPattern.ReplaceAllStringFunc(text, func(m string) string {
		inner := sqrtPattern.FindStringSubmatch(m)[1]
		if len([]rune(inner)) == 1 {
			return "√" + inner
		}
		return "√(" + inner + ")"
	})
	text = textPattern.ReplaceAllString(text, "$1")
	text = symbols.Replace(text)
	text = superPattern.ReplaceAllStringFunc(text, func(m string) string {
		return superscripts.Replace(superPattern.FindStringSubmatch(m)[1])
	})
	text = subPattern.ReplaceAllStringFunc(text, func(m string) string {
		return subscripts.Replace(subPattern.FindStringSubmatch(m)[1])
	})
	text = boldPattern.ReplaceAllString(text, "$1$2")
	text = headingPattern.ReplaceAllString(text, "")
	text = blankRunsPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
