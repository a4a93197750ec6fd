package history

// Kind tells a renderer how to style a line.
type Kind string

const (
	KindText      Kind = "text"
	KindError     Kind = "error"
	KindDirectory Kind = "directory"
	KindFile      Kind = "file"
	KindProgram   Kind = "program"
)

// Action is a clickable affordance attached to a line. Activating it types
// Command into the prompt; Run decides whether it is submitted afterwards.
type Action struct {
	Label   string `json:"label,omitempty"`
	Command string `json:"command"`
	Run     bool   `json:"run"`
}

// Line is one rendered row of output.
type Line struct {
	Text   string  `json:"text"`
	Kind   Kind    `json:"kind"`
	Action *Action `json:"action,omitempty"`
}

// Text is a plain output line.
func Text(s string) Line {
	return Line{Text: s, Kind: KindText}
}

// Error is an output line describing a failure.
func Error(s string) Line {
	return Line{Text: s, Kind: KindError}
}

// Link is a line that runs command when activated.
func Link(text, command string) Line {
	return Line{Text: text, Kind: KindText, Action: &Action{Command: command, Run: true}}
}

// Suggest is a line that types command into the prompt without running it.
func Suggest(text, command string) Line {
	return Line{Text: text, Kind: KindText, Action: &Action{Command: command}}
}

// Texts converts plain strings into text lines.
func Texts(ss ...string) []Line {
	lines := make([]Line, len(ss))
	for i, s := range ss {
		lines[i] = Text(s)
	}
	return lines
}

func (l Line) clone() Line {
	if l.Action != nil {
		a := *l.Action
		l.Action = &a
	}
	return l
}
