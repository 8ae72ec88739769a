package conversation

// UnknownLevel is stored when a level payload is not one of the offered choices.
const UnknownLevel = "Unknown"

// LevelChoice is one of the offered language levels.
type LevelChoice struct {
	Payload string
	Label   string
}

var levels = []LevelChoice{
	{Payload: "lvl_A", Label: "Beginner (A1–A2)"},
	{Payload: "lvl_B", Label: "Intermediate (B1–B2)"},
	{Payload: "lvl_C", Label: "Advanced (C1+)"},
}

// Levels returns the offered choices in display order.
func Levels() []LevelChoice {
	out := make([]LevelChoice, len(levels))
	copy(out, levels)
	return out
}

// LevelLabel maps a level payload to its label, or UnknownLevel.
func LevelLabel(payload string) string {
	for _, l := range levels {
		if l.Payload == payload {
			return l.Label
		}
	}
	return UnknownLevel
}
