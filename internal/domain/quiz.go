package domain

// Question is one validated multiple-choice question. Options always has
// exactly 4 entries and CorrectIndex points at one of them.
type Question struct {
	Prompt       string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Quiz is the validated quiz attached to a session. It is replaced as a
// whole on regeneration, never patched.
type Quiz struct {
	Questions []Question `json:"questions"`
}
