package models

// Speaker is the closed set of narrator roles a script line can carry.
type Speaker string

const (
	Host1 Speaker = "host1"
	Host2 Speaker = "host2"
)

// NormalizeSpeaker maps the names the text-generation model is allowed to
// emit onto the canonical roles. The boolean is false for anything outside
// the closed set; callers drop such lines rather than defaulting.
func NormalizeSpeaker(raw string) (Speaker, bool) {
	switch raw {
	case "alex", "host1", "speaker1":
		return Host1, true
	case "jordan", "host2", "speaker2":
		return Host2, true
	default:
		return "", false
	}
}

// Line is one utterance of the two-host conversation.
type Line struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Script is the ordered conversation produced by the script stage.
// It is immutable once generated.
type Script []Line
