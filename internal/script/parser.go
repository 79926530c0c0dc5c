package script

import (
	"strings"

	"github.com/AfikDanan/DayZeroAI/internal/models"
)

// Parse turns raw model output into an ordered script. A line counts only
// if it has a "speaker: text" shape, the speaker normalizes into the
// closed host set, and the text is non-empty. Everything else is dropped,
// never defaulted, so the same input always yields the same script.
func Parse(raw string) models.Script {
	var out models.Script
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, text, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		speaker, ok := models.NormalizeSpeaker(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, models.Line{Speaker: speaker, Text: text})
	}
	return out
}
