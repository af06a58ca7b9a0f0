package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/poiesic/careerfit/core"
)

var quotedString = regexp.MustCompile(`"([^"]+)"`)

// CleanResponse removes markdown code fences and surrounding whitespace from
// generated text.
func CleanResponse(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ParseJSON decodes generated text into T. The text is cleaned and repaired
// first; failures wrap core.ErrGenerationParse.
func ParseJSON[T any](text string) (T, error) {
	var result T
	cleaned := CleanResponse(text)
	if cleaned == "" {
		return result, fmt.Errorf("%w: empty response", core.ErrGenerationParse)
	}
	if err := json.Unmarshal([]byte(repairJSON(cleaned)), &result); err != nil {
		return result, fmt.Errorf("%w: %w", core.ErrGenerationParse, err)
	}
	return result, nil
}

// ExtractQuotedStrings returns every double-quoted string in text, in order.
// It recovers list output that is close to, but not valid, JSON.
func ExtractQuotedStrings(text string) []string {
	matches := quotedString.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
