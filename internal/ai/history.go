package ai

import "strings"

// SanitizeHistory prepares a conversation history for replay to the
// provider: empty turns are dropped, and leading assistant turns are removed
// because the provider requires the first replayed turn to come from the
// user.
func SanitizeHistory(turns []Turn) []Turn {
	cleaned := make([]Turn, 0, len(turns))
	for _, turn := range turns {
		if strings.TrimSpace(turn.Text) == "" {
			continue
		}
		role := strings.ToLower(strings.TrimSpace(turn.Role))
		if role != RoleUser {
			role = RoleAssistant
		}
		cleaned = append(cleaned, Turn{Role: role, Text: turn.Text})
	}

	for len(cleaned) > 0 && cleaned[0].Role == RoleAssistant {
		cleaned = cleaned[1:]
	}

	return cleaned
}
