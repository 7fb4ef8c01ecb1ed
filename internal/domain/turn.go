package domain

import "time"

// Turn is one user message and the bot reply it produced.
type Turn struct {
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Bot       string `json:"bot"`
}

// NewTurn stamps a turn with the current local time in ISO-8601.
func NewTurn(userText, botText string) Turn {
	return Turn{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		User:      userText,
		Bot:       botText,
	}
}

// LastTurns returns at most n of the most recent turns, oldest first.
func LastTurns(turns []Turn, n int) []Turn {
	if n <= 0 {
		return nil
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
