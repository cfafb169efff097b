package ui

import "strings"

// DefaultAgentEmoji is shown for agents without an entry in the table.
const DefaultAgentEmoji = "🤖"

var builtinEmoji = map[string]string{
	"chatgpt": "🤖",
	"gemini":  "✨",
	"groq":    "⚡",
	"user":    "👤",
	"system":  "✅",
}

// AgentTable maps agent identifiers to their emoji. Lookups ignore case.
type AgentTable struct {
	emoji map[string]string
}

// NewAgentTable creates a table from the built-in entries plus overrides.
func NewAgentTable(overrides map[string]string) *AgentTable {
	t := &AgentTable{emoji: make(map[string]string, len(builtinEmoji)+len(overrides))}
	for name, e := range builtinEmoji {
		t.emoji[name] = e
	}
	for name, e := range overrides {
		if e = strings.TrimSpace(e); e != "" {
			t.emoji[strings.ToLower(name)] = e
		}
	}
	return t
}

// Emoji returns the agent's emoji.
func (t *AgentTable) Emoji(agent string) string {
	if e, ok := t.emoji[strings.ToLower(agent)]; ok {
		return e
	}
	return DefaultAgentEmoji
}

// Label renders "emoji Agent · Role". The role is left out when empty or
// equal to the agent name.
func (t *AgentTable) Label(agent, role string) string {
	label := t.Emoji(agent) + " " + AgentStyle.Render(agent)
	if role != "" && !strings.EqualFold(role, agent) {
		label += DimStyle.Render(" · " + role)
	}
	return label
}
