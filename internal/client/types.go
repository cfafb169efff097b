package client

// Agent describes one configured backend agent.
type Agent struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Model string `json:"model,omitempty"`
}

// Status is the backend's view of agents and conversation state.
type Status struct {
	AvailableAgents    []Agent `json:"available_agents"`
	ConversationLength int     `json:"conversation_length"`
	ProjectPhase       string  `json:"project_phase"`
}

// HistoryMessage is one stored conversation message.
type HistoryMessage struct {
	Agent   string `json:"agent"`
	Role    string `json:"role"`
	Message string `json:"message"`
	// Timestamp is an ISO 8601 local time without zone, as sent by the server.
	Timestamp string `json:"timestamp"`
}

// AgentReply is the answer of a single direct agent call.
type AgentReply struct {
	Agent    string `json:"agent"`
	Role     string `json:"role"`
	Response string `json:"response"`
}
