package dispatch

// TranscriptSink receives transcript mutations from the dispatcher.
type TranscriptSink interface {
	// AddPlaceholder appends an in-progress entry tagged with agent.
	AddPlaceholder(agent, role string)
	// RemovePlaceholder drops the placeholder for agent, if any.
	RemovePlaceholder(agent string) bool
	// AddMessage appends a finalized message entry.
	AddMessage(agent, role, body string)
	// AddError appends a visible error entry.
	AddError(agent, description string)
}

// StatusSink receives status line and indicator updates.
type StatusSink interface {
	SetStatus(text string)
	// SetFlowActive starts or stops the data flow animation.
	SetFlowActive(active bool)
	// SetNodeActive marks one agent node. Unknown agents are ignored.
	SetNodeActive(agent string, active bool)
	// ClearNodes marks every agent node inactive.
	ClearNodes()
}
