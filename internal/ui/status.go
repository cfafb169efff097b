package ui

import (
	"strings"

	"github.com/zhubert/agenttalk/internal/client"
	"github.com/zhubert/agenttalk/internal/dispatch"
)

// Status is the status indicator: status text, the data-flow animation and
// the agent nodes. It implements dispatch.StatusSink.
type Status struct {
	text    string
	flow    bool
	spinner *SpinnerState
	nodes   *dispatch.NodeRegistry
	agents  *AgentTable
}

// NewStatus creates an idle indicator with no nodes.
func NewStatus(agents *AgentTable) *Status {
	if agents == nil {
		agents = NewAgentTable(nil)
	}
	return &Status{
		text:   "Ready",
		nodes:  dispatch.NewNodeRegistry(),
		agents: agents,
	}
}

// SetNodes replaces the node registry, usually from the status endpoint.
func (s *Status) SetNodes(nodes *dispatch.NodeRegistry) {
	if nodes == nil {
		nodes = dispatch.NewNodeRegistry()
	}
	s.nodes = nodes
}

// Nodes returns the node registry.
func (s *Status) Nodes() *dispatch.NodeRegistry {
	return s.nodes
}

func (s *Status) SetStatus(text string) {
	s.text = text
}

func (s *Status) SetFlowActive(active bool) {
	if active && !s.flow {
		s.spinner = NewSpinnerState()
	}
	if !active {
		s.spinner = nil
	}
	s.flow = active
}

func (s *Status) SetNodeActive(agent string, active bool) {
	s.nodes.SetActive(agent, active)
}

func (s *Status) ClearNodes() {
	s.nodes.DeactivateAll()
}

// Text returns the current status text.
func (s *Status) Text() string {
	return s.text
}

// FlowActive reports whether the data-flow animation is running.
func (s *Status) FlowActive() bool {
	return s.flow
}

// Advance moves the animation one frame. It reports whether the animation
// is running.
func (s *Status) Advance() bool {
	if s.spinner == nil {
		return false
	}
	s.spinner.Advance()
	return true
}

// Line renders the status text, led by the spinner while data flows.
func (s *Status) Line() string {
	if s.spinner != nil {
		return s.spinner.RenderSpinner(s.text)
	}
	return DimStyle.Render(s.text)
}

// NodeLine renders the agent nodes on one line. Active nodes are
// highlighted and carry the spinner frame while data flows.
func (s *Status) NodeLine() string {
	var parts []string
	for _, n := range s.nodes.Nodes() {
		label := s.agents.Emoji(n.Agent) + " " + n.Agent
		if n.Active {
			frame := "●"
			if s.spinner != nil {
				frame = s.spinner.Frame()
			}
			parts = append(parts, ActiveStyle.Render("["+frame+" "+label+"]"))
		} else {
			parts = append(parts, DimStyle.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

// NodesFromStatus builds the node registry from the status endpoint's agents.
func NodesFromStatus(st *client.Status) *dispatch.NodeRegistry {
	nodes := make([]dispatch.Node, 0, len(st.AvailableAgents))
	for _, a := range st.AvailableAgents {
		nodes = append(nodes, dispatch.Node{Agent: a.Name, Role: a.Role})
	}
	return dispatch.NewNodeRegistry(nodes...)
}
