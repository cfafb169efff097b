package dispatch

import (
	"sort"
	"strings"
)

// Node is the stable visual handle for one agent.
type Node struct {
	Agent  string
	Role   string
	Active bool
}

// NodeRegistry maps agent identifiers to their nodes. It is populated once
// when a session starts; lookups ignore case.
type NodeRegistry struct {
	nodes map[string]*Node
	order []string
}

// NewNodeRegistry creates a node for each agent descriptor in order.
func NewNodeRegistry(agents ...Node) *NodeRegistry {
	r := &NodeRegistry{nodes: make(map[string]*Node)}
	for _, a := range agents {
		key := strings.ToLower(a.Agent)
		if _, dup := r.nodes[key]; dup {
			continue
		}
		n := a
		n.Active = false
		r.nodes[key] = &n
		r.order = append(r.order, key)
	}
	return r
}

// Lookup returns the node for agent, or nil.
func (r *NodeRegistry) Lookup(agent string) *Node {
	return r.nodes[strings.ToLower(agent)]
}

// SetActive marks the agent's node. It reports whether the agent has a node.
func (r *NodeRegistry) SetActive(agent string, active bool) bool {
	n := r.Lookup(agent)
	if n == nil {
		return false
	}
	n.Active = active
	return true
}

// DeactivateAll marks every node inactive.
func (r *NodeRegistry) DeactivateAll() {
	for _, n := range r.nodes {
		n.Active = false
	}
}

// Nodes returns copies of the nodes in registration order.
func (r *NodeRegistry) Nodes() []Node {
	out := make([]Node, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, *r.nodes[key])
	}
	return out
}

// ActiveAgents returns the agents whose nodes are active, sorted.
func (r *NodeRegistry) ActiveAgents() []string {
	var out []string
	for _, n := range r.nodes {
		if n.Active {
			out = append(out, n.Agent)
		}
	}
	sort.Strings(out)
	return out
}
