package dispatch

import "sort"

// ActivitySet records which agents have an unresolved thinking event.
// An agent appears at most once. One set belongs to one stream session.
type ActivitySet struct {
	agents map[string]struct{}
}

// NewActivitySet creates an empty set.
func NewActivitySet() *ActivitySet {
	return &ActivitySet{agents: make(map[string]struct{})}
}

// Add marks agent as in progress.
func (s *ActivitySet) Add(agent string) {
	s.agents[agent] = struct{}{}
}

// Remove clears agent. It reports whether the agent was present.
func (s *ActivitySet) Remove(agent string) bool {
	if _, ok := s.agents[agent]; !ok {
		return false
	}
	delete(s.agents, agent)
	return true
}

// Clear removes every agent.
func (s *ActivitySet) Clear() {
	clear(s.agents)
}

// Contains reports whether agent is in progress.
func (s *ActivitySet) Contains(agent string) bool {
	_, ok := s.agents[agent]
	return ok
}

// Len returns the number of agents in progress.
func (s *ActivitySet) Len() int {
	return len(s.agents)
}

// Agents returns the agents in progress, sorted.
func (s *ActivitySet) Agents() []string {
	out := make([]string, 0, len(s.agents))
	for a := range s.agents {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
