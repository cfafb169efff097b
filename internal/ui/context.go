package ui

import "sync"

// Fixed chrome heights: the header is the title and the node line, the
// footer is the status line and the key hints.
const (
	HeaderHeight = 2
	FooterHeight = 2
)

// ViewContext holds terminal sizing information used by all components.
type ViewContext struct {
	TerminalWidth  int
	TerminalHeight int
	ContentHeight  int

	mu sync.Mutex
}

var (
	viewContext     *ViewContext
	viewContextOnce sync.Once
)

// GetViewContext returns the singleton ViewContext, sized 80x24 until the
// first window size message arrives.
func GetViewContext() *ViewContext {
	viewContextOnce.Do(func() {
		viewContext = &ViewContext{}
		viewContext.UpdateTerminalSize(80, 24)
	})
	return viewContext
}

// UpdateTerminalSize recalculates layout dimensions.
func (v *ViewContext) UpdateTerminalSize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.TerminalWidth = width
	v.TerminalHeight = height
	v.ContentHeight = height - HeaderHeight - FooterHeight
	if v.ContentHeight < 1 {
		v.ContentHeight = 1
	}
}
