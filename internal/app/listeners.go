package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/zhubert/agenttalk/internal/session"
)

// listenForChunks returns a command that reads the next chunk from a
// session's channel and converts it into a bubbletea message.
func listenForChunks(sess *session.Session, ch <-chan session.Chunk) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-ch
		if !ok {
			return StreamClosedMsg{Session: sess}
		}
		return StreamChunkMsg{Session: sess, Chunk: chunk}
	}
}
