package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/zhubert/agenttalk/internal/client"
	"github.com/zhubert/agenttalk/internal/dispatch"
	"github.com/zhubert/agenttalk/internal/stream"
	"github.com/zhubert/agenttalk/internal/transcript"
)

// fakeStreamer serves a fixed body through an optional reader wrapper.
type fakeStreamer struct {
	body string
	wrap func(io.Reader) io.Reader
	err  error
}

func (f *fakeStreamer) OpenStream(context.Context, client.Request) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	var r io.Reader = strings.NewReader(f.body)
	if f.wrap != nil {
		r = f.wrap(r)
	}
	return io.NopCloser(r), nil
}

type statusRecorder struct {
	statuses []string
	flow     bool
	nodes    map[string]bool
}

func newStatusRecorder() *statusRecorder {
	return &statusRecorder{nodes: make(map[string]bool)}
}

func (s *statusRecorder) SetStatus(text string)                   { s.statuses = append(s.statuses, text) }
func (s *statusRecorder) SetFlowActive(active bool)               { s.flow = active }
func (s *statusRecorder) SetNodeActive(agent string, active bool) { s.nodes[agent] = active }
func (s *statusRecorder) ClearNodes()                             { clear(s.nodes) }

func (s *statusRecorder) last() string {
	if len(s.statuses) == 0 {
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}

func collect(t *testing.T, chunks <-chan Chunk) []Chunk {
	t.Helper()
	var out []Chunk
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c, ok := <-chunks:
			if !ok {
				return out
			}
			out = append(out, c)
		case <-timeout:
			t.Fatal("timed out waiting for chunks")
			return nil
		}
	}
}

const fullStream = "data: {\"type\":\"start\",\"message\":\"Starting workflow...\"}\n\n" +
	"data: {\"type\":\"message\",\"agent\":\"User\",\"role\":\"User\",\"message\":\"hi\"}\n\n" +
	"data: {\"type\":\"thinking\",\"agent\":\"chatgpt\",\"role\":\"Architect\"}\n\n" +
	"data: {\"type\":\"message\",\"agent\":\"chatgpt\",\"role\":\"Architect\",\"message\":\"plan\"}\n\n" +
	"data: {\"type\":\"complete\"}\n\n"

func TestController_Start_EmitsEventsInOrder(t *testing.T) {
	t.Parallel()

	for name, wrap := range map[string]func(io.Reader) io.Reader{
		"whole":    nil,
		"one byte": iotest.OneByteReader,
		"half":     iotest.HalfReader,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := NewController(&fakeStreamer{body: fullStream, wrap: wrap}, nil)
			sess, chunks, err := c.Start(context.Background(), client.Sequential("hi"))
			if err != nil {
				t.Fatalf("Start() error: %v", err)
			}

			var types []string
			var last ChunkType
			for _, chunk := range collect(t, chunks) {
				last = chunk.Type
				if chunk.Type == ChunkEvent {
					types = append(types, string(chunk.Event.Type))
				}
			}

			want := "start,message,thinking,message,complete"
			if got := strings.Join(types, ","); got != want {
				t.Errorf("event order = %s, want %s", got, want)
			}
			if last != ChunkDone {
				t.Errorf("expected last chunk to be ChunkDone, got %v", last)
			}
			if sess.State() != StateComplete {
				t.Errorf("expected complete state, got %s", sess.State())
			}
			if s := sess.Summary(); s.Events != 5 || s.Frames != 10 {
				t.Errorf("unexpected counters %+v", s)
			}
		})
	}
}

func TestController_Run_MalformedFrameIsSkipped(t *testing.T) {
	t.Parallel()

	body := "data: {\"type\":\"thinking\",\"agent\":\"gemini\",\"role\":\"Developer\"}\n\n" +
		"data: {not json}\n\n" +
		"data: {\"type\":\"message\",\"agent\":\"gemini\",\"role\":\"Developer\",\"message\":\"done\"}\n\n" +
		"data: {\"type\":\"complete\"}\n\n"

	tr := transcript.New()
	status := newStatusRecorder()
	d := dispatch.New(tr, status, nil)

	sess, err := NewController(&fakeStreamer{body: body}, nil).Run(context.Background(), client.Sequential("x"), d)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	entries := tr.Entries()
	if len(entries) != 1 || entries[0].Kind != transcript.KindMessage || entries[0].Body != "done" {
		t.Fatalf("unexpected transcript %+v", entries)
	}
	if status.last() != dispatch.StatusDone {
		t.Errorf("final status = %q", status.last())
	}
	if got := sess.Summary().Malformed; got != 1 {
		t.Errorf("malformed = %d, want 1", got)
	}
	if sess.Activity.Len() != 0 {
		t.Errorf("expected empty activity set, got %v", sess.Activity.Agents())
	}
}

func TestController_ImplicitComplete(t *testing.T) {
	t.Parallel()

	body := "data: {\"type\":\"thinking\",\"agent\":\"groq\",\"role\":\"QA\"}\n\n" +
		"data: {\"type\":\"message\",\"agent\":\"gro" // truncated mid-frame

	c := NewController(&fakeStreamer{body: body}, nil)
	sess, chunks, err := c.Start(context.Background(), client.Sequential("x"))
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	got := collect(t, chunks)
	if len(got) != 4 {
		t.Fatalf("expected 4 chunks, got %d: %+v", len(got), got)
	}
	if got[0].Type != ChunkEvent || got[0].Event.Type != stream.EventThinking {
		t.Errorf("chunk 0 = %+v", got[0])
	}
	if got[1].Type != ChunkDiagnostic || !errors.Is(got[1].Err, stream.ErrTruncatedFrame) {
		t.Errorf("chunk 1 = %+v", got[1])
	}
	if got[2].Event.Type != stream.EventComplete || !got[2].Event.Implicit {
		t.Errorf("expected implicit complete, got %+v", got[2])
	}
	if got[3].Type != ChunkDone {
		t.Errorf("chunk 3 = %+v", got[3])
	}
	if sess.State() != StateComplete {
		t.Errorf("state = %s", sess.State())
	}
}

func TestController_Run_ImplicitCompleteClearsPlaceholders(t *testing.T) {
	t.Parallel()

	tr := transcript.New()
	status := newStatusRecorder()
	d := dispatch.New(tr, status, nil)

	body := "data: {\"type\":\"thinking\",\"agent\":\"groq\",\"role\":\"QA\"}\n"
	if _, err := NewController(&fakeStreamer{body: body}, nil).Run(context.Background(), client.Sequential("x"), d); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if tr.Len() != 0 {
		t.Errorf("expected placeholder to be cleared, got %+v", tr.Entries())
	}
	if status.flow {
		t.Error("expected flow indicator to be inactive")
	}
}

func TestController_OpenFailureIsTransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	tr := transcript.New()
	d := dispatch.New(tr, newStatusRecorder(), nil)

	sess, err := NewController(&fakeStreamer{err: cause}, nil).Run(context.Background(), client.Sequential("x"), d)
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if terr.Op != "open" || !errors.Is(err, cause) {
		t.Errorf("unexpected transport error %v", terr)
	}
	if sess.State() != StateFailed {
		t.Errorf("state = %s", sess.State())
	}
	if tr.Len() != 0 {
		t.Errorf("expected no dispatch, got %+v", tr.Entries())
	}
}

func TestController_ReadFailureStopsDispatch(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	streamer := &fakeStreamer{
		body: "data: {\"type\":\"start\"}\n\ndata: {\"type\":\"thinking\",\"agent\":\"a\"}\n\n",
		wrap: func(r io.Reader) io.Reader {
			return io.MultiReader(r, iotest.ErrReader(cause))
		},
	}

	sess, chunks, err := NewController(streamer, nil).Start(context.Background(), client.Sequential("x"))
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	got := collect(t, chunks)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %+v", got)
	}
	last := got[len(got)-1]
	var terr *TransportError
	if last.Type != ChunkError || !errors.As(last.Err, &terr) || terr.Op != "read" {
		t.Errorf("expected read TransportError, got %+v", last)
	}
	if sess.State() != StateFailed {
		t.Errorf("state = %s", sess.State())
	}
}

func TestController_HTTPErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewController(client.New(srv.URL, 0, nil), nil)
	_, err := c.Run(context.Background(), client.Sequential("x"), dispatch.New(transcript.New(), newStatusRecorder(), nil))

	var terr *TransportError
	var httpErr *client.HTTPError
	if !errors.As(err, &terr) || !errors.As(err, &httpErr) {
		t.Fatalf("expected TransportError wrapping HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", httpErr.StatusCode)
	}
}

// blockingServer writes a start event and holds the stream open until the
// client goes away. Requests for "fast" get a complete stream.
func blockingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/event-stream")
		if strings.Contains(string(data), "fast") {
			io.WriteString(w, fullStream)
			return
		}
		io.WriteString(w, "data: {\"type\":\"start\"}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestController_CancelAndReplace(t *testing.T) {
	t.Parallel()

	c := NewController(client.New(blockingServer(t).URL, 0, nil), nil)

	first, firstChunks, err := c.Start(context.Background(), client.Sequential("slow"))
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	select {
	case chunk := <-firstChunks:
		if chunk.Event.Type != stream.EventStart {
			t.Fatalf("expected start event, got %+v", chunk)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first event")
	}

	second, secondChunks, err := c.Start(context.Background(), client.Sequential("fast"))
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	for _, chunk := range collect(t, firstChunks) {
		if chunk.Type == ChunkEvent || chunk.Type == ChunkDone {
			t.Errorf("replaced session emitted %+v", chunk)
		}
	}
	if first.State() != StateCancelled || !errors.Is(first.Err(), ErrSessionReplaced) {
		t.Errorf("first session: state %s err %v", first.State(), first.Err())
	}

	got := collect(t, secondChunks)
	if len(got) == 0 || got[len(got)-1].Type != ChunkDone {
		t.Fatalf("second session did not finish: %+v", got)
	}
	if second.State() != StateComplete {
		t.Errorf("second session state = %s", second.State())
	}
	if c.Active() != nil {
		t.Error("expected no active session after completion")
	}
}

func TestController_Cancel(t *testing.T) {
	t.Parallel()

	c := NewController(client.New(blockingServer(t).URL, 0, nil), nil)
	d := dispatch.New(transcript.New(), newStatusRecorder(), nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Run(context.Background(), client.Sequential("slow"), d)
		errCh <- err
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if s := c.Active(); s != nil && s.State() == StateStreaming {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session never started streaming")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !c.Cancel() {
		t.Fatal("Cancel() reported no active session")
	}
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Cancel")
	}
	if c.Cancel() {
		t.Error("expected no active session after cancellation")
	}
}

func TestController_EmptyRequest(t *testing.T) {
	t.Parallel()

	_, _, err := NewController(&fakeStreamer{}, nil).Start(context.Background(), client.Sequential(" "))
	if !errors.Is(err, client.ErrEmptyRequest) {
		t.Errorf("expected ErrEmptyRequest, got %v", err)
	}
}

func TestController_Run_StopsDispatchAfterCancel(t *testing.T) {
	t.Parallel()

	var body strings.Builder
	for i := range 500 {
		fmt.Fprintf(&body, "data: {\"type\":\"thinking\",\"agent\":\"agent%d\"}\n\n", i)
	}
	c := NewController(&fakeStreamer{body: body.String()}, nil)

	tr := transcript.New()
	added := 0
	tr.OnChange(func(ch transcript.Change) {
		if ch.Op != transcript.OpAdded {
			return
		}
		added++
		if added == 1 {
			c.Cancel()
		}
	})

	sess, err := c.Run(context.Background(), client.Sequential("x"), dispatch.New(tr, newStatusRecorder(), nil))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if added != 1 {
		t.Errorf("dispatched %d placeholders after cancel, want 1", added)
	}
	if sess.State() != StateCancelled {
		t.Errorf("state = %s, want cancelled", sess.State())
	}
	if sess.Activity.Len() != 1 {
		t.Errorf("activity = %v, want only the first agent", sess.Activity.Agents())
	}
}

func TestSession_StoppedOnlyWhenCancelled(t *testing.T) {
	t.Parallel()

	c := NewController(&fakeStreamer{body: "data: {\"type\":\"complete\"}\n\n"}, nil)
	sess, chunks, err := c.Start(context.Background(), client.Sequential("x"))
	if err != nil {
		t.Fatal(err)
	}
	collect(t, chunks)
	if sess.Stopped() {
		t.Error("finished session reports Stopped")
	}
}
