package client

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultRounds is the number of discussion rounds when none is given.
const DefaultRounds = 2

// ErrEmptyRequest is returned for a workflow request without text.
var ErrEmptyRequest = errors.New("request text is empty")

// Workflow selects the streaming endpoint.
type Workflow string

const (
	// WorkflowSequential passes one request through every agent in turn.
	WorkflowSequential Workflow = "sequential"
	// WorkflowDiscussion has the agents discuss a topic for several rounds.
	WorkflowDiscussion Workflow = "discussion"
)

// Request describes one streaming workflow submission.
type Request struct {
	Workflow Workflow
	// Text is the project request or the discussion topic.
	Text   string
	Rounds int
}

// Sequential builds a single-pass workflow request.
func Sequential(text string) Request {
	return Request{Workflow: WorkflowSequential, Text: text}
}

// Discussion builds a multi-round discussion request.
func Discussion(topic string, rounds int) Request {
	return Request{Workflow: WorkflowDiscussion, Text: topic, Rounds: rounds}
}

// Validate checks the request and fills in defaults.
func (r *Request) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" {
		return ErrEmptyRequest
	}
	switch r.Workflow {
	case WorkflowSequential:
	case WorkflowDiscussion:
		if r.Rounds <= 0 {
			r.Rounds = DefaultRounds
		}
	default:
		return fmt.Errorf("unknown workflow %q", r.Workflow)
	}
	return nil
}

type sequentialBody struct {
	Request string `json:"request"`
}

type discussionBody struct {
	Topic  string `json:"topic"`
	Rounds int    `json:"rounds"`
}

func (r Request) path() string {
	if r.Workflow == WorkflowDiscussion {
		return "/api/workflow/discussion-stream"
	}
	return "/api/workflow/sequential-stream"
}

func (r Request) body() any {
	if r.Workflow == WorkflowDiscussion {
		return discussionBody{Topic: r.Text, Rounds: r.Rounds}
	}
	return sequentialBody{Request: r.Text}
}
