package engine

import "encoding/json"

// EventType tags the closed set of websocket events the monitor reacts
// to. Everything else decodes to EventIgnored.
type EventType string

const (
	EventStatus         EventType = "status"
	EventExecuting      EventType = "executing"
	EventExecutionError EventType = "execution_error"
	EventIgnored        EventType = "ignored"
)

// StatusEvent carries queue telemetry from the engine.
type StatusEvent struct {
	QueueRemaining int
	HasQueueInfo   bool
}

// ExecutingEvent reports node progress. A nil Node with a matching
// prompt id means the engine has finished every node for that prompt.
type ExecutingEvent struct {
	PromptID string
	Node     *string
}

// ExecutionErrorEvent reports a node failure during execution.
type ExecutionErrorEvent struct {
	PromptID string
	NodeID   string
	NodeType string
	Message  string
}

// Event is the decoded form of one websocket frame. Exactly one payload
// field is set, matching Type.
type Event struct {
	Type      EventType
	Status    *StatusEvent
	Executing *ExecutingEvent
	ExecError *ExecutionErrorEvent
}

type eventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type statusWire struct {
	Status struct {
		ExecInfo struct {
			QueueRemaining *int `json:"queue_remaining"`
		} `json:"exec_info"`
	} `json:"status"`
}

type executingWire struct {
	Node     *string `json:"node"`
	PromptID string  `json:"prompt_id"`
}

type executionErrorWire struct {
	PromptID string `json:"prompt_id"`
	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
	Message  string `json:"exception_message"`
}

var ignored = Event{Type: EventIgnored}

// DecodeEvent classifies one websocket frame. Malformed JSON and
// unknown type tags are never an error; they decode to EventIgnored so
// the monitor keeps streaming.
func DecodeEvent(raw []byte) Event {
	var env eventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ignored
	}

	switch env.Type {
	case "status":
		var w statusWire
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return ignored
		}
		ev := &StatusEvent{}
		if w.Status.ExecInfo.QueueRemaining != nil {
			ev.QueueRemaining = *w.Status.ExecInfo.QueueRemaining
			ev.HasQueueInfo = true
		}
		return Event{Type: EventStatus, Status: ev}

	case "executing":
		var w executingWire
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return ignored
		}
		return Event{Type: EventExecuting, Executing: &ExecutingEvent{
			PromptID: w.PromptID,
			Node:     w.Node,
		}}

	case "execution_error":
		var w executionErrorWire
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return ignored
		}
		return Event{Type: EventExecutionError, ExecError: &ExecutionErrorEvent{
			PromptID: w.PromptID,
			NodeID:   w.NodeID,
			NodeType: w.NodeType,
			Message:  w.Message,
		}}

	default:
		return ignored
	}
}
