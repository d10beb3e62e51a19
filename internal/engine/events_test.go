package engine

import "testing"

func TestDecodeEventStatus(t *testing.T) {
	raw := []byte(`{"type":"status","data":{"status":{"exec_info":{"queue_remaining":3}},"sid":"abc"}}`)

	ev := DecodeEvent(raw)
	if ev.Type != EventStatus {
		t.Fatalf("expected status event, got %q", ev.Type)
	}
	if !ev.Status.HasQueueInfo {
		t.Error("expected queue info to be present")
	}
	if ev.Status.QueueRemaining != 3 {
		t.Errorf("expected queue_remaining 3, got %d", ev.Status.QueueRemaining)
	}
}

func TestDecodeEventStatusWithoutQueueInfo(t *testing.T) {
	raw := []byte(`{"type":"status","data":{"status":{}}}`)

	ev := DecodeEvent(raw)
	if ev.Type != EventStatus {
		t.Fatalf("expected status event, got %q", ev.Type)
	}
	if ev.Status.HasQueueInfo {
		t.Error("expected no queue info")
	}
}

func TestDecodeEventExecuting(t *testing.T) {
	raw := []byte(`{"type":"executing","data":{"node":"12","prompt_id":"p-1"}}`)

	ev := DecodeEvent(raw)
	if ev.Type != EventExecuting {
		t.Fatalf("expected executing event, got %q", ev.Type)
	}
	if ev.Executing.PromptID != "p-1" {
		t.Errorf("expected prompt id p-1, got %q", ev.Executing.PromptID)
	}
	if ev.Executing.Node == nil || *ev.Executing.Node != "12" {
		t.Errorf("expected node 12, got %v", ev.Executing.Node)
	}
}

func TestDecodeEventExecutingCompletion(t *testing.T) {
	raw := []byte(`{"type":"executing","data":{"node":null,"prompt_id":"p-1"}}`)

	ev := DecodeEvent(raw)
	if ev.Type != EventExecuting {
		t.Fatalf("expected executing event, got %q", ev.Type)
	}
	if ev.Executing.Node != nil {
		t.Errorf("expected nil node, got %q", *ev.Executing.Node)
	}
}

func TestDecodeEventExecutionError(t *testing.T) {
	raw := []byte(`{"type":"execution_error","data":{"prompt_id":"p-1","node_id":"7","node_type":"KSampler","exception_message":"out of memory"}}`)

	ev := DecodeEvent(raw)
	if ev.Type != EventExecutionError {
		t.Fatalf("expected execution_error event, got %q", ev.Type)
	}
	if ev.ExecError.NodeID != "7" {
		t.Errorf("expected node id 7, got %q", ev.ExecError.NodeID)
	}
	if ev.ExecError.NodeType != "KSampler" {
		t.Errorf("expected node type KSampler, got %q", ev.ExecError.NodeType)
	}
	if ev.ExecError.Message != "out of memory" {
		t.Errorf("unexpected message %q", ev.ExecError.Message)
	}
}

func TestDecodeEventIgnored(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"unknown type", `{"type":"progress","data":{"value":4,"max":20}}`},
		{"malformed json", `{"type":"status","data":`},
		{"not json", `ping`},
		{"bad data shape", `{"type":"executing","data":[1,2]}`},
		{"empty object", `{}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := DecodeEvent([]byte(tc.raw))
			if ev.Type != EventIgnored {
				t.Errorf("expected ignored event, got %q", ev.Type)
			}
		})
	}
}
