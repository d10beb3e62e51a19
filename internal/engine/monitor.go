package engine

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"comfybridge/internal/config"
	"comfybridge/internal/pkg/backoff"
	"comfybridge/internal/pkg/errors"
	"comfybridge/internal/pkg/logger"
)

// Outcome summarizes what the monitor observed for one prompt.
// Completed means the engine reported the final executing event. A
// prompt can fail with ExecErrors and still leave partial artifacts in
// history, so the two fields are independent.
type Outcome struct {
	Completed  bool
	ExecErrors []string
}

// Incomplete reports whether monitoring ended without either a
// completion signal or an execution error.
func (o Outcome) Incomplete() bool {
	return !o.Completed && len(o.ExecErrors) == 0
}

// Monitor follows a prompt's execution over the engine's websocket.
type Monitor struct {
	client    *Client
	reconnect backoff.Policy
	log       *logger.Logger
}

func NewMonitor(client *Client, cfg *config.Config, log *logger.Logger) *Monitor {
	return &Monitor{
		client: client,
		reconnect: backoff.Policy{
			MaxAttempts: cfg.ReconnectAttempts,
			Delay:       cfg.ReconnectDelay,
		},
		log: log.WithComponent("monitor"),
	}
}

// Session is one live websocket connection, opened before the prompt
// is queued so no events are missed.
type Session struct {
	m        *Monitor
	conn     *websocket.Conn
	clientID string
}

// Connect opens the event stream for the given correlation client id.
func (m *Monitor) Connect(ctx context.Context, clientID string) (*Session, error) {
	url := m.client.WSURL(clientID)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeEngineUnreachable, "engine.Connect",
			"failed to open websocket to engine")
	}
	return &Session{m: m, conn: conn, clientID: clientID}, nil
}

func (s *Session) Close() error {
	return s.conn.Close()
}

type frame struct {
	data []byte
	err  error
}

// Gorilla marks a connection failed after any read error, so each
// connection gets its own reader goroutine and the select loop below
// never reads a conn twice after a failure.
func readFrames(ctx context.Context, conn *websocket.Conn, frames chan<- frame) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			frames <- frame{err: err}
			return
		}
		select {
		case frames <- frame{data: data}:
		case <-ctx.Done():
			return
		}
	}
}

// Await consumes events until the prompt completes, fails, or ctx
// expires. Dropped connections are re-established up to the configured
// attempt budget; execution errors end the watch but are returned in
// the Outcome rather than as an error, since the engine may still have
// produced partial artifacts.
func (s *Session) Await(ctx context.Context, promptID string) (Outcome, error) {
	var outcome Outcome
	log := s.m.log.WithPromptID(promptID)

	for {
		frames := make(chan frame, 1)
		go readFrames(ctx, s.conn, frames)

	stream:
		for {
			select {
			case <-ctx.Done():
				s.conn.Close()
				return outcome, errors.WrapWithCode(ctx.Err(), errors.CodeTimeout, "engine.Await",
					"gave up waiting for workflow completion")

			case f := <-frames:
				if f.err != nil {
					log.Warn("websocket connection dropped", "error", f.err)
					done, rerr := s.reconnect(ctx, promptID)
					if rerr != nil {
						return outcome, rerr
					}
					if done {
						outcome.Completed = true
						return outcome, nil
					}
					break stream
				}

				ev := DecodeEvent(f.data)
				switch ev.Type {
				case EventStatus:
					if ev.Status.HasQueueInfo {
						log.Debug("queue status", "queue_remaining", ev.Status.QueueRemaining)
					}
				case EventExecuting:
					if ev.Executing.PromptID == promptID && ev.Executing.Node == nil {
						log.Info("workflow execution finished")
						outcome.Completed = true
						return outcome, nil
					}
				case EventExecutionError:
					if ev.ExecError.PromptID != promptID {
						continue
					}
					msg := fmt.Sprintf("Node %s (%s): %s",
						ev.ExecError.NodeID, ev.ExecError.NodeType, ev.ExecError.Message)
					log.Error("workflow execution error",
						"node_id", ev.ExecError.NodeID, "message", ev.ExecError.Message)
					outcome.ExecErrors = append(outcome.ExecErrors, msg)
					return outcome, nil
				}
			}
		}
	}
}

// reconnect replaces the dropped connection. It reports done=true when
// the prompt finished while the stream was down, detected via the
// history endpoint. The engine being unreachable aborts immediately;
// a crashed engine will not come back with the prompt still queued.
func (s *Session) reconnect(ctx context.Context, promptID string) (done bool, err error) {
	s.conn.Close()

	attempt := 0
	rerr := s.m.reconnect.Do(ctx, func(ctx context.Context) error {
		if err := s.m.client.Reachable(ctx); err != nil {
			return errors.WrapWithCode(err, errors.CodeConnectionLost, "engine.reconnect",
				"engine became unreachable while streaming events")
		}

		attempt++
		s.m.log.Warn("reconnecting websocket", "attempt", attempt, "max_attempts", s.m.reconnect.MaxAttempts)
		conn, _, dialErr := websocket.DefaultDialer.DialContext(ctx, s.m.client.WSURL(s.clientID), nil)
		if dialErr != nil {
			return backoff.Retryable(dialErr)
		}
		s.conn = conn
		return nil
	})
	if rerr != nil {
		if errors.CodeOf(rerr) == errors.CodeConnectionLost {
			return false, rerr
		}
		return false, errors.WrapWithCode(rerr, errors.CodeConnectionLost, "engine.reconnect",
			fmt.Sprintf("websocket connection lost and could not be re-established after %d attempts",
				s.m.reconnect.MaxAttempts))
	}

	if _, herr := s.m.client.History(ctx, promptID); herr == nil {
		s.m.log.Info("workflow finished while websocket was down")
		return true, nil
	}
	return false, nil
}
