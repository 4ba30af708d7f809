package debugger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/go-dap"
	"go.uber.org/zap"
)

// RejectedError reports that the adapter processed a request but refused
// it. This is the debugger saying no, not the transport breaking.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// client is a minimal DAP client covering the requests the copilot needs:
// session setup, repl evaluation, pause, and teardown.
type client struct {
	transport *transport
	logger    *zap.Logger

	pendingRequests map[int]chan dap.Message
	mu              sync.Mutex

	initialized     chan struct{}
	initializedOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newClient(transport *transport, logger *zap.Logger) *client {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		transport:       transport,
		logger:          logger,
		pendingRequests: make(map[int]chan dap.Message),
		initialized:     make(chan struct{}),
		ctx:             ctx,
		cancel:          cancel,
	}

	c.wg.Add(1)
	go c.readLoop()

	return c
}

// readLoop continuously reads messages from the transport.
func (c *client) readLoop() {
	defer c.wg.Done()

	consecutiveErrors := 0
	const maxConsecutiveErrors = 5

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		msg, err := c.transport.receive()
		if err != nil {
			select {
			case <-c.ctx.Done():
				return
			default:
				consecutiveErrors++
				c.logger.Debug("DAP transport error",
					zap.Int("attempt", consecutiveErrors),
					zap.Error(err))

				// Persistent transport failure: stop rather than spin.
				if consecutiveErrors >= maxConsecutiveErrors {
					c.logger.Warn("DAP transport: too many consecutive errors, stopping read loop")
					return
				}
				continue
			}
		}

		consecutiveErrors = 0
		c.handleMessage(msg)
	}
}

// handleMessage routes responses to their waiting request and tracks the
// initialized event.
func (c *client) handleMessage(msg dap.Message) {
	var requestSeq int
	var isResponse bool

	switch m := msg.(type) {
	case *dap.InitializeResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.LaunchResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.AttachResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ConfigurationDoneResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.EvaluateResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ThreadsResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.PauseResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.DisconnectResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ErrorResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.InitializedEvent:
		c.initializedOnce.Do(func() {
			close(c.initialized)
		})
		return
	case *dap.StoppedEvent:
		c.logger.Debug("debuggee stopped",
			zap.String("reason", m.Body.Reason),
			zap.Int("thread", m.Body.ThreadId))
		return
	}

	if isResponse {
		c.mu.Lock()
		if ch, ok := c.pendingRequests[requestSeq]; ok {
			ch <- msg
			delete(c.pendingRequests, requestSeq)
		}
		c.mu.Unlock()
		return
	}

	c.logger.Debug("unhandled DAP message", zap.String("type", fmt.Sprintf("%T", msg)))
}

// sendRequest sends a request and waits for its response, honoring both the
// caller's context and a hard timeout.
func (c *client) sendRequest(ctx context.Context, req dap.RequestMessage, timeout time.Duration) (dap.Message, error) {
	seq := c.transport.nextSeq()

	switch r := req.(type) {
	case *dap.InitializeRequest:
		r.Seq = seq
	case *dap.LaunchRequest:
		r.Seq = seq
	case *dap.AttachRequest:
		r.Seq = seq
	case *dap.ConfigurationDoneRequest:
		r.Seq = seq
	case *dap.EvaluateRequest:
		r.Seq = seq
	case *dap.ThreadsRequest:
		r.Seq = seq
	case *dap.PauseRequest:
		r.Seq = seq
	case *dap.DisconnectRequest:
		r.Seq = seq
	}

	respCh := make(chan dap.Message, 1)
	c.mu.Lock()
	c.pendingRequests[seq] = respCh
	c.mu.Unlock()

	if err := c.transport.send(req); err != nil {
		c.mu.Lock()
		delete(c.pendingRequests, seq)
		c.mu.Unlock()
		return nil, err
	}

	select {
	case resp := <-respCh:
		return resp, nil
	case <-time.After(timeout):
		c.mu.Lock()
		delete(c.pendingRequests, seq)
		c.mu.Unlock()
		return nil, fmt.Errorf("request timeout")
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pendingRequests, seq)
		c.mu.Unlock()
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}

// initialize performs the DAP initialize handshake.
func (c *client) initialize(ctx context.Context) error {
	req := &dap.InitializeRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "initialize",
		},
		Arguments: dap.InitializeRequestArguments{
			ClientID:        "lldb-copilot",
			ClientName:      "lldb-copilot",
			AdapterID:       "lldb-dap",
			Locale:          "en-US",
			LinesStartAt1:   true,
			ColumnsStartAt1: true,
			PathFormat:      "path",
		},
	}

	resp, err := c.sendRequest(ctx, req, 10*time.Second)
	if err != nil {
		return err
	}

	initResp, ok := resp.(*dap.InitializeResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !initResp.Success {
		return fmt.Errorf("initialize failed: %s", initResp.Message)
	}

	return nil
}

// waitInitialized blocks until the adapter reports it is ready for
// configuration requests.
func (c *client) waitInitialized(timeout time.Duration) error {
	select {
	case <-c.initialized:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for initialized event")
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

// launch asks the adapter to launch a target.
func (c *client) launch(ctx context.Context, args map[string]interface{}) error {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to marshal launch args: %w", err)
	}

	req := &dap.LaunchRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "launch",
		},
		Arguments: argsJSON,
	}

	resp, err := c.sendRequest(ctx, req, 30*time.Second)
	if err != nil {
		return err
	}

	launchResp, ok := resp.(*dap.LaunchResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !launchResp.Success {
		return fmt.Errorf("launch failed: %s", launchResp.Message)
	}

	return nil
}

// attach asks the adapter to attach to a running process.
func (c *client) attach(ctx context.Context, args map[string]interface{}) error {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to marshal attach args: %w", err)
	}

	req := &dap.AttachRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "attach",
		},
		Arguments: argsJSON,
	}

	resp, err := c.sendRequest(ctx, req, 30*time.Second)
	if err != nil {
		return err
	}

	attachResp, ok := resp.(*dap.AttachResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !attachResp.Success {
		return fmt.Errorf("attach failed: %s", attachResp.Message)
	}

	return nil
}

// configurationDone signals that configuration requests are complete.
func (c *client) configurationDone(ctx context.Context) error {
	req := &dap.ConfigurationDoneRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "configurationDone",
		},
	}

	resp, err := c.sendRequest(ctx, req, 10*time.Second)
	if err != nil {
		return err
	}

	configResp, ok := resp.(*dap.ConfigurationDoneResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !configResp.Success {
		return fmt.Errorf("configurationDone failed: %s", configResp.Message)
	}

	return nil
}

// evaluate evaluates an expression in the given context ("repl" runs it
// through the LLDB command interpreter). A refused evaluation comes back
// as *RejectedError so callers can tell it apart from transport failure.
func (c *client) evaluate(ctx context.Context, expression string, frameID int, evalContext string) (string, error) {
	req := &dap.EvaluateRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "evaluate",
		},
		Arguments: dap.EvaluateArguments{
			Expression: expression,
			FrameId:    frameID,
			Context:    evalContext,
		},
	}

	// Commands like "continue" or "memory read" can take a while.
	resp, err := c.sendRequest(ctx, req, 60*time.Second)
	if err != nil {
		return "", err
	}

	switch r := resp.(type) {
	case *dap.EvaluateResponse:
		if !r.Success {
			return "", &RejectedError{Message: r.Message}
		}
		return r.Body.Result, nil
	case *dap.ErrorResponse:
		return "", &RejectedError{Message: r.Message}
	default:
		return "", fmt.Errorf("unexpected response type: %T", resp)
	}
}

// threads lists the debuggee's threads.
func (c *client) threads(ctx context.Context) ([]dap.Thread, error) {
	req := &dap.ThreadsRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "threads",
		},
	}

	resp, err := c.sendRequest(ctx, req, 10*time.Second)
	if err != nil {
		return nil, err
	}

	threadsResp, ok := resp.(*dap.ThreadsResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !threadsResp.Success {
		return nil, fmt.Errorf("threads request failed: %s", threadsResp.Message)
	}

	return threadsResp.Body.Threads, nil
}

// pause asks the adapter to pause a thread.
func (c *client) pause(ctx context.Context, threadID int) error {
	req := &dap.PauseRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "pause",
		},
		Arguments: dap.PauseArguments{
			ThreadId: threadID,
		},
	}

	resp, err := c.sendRequest(ctx, req, 10*time.Second)
	if err != nil {
		return err
	}

	pauseResp, ok := resp.(*dap.PauseResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !pauseResp.Success {
		return fmt.Errorf("pause failed: %s", pauseResp.Message)
	}

	return nil
}

// disconnect ends the debug session.
func (c *client) disconnect(ctx context.Context, terminateDebuggee bool) error {
	req := &dap.DisconnectRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "disconnect",
		},
		Arguments: &dap.DisconnectArguments{
			TerminateDebuggee: terminateDebuggee,
		},
	}

	resp, err := c.sendRequest(ctx, req, 10*time.Second)
	if err != nil {
		return err
	}

	disconnectResp, ok := resp.(*dap.DisconnectResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !disconnectResp.Success {
		return fmt.Errorf("disconnect failed: %s", disconnectResp.Message)
	}

	return nil
}

// close shuts down the client and its read loop.
func (c *client) close() error {
	c.cancel()
	c.wg.Wait()
	return c.transport.close()
}
