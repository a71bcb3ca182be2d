// Package obs is a minimal obs-websocket (protocol v5) client covering
// scene selection: identify handshake, SetCurrentProgramScene, and the
// scene queries the CLI surfaces.
package obs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/scenewatch/scenewatch/internal/logger"
)

// obs-websocket v5 opcodes.
const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opEvent           = 5
	opRequest         = 6
	opRequestResponse = 7
)

const (
	rpcVersion        = 1
	subprotocol       = "obswebsocket.json"
	handshakeTimeout  = 10 * time.Second
	defaultCallWindow = 10 * time.Second
)

// ConnectError reports a failed connection or identify handshake. Fatal at
// startup unless the caller retries.
type ConnectError struct {
	URL string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to obs at %s: %v", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// CommandError reports an ordinary remote-side rejection of a request,
// e.g. a scene name OBS does not know. Non-fatal: the caller logs it and
// retries on a later tick.
type CommandError struct {
	Code    int
	Comment string
}

func (e *CommandError) Error() string {
	if e.Comment == "" {
		return fmt.Sprintf("obs rejected request (code %d)", e.Code)
	}
	return fmt.Sprintf("obs rejected request (code %d): %s", e.Code, e.Comment)
}

type message struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type helloData struct {
	ObsWebSocketVersion string `json:"obsWebSocketVersion"`
	RPCVersion          int    `json:"rpcVersion"`
	Authentication      *struct {
		Challenge string `json:"challenge"`
		Salt      string `json:"salt"`
	} `json:"authentication"`
}

type identifyData struct {
	RPCVersion     int    `json:"rpcVersion"`
	Authentication string `json:"authentication,omitempty"`
}

type requestEnvelope struct {
	RequestType string      `json:"requestType"`
	RequestID   string      `json:"requestId"`
	RequestData interface{} `json:"requestData,omitempty"`
}

type responseEnvelope struct {
	RequestType   string `json:"requestType"`
	RequestID     string `json:"requestId"`
	RequestStatus struct {
		Result  bool   `json:"result"`
		Code    int    `json:"code"`
		Comment string `json:"comment"`
	} `json:"requestStatus"`
	ResponseData json.RawMessage `json:"responseData"`
}

// Client manages one obs-websocket session. The switcher engine issues
// commands strictly one at a time; the mutex only protects the connection
// handle against a concurrent Close from the shutdown path.
type Client struct {
	url      string
	password string
	log      *zerolog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	seq  int
}

// New creates a client for the given obs-websocket URL. No connection is
// made until Connect.
func New(url, password string) *Client {
	return &Client{
		url:      url,
		password: password,
		log:      logger.WithComponent("obs"),
	}
}

// Connect dials the endpoint and performs the identify handshake. Already
// being connected is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	dialer := websocket.Dialer{
		Subprotocols:     []string{subprotocol},
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return &ConnectError{URL: c.url, Err: err}
	}

	if err := c.identify(conn); err != nil {
		conn.Close()
		return &ConnectError{URL: c.url, Err: err}
	}

	c.conn = conn
	c.log.Info().Str("url", c.url).Msg("Connected to OBS")
	return nil
}

// identify consumes the server Hello, answers its authentication
// challenge, and waits for Identified.
func (c *Client) identify(conn *websocket.Conn) error {
	deadline := time.Now().Add(handshakeTimeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return err
	}
	defer conn.SetReadDeadline(time.Time{})

	var msg message
	if err := conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if msg.Op != opHello {
		return fmt.Errorf("expected hello (op %d), got op %d", opHello, msg.Op)
	}

	var hello helloData
	if err := json.Unmarshal(msg.D, &hello); err != nil {
		return fmt.Errorf("parse hello: %w", err)
	}

	identify := identifyData{RPCVersion: rpcVersion}
	if hello.Authentication != nil {
		if c.password == "" {
			return fmt.Errorf("obs requires authentication but no password is configured")
		}
		identify.Authentication = authToken(c.password, hello.Authentication.Salt, hello.Authentication.Challenge)
	}

	payload, err := json.Marshal(identify)
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(message{Op: opIdentify, D: payload}); err != nil {
		return fmt.Errorf("send identify: %w", err)
	}

	// A rejected identify closes the socket instead of answering.
	if err := conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("authentication rejected: %w", err)
	}
	if msg.Op != opIdentified {
		return fmt.Errorf("expected identified (op %d), got op %d", opIdentified, msg.Op)
	}

	c.log.Debug().Str("obs_websocket_version", hello.ObsWebSocketVersion).Msg("Identified with OBS")
	return nil
}

// Connected reports whether a session is currently established.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close releases the session.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// call sends one request and waits for its response, skipping interleaved
// event messages. Any transport failure drops the session so the next call
// reconnects first.
func (c *Client) call(ctx context.Context, requestType string, reqData interface{}, out interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		c.log.Warn().Msg("Session lost, reconnecting to OBS")
		if err := c.connectLocked(ctx); err != nil {
			return err
		}
	}

	conn := c.conn

	c.seq++
	id := strconv.Itoa(c.seq)
	payload, err := json.Marshal(requestEnvelope{
		RequestType: requestType,
		RequestID:   id,
		RequestData: reqData,
	})
	if err != nil {
		return err
	}

	deadline := time.Now().Add(defaultCallWindow)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return c.dropLocked(err)
	}
	if err := conn.WriteJSON(message{Op: opRequest, D: payload}); err != nil {
		return c.dropLocked(fmt.Errorf("send %s: %w", requestType, err))
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return c.dropLocked(err)
	}
	defer conn.SetReadDeadline(time.Time{})

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return c.dropLocked(fmt.Errorf("read %s response: %w", requestType, err))
		}
		if msg.Op != opRequestResponse {
			continue
		}

		var resp responseEnvelope
		if err := json.Unmarshal(msg.D, &resp); err != nil {
			return fmt.Errorf("parse %s response: %w", requestType, err)
		}
		if resp.RequestID != id {
			continue
		}
		if !resp.RequestStatus.Result {
			return &CommandError{
				Code:    resp.RequestStatus.Code,
				Comment: resp.RequestStatus.Comment,
			}
		}
		if out != nil && len(resp.ResponseData) > 0 {
			if err := json.Unmarshal(resp.ResponseData, out); err != nil {
				return fmt.Errorf("parse %s response data: %w", requestType, err)
			}
		}
		return nil
	}
}

// dropLocked discards the broken session and passes the error through.
// Caller must hold the mutex.
func (c *Client) dropLocked(err error) error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	return err
}

// SetScene switches the active program scene. A *CommandError means OBS
// rejected the request (e.g. unknown scene name); any other error means
// the command never reached OBS.
func (c *Client) SetScene(ctx context.Context, scene string) error {
	return c.call(ctx, "SetCurrentProgramScene", map[string]string{"sceneName": scene}, nil)
}

// CurrentScene returns the active program scene name.
func (c *Client) CurrentScene(ctx context.Context) (string, error) {
	var out struct {
		CurrentProgramSceneName string `json:"currentProgramSceneName"`
	}
	if err := c.call(ctx, "GetCurrentProgramScene", nil, &out); err != nil {
		return "", err
	}
	return out.CurrentProgramSceneName, nil
}

// Scenes returns the scene names known to OBS, in OBS's list order.
func (c *Client) Scenes(ctx context.Context) ([]string, error) {
	var out struct {
		Scenes []struct {
			SceneName string `json:"sceneName"`
		} `json:"scenes"`
	}
	if err := c.call(ctx, "GetSceneList", nil, &out); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.Scenes))
	for _, s := range out.Scenes {
		names = append(names, s.SceneName)
	}
	return names, nil
}
