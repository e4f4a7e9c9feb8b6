package captureobs

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// obs-websocket v5 opcodes.
const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opRequest         = 6
	opRequestResponse = 7
)

const (
	handshakeTimeout = 10 * time.Second
	rpcVersion       = 1
)

type envelope struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type helloData struct {
	ObsWebSocketVersion string `json:"obsWebSocketVersion"`
	Authentication      *struct {
		Challenge string `json:"challenge"`
		Salt      string `json:"salt"`
	} `json:"authentication"`
}

type identifyData struct {
	RpcVersion     int    `json:"rpcVersion"`
	Authentication string `json:"authentication,omitempty"`
}

type requestData struct {
	RequestType string `json:"requestType"`
	RequestID   string `json:"requestId"`
	RequestData any    `json:"requestData,omitempty"`
}

type responseData struct {
	RequestType   string `json:"requestType"`
	RequestID     string `json:"requestId"`
	RequestStatus struct {
		Result  bool   `json:"result"`
		Code    int    `json:"code"`
		Comment string `json:"comment"`
	} `json:"requestStatus"`
	ResponseData json.RawMessage `json:"responseData"`
}

// client is a minimal obs-websocket v5 client. One request is in flight
// at a time; OBS answers in order and the clip pipeline has no need for
// pipelining.
type client struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	nextID  int
	timeout time.Duration
}

func dial(ctx context.Context, host string, port int, password string, timeout time.Duration) (*client, error) {
	u := url.URL{Scheme: "ws", Host: fmt.Sprintf("%s:%d", host, port)}
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing obs at %s: %w", u.Host, err)
	}

	c := &client{conn: conn, timeout: timeout}
	if err := c.identify(password); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *client) identify(password string) error {
	var hello envelope
	c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	if err := c.conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("reading obs hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello opcode, got %d", hello.Op)
	}
	var hd helloData
	if err := json.Unmarshal(hello.D, &hd); err != nil {
		return fmt.Errorf("decoding obs hello: %w", err)
	}

	ident := identifyData{RpcVersion: rpcVersion}
	if hd.Authentication != nil {
		if password == "" {
			return fmt.Errorf("obs requires authentication but no password is configured")
		}
		ident.Authentication = authToken(password, hd.Authentication.Salt, hd.Authentication.Challenge)
	}
	if err := c.writeEnvelope(opIdentify, ident); err != nil {
		return fmt.Errorf("sending identify: %w", err)
	}

	var identified envelope
	c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	if err := c.conn.ReadJSON(&identified); err != nil {
		return fmt.Errorf("reading identified: %w", err)
	}
	if identified.Op != opIdentified {
		return fmt.Errorf("obs rejected identify (opcode %d)", identified.Op)
	}
	return nil
}

// authToken derives the v5 auth string: base64(sha256(base64(sha256(
// password+salt)) + challenge)).
func authToken(password, salt, challenge string) string {
	secretSum := sha256.Sum256([]byte(password + salt))
	secret := base64.StdEncoding.EncodeToString(secretSum[:])
	authSum := sha256.Sum256([]byte(secret + challenge))
	return base64.StdEncoding.EncodeToString(authSum[:])
}

func (c *client) writeEnvelope(op int, d any) error {
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(envelope{Op: op, D: body})
}

// request sends one request and waits for its response, skipping any
// event messages that arrive in between.
func (c *client) request(reqType string, reqData any, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := fmt.Sprintf("%s-%d", reqType, c.nextID)
	if err := c.writeEnvelope(opRequest, requestData{
		RequestType: reqType,
		RequestID:   id,
		RequestData: reqData,
	}); err != nil {
		return fmt.Errorf("sending %s: %w", reqType, err)
	}

	deadline := time.Now().Add(c.timeout)
	for {
		c.conn.SetReadDeadline(deadline)
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return fmt.Errorf("reading %s response: %w", reqType, err)
		}
		if env.Op != opRequestResponse {
			continue
		}
		var resp responseData
		if err := json.Unmarshal(env.D, &resp); err != nil {
			return fmt.Errorf("decoding %s response: %w", reqType, err)
		}
		if resp.RequestID != id {
			continue
		}
		if !resp.RequestStatus.Result {
			return fmt.Errorf("obs %s failed: %s (code %d)", reqType, resp.RequestStatus.Comment, resp.RequestStatus.Code)
		}
		if out != nil && len(resp.ResponseData) > 0 {
			if err := json.Unmarshal(resp.ResponseData, out); err != nil {
				return fmt.Errorf("decoding %s payload: %w", reqType, err)
			}
		}
		return nil
	}
}

func (c *client) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
