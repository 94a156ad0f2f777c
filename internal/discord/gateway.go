package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Gateway opcodes used by this listener.
const (
	opDispatch     = 0
	opHeartbeat    = 1
	opIdentify     = 2
	opHello        = 10
	opHeartbeatACK = 11
)

const reconnectDelay = 5 * time.Second

// Gateway intents: guilds, members, invites, messages, message content.
const gatewayIntents = 1<<0 | 1<<1 | 1<<6 | 1<<9 | 1<<15

type gatewayPayload struct {
	Op       int             `json:"op"`
	Data     json.RawMessage `json:"d,omitempty"`
	Sequence *int64          `json:"s,omitempty"`
	Type     string          `json:"t,omitempty"`
}

type helloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// MemberAddEvent is the GUILD_MEMBER_ADD dispatch payload.
type MemberAddEvent struct {
	GuildID string `json:"guild_id"`
	User    User   `json:"user"`
}

// ThreadCreateEvent is the THREAD_CREATE dispatch payload.
type ThreadCreateEvent struct {
	ID      string `json:"id"`
	GuildID string `json:"guild_id"`
	Name    string `json:"name"`
}

// EventHandler receives gateway dispatches. Handlers are invoked one at
// a time from the gateway read loop, so a single join is processed start
// to finish before the next event is dispatched.
type EventHandler interface {
	HandleMemberAdd(ctx context.Context, event MemberAddEvent)
	HandleThreadCreate(ctx context.Context, event ThreadCreateEvent)
}

// Gateway maintains a websocket connection to the Discord gateway and
// dispatches events to a handler.
type Gateway struct {
	url     string
	token   string
	handler EventHandler

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewGateway creates a gateway listener.
func NewGateway(url, token string, handler EventHandler) *Gateway {
	return &Gateway{
		url:     url,
		token:   token,
		handler: handler,
	}
}

// Run connects to the gateway and processes events until the context is
// cancelled or Close is called. Connection failures are retried with a
// fixed delay.
func (g *Gateway) Run(ctx context.Context) error {
	for {
		if err := g.connectAndListen(ctx); err != nil {
			if ctx.Err() != nil || g.isClosed() {
				return nil
			}
			log.Printf("Gateway connection lost: %v, reconnecting in %s", err, reconnectDelay)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

// Close shuts down the gateway connection.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	if g.conn != nil {
		return g.conn.Close()
	}
	return nil
}

func (g *Gateway) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

func (g *Gateway) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial gateway: %w", err)
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		conn.Close()
		return nil
	}
	g.conn = conn
	g.mu.Unlock()
	defer conn.Close()

	// First frame must be HELLO with the heartbeat interval
	var hello gatewayPayload
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("failed to read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello opcode, got %d", hello.Op)
	}
	var helloPayload helloData
	if err := json.Unmarshal(hello.Data, &helloPayload); err != nil {
		return fmt.Errorf("failed to decode hello: %w", err)
	}

	if err := g.send(conn, gatewayPayload{Op: opIdentify, Data: mustMarshal(identifyData{
		Token:   g.token,
		Intents: gatewayIntents,
		Properties: identifyProperties{
			OS:      "linux",
			Browser: "invitetrack",
			Device:  "invitetrack",
		},
	})}); err != nil {
		return fmt.Errorf("failed to identify: %w", err)
	}

	log.Println("Gateway connected")

	var lastSeq atomic.Int64
	stopHeartbeat := make(chan struct{})
	defer close(stopHeartbeat)
	go g.heartbeatLoop(conn, time.Duration(helloPayload.HeartbeatInterval)*time.Millisecond, &lastSeq, stopHeartbeat)

	for {
		var payload gatewayPayload
		if err := conn.ReadJSON(&payload); err != nil {
			return fmt.Errorf("failed to read gateway frame: %w", err)
		}

		if payload.Sequence != nil {
			lastSeq.Store(*payload.Sequence)
		}

		switch payload.Op {
		case opDispatch:
			g.dispatch(ctx, payload)
		case opHeartbeat:
			if err := g.send(conn, gatewayPayload{Op: opHeartbeat, Data: mustMarshal(lastSeq.Load())}); err != nil {
				return fmt.Errorf("failed to answer heartbeat: %w", err)
			}
		case opHeartbeatACK:
			// nothing to do
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, payload gatewayPayload) {
	switch payload.Type {
	case "GUILD_MEMBER_ADD":
		var event MemberAddEvent
		if err := json.Unmarshal(payload.Data, &event); err != nil {
			log.Printf("Failed to decode GUILD_MEMBER_ADD: %v", err)
			return
		}
		g.handler.HandleMemberAdd(ctx, event)

	case "THREAD_CREATE":
		var event ThreadCreateEvent
		if err := json.Unmarshal(payload.Data, &event); err != nil {
			log.Printf("Failed to decode THREAD_CREATE: %v", err)
			return
		}
		g.handler.HandleThreadCreate(ctx, event)
	}
}

func (g *Gateway) heartbeatLoop(conn *websocket.Conn, interval time.Duration, lastSeq *atomic.Int64, stop <-chan struct{}) {
	if interval <= 0 {
		interval = 41250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := g.send(conn, gatewayPayload{Op: opHeartbeat, Data: mustMarshal(lastSeq.Load())}); err != nil {
				log.Printf("Heartbeat failed: %v", err)
				return
			}
		}
	}
}

// send serializes writes; gorilla/websocket allows at most one
// concurrent writer and the heartbeat loop races the read loop's
// heartbeat replies.
func (g *Gateway) send(conn *websocket.Conn, payload gatewayPayload) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return conn.WriteJSON(payload)
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
