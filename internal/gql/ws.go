package gql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// graphql-transport-ws frame types.
const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
	msgPing           = "ping"
	msgPong           = "pong"
)

type SocketState string

const (
	SocketDisconnected SocketState = "disconnected"
	SocketConnecting   SocketState = "connecting"
	SocketConnected    SocketState = "connected"
	SocketReconnecting SocketState = "reconnecting"
	SocketFailed       SocketState = "failed"
)

type StateCallback func(state SocketState)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsSub struct {
	id      string
	payload Request
	onNext  func(data json.RawMessage)
	onError func(err error)
}

// Socket is the subscription transport: one websocket carrying every
// live stream, multiplexed by subscription id. Streams survive a
// reconnect; the socket re-issues each registered subscribe frame
// after the handshake.
type Socket struct {
	wsURL string

	conn   *websocket.Conn
	state  SocketState
	stateM sync.RWMutex

	subs   map[string]*wsSub
	subM   sync.RWMutex
	nextID uint64

	stateCbs []StateCallback
	cbM      sync.RWMutex

	writeM sync.Mutex

	maxReconnectAttempts int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc

	headerProvider HeaderProvider
	pingInterval   time.Duration
}

func NewSocket(wsURL string, maxReconnectAttempts int) *Socket {
	return &Socket{
		wsURL:                wsURL,
		state:                SocketDisconnected,
		subs:                 make(map[string]*wsSub),
		maxReconnectAttempts: maxReconnectAttempts,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
	}
}

// SetHeaderProvider injects handshake headers (e.g. the auth token).
func (ws *Socket) SetHeaderProvider(h HeaderProvider) { ws.headerProvider = h }

func (ws *Socket) OnStateChange(cb StateCallback) {
	ws.cbM.Lock()
	ws.stateCbs = append(ws.stateCbs, cb)
	ws.cbM.Unlock()
}

func (ws *Socket) Connect(ctx context.Context) error {
	ws.stateM.Lock()
	if ws.state == SocketConnected || ws.state == SocketConnecting {
		ws.stateM.Unlock()
		return nil
	}
	ws.stateM.Unlock()

	ws.rootCtx, ws.rootCancel = context.WithCancel(context.Background())
	ws.setState(SocketConnecting)

	if err := ws.dial(ctx); err != nil {
		ws.setState(SocketFailed)
		ws.scheduleReconnect()
		return err
	}

	ws.setState(SocketConnected)
	ws.wg.Add(2)
	go ws.listen()
	go ws.pingLoop()
	return nil
}

// dial opens the connection and completes the connection_init /
// connection_ack handshake.
func (ws *Socket) dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := &websocket.DialOptions{
		Subprotocols:    []string{"graphql-transport-ws"},
		CompressionMode: websocket.CompressionNoContextTakeover,
	}
	if ws.headerProvider != nil {
		hdr := make(map[string][]string)
		for k, v := range ws.headerProvider() {
			if k != "" && v != "" {
				hdr[k] = []string{v}
			}
		}
		opts.HTTPHeader = hdr
	}

	conn, _, err := websocket.Dial(dialCtx, ws.wsURL, opts)
	if err != nil {
		return err
	}

	if err := wsjson.Write(dialCtx, conn, wsMessage{Type: msgConnectionInit}); err != nil {
		_ = conn.Close(websocket.StatusProtocolError, "init failed")
		return err
	}
	var ack wsMessage
	if err := wsjson.Read(dialCtx, conn, &ack); err != nil {
		_ = conn.Close(websocket.StatusProtocolError, "no ack")
		return err
	}
	if ack.Type != msgConnectionAck {
		_ = conn.Close(websocket.StatusProtocolError, "bad ack")
		return fmt.Errorf("expected %s, got %q", msgConnectionAck, ack.Type)
	}

	ws.conn = conn
	return nil
}

// Subscribe registers the stream and sends its subscribe frame. The
// returned handle releases the stream on both ends.
func (ws *Socket) Subscribe(ctx context.Context, document string, variables map[string]any,
	onNext func(data json.RawMessage), onError func(err error)) (Handle, error) {

	if ws.currentState() != SocketConnected {
		return nil, &RequestError{Err: errors.New("socket not connected")}
	}

	id := fmt.Sprintf("%d", atomic.AddUint64(&ws.nextID, 1))
	sub := &wsSub{
		id:      id,
		payload: Request{Query: document, Variables: variables},
		onNext:  onNext,
		onError: onError,
	}

	ws.subM.Lock()
	ws.subs[id] = sub
	ws.subM.Unlock()

	if err := ws.writeSubscribe(ctx, sub); err != nil {
		ws.removeSub(id)
		return nil, &RequestError{Err: err}
	}
	return &subHandle{ws: ws, id: id}, nil
}

type subHandle struct {
	ws   *Socket
	id   string
	once sync.Once
}

func (h *subHandle) Unsubscribe() {
	h.once.Do(func() {
		h.ws.removeSub(h.id)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.ws.write(ctx, wsMessage{ID: h.id, Type: msgComplete})
	})
}

func (ws *Socket) writeSubscribe(ctx context.Context, sub *wsSub) error {
	payload, err := json.Marshal(sub.payload)
	if err != nil {
		return fmt.Errorf("marshal subscribe payload: %w", err)
	}
	return ws.write(ctx, wsMessage{ID: sub.id, Type: msgSubscribe, Payload: payload})
}

// write serializes frame writes; wsjson.Write is not safe for
// concurrent use on one connection.
func (ws *Socket) write(ctx context.Context, msg wsMessage) error {
	ws.writeM.Lock()
	defer ws.writeM.Unlock()
	if ws.conn == nil {
		return errors.New("socket not connected")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return wsjson.Write(ctx, ws.conn, msg)
}

func (ws *Socket) listen() {
	defer ws.wg.Done()
	for {
		select {
		case <-ws.stopCh:
			return
		default:
		}

		if ws.conn == nil {
			return
		}
		var msg wsMessage
		if err := wsjson.Read(ws.rootCtx, ws.conn, &msg); err != nil {
			if ws.isStopping() {
				return
			}
			ws.setState(SocketDisconnected)
			_ = ws.closeConn(websocket.StatusGoingAway, "reconnect")
			ws.scheduleReconnect()
			return
		}
		ws.dispatch(&msg)
	}
}

func (ws *Socket) dispatch(msg *wsMessage) {
	switch msg.Type {
	case msgNext:
		sub := ws.lookupSub(msg.ID)
		if sub == nil {
			return
		}
		var result Response
		if err := json.Unmarshal(msg.Payload, &result); err != nil {
			sub.onError(&RequestError{Err: fmt.Errorf("decode next payload: %w", err)})
			return
		}
		if len(result.Errors) > 0 {
			sub.onError(&GraphQLError{Errors: result.Errors})
			return
		}
		sub.onNext(result.Data)
	case msgError:
		sub := ws.lookupSub(msg.ID)
		ws.removeSub(msg.ID)
		if sub == nil {
			return
		}
		var errs []Error
		if err := json.Unmarshal(msg.Payload, &errs); err != nil || len(errs) == 0 {
			sub.onError(&RequestError{Err: fmt.Errorf("subscription error: %s", string(msg.Payload))})
			return
		}
		sub.onError(&GraphQLError{Errors: errs})
	case msgComplete:
		ws.removeSub(msg.ID)
	case msgPing:
		_ = ws.write(ws.rootCtx, wsMessage{Type: msgPong})
	}
}

func (ws *Socket) pingLoop() {
	defer ws.wg.Done()
	t := time.NewTicker(ws.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ws.stopCh:
			return
		case <-t.C:
			if ws.conn == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(ws.rootCtx, 3*time.Second)
			err := ws.conn.Ping(ctx)
			cancel()
			if err != nil {
				failures++
				if failures >= 2 {
					if ws.isStopping() {
						return
					}
					ws.setState(SocketDisconnected)
					_ = ws.closeConn(websocket.StatusGoingAway, "ping failure")
					ws.scheduleReconnect()
					failures = 0
				}
				continue
			}
			failures = 0
		}
	}
}

// scheduleReconnect redials with backoff and re-issues every live
// subscription; the server sees fresh subscribe frames under the same
// ids, so handles held by callers stay valid.
func (ws *Socket) scheduleReconnect() {
	if ws.maxReconnectAttempts <= 0 {
		return
	}
	ws.setState(SocketReconnecting)

	go func() {
		for attempt := 1; attempt <= ws.maxReconnectAttempts; attempt++ {
			select {
			case <-ws.stopCh:
				return
			case <-time.After(backoffDuration(attempt)):
			}

			if err := ws.dial(ws.rootCtx); err != nil {
				continue
			}
			ws.setState(SocketConnected)
			ws.resubscribeAll()

			ws.wg.Add(2)
			go ws.listen()
			go ws.pingLoop()
			return
		}
		ws.setState(SocketFailed)
	}()
}

func (ws *Socket) resubscribeAll() {
	ws.subM.RLock()
	subs := make([]*wsSub, 0, len(ws.subs))
	for _, s := range ws.subs {
		subs = append(subs, s)
	}
	ws.subM.RUnlock()
	for _, s := range subs {
		if err := ws.writeSubscribe(ws.rootCtx, s); err != nil {
			s.onError(&RequestError{Err: fmt.Errorf("resubscribe: %w", err)})
		}
	}
}

func (ws *Socket) lookupSub(id string) *wsSub {
	ws.subM.RLock()
	defer ws.subM.RUnlock()
	return ws.subs[id]
}

func (ws *Socket) removeSub(id string) {
	ws.subM.Lock()
	delete(ws.subs, id)
	ws.subM.Unlock()
}

func (ws *Socket) currentState() SocketState {
	ws.stateM.RLock()
	defer ws.stateM.RUnlock()
	return ws.state
}

func (ws *Socket) setState(state SocketState) {
	ws.stateM.Lock()
	ws.state = state
	ws.stateM.Unlock()

	ws.cbM.RLock()
	callbacks := make([]StateCallback, len(ws.stateCbs))
	copy(callbacks, ws.stateCbs)
	ws.cbM.RUnlock()
	for _, cb := range callbacks {
		if cb != nil {
			cb(state)
		}
	}
}

func (ws *Socket) Close(ctx context.Context) error {
	ws.stopOnce.Do(func() { close(ws.stopCh) })
	_ = ws.closeConn(websocket.StatusNormalClosure, "close")

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		if ws.rootCancel != nil {
			ws.rootCancel()
		}
		return nil
	}
}

func (ws *Socket) closeConn(code websocket.StatusCode, reason string) error {
	ws.writeM.Lock()
	defer ws.writeM.Unlock()
	if ws.conn == nil {
		return nil
	}
	defer func() { ws.conn = nil }()
	return ws.conn.Close(code, reason)
}

func (ws *Socket) isStopping() bool {
	select {
	case <-ws.stopCh:
		return true
	default:
		return false
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}
