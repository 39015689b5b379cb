package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"vmflow/internal/config"
	"vmflow/internal/orchestrator"
	"vmflow/internal/plan"
	"vmflow/pkg/logging"
)

const subsystem = "Gateway"

// Engine is the orchestrator surface the gateway routes commands into.
type Engine interface {
	ExecuteMigrationPlan(ctx context.Context, planPath, userID string) error
	ExecuteRestartPlan(ctx context.Context, userID string) error
	CancelMigration(ctx context.Context) error
	ClearMigrationData(ctx context.Context) error
	Status(ctx context.Context) orchestrator.Status
	Subscribe() <-chan orchestrator.Notification
	Unsubscribe(<-chan orchestrator.Notification)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Gateway is the realtime front door: it authenticates WebSocket
// clients, relays orchestrator state and events to all of them, and
// routes client commands into the engine.
type Gateway struct {
	engine    Engine
	catalog   *plan.Catalog
	jwtSecret []byte
	addr      string

	mu       sync.RWMutex
	conns    map[string]*connection
	sessions map[string]string // connection id -> authenticated user id
}

// New creates a gateway for the given engine.
func New(cfg config.GatewayConfig, engine Engine, catalog *plan.Catalog) *Gateway {
	return &Gateway{
		engine:    engine,
		catalog:   catalog,
		jwtSecret: []byte(cfg.JWTSecret),
		addr:      fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		conns:     make(map[string]*connection),
		sessions:  make(map[string]string),
	}
}

// Router returns the HTTP routes served by the gateway.
func (g *Gateway) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", g.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)
	return r
}

// Run serves the gateway until ctx is cancelled. It also pumps
// orchestrator notifications to every connected client for as long as
// it runs.
func (g *Gateway) Run(ctx context.Context) error {
	sub := g.engine.Subscribe()
	defer g.engine.Unsubscribe(sub)
	go g.pumpNotifications(ctx, sub)

	server := &http.Server{
		Addr:    g.addr,
		Handler: g.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(subsystem, "Listening on %s", g.addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
		g.closeAll()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// pumpNotifications fans orchestrator notifications out to every
// connection. One-to-many: every client sees every transition and event
// regardless of which connection triggered it.
func (g *Gateway) pumpNotifications(ctx context.Context, sub <-chan orchestrator.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-sub:
			if !ok {
				return
			}
			var msg Message
			var err error
			switch n.Kind {
			case orchestrator.NotificationState:
				msg, err = newMessage(MsgStateChanged, map[string]orchestrator.WorkflowState{"state": n.State})
			case orchestrator.NotificationEvent:
				msg, err = newMessage(MsgEvent, n.Event)
			default:
				continue
			}
			if err != nil {
				logging.Error(subsystem, err, "Failed to encode %s notification", n.Kind)
				continue
			}
			g.broadcast(msg)
		}
	}
}

func (g *Gateway) broadcast(msg Message) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, conn := range g.conns {
		conn.send(msg)
	}
}

// handleWS upgrades the connection, validates the bearer credential and
// runs the per-connection read loop. An invalid credential gets exactly
// one auth-refresh signal and a closed socket; no session entry is
// created for it.
func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error(subsystem, err, "WebSocket upgrade failed")
		return
	}

	userID, err := g.authenticate(r)
	if err != nil {
		logging.Warn(subsystem, "Handshake rejected: %v", err)
		if msg, merr := newMessage(MsgAuthRefresh, nil); merr == nil {
			if data, merr := json.Marshal(msg); merr == nil {
				ws.SetWriteDeadline(time.Now().Add(writeTimeout))
				ws.WriteMessage(websocket.TextMessage, data)
			}
		}
		ws.Close()
		return
	}

	conn := newConnection(uuid.NewString(), userID, ws)
	g.register(conn)
	defer g.unregister(conn)

	go conn.writeLoop()

	// Snapshot goes to the new connection only; nothing is broadcast.
	if msg, err := newMessage(MsgStatus, g.engine.Status(r.Context())); err == nil {
		conn.send(msg)
	}

	logging.Info(subsystem, "Connection %s established for user %s", conn.id, userID)
	g.readLoop(conn)
}

func (g *Gateway) readLoop(conn *connection) {
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			logging.Debug(subsystem, "Connection %s closed: %v", conn.id, err)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.send(mustMessage(MsgCommandError, errorPayload{Error: "malformed message"}))
			continue
		}
		g.dispatch(conn, msg)
	}
}

// dispatch routes one client command. Mutating commands run on their
// own goroutine: a migration blocks for up to the executor timeout and
// must not stall this connection's read loop or any other client.
func (g *Gateway) dispatch(conn *connection, msg Message) {
	switch msg.Type {
	case MsgGetStatus:
		if m, err := newMessage(MsgStatus, g.engine.Status(context.Background())); err == nil {
			conn.send(m)
		}

	case MsgListPlans:
		var plans []string
		if g.catalog != nil {
			plans = g.catalog.Plans()
		}
		if m, err := newMessage(MsgPlans, plans); err == nil {
			conn.send(m)
		}

	case MsgStartMigration:
		var payload startPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Plan == "" {
			conn.send(mustMessage(MsgCommandError, errorPayload{Command: msg.Type, Error: "missing plan"}))
			return
		}
		g.runCommand(conn, msg.Type, func(ctx context.Context, userID string) error {
			return g.engine.ExecuteMigrationPlan(ctx, g.resolvePlan(payload.Plan), userID)
		})

	case MsgRestartServers:
		g.runCommand(conn, msg.Type, func(ctx context.Context, userID string) error {
			return g.engine.ExecuteRestartPlan(ctx, userID)
		})

	case MsgCancel:
		g.runCommand(conn, msg.Type, func(ctx context.Context, userID string) error {
			return g.engine.CancelMigration(ctx)
		})

	case MsgClear:
		g.runCommand(conn, msg.Type, func(ctx context.Context, userID string) error {
			return g.engine.ClearMigrationData(ctx)
		})

	default:
		conn.send(mustMessage(MsgCommandError, errorPayload{Command: msg.Type, Error: "unknown command"}))
	}
}

// runCommand dispatches a mutating command for an identified issuer.
// Results go to the issuing client only; broadcasts happen through the
// orchestrator's own notifications.
func (g *Gateway) runCommand(conn *connection, command string, fn func(ctx context.Context, userID string) error) {
	userID, ok := g.sessionUser(conn.id)
	if !ok {
		conn.send(mustMessage(MsgCommandError, errorPayload{Command: command, Error: "not authorized"}))
		return
	}

	go func() {
		if err := fn(context.Background(), userID); err != nil {
			conn.send(mustMessage(MsgCommandError, errorPayload{Command: command, Error: err.Error()}))
			return
		}
		conn.send(mustMessage(MsgCommandAck, ackPayload{Command: command}))
	}()
}

// resolvePlan maps a bare catalog name to its full path; anything with
// a path separator is taken literally.
func (g *Gateway) resolvePlan(name string) string {
	if g.catalog == nil || filepath.Base(name) != name {
		return name
	}
	return g.catalog.Resolve(name)
}

func (g *Gateway) register(conn *connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conns[conn.id] = conn
	g.sessions[conn.id] = conn.userID
}

// unregister drops the connection from the registry and the session
// map. Both tolerate entries that are already gone.
func (g *Gateway) unregister(conn *connection) {
	g.mu.Lock()
	delete(g.conns, conn.id)
	delete(g.sessions, conn.id)
	g.mu.Unlock()
	conn.close()
	logging.Info(subsystem, "Connection %s closed", conn.id)
}

func (g *Gateway) sessionUser(connID string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	userID, ok := g.sessions[connID]
	return userID, ok
}

func (g *Gateway) closeAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, conn := range g.conns {
		conn.close()
		delete(g.conns, id)
		delete(g.sessions, id)
	}
}

// ConnectionCount returns the number of live connections.
func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.conns)
}

// SessionCount returns the number of bound session identities.
func (g *Gateway) SessionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

func mustMessage(msgType string, payload interface{}) Message {
	msg, err := newMessage(msgType, payload)
	if err != nil {
		return Message{Type: msgType}
	}
	return msg
}
