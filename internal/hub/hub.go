// internal/hub/hub.go
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jbbjarnason/fivesuitsrummy/internal/database"
	"github.com/jbbjarnason/fivesuitsrummy/internal/game"
	"github.com/jbbjarnason/fivesuitsrummy/internal/middleware"
	"github.com/jbbjarnason/fivesuitsrummy/internal/models"

	"github.com/jbbjarnason/fivesuitsrummy/internal/auth"
)

// Persist groups the storage calls the hub makes, as function fields so
// tests can run the hub without a database.
type Persist struct {
	AppendEvent func(ctx context.Context, ev models.GameEvent) error
	AddPlayer   func(ctx context.Context, gameID, userID uuid.UUID, seat int) error
	SetStatus   func(ctx context.Context, gameID uuid.UUID, status models.GameStatus) error
	Finish      func(ctx context.Context, gameID uuid.UUID, winners []uuid.UUID, at time.Time) error
	Insert      func(ctx context.Context, n *models.Notification) error
	LookupUser  func(ctx context.Context, id uuid.UUID) (*models.User, error)
	HasInvite   func(ctx context.Context, userID, gameID uuid.UUID) (bool, error)
}

func defaultPersist() Persist {
	return Persist{
		AppendEvent: database.AppendGameEvent,
		AddPlayer:   database.AddGamePlayer,
		SetStatus:   database.SetGameStatus,
		Finish:      database.FinishGame,
		Insert:      database.InsertNotification,
		LookupUser:  database.GetUserByID,
		HasInvite:   database.HasGameInvitation,
	}
}

// Hub owns every live socket and every game's command queue. All access to
// a game's authoritative state goes through its queue; the hub itself only
// touches connection bookkeeping under its mutex.
type Hub struct {
	logger   *logrus.Logger
	store    *game.Store
	sessions *auth.Service
	persist  Persist

	mu          sync.Mutex
	queues      map[uuid.UUID]*gameQueue
	subscribers map[uuid.UUID]map[*Client]struct{}
	userSockets map[uuid.UUID]map[*Client]struct{}
	closing     bool

	wg sync.WaitGroup
}

func New(logger *logrus.Logger, store *game.Store, sessions *auth.Service) *Hub {
	return &Hub{
		logger:      logger,
		store:       store,
		sessions:    sessions,
		persist:     defaultPersist(),
		queues:      make(map[uuid.UUID]*gameQueue),
		subscribers: make(map[uuid.UUID]map[*Client]struct{}),
		userSockets: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Register places a game in the store and starts its command queue.
// nextSeq is 0 for new games and the event count for rehydrated ones.
func (h *Hub) Register(g *game.FiveCrownsGame, nextSeq int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return
	}
	if _, ok := h.queues[g.ID]; ok {
		return
	}
	h.store.Add(g)
	q := newGameQueue(h, g, nextSeq)
	h.queues[g.ID] = q
	h.wg.Add(1)
	go q.run()
}

// ServeWS upgrades the connection and runs its read loop until the socket
// closes. The first message must be cmd.hello with a valid session token.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warnf("websocket accept: %v", err)
		return
	}
	middleware.LogWebSocketConnect(h.logger, r.RemoteAddr, r.URL.Path)

	c := newClient(h, conn, r.RemoteAddr)
	go c.writeLoop()

	err = h.readLoop(r.Context(), c)
	h.removeClient(c)
	c.close(websocket.StatusNormalClosure, "")
	middleware.LogWebSocketDisconnect(h.logger, r.RemoteAddr, r.URL.Path, err)
}

func (h *Hub) readLoop(ctx context.Context, c *Client) error {
	// Unauthenticated sockets get a short grace to say hello.
	helloCtx, cancel := context.WithTimeout(ctx, helloGrace)
	defer cancel()

	for {
		readCtx := ctx
		if !c.authed {
			readCtx = helloCtx
		}
		msgType, data, err := c.conn.Read(readCtx)
		if err != nil {
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.sendError(0, CodeBadRequest, "invalid JSON")
			continue
		}

		if !c.authed {
			if cmd.Type != CmdHello {
				c.sendError(cmd.ClientSeq, CodeUnauthenticated, "hello required")
				c.close(websocket.StatusPolicyViolation, "unauthenticated")
				return nil
			}
			if err := h.handleHello(ctx, c, cmd); err != nil {
				c.close(websocket.StatusPolicyViolation, "unauthenticated")
				return nil
			}
			continue
		}

		h.dispatch(c, cmd)
	}
}

func (h *Hub) handleHello(ctx context.Context, c *Client, cmd Command) error {
	userID, err := h.sessions.VerifySession(cmd.Token)
	if err != nil {
		c.sendError(cmd.ClientSeq, CodeUnauthenticated, "invalid session token")
		return err
	}
	u, err := h.persist.LookupUser(ctx, userID)
	if err != nil {
		c.sendError(cmd.ClientSeq, CodeUnauthenticated, "unknown user")
		return err
	}

	c.userID = u.ID
	c.username = u.Username
	c.authed = true

	h.mu.Lock()
	if h.userSockets[u.ID] == nil {
		h.userSockets[u.ID] = make(map[*Client]struct{})
	}
	h.userSockets[u.ID][c] = struct{}{}
	h.mu.Unlock()

	c.sendJSON(HelloEvent{Type: EvtHello, ClientSeq: cmd.ClientSeq, UserID: u.ID.String()})
	return nil
}

// dispatch routes an authenticated command. Game-scoped commands are
// enqueued on the game's queue; subscription-only commands are handled
// inline.
func (h *Hub) dispatch(c *Client, cmd Command) {
	switch cmd.Type {
	case CmdHello:
		c.sendJSON(HelloEvent{Type: EvtHello, ClientSeq: cmd.ClientSeq, UserID: c.userID.String()})
		return
	case CmdLeaveGame:
		gameID, err := uuid.Parse(cmd.GameID)
		if err != nil {
			c.sendError(cmd.ClientSeq, CodeBadRequest, "invalid gameId")
			return
		}
		h.unsubscribe(gameID, c)
		return
	case CmdJoinGame, CmdStartGame, CmdDraw, CmdLayMelds, CmdLayOff, CmdDiscard, CmdGoOut:
		gameID, err := uuid.Parse(cmd.GameID)
		if err != nil {
			c.sendError(cmd.ClientSeq, CodeBadRequest, "invalid gameId")
			return
		}
		h.mu.Lock()
		q, ok := h.queues[gameID]
		closing := h.closing
		h.mu.Unlock()
		if closing {
			c.sendError(cmd.ClientSeq, CodeServerRetry, "server shutting down")
			return
		}
		if !ok {
			c.sendError(cmd.ClientSeq, CodeNotInGame, "unknown game")
			return
		}
		q.submit(queuedCommand{client: c, cmd: cmd})
	default:
		c.sendError(cmd.ClientSeq, CodeUnknownType, "unknown command type "+cmd.Type)
	}
}

func (h *Hub) subscribe(gameID uuid.UUID, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[gameID] == nil {
		h.subscribers[gameID] = make(map[*Client]struct{})
	}
	h.subscribers[gameID][c] = struct{}{}
}

func (h *Hub) unsubscribe(gameID uuid.UUID, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers[gameID], c)
}

// subscribersOf snapshots the subscriber set for fan-out.
func (h *Hub) subscribersOf(gameID uuid.UUID) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subscribers[gameID]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.authed {
		delete(h.userSockets[c.userID], c)
		if len(h.userSockets[c.userID]) == 0 {
			delete(h.userSockets, c.userID)
		}
	}
	for _, set := range h.subscribers {
		delete(set, c)
	}
}

// Notify persists a notification row and pushes it to the target's live
// sockets. Persistence always happens so late-connecting clients can fetch
// the history.
func (h *Hub) Notify(ctx context.Context, n *models.Notification) error {
	if err := h.persist.Insert(ctx, n); err != nil {
		return err
	}
	data, err := json.Marshal(NotificationEvent{Type: EvtNotification, Notification: *n})
	if err != nil {
		return err
	}
	h.mu.Lock()
	targets := make([]*Client, 0, len(h.userSockets[n.UserID]))
	for c := range h.userSockets[n.UserID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()
	for _, c := range targets {
		c.enqueue(data)
	}
	return nil
}

// GameDeleted tears down a deleted lobby game: subscribers get
// evt.gameDeleted, the queue stops, and the store entry goes away.
func (h *Hub) GameDeleted(gameID uuid.UUID) {
	data, err := json.Marshal(GameDeletedEvent{Type: EvtGameDeleted, GameID: gameID.String()})
	if err != nil {
		return
	}
	for _, c := range h.subscribersOf(gameID) {
		c.enqueue(data)
	}

	h.mu.Lock()
	q := h.queues[gameID]
	delete(h.queues, gameID)
	delete(h.subscribers, gameID)
	h.mu.Unlock()

	if q != nil {
		q.stop()
	}
	h.store.Delete(gameID)
}

// ErrGameNotFound is returned by Do when no live game carries the ID.
var ErrGameNotFound = errors.New("game not found")

// Do runs fn on the game's command queue and waits for it. This is how
// REST handlers observe or mutate live state without breaking the
// single-writer rule. When mutate is set, subscribers get a fresh state
// broadcast after fn succeeds.
func (h *Hub) Do(gameID uuid.UUID, mutate bool, fn func(g *game.FiveCrownsGame) error) error {
	h.mu.Lock()
	q, ok := h.queues[gameID]
	h.mu.Unlock()
	if !ok {
		return ErrGameNotFound
	}
	done := make(chan error, 1)
	q.submit(queuedCommand{fn: fn, broadcast: mutate, done: done})
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		return errors.New("game queue timeout")
	}
}

// Shutdown stops accepting commands, drains every game queue, and closes
// all sockets.
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.Lock()
	h.closing = true
	queues := make([]*gameQueue, 0, len(h.queues))
	for _, q := range h.queues {
		queues = append(queues, q)
	}
	h.mu.Unlock()

	for _, q := range queues {
		q.stop()
	}

	drained := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		h.logger.Warn("shutdown deadline reached before queues drained")
	}

	h.mu.Lock()
	clients := make([]*Client, 0)
	for _, set := range h.userSockets {
		for c := range set {
			clients = append(clients, c)
		}
	}
	h.mu.Unlock()
	for _, c := range clients {
		c.close(websocket.StatusGoingAway, "server shutdown")
	}
}
