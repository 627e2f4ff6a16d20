// internal/hub/hub_test.go
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbbjarnason/fivesuitsrummy/internal/game"
	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// memoryPersist records everything the hub would have written to storage.
// Invitations are granted by default so seating-focused tests stay short.
type memoryPersist struct {
	events        []models.GameEvent
	notifications []models.Notification
	statuses      []models.GameStatus
	finished      bool
	appendErr     error
	addPlayerErr  error
	inviteDenied  bool
	inviteErr     error
}

func (m *memoryPersist) bind() Persist {
	return Persist{
		AppendEvent: func(ctx context.Context, ev models.GameEvent) error {
			if m.appendErr != nil {
				return m.appendErr
			}
			m.events = append(m.events, ev)
			return nil
		},
		AddPlayer: func(ctx context.Context, gameID, userID uuid.UUID, seat int) error {
			return m.addPlayerErr
		},
		HasInvite: func(ctx context.Context, userID, gameID uuid.UUID) (bool, error) {
			if m.inviteErr != nil {
				return false, m.inviteErr
			}
			return !m.inviteDenied, nil
		},
		SetStatus: func(ctx context.Context, gameID uuid.UUID, status models.GameStatus) error {
			m.statuses = append(m.statuses, status)
			return nil
		},
		Finish: func(ctx context.Context, gameID uuid.UUID, winners []uuid.UUID, at time.Time) error {
			m.finished = true
			return nil
		},
		Insert: func(ctx context.Context, n *models.Notification) error {
			m.notifications = append(m.notifications, *n)
			return nil
		},
		LookupUser: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return &models.User{ID: id, Username: "u-" + id.String()[:8]}, nil
		},
	}
}

func testHub(t *testing.T) (*Hub, *memoryPersist) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	h := New(logger, game.NewStore(), nil)
	mp := &memoryPersist{}
	h.persist = mp.bind()
	return h, mp
}

func fakeClient(h *Hub, userID uuid.UUID, name string) *Client {
	return &Client{
		hub:      h,
		userID:   userID,
		username: name,
		authed:   true,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
}

// nextFrame pops one queued outbound frame, decoded into a generic map.
func nextFrame(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.send:
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	default:
		t.Fatal("expected an outbound frame, queue empty")
		return nil
	}
}

func noFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected outbound frame: %s", data)
	default:
	}
}

func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func newLobbyQueue(t *testing.T, h *Hub) (*gameQueue, *Client, *Client) {
	t.Helper()
	host := fakeClient(h, uuid.New(), "host")
	guest := fakeClient(h, uuid.New(), "guest")
	g := game.NewGame(uuid.New(), host.userID, 4, 42)
	h.store.Add(g)
	q := newGameQueue(h, g, 0)

	q.process(queuedCommand{client: host, cmd: Command{Type: CmdJoinGame, ClientSeq: 1, GameID: g.ID.String()}})
	q.process(queuedCommand{client: guest, cmd: Command{Type: CmdJoinGame, ClientSeq: 1, GameID: g.ID.String()}})
	drain(host)
	drain(guest)
	return q, host, guest
}

func TestCommandDecoding(t *testing.T) {
	raw := `{"type":"cmd.layOff","clientSeq":7,"gameId":"g","targetSeat":1,"meldIndex":2,"cards":["H7","JK"]}`
	var cmd Command
	require.NoError(t, json.Unmarshal([]byte(raw), &cmd))
	assert.Equal(t, CmdLayOff, cmd.Type)
	assert.Equal(t, int64(7), cmd.ClientSeq)
	assert.Equal(t, 1, cmd.TargetSeat)
	assert.Equal(t, 2, cmd.MeldIndex)
	assert.Equal(t, []string{"H7", "JK"}, cmd.Cards)
}

func TestErrorCodeMapping(t *testing.T) {
	cases := map[error]string{
		game.ErrNotYourTurn:      CodeNotYourTurn,
		game.ErrWrongPhase:       CodeWrongPhase,
		game.ErrInvalidMeld:      CodeInvalidMeld,
		game.ErrCardNotInHand:    CodeCardNotInHand,
		game.ErrCannotExtendMeld: CodeCannotExtendMeld,
		game.ErrCannotGoOut:      CodeCannotGoOut,
		game.ErrFinalTurnPhase:   CodeFinalTurnPhase,
		game.ErrGameNotActive:    CodeGameNotActive,
		game.ErrNotInGame:        CodeNotInGame,
		game.ErrGameFull:         CodeGameFull,
	}
	for err, want := range cases {
		assert.Equal(t, want, errorCode(err), err.Error())
	}
	assert.Equal(t, CodeNotYourTurn, errorCode(fmt.Errorf("wrapped: %w", game.ErrNotYourTurn)))
}

func TestJoinSeatsLobbyPlayerAndBroadcasts(t *testing.T) {
	h, _ := testHub(t)
	host := fakeClient(h, uuid.New(), "host")
	guest := fakeClient(h, uuid.New(), "guest")
	g := game.NewGame(uuid.New(), host.userID, 4, 1)
	h.store.Add(g)
	q := newGameQueue(h, g, 0)

	q.process(queuedCommand{client: host, cmd: Command{Type: CmdJoinGame, ClientSeq: 5}})
	frame := nextFrame(t, host)
	assert.Equal(t, EvtState, frame["type"])
	assert.Equal(t, float64(5), frame["clientSeq"])
	require.Len(t, g.Players, 1)

	q.process(queuedCommand{client: guest, cmd: Command{Type: CmdJoinGame, ClientSeq: 1}})
	require.Len(t, g.Players, 2)
	// Both subscribers see the new seating.
	hostFrame := nextFrame(t, host)
	guestFrame := nextFrame(t, guest)
	assert.Equal(t, EvtState, hostFrame["type"])
	assert.Equal(t, EvtState, guestFrame["type"])
	// Only the issuer's copy echoes the clientSeq.
	_, hostEcho := hostFrame["clientSeq"]
	assert.False(t, hostEcho)
	assert.Equal(t, float64(1), guestFrame["clientSeq"])
}

func TestJoinRequiresInvitation(t *testing.T) {
	h, mp := testHub(t)
	host := fakeClient(h, uuid.New(), "host")
	g := game.NewGame(uuid.New(), host.userID, 4, 3)
	h.store.Add(g)
	q := newGameQueue(h, g, 0)

	// The host needs no invitation.
	q.process(queuedCommand{client: host, cmd: Command{Type: CmdJoinGame, ClientSeq: 1}})
	drain(host)
	require.Len(t, g.Players, 1)

	// A stranger who merely knows the gameId is turned away unseated.
	mp.inviteDenied = true
	stranger := fakeClient(h, uuid.New(), "stranger")
	q.process(queuedCommand{client: stranger, cmd: Command{Type: CmdJoinGame, ClientSeq: 2}})
	frame := nextFrame(t, stranger)
	assert.Equal(t, EvtError, frame["type"])
	assert.Equal(t, CodeNotInGame, frame["code"])
	assert.Len(t, g.Players, 1)

	// With an invitation on file the same user is seated.
	mp.inviteDenied = false
	q.process(queuedCommand{client: stranger, cmd: Command{Type: CmdJoinGame, ClientSeq: 3}})
	frame = nextFrame(t, stranger)
	assert.Equal(t, EvtState, frame["type"])
	require.Len(t, g.Players, 2)
	assert.Equal(t, stranger.userID, g.Players[1].UserID)

	// Lookup failures fail closed.
	mp.inviteErr = fmt.Errorf("db down")
	other := fakeClient(h, uuid.New(), "other")
	q.process(queuedCommand{client: other, cmd: Command{Type: CmdJoinGame, ClientSeq: 4}})
	frame = nextFrame(t, other)
	assert.Equal(t, CodeServerRetry, frame["code"])
	assert.Len(t, g.Players, 2)
}

func TestJoinSeatRollbackOnPersistFailure(t *testing.T) {
	h, mp := testHub(t)
	host := fakeClient(h, uuid.New(), "host")
	g := game.NewGame(uuid.New(), host.userID, 4, 3)
	h.store.Add(g)
	q := newGameQueue(h, g, 0)
	q.process(queuedCommand{client: host, cmd: Command{Type: CmdJoinGame, ClientSeq: 1}})
	drain(host)

	mp.addPlayerErr = fmt.Errorf("db down")
	guest := fakeClient(h, uuid.New(), "guest")
	q.process(queuedCommand{client: guest, cmd: Command{Type: CmdJoinGame, ClientSeq: 2}})

	frame := nextFrame(t, guest)
	assert.Equal(t, EvtError, frame["type"])
	assert.Equal(t, CodeServerRetry, frame["code"])
	assert.Len(t, g.Players, 1, "unpersisted seat must not survive in memory")

	// The same user can retry once the write path recovers.
	mp.addPlayerErr = nil
	q.process(queuedCommand{client: guest, cmd: Command{Type: CmdJoinGame, ClientSeq: 3}})
	frame = nextFrame(t, guest)
	assert.Equal(t, EvtState, frame["type"])
	require.Len(t, g.Players, 2)
}

func TestJoinRejectsStrangerAfterStart(t *testing.T) {
	h, _ := testHub(t)
	q, host, _ := newLobbyQueue(t, h)
	q.process(queuedCommand{client: host, cmd: Command{Type: CmdStartGame, ClientSeq: 2}})
	drain(host)

	stranger := fakeClient(h, uuid.New(), "stranger")
	q.process(queuedCommand{client: stranger, cmd: Command{Type: CmdJoinGame, ClientSeq: 1}})
	frame := nextFrame(t, stranger)
	assert.Equal(t, EvtError, frame["type"])
	assert.Equal(t, CodeNotInGame, frame["code"])
}

func TestStartGamePersistsEventBeforeBroadcast(t *testing.T) {
	h, mp := testHub(t)
	q, host, guest := newLobbyQueue(t, h)

	q.process(queuedCommand{client: host, cmd: Command{Type: CmdStartGame, ClientSeq: 9}})

	require.Len(t, mp.events, 1)
	assert.Equal(t, game.EventGameStart, mp.events[0].Type)
	assert.Equal(t, 0, mp.events[0].Seq)
	assert.Equal(t, []models.GameStatus{models.GameActive}, mp.statuses)

	hostFrame := nextFrame(t, host)
	assert.Equal(t, EvtState, hostFrame["type"])
	assert.Equal(t, float64(9), hostFrame["clientSeq"])
	guestFrame := nextFrame(t, guest)
	assert.Equal(t, EvtState, guestFrame["type"])

	// Each projection reveals only the recipient's hand.
	state := hostFrame["state"].(map[string]interface{})
	players := state["players"].([]interface{})
	for _, pv := range players {
		view := pv.(map[string]interface{})
		if view["user_id"] == host.userID.String() {
			assert.NotEmpty(t, view["hand"])
		} else {
			assert.Nil(t, view["hand"])
		}
	}
}

func TestStartGameHostOnly(t *testing.T) {
	h, mp := testHub(t)
	q, _, guest := newLobbyQueue(t, h)

	q.process(queuedCommand{client: guest, cmd: Command{Type: CmdStartGame, ClientSeq: 3}})
	frame := nextFrame(t, guest)
	assert.Equal(t, EvtError, frame["type"])
	assert.Equal(t, CodeNotYourTurn, frame["code"])
	assert.Empty(t, mp.events)
}

func TestRulesErrorOnlyToIssuer(t *testing.T) {
	h, mp := testHub(t)
	q, host, guest := newLobbyQueue(t, h)
	q.process(queuedCommand{client: host, cmd: Command{Type: CmdStartGame, ClientSeq: 1}})
	drain(host)
	drain(guest)

	// Round 1 deals to seat 0 first; the guest at seat 1 is out of turn.
	q.process(queuedCommand{client: guest, cmd: Command{Type: CmdDraw, Source: "stock", ClientSeq: 4}})
	frame := nextFrame(t, guest)
	assert.Equal(t, EvtError, frame["type"])
	assert.Equal(t, CodeNotYourTurn, frame["code"])
	assert.Equal(t, float64(4), frame["clientSeq"])
	noFrame(t, host)
	require.Len(t, mp.events, 1, "rejected command must not be logged")
}

func TestCommandSequenceAppendsOrderedEvents(t *testing.T) {
	h, mp := testHub(t)
	q, host, guest := newLobbyQueue(t, h)
	q.process(queuedCommand{client: host, cmd: Command{Type: CmdStartGame, ClientSeq: 1}})

	turn := map[uuid.UUID]*Client{host.userID: host, guest.userID: guest}
	for i := 0; i < 6; i++ {
		actor := turn[q.game.CurrentPlayer().UserID]
		q.process(queuedCommand{client: actor, cmd: Command{Type: CmdDraw, Source: "stock", ClientSeq: int64(10 + i)}})
		hand := q.game.PlayerByID(actor.userID).Hand
		card := hand[len(hand)-1].Code()
		q.process(queuedCommand{client: actor, cmd: Command{Type: CmdDiscard, Card: card, ClientSeq: int64(100 + i)}})
	}

	require.Len(t, mp.events, 13)
	for i, ev := range mp.events {
		assert.Equal(t, i, ev.Seq)
	}
}

func TestDegradedAfterPersistFailure(t *testing.T) {
	h, mp := testHub(t)
	q, host, guest := newLobbyQueue(t, h)
	q.process(queuedCommand{client: host, cmd: Command{Type: CmdStartGame, ClientSeq: 1}})
	drain(host)
	drain(guest)

	mp.appendErr = fmt.Errorf("db down")
	q.process(queuedCommand{client: host, cmd: Command{Type: CmdDraw, Source: "stock", ClientSeq: 2}})
	frame := nextFrame(t, host)
	assert.Equal(t, EvtError, frame["type"])
	assert.Equal(t, CodeServerRetry, frame["code"])
	assert.True(t, q.degraded)

	// Once degraded, even valid commands are refused.
	mp.appendErr = nil
	q.process(queuedCommand{client: host, cmd: Command{Type: CmdDraw, Source: "stock", ClientSeq: 3}})
	frame = nextFrame(t, host)
	assert.Equal(t, CodeServerRetry, frame["code"])
}

func TestPanicContainedToQueue(t *testing.T) {
	h, _ := testHub(t)
	q, host, _ := newLobbyQueue(t, h)

	// A nil game field inside apply would panic; simulate by poisoning the
	// command with a type the engine rejects via panic path.
	q.game = nil
	assert.NotPanics(t, func() {
		q.process(queuedCommand{client: host, cmd: Command{Type: CmdDraw, Source: "stock", ClientSeq: 1}})
	})
	frame := nextFrame(t, host)
	assert.Equal(t, CodeServerRetry, frame["code"])
}

func TestDispatchUnknownType(t *testing.T) {
	h, _ := testHub(t)
	c := fakeClient(h, uuid.New(), "u")
	h.dispatch(c, Command{Type: "cmd.bogus", ClientSeq: 8})
	frame := nextFrame(t, c)
	assert.Equal(t, EvtError, frame["type"])
	assert.Equal(t, CodeUnknownType, frame["code"])
	assert.Equal(t, float64(8), frame["clientSeq"])
}

func TestDispatchUnknownGame(t *testing.T) {
	h, _ := testHub(t)
	c := fakeClient(h, uuid.New(), "u")
	h.dispatch(c, Command{Type: CmdDraw, GameID: uuid.New().String(), ClientSeq: 2})
	frame := nextFrame(t, c)
	assert.Equal(t, CodeNotInGame, frame["code"])
}

func TestNotifyPersistsAndPushes(t *testing.T) {
	h, mp := testHub(t)
	target := fakeClient(h, uuid.New(), "target")
	h.userSockets[target.userID] = map[*Client]struct{}{target: {}}

	from := uuid.New()
	n := &models.Notification{
		UserID:     target.userID,
		Type:       models.NotifGameInvitation,
		FromUserID: &from,
	}
	require.NoError(t, h.Notify(context.Background(), n))

	require.Len(t, mp.notifications, 1)
	frame := nextFrame(t, target)
	assert.Equal(t, EvtNotification, frame["type"])

	// Offline users still get the persisted row, no socket push.
	offline := &models.Notification{UserID: uuid.New(), Type: models.NotifFriendRequest}
	require.NoError(t, h.Notify(context.Background(), offline))
	require.Len(t, mp.notifications, 2)
}

func TestGameDeletedNotifiesSubscribers(t *testing.T) {
	h, _ := testHub(t)
	q, host, guest := newLobbyQueue(t, h)
	gameID := q.game.ID
	h.queues[gameID] = q

	h.GameDeleted(gameID)
	frame := nextFrame(t, host)
	assert.Equal(t, EvtGameDeleted, frame["type"])
	assert.Equal(t, gameID.String(), frame["gameId"])
	frame = nextFrame(t, guest)
	assert.Equal(t, EvtGameDeleted, frame["type"])

	_, ok := h.store.Get(gameID)
	assert.False(t, ok)
}
