// internal/hub/queue.go
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jbbjarnason/fivesuitsrummy/internal/cache"
	"github.com/jbbjarnason/fivesuitsrummy/internal/game"
	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

const (
	queueBuffer     = 128
	persistAttempts = 3
	persistBackoff  = 100 * time.Millisecond
)

type queuedCommand struct {
	client *Client
	cmd    Command

	// fn, when set, is a closure run on the queue instead of a wire
	// command. REST handlers use it for serialized access to live state.
	fn        func(g *game.FiveCrownsGame) error
	broadcast bool
	done      chan error
}

// gameQueue is the single writer for one game's state. Commands drain in
// arrival order; the engine is never touched from outside this goroutine.
type gameQueue struct {
	hub  *Hub
	game *game.FiveCrownsGame

	commands chan queuedCommand

	mu      sync.Mutex
	stopped bool

	// seq is the next event log position.
	seq int

	// degraded is set after persistence retries are exhausted. The live
	// state may then be ahead of the log, so further commands are refused
	// until a restart replays from the authoritative log.
	degraded bool
}

func newGameQueue(h *Hub, g *game.FiveCrownsGame, nextSeq int) *gameQueue {
	return &gameQueue{
		hub:      h,
		game:     g,
		commands: make(chan queuedCommand, queueBuffer),
		seq:      nextSeq,
	}
}

func (q *gameQueue) submit(qc queuedCommand) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		q.reject(qc)
		return
	}
	select {
	case q.commands <- qc:
	default:
		q.reject(qc)
	}
}

func (q *gameQueue) reject(qc queuedCommand) {
	if qc.done != nil {
		qc.done <- fmt.Errorf("game queue unavailable")
		return
	}
	qc.client.sendError(qc.cmd.ClientSeq, CodeServerRetry, "game queue overloaded")
}

func (q *gameQueue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.stopped = true
	close(q.commands)
}

func (q *gameQueue) run() {
	defer q.hub.wg.Done()
	for qc := range q.commands {
		q.process(qc)
	}
}

// process applies one command. A panic here is contained to this game; the
// issuer gets a recoverable error and the queue keeps draining.
func (q *gameQueue) process(qc queuedCommand) {
	defer func() {
		if r := recover(); r != nil {
			q.hub.logger.Errorf("panic in game queue: %v", r)
			if qc.done != nil {
				qc.done <- fmt.Errorf("internal error")
			} else {
				qc.client.sendError(qc.cmd.ClientSeq, CodeServerRetry, "internal error, please retry")
			}
		}
	}()

	if qc.fn != nil {
		err := qc.fn(q.game)
		if err == nil && qc.broadcast {
			q.broadcast(nil, 0)
		}
		qc.done <- err
		return
	}

	if q.degraded {
		qc.client.sendError(qc.cmd.ClientSeq, CodeServerRetry, "game temporarily unavailable")
		return
	}

	switch qc.cmd.Type {
	case CmdJoinGame:
		q.handleJoin(qc)
	default:
		q.handlePlay(qc)
	}
}

// handleJoin seats a lobby newcomer, or just subscribes an existing member
// (reconnection included). Newcomers other than the host must hold an
// invitation; knowing a gameId is not enough to take a seat.
func (q *gameQueue) handleJoin(qc queuedCommand) {
	c, cmd := qc.client, qc.cmd
	g := q.game

	if g.PlayerByID(c.userID) == nil {
		if g.Status != models.GameLobby {
			c.sendError(cmd.ClientSeq, CodeNotInGame, "game already started")
			return
		}
		if c.userID != g.HostID {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			invited, err := q.hub.persist.HasInvite(ctx, c.userID, g.ID)
			cancel()
			if err != nil {
				q.hub.logger.Errorf("invitation lookup for game %s: %v", g.ID, err)
				c.sendError(cmd.ClientSeq, CodeServerRetry, "could not verify invitation, please retry")
				return
			}
			if !invited {
				c.sendError(cmd.ClientSeq, CodeNotInGame, "you have not been invited to this game")
				return
			}
		}
		if err := g.AddPlayer(c.userID, c.username); err != nil {
			c.sendError(cmd.ClientSeq, errorCode(err), err.Error())
			return
		}
		seat := len(g.Players) - 1
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := q.hub.persist.AddPlayer(ctx, g.ID, c.userID, seat)
		cancel()
		if err != nil {
			// The seat must not exist in memory only; a restart would replay
			// a seating the live game never agreed on.
			q.hub.logger.Errorf("persist seat for game %s: %v", g.ID, err)
			if rmErr := g.RemovePlayer(c.userID); rmErr != nil {
				q.hub.logger.Errorf("roll back seat for game %s: %v", g.ID, rmErr)
			}
			c.sendError(cmd.ClientSeq, CodeServerRetry, "could not record seat, please retry")
			return
		}
		q.hub.subscribe(g.ID, c)
		q.broadcast(c, cmd.ClientSeq)
		return
	}

	q.hub.subscribe(g.ID, c)
	seq := cmd.ClientSeq
	c.sendJSON(StateEvent{Type: EvtState, ClientSeq: &seq, State: g.SnapshotFor(c.userID)})
}

// handlePlay validates membership, invokes the engine, persists the event,
// and fans out the new state.
func (q *gameQueue) handlePlay(qc queuedCommand) {
	c, cmd := qc.client, qc.cmd
	g := q.game

	if g.PlayerByID(c.userID) == nil {
		c.sendError(cmd.ClientSeq, CodeNotInGame, "you are not in this game")
		return
	}

	eventType, payload, err := q.apply(c, cmd)
	if err != nil {
		c.sendError(cmd.ClientSeq, errorCode(err), err.Error())
		return
	}

	ev := models.GameEvent{
		GameID:      g.ID,
		Seq:         q.seq,
		Type:        eventType,
		ActorUserID: c.userID,
		Payload:     payload,
	}
	if !q.persistEvent(ev) {
		q.degraded = true
		c.sendError(cmd.ClientSeq, CodeServerRetry, "could not record move, please retry later")
		return
	}
	q.seq++
	q.mirrorEvent(ev)
	q.afterCommit(cmd)
	q.broadcast(c, cmd.ClientSeq)
}

// apply dispatches the command into the engine and returns the event row
// to log on success.
func (q *gameQueue) apply(c *Client, cmd Command) (string, json.RawMessage, error) {
	g := q.game
	switch cmd.Type {
	case CmdStartGame:
		if c.userID != g.HostID {
			return "", nil, fmt.Errorf("only the host can start the game: %w", game.ErrNotYourTurn)
		}
		if err := g.Start(); err != nil {
			return "", nil, err
		}
		return game.EventGameStart, nil, nil

	case CmdDraw:
		switch cmd.Source {
		case "stock":
			if err := g.DrawFromStock(c.userID); err != nil {
				return "", nil, err
			}
			return game.EventDrawStock, nil, nil
		case "discard":
			if err := g.DrawFromDiscard(c.userID); err != nil {
				return "", nil, err
			}
			return game.EventDrawDiscard, nil, nil
		default:
			return "", nil, fmt.Errorf("draw source must be stock or discard: %w", game.ErrWrongPhase)
		}

	case CmdLayMelds:
		melds, err := models.MeldsFromWire(cmd.Melds)
		if err != nil {
			return "", nil, fmt.Errorf("%v: %w", err, game.ErrInvalidMeld)
		}
		if err := g.LayMelds(c.userID, melds); err != nil {
			return "", nil, err
		}
		payload, err := json.Marshal(game.LayMeldsPayload{Melds: cmd.Melds})
		if err != nil {
			return "", nil, err
		}
		return game.EventLayMelds, payload, nil

	case CmdLayOff:
		cards, err := models.ParseCards(cmd.Cards)
		if err != nil {
			return "", nil, fmt.Errorf("%v: %w", err, game.ErrCardNotInHand)
		}
		if err := g.LayOff(c.userID, cmd.TargetSeat, cmd.MeldIndex, cards); err != nil {
			return "", nil, err
		}
		payload, err := json.Marshal(game.LayOffPayload{
			TargetSeat: cmd.TargetSeat,
			MeldIndex:  cmd.MeldIndex,
			Cards:      cmd.Cards,
		})
		if err != nil {
			return "", nil, err
		}
		return game.EventLayOff, payload, nil

	case CmdDiscard:
		card, err := models.ParseCard(cmd.Card)
		if err != nil {
			return "", nil, fmt.Errorf("%v: %w", err, game.ErrCardNotInHand)
		}
		if err := g.Discard(c.userID, card); err != nil {
			return "", nil, err
		}
		payload, err := json.Marshal(game.DiscardPayload{Card: cmd.Card})
		if err != nil {
			return "", nil, err
		}
		return game.EventDiscard, payload, nil

	case CmdGoOut:
		melds, err := models.MeldsFromWire(cmd.Melds)
		if err != nil {
			return "", nil, fmt.Errorf("%v: %w", err, game.ErrInvalidMeld)
		}
		discard, err := models.ParseCard(cmd.Card)
		if err != nil {
			return "", nil, fmt.Errorf("%v: %w", err, game.ErrCardNotInHand)
		}
		if err := g.GoOut(c.userID, melds, discard); err != nil {
			return "", nil, err
		}
		payload, err := json.Marshal(game.GoOutPayload{Melds: cmd.Melds, Discard: cmd.Card})
		if err != nil {
			return "", nil, err
		}
		return game.EventGoOut, payload, nil
	}
	return "", nil, fmt.Errorf("unhandled command %q", cmd.Type)
}

// persistEvent appends with bounded retry. Events reach the log before any
// resulting state is broadcast.
func (q *gameQueue) persistEvent(ev models.GameEvent) bool {
	backoff := persistBackoff
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := q.hub.persist.AppendEvent(ctx, ev)
		cancel()
		if err == nil {
			return true
		}
		q.hub.logger.Warnf("append event game=%s seq=%d attempt=%d: %v", ev.GameID, ev.Seq, attempt, err)
		if attempt < persistAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return false
}

// mirrorEvent pushes a copy of a committed event onto the Redis queue for
// downstream consumers. Best effort only.
func (q *gameQueue) mirrorEvent(ev models.GameEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := cache.PublishGameEvent(ctx, cache.GameEventRecord{
		GameID:      ev.GameID,
		Seq:         ev.Seq,
		ActorUserID: ev.ActorUserID,
		EventType:   ev.Type,
		Payload:     ev.Payload,
		Timestamp:   time.Now().Unix(),
	})
	if err != nil {
		q.hub.logger.Warnf("mirror event game=%s seq=%d: %v", ev.GameID, ev.Seq, err)
	}
}

// afterCommit reflects lifecycle transitions into the games table.
func (q *gameQueue) afterCommit(cmd Command) {
	g := q.game
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch {
	case cmd.Type == CmdStartGame:
		if err := q.hub.persist.SetStatus(ctx, g.ID, models.GameActive); err != nil {
			q.hub.logger.Errorf("mark game %s active: %v", g.ID, err)
		}
	case g.Status == models.GameFinished:
		if err := q.hub.persist.Finish(ctx, g.ID, g.Winners(), time.Now()); err != nil {
			q.hub.logger.Errorf("mark game %s finished: %v", g.ID, err)
		}
	}
}

// broadcast fans the new state out to every subscriber, each with their
// own projection. The issuing socket's copy echoes the clientSeq.
func (q *gameQueue) broadcast(issuer *Client, clientSeq int64) {
	for _, c := range q.hub.subscribersOf(q.game.ID) {
		ev := StateEvent{Type: EvtState, State: q.game.SnapshotFor(c.userID)}
		if c == issuer {
			seq := clientSeq
			ev.ClientSeq = &seq
		}
		c.sendJSON(ev)
	}
}
