// internal/game/events.go
package game

import (
	"encoding/json"
	"fmt"

	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// Event type names persisted in the game_events log. Each row records the
// command kind, the acting user, and enough payload to re-apply it.
const (
	EventGameStart   = "game_start"
	EventDrawStock   = "draw_stock"
	EventDrawDiscard = "draw_discard"
	EventLayMelds    = "lay_melds"
	EventLayOff      = "lay_off"
	EventDiscard     = "discard"
	EventGoOut       = "go_out"
)

// LayMeldsPayload carries the melds of a lay_melds event.
type LayMeldsPayload struct {
	Melds []models.WireMeld `json:"melds"`
}

// LayOffPayload carries a lay_off event: the target player's seat, the
// index of the meld being extended, and the appended cards.
type LayOffPayload struct {
	TargetSeat int      `json:"target_seat"`
	MeldIndex  int      `json:"meld_index"`
	Cards      []string `json:"cards"`
}

// DiscardPayload carries the discarded card of a discard event.
type DiscardPayload struct {
	Card string `json:"card"`
}

// GoOutPayload carries a go_out event: the full meld decomposition plus
// the final discard.
type GoOutPayload struct {
	Melds   []models.WireMeld `json:"melds"`
	Discard string            `json:"discard"`
}

// Apply re-executes one logged event against the game. Replaying a game's
// events in seq order against a fresh game with the same seed and seating
// reproduces the live state exactly.
func (g *FiveCrownsGame) Apply(ev models.GameEvent) error {
	switch ev.Type {
	case EventGameStart:
		return g.Start()
	case EventDrawStock:
		return g.DrawFromStock(ev.ActorUserID)
	case EventDrawDiscard:
		return g.DrawFromDiscard(ev.ActorUserID)
	case EventLayMelds:
		var p LayMeldsPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode lay_melds payload: %w", err)
		}
		melds, err := models.MeldsFromWire(p.Melds)
		if err != nil {
			return err
		}
		return g.LayMelds(ev.ActorUserID, melds)
	case EventLayOff:
		var p LayOffPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode lay_off payload: %w", err)
		}
		cards, err := models.ParseCards(p.Cards)
		if err != nil {
			return err
		}
		return g.LayOff(ev.ActorUserID, p.TargetSeat, p.MeldIndex, cards)
	case EventDiscard:
		var p DiscardPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode discard payload: %w", err)
		}
		card, err := models.ParseCard(p.Card)
		if err != nil {
			return err
		}
		return g.Discard(ev.ActorUserID, card)
	case EventGoOut:
		var p GoOutPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode go_out payload: %w", err)
		}
		melds, err := models.MeldsFromWire(p.Melds)
		if err != nil {
			return err
		}
		discard, err := models.ParseCard(p.Discard)
		if err != nil {
			return err
		}
		return g.GoOut(ev.ActorUserID, melds, discard)
	}
	return fmt.Errorf("unknown event type %q", ev.Type)
}

// Replay builds a game from its persisted row, seating, and event log.
// Used on server restart to rehydrate every Active game.
func Replay(rec models.GameRecord, seats []models.GamePlayerRow, usernames map[string]string, events []models.GameEvent) (*FiveCrownsGame, error) {
	g := NewGame(rec.ID, rec.CreatedBy, rec.MaxPlayers, rec.RNGSeed)
	for _, s := range seats {
		name := usernames[s.UserID.String()]
		if err := g.AddPlayer(s.UserID, name); err != nil {
			return nil, fmt.Errorf("seat %d: %w", s.Seat, err)
		}
	}
	for _, ev := range events {
		if err := g.Apply(ev); err != nil {
			return nil, fmt.Errorf("replay %s seq %d: %w", rec.ID, ev.Seq, err)
		}
	}
	return g, nil
}
