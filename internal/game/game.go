// internal/game/game.go
package game

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// Phase is the position within the current player's turn.
type Phase string

const (
	PhaseMustDraw    Phase = "mustDraw"
	PhaseMustDiscard Phase = "mustDiscard"
)

// FinalRound is the last round; Kings are wild and the game finishes after
// it is scored.
const FinalRound = 11

// Player is one seat's live state. Hand order is insertion order (draws
// appended); clients may reorder locally but the server's order is what
// replay reproduces.
type Player struct {
	UserID        uuid.UUID
	Username      string
	Seat          int
	Hand          []models.Card
	Melds         []models.Meld
	Score         int
	TookFinalTurn bool
}

// FiveCrownsGame is the authoritative per-game state machine. It is not
// safe for concurrent use: the hub's per-game command queue is the single
// writer, and no mutable handle crosses that boundary. Every command method
// either commits fully or returns an error leaving state unchanged.
type FiveCrownsGame struct {
	ID         uuid.UUID
	HostID     uuid.UUID
	MaxPlayers int
	Status     models.GameStatus

	Players     []*Player
	Stock       []models.Card
	DiscardPile []models.Card

	TurnIndex    int
	Phase        Phase
	Round        int
	WentOutIndex int // -1 until somebody goes out this round
	FinalTurn    bool

	Seed int64
	rng  *rand.Rand
}

// NewGame builds a game in Lobby status. The seed is persisted with the
// game row; together with the ordered command log it makes every shuffle
// and deal reproducible.
func NewGame(id, hostID uuid.UUID, maxPlayers int, seed int64) *FiveCrownsGame {
	return &FiveCrownsGame{
		ID:           id,
		HostID:       hostID,
		MaxPlayers:   maxPlayers,
		Status:       models.GameLobby,
		WentOutIndex: -1,
		Seed:         seed,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// AddPlayer seats a user in the lobby. Seats are assigned in join order.
func (g *FiveCrownsGame) AddPlayer(userID uuid.UUID, username string) error {
	if g.Status != models.GameLobby {
		return ErrGameNotActive
	}
	if len(g.Players) >= g.MaxPlayers {
		return ErrGameFull
	}
	if g.PlayerByID(userID) != nil {
		return ErrAlreadyInGame
	}
	g.Players = append(g.Players, &Player{
		UserID:   userID,
		Username: username,
		Seat:     len(g.Players),
	})
	return nil
}

// RemovePlayer unseats a user. Only lobby games can be left; later seats
// shift down to keep seat numbers dense.
func (g *FiveCrownsGame) RemovePlayer(userID uuid.UUID) error {
	if g.Status != models.GameLobby {
		return ErrGameNotActive
	}
	for i, p := range g.Players {
		if p.UserID == userID {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			for j := i; j < len(g.Players); j++ {
				g.Players[j].Seat = j
			}
			return nil
		}
	}
	return ErrNotInGame
}

// PlayerByID returns the seated player for a user, or nil.
func (g *FiveCrownsGame) PlayerByID(userID uuid.UUID) *Player {
	for _, p := range g.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is.
func (g *FiveCrownsGame) CurrentPlayer() *Player {
	return g.Players[g.TurnIndex]
}

// Start moves Lobby -> Active and deals round 1.
func (g *FiveCrownsGame) Start() error {
	if g.Status != models.GameLobby {
		return ErrGameNotActive
	}
	if len(g.Players) < 2 {
		return ErrNotEnoughPlayers
	}
	g.Status = models.GameActive
	g.Round = 1
	g.startRound()
	return nil
}

// startRound rebuilds and shuffles the full deck, deals round+2 cards to
// each player, flips one card to the discard pile, and hands the turn to
// the round's starting seat.
func (g *FiveCrownsGame) startRound() {
	g.Stock = NewDeck()
	shuffle(g.Stock, g.rng)
	g.DiscardPile = nil
	g.WentOutIndex = -1
	g.FinalTurn = false

	handSize := g.Round + 2
	for _, p := range g.Players {
		p.Hand = make([]models.Card, 0, handSize+1)
		p.Melds = nil
		p.TookFinalTurn = false
	}
	for i := 0; i < handSize; i++ {
		for _, p := range g.Players {
			p.Hand = append(p.Hand, g.popStock())
		}
	}
	g.DiscardPile = append(g.DiscardPile, g.popStock())

	g.TurnIndex = (g.Round - 1) % len(g.Players)
	g.Phase = PhaseMustDraw
}

// popStock removes and returns the top stock card. The stock is never
// empty at call sites: deals draw from a fresh deck and DrawFromStock
// reshuffles first.
func (g *FiveCrownsGame) popStock() models.Card {
	c := g.Stock[0]
	g.Stock = g.Stock[1:]
	return c
}

// requireTurn validates the common preconditions of turn commands.
func (g *FiveCrownsGame) requireTurn(userID uuid.UUID, phase Phase) error {
	if g.Status != models.GameActive {
		return ErrGameNotActive
	}
	p := g.PlayerByID(userID)
	if p == nil {
		return ErrNotInGame
	}
	if p.Seat != g.TurnIndex {
		return ErrNotYourTurn
	}
	if g.Phase != phase {
		return ErrWrongPhase
	}
	return nil
}

// DrawFromStock draws the top stock card into the current player's hand.
// If the stock is empty the discard pile minus its top card is reshuffled
// back in, keyed by the next draw of the game's seeded RNG stream so replay
// reproduces the same order.
func (g *FiveCrownsGame) DrawFromStock(userID uuid.UUID) error {
	if err := g.requireTurn(userID, PhaseMustDraw); err != nil {
		return err
	}
	if len(g.Stock) == 0 {
		g.reshuffleStock()
	}
	p := g.CurrentPlayer()
	p.Hand = append(p.Hand, g.popStock())
	g.Phase = PhaseMustDiscard
	return nil
}

// reshuffleStock folds all but the top discard back into the stock.
func (g *FiveCrownsGame) reshuffleStock() {
	top := g.DiscardPile[len(g.DiscardPile)-1]
	g.Stock = append(g.Stock, g.DiscardPile[:len(g.DiscardPile)-1]...)
	g.DiscardPile = []models.Card{top}
	r := rand.New(rand.NewSource(g.rng.Int63()))
	shuffle(g.Stock, r)
}

// DrawFromDiscard pops the discard top into the current player's hand.
func (g *FiveCrownsGame) DrawFromDiscard(userID uuid.UUID) error {
	if err := g.requireTurn(userID, PhaseMustDraw); err != nil {
		return err
	}
	if len(g.DiscardPile) == 0 {
		return ErrWrongPhase
	}
	p := g.CurrentPlayer()
	top := g.DiscardPile[len(g.DiscardPile)-1]
	g.DiscardPile = g.DiscardPile[:len(g.DiscardPile)-1]
	p.Hand = append(p.Hand, top)
	g.Phase = PhaseMustDiscard
	return nil
}

// LayMelds validates and lays down new melds from the current player's
// hand. All melds are validated and their cards multiset-consumed against
// the hand before anything is committed. Runs are stored in canonical
// order. The phase does not change; the player still owes a discard.
func (g *FiveCrownsGame) LayMelds(userID uuid.UUID, melds []models.Meld) error {
	if err := g.requireTurn(userID, PhaseMustDiscard); err != nil {
		return err
	}
	p := g.CurrentPlayer()
	remaining := p.Hand
	var ok bool
	for _, m := range melds {
		if !ValidateMeld(m, g.Round) {
			return ErrInvalidMeld
		}
		remaining, ok = removeCards(remaining, m.Cards)
		if !ok {
			return ErrCardNotInHand
		}
	}
	p.Hand = remaining
	for _, m := range melds {
		if m.Type == models.MeldRun {
			m.Cards = arrangeRun(m.Cards, g.Round)
		}
		p.Melds = append(p.Melds, m)
	}
	return nil
}

// LayOff extends an existing meld of any player with cards from the
// current player's hand. Disallowed once the final-turn phase has begun.
func (g *FiveCrownsGame) LayOff(userID uuid.UUID, targetSeat, meldIdx int, cards []models.Card) error {
	if err := g.requireTurn(userID, PhaseMustDiscard); err != nil {
		return err
	}
	if g.FinalTurn {
		return ErrFinalTurnPhase
	}
	if targetSeat < 0 || targetSeat >= len(g.Players) {
		return ErrMeldNotFound
	}
	target := g.Players[targetSeat]
	if meldIdx < 0 || meldIdx >= len(target.Melds) {
		return ErrMeldNotFound
	}
	existing := target.Melds[meldIdx]
	if !CanExtendMeld(existing, cards, g.Round) {
		return ErrCannotExtendMeld
	}
	p := g.CurrentPlayer()
	remaining, ok := removeCards(p.Hand, cards)
	if !ok {
		return ErrCardNotInHand
	}
	p.Hand = remaining

	combined := make([]models.Card, 0, len(existing.Cards)+len(cards))
	combined = append(combined, existing.Cards...)
	combined = append(combined, cards...)
	if existing.Type == models.MeldRun {
		combined = arrangeRun(combined, g.Round)
	}
	target.Melds[meldIdx] = models.Meld{Type: existing.Type, Cards: combined}
	return nil
}

// Discard removes the card from the current player's hand, pushes it onto
// the discard pile, and advances the turn, ending the round if the final
// turn phase has run its course.
func (g *FiveCrownsGame) Discard(userID uuid.UUID, card models.Card) error {
	if err := g.requireTurn(userID, PhaseMustDiscard); err != nil {
		return err
	}
	p := g.CurrentPlayer()
	remaining, ok := removeCards(p.Hand, []models.Card{card})
	if !ok {
		return ErrCardNotInHand
	}
	p.Hand = remaining
	g.DiscardPile = append(g.DiscardPile, card)
	g.advanceTurn()
	return nil
}

// GoOut atomically lays the proposed melds and discards the final card,
// starting the final-turn phase for everyone else. CanGoOut is checked
// before any mutation.
func (g *FiveCrownsGame) GoOut(userID uuid.UUID, melds []models.Meld, discard models.Card) error {
	if err := g.requireTurn(userID, PhaseMustDiscard); err != nil {
		return err
	}
	p := g.CurrentPlayer()
	if !CanGoOut(p.Hand, melds, discard, g.Round) {
		return ErrCannotGoOut
	}
	// A later player may also go out during the final-turn phase; the
	// tracker stays on whoever went out first so the round still ends after
	// one turn apiece.
	firstOut := g.WentOutIndex < 0
	if firstOut {
		g.WentOutIndex = g.TurnIndex
		g.FinalTurn = true
	}
	if err := g.LayMelds(userID, melds); err != nil {
		// CanGoOut already vouched for the melds; restore the flags on the
		// off chance the two validations ever disagree.
		if firstOut {
			g.WentOutIndex = -1
			g.FinalTurn = false
		}
		return err
	}
	return g.Discard(userID, discard)
}

// advanceTurn rotates the turn pointer, tracking final turns once somebody
// has gone out and ending the round when every other player has had their
// one remaining turn.
func (g *FiveCrownsGame) advanceTurn() {
	if g.WentOutIndex >= 0 {
		if g.TurnIndex != g.WentOutIndex {
			g.CurrentPlayer().TookFinalTurn = true
		}
		done := true
		for _, p := range g.Players {
			if p.Seat != g.WentOutIndex && !p.TookFinalTurn {
				done = false
				break
			}
		}
		if done {
			g.endRound()
			return
		}
	}
	g.TurnIndex = (g.TurnIndex + 1) % len(g.Players)
	g.Phase = PhaseMustDraw
}

// endRound scores every hand still holding cards, then either deals the
// next round or finishes the game after round 11. The lowest total wins.
func (g *FiveCrownsGame) endRound() {
	for _, p := range g.Players {
		for _, c := range p.Hand {
			p.Score += c.PointValue(g.Round)
		}
	}
	if g.Round == FinalRound {
		g.Status = models.GameFinished
		return
	}
	g.Round++
	g.startRound()
}

// Winners returns the user IDs holding the lowest total score. Only
// meaningful once the game is Finished; ties produce multiple winners.
func (g *FiveCrownsGame) Winners() []uuid.UUID {
	if len(g.Players) == 0 {
		return nil
	}
	best := g.Players[0].Score
	for _, p := range g.Players[1:] {
		if p.Score < best {
			best = p.Score
		}
	}
	var winners []uuid.UUID
	for _, p := range g.Players {
		if p.Score == best {
			winners = append(winners, p.UserID)
		}
	}
	return winners
}

// CardCount totals every card in play. While the game is Active it must
// equal DeckSize after every committed command.
func (g *FiveCrownsGame) CardCount() int {
	n := len(g.Stock) + len(g.DiscardPile)
	for _, p := range g.Players {
		n += len(p.Hand)
		for _, m := range p.Melds {
			n += len(m.Cards)
		}
	}
	return n
}
