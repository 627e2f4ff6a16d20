// internal/game/snapshot.go
package game

import (
	"github.com/google/uuid"

	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// PlayerView is one seat as seen by a particular recipient. Melds and
// scores are public; only the recipient's own hand carries cards, everyone
// else's exposes just a count.
type PlayerView struct {
	UserID    uuid.UUID         `json:"user_id"`
	Username  string            `json:"username"`
	Seat      int               `json:"seat"`
	HandCount int               `json:"hand_count"`
	Hand      []string          `json:"hand,omitempty"`
	Melds     []models.WireMeld `json:"melds"`
	Score     int               `json:"score"`
	WentOut   bool              `json:"went_out"`
}

// Snapshot is the per-player projection of game state broadcast after every
// committed command and on join.
type Snapshot struct {
	GameID     uuid.UUID         `json:"game_id"`
	Status     models.GameStatus `json:"status"`
	HostID     uuid.UUID         `json:"host_id"`
	MaxPlayers int               `json:"max_players"`
	Round      int               `json:"round"`
	WildRank   string            `json:"wild_rank,omitempty"`
	TurnIndex  int               `json:"turn_index"`
	Phase      Phase             `json:"phase,omitempty"`
	FinalTurn  bool              `json:"final_turn"`
	StockSize  int               `json:"stock_size"`
	DiscardTop string            `json:"discard_top,omitempty"`
	Players    []PlayerView      `json:"players"`
	Winners    []uuid.UUID       `json:"winners,omitempty"`
}

// SnapshotFor projects the game for one recipient, eliding every other
// player's hidden cards.
func (g *FiveCrownsGame) SnapshotFor(userID uuid.UUID) Snapshot {
	snap := Snapshot{
		GameID:     g.ID,
		Status:     g.Status,
		HostID:     g.HostID,
		MaxPlayers: g.MaxPlayers,
		Round:      g.Round,
		TurnIndex:  g.TurnIndex,
		Phase:      g.Phase,
		FinalTurn:  g.FinalTurn,
		StockSize:  len(g.Stock),
	}
	if g.Round > 0 {
		snap.WildRank = models.WildRank(g.Round).String()
	}
	if len(g.DiscardPile) > 0 {
		snap.DiscardTop = g.DiscardPile[len(g.DiscardPile)-1].Code()
	}
	if g.Status == models.GameFinished {
		snap.Winners = g.Winners()
	}
	for _, p := range g.Players {
		view := PlayerView{
			UserID:    p.UserID,
			Username:  p.Username,
			Seat:      p.Seat,
			HandCount: len(p.Hand),
			Melds:     models.MeldsToWire(p.Melds),
			Score:     p.Score,
			WentOut:   g.WentOutIndex == p.Seat,
		}
		if p.UserID == userID {
			view.Hand = models.CardCodes(p.Hand)
		}
		snap.Players = append(snap.Players, view)
	}
	return snap
}
