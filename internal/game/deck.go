// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// DeckSize is the double-deck total: 2 x (5 suits x 11 ranks) + 6 jokers.
const DeckSize = 116

const jokersPerDeck = 3

// NewDeck builds the 116-card double Five-Crowns deck in a fixed order.
// Callers shuffle it with the game's seeded RNG stream.
func NewDeck() []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	for copyN := 0; copyN < 2; copyN++ {
		for suit := models.Hearts; suit <= models.Stars; suit++ {
			for rank := models.Three; rank <= models.King; rank++ {
				deck = append(deck, models.Card{Suit: suit, Rank: rank})
			}
		}
		for j := 0; j < jokersPerDeck; j++ {
			deck = append(deck, models.Card{Joker: true})
		}
	}
	return deck
}

// shuffle permutes cards in place using the provided RNG. All shuffles in a
// game draw from the game's single seeded stream so that replaying the
// event log reproduces every deal and reshuffle exactly.
func shuffle(cards []models.Card, r *rand.Rand) {
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}
