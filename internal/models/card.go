// internal/models/card.go
package models

import "fmt"

// Suit is one of the five Five-Crowns suits. Stars is the fifth suit the
// standard 52-card deck lacks.
type Suit int

const (
	Hearts Suit = iota
	Spades
	Diamonds
	Clubs
	Stars
)

var suitLetter = map[Suit]string{
	Hearts:   "H",
	Spades:   "S",
	Diamonds: "D",
	Clubs:    "C",
	Stars:    "T",
}

var letterSuit = map[byte]Suit{
	'H': Hearts,
	'S': Spades,
	'D': Diamonds,
	'C': Clubs,
	'T': Stars,
}

func (s Suit) String() string {
	return suitLetter[s]
}

// Rank is the natural rank value, 3 through 13 (King). There are no aces
// or twos in a Five-Crowns deck.
type Rank int

const (
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

var rankLetter = map[Rank]string{
	Three: "3", Four: "4", Five: "5", Six: "6", Seven: "7",
	Eight: "8", Nine: "9", Ten: "X", Jack: "J", Queen: "Q", King: "K",
}

var letterRank = map[byte]Rank{
	'3': Three, '4': Four, '5': Five, '6': Six, '7': Seven,
	'8': Eight, '9': Nine, 'X': Ten, 'J': Jack, 'Q': Queen, 'K': King,
}

func (r Rank) String() string {
	return rankLetter[r]
}

// JokerCode is the wire token for a joker.
const JokerCode = "JK"

// Card is either a (suit, rank) pair or a joker. Equality is structural, so
// the two copies of every card in the double deck compare equal.
type Card struct {
	Suit  Suit `json:"suit"`
	Rank  Rank `json:"rank"`
	Joker bool `json:"joker,omitempty"`
}

// WildRank returns the rank that is wild in the given round: 3s in round 1
// up through Kings in round 11.
func WildRank(round int) Rank {
	return Rank(round + 2)
}

// IsWild reports whether the card is wild in the given round. Wildness is
// always evaluated against the current round, never stored.
func (c Card) IsWild(round int) bool {
	return c.Joker || c.Rank == WildRank(round)
}

// PointValue is the card's score against a player left holding it when a
// round ends. Jokers cost 50, the round's wild rank 20, naturals their face
// value (J=11, Q=12, K=13).
func (c Card) PointValue(round int) int {
	if c.Joker {
		return 50
	}
	if c.Rank == WildRank(round) {
		return 20
	}
	return int(c.Rank)
}

// Code renders the two-character wire encoding: suit letter plus rank
// letter, e.g. "H7", "TX", or "JK" for a joker.
func (c Card) Code() string {
	if c.Joker {
		return JokerCode
	}
	return suitLetter[c.Suit] + rankLetter[c.Rank]
}

func (c Card) String() string {
	return c.Code()
}

// ParseCard decodes the two-character wire encoding produced by Code.
func ParseCard(code string) (Card, error) {
	if code == JokerCode {
		return Card{Joker: true}, nil
	}
	if len(code) != 2 {
		return Card{}, fmt.Errorf("invalid card code %q", code)
	}
	suit, ok := letterSuit[code[0]]
	if !ok {
		return Card{}, fmt.Errorf("invalid suit in card code %q", code)
	}
	rank, ok := letterRank[code[1]]
	if !ok {
		return Card{}, fmt.Errorf("invalid rank in card code %q", code)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// ParseCards decodes a slice of wire codes, failing on the first bad one.
func ParseCards(codes []string) ([]Card, error) {
	cards := make([]Card, 0, len(codes))
	for _, code := range codes {
		c, err := ParseCard(code)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// CardCodes encodes a slice of cards to wire codes.
func CardCodes(cards []Card) []string {
	codes := make([]string, len(cards))
	for i, c := range cards {
		codes[i] = c.Code()
	}
	return codes
}
