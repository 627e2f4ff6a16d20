// internal/models/meld.go
package models

// MeldType distinguishes runs (one suit, consecutive ranks) from books (one
// rank, any suits).
type MeldType string

const (
	MeldRun  MeldType = "run"
	MeldBook MeldType = "book"
)

// Meld is an immutable laid-down combination. Run cards are stored
// value-ascending with wilds in their gap positions; book order is
// irrelevant.
type Meld struct {
	Type  MeldType `json:"type"`
	Cards []Card   `json:"cards"`
}

// WireMeld is the socket/persistence representation of a meld, with cards
// as two-character codes.
type WireMeld struct {
	Type  MeldType `json:"type"`
	Cards []string `json:"cards"`
}

// ToWire converts a meld to its wire representation.
func (m Meld) ToWire() WireMeld {
	return WireMeld{Type: m.Type, Cards: CardCodes(m.Cards)}
}

// FromWire decodes a wire meld back into card values.
func (w WireMeld) FromWire() (Meld, error) {
	cards, err := ParseCards(w.Cards)
	if err != nil {
		return Meld{}, err
	}
	return Meld{Type: w.Type, Cards: cards}, nil
}

// MeldsToWire converts a slice of melds for broadcast or persistence.
func MeldsToWire(melds []Meld) []WireMeld {
	out := make([]WireMeld, len(melds))
	for i, m := range melds {
		out[i] = m.ToWire()
	}
	return out
}

// MeldsFromWire decodes a slice of wire melds.
func MeldsFromWire(wire []WireMeld) ([]Meld, error) {
	out := make([]Meld, 0, len(wire))
	for _, w := range wire {
		m, err := w.FromWire()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
