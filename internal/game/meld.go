// internal/game/meld.go
//
// The meld validator. These pure predicates are the only semantic authority
// on what counts as a run, a book, an extension, or a going-out hand; every
// other component calls them and must not duplicate the logic.
package game

import (
	"sort"

	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// splitWilds partitions cards into naturals and wilds for the given round.
func splitWilds(cards []models.Card, round int) (naturals, wilds []models.Card) {
	for _, c := range cards {
		if c.IsWild(round) {
			wilds = append(wilds, c)
		} else {
			naturals = append(naturals, c)
		}
	}
	return naturals, wilds
}

// IsValidRun reports whether cards form a valid run in the given round:
// at least three cards, all naturals in one suit with distinct ranks, and
// enough wilds to fill every interior gap. Wilds never stand in for a rank
// already present among the naturals; surplus wilds extend the run at the
// ends. An all-wild set of three or more is a valid run.
func IsValidRun(cards []models.Card, round int) bool {
	if len(cards) < 3 {
		return false
	}
	naturals, wilds := splitWilds(cards, round)
	if len(naturals) == 0 {
		return true
	}
	suit := naturals[0].Suit
	for _, c := range naturals[1:] {
		if c.Suit != suit {
			return false
		}
	}
	sorted := make([]models.Card, len(naturals))
	copy(sorted, naturals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	gaps := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Rank == sorted[i-1].Rank {
			return false
		}
		gaps += int(sorted[i].Rank) - int(sorted[i-1].Rank) - 1
	}
	return len(wilds) >= gaps
}

// IsValidBook reports whether cards form a valid book in the given round:
// at least three cards whose naturals all share one rank. Duplicate suits
// are legal with two decks and there is no upper size bound.
func IsValidBook(cards []models.Card, round int) bool {
	if len(cards) < 3 {
		return false
	}
	naturals, _ := splitWilds(cards, round)
	if len(naturals) == 0 {
		return true
	}
	rank := naturals[0].Rank
	for _, c := range naturals[1:] {
		if c.Rank != rank {
			return false
		}
	}
	return true
}

// ValidateMeld checks a meld against its declared type. All-wild melds pass
// either predicate, so the declared type decides what they are.
func ValidateMeld(m models.Meld, round int) bool {
	switch m.Type {
	case models.MeldRun:
		return IsValidRun(m.Cards, round)
	case models.MeldBook:
		return IsValidBook(m.Cards, round)
	}
	return false
}

// MeldTypeOf classifies cards, trying run before book. The boolean is false
// when the cards form neither.
func MeldTypeOf(cards []models.Card, round int) (models.MeldType, bool) {
	if IsValidRun(cards, round) {
		return models.MeldRun, true
	}
	if IsValidBook(cards, round) {
		return models.MeldBook, true
	}
	return "", false
}

// CanExtendMeld reports whether appending newCards keeps the existing meld
// valid under its original type. Runs are re-sorted and gap counts
// recomputed; books just re-check rank equality.
func CanExtendMeld(existing models.Meld, newCards []models.Card, round int) bool {
	combined := make([]models.Card, 0, len(existing.Cards)+len(newCards))
	combined = append(combined, existing.Cards...)
	combined = append(combined, newCards...)
	return ValidateMeld(models.Meld{Type: existing.Type, Cards: combined}, round)
}

// CanGoOut reports whether the hand decomposes exactly into the proposed
// melds plus the single discard: sizes must match, every meld must be
// valid, and multiset-subtracting the meld cards then the discard from the
// hand must leave nothing.
func CanGoOut(hand []models.Card, melds []models.Meld, discard models.Card, round int) bool {
	total := 0
	for _, m := range melds {
		if !ValidateMeld(m, round) {
			return false
		}
		total += len(m.Cards)
	}
	if total+1 != len(hand) {
		return false
	}
	remaining := hand
	var ok bool
	for _, m := range melds {
		remaining, ok = removeCards(remaining, m.Cards)
		if !ok {
			return false
		}
	}
	remaining, ok = removeCards(remaining, []models.Card{discard})
	return ok && len(remaining) == 0
}

// removeCards multiset-subtracts cards from hand, returning the remainder.
// It fails without partial effect if any card is missing.
func removeCards(hand []models.Card, cards []models.Card) ([]models.Card, bool) {
	remaining := make([]models.Card, len(hand))
	copy(remaining, hand)
	for _, c := range cards {
		found := -1
		for i, h := range remaining {
			if h == c {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, false
		}
		remaining = append(remaining[:found], remaining[found+1:]...)
	}
	return remaining, true
}

// arrangeRun returns run cards in canonical stored order: naturals
// ascending by rank with wilds slotted into the gaps they fill, and any
// surplus wilds trailing. Books and all-wild runs keep their given order.
func arrangeRun(cards []models.Card, round int) []models.Card {
	naturals, wilds := splitWilds(cards, round)
	if len(naturals) == 0 {
		return cards
	}
	sort.Slice(naturals, func(i, j int) bool { return naturals[i].Rank < naturals[j].Rank })

	out := make([]models.Card, 0, len(cards))
	wi := 0
	for i, c := range naturals {
		if i > 0 {
			gap := int(c.Rank) - int(naturals[i-1].Rank) - 1
			for g := 0; g < gap && wi < len(wilds); g++ {
				out = append(out, wilds[wi])
				wi++
			}
		}
		out = append(out, c)
	}
	out = append(out, wilds[wi:]...)
	return out
}
