package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// cards is a test helper that decodes wire codes, failing the test on typos.
func cards(t *testing.T, codes ...string) []models.Card {
	t.Helper()
	cs, err := models.ParseCards(codes)
	require.NoError(t, err)
	return cs
}

func TestIsValidRunBasics(t *testing.T) {
	assert.False(t, IsValidRun(cards(t, "H4", "H5"), 1), "runs need three cards")
	assert.True(t, IsValidRun(cards(t, "H4", "H5", "H6"), 1))
	assert.False(t, IsValidRun(cards(t, "H4", "H5", "S6"), 1), "mixed suits")
	assert.False(t, IsValidRun(cards(t, "H4", "H4", "H5"), 1), "duplicate natural rank")
}

func TestIsValidRunWildGaps(t *testing.T) {
	// Round 5: 7s wild. Naturals {4,8} leave gaps 5,6,7 = 3; the H7 counts
	// as a wild, never as the natural 7, so two wilds cannot cover three
	// gaps.
	assert.False(t, IsValidRun(cards(t, "H4", "H7", "JK", "H8"), 5))
	// Adding the 5 shrinks the gap to {6,7} = 2, covered by two wilds.
	assert.True(t, IsValidRun(cards(t, "H4", "H5", "H7", "JK", "H8"), 5))
}

func TestIsValidRunTrailingWilds(t *testing.T) {
	// Surplus wilds extend the run beyond its natural ends.
	assert.True(t, IsValidRun(cards(t, "H4", "H5", "H6", "JK"), 1))
	assert.True(t, IsValidRun(cards(t, "JK", "JK", "JK"), 4), "all-wild run")
}

func TestIsValidBook(t *testing.T) {
	assert.True(t, IsValidBook(cards(t, "HQ", "HQ", "SQ"), 1), "duplicate suits legal with two decks")
	assert.False(t, IsValidBook(cards(t, "HQ", "SQ"), 1), "books need three cards")
	assert.False(t, IsValidBook(cards(t, "HQ", "SQ", "SJ"), 1), "mixed ranks")
	assert.True(t, IsValidBook(cards(t, "HQ", "SQ", "JK", "DQ", "CQ", "TQ"), 1), "no upper bound")
	assert.True(t, IsValidBook(cards(t, "JK", "C3", "JK"), 1), "all wild in round 1")
}

func TestRunAndBookOverlapOnlyWhenNaturalsDegenerate(t *testing.T) {
	// A set can be both run and book only with zero or one natural.
	both := cards(t, "H9", "JK", "JK")
	assert.True(t, IsValidRun(both, 1))
	assert.True(t, IsValidBook(both, 1))

	run := cards(t, "H4", "H5", "H6")
	assert.True(t, IsValidRun(run, 1))
	assert.False(t, IsValidBook(run, 1))
}

func TestMeldTypeOfPrefersRun(t *testing.T) {
	typ, ok := MeldTypeOf(cards(t, "H4", "H5", "H6"), 1)
	require.True(t, ok)
	assert.Equal(t, models.MeldRun, typ)

	typ, ok = MeldTypeOf(cards(t, "HQ", "SQ", "DQ"), 1)
	require.True(t, ok)
	assert.Equal(t, models.MeldBook, typ)

	_, ok = MeldTypeOf(cards(t, "H4", "S9", "DQ"), 1)
	assert.False(t, ok)
}

func TestCanExtendMeld(t *testing.T) {
	run := models.Meld{Type: models.MeldRun, Cards: cards(t, "H4", "H5", "H6")}
	assert.True(t, CanExtendMeld(run, cards(t, "H7"), 1))
	assert.True(t, CanExtendMeld(run, cards(t, "H3"), 2), "extend below when 3 is natural")
	assert.False(t, CanExtendMeld(run, cards(t, "S7"), 1), "wrong suit")
	assert.False(t, CanExtendMeld(run, cards(t, "H4"), 1), "duplicate rank")

	book := models.Meld{Type: models.MeldBook, Cards: cards(t, "HQ", "SQ", "DQ")}
	assert.True(t, CanExtendMeld(book, cards(t, "TQ", "JK"), 1))
	assert.False(t, CanExtendMeld(book, cards(t, "TJ"), 1))
}

// Extension implies the combined set re-validates under the original type.
func TestCanExtendMeldImpliesValid(t *testing.T) {
	existing := models.Meld{Type: models.MeldRun, Cards: cards(t, "S5", "S6", "S7")}
	add := cards(t, "JK", "S9")
	round := 1
	require.True(t, CanExtendMeld(existing, add, round))
	combined := append(append([]models.Card{}, existing.Cards...), add...)
	assert.True(t, ValidateMeld(models.Meld{Type: existing.Type, Cards: combined}, round))
}

func TestCanGoOut(t *testing.T) {
	hand := cards(t, "H4", "H5", "H6", "C8")
	melds := []models.Meld{{Type: models.MeldRun, Cards: cards(t, "H4", "H5", "H6")}}
	discard := cards(t, "C8")[0]

	assert.True(t, CanGoOut(hand, melds, discard, 1))

	// One extra card in hand breaks the exact decomposition.
	bigger := append(append([]models.Card{}, hand...), cards(t, "C9")...)
	assert.False(t, CanGoOut(bigger, melds, discard, 1))

	// Discarding a card not left over breaks the multiset subtraction.
	assert.False(t, CanGoOut(hand, melds, cards(t, "H4")[0], 1))

	// Invalid meld is rejected outright.
	bad := []models.Meld{{Type: models.MeldRun, Cards: cards(t, "H4", "H5", "S6")}}
	assert.False(t, CanGoOut(hand, bad, discard, 1))
}

func TestRemoveCardsMultiset(t *testing.T) {
	// Two copies of the same card must be consumed independently.
	hand := cards(t, "HQ", "HQ", "SQ")
	rest, ok := removeCards(hand, cards(t, "HQ"))
	require.True(t, ok)
	assert.Len(t, rest, 2)
	assert.Contains(t, rest, cards(t, "HQ")[0])

	_, ok = removeCards(rest, cards(t, "HQ", "HQ"))
	assert.False(t, ok)
}

func TestArrangeRunCanonicalOrder(t *testing.T) {
	// Naturals ascend and the joker lands in the 6-slot it fills.
	arranged := arrangeRun(cards(t, "H7", "JK", "H5", "H4"), 1)
	require.Len(t, arranged, 4)
	assert.Equal(t, "H4", arranged[0].Code())
	assert.Equal(t, "H5", arranged[1].Code())
	assert.Equal(t, "JK", arranged[2].Code())
	assert.Equal(t, "H7", arranged[3].Code())

	// Surplus wilds trail past the last natural.
	trailing := arrangeRun(cards(t, "JK", "H4", "H5", "H6"), 1)
	require.Len(t, trailing, 4)
	assert.Equal(t, "JK", trailing[3].Code())
}
