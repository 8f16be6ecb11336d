package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/party-game/internal/errors"
)

func TestCryptoRandomGenerator_NextInt(t *testing.T) {
	rng := NewCryptoRandomGenerator()

	for i := 0; i < 200; i++ {
		v := rng.NextInt(3, 7)
		assert.GreaterOrEqual(t, v, 3)
		assert.Less(t, v, 7)
	}
	assert.Equal(t, 5, rng.NextInt(5, 5))
}

func TestShuffle(t *testing.T) {
	cards := normalCards(CategoryMind, 5)
	original := append([]Card{}, cards...)

	// 每一步都与 0 交换
	shuffled := Shuffle(cards, &sequenceRNG{values: []int{0, 0, 0, 0}})

	assert.Equal(t, original, cards, "输入不被修改")
	assert.ElementsMatch(t, cards, shuffled)
	assert.Equal(t, cards[1].ID, shuffled[0].ID)
}

func TestShuffle_KeepsAllCards(t *testing.T) {
	cards := normalCards(CategoryBody, 20)
	shuffled := Shuffle(cards, NewCryptoRandomGenerator())
	assert.ElementsMatch(t, cards, shuffled)
}

func TestDraw(t *testing.T) {
	deck := normalCards(CategorySpirit, 3)

	card, remaining, err := Draw(deck, &sequenceRNG{values: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, deck[1], card)
	assert.Equal(t, []Card{deck[0], deck[2]}, remaining)
	assert.Len(t, deck, 3)
}

func TestDraw_DrainsDeck(t *testing.T) {
	deck := normalCards(CategoryHorror, 4)
	rng := NewCryptoRandomGenerator()

	seen := map[string]bool{}
	for len(deck) > 0 {
		card, rest, err := Draw(deck, rng)
		require.NoError(t, err)
		assert.False(t, seen[card.ID], "同一张牌不会抽到两次")
		seen[card.ID] = true
		deck = rest
	}
	assert.Len(t, seen, 4)
}

func TestDraw_EmptyDeck(t *testing.T) {
	_, _, err := Draw(nil, NewCryptoRandomGenerator())
	assert.True(t, errors.Is(err, errors.ErrEmptyDeck))
}

func TestShuffleDecks(t *testing.T) {
	decks := map[Category][]Card{CategoryMind: normalCards(CategoryMind, 3)}

	out := ShuffleDecks(decks, &sequenceRNG{})
	for _, c := range Categories {
		assert.NotNil(t, out[c], c)
	}
	assert.ElementsMatch(t, decks[CategoryMind], out[CategoryMind])
	assert.Empty(t, out[CategoryBody])
}
