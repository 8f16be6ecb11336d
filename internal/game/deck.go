package game

import (
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/wfunc/party-game/internal/errors"
)

// RandomGenerator 随机数生成器接口
type RandomGenerator interface {
	// NextInt 返回 [min, max) 区间内均匀分布的整数
	NextInt(min, max int) int
}

// CryptoRandomGenerator 加密安全的随机数生成器
type CryptoRandomGenerator struct {
	mu sync.Mutex
}

// NewCryptoRandomGenerator 创建加密随机数生成器
func NewCryptoRandomGenerator() *CryptoRandomGenerator {
	return &CryptoRandomGenerator{}
}

// NextInt 生成指定范围内的随机整数
func (g *CryptoRandomGenerator) NextInt(min, max int) int {
	if min >= max {
		return min
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	n, err := rand.Int(rand.Reader, big.NewInt(int64(max-min)))
	if err != nil {
		return min
	}
	return min + int(n.Int64())
}

// Shuffle 返回打乱顺序后的新切片（Fisher-Yates），不修改输入
func Shuffle(cards []Card, rng RandomGenerator) []Card {
	shuffled := append([]Card{}, cards...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.NextInt(0, i+1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// Draw 从牌堆中随机抽出一张（不放回），返回抽到的牌和剩余牌堆
func Draw(deck []Card, rng RandomGenerator) (Card, []Card, error) {
	if len(deck) == 0 {
		return Card{}, nil, errors.New(errors.ErrEmptyDeck)
	}

	idx := rng.NextInt(0, len(deck))
	card := deck[idx]

	remaining := make([]Card, 0, len(deck)-1)
	remaining = append(remaining, deck[:idx]...)
	remaining = append(remaining, deck[idx+1:]...)

	return card, remaining, nil
}

// ShuffleDecks 打乱每个类别的牌堆
func ShuffleDecks(decks map[Category][]Card, rng RandomGenerator) map[Category][]Card {
	out := make(map[Category][]Card, len(Categories))
	for _, c := range Categories {
		out[c] = Shuffle(decks[c], rng)
	}
	return out
}
