// deck/deck.go
package deck

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/wfunc/partycards/models"
)

var (
	ErrInsufficientCards = errors.New("insufficient cards")
	ErrEmptyDeck         = errors.New("empty deck")
)

// Dealer 负责洗牌。随机源由调用方注入，测试时可以固定种子。
// 多局游戏共用一个 Dealer，rand.Rand 本身不是并发安全的，所以加锁。
type Dealer struct {
	rng   *rand.Rand
	mutex sync.Mutex
}

// NewDealer creates a dealer drawing randomness from src.
func NewDealer(src rand.Source) *Dealer {
	return &Dealer{rng: rand.New(src)}
}

// NewSeed returns a seed read from crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// BuildDecks 把所有卡包的回答卡和题目卡分别拼接成新的牌堆。
// 同一牌堆内 (text, pack) 重复的卡只保留第一张，一局游戏里每张卡的身份唯一。
func BuildDecks(catalog models.Catalog) (response, prompt []models.Card) {
	response = []models.Card{}
	prompt = []models.Card{}
	seenWhite := make(map[models.Card]bool)
	seenBlack := make(map[models.Card]bool)
	for _, pack := range catalog {
		response = appendUnique(response, seenWhite, pack.White)
		prompt = appendUnique(prompt, seenBlack, pack.Black)
	}
	return response, prompt
}

func appendUnique(dst []models.Card, seen map[models.Card]bool, cards []models.Card) []models.Card {
	for _, c := range cards {
		if seen[c] {
			continue
		}
		seen[c] = true
		dst = append(dst, c)
	}
	return dst
}

// Shuffle permutes cards in place (Fisher-Yates) and returns the same slice.
func (d *Dealer) Shuffle(cards []models.Card) []models.Card {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for i := len(cards) - 1; i > 0; i-- {
		j := d.rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	return cards
}

// Deal 从牌堆顶部（前端）取 count 张牌
func Deal(deck []models.Card, count int) (dealt, rest []models.Card, err error) {
	if count < 0 || count > len(deck) {
		return nil, deck, fmt.Errorf("%w: want %d, deck has %d", ErrInsufficientCards, count, len(deck))
	}
	dealt = make([]models.Card, count)
	copy(dealt, deck[:count])
	rest = make([]models.Card, len(deck)-count)
	copy(rest, deck[count:])
	return dealt, rest, nil
}

// DrawPrompt pops the last card of the prompt deck.
func DrawPrompt(deck []models.Card) (models.Card, []models.Card, error) {
	if len(deck) == 0 {
		return models.Card{}, deck, ErrEmptyDeck
	}
	last := len(deck) - 1
	return deck[last], deck[:last:last], nil
}
