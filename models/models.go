// models/models.go
package models

// Card 是一张卡牌。身份由 (Text, Pack) 共同决定，没有单独的 ID。
type Card struct {
	Text string `json:"text"`
	Pack string `json:"pack"`
}

// Pack 卡包：一组题目卡(black)和回答卡(white)
type Pack struct {
	Name  string `json:"name"`
	Black []Card `json:"black"`
	White []Card `json:"white"`
}

// Catalog is the parsed card catalog. It is never mutated after loading.
type Catalog []Pack

// PlayerEntry 玩家在一局游戏中的状态
type PlayerEntry struct {
	Player      string `json:"player"`
	Hand        []Card `json:"hand"`
	WinningPile []Card `json:"winningPile"`
}

// RoundEntry 本轮提交的一张牌
type RoundEntry struct {
	Player string `json:"player"`
	Card   Card   `json:"card"`
}

// GameSession holds all mutable state for one game. JSON field names follow the
// web client protocol (deck / blackCardDeck / currentBlackCard).
type GameSession struct {
	GameID        string        `json:"gameId"`
	ResponseDeck  []Card        `json:"deck"`
	PromptDeck    []Card        `json:"blackCardDeck"`
	CurrentPrompt *Card         `json:"currentBlackCard"`
	Players       []PlayerEntry `json:"players"`
	RoundPool     []RoundEntry  `json:"roundPool"`
}

// Phase 游戏会话所处的阶段，由会话内容推导，不单独存储
type Phase string

const (
	PhaseCollecting Phase = "collecting" // 等待玩家出牌
	PhaseJudging    Phase = "judging"    // 所有玩家已出牌，等待评判
	PhaseExhausted  Phase = "exhausted"  // 题目卡已用完
)

// Phase derives the current phase from the snapshot.
func (g *GameSession) Phase() Phase {
	switch {
	case g.CurrentPrompt == nil:
		return PhaseExhausted
	case len(g.Players) > 0 && len(g.RoundPool) >= len(g.Players):
		return PhaseJudging
	default:
		return PhaseCollecting
	}
}

// Player 按ID查找玩家，返回可修改的指针
func (g *GameSession) Player(id string) (*PlayerEntry, bool) {
	for i := range g.Players {
		if g.Players[i].Player == id {
			return &g.Players[i], true
		}
	}
	return nil, false
}

// HasSubmitted reports whether player already has a card in the round pool.
func (g *GameSession) HasSubmitted(id string) bool {
	for _, e := range g.RoundPool {
		if e.Player == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy; the copy shares no slices with g.
func (g *GameSession) Clone() *GameSession {
	c := &GameSession{
		GameID:       g.GameID,
		ResponseDeck: cloneCards(g.ResponseDeck),
		PromptDeck:   cloneCards(g.PromptDeck),
		RoundPool:    append([]RoundEntry{}, g.RoundPool...),
		Players:      make([]PlayerEntry, len(g.Players)),
	}
	if g.CurrentPrompt != nil {
		p := *g.CurrentPrompt
		c.CurrentPrompt = &p
	}
	for i, p := range g.Players {
		c.Players[i] = PlayerEntry{
			Player:      p.Player,
			Hand:        cloneCards(p.Hand),
			WinningPile: cloneCards(p.WinningPile),
		}
	}
	return c
}

// ResponseCards 返回当前会话中所有回答卡（牌堆、手牌、赢牌堆、本轮牌池）
func (g *GameSession) ResponseCards() []Card {
	cards := append([]Card{}, g.ResponseDeck...)
	for _, p := range g.Players {
		cards = append(cards, p.Hand...)
		cards = append(cards, p.WinningPile...)
	}
	for _, e := range g.RoundPool {
		cards = append(cards, e.Card)
	}
	return cards
}

// Score 玩家得分
type Score struct {
	Player string `json:"player"`
	Points int    `json:"points"`
}

// Scores returns each player's winning-pile size in join order.
func (g *GameSession) Scores() []Score {
	scores := make([]Score, 0, len(g.Players))
	for _, p := range g.Players {
		scores = append(scores, Score{Player: p.Player, Points: len(p.WinningPile)})
	}
	return scores
}

// IndexOf returns the index of the first card equal to c, or -1.
func IndexOf(cards []Card, c Card) int {
	for i := range cards {
		if cards[i] == c {
			return i
		}
	}
	return -1
}

func cloneCards(cards []Card) []Card {
	// 保持非nil，JSON输出为 [] 而不是 null
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}
