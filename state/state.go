package state

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/wfunc/partycards/deck"
	"github.com/wfunc/partycards/models"
)

// HandSize is the number of response cards dealt to each player.
const HandSize = 7

// Machine 游戏会话状态机。
//
// 所有操作都是写时复制：输入的快照不会被修改，成功时返回新的快照，
// 失败时不产生任何变化。同一局游戏的操作需要由调用方串行化。
type Machine struct {
	dealer *deck.Dealer
	newID  func() string
}

// Option configures a Machine.
type Option func(*Machine)

// WithIDGenerator replaces the uuid-based game id generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Machine) {
		m.newID = fn
	}
}

func NewMachine(dealer *deck.Dealer, opts ...Option) *Machine {
	m := &Machine{
		dealer: dealer,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create builds and shuffles fresh decks, draws the first prompt and deals a
// hand to every player in order.
func (m *Machine) Create(players []string, catalog models.Catalog) (*models.GameSession, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: players array is required and cannot be empty", ErrInvalidInput)
	}
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if p == "" {
			return nil, fmt.Errorf("%w: player id cannot be empty", ErrInvalidInput)
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: duplicate player %q", ErrInvalidInput, p)
		}
		seen[p] = true
	}

	response, prompt := deck.BuildDecks(catalog)
	m.dealer.Shuffle(response)
	m.dealer.Shuffle(prompt)

	current, prompt, err := deck.DrawPrompt(prompt)
	if err != nil {
		return nil, fmt.Errorf("draw first prompt: %w", err)
	}

	g := &models.GameSession{
		GameID:        m.newID(),
		PromptDeck:    prompt,
		CurrentPrompt: &current,
		Players:       make([]models.PlayerEntry, 0, len(players)),
		RoundPool:     []models.RoundEntry{},
	}

	for _, p := range players {
		var hand []models.Card
		hand, response, err = deck.Deal(response, HandSize)
		if err != nil {
			return nil, fmt.Errorf("deal to %q: %w", p, err)
		}
		g.Players = append(g.Players, models.PlayerEntry{
			Player:      p,
			Hand:        hand,
			WinningPile: []models.Card{},
		})
	}
	g.ResponseDeck = response

	return g, nil
}

// AddPlayer 新玩家加入：先把剩余牌堆重新洗一次，再从顶部发一手牌
func (m *Machine) AddPlayer(g *models.GameSession, player string) (*models.GameSession, error) {
	if err := checkSession(g); err != nil {
		return nil, err
	}
	if player == "" {
		return nil, fmt.Errorf("%w: player is required", ErrInvalidInput)
	}
	if g.Phase() == models.PhaseExhausted {
		return nil, fmt.Errorf("%w: game %s has no active prompt", ErrInvalidInput, g.GameID)
	}
	if _, exists := g.Player(player); exists {
		return nil, fmt.Errorf("%w: player %q already joined", ErrInvalidInput, player)
	}

	next := g.Clone()
	if len(next.ResponseDeck) > 0 {
		m.dealer.Shuffle(next.ResponseDeck)
	}

	hand, rest, err := deck.Deal(next.ResponseDeck, HandSize)
	if err != nil {
		return nil, fmt.Errorf("deal to %q: %w", player, err)
	}
	next.ResponseDeck = rest
	next.Players = append(next.Players, models.PlayerEntry{
		Player:      player,
		Hand:        hand,
		WinningPile: []models.Card{},
	})

	return next, nil
}

// SubmitCard moves one matching card from the player's hand into the round pool.
// A player may submit only once per round.
func (m *Machine) SubmitCard(g *models.GameSession, player string, card models.Card) (*models.GameSession, error) {
	if err := checkSession(g); err != nil {
		return nil, err
	}
	if player == "" || card.Text == "" {
		return nil, fmt.Errorf("%w: player and card are required", ErrInvalidInput)
	}
	if g.Phase() == models.PhaseExhausted {
		return nil, fmt.Errorf("%w: game %s has no active prompt", ErrInvalidInput, g.GameID)
	}

	entry, ok := g.Player(player)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPlayerNotFound, player)
	}
	if g.HasSubmitted(player) {
		return nil, fmt.Errorf("%w: player %q already played this round", ErrInvalidInput, player)
	}
	idx := models.IndexOf(entry.Hand, card)
	if idx == -1 {
		return nil, fmt.Errorf("%w: %q (%s) for player %q", ErrCardNotInHand, card.Text, card.Pack, player)
	}

	next := g.Clone()
	p, _ := next.Player(player)
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	next.RoundPool = append(next.RoundPool, models.RoundEntry{Player: player, Card: card})

	return next, nil
}

// JudgeRound 评判本轮：获胜的牌进入出牌者的赢牌堆，其余牌放回回答牌堆底部，
// 清空牌池并抽取下一张题目卡。题目卡用完时 CurrentPrompt 为 nil。
func (m *Machine) JudgeRound(g *models.GameSession, winningCard models.Card) (*models.GameSession, error) {
	if err := checkSession(g); err != nil {
		return nil, err
	}
	if winningCard.Text == "" {
		return nil, fmt.Errorf("%w: winning card is required", ErrInvalidInput)
	}
	if g.Phase() == models.PhaseExhausted {
		return nil, fmt.Errorf("%w: game %s has no active prompt", ErrInvalidInput, g.GameID)
	}
	if len(g.RoundPool) != len(g.Players) {
		return nil, fmt.Errorf("%w: %d of %d played", ErrRoundIncomplete, len(g.RoundPool), len(g.Players))
	}

	won := -1
	for i, e := range g.RoundPool {
		if e.Card == winningCard {
			won = i
			break
		}
	}
	if won == -1 {
		return nil, fmt.Errorf("%w: %q (%s)", ErrCardNotInPool, winningCard.Text, winningCard.Pack)
	}

	next := g.Clone()
	winner, ok := next.Player(next.RoundPool[won].Player)
	if !ok {
		return nil, fmt.Errorf("%w: winning player %q", ErrPlayerNotFound, next.RoundPool[won].Player)
	}
	winner.WinningPile = append(winner.WinningPile, winningCard)

	for i, e := range next.RoundPool {
		if i != won {
			next.ResponseDeck = append(next.ResponseDeck, e.Card)
		}
	}
	CleanupRound(next)

	if prompt, rest, err := deck.DrawPrompt(next.PromptDeck); err == nil {
		next.CurrentPrompt = &prompt
		next.PromptDeck = rest
	} else {
		next.CurrentPrompt = nil
	}

	return next, nil
}

// CleanupRound removes any pool card still left in its player's hand and then
// empties the pool. Running it on an empty pool does nothing.
func CleanupRound(g *models.GameSession) {
	for _, e := range g.RoundPool {
		p, ok := g.Player(e.Player)
		if !ok {
			continue
		}
		if idx := models.IndexOf(p.Hand, e.Card); idx != -1 {
			p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
		}
	}
	g.RoundPool = []models.RoundEntry{}
}

func checkSession(g *models.GameSession) error {
	if g == nil || g.GameID == "" {
		return fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	for i, p := range g.Players {
		if p.Player == "" {
			return fmt.Errorf("%w: players[%d] has no id", ErrInvalidInput, i)
		}
	}
	if len(g.RoundPool) > len(g.Players) {
		return fmt.Errorf("%w: round pool larger than player list", ErrInvalidInput)
	}
	return nil
}
