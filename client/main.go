package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/partycards/logger"
	"github.com/wfunc/partycards/models"
	"github.com/wfunc/partycards/network"
)

type gameReply struct {
	GameID           string               `json:"gameId"`
	CurrentBlackCard *models.Card         `json:"currentBlackCard"`
	Players          []models.PlayerEntry `json:"players"`
	RoundPool        []models.RoundEntry  `json:"roundPool"`
	Phase            models.Phase         `json:"phase"`
}

type errorReply struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	MsgID uint16 `json:"msgId"`
}

// request sends one packet and waits for the reply on the same connection.
func request(c *websocket.Conn, msgID uint16, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	packet, err := network.Encode(msgID, data)
	if err != nil {
		return err
	}
	if err := c.WriteMessage(websocket.BinaryMessage, packet); err != nil {
		return err
	}

	c.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, message, err := c.ReadMessage()
	if err != nil {
		return err
	}
	p, err := network.Decode(message)
	if err != nil {
		return err
	}
	logger.Log.Debugf("<- RECV (ID: %d): %s", p.MsgID, p.Data)

	if p.MsgID == network.MsgTypeError {
		var e errorReply
		json.Unmarshal(p.Data, &e)
		return fmt.Errorf("%s: %s", e.Code, e.Error)
	}
	return json.Unmarshal(p.Data, out)
}

// 连上服务器，开一局，所有玩家各出一张牌，然后选第一张牌获胜
func main() {
	addr := flag.String("addr", "localhost:3100", "game server address")
	players := flag.String("players", "alice,bob,carol", "comma separated player ids")
	debug := flag.Bool("debug", false, "log raw packets")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	logger.Init(level, true)
	defer logger.Sync()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	logger.Log.Infof("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	var g gameReply
	if err := request(c, network.MsgTypeStartGame, map[string][]string{"players": strings.Split(*players, ",")}, &g); err != nil {
		logger.Log.Fatalf("Start game failed: %v", err)
	}
	logger.Log.Infof("Game %s started, prompt: %q", g.GameID, g.CurrentBlackCard.Text)

	for _, p := range g.Players {
		card := p.Hand[0]
		req := map[string]interface{}{"gameId": g.GameID, "player": p.Player, "card": card}
		var next gameReply
		if err := request(c, network.MsgTypePlayCard, req, &next); err != nil {
			logger.Log.Fatalf("Play card for %s failed: %v", p.Player, err)
		}
		logger.Log.Infof("%s played %q (%s)", p.Player, card.Text, next.Phase)
		g.RoundPool = next.RoundPool
	}

	winner := g.RoundPool[0]
	if err := request(c, network.MsgTypeJudge, map[string]interface{}{"gameId": g.GameID, "winningCard": winner.Card}, &g); err != nil {
		logger.Log.Fatalf("Judge failed: %v", err)
	}
	logger.Log.Infof("%s wins the round with %q", winner.Player, winner.Card.Text)

	var scores struct {
		Scores []models.Score `json:"scores"`
	}
	if err := request(c, network.MsgTypeScores, map[string]string{"gameId": g.GameID}, &scores); err != nil {
		logger.Log.Fatalf("Scores failed: %v", err)
	}
	for _, s := range scores.Scores {
		logger.Log.Infof("  %-10s %d", s.Player, s.Points)
	}

	err = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		logger.Log.Warnf("Write close error: %v", err)
	}
}
