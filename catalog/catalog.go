// catalog/catalog.go
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wfunc/partycards/models"
)

// Load 读取 JSON 卡牌目录文件
func Load(path string) (models.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a catalog: a JSON array of packs with "name", "black" and "white".
// Cards without a pack inherit the pack name, and exact (text, pack) duplicates
// are dropped so that every card in a session has a distinct identity.
func Decode(r io.Reader) (models.Catalog, error) {
	var packs models.Catalog
	if err := json.NewDecoder(r).Decode(&packs); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	// 回答卡和题目卡是两个独立的牌堆，分别去重
	seenWhite := make(map[models.Card]bool)
	seenBlack := make(map[models.Card]bool)
	normalize := func(name string, cards []models.Card, seen map[models.Card]bool) []models.Card {
		out := make([]models.Card, 0, len(cards))
		for _, c := range cards {
			if c.Pack == "" {
				c.Pack = name
			}
			if c.Text == "" || seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
		return out
	}

	for i := range packs {
		packs[i].White = normalize(packs[i].Name, packs[i].White, seenWhite)
		packs[i].Black = normalize(packs[i].Name, packs[i].Black, seenBlack)
	}
	return packs, nil
}

// Stats 返回回答卡和题目卡的总数
func Stats(c models.Catalog) (white, black int) {
	for _, p := range c {
		white += len(p.White)
		black += len(p.Black)
	}
	return white, black
}
