package game

import (
	"embed"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/wfunc/party-game/internal/errors"
)

//go:embed data/*.json
var defaultCardData embed.FS

// LoadDefaultDecks 加载内置牌堆
func LoadDefaultDecks() (map[Category][]Card, error) {
	sub, err := fs.Sub(defaultCardData, "data")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCardDataInvalid)
	}
	return LoadDecks(sub)
}

// LoadDecksFromDir 从目录加载牌堆，目录为空时使用内置牌堆
func LoadDecksFromDir(dir string) (map[Category][]Card, error) {
	if dir == "" {
		return LoadDefaultDecks()
	}
	return LoadDecks(os.DirFS(dir))
}

// LoadDecks 从文件系统读取 <category>.json，缺失的类别为空牌堆
func LoadDecks(fsys fs.FS) (map[Category][]Card, error) {
	decks := emptyDecks()
	seen := make(map[string]struct{})

	for _, category := range Categories {
		name := string(category) + ".json"
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.Wrapf(err, errors.ErrCardDataInvalid, "读取 %s 失败", name)
		}

		var cards []Card
		if err := json.Unmarshal(data, &cards); err != nil {
			return nil, errors.Wrapf(err, errors.ErrCardDataInvalid, "解析 %s 失败", name)
		}

		for i := range cards {
			if cards[i].Phase == "" {
				cards[i].Phase = category
			}
			if err := validateCard(cards[i], category); err != nil {
				return nil, err
			}
			if _, dup := seen[cards[i].ID]; dup {
				return nil, errors.Newf(errors.ErrCardDataInvalid, "卡牌ID重复: %s", cards[i].ID)
			}
			seen[cards[i].ID] = struct{}{}
		}
		decks[category] = cards
	}

	return decks, nil
}

func validateCard(card Card, category Category) error {
	switch {
	case card.ID == "":
		return errors.New(errors.ErrCardDataInvalid, "卡牌缺少ID")
	case card.Title == "":
		return errors.Newf(errors.ErrCardDataInvalid, "卡牌 %s 缺少标题", card.ID)
	case card.Phase != category:
		return errors.Newf(errors.ErrCardDataInvalid, "卡牌 %s 阶段 %s 与牌堆 %s 不符", card.ID, card.Phase, category)
	case !card.Difficulty.Valid():
		return errors.Newf(errors.ErrCardDataInvalid, "卡牌 %s 难度无效: %s", card.ID, card.Difficulty)
	case card.IsWildcard && !card.Effect.Valid():
		return errors.Newf(errors.ErrCardDataInvalid, "万能牌 %s 效果无效: %s", card.ID, card.Effect)
	case !card.IsWildcard && card.Effect != "":
		return errors.Newf(errors.ErrCardDataInvalid, "普通卡牌 %s 不能带效果", card.ID)
	case card.EffectDuration < 0:
		return errors.Newf(errors.ErrCardDataInvalid, "卡牌 %s 持续张数为负", card.ID)
	}
	return nil
}
