package state

import (
	"errors"
)

// 状态机的校验错误。调用方用 errors.Is 判断类型。
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrCardNotInHand   = errors.New("card not found in player hand")
	ErrCardNotInPool   = errors.New("winning card not found in round pool")
	ErrRoundIncomplete = errors.New("not all players have played a card")
)
