// services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/wfunc/partycards/deck"
	"github.com/wfunc/partycards/persistence"
	"github.com/wfunc/partycards/state"
)

// Code 机器可读的错误码，随错误信息一起返回给客户端
type Code string

const (
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeNotFound          Code = "NOT_FOUND"
	CodePlayerNotFound    Code = "PLAYER_NOT_FOUND"
	CodeCardNotInHand     Code = "CARD_NOT_IN_HAND"
	CodeCardNotInPool     Code = "CARD_NOT_IN_POOL"
	CodeRoundIncomplete   Code = "ROUND_INCOMPLETE"
	CodeInsufficientCards Code = "INSUFFICIENT_CARDS"
	CodeEmptyDeck         Code = "EMPTY_DECK"
	CodeInternal          Code = "INTERNAL"
)

var codes = []struct {
	err  error
	code Code
}{
	{state.ErrInvalidInput, CodeInvalidInput},
	{persistence.ErrRecordNotFound, CodeNotFound},
	{state.ErrPlayerNotFound, CodePlayerNotFound},
	{state.ErrCardNotInHand, CodeCardNotInHand},
	{state.ErrCardNotInPool, CodeCardNotInPool},
	{state.ErrRoundIncomplete, CodeRoundIncomplete},
	{deck.ErrInsufficientCards, CodeInsufficientCards},
	{deck.ErrEmptyDeck, CodeEmptyDeck},
}

// CodeOf maps an error to its code. Unknown errors are CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// IsValidation reports whether err is a caller mistake rather than a server fault.
func IsValidation(err error) bool {
	code := CodeOf(err)
	return code != "" && code != CodeInternal && code != CodeNotFound
}

func missingGameID() error {
	return fmt.Errorf("%w: game id is required", state.ErrInvalidInput)
}
