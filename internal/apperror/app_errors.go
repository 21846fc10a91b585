package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchFull         = errors.New("match is already full")
	ErrDuplicatePlayer   = errors.New("player already joined the match")
	ErrOpponentNotJoined = errors.New("opponent has not joined yet")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrMatchEnded        = errors.New("match is already ended")
	ErrAlreadyMarked     = errors.New("cell is already marked")
	ErrInvalidCell       = errors.New("invalid cell position")
)

// Kind is the error class reported to clients in the error event.
type Kind string

const (
	KindMatchNotFound     Kind = "MatchNotFound"
	KindMatchFull         Kind = "MatchFull"
	KindDuplicatePlayer   Kind = "DuplicatePlayer"
	KindOpponentNotJoined Kind = "OpponentNotJoined"
	KindNotYourTurn       Kind = "NotYourTurn"
	KindMatchEnded        Kind = "MatchEnded"
	KindAlreadyMarked     Kind = "AlreadyMarked"
	KindBadRequest        Kind = "BadRequest"
	KindInternal          Kind = "Internal"
)

var kinds = []struct {
	err     error
	kind    Kind
	message string
}{
	{ErrMatchNotFound, KindMatchNotFound, "Match not found."},
	{ErrMatchFull, KindMatchFull, "Match is already full."},
	{ErrDuplicatePlayer, KindDuplicatePlayer, "You have already joined this match."},
	{ErrOpponentNotJoined, KindOpponentNotJoined, "Please wait for your opponent to join."},
	{ErrNotYourTurn, KindNotYourTurn, "Please wait for your turn."},
	{ErrMatchEnded, KindMatchEnded, "Match is already ended."},
	{ErrAlreadyMarked, KindAlreadyMarked, "This entry is already marked. Choose another location."},
	{ErrInvalidCell, KindBadRequest, "Cell position is out of range."},
}

// KindOf - returns the wire kind for err, or KindInternal if err is not a known game error.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}

	return KindInternal
}

// Messages - returns the user-facing messages for err.
func Messages(err error) []string {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return []string{notFound.Error() + "."}
	}

	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return []string{k.message}
		}
	}

	return []string{"Internal server error."}
}

// MatchNotFound - wraps ErrMatchNotFound with the id that missed.
func MatchNotFound(id string) error {
	return &NotFoundError{MatchID: id}
}

type NotFoundError struct {
	MatchID string
}

func (that *NotFoundError) Error() string {
	return fmt.Sprintf("Match %s not found", that.MatchID)
}

func (that *NotFoundError) Unwrap() error {
	return ErrMatchNotFound
}
