package repository

import (
	"time"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/entity"
)

// EvictionPolicy decides which matches a sweep removes. Expired is called with the match locked.
type EvictionPolicy interface {
	Expired(match *entity.Match, now time.Time) bool
	String() string
}

// NeverEvict keeps every match for the lifetime of the process.
type NeverEvict struct{}

func (NeverEvict) Expired(*entity.Match, time.Time) bool {
	return false
}

func (NeverEvict) String() string {
	return "never"
}

// IdleTTL evicts a match once it has not changed for longer than TTL.
type IdleTTL struct {
	TTL time.Duration
}

func (that IdleTTL) Expired(match *entity.Match, now time.Time) bool {
	return now.Sub(match.UpdatedAt()) > that.TTL
}

func (that IdleTTL) String() string {
	return "idle-ttl " + that.TTL.String()
}

// PolicyFor - NeverEvict for a non-positive ttl, IdleTTL otherwise.
func PolicyFor(ttl time.Duration) EvictionPolicy {
	if ttl <= 0 {
		return NeverEvict{}
	}

	return IdleTTL{TTL: ttl}
}
