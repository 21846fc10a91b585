package entity

// Session pairs one live connection with the match it joined. It lives only as long as the connection.
type Session struct {
	ConnectionID string
	MatchID      string
	IsNew        bool
}

func (that Session) BelongsTo(matchID string) bool {
	return that.MatchID != "" && that.MatchID == matchID
}

// Slot - the symbol this connection plays in match, if it is seated there.
func (that Session) Slot(match *Match) (Mark, bool) {
	if !that.BelongsTo(match.ID()) {
		return Empty, false
	}

	for i, player := range match.players {
		if player != that.ConnectionID {
			continue
		}

		if i == 0 {
			return Cross, true
		}

		return Circle, true
	}

	return Empty, false
}
