package entity

import "time"

const (
	MatchOngoing   = "ongoing"
	MatchFinished  = "finished"
	MatchAbandoned = "abandoned"
)

// Match - relay-side record of one pairing. The relay never sees the board,
// only the traffic it forwards.
type Match struct {
	ID        string    `json:"id"`
	Players   []Player  `json:"players"`
	Status    string    `json:"status"`
	Winner    Colour    `json:"winner,omitempty"`
	Plies     int       `json:"plies"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

func NewMatch(id string, players []Player, now time.Time) *Match {
	return &Match{
		ID:        id,
		Players:   players,
		Status:    MatchOngoing,
		StartedAt: now,
	}
}

func (that *Match) IsOngoing() bool {
	return that.Status == MatchOngoing
}

func (that *Match) Finish(winner Colour, now time.Time) {
	that.Status = MatchFinished
	that.Winner = winner
	that.EndedAt = now
}

func (that *Match) Abandon(now time.Time) {
	if !that.IsOngoing() {
		return
	}
	that.Status = MatchAbandoned
	that.EndedAt = now
}
