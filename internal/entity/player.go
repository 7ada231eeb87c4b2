package entity

// Player - one side of a session. Side orients pawns: the local player is
// always drawn nearest to itself and plays with side +1.
type Player struct {
	ID   int32  `json:"id"`
	Side int    `json:"side"`
	Addr string `json:"addr,omitempty"`
}

func (that Player) Colour() Colour {
	return Colour(that.ID)
}
