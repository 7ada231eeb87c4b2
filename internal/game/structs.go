package game

import "github.com/rocketscienceinc/chess-relay/internal/entity"

// Status of a session.
type Status string

const (
	StatusAwaitingStart Status = "awaiting_start"
	StatusActive        Status = "active"
	StatusTerminated    Status = "terminated"
)

// OutcomeKind tells the caller which branch a move went through.
type OutcomeKind int

const (
	Moved OutcomeKind = iota + 1
	Castled
	PromotionPending
	Checkmate
)

func (that OutcomeKind) String() string {
	switch that {
	case Moved:
		return "moved"
	case Castled:
		return "castled"
	case PromotionPending:
		return "promotion_pending"
	case Checkmate:
		return "checkmate"
	default:
		return "unknown"
	}
}

// Outcome - result of ApplyMove.
type Outcome struct {
	Kind  OutcomeKind
	Actor entity.Colour
	Move  entity.Move
	// Piece is the mover as it was before the move.
	Piece entity.Piece
	// Captured is nil when the destination was empty or the move was a castle.
	Captured *entity.Piece
	Winner   entity.Colour
}

// PlaceAction of a PLACE message.
type PlaceAction int32

const (
	Remove PlaceAction = 0
	Add    PlaceAction = 1
)

// Placement - piece materialization, used for promotions.
type Placement struct {
	Action PlaceAction
	Kind   entity.Kind
	Pos    entity.Position
}

// View - read-only state handed to renderers.
type View struct {
	Board    [entity.BoardSize][entity.BoardSize]entity.Piece `json:"board"`
	Colour   entity.Colour                                    `json:"colour"`
	Turn     entity.Colour                                    `json:"turn"`
	Status   Status                                           `json:"status"`
	Winner   entity.Colour                                    `json:"winner,omitempty"`
	Plies    int                                              `json:"plies"`
	Captured []entity.Piece                                   `json:"captured"`
	Floating *entity.Position                                 `json:"floating,omitempty"`
	Pending  *entity.Position                                 `json:"pending,omitempty"`
}

type promotion struct {
	pos    entity.Position
	colour entity.Colour
}
