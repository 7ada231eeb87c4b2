package protocol

import (
	"fmt"

	"github.com/rocketscienceinc/chess-relay/internal/apperror"
	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/game"
	"github.com/rocketscienceinc/chess-relay/internal/validator"
)

// Type - message kind, the first byte of a frame.
type Type uint8

const (
	TypeStart     Type = 0
	TypeMove      Type = 1
	TypeCheckmate Type = 2
	TypeQuit      Type = 3
	TypePlace     Type = 4
)

// ServerID - sender of messages originated by the relay.
const ServerID int32 = 0

// payloadValues - number of int32 values each type carries.
var payloadValues = map[Type]int{
	TypeStart:     1,
	TypeMove:      4,
	TypeCheckmate: 1,
	TypeQuit:      1,
	TypePlace:     4,
}

func (that Type) String() string {
	switch that {
	case TypeStart:
		return "START"
	case TypeMove:
		return "MOVE"
	case TypeCheckmate:
		return "CHECKMATE"
	case TypeQuit:
		return "QUIT"
	case TypePlace:
		return "PLACE"
	default:
		return fmt.Sprintf("TYPE(%d)", uint8(that))
	}
}

func (that Type) Known() bool {
	_, ok := payloadValues[that]
	return ok
}

// Message - one frame of the relay protocol.
type Message struct {
	Type     Type
	SenderID int32
	Payload  []int32
}

func (that *Message) String() string {
	return fmt.Sprintf("%s from %d %v", that.Type, that.SenderID, that.Payload)
}

func NewStart(colour entity.Colour) *Message {
	return &Message{Type: TypeStart, SenderID: ServerID, Payload: []int32{int32(colour)}}
}

// NewMove - move in the sender's orientation.
func NewMove(sender entity.Colour, move entity.Move) *Message {
	ints := move.Ints()

	return &Message{
		Type:     TypeMove,
		SenderID: int32(sender),
		Payload:  []int32{int32(ints[0]), int32(ints[1]), int32(ints[2]), int32(ints[3])},
	}
}

func NewCheckmate(sender, winner entity.Colour) *Message {
	return &Message{Type: TypeCheckmate, SenderID: int32(sender), Payload: []int32{int32(winner)}}
}

// NewQuit - sent by the relay to the survivor when a player drops.
func NewQuit(departedID int32) *Message {
	return &Message{Type: TypeQuit, SenderID: ServerID, Payload: []int32{departedID}}
}

func NewPlace(sender entity.Colour, placement game.Placement) *Message {
	return &Message{
		Type:     TypePlace,
		SenderID: int32(sender),
		Payload: []int32{
			int32(placement.Action),
			placement.Kind.Code(),
			int32(placement.Pos.Row),
			int32(placement.Pos.Col),
		},
	}
}

type colourPayload struct {
	Colour int32 `validate:"oneof=-1 1"`
}

type movePayload struct {
	SrcRow int32 `validate:"min=0,max=7"`
	SrcCol int32 `validate:"min=0,max=7"`
	DstRow int32 `validate:"min=0,max=7"`
	DstCol int32 `validate:"min=0,max=7"`
}

type placePayload struct {
	Action int32 `validate:"oneof=0 1"`
	Code   int32 `validate:"min=1,max=4"`
	Row    int32 `validate:"min=0,max=7"`
	Col    int32 `validate:"min=0,max=7"`
}

// Colour - payload of START (assigned colour) or CHECKMATE (winner).
func (that *Message) Colour() (entity.Colour, error) {
	if err := that.expect(TypeStart, TypeCheckmate); err != nil {
		return 0, err
	}

	payload := colourPayload{Colour: that.Payload[0]}
	if err := validator.GetValidator().Struct(payload); err != nil {
		return 0, fmt.Errorf("%w: %s colour: %w", apperror.ErrMalformedMessage, that.Type, err)
	}

	return entity.Colour(payload.Colour), nil
}

// Move - payload of MOVE, in the sender's orientation.
func (that *Message) Move() (entity.Move, error) {
	if err := that.expect(TypeMove); err != nil {
		return entity.Move{}, err
	}

	payload := movePayload{
		SrcRow: that.Payload[0],
		SrcCol: that.Payload[1],
		DstRow: that.Payload[2],
		DstCol: that.Payload[3],
	}
	if err := validator.GetValidator().Struct(payload); err != nil {
		return entity.Move{}, fmt.Errorf("%w: move: %w", apperror.ErrMalformedMessage, err)
	}

	return entity.NewMove(int(payload.SrcRow), int(payload.SrcCol), int(payload.DstRow), int(payload.DstCol)), nil
}

// Place - payload of PLACE, in the sender's orientation.
func (that *Message) Place() (game.Placement, error) {
	if err := that.expect(TypePlace); err != nil {
		return game.Placement{}, err
	}

	payload := placePayload{
		Action: that.Payload[0],
		Code:   that.Payload[1],
		Row:    that.Payload[2],
		Col:    that.Payload[3],
	}
	if err := validator.GetValidator().Struct(payload); err != nil {
		return game.Placement{}, fmt.Errorf("%w: place: %w", apperror.ErrMalformedMessage, err)
	}

	kind, err := entity.KindFromCode(payload.Code)
	if err != nil {
		return game.Placement{}, fmt.Errorf("%w: place: %w", apperror.ErrMalformedMessage, err)
	}

	return game.Placement{
		Action: game.PlaceAction(payload.Action),
		Kind:   kind,
		Pos:    entity.Position{Row: int(payload.Row), Col: int(payload.Col)},
	}, nil
}

// Departed - id of the player a QUIT reports.
func (that *Message) Departed() (int32, error) {
	if err := that.expect(TypeQuit); err != nil {
		return 0, err
	}
	return that.Payload[0], nil
}

// Mirrored - copy of the message as seen from the opposite side of the board.
// Only MOVE and PLACE carry rows.
func (that *Message) Mirrored() *Message {
	mirrored := &Message{
		Type:     that.Type,
		SenderID: that.SenderID,
		Payload:  append([]int32(nil), that.Payload...),
	}

	last := int32(entity.BoardSize - 1)

	switch {
	case that.Type == TypeMove && len(mirrored.Payload) == 4:
		mirrored.Payload[0] = last - mirrored.Payload[0]
		mirrored.Payload[2] = last - mirrored.Payload[2]
	case that.Type == TypePlace && len(mirrored.Payload) == 4:
		mirrored.Payload[2] = last - mirrored.Payload[2]
	}

	return mirrored
}

func (that *Message) expect(types ...Type) error {
	for _, t := range types {
		if that.Type != t {
			continue
		}

		if len(that.Payload) != payloadValues[t] {
			return fmt.Errorf("%w: %s with %d values", apperror.ErrMalformedMessage, that.Type, len(that.Payload))
		}

		return nil
	}

	return fmt.Errorf("%w: unexpected %s", apperror.ErrMalformedMessage, that.Type)
}
