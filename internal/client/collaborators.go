package client

import (
	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/game"
)

type Sound int

const (
	SoundSelect Sound = iota + 1
	SoundMove
	SoundCapture
)

// Choice - what to do after the opponent left.
type Choice int

const (
	ChoiceWait Choice = iota + 1
	ChoiceExit
)

type Renderer interface {
	Render(view game.View)
}

type PromotionChooser interface {
	ChoosePromotion(pos entity.Position, colour entity.Colour) entity.Kind
}

type Notifier interface {
	GameStarted(colour entity.Colour)
	GameOver(winner, local entity.Colour)
	OpponentLeft(playerID int32) Choice
}

type SoundPlayer interface {
	Play(sound Sound)
}

type nopRenderer struct{}

func (nopRenderer) Render(game.View) {}

// queenChooser always promotes to a queen.
type queenChooser struct{}

func (queenChooser) ChoosePromotion(entity.Position, entity.Colour) entity.Kind {
	return entity.Queen
}

type nopNotifier struct{}

func (nopNotifier) GameStarted(entity.Colour) {}

func (nopNotifier) GameOver(_, _ entity.Colour) {}

func (nopNotifier) OpponentLeft(int32) Choice { return ChoiceExit }

type nopSound struct{}

func (nopSound) Play(Sound) {}
