package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/rocketscienceinc/chess-relay/internal/client"
	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/game"
)

var errUnknownCommand = errors.New("unknown command")

const help = `commands:
  pick <row> <col>                lift one of your pieces
  drop <row> <col>                put it down (same square cancels)
  move <row> <col> <row> <col>    pick and drop in one go
  board                           print the board again
  exit                            leave the game`

// Player - the part of a client the console drives.
type Player interface {
	PickUp(ctx context.Context, row, col int) error
	Drop(ctx context.Context, row, col int) error
	View(ctx context.Context) (game.View, error)
}

// Console - line based front end. One goroutine reads the input; a line goes
// to a pending question when one is open, otherwise to the command loop.
type Console struct {
	logger *slog.Logger

	mu  sync.Mutex
	out io.Writer

	commands chan string
	asks     chan chan string
	closed   chan struct{}
}

func New(logger *slog.Logger, in io.Reader, out io.Writer) *Console {
	console := &Console{
		logger:   logger.With("component", "terminal"),
		out:      out,
		commands: make(chan string),
		asks:     make(chan chan string),
		closed:   make(chan struct{}),
	}

	go console.readLines(in)

	return console
}

// Deps - collaborators for client.New backed by this console.
func (that *Console) Deps(logger *slog.Logger) client.Deps {
	return client.Deps{
		Logger:   logger,
		Renderer: that,
		Chooser:  that,
		Notifier: that,
		Sound:    that,
	}
}

// Run - executes commands against player until the input ends, the player
// types exit or ctx is cancelled.
func (that *Console) Run(ctx context.Context, player Player) error {
	log := that.logger.With("method", "Run")

	that.println(help)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-that.closed:
			log.Info("input closed")
			return nil

		case line := <-that.commands:
			stop, err := that.execute(ctx, player, line)
			if err != nil {
				that.printf("! %v\n", err)
			}
			if stop {
				return nil
			}
		}
	}
}

func (that *Console) execute(ctx context.Context, player Player, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	args, err := parseInts(fields[1:])
	if err != nil {
		return false, err
	}

	switch {
	case fields[0] == "pick" && len(args) == 2:
		return false, player.PickUp(ctx, args[0], args[1])

	case fields[0] == "drop" && len(args) == 2:
		return false, player.Drop(ctx, args[0], args[1])

	case fields[0] == "move" && len(args) == 4:
		if err = player.PickUp(ctx, args[0], args[1]); err != nil {
			return false, err
		}
		return false, player.Drop(ctx, args[2], args[3])

	case fields[0] == "board":
		view, viewErr := player.View(ctx)
		if viewErr != nil {
			return false, viewErr
		}
		that.Render(view)
		return false, nil

	case fields[0] == "exit":
		return true, nil

	case fields[0] == "help":
		that.println(help)
		return false, nil

	default:
		return false, fmt.Errorf("%w: %q", errUnknownCommand, line)
	}
}

// Render - prints the board with row and column indexes.
func (that *Console) Render(view game.View) {
	var b strings.Builder

	b.WriteString("\n   0 1 2 3 4 5 6 7\n")
	for row := range entity.BoardSize {
		fmt.Fprintf(&b, "%d  ", row)
		for col := range entity.BoardSize {
			b.WriteByte(squareLetter(view, row, col))
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}

	b.WriteString(statusLine(view))
	b.WriteByte('\n')

	that.print(b.String())
}

// ChoosePromotion - asks for q, r, b or n; anything else is a queen.
func (that *Console) ChoosePromotion(pos entity.Position, _ entity.Colour) entity.Kind {
	answer := that.ask(fmt.Sprintf("promote pawn on %s to [q]ueen, [r]ook, [b]ishop or k[n]ight? ", pos))

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "r":
		return entity.Rook
	case "b":
		return entity.Bishop
	case "n":
		return entity.Knight
	default:
		return entity.Queen
	}
}

func (that *Console) GameStarted(colour entity.Colour) {
	that.printf("game started, you play %s\n", colour)
}

func (that *Console) GameOver(winner, local entity.Colour) {
	if winner == local {
		that.println("checkmate, you win")
		return
	}
	that.printf("checkmate, %s wins\n", winner)
}

func (that *Console) OpponentLeft(playerID int32) client.Choice {
	answer := that.ask(fmt.Sprintf("%s left the game. wait for another opponent? [y/N] ", entity.Colour(playerID)))

	if strings.EqualFold(strings.TrimSpace(answer), "y") {
		return client.ChoiceWait
	}
	return client.ChoiceExit
}

// Play - rings the bell on captures.
func (that *Console) Play(sound client.Sound) {
	if sound == client.SoundCapture {
		that.print("\a")
	}
}

// ask - prints prompt and waits for the next line. An empty answer is
// returned once the input is closed.
func (that *Console) ask(prompt string) string {
	that.print(prompt)

	reply := make(chan string, 1)

	select {
	case that.asks <- reply:
	case <-that.closed:
		return ""
	}

	// a taken reply is always answered before closed is closed
	return <-reply
}

func (that *Console) readLines(in io.Reader) {
	defer close(that.closed)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()

		select {
		case reply := <-that.asks:
			reply <- line
			continue
		default:
		}

		select {
		case reply := <-that.asks:
			reply <- line
		case that.commands <- line:
		}
	}

	if err := scanner.Err(); err != nil {
		that.logger.Error("failed to read input", "error", err)
	}
}

func (that *Console) print(s string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, _ = io.WriteString(that.out, s)
}

func (that *Console) println(s string) {
	that.print(s + "\n")
}

func (that *Console) printf(format string, args ...any) {
	that.print(fmt.Sprintf(format, args...))
}

func parseInts(fields []string) ([]int, error) {
	values := make([]int, 0, len(fields))

	for _, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", errUnknownCommand, field)
		}
		values = append(values, value)
	}

	return values, nil
}

// squareLetter - upper case for white, lower case for black, '.' for empty.
// The floating piece is shown as '*'.
func squareLetter(view game.View, row, col int) byte {
	if view.Floating != nil && view.Floating.Row == row && view.Floating.Col == col {
		return '*'
	}

	piece := view.Board[row][col]
	if piece.Kind == 0 {
		return '.'
	}

	letter := piece.Kind.Letter()
	if piece.Colour == entity.Black {
		letter += 'a' - 'A'
	}

	return letter
}

func statusLine(view game.View) string {
	switch view.Status {
	case game.StatusAwaitingStart:
		return "waiting for an opponent"

	case game.StatusTerminated:
		if view.Winner.Valid() {
			return fmt.Sprintf("game over, %s won", view.Winner)
		}
		return "game over"

	default:
		if view.Pending != nil {
			return fmt.Sprintf("promotion pending on %s", view.Pending)
		}
		if view.Turn == view.Colour {
			return fmt.Sprintf("you play %s, your move", view.Colour)
		}
		return fmt.Sprintf("you play %s, %s to move", view.Colour, view.Turn)
	}
}
