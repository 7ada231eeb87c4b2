package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/rocketscienceinc/chess-relay/internal/apperror"
	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/game"
	"github.com/rocketscienceinc/chess-relay/internal/protocol"
	"github.com/rocketscienceinc/chess-relay/internal/transport/relay"
)

// sends share the owner loop with incoming frames, so a relay that stops
// reading must not block it forever
const writeTimeout = 10 * time.Second

// Deps - collaborators of a client. Nil fields fall back to no-ops.
type Deps struct {
	Logger   *slog.Logger
	Renderer Renderer
	Chooser  PromotionChooser
	Notifier Notifier
	Sound    SoundPlayer
}

type frame struct {
	msg *protocol.Message
	err error
}

type input struct {
	apply func() error
	reply chan error
}

type handler func(ctx context.Context, msg *protocol.Message) (stop bool, err error)

// Client - one peer of a game. Every mutation of the session happens on the
// goroutine running Run.
type Client struct {
	logger   *slog.Logger
	conn     net.Conn
	renderer Renderer
	chooser  PromotionChooser
	notifier Notifier
	sound    SoundPlayer

	handlers map[protocol.Type]handler
	inputs   chan input
	done     chan struct{}

	// owned by Run
	session  *game.Session
	floating *entity.Position
	gameOver bool
	connErr  error
}

// New - wraps an established connection to a relay.
func New(conn net.Conn, deps Deps) *Client {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Renderer == nil {
		deps.Renderer = nopRenderer{}
	}
	if deps.Chooser == nil {
		deps.Chooser = queenChooser{}
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Sound == nil {
		deps.Sound = nopSound{}
	}

	client := &Client{
		logger:   deps.Logger.With("component", "client"),
		conn:     conn,
		renderer: deps.Renderer,
		chooser:  deps.Chooser,
		notifier: deps.Notifier,
		sound:    deps.Sound,

		handlers: make(map[protocol.Type]handler),
		inputs:   make(chan input),
		done:     make(chan struct{}),
	}

	client.session = game.NewSession(client.logger)

	client.handlers[protocol.TypeStart] = client.handleStart
	client.handlers[protocol.TypeMove] = client.handleMove
	client.handlers[protocol.TypeCheckmate] = client.handleCheckmate
	client.handlers[protocol.TypeQuit] = client.handleQuit
	client.handlers[protocol.TypePlace] = client.handlePlace

	return client
}

// Dial - connects to a relay at addr.
func Dial(ctx context.Context, addr string, deps Deps) (*Client, error) {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %w", apperror.ErrConnectionLost, addr, err)
	}

	return New(conn, deps), nil
}

// Host - opens a relay on addr and connects to it. The relay runs until ctx
// is cancelled.
func Host(ctx context.Context, addr string, deps Deps, opts relay.Options, ledger relay.MatchLedger) (*Client, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	server, err := relay.New(logger, opts, ledger)
	if err != nil {
		return nil, err
	}

	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		if serveErr := server.Serve(ctx, ln); serveErr != nil {
			logger.Error("hosted relay stopped", "error", serveErr)
		}
	}()

	logger.Info("hosting game", "addr", ln.Addr().String())

	return Dial(ctx, ln.Addr().String(), deps)
}

// Run - processes relay traffic and local input until the player exits, the
// connection fails or ctx is cancelled.
func (that *Client) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	defer close(that.done)
	defer that.conn.Close()

	frames := make(chan frame)
	go that.readPump(ctx, frames)

	that.render()

	for {
		select {
		case <-ctx.Done():
			log.Info("client stopped")
			return nil

		case f := <-frames:
			if f.err != nil {
				return that.connectionLost(f.err)
			}

			stop, err := that.dispatch(ctx, f.msg)
			if err != nil {
				log.Warn("failed to handle message", "type", f.msg.Type.String(), "error", err)
			}
			if stop {
				log.Info("leaving after opponent quit")
				return nil
			}

		case in := <-that.inputs:
			in.reply <- in.apply()
		}

		if that.connErr != nil {
			return that.connectionLost(that.connErr)
		}
	}
}

// PickUp - lifts one of the local player's pieces on the local turn.
func (that *Client) PickUp(ctx context.Context, row, col int) error {
	return that.submit(ctx, func() error {
		return that.pickUp(entity.Position{Row: row, Col: col})
	})
}

// Drop - puts the floating piece on a square. Dropping it where it was lifted
// cancels the pick up.
func (that *Client) Drop(ctx context.Context, row, col int) error {
	return that.submit(ctx, func() error {
		return that.drop(entity.Position{Row: row, Col: col})
	})
}

// View - current state as shown to the renderer.
func (that *Client) View(ctx context.Context) (game.View, error) {
	var view game.View

	err := that.submit(ctx, func() error {
		view = that.view()
		return nil
	})

	return view, err
}

func (that *Client) submit(ctx context.Context, apply func() error) error {
	req := input{apply: apply, reply: make(chan error, 1)}

	select {
	case that.inputs <- req:
	case <-that.done:
		return apperror.ErrConnectionLost
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (that *Client) readPump(ctx context.Context, frames chan<- frame) {
	log := that.logger.With("method", "readPump")

	for {
		msg, err := protocol.ReadMessage(that.conn)
		if err != nil && protocol.IsMalformed(err) {
			log.Warn("dropping malformed message", "error", err)
			continue
		}

		select {
		case frames <- frame{msg: msg, err: err}:
		case <-ctx.Done():
			return
		case <-that.done:
			return
		}

		if err != nil {
			return
		}
	}
}

func (that *Client) dispatch(ctx context.Context, msg *protocol.Message) (bool, error) {
	handle, ok := that.handlers[msg.Type]
	if !ok {
		return false, fmt.Errorf("%w: %s", apperror.ErrMalformedMessage, msg.Type)
	}

	return handle(ctx, msg)
}

func (that *Client) send(msg *protocol.Message) error {
	if that.connErr != nil {
		return apperror.ErrConnectionLost
	}

	_ = that.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	if err := protocol.WriteMessage(that.conn, msg); err != nil {
		that.connErr = err
		return fmt.Errorf("%w: %w", apperror.ErrConnectionLost, err)
	}

	return nil
}

// connectionLost - a broken connection is reported like an opponent leaving.
func (that *Client) connectionLost(cause error) error {
	that.logger.Error("connection lost", "error", cause)

	that.session.Abandon()
	that.floating = nil
	that.render()

	opponent := that.session.Colour().Opponent()
	_ = that.notifier.OpponentLeft(int32(opponent))

	if errors.Is(cause, apperror.ErrConnectionLost) {
		return cause
	}

	return fmt.Errorf("%w: %w", apperror.ErrConnectionLost, cause)
}

func (that *Client) view() game.View {
	view := that.session.Snapshot()
	if that.floating != nil {
		pos := *that.floating
		view.Floating = &pos
	}
	return view
}

func (that *Client) render() {
	that.renderer.Render(that.view())
}
