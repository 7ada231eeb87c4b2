package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/pkg"
	"github.com/rocketscienceinc/chess-relay/internal/protocol"
	"github.com/rocketscienceinc/chess-relay/internal/validator"
)

var tracer = otel.Tracer("relay")

const (
	DefaultCapacity = 2

	// a peer that accepts nothing for this long is dropped, since one blocked
	// write stalls the hub for every connection
	defaultWriteTimeout = 10 * time.Second
	ledgerTimeout       = 2 * time.Second
)

// MatchLedger - where the relay records the matches it pairs.
type MatchLedger interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
}

type Options struct {
	Capacity int `validate:"eq=2"`
}

func DefaultOptions() Options {
	return Options{Capacity: DefaultCapacity}
}

// Stats - snapshot of the relay for the health endpoint.
type Stats struct {
	Players    int    `json:"players"`
	InProgress bool   `json:"in_progress"`
	MatchID    string `json:"match_id,omitempty"`
	Forwarded  uint64 `json:"forwarded"`
	Rejected   uint64 `json:"rejected"`
}

type inboundMessage struct {
	from *player
	msg  *protocol.Message
}

type handler func(ctx context.Context, from *player, msg *protocol.Message)

// Server - pairs two players and forwards their traffic. All roster and
// pairing state is owned by the hub goroutine started in Serve.
type Server struct {
	logger *slog.Logger
	opts   Options
	ledger MatchLedger

	pickColour   func() entity.Colour
	newMatchID   func() string
	now          func() time.Time
	writeTimeout time.Duration

	handlers map[protocol.Type]handler
	metrics  *instruments

	register   chan net.Conn
	unregister chan *player
	inbound    chan inboundMessage

	// hub state
	roster      []*player
	inProgress  bool
	firstColour entity.Colour
	match       *entity.Match

	// mirrors of hub state for Stats
	players    atomic.Int32
	inProgFlag atomic.Bool
	matchID    atomic.Value
	forwarded  atomic.Uint64
	rejected   atomic.Uint64
}

// New - creates a relay. ledger may be nil.
func New(logger *slog.Logger, opts Options, ledger MatchLedger) (*Server, error) {
	if err := validator.GetValidator().Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid relay options: %w", err)
	}

	metrics, err := newInstruments(otel.Meter("relay"))
	if err != nil {
		return nil, err
	}

	server := &Server{
		logger: logger.With("component", "relay"),
		opts:   opts,
		ledger: ledger,

		pickColour:   randomColour,
		newMatchID:   pkg.GenerateMatchID,
		now:          time.Now,
		writeTimeout: defaultWriteTimeout,

		handlers: make(map[protocol.Type]handler),
		metrics:  metrics,

		register:   make(chan net.Conn),
		unregister: make(chan *player),
		inbound:    make(chan inboundMessage),
	}

	server.handlers[protocol.TypeMove] = server.handleMove
	server.handlers[protocol.TypePlace] = server.handlePlace
	server.handlers[protocol.TypeCheckmate] = server.handleCheckmate
	server.handlers[protocol.TypeStart] = server.handleUnexpected
	server.handlers[protocol.TypeQuit] = server.handleUnexpected

	server.firstColour = server.pickColour()
	server.matchID.Store("")

	return server, nil
}

// Start - listens on addr and serves until ctx is cancelled.
func (that *Server) Start(ctx context.Context, addr string) error {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return that.Serve(ctx, ln)
}

// Serve - accepts connections from ln until ctx is cancelled. The listener is
// closed on return.
func (that *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := that.logger.With("method", "Serve", "addr", ln.Addr().String())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		that.run(ctx)
	}()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	log.Info("relay is listening")

	var serveErr error

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				serveErr = fmt.Errorf("failed to accept connection: %w", err)
			}
			break
		}

		select {
		case that.register <- conn:
		case <-ctx.Done():
			_ = conn.Close()
		}
	}

	cancel()
	<-hubDone

	log.Info("relay stopped")

	return serveErr
}

func (that *Server) Stats() Stats {
	matchID, _ := that.matchID.Load().(string)

	return Stats{
		Players:    int(that.players.Load()),
		InProgress: that.inProgFlag.Load(),
		MatchID:    matchID,
		Forwarded:  that.forwarded.Load(),
		Rejected:   that.rejected.Load(),
	}
}

// readPump - decodes frames from one player and hands them to the hub.
// Malformed frames are dropped; any other read error ends the connection.
func (that *Server) readPump(ctx context.Context, p *player) {
	log := that.logger.With("method", "readPump", "player", p.ID)

	for {
		msg, err := protocol.ReadMessage(p.conn)
		if err != nil {
			if protocol.IsMalformed(err) {
				log.Warn("dropping malformed message", "error", err)
				continue
			}

			log.Info("connection closed", "error", err)

			select {
			case that.unregister <- p:
			case <-ctx.Done():
			}

			return
		}

		select {
		case that.inbound <- inboundMessage{from: p, msg: msg}:
		case <-ctx.Done():
			return
		}
	}
}

func randomColour() entity.Colour {
	if rand.N(2) == 0 {
		return entity.White
	}
	return entity.Black
}
