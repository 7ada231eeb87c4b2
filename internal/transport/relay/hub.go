package relay

import (
	"context"
	"fmt"
	"net"
	"slices"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/rocketscienceinc/chess-relay/internal/apperror"
	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/protocol"
)

// player - one connected peer. The id doubles as the assigned colour.
type player struct {
	entity.Player

	conn         net.Conn
	writeTimeout time.Duration
	disconnected atomic.Bool
}

// send - writes one frame. A failed or timed out write marks the player
// disconnected and closes the connection, which ends its reader.
func (that *player) send(msg *protocol.Message) error {
	if that.disconnected.Load() {
		return apperror.ErrConnectionLost
	}

	_ = that.conn.SetWriteDeadline(time.Now().Add(that.writeTimeout))

	if err := protocol.WriteMessage(that.conn, msg); err != nil {
		that.disconnected.Store(true)
		_ = that.conn.Close()
		return fmt.Errorf("%w: %w", apperror.ErrConnectionLost, err)
	}

	return nil
}

// run - the hub loop. Owns roster, in-progress flag, first colour and match.
func (that *Server) run(ctx context.Context) {
	log := that.logger.With("method", "run")

	for {
		select {
		case <-ctx.Done():
			for _, p := range that.roster {
				_ = p.conn.Close()
			}
			that.metrics.players.Add(context.WithoutCancel(ctx), -int64(len(that.roster)))
			that.roster = nil
			that.syncStats()
			log.Info("hub stopped")
			return

		case conn := <-that.register:
			that.handleConnect(ctx, conn)

		case p := <-that.unregister:
			that.handleDisconnect(ctx, p)

		case in := <-that.inbound:
			that.dispatch(ctx, in)
		}
	}
}

func (that *Server) handleConnect(ctx context.Context, conn net.Conn) {
	ctx, span := tracer.Start(ctx, "relay.connect", trace.WithAttributes(
		attribute.String("peer.addr", conn.RemoteAddr().String()),
	))
	defer span.End()

	log := that.logger.With("method", "handleConnect", "addr", conn.RemoteAddr().String())

	that.prune(ctx)

	if len(that.roster) >= that.opts.Capacity {
		_ = conn.Close()
		that.rejected.Add(1)
		that.metrics.rejected.Add(ctx, 1)
		span.SetStatus(codes.Error, apperror.ErrRosterFull.Error())
		log.Warn("connection refused", "error", apperror.ErrRosterFull, "players", len(that.roster))
		return
	}

	colour := that.firstColour
	if len(that.roster) > 0 {
		colour = that.roster[0].Colour().Opponent()
	}

	p := &player{
		Player:       entity.Player{ID: int32(colour), Side: 1, Addr: conn.RemoteAddr().String()},
		conn:         conn,
		writeTimeout: that.writeTimeout,
	}
	that.roster = append(that.roster, p)
	that.syncStats()
	that.metrics.players.Add(ctx, 1)

	span.SetAttributes(
		attribute.String("player.colour", colour.String()),
		attribute.Int("roster.size", len(that.roster)),
	)
	log.Info("player connected", "colour", colour.String(), "players", len(that.roster))

	go that.readPump(ctx, p)

	if len(that.roster) == that.opts.Capacity && !that.inProgress {
		that.startGame(ctx)
	}
}

// startGame - sends each player its colour exactly once and opens a match.
func (that *Server) startGame(ctx context.Context) {
	log := that.logger.With("method", "startGame")

	players := make([]entity.Player, 0, len(that.roster))
	for _, p := range that.roster {
		players = append(players, p.Player)
	}

	that.inProgress = true
	that.match = entity.NewMatch(that.newMatchID(), players, that.now())
	that.saveMatch(ctx)
	that.syncStats()
	that.metrics.matchTransition(ctx, entity.MatchOngoing)

	for _, p := range that.roster {
		if err := p.send(protocol.NewStart(p.Colour())); err != nil {
			log.Error("failed to send start", "player", p.ID, "error", err)
		}
	}

	log.Info("game started", "match", that.match.ID)
}

func (that *Server) handleDisconnect(ctx context.Context, p *player) {
	if !slices.Contains(that.roster, p) {
		return
	}

	ctx, span := tracer.Start(ctx, "relay.disconnect", trace.WithAttributes(
		attribute.Int("player.id", int(p.ID)),
	))
	defer span.End()

	that.removePlayer(ctx, p)
}

// prune - drops players whose last write failed before their reader noticed.
func (that *Server) prune(ctx context.Context) {
	for _, p := range slices.Clone(that.roster) {
		if p.disconnected.Load() {
			that.removePlayer(ctx, p)
		}
	}
}

func (that *Server) removePlayer(ctx context.Context, p *player) {
	log := that.logger.With("method", "removePlayer", "player", p.ID)

	that.roster = slices.DeleteFunc(that.roster, func(other *player) bool { return other == p })
	p.disconnected.Store(true)
	_ = p.conn.Close()
	that.metrics.players.Add(ctx, -1)

	that.inProgress = false
	that.firstColour = that.pickColour()

	if that.match != nil {
		if that.match.IsOngoing() {
			that.match.Abandon(that.now())
			that.saveMatch(ctx)
			that.metrics.matchTransition(ctx, entity.MatchAbandoned)
		}
		that.match = nil
	}

	that.syncStats()

	log.Info("player disconnected", "players", len(that.roster))

	for _, survivor := range that.roster {
		if err := survivor.send(protocol.NewQuit(p.ID)); err != nil {
			log.Error("failed to notify survivor", "survivor", survivor.ID, "error", err)
		}
	}
}

func (that *Server) dispatch(ctx context.Context, in inboundMessage) {
	if !slices.Contains(that.roster, in.from) {
		return
	}

	handle, ok := that.handlers[in.msg.Type]
	if !ok {
		that.logger.Warn("no handler for message", "type", in.msg.Type.String())
		return
	}

	handle(ctx, in.from, in.msg)
}

// forward - relays msg verbatim to every other connected player.
func (that *Server) forward(ctx context.Context, from *player, msg *protocol.Message) {
	_, span := tracer.Start(ctx, "relay.forward", trace.WithAttributes(
		attribute.String("message.type", msg.Type.String()),
		attribute.Int("player.id", int(from.ID)),
	))
	defer span.End()

	for _, p := range that.roster {
		if p == from || p.disconnected.Load() {
			continue
		}

		if err := p.send(msg); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to forward")
			that.logger.Error("failed to forward message", "to", p.ID, "type", msg.Type.String(), "error", err)
			continue
		}

		that.forwarded.Add(1)
		that.metrics.forwarded.Add(ctx, 1, metric.WithAttributes(attribute.String("message.type", msg.Type.String())))
	}
}

func (that *Server) saveMatch(ctx context.Context) {
	if that.ledger == nil || that.match == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerTimeout)
	defer cancel()

	if err := that.ledger.CreateOrUpdate(ctx, that.match); err != nil {
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		that.logger.Error("failed to save match", "match", that.match.ID, "error", err)
	}
}

func (that *Server) syncStats() {
	that.players.Store(int32(len(that.roster)))
	that.inProgFlag.Store(that.inProgress)

	matchID := ""
	if that.match != nil && that.match.IsOngoing() {
		matchID = that.match.ID
	}
	that.matchID.Store(matchID)
}
