package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nickeddy/uamud/internal/config"
	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/game/world"
	"github.com/nickeddy/uamud/internal/gameserver"
	"github.com/nickeddy/uamud/internal/protocol"
)

// Acceptor listens for client connections and runs one read loop per
// connection, delivering decoded frames to the game engine in order.
type Acceptor struct {
	cfg      config.ListenConfig
	server   *gameserver.Server
	sessions *session.Registry
	bans     world.UserStore
	logger   *zap.Logger

	listener net.Listener
	wg       sync.WaitGroup
	quit     chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewAcceptor creates an Acceptor.
//
// Precondition: all dependencies must be non-nil.
func NewAcceptor(
	cfg config.ListenConfig,
	server *gameserver.Server,
	sessions *session.Registry,
	bans world.UserStore,
	logger *zap.Logger,
) *Acceptor {
	return &Acceptor{
		cfg:      cfg,
		server:   server,
		sessions: sessions,
		bans:     bans,
		logger:   logger,
		quit:     make(chan struct{}),
	}
}

// ListenAndServe starts the TCP listener and accepts connections until Stop
// is called. Blocks for the acceptor's whole life.
//
// Postcondition: the listener is closed when this method returns.
func (a *Acceptor) ListenAndServe() error {
	start := time.Now()

	listener, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}

	a.mu.Lock()
	a.listener = listener
	a.running = true
	a.mu.Unlock()

	a.logger.Info("client listener up",
		zap.String("addr", listener.Addr().String()),
		zap.Duration("startup", time.Since(start)),
	)

	for {
		raw, err := listener.Accept()
		if err != nil {
			select {
			case <-a.quit:
				return nil
			default:
				a.logger.Error("accepting connection", zap.Error(err))
				continue
			}
		}

		a.wg.Add(1)
		go a.handleConn(raw)
	}
}

// handleConn admits one connection and runs its read loop.
func (a *Acceptor) handleConn(raw net.Conn) {
	defer a.wg.Done()
	start := time.Now()

	conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
	addr := conn.RemoteAddr()

	if !a.server.Accepting() {
		a.refuse(conn, "The server is shutting down.")
		return
	}
	banned, err := a.bans.IsIPBanned(context.Background(), addr)
	if err != nil {
		a.logger.Error("checking ip ban", zap.String("remote", addr), zap.Error(err))
	}
	if banned {
		a.logger.Warn("banned address refused", zap.String("remote", addr))
		a.refuse(conn, "You are banned.")
		return
	}

	sess := session.New(conn)
	a.sessions.Add(sess)
	a.logger.Info("client connected",
		zap.String("remote", addr),
		zap.String("session", sess.ID.String()),
	)

	a.readLoop(sess, conn)
	a.server.Disconnect(context.Background(), sess)
	a.logger.Info("client gone",
		zap.String("remote", addr),
		zap.Duration("duration", time.Since(start)),
	)
}

// readLoop delivers frames one at a time until the client goes away.
func (a *Acceptor) readLoop(sess *session.Session, conn *Conn) {
	for {
		msg, err := conn.Receive()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				a.logger.Debug("read loop ended",
					zap.String("session", sess.ID.String()),
					zap.Error(err),
				)
			}
			return
		}
		a.server.Handle(context.Background(), sess, msg)
		if sess.State() == session.StateDisconnected {
			return
		}
	}
}

// refuse sends one kick frame and drops the connection without ever
// admitting it to the registry.
func (a *Acceptor) refuse(conn *Conn, reason string) {
	if msg, err := protocol.NewMessage(protocol.TypeClientKicked, protocol.Notice{Reason: reason}); err == nil {
		_ = conn.Send(msg)
	}
	_ = conn.Close()
}

// Stop closes the listener and every live session, then waits for the
// connection goroutines to finish.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.quit)
	if a.listener != nil {
		_ = a.listener.Close()
	}
	a.mu.Unlock()

	for _, sess := range a.sessions.All() {
		_ = sess.Conn.Close()
	}
	a.wg.Wait()
	a.logger.Info("client listener stopped")
}

// Addr returns the actual listening address, empty until listening.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}
