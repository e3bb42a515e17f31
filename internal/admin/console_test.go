package admin

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nickeddy/uamud/internal/config"
	"github.com/nickeddy/uamud/internal/game/broadcast"
	"github.com/nickeddy/uamud/internal/game/dice"
	"github.com/nickeddy/uamud/internal/game/mob"
	"github.com/nickeddy/uamud/internal/game/ruleset"
	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/game/world"
	"github.com/nickeddy/uamud/internal/gameserver"
	"github.com/nickeddy/uamud/internal/protocol"
	"github.com/nickeddy/uamud/internal/scripting"
	"github.com/nickeddy/uamud/internal/storage/memory"
)

type nullConn struct{}

func (nullConn) Send(protocol.Message) error { return nil }
func (nullConn) Close() error                { return nil }
func (nullConn) RemoteAddr() string          { return "10.0.0.1" }

func newConsole(t *testing.T, in string) (*Console, *session.Registry, *memory.Store, *bytes.Buffer) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Seed(context.Background(), &world.Content{
		Rooms: []*world.Room{
			{ID: 1, Name: "Vault 101 Atrium", East: 2},
			{ID: 2, Name: "Springvale Crossroads", West: 1},
		},
	}))

	registry := session.NewRegistry()
	logger := zap.NewNop()
	cfg := config.GameConfig{
		MobTarget: 1, MobDifficulty: 1,
		SpawnInterval: time.Minute, MoveInterval: time.Minute,
		LockInterval: time.Minute, LightInterval: time.Minute,
		RetaliateDelay: time.Millisecond,
		SafeRoom:       1, EntryRoom: 1,
		SpawnRoomMin: 2, SpawnRoomMax: 2,
		DeathPenalty: 0.95, RespawnHPFraction: 0.75,
		ShutdownCountdown: 1,
	}
	srv := gameserver.New(cfg, logger, store, registry,
		broadcast.NewBus(registry, logger), mob.NewManager(),
		scripting.NewDialogue(), dice.NewSeededSource(3), func() {})

	var out bytes.Buffer
	return NewConsole(srv, logger, strings.NewReader(in), &out), registry, store, &out
}

// addPlayer drops a playing session into the server's registry.
func addPlayer(t *testing.T, store *memory.Store, registry *session.Registry, username, charName string) *session.Session {
	t.Helper()
	ctx := context.Background()
	u, err := store.CreateUser(ctx, username, "x")
	require.NoError(t, err)
	c := &world.Character{
		UserID: u.ID, Name: charName, Class: ruleset.ClassNinja,
		Level: 1, HP: 10, AP: 5, RoomID: 1,
	}
	require.NoError(t, store.CreateCharacter(ctx, c))

	sess := session.New(nullConn{})
	sess.SetUser(u)
	sess.SetCharacter(c)
	sess.SetState(session.StatePlaying)
	registry.Add(sess)
	return sess
}

func TestExecute_Commands(t *testing.T) {
	console, _, _, out := newConsole(t, "")
	ctx := context.Background()

	require.NoError(t, console.Execute(ctx, "commands"))
	assert.Contains(t, out.String(), "kick <character> <reason>")
	assert.Contains(t, out.String(), "listusers - list accounts")
}

func TestExecute_Unknown(t *testing.T) {
	console, _, _, _ := newConsole(t, "")
	err := console.Execute(context.Background(), "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown console command "frobnicate"`)
}

func TestExecute_UsageErrors(t *testing.T) {
	console, _, _, _ := newConsole(t, "")
	ctx := context.Background()

	assert.Error(t, console.Execute(ctx, "kick"))
	assert.Error(t, console.Execute(ctx, "kick Wanderer"))
	assert.Error(t, console.Execute(ctx, "deleteuser"))
	assert.Error(t, console.Execute(ctx, "move Wanderer"))
	assert.Error(t, console.Execute(ctx, "move Wanderer downtown"))
}

func TestExecute_KickAndBan(t *testing.T) {
	console, registry, store, out := newConsole(t, "")
	ctx := context.Background()
	sess := addPlayer(t, store, registry, "vaultie", "Wanderer")

	require.NoError(t, console.Execute(ctx, "kick Wanderer being a jerk"))
	assert.Contains(t, out.String(), "kicked Wanderer")
	assert.Equal(t, session.StateDisconnected, sess.State())

	// Now offline; kicking again is an error, banning still works.
	assert.Error(t, console.Execute(ctx, "kick Wanderer again"))
	require.NoError(t, console.Execute(ctx, "ban vaultie griefing"))
	u, err := store.UserByName(ctx, "vaultie")
	require.NoError(t, err)
	assert.True(t, u.Banned)
}

func TestExecute_MoveAndListUsers(t *testing.T) {
	console, registry, store, out := newConsole(t, "")
	ctx := context.Background()
	sess := addPlayer(t, store, registry, "vaultie", "Wanderer")

	require.NoError(t, console.Execute(ctx, "move Wanderer 2"))
	assert.Contains(t, out.String(), "moved Wanderer to room 2")
	assert.Equal(t, int64(2), sess.Character().RoomID)

	assert.Error(t, console.Execute(ctx, "move Wanderer 42"))

	out.Reset()
	require.NoError(t, console.Execute(ctx, "listusers"))
	assert.Contains(t, out.String(), "vaultie (online): [Wanderer]")
}

func TestStart_RunsLinesAndReportsErrors(t *testing.T) {
	console, _, _, out := newConsole(t, "commands\n\nfrobnicate\n")
	require.NoError(t, console.Start())
	assert.Contains(t, out.String(), "shutdown - begin the shutdown countdown")
	assert.Contains(t, out.String(), `error: unknown console command "frobnicate"`)
}

func TestStop_EndsAtNextLine(t *testing.T) {
	console, _, _, out := newConsole(t, "commands\nlistusers\n")
	console.Stop()
	require.NoError(t, console.Start())
	assert.NotContains(t, out.String(), "shutdown - begin")
}
