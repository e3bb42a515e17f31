package tcp

import (
	"context"
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
	"github.com/nickeddy/uamud/internal/testutil"
)

// startAcceptor brings up a full engine on an ephemeral loopback port and
// returns its address.
func startAcceptor(t *testing.T) (string, *gameserver.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Seed(context.Background(), &world.Content{
		Rooms: []*world.Room{
			{ID: 1, Name: "Vault 101 Atrium", Description: "The cog door stands open.", East: 2},
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
		scripting.NewDialogue(), dice.NewSeededSource(11), func() {})

	acceptor := NewAcceptor(config.ListenConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, srv, registry, store, logger)

	go func() {
		if err := acceptor.ListenAndServe(); err != nil {
			t.Errorf("listener failed: %v", err)
		}
	}()
	t.Cleanup(acceptor.Stop)

	require.Eventually(t, func() bool { return acceptor.Addr() != "" },
		time.Second, 5*time.Millisecond)
	return acceptor.Addr(), srv, store
}

func TestAcceptor_FullSession(t *testing.T) {
	addr, _, _ := startAcceptor(t)
	client := testutil.Dial(t, addr)

	client.Send(t, protocol.TypeCreateUser,
		protocol.CreateUser{Username: "vaultie", Password: "hunter2"})
	client.RecvType(t, protocol.TypeCreateUserSuccessful, 5*time.Second)

	client.Send(t, protocol.TypeLogin,
		protocol.Login{Username: "vaultie", Password: "hunter2"})
	msg := client.RecvType(t, protocol.TypeLoginSuccessful, 5*time.Second)
	var login protocol.LoginSuccessful
	require.NoError(t, msg.DecodePayload(&login))
	assert.Contains(t, login.Classes, "Ninja")

	client.Send(t, protocol.TypeCreateCharacter,
		protocol.CreateCharacter{Name: "Lone Wanderer", Class: "ninja"})
	client.RecvType(t, protocol.TypeCreateCharacterSuccessful, 5*time.Second)

	// Entering play pushes the room render and the stat sheet.
	stats := client.RecvType(t, protocol.TypeCharacterStats, 5*time.Second)
	var sheet protocol.CharacterStats
	require.NoError(t, stats.DecodePayload(&sheet))
	assert.Equal(t, "Vault 101 Atrium", sheet.Room)
	assert.Equal(t, ruleset.ClassNinja.StatsAt(1).MaxHP, sheet.MaxHP)

	client.Command(t, "look")
	display := client.RecvType(t, protocol.TypeDisplay, 5*time.Second)
	var d protocol.Display
	require.NoError(t, display.DecodePayload(&d))
	assert.Contains(t, d.Text, "Vault 101 Atrium")
}

func TestAcceptor_RefusesBannedAddress(t *testing.T) {
	addr, _, store := startAcceptor(t)
	require.NoError(t, store.AddIPBan(context.Background(), "127.0.0.1"))

	client := testutil.Dial(t, addr)
	msg := client.RecvType(t, protocol.TypeClientKicked, 5*time.Second)
	var notice protocol.Notice
	require.NoError(t, msg.DecodePayload(&notice))
	assert.Equal(t, "You are banned.", notice.Reason)
}

func TestAcceptor_RefusesDuringShutdown(t *testing.T) {
	addr, srv, _ := startAcceptor(t)
	srv.Shutdown(context.Background())

	client := testutil.Dial(t, addr)
	msg := client.RecvType(t, protocol.TypeClientKicked, 5*time.Second)
	var notice protocol.Notice
	require.NoError(t, msg.DecodePayload(&notice))
	assert.Equal(t, "The server is shutting down.", notice.Reason)
}

func TestAcceptor_StateMachineOverWire(t *testing.T) {
	addr, _, _ := startAcceptor(t)
	client := testutil.Dial(t, addr)

	// A command before logging in is rejected, not executed.
	client.Command(t, "look")
	msg := client.RecvType(t, protocol.TypeDisplay, 5*time.Second)
	var d protocol.Display
	require.NoError(t, msg.DecodePayload(&d))
	assert.Contains(t, d.Text, "You cannot do that yet")
}
