package gameserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nickeddy/uamud/internal/game/ruleset"
	"github.com/nickeddy/uamud/internal/game/world"
	"github.com/nickeddy/uamud/internal/protocol"
)

// Scheduler runs the four world-simulation processes: mob spawning, mob
// wandering, door re-locking, and the day/night cycle. It plugs into the
// server lifecycle as a service; each process is an independent ticker
// goroutine stopped through the scheduler's context.
type Scheduler struct {
	server *Server
	logger *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler over the given engine.
func NewScheduler(server *Server, logger *zap.Logger) *Scheduler {
	return &Scheduler{server: server, logger: logger}
}

// Start launches the four simulation goroutines.
func (sc *Scheduler) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	sc.cancel = cancel

	cfg := sc.server.cfg
	for _, proc := range []struct {
		name     string
		interval time.Duration
		tick     func(context.Context)
	}{
		{"spawner", cfg.SpawnInterval, sc.server.spawnTick},
		{"wanderer", cfg.MoveInterval, sc.server.wanderTick},
		{"locker", cfg.LockInterval, sc.server.relockTick},
		{"lighting", cfg.LightInterval, sc.server.lightTick},
	} {
		sc.wg.Add(1)
		go sc.run(ctx, proc.name, proc.interval, proc.tick)
	}
	sc.logger.Info("world scheduler started")
	return nil
}

// Stop halts all simulation goroutines and waits for them to finish.
func (sc *Scheduler) Stop() {
	if sc.cancel != nil {
		sc.cancel()
	}
	sc.wg.Wait()
	sc.logger.Info("world scheduler stopped")
}

func (sc *Scheduler) run(ctx context.Context, name string, interval time.Duration, tick func(context.Context)) {
	defer sc.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// spawnTick tops the mob population up to the configured target. Spawn level
// tracks the playing population: the average character level, jittered by up
// to three in either direction, floored at one.
func (s *Server) spawnTick(ctx context.Context) {
	for s.mobs.Count() < s.cfg.MobTarget {
		kind := ruleset.AllSpecies[s.rng.Intn(len(ruleset.AllSpecies))]
		roomID := s.pickSpawnRoom()
		if roomID == 0 {
			return
		}
		level := s.averageLevel() + s.rng.Intn(7) - 3
		if level < 1 {
			level = 1
		}
		name := fmt.Sprintf("%s %s", ruleset.RandomAdjective(s.rng), kind.DisplayName())

		m := s.mobs.Spawn(name, kind, level, roomID)
		s.bus.DisplayToRoom(roomID, fmt.Sprintf("A %s shuffles in.", m.Name))
		s.logger.Info("mob spawned",
			zap.String("mob", m.Name),
			zap.Int("level", m.Level),
			zap.Int64("room", m.RoomID),
		)
	}
}

// pickSpawnRoom draws a random room id from the configured spawn range,
// never the entry or safe room. Returns 0 when the range has no candidates.
func (s *Server) pickSpawnRoom() int64 {
	span := s.cfg.SpawnRoomMax - s.cfg.SpawnRoomMin + 1
	if span < 1 {
		return 0
	}
	candidates := 0
	for r := s.cfg.SpawnRoomMin; r <= s.cfg.SpawnRoomMax; r++ {
		if r != s.cfg.EntryRoom && r != s.cfg.SafeRoom {
			candidates++
		}
	}
	if candidates == 0 {
		return 0
	}
	for {
		roomID := s.cfg.SpawnRoomMin + s.rng.Intn(span)
		if roomID != s.cfg.EntryRoom && roomID != s.cfg.SafeRoom {
			return int64(roomID)
		}
	}
}

// averageLevel is the mean level of playing characters, 1 when nobody is on.
func (s *Server) averageLevel() int {
	var total, count int
	for _, sess := range s.sessions.Playing() {
		if c, ok := sess.Snapshot(); ok {
			total += c.Level
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return total / count
}

// wanderTick gives every unclaimed mob a coin-flip chance to wander through
// a random exit. Exit choice starts at a random direction and falls through
// the compass order; exits to the entry and safe rooms are never taken. A mob
// mid-fight never wanders.
func (s *Server) wanderTick(ctx context.Context) {
	for _, m := range s.mobs.All() {
		if m.Claimed() || s.rng.Float64() < 0.5 {
			continue
		}
		room, err := s.store.Room(ctx, m.RoomID)
		if err != nil {
			s.logger.Warn("wandering mob in unknown room",
				zap.String("mob", m.Name), zap.Int64("room", m.RoomID))
			continue
		}

		dest := s.pickWanderExit(room)
		if dest == 0 {
			continue
		}
		moved, err := s.mobs.Move(m.UID, dest)
		if err != nil {
			continue
		}
		s.bus.DisplayToRoom(room.ID, fmt.Sprintf("The %s leaves.", moved.Name))
		s.bus.DisplayToRoom(dest, fmt.Sprintf("A %s wanders in.", moved.Name))
		s.wakeMobs(dest)
	}
}

// pickWanderExit picks an exit starting from a random compass direction and
// falling through the rest, skipping closed exits, the entry room, and the
// safe room.
func (s *Server) pickWanderExit(room *world.Room) int64 {
	start := s.rng.Intn(len(world.MoveOrder))
	for i := 0; i < len(world.MoveOrder); i++ {
		dir := world.MoveOrder[(start+i)%len(world.MoveOrder)]
		if room.Locked && room.LockedDoor == dir {
			continue
		}
		dest := room.Exit(dir)
		if dest != 0 && dest != int64(s.cfg.EntryRoom) && dest != int64(s.cfg.SafeRoom) {
			return dest
		}
	}
	return 0
}

// relockTick re-locks every room that has a configured door lock.
func (s *Server) relockTick(ctx context.Context) {
	rooms, err := s.store.Rooms(ctx)
	if err != nil {
		s.logger.Error("listing rooms for re-lock", zap.Error(err))
		return
	}
	for _, room := range rooms {
		if room.RequiredItem == 0 || room.LockedDoor == "" || room.Locked {
			continue
		}
		if err := s.store.SetLocked(ctx, room.ID, true); err != nil {
			s.logger.Error("re-locking room", zap.Int64("room", room.ID), zap.Error(err))
			continue
		}
		s.bus.DisplayToRoom(room.ID, fmt.Sprintf("The %s door clicks shut.", room.LockedDoor))
	}
}

// lightTick flips day and night and tells every client to repaint. The
// directive is per session: a character who has switched the lights on keeps
// the day palette through the night.
func (s *Server) lightTick(ctx context.Context) {
	night := !s.night.Load()
	s.night.Store(night)

	for _, sess := range s.sessions.Playing() {
		c, ok := sess.Snapshot()
		if !ok {
			continue
		}
		msg, err := protocol.NewMessage(protocol.TypeSetClientFont, protocol.SetClientFont{Night: night && !c.Lights})
		if err != nil {
			s.logger.Error("encoding lighting directive", zap.Error(err))
			return
		}
		s.bus.ToSession(sess, msg)
	}
	if night {
		s.bus.DisplayToAll("Night falls over the wasteland.")
	} else {
		s.bus.DisplayToAll("The sun rises over the wasteland.")
	}
}
