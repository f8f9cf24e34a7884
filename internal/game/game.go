package game

import (
	"math/rand/v2"

	"github.com/ayusman/handrunner/internal/gesture"
)

// Config groups the game tuning.
type Config struct {
	World  WorldConfig
	Player PlayerConfig
	Enemy  EnemyConfig
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		World:  DefaultWorldConfig(),
		Player: DefaultPlayerConfig(),
		Enemy:  DefaultEnemyConfig(),
	}
}

// Game is one running level. Tick must be called from a single goroutine.
type Game struct {
	cfg     Config
	level   Level
	world   *World
	player  *Player
	enemies []*Enemy
	ticks   uint64
}

// New builds the world for level. rng picks each enemy's starting direction;
// nil means every enemy starts walking toward positive x.
func New(cfg Config, level Level, rng *rand.Rand) *Game {
	w := NewWorld(cfg.World)
	for _, b := range level.Blocks {
		w.Add(b.body())
	}

	g := &Game{
		cfg:    cfg,
		level:  level,
		world:  w,
		player: NewPlayer(w, cfg.Player, level.Start),
	}
	for _, pos := range level.Enemies {
		dir := 1
		if rng != nil && rng.IntN(2) == 1 {
			dir = -1
		}
		g.enemies = append(g.enemies, NewEnemy(w, cfg.Enemy, pos, dir))
	}
	return g
}

// Player returns the player.
func (g *Game) Player() *Player { return g.player }

// Enemies returns the enemies still in play.
func (g *Game) Enemies() []*Enemy { return g.enemies }

// Tick runs one frame: animation and input, a world step, then the
// post-step updates. Removed enemies leave the world afterwards.
func (g *Game) Tick(control Vec2, gest gesture.Gesture) error {
	g.player.Animate()
	g.player.Drive(control, gest)
	for _, e := range g.enemies {
		e.Animate()
	}

	if err := g.world.Step(g.cfg.World.Tick()); err != nil {
		return err
	}

	g.player.FixedUpdate()
	alive := g.enemies[:0]
	for _, e := range g.enemies {
		e.FixedUpdate()
		if e.Removed() {
			g.world.Remove(e.Body())
			continue
		}
		alive = append(alive, e)
	}
	g.enemies = alive
	g.ticks++
	return nil
}

// KeyPressed forwards a key to the player.
func (g *Game) KeyPressed(k Key) {
	g.player.KeyPressed(k)
}

// State is a snapshot of the whole game.
type State struct {
	Level   string       `json:"level"`
	Tick    uint64       `json:"tick"`
	Player  PlayerState  `json:"player"`
	Enemies []EnemyState `json:"enemies"`
}

// State returns a snapshot for the dashboard.
func (g *Game) State() State {
	s := State{
		Level:   g.level.Name,
		Tick:    g.ticks,
		Player:  g.player.State(),
		Enemies: make([]EnemyState, 0, len(g.enemies)),
	}
	for _, e := range g.enemies {
		s.Enemies = append(s.Enemies, e.State())
	}
	return s
}
