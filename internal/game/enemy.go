package game

import "math"

// EnemyConfig tunes the walking enemy.
type EnemyConfig struct {
	Speed        float64 `yaml:"speed"`
	HopVelocity  float64 `yaml:"hop_velocity"`
	TurnDistance float64 `yaml:"turn_distance"`
	SquashTime   float64 `yaml:"squash_time"`
	Bounce       float64 `yaml:"bounce"`
	Size         float64 `yaml:"size"`
}

// DefaultEnemyConfig returns the reference tuning.
func DefaultEnemyConfig() EnemyConfig {
	return EnemyConfig{
		Speed:        4,
		HopVelocity:  2,
		TurnDistance: 5,
		SquashTime:   5,
		Bounce:       10,
		Size:         0.16,
	}
}

const (
	stuckDistance = 0.01
	walkAdvance   = 0.05
	squashAdvance = 0.01
	// a player whose centre is this close vertically hit the enemy side-on
	levelTolerance = 0.1
)

// Enemy walks back and forth, hopping when blocked. Landing on it squashes
// it; touching a squashed enemy removes it; walking into it kills the player.
type Enemy struct {
	cfg  EnemyConfig
	body *Body

	direction float64
	lastX     float64
	travelled float64
	squashed  bool
	squashFor float64
	removed   bool

	timing float64
	frame  int
}

// NewEnemy creates an enemy at pos walking in direction (+1 or -1).
func NewEnemy(w *World, cfg EnemyConfig, pos Vec2, direction int) *Enemy {
	e := &Enemy{
		cfg:       cfg,
		direction: 1,
		lastX:     pos.X,
	}
	if direction < 0 {
		e.direction = -1
	}
	e.body = w.Add(&Body{
		Position: pos,
		Velocity: Vec2{X: e.direction * cfg.Speed},
		Width:    cfg.Size,
		Height:   cfg.Size,
		Owner:    e,
	})
	return e
}

// Body returns the enemy's physics body.
func (e *Enemy) Body() *Body { return e.body }

// Removed reports whether the enemy should leave the world.
func (e *Enemy) Removed() bool { return e.removed }

// FixedUpdate keeps the walk going after a world step.
func (e *Enemy) FixedUpdate() {
	x := e.body.Position.X
	if math.Abs(x-e.lastX) < stuckDistance && !e.squashed {
		e.body.Velocity = Vec2{X: e.direction * e.cfg.Speed, Y: e.cfg.HopVelocity}
	}

	e.travelled += math.Abs(x - e.lastX)
	e.lastX = x

	if e.squashed {
		e.travelled = 0
	} else {
		e.body.Velocity.X = e.direction * e.cfg.Speed
	}

	if e.travelled > e.cfg.TurnDistance {
		e.turn()
	}
}

func (e *Enemy) turn() {
	e.direction = -e.direction
	e.travelled = 0
}

// Animate alternates the walk frames and counts down a squash.
func (e *Enemy) Animate() {
	if e.timing > 1 {
		e.frame = 1 - e.frame
		e.timing = 0
	}
	e.timing += walkAdvance

	if e.squashed {
		e.squashFor += squashAdvance
		if e.squashFor > e.cfg.SquashTime {
			e.squashed = false
			e.squashFor = 0
		}
	}
}

// BeginContact handles the player stomping or running into the enemy and
// reverses direction on any moving body.
func (e *Enemy) BeginContact(other *Body) {
	if p, ok := other.Owner.(*Player); ok {
		if e.squashed {
			e.removed = true
		}
		e.squashed = true
		other.Velocity.Y = e.cfg.Bounce
		if math.Abs(e.body.Position.Y-other.Position.Y) < levelTolerance {
			p.Kill()
		}
	}
	if !other.Static {
		e.turn()
	}
}

// EndContact is a no-op.
func (e *Enemy) EndContact(other *Body) {}

// EnemyState is a snapshot for the dashboard.
type EnemyState struct {
	Position Vec2 `json:"position"`
	Squashed bool `json:"squashed"`
	Frame    int  `json:"frame"`
}

// State returns a snapshot of the enemy.
func (e *Enemy) State() EnemyState {
	frame := e.frame
	if e.squashed {
		frame = 2
	}
	return EnemyState{
		Position: e.body.Position,
		Squashed: e.squashed,
		Frame:    frame,
	}
}
