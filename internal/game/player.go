package game

import (
	"math"

	"github.com/ayusman/handrunner/internal/gesture"
)

// Key is a keyboard key the player reacts to.
type Key rune

// Keyboard fallback keys.
const (
	KeyA     Key = 'a'
	KeyD     Key = 'd'
	KeySpace Key = ' '
)

// ParseKey maps a key name to a Key.
func ParseKey(s string) (Key, bool) {
	switch s {
	case "a", "A":
		return KeyA, true
	case "d", "D":
		return KeyD, true
	case " ", "space", "Space":
		return KeySpace, true
	}
	return 0, false
}

// Sprite is the player texture to draw.
type Sprite int

const (
	SpriteStand Sprite = iota
	SpriteRun1
	SpriteRun2
	SpriteRun3
	SpriteSlide
	SpriteJump
)

var spriteNames = [...]string{"stand", "run1", "run2", "run3", "slide", "jump"}

func (s Sprite) String() string {
	if s < 0 || int(s) >= len(spriteNames) {
		return "unknown"
	}
	return spriteNames[s]
}

// MarshalText renders the sprite name.
func (s Sprite) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Facing is the sprite sheet to draw from. Positive x velocity draws the
// left-facing sheet since the world's x axis runs toward the player's left.
type Facing string

const (
	FacingRight Facing = "right"
	FacingLeft  Facing = "left"
)

// PlayerConfig holds the controller tuning.
type PlayerConfig struct {
	DeadZone      float64      `yaml:"dead_zone"`
	RunSpeed      float64      `yaml:"run_speed"`
	JumpThreshold float64      `yaml:"jump_threshold"`
	JumpVelocity  float64      `yaml:"jump_velocity"`
	MaxJumps      int          `yaml:"max_jumps"`
	KeyboardSpeed float64      `yaml:"keyboard_speed"`
	RespawnY      float64      `yaml:"respawn_y"`
	Width         float64      `yaml:"width"`
	Height        float64      `yaml:"height"`
	Camera        CameraConfig `yaml:"camera"`
}

// CameraConfig bounds the view that follows the player.
type CameraConfig struct {
	OffsetX float64 `yaml:"offset_x"`
	OffsetY float64 `yaml:"offset_y"`
	MinX    float64 `yaml:"min_x"`
	MaxX    float64 `yaml:"max_x"`
}

// DefaultPlayerConfig returns the reference tuning.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		DeadZone:      0.1,
		RunSpeed:      32,
		JumpThreshold: 0.4,
		JumpVelocity:  10,
		MaxJumps:      2,
		KeyboardSpeed: 8,
		RespawnY:      -1,
		Width:         0.16,
		Height:        0.3,
		Camera: CameraConfig{
			OffsetX: -0.275,
			OffsetY: 0.285,
			MinX:    -12.65,
			MaxX:    -0.715,
		},
	}
}

// animation pacing
const (
	frameAdvance  = 0.2
	runFrames     = 3
	runSpeedLimit = 1.0
	slideLimit    = 0.5
	airborneSpeed = 0.5
)

// Player maps hand control onto a body.
type Player struct {
	cfg  PlayerConfig
	body *Body

	start    Vec2
	cameraY  float64
	camera   Vec2
	jumps    int
	running  bool
	jumping  bool
	dead     bool
	respawns int

	timing  float64
	frame   int
	sprite  Sprite
	facing  Facing
	gesture gesture.Gesture
}

// NewPlayer creates a player standing at start and adds its body to w.
func NewPlayer(w *World, cfg PlayerConfig, start Vec2) *Player {
	p := &Player{
		cfg:     cfg,
		start:   start,
		cameraY: start.Y + cfg.Camera.OffsetY,
		facing:  FacingRight,
	}
	p.body = w.Add(&Body{
		Position: start,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Owner:    p,
	})
	p.camera = p.cameraTarget()
	return p
}

// Body returns the player's physics body.
func (p *Player) Body() *Body { return p.body }

// Drive applies one frame of hand input. The horizontal component sets the
// run velocity outside the dead zone; a vertical component above the hand
// (below JumpThreshold) jumps while jumps remain.
func (p *Player) Drive(control Vec2, g gesture.Gesture) {
	p.gesture = g

	if math.Abs(control.X) > p.cfg.DeadZone {
		p.body.Velocity.X = p.cfg.RunSpeed * control.X
		p.running = true
	} else {
		p.running = false
	}

	if control.Y < p.cfg.JumpThreshold {
		p.jump()
	}
}

func (p *Player) jump() {
	if p.jumps >= p.cfg.MaxJumps {
		return
	}
	p.body.Velocity.Y = p.cfg.JumpVelocity
	p.jumps++
}

// KeyPressed is the keyboard fallback: A and D run, space jumps.
func (p *Player) KeyPressed(k Key) {
	switch k {
	case KeyA:
		p.body.Velocity.X = p.cfg.KeyboardSpeed
	case KeyD:
		p.body.Velocity.X = -p.cfg.KeyboardSpeed
	case KeySpace:
		p.jump()
	}
	p.running = k == KeyA || k == KeyD
}

// Animate advances the sprite from the current velocity.
func (p *Player) Animate() {
	if p.timing > 1 {
		p.frame++
		p.timing = 0
	}
	if p.frame == runFrames {
		p.frame = 0
	}
	p.timing += frameAdvance

	vx := p.body.Velocity.X
	switch {
	case math.Abs(vx) > runSpeedLimit && p.running:
		p.sprite = SpriteRun1 + Sprite(p.frame)
	case math.Abs(vx) > slideLimit:
		p.sprite = SpriteSlide
		p.frame = 0
	default:
		p.sprite = SpriteStand
		p.frame = 0
	}
	if p.jumping {
		p.sprite = SpriteJump
	}

	if vx > 0 {
		p.facing = FacingLeft
	} else {
		p.facing = FacingRight
	}
}

// FixedUpdate runs after each world step: the camera follows and a fallen
// or dead player respawns at the start.
func (p *Player) FixedUpdate() {
	p.camera = p.cameraTarget()

	if p.body.Position.Y < p.cfg.RespawnY || p.dead {
		p.body.Position = p.start
		p.body.Velocity = Vec2{}
		p.dead = false
		p.respawns++
	}
}

func (p *Player) cameraTarget() Vec2 {
	x := p.body.Position.X + p.cfg.Camera.OffsetX
	x = math.Max(p.cfg.Camera.MinX, math.Min(p.cfg.Camera.MaxX, x))
	return Vec2{X: x, Y: p.cameraY}
}

// Kill marks the player for respawn on the next FixedUpdate.
func (p *Player) Kill() { p.dead = true }

// BeginContact resets the jump budget.
func (p *Player) BeginContact(other *Body) {
	p.jumping = false
	p.jumps = 0
}

// EndContact marks the player airborne when leaving a body with vertical speed.
func (p *Player) EndContact(other *Body) {
	if math.Abs(p.body.Velocity.Y) > airborneSpeed {
		p.jumping = true
	}
}

// PlayerState is a snapshot for the dashboard.
type PlayerState struct {
	Position Vec2            `json:"position"`
	Velocity Vec2            `json:"velocity"`
	Camera   Vec2            `json:"camera"`
	Sprite   Sprite          `json:"sprite"`
	Facing   Facing          `json:"facing"`
	Jumps    int             `json:"jumps"`
	Running  bool            `json:"running"`
	Jumping  bool            `json:"jumping"`
	Respawns int             `json:"respawns"`
	Gesture  gesture.Gesture `json:"gesture"`
}

// State returns a snapshot of the player.
func (p *Player) State() PlayerState {
	return PlayerState{
		Position: p.body.Position,
		Velocity: p.body.Velocity,
		Camera:   p.camera,
		Sprite:   p.sprite,
		Facing:   p.facing,
		Jumps:    p.jumps,
		Running:  p.running,
		Jumping:  p.jumping,
		Respawns: p.respawns,
		Gesture:  p.gesture,
	}
}
