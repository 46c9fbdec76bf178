package main

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// EntityDef holds the declared constants of an entity variant. Defs are
// fixed at registration time and never mutated.
type EntityDef struct {
	Tag       string
	MaxHealth float64
	Damage    float64
	Speed     float64
	Friction  float64
	Scale     Point
	Anchor    Point
	Hitbox    Point
	Cates     []string
}

// EntityBehavior is the per-variant hook run after the base physics tick.
// Behaviors keep their own state (targets, timers) and drive the entity
// through its public methods.
type EntityBehavior interface {
	Tick(e *Entity, delta float64)
}

// Entity is a live game object owned by exactly one Instance.
type Entity struct {
	Def      EntityDef
	ID       string
	Health   float64
	Pos      Point
	Vel      Point
	Rotation float64
	Scale    Point
	Cates    []string
	State    string
	Behavior EntityBehavior
	Slots    map[int]*Item // equipment slots, player variants only

	destroyed bool
	onDestroy []func(*Entity)
}

var entityRegistry = map[string]func() *Entity{}

// RegisterEntity binds a tag to a factory. The last registration for a tag
// wins.
func RegisterEntity(tag string, factory func() *Entity) {
	entityRegistry[tag] = factory
}

// CreateEntity constructs a fresh entity for a registered tag.
func CreateEntity(tag string) (*Entity, error) {
	factory, ok := entityRegistry[tag]
	if !ok {
		return nil, fmt.Errorf("entity with tag %s not found", tag)
	}
	return factory(), nil
}

// NewEntity builds an entity from a def with a generated id. Health starts
// clamped to the declared maximum and the category set defaults to the
// declared one.
func NewEntity(def EntityDef) *Entity {
	return NewEntityWithID(def, uuid.NewString())
}

// NewEntityWithID builds an entity with a caller-supplied id, used to bind a
// player's avatar to their user id.
func NewEntityWithID(def EntityDef, id string) *Entity {
	return &Entity{
		Def:    def,
		ID:     id,
		Health: def.MaxHealth,
		Scale:  Point{X: 1, Y: 1},
		Cates:  append([]string(nil), def.Cates...),
	}
}

// OnDestroy registers a callback fired exactly once when the entity is
// destroyed.
func (e *Entity) OnDestroy(fn func(*Entity)) {
	e.onDestroy = append(e.onDestroy, fn)
}

// Destroyed reports whether the destroy notification has fired.
func (e *Entity) Destroyed() bool {
	return e.destroyed
}

// Destroy fires the destroy notification. Repeat calls are no-ops.
func (e *Entity) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	for _, fn := range e.onDestroy {
		fn(e)
	}
}

// Damage subtracts health; dropping to or below zero destroys the entity.
func (e *Entity) Damage(amount float64) {
	e.Health -= amount
	if e.Health <= 0 {
		e.Destroy()
	}
}

// Move adds a movement impulse along the given heading. Angle 0 maps to +y
// and angle pi/2 to +x (the impulse is speed*friction*(sin a, cos a)). This
// is the established axis convention of the simulation; client input mapping
// is built against it.
func (e *Entity) Move(angle float64) {
	e.Vel.X += e.Def.Speed * math.Sin(angle) * e.Def.Friction
	e.Vel.Y += e.Def.Speed * math.Cos(angle) * e.Def.Friction
}

// Boundbox returns the hitbox rectangle centered on the current position.
func (e *Entity) Boundbox() Bound {
	return Bound{
		X:      e.Pos.X - e.Def.Hitbox.X/2,
		Y:      e.Pos.Y - e.Def.Hitbox.Y/2,
		Width:  e.Def.Hitbox.X,
		Height: e.Def.Hitbox.Y,
	}
}

// Tick advances the base physics, then the variant behavior and any held
// items. delta is in milliseconds.
func (e *Entity) Tick(delta float64) {
	stepBody(&e.Pos, &e.Vel, e.Def.Speed, e.Def.Friction, delta)
	if e.Behavior != nil {
		e.Behavior.Tick(e, delta)
	}
	for _, item := range e.Slots {
		item.Tick(delta)
	}
}

// stepBody runs the shared physics integration for moving objects: velocity
// axes that reach the declared speed are clamped back to speed*friction,
// position integrates by delta/1000, then velocity decays by (1 - friction).
func stepBody(pos, vel *Point, speed, friction, delta float64) {
	if vel.X >= speed {
		vel.X = speed * friction
	}
	if vel.X <= -speed {
		vel.X = -speed * friction
	}
	if vel.Y >= speed {
		vel.Y = speed * friction
	}
	if vel.Y <= -speed {
		vel.Y = -speed * friction
	}
	pos.X += vel.X * delta / 1000
	pos.Y += vel.Y * delta / 1000
	deceleration := 1 - friction
	vel.X *= deceleration
	vel.Y *= deceleration
}

// ToState returns the full synchronization snapshot.
func (e *Entity) ToState() EntityState {
	return EntityState{
		ID:       e.ID,
		Tag:      e.Def.Tag,
		Health:   e.Health,
		Position: [2]float64{e.Pos.X, e.Pos.Y},
		Velocity: [2]float64{e.Vel.X, e.Vel.Y},
		Rotation: e.Rotation,
		Scale:    [2]float64{e.Scale.X, e.Scale.Y},
		Cates:    append([]string(nil), e.Cates...),
		State:    e.State,
	}
}

// ApplyState applies only the keys present in the patch. Zero values are
// valid present values.
func (e *Entity) ApplyState(p EntityPatch) {
	if p.Health != nil {
		e.Health = *p.Health
	}
	if p.Position != nil {
		e.Pos = Point{X: p.Position[0], Y: p.Position[1]}
	}
	if p.Velocity != nil {
		e.Vel = Point{X: p.Velocity[0], Y: p.Velocity[1]}
	}
	if p.Rotation != nil {
		e.Rotation = *p.Rotation
	}
	if p.Scale != nil {
		e.Scale = Point{X: p.Scale[0], Y: p.Scale[1]}
	}
	if p.Cates != nil {
		e.Cates = append([]string(nil), (*p.Cates)...)
	}
	if p.State != nil {
		e.State = *p.State
	}
}

// Patch converts a full snapshot into a patch with every key present, used
// to seed one object from another's state.
func (s EntityState) Patch() EntityPatch {
	health := s.Health
	pos := s.Position
	vel := s.Velocity
	rot := s.Rotation
	scale := s.Scale
	cates := append([]string(nil), s.Cates...)
	label := s.State
	return EntityPatch{
		Tag:      s.Tag,
		Health:   &health,
		Position: &pos,
		Velocity: &vel,
		Rotation: &rot,
		Scale:    &scale,
		Cates:    &cates,
		State:    &label,
	}
}
