package main

import (
	"math"
	"testing"
)

func TestCreateEntity(t *testing.T) {
	registerDefaults()

	e, err := CreateEntity("player")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if e.Def.Tag != "player" {
		t.Errorf("expected tag player, got %s", e.Def.Tag)
	}
	if e.Health != playerDef.MaxHealth {
		t.Errorf("expected health %v, got %v", playerDef.MaxHealth, e.Health)
	}
	if e.Scale != (Point{X: 1, Y: 1}) {
		t.Errorf("expected unit scale, got %+v", e.Scale)
	}

	if _, err := CreateEntity("no-such-tag"); err == nil {
		t.Error("expected error for unknown tag")
	}
}

func TestEntityDestroyOnce(t *testing.T) {
	e := NewEntity(gogopingDef)
	fired := 0
	e.OnDestroy(func(*Entity) { fired++ })

	e.Destroy()
	e.Destroy()
	if fired != 1 {
		t.Errorf("expected 1 destroy notification, got %d", fired)
	}
	if !e.Destroyed() {
		t.Error("expected destroyed")
	}
}

func TestEntityDamage(t *testing.T) {
	e := NewEntity(gogopingDef)
	e.Damage(30)
	if e.Health != 70 {
		t.Errorf("expected health 70, got %v", e.Health)
	}
	if e.Destroyed() {
		t.Error("should not be destroyed at 70 health")
	}
	e.Damage(70)
	if !e.Destroyed() {
		t.Error("should be destroyed at 0 health")
	}
}

func TestEntityMoveConvention(t *testing.T) {
	e := NewEntity(playerDef)

	// Angle 0 pushes along +y.
	e.Move(0)
	want := playerDef.Speed * playerDef.Friction
	if math.Abs(e.Vel.Y-want) > 1e-9 || math.Abs(e.Vel.X) > 1e-9 {
		t.Errorf("Move(0) gave velocity %+v, want (0, %v)", e.Vel, want)
	}

	// Angle pi/2 pushes along +x.
	e.Vel = Point{}
	e.Move(math.Pi / 2)
	if math.Abs(e.Vel.X-want) > 1e-9 || math.Abs(e.Vel.Y) > 1e-9 {
		t.Errorf("Move(pi/2) gave velocity %+v, want (%v, 0)", e.Vel, want)
	}
}

func TestEntityTickPhysics(t *testing.T) {
	e := NewEntity(playerDef)
	e.Move(0) // vel (0, 1.5)

	e.Tick(1000)
	if math.Abs(e.Pos.Y-1.5) > 1e-9 {
		t.Errorf("expected pos.y 1.5, got %v", e.Pos.Y)
	}
	// Velocity decays by (1 - friction).
	if math.Abs(e.Vel.Y-1.5*(1-playerDef.Friction)) > 1e-9 {
		t.Errorf("expected decayed velocity, got %v", e.Vel.Y)
	}
}

func TestEntityTickSpeedClamp(t *testing.T) {
	e := NewEntity(playerDef)
	e.Vel = Point{X: 100, Y: -100}

	e.Tick(1000)
	// Axes at or beyond speed are clamped to speed*friction before
	// integration.
	clamped := playerDef.Speed * playerDef.Friction
	if math.Abs(e.Pos.X-clamped) > 1e-9 {
		t.Errorf("expected pos.x %v, got %v", clamped, e.Pos.X)
	}
	if math.Abs(e.Pos.Y+clamped) > 1e-9 {
		t.Errorf("expected pos.y %v, got %v", -clamped, e.Pos.Y)
	}
}

func TestEntityBoundbox(t *testing.T) {
	e := NewEntity(playerDef)
	e.Pos = Point{X: 3, Y: 4}
	b := e.Boundbox()
	if b.X != 2.5 || b.Y != 3.5 || b.Width != 1 || b.Height != 1 {
		t.Errorf("unexpected boundbox %+v", b)
	}
}

func TestEntityApplyStatePresentKeys(t *testing.T) {
	e := NewEntity(gogopingDef)
	e.Health = 50
	e.Rotation = 1

	zero := 0.0
	e.ApplyState(EntityPatch{Health: &zero})
	if e.Health != 0 {
		t.Errorf("present zero value should apply, got %v", e.Health)
	}
	// Absent keys stay untouched.
	if e.Rotation != 1 {
		t.Errorf("absent key should not apply, got %v", e.Rotation)
	}
}

func TestEntityStatePatchRoundTrip(t *testing.T) {
	src := NewEntity(romiDef)
	src.Pos = Point{X: 1, Y: 2}
	src.Health = 42
	src.State = "walk"

	dst := NewEntity(romiDef)
	dst.ApplyState(src.ToState().Patch())
	if dst.Pos != src.Pos || dst.Health != src.Health || dst.State != src.State {
		t.Errorf("round trip mismatch: %+v vs %+v", dst, src)
	}
}

func TestChaseBehavior(t *testing.T) {
	target := NewEntity(playerDef)
	target.Pos = Point{X: 0, Y: 5}

	e := NewEntity(heartspingDef)
	e.Behavior = &ChaseBehavior{Target: target, AttackRange: 0.3, CooldownMs: 1000}

	e.Tick(16)
	if e.Vel.Y <= 0 {
		t.Errorf("chaser should move toward target, vel %+v", e.Vel)
	}

	// In range it bites once per cooldown.
	e.Pos = Point{X: 0, Y: 4.9}
	before := target.Health
	e.Tick(16)
	if target.Health != before-e.Def.Damage {
		t.Errorf("expected one attack, health %v -> %v", before, target.Health)
	}
	e.Tick(16)
	if target.Health != before-e.Def.Damage {
		t.Error("attack should be on cooldown")
	}
}
