package main

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Equipment slot indices, shared with the user document.
const (
	SlotMainWeapon = 0
	SlotSubWeapon  = 1
	SlotHead       = 64
	SlotBody       = 65
	SlotLegs       = 66
)

var playerDef = EntityDef{
	Tag:       "player",
	MaxHealth: 100,
	Damage:    10,
	Speed:     5,
	Friction:  0.3,
	Scale:     Point{X: 1, Y: 2},
	Anchor:    Point{X: 0.5, Y: 0.75},
	Hitbox:    Point{X: 1, Y: 1},
	Cates:     []string{"attackable", "player"},
}

var gogopingDef = EntityDef{
	Tag:       "gogoping",
	MaxHealth: 100,
	Damage:    10,
	Speed:     1,
	Friction:  0.3,
	Scale:     Point{X: 1, Y: 1},
	Anchor:    Point{X: 0.5, Y: 0.5},
	Hitbox:    Point{X: 1, Y: 1},
	Cates:     []string{"attackable", "enemy"},
}

var heartspingDef = EntityDef{
	Tag:       "heartsping",
	MaxHealth: 100,
	Damage:    10,
	Speed:     1,
	Friction:  0.3,
	Scale:     Point{X: 1, Y: 1},
	Anchor:    Point{X: 0.5, Y: 0.5},
	Hitbox:    Point{X: 1, Y: 1},
	Cates:     []string{"attackable", "enemy"},
}

var romiDef = EntityDef{
	Tag:       "romi",
	MaxHealth: 100,
	Damage:    10,
	Speed:     10,
	Friction:  0.3,
	Scale:     Point{X: 2, Y: 2},
	Anchor:    Point{X: 0.5, Y: 0.5},
	Hitbox:    Point{X: 2, Y: 2},
	Cates:     []string{"attackable", "enemy"},
}

// NewPlayerEntity builds a player avatar bound to the given user id.
func NewPlayerEntity(userID string) *Entity {
	e := NewEntityWithID(playerDef, userID)
	e.Slots = make(map[int]*Item)
	return e
}

// Equip loads item instances into the entity's equipment slots. Unknown
// item tags are reported, already-filled slots are replaced.
func (e *Entity) Equip(equipments []Equipment) error {
	if e.Slots == nil {
		e.Slots = make(map[int]*Item)
	}
	for _, eq := range equipments {
		switch eq.Slot {
		case SlotMainWeapon, SlotSubWeapon, SlotHead, SlotBody, SlotLegs:
			item, err := CreateItem(eq.Tag)
			if err != nil {
				return fmt.Errorf("equip slot %d: %w", eq.Slot, err)
			}
			e.Slots[eq.Slot] = item
		}
	}
	return nil
}

// ChaseBehavior pursues a target entity: every tick it recomputes the
// heading toward the target, feeds it to Move, and when within attack range
// and off cooldown applies damage directly to the target.
type ChaseBehavior struct {
	Target      *Entity
	AttackRange float64
	CooldownMs  float64
	timer       float64
}

func (b *ChaseBehavior) Tick(e *Entity, delta float64) {
	if b.timer > 0 {
		b.timer -= delta
	}
	if b.Target == nil || b.Target.Destroyed() {
		return
	}
	dx := b.Target.Pos.X - e.Pos.X
	dy := b.Target.Pos.Y - e.Pos.Y
	// Move's angle convention is 0 -> +y, so the heading is atan2(dx, dy).
	e.Move(math.Atan2(dx, dy))
	if Distance(e.Pos.X, e.Pos.Y, b.Target.Pos.X, b.Target.Pos.Y) < b.AttackRange && b.timer <= 0 {
		b.Target.Damage(e.Def.Damage)
		b.timer = b.CooldownMs
	}
}

func registerDefaultEntities() {
	RegisterEntity("player", func() *Entity { return NewPlayerEntity(uuid.NewString()) })
	RegisterEntity("gogoping", func() *Entity { return NewEntity(gogopingDef) })
	RegisterEntity("romi", func() *Entity { return NewEntity(romiDef) })
	RegisterEntity("heartsping", func() *Entity {
		e := NewEntity(heartspingDef)
		e.Behavior = &ChaseBehavior{AttackRange: 0.3, CooldownMs: 1000}
		return e
	})
}
