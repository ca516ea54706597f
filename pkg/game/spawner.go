package game

import (
	"math/rand"
	"time"

	"github.com/trytobebee/snakeai/pkg/config"
	"github.com/trytobebee/snakeai/pkg/grid"
)

// Spawner places food and power-up food on free cells
type Spawner struct {
	rng     *rand.Rand
	safeTop int
	kinds   []PowerUpKind
}

// NewSpawner creates a spawner drawing from rng. The first safeTopRows rows
// never receive food.
func NewSpawner(rng *rand.Rand, safeTopRows int) *Spawner {
	return &Spawner{rng: rng, safeTop: safeTopRows}
}

// SetKinds replaces the set of power-up kinds that may spawn
func (sp *Spawner) SetKinds(kinds []PowerUpKind) {
	sp.kinds = append(sp.kinds[:0], kinds...)
}

// Kinds returns the enabled power-up kinds
func (sp *Spawner) Kinds() []PowerUpKind {
	out := make([]PowerUpKind, len(sp.kinds))
	copy(out, sp.kinds)
	return out
}

// PlaceFood samples a free cell uniformly. After MaxPlacementAttempts misses
// it scans for the first free cell; ok is false only when none exists.
func (sp *Spawner) PlaceFood(b grid.Board, occupied func(grid.Point) bool) (grid.Point, bool) {
	top := sp.safeTop
	if top < 0 || top >= b.Height {
		top = 0
	}
	rows := b.Height - top

	for attempts := 0; attempts < config.MaxPlacementAttempts; attempts++ {
		p := grid.Point{
			X: sp.rng.Intn(b.Width),
			Y: top + sp.rng.Intn(rows),
		}
		if !occupied(p) {
			return p, true
		}
	}

	for y := top; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if p := (grid.Point{X: x, Y: y}); !occupied(p) {
				return p, true
			}
		}
	}
	return grid.Point{}, false
}

// MaybePowerUp rolls the spawn chance and, on success, places a power-up of
// a random enabled kind unless that kind is already at its cap. occupied must
// cover the snake, the food and every existing power-up food.
func (sp *Spawner) MaybePowerUp(b grid.Board, now time.Time, existing []PowerUpFood, occupied func(grid.Point) bool) (PowerUpFood, bool) {
	if len(sp.kinds) == 0 {
		return PowerUpFood{}, false
	}
	if sp.rng.Float64() >= config.PowerUpSpawnChance {
		return PowerUpFood{}, false
	}

	kind := sp.kinds[sp.rng.Intn(len(sp.kinds))]
	count := 0
	for _, p := range existing {
		if p.Kind == kind {
			count++
		}
	}
	if count >= config.MaxPowerUpsPerKind {
		return PowerUpFood{}, false
	}

	cell, ok := sp.PlaceFood(b, occupied)
	if !ok {
		return PowerUpFood{}, false
	}
	return PowerUpFood{Cell: cell, Kind: kind, CreatedAt: now}, true
}
