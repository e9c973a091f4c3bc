// Package systems provides the spatial collision index and the adaptive
// degradation controller used by the main loop.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rockfall/components"
)

// SpatialGrid buckets rock entities into fixed-size cells so probe queries
// only test the local 3x3 neighborhood. Rebuilt from scratch every frame;
// rebuild cost is linear in entity count and the grid never owns entities.
//
// No false negatives as long as cellSize >= probe radius + rock radius
// (config validation enforces this); no false positives because the final
// test is exact.
type SpatialGrid struct {
	cellSize float32
	cols     int
	rows     int
	cells    [][]ecs.Entity // flat grid of entity lists
}

// NewSpatialGrid creates a grid covering the given screen size.
func NewSpatialGrid(width, height, cellSize float32) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]ecs.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity to the grid at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, x, y float32) {
	idx := g.cellIndex(x, y)
	if idx >= 0 && idx < len(g.cells) {
		g.cells[idx] = append(g.cells[idx], e)
	}
}

// QueryCircleInto appends every entity whose circle overlaps the probe
// circle to dst and returns the updated slice. Reuse dst across calls to
// avoid allocations. Only the probe's cell and its 8 neighbors are tested;
// the overlap test itself is exact squared distance, no square root.
func (g *SpatialGrid) QueryCircleInto(
	dst []ecs.Entity,
	x, y, r float32,
	posMap *ecs.Map1[components.Position],
	bodyMap *ecs.Map1[components.Body],
) []ecs.Entity {
	centerCol := int(x / g.cellSize)
	centerRow := int(y / g.cellSize)

	for dc := -1; dc <= 1; dc++ {
		col := centerCol + dc
		if col < 0 || col >= g.cols {
			continue
		}
		for dr := -1; dr <= 1; dr++ {
			row := centerRow + dr
			if row < 0 || row >= g.rows {
				continue
			}

			for _, e := range g.cells[row*g.cols+col] {
				pos := posMap.Get(e)
				body := bodyMap.Get(e)
				if pos == nil || body == nil {
					continue
				}

				dx := pos.X - x
				dy := pos.Y - y
				reach := r + body.Radius
				if dx*dx+dy*dy < reach*reach {
					dst = append(dst, e)
				}
			}
		}
	}

	return dst
}

// cellIndex returns the flat index for a screen position.
func (g *SpatialGrid) cellIndex(x, y float32) int {
	col := int(x / g.cellSize)
	row := int(y / g.cellSize)

	// Clamp to valid range
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return row*g.cols + col
}
