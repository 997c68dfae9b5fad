package engine

import (
	"image"
	"math"

	hg "github.com/charles-haynes/munkres"
	"github.com/pkg/errors"
)

// unreachableCost marks entity/region pairs outside the gate in the cost matrix.
const unreachableCost = 1e9

// exclusionZone returns the padded box around an entity inside which no new
// candidate may start.
func (cfg Config) exclusionZone(box image.Rectangle) image.Rectangle {
	return box.Inset(-cfg.ExclusionPadding)
}

// gate returns the distance between the entity's predicted centroid and the region,
// and whether the region is close enough and similar enough in area to be the entity.
func (cfg Config) gate(e *entity, r Region) (float64, bool) {
	d := e.predict().Dist(r.Centroid)
	if d > cfg.SearchRadius {
		return d, false
	}
	if e.area <= 0 || r.Area <= 0 {
		return d, false
	}
	sim := math.Min(e.area, r.Area) / math.Max(e.area, r.Area)
	return d, sim > cfg.AreaSimilarityThreshold
}

// assignGreedy lets each entity, in the given order, take the closest qualifying
// region nobody took before it. The result holds a region index per entity, or -1.
func (cfg Config) assignGreedy(entities []*entity, pool []Region) []int {
	matches := make([]int, len(entities))
	taken := make([]bool, len(pool))
	for i, e := range entities {
		matches[i] = -1
		best := math.Inf(1)
		for j, r := range pool {
			if taken[j] {
				continue
			}
			d, ok := cfg.gate(e, r)
			if ok && d < best {
				best = d
				matches[i] = j
			}
		}
		if matches[i] >= 0 {
			taken[matches[i]] = true
		}
	}
	return matches
}

// buildMatchingMatrix sets up a cost matrix for the Hungarian algorithm.
// Cost is the distance from the predicted centroid; pairs failing the gate get unreachableCost.
func (cfg Config) buildMatchingMatrix(entities []*entity, pool []Region) ([][]float64, [][]bool) {
	costs := make([][]float64, len(entities))
	feasible := make([][]bool, len(entities))
	for i, e := range entities {
		costs[i] = make([]float64, len(pool))
		feasible[i] = make([]bool, len(pool))
		for j, r := range pool {
			d, ok := cfg.gate(e, r)
			if ok {
				costs[i][j] = d
				feasible[i][j] = true
			} else {
				costs[i][j] = unreachableCost
			}
		}
	}
	return costs, feasible
}

// assignHungarian solves one global assignment between entities and regions via
// Munkres' method and discards pairs that fail the gate.
func (cfg Config) assignHungarian(entities []*entity, pool []Region) ([]int, error) {
	matches := make([]int, len(entities))
	for i := range matches {
		matches[i] = -1
	}
	if len(entities) == 0 || len(pool) == 0 {
		return matches, nil
	}
	costs, feasible := cfg.buildMatchingMatrix(entities, pool)
	HA, err := hg.NewHungarianAlgorithm(costs)
	if err != nil {
		return nil, errors.Wrap(err, "cannot build assignment problem")
	}
	for i, j := range HA.Execute() {
		if i >= len(entities) || j < 0 || j >= len(pool) {
			continue
		}
		if feasible[i][j] {
			matches[i] = j
		}
	}
	return matches, nil
}

// reacquire moves a matched entity to its new region: the velocity is smoothed
// toward the observed displacement, the box keeps its size and is re-centered,
// and the centroid history is extended.
func (cfg Config) reacquire(e *entity, r Region) {
	inst := r.Centroid.Sub(e.centroid())
	a := cfg.VelocitySmoothingAlpha
	e.velocity = e.velocity.Scale(1 - a).Plus(inst.Scale(a))
	e.box = centeredBox(r.Centroid, e.box.Size())
	e.area = r.Area
	e.pushHistory(r.Centroid, cfg.PositionHistoryLength)
	e.age++
	e.missed = 0
	cfg.classify(e)
}

// classify updates the moving/staying status from the span of the centroid history.
func (cfg Config) classify(e *entity) {
	if len(e.history) < 2 {
		return
	}
	if e.centroid().Dist(e.history[0]) > cfg.MovementThreshold {
		e.status = StatusMoving
		e.stillFrames = 0
		return
	}
	e.stillFrames++
	if e.stillFrames >= cfg.StayingFrameCount {
		e.status = StatusStaying
	}
}
