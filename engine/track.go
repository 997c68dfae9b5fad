package engine

import (
	"image"
)

// Status describes how a confirmed entity has been behaving lately.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusMoving  Status = "moving"
	StatusStaying Status = "staying"
)

// candidate is a region seen in an unbroken run of frames but not yet confirmed.
type candidate struct {
	token    int
	count    int
	box      image.Rectangle
	centroid Point
	area     float64
}

func (c *candidate) observe(r Region) {
	c.count++
	c.box = r.Box
	c.centroid = r.Centroid
	c.area = r.Area
}

// entity is a confirmed, motion tracked object.
type entity struct {
	id       int
	box      image.Rectangle
	velocity Vector
	// history holds the most recent centroids, oldest first.
	history     []Point
	area        float64
	status      Status
	stillFrames int
	age         int
	missed      int
}

func newEntity(id int, c *candidate) *entity {
	return &entity{
		id:      id,
		box:     c.box,
		history: []Point{c.centroid},
		area:    c.area,
		status:  StatusUnknown,
	}
}

func (e *entity) centroid() Point {
	return e.history[len(e.history)-1]
}

func (e *entity) predict() Point {
	return e.centroid().Add(e.velocity)
}

func (e *entity) pushHistory(p Point, limit int) {
	e.history = append(e.history, p)
	if len(e.history) > limit {
		e.history = append([]Point(nil), e.history[len(e.history)-limit:]...)
	}
}

func (e *entity) snapshot() EntitySnapshot {
	return EntitySnapshot{
		ID:       e.id,
		Box:      e.box,
		Centroid: e.centroid(),
		Velocity: e.velocity,
		History:  append([]Point(nil), e.history...),
		Status:   e.status,
		Age:      e.age,
		Missed:   e.missed,
	}
}

// EntitySnapshot is a read-only copy of a confirmed entity handed to callers.
type EntitySnapshot struct {
	ID       int
	Box      image.Rectangle
	Centroid Point
	Velocity Vector
	History  []Point
	Status   Status
	// Age counts successful re-acquisitions since confirmation.
	Age int
	// Missed counts consecutive frames without a match. It only grows when lost
	// entities are kept.
	Missed int
}

// CandidateSnapshot is a read-only copy of a candidate handed to callers.
type CandidateSnapshot struct {
	Token    int
	Count    int
	Box      image.Rectangle
	Centroid Point
}

// StatusCounts summarizes the confirmed entities of a frame.
type StatusCounts struct {
	Total   int
	Moving  int
	Staying int
	Unknown int
}

func countStatuses(snaps []EntitySnapshot) StatusCounts {
	counts := StatusCounts{Total: len(snaps)}
	for _, s := range snaps {
		switch s.Status {
		case StatusMoving:
			counts.Moving++
		case StatusStaying:
			counts.Staying++
		default:
			counts.Unknown++
		}
	}
	return counts
}
