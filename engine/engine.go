package engine

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
)

// TrackerState is everything one tracking session carries from frame to frame.
// Frames of a session must be processed in arrival order, one at a time.
type TrackerState struct {
	SessionID string
	Frame     int

	// entities is kept sorted by ascending identifier.
	entities   []*entity
	candidates []*candidate
	registry   *Registry
	nextToken  int
}

// NewTrackerState starts an empty session.
func NewTrackerState() *TrackerState {
	return &TrackerState{
		SessionID: uuid.NewString(),
		registry:  NewRegistry(),
	}
}

// Entities returns snapshots of the confirmed entities, by ascending identifier.
func (s *TrackerState) Entities() []EntitySnapshot {
	snaps := make([]EntitySnapshot, 0, len(s.entities))
	for _, e := range s.entities {
		snaps = append(snaps, e.snapshot())
	}
	return snaps
}

// Candidates returns snapshots of the live candidates.
func (s *TrackerState) Candidates() []CandidateSnapshot {
	snaps := make([]CandidateSnapshot, 0, len(s.candidates))
	for _, c := range s.candidates {
		snaps = append(snaps, CandidateSnapshot{Token: c.token, Count: c.count, Box: c.box, Centroid: c.centroid})
	}
	return snaps
}

// CandidateCount returns the number of live candidates.
func (s *TrackerState) CandidateCount() int {
	return len(s.candidates)
}

// IsRetired reports whether id belonged to an entity that was lost.
func (s *TrackerState) IsRetired(id int) bool {
	return s.registry.IsRetired(id)
}

func (s *TrackerState) newCandidate(r Region) *candidate {
	s.nextToken++
	c := &candidate{token: s.nextToken}
	c.observe(r)
	return c
}

func (s *TrackerState) nearEntity(p Point, dist float64) bool {
	for _, e := range s.entities {
		if e.centroid().Dist(p) < dist {
			return true
		}
	}
	return false
}

// FrameResult is the per-frame summary returned to the caller.
type FrameResult struct {
	Frame          int
	Entities       []EntitySnapshot
	CandidateCount int
	Promoted       []int
	Lost           []int
	RegionCount    int
	ValidCount     int
	UniqueCount    int
	Counts         StatusCounts
}

// Engine runs the per-frame passes for a fixed configuration. It holds no
// per-session state, so one Engine can drive any number of TrackerStates.
type Engine struct {
	cfg    Config
	logger logging.Logger
	filter func([]Region) []Region
}

// New validates cfg and returns an engine using it.
func New(cfg Config, logger logging.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid tracking config")
	}
	if cfg.Assignment == "" {
		cfg.Assignment = AssignGreedy
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		filter: NewRegionFilter(cfg),
	}, nil
}

// Config returns the configuration the engine was built with.
func (en *Engine) Config() Config {
	return en.cfg
}

// ProcessFrame advances st by one frame of regions and returns the frame summary.
// It never fails: malformed regions are filtered out and an empty frame is valid.
func (en *Engine) ProcessFrame(st *TrackerState, regions []Region) FrameResult {
	cfg := en.cfg
	st.Frame++
	res := FrameResult{Frame: st.Frame, RegionCount: len(regions)}

	valid := en.filter(regions)
	pool := Deduplicate(cfg, valid)
	res.ValidCount = len(valid)
	res.UniqueCount = len(pool)

	// claimed marks regions the candidate pass must not see.
	claimed := make([]bool, len(pool))
	en.mask(st.entities, pool, claimed)

	res.Lost = en.trackEntities(st, pool, claimed)
	en.mask(st.entities, pool, claimed)

	res.Promoted = en.trackCandidates(st, pool, claimed)

	res.Entities = st.Entities()
	res.CandidateCount = len(st.candidates)
	res.Counts = countStatuses(res.Entities)
	en.logger.Debugf("frame %d: %d regions, %d valid, %d unique, %d locked, %d candidates",
		res.Frame, res.RegionCount, res.ValidCount, res.UniqueCount, len(res.Entities), res.CandidateCount)
	return res
}

// mask claims every region whose centroid falls inside an entity's exclusion zone.
func (en *Engine) mask(entities []*entity, pool []Region, claimed []bool) {
	for _, e := range entities {
		zone := en.cfg.exclusionZone(e.box)
		for j, r := range pool {
			if !claimed[j] && pointIn(r.Centroid, zone) {
				claimed[j] = true
			}
		}
	}
}

// trackEntities re-acquires every confirmed entity and returns the identifiers of
// the ones that were lost.
func (en *Engine) trackEntities(st *TrackerState, pool []Region, claimed []bool) []int {
	if len(st.entities) == 0 {
		return nil
	}
	var matches []int
	if en.cfg.Assignment == AssignHungarian {
		var err error
		matches, err = en.cfg.assignHungarian(st.entities, pool)
		if err != nil {
			en.logger.Warnf("falling back to greedy assignment: %v", err)
			matches = nil
		}
	}
	if matches == nil {
		matches = en.cfg.assignGreedy(st.entities, pool)
	}

	var lost []int
	kept := st.entities[:0]
	for i, e := range st.entities {
		if j := matches[i]; j >= 0 {
			en.cfg.reacquire(e, pool[j])
			claimed[j] = true
			kept = append(kept, e)
			continue
		}
		if en.cfg.KeepLostEntities {
			e.velocity = Vector{}
			e.missed++
			kept = append(kept, e)
			continue
		}
		st.registry.Retire(e.id)
		lost = append(lost, e.id)
		c := e.centroid()
		en.logger.Infof("cell #%d lost near (%.0f, %.0f)", e.id, c.X, c.Y)
	}
	for i := len(kept); i < len(st.entities); i++ {
		st.entities[i] = nil
	}
	st.entities = kept
	return lost
}

// trackCandidates matches the unclaimed regions against last frame's candidates,
// promotes the ones that became stable, and drops every candidate left unmatched.
func (en *Engine) trackCandidates(st *TrackerState, pool []Region, claimed []bool) []int {
	cfg := en.cfg
	prev := st.candidates
	used := make([]bool, len(prev))
	next := make([]*candidate, 0, len(pool))
	var promoted []int

	for j, r := range pool {
		if claimed[j] {
			continue
		}
		best := -1
		bestDist := cfg.CandidateMatchDistance
		for k, c := range prev {
			if used[k] {
				continue
			}
			if d := c.centroid.Dist(r.Centroid); d < bestDist {
				best, bestDist = k, d
			}
		}

		var c *candidate
		if best >= 0 {
			used[best] = true
			c = prev[best]
			c.observe(r)
		} else {
			c = st.newCandidate(r)
		}

		if c.count >= cfg.StabilityThreshold && !st.nearEntity(c.centroid, cfg.CandidateMatchDistance) {
			e := newEntity(st.registry.Next(), c)
			st.entities = append(st.entities, e)
			promoted = append(promoted, e.id)
			en.logger.Infof("cell #%d confirmed at (%d, %d)", e.id, c.box.Min.X, c.box.Min.Y)
			continue
		}
		next = append(next, c)
	}

	sort.Slice(st.entities, func(a, b int) bool {
		return st.entities[a].id < st.entities[b].id
	})
	st.candidates = next
	return promoted
}
