package engine

import (
	"github.com/pkg/errors"
)

// Assignment strategies for re-acquiring confirmed entities.
const (
	AssignGreedy    = "greedy"
	AssignHungarian = "hungarian"
)

// Reference values for the region validator. Areas are in square pixels.
var (
	DefaultMinArea           = 300.0
	DefaultMaxArea           = 20000.0
	DefaultAspectRatioBounds = [2]float64{0.2, 6.0}
	DefaultMinCompactness    = 0.15
)

// DefaultStabilityThreshold is the number of consecutive frames a candidate needs before it is confirmed.
var DefaultStabilityThreshold = 50

// DefaultCandidateMatchDistance is how far (px) a candidate may move between frames and
// still count as the same candidate.
var DefaultCandidateMatchDistance = 50.0

// Reference values for the duplicate resolver.
var (
	DefaultDuplicateIOUThreshold      = 0.3
	DefaultDuplicateDistanceThreshold = 30.0
	DefaultDuplicateOverlapFraction   = 0.4
)

// Reference values for re-acquiring confirmed entities.
var (
	DefaultSearchRadius            = 100.0
	DefaultAreaSimilarityThreshold = 0.4
	DefaultVelocitySmoothingAlpha  = 0.5
	DefaultPositionHistoryLength   = 5
	DefaultExclusionPadding        = 10
)

// DefaultMovementThreshold (px) and DefaultStayingFrameCount drive the moving/staying status.
var (
	DefaultMovementThreshold = 50.0
	DefaultStayingFrameCount = 30
)

// Config holds every tunable of a tracking session. All thresholds are in
// pixels at the resolution the regions were extracted at.
type Config struct {
	MinArea            float64    `json:"min_area"`
	MaxArea            float64    `json:"max_area"`
	AspectRatioBounds  [2]float64 `json:"aspect_ratio_bounds"`
	MinCompactness     float64    `json:"min_compactness"`
	StabilityThreshold int        `json:"stability_threshold"`

	CandidateMatchDistance float64 `json:"candidate_match_distance"`

	DuplicateIOUThreshold      float64 `json:"duplicate_iou_threshold"`
	DuplicateDistanceThreshold float64 `json:"duplicate_distance_threshold"`
	DuplicateOverlapFraction   float64 `json:"duplicate_overlap_fraction"`

	SearchRadius            float64 `json:"search_radius"`
	AreaSimilarityThreshold float64 `json:"area_similarity_threshold"`
	// VelocitySmoothingAlpha is the weight of the instantaneous velocity:
	// v = (1-alpha)*v_old + alpha*v_inst.
	VelocitySmoothingAlpha float64 `json:"velocity_smoothing_alpha"`
	PositionHistoryLength  int     `json:"position_history_length"`
	ExclusionPadding       int     `json:"exclusion_padding"`
	Assignment             string  `json:"assignment,omitempty"`
	KeepLostEntities       bool    `json:"keep_lost_entities,omitempty"`

	MovementThreshold float64 `json:"movement_threshold"`
	StayingFrameCount int     `json:"staying_frame_count"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		MinArea:                    DefaultMinArea,
		MaxArea:                    DefaultMaxArea,
		AspectRatioBounds:          DefaultAspectRatioBounds,
		MinCompactness:             DefaultMinCompactness,
		StabilityThreshold:         DefaultStabilityThreshold,
		CandidateMatchDistance:     DefaultCandidateMatchDistance,
		DuplicateIOUThreshold:      DefaultDuplicateIOUThreshold,
		DuplicateDistanceThreshold: DefaultDuplicateDistanceThreshold,
		DuplicateOverlapFraction:   DefaultDuplicateOverlapFraction,
		SearchRadius:               DefaultSearchRadius,
		AreaSimilarityThreshold:    DefaultAreaSimilarityThreshold,
		VelocitySmoothingAlpha:     DefaultVelocitySmoothingAlpha,
		PositionHistoryLength:      DefaultPositionHistoryLength,
		ExclusionPadding:           DefaultExclusionPadding,
		Assignment:                 AssignGreedy,
		MovementThreshold:          DefaultMovementThreshold,
		StayingFrameCount:          DefaultStayingFrameCount,
	}
}

// Attributes is the user-facing form of Config. Every field is optional: a nil
// field keeps the default, any set value (zero included) overrides it.
type Attributes struct {
	MinArea            *float64    `json:"min_area,omitempty"`
	MaxArea            *float64    `json:"max_area,omitempty"`
	AspectRatioBounds  *[2]float64 `json:"aspect_ratio_bounds,omitempty"`
	MinCompactness     *float64    `json:"min_compactness,omitempty"`
	StabilityThreshold *int        `json:"stability_threshold,omitempty"`

	CandidateMatchDistance *float64 `json:"candidate_match_distance,omitempty"`

	DuplicateIOUThreshold      *float64 `json:"duplicate_iou_threshold,omitempty"`
	DuplicateDistanceThreshold *float64 `json:"duplicate_distance_threshold,omitempty"`
	DuplicateOverlapFraction   *float64 `json:"duplicate_overlap_fraction,omitempty"`

	SearchRadius            *float64 `json:"search_radius,omitempty"`
	AreaSimilarityThreshold *float64 `json:"area_similarity_threshold,omitempty"`
	VelocitySmoothingAlpha  *float64 `json:"velocity_smoothing_alpha,omitempty"`
	PositionHistoryLength   *int     `json:"position_history_length,omitempty"`
	ExclusionPadding        *int     `json:"exclusion_padding,omitempty"`
	Assignment              string   `json:"assignment,omitempty"`
	KeepLostEntities        bool     `json:"keep_lost_entities,omitempty"`

	MovementThreshold *float64 `json:"movement_threshold,omitempty"`
	StayingFrameCount *int     `json:"staying_frame_count,omitempty"`
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// Config returns DefaultConfig with every set attribute applied on top.
func (a Attributes) Config() Config {
	cfg := DefaultConfig()
	setFloat(&cfg.MinArea, a.MinArea)
	setFloat(&cfg.MaxArea, a.MaxArea)
	if a.AspectRatioBounds != nil {
		cfg.AspectRatioBounds = *a.AspectRatioBounds
	}
	setFloat(&cfg.MinCompactness, a.MinCompactness)
	setInt(&cfg.StabilityThreshold, a.StabilityThreshold)
	setFloat(&cfg.CandidateMatchDistance, a.CandidateMatchDistance)
	setFloat(&cfg.DuplicateIOUThreshold, a.DuplicateIOUThreshold)
	setFloat(&cfg.DuplicateDistanceThreshold, a.DuplicateDistanceThreshold)
	setFloat(&cfg.DuplicateOverlapFraction, a.DuplicateOverlapFraction)
	setFloat(&cfg.SearchRadius, a.SearchRadius)
	setFloat(&cfg.AreaSimilarityThreshold, a.AreaSimilarityThreshold)
	setFloat(&cfg.VelocitySmoothingAlpha, a.VelocitySmoothingAlpha)
	setInt(&cfg.PositionHistoryLength, a.PositionHistoryLength)
	setInt(&cfg.ExclusionPadding, a.ExclusionPadding)
	if a.Assignment != "" {
		cfg.Assignment = a.Assignment
	}
	cfg.KeepLostEntities = a.KeepLostEntities
	setFloat(&cfg.MovementThreshold, a.MovementThreshold)
	setInt(&cfg.StayingFrameCount, a.StayingFrameCount)
	return cfg
}

// Validate rejects configurations that cannot describe a tracking session.
func (cfg Config) Validate() error {
	if cfg.MinArea < 0 {
		return errors.New("min_area cannot be negative")
	}
	if cfg.MinArea >= cfg.MaxArea {
		return errors.Errorf("min_area (%v) must be smaller than max_area (%v)", cfg.MinArea, cfg.MaxArea)
	}
	lo, hi := cfg.AspectRatioBounds[0], cfg.AspectRatioBounds[1]
	if lo < 0 || lo >= hi {
		return errors.Errorf("aspect_ratio_bounds must be an increasing pair of non-negative numbers, got [%v, %v]", lo, hi)
	}
	if cfg.MinCompactness < 0 {
		return errors.New("min_compactness cannot be negative")
	}
	if cfg.StabilityThreshold < 1 {
		return errors.New("stability_threshold must be at least 1 frame")
	}
	if cfg.CandidateMatchDistance <= 0 {
		return errors.New("candidate_match_distance must be a positive number")
	}
	for name, v := range map[string]float64{
		"duplicate_iou_threshold":    cfg.DuplicateIOUThreshold,
		"duplicate_overlap_fraction": cfg.DuplicateOverlapFraction,
		"area_similarity_threshold":  cfg.AreaSimilarityThreshold,
		"velocity_smoothing_alpha":   cfg.VelocitySmoothingAlpha,
	} {
		if v < 0 || v > 1 {
			return errors.Errorf("%s must be between 0.0 and 1.0, got %v", name, v)
		}
	}
	if cfg.DuplicateDistanceThreshold < 0 {
		return errors.New("duplicate_distance_threshold cannot be negative")
	}
	if cfg.SearchRadius <= 0 {
		return errors.New("search_radius must be a positive number")
	}
	if cfg.PositionHistoryLength < 1 {
		return errors.New("position_history_length must be at least 1")
	}
	if cfg.ExclusionPadding < 0 {
		return errors.New("exclusion_padding cannot be negative")
	}
	switch cfg.Assignment {
	case "", AssignGreedy, AssignHungarian:
	default:
		return errors.Errorf("unknown assignment strategy %q", cfg.Assignment)
	}
	if cfg.MovementThreshold < 0 {
		return errors.New("movement_threshold cannot be negative")
	}
	if cfg.StayingFrameCount < 1 {
		return errors.New("staying_frame_count must be at least 1")
	}
	return nil
}
