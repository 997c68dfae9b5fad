package engine

import (
	"sort"
)

// isDuplicate reports whether cand describes the same object as an already accepted region.
// Any one of the overlap tests is enough.
func (cfg Config) isDuplicate(cand, kept Region) bool {
	if IOU(cand.Box, kept.Box) > cfg.DuplicateIOUThreshold {
		return true
	}
	if contains(kept.Box, cand.Box) {
		return true
	}
	if cand.Centroid.Dist(kept.Centroid) < cfg.DuplicateDistanceThreshold {
		return true
	}
	smaller := boxArea(cand.Box)
	if a := boxArea(kept.Box); a < smaller {
		smaller = a
	}
	return IntersectionArea(cand.Box, kept.Box) > cfg.DuplicateOverlapFraction*smaller
}

// Deduplicate removes overlapping regions of a single frame. Regions are visited
// largest first so bigger blobs win overlap conflicts; the result is ordered by
// descending area.
func Deduplicate(cfg Config, regions []Region) []Region {
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Area > sorted[j].Area
	})

	kept := make([]Region, 0, len(sorted))
	for _, r := range sorted {
		dup := false
		for _, k := range kept {
			if cfg.isDuplicate(r, k) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, r)
		}
	}
	return kept
}
