package engine

// NewRegionFilter returns a Regions->Regions filtering method that keeps regions
// inside the configured area, aspect ratio and compactness bounds. Regions whose
// ratios are undefined (zero height, zero perimeter) or whose values are not
// finite are dropped. The output keeps input order.
func NewRegionFilter(cfg Config) func([]Region) []Region {
	lo, hi := cfg.AspectRatioBounds[0], cfg.AspectRatioBounds[1]
	return func(regions []Region) []Region {
		out := make([]Region, 0, len(regions))
		for _, r := range regions {
			if !finite(r.Area, r.Perimeter, r.Centroid.X, r.Centroid.Y) {
				continue
			}
			if r.Area <= cfg.MinArea || r.Area >= cfg.MaxArea {
				continue
			}
			ratio, ok := r.AspectRatio()
			if !ok || ratio <= lo || ratio >= hi {
				continue
			}
			if r.Perimeter <= 0 || r.Compactness() <= cfg.MinCompactness {
				continue
			}
			out = append(out, r)
		}
		return out
	}
}
