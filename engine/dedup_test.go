package engine

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func boxRegion(r image.Rectangle) Region {
	reg := RegionFromBox(r)
	return reg
}

func TestIOU(t *testing.T) {
	a := image.Rect(0, 0, 10, 10)
	test.That(t, IOU(a, a), test.ShouldEqual, 1.0)
	test.That(t, IOU(a, image.Rect(5, 0, 15, 10)), test.ShouldAlmostEqual, 50.0/150.0, 1e-9)
	test.That(t, IOU(a, image.Rect(20, 20, 30, 30)), test.ShouldEqual, 0.0)
}

func TestDeduplicate(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("high iou keeps the larger", func(t *testing.T) {
		small := boxRegion(image.Rect(0, 0, 50, 50))
		big := boxRegion(image.Rect(10, 0, 70, 50))
		out := Deduplicate(cfg, []Region{small, big})
		test.That(t, out, test.ShouldHaveLength, 1)
		test.That(t, out[0].Box, test.ShouldResemble, big.Box)
	})

	t.Run("nested box", func(t *testing.T) {
		outer := boxRegion(image.Rect(0, 0, 100, 100))
		inner := boxRegion(image.Rect(80, 80, 95, 95))
		test.That(t, IOU(outer.Box, inner.Box), test.ShouldBeLessThan, cfg.DuplicateIOUThreshold)
		out := Deduplicate(cfg, []Region{inner, outer})
		test.That(t, out, test.ShouldHaveLength, 1)
		test.That(t, out[0].Box, test.ShouldResemble, outer.Box)
	})

	t.Run("shared center", func(t *testing.T) {
		wide := boxRegion(image.Rect(0, 45, 100, 55))
		tall := boxRegion(image.Rect(45, 0, 55, 100))
		test.That(t, cfg.isDuplicate(tall, wide), test.ShouldBeTrue)
		test.That(t, Deduplicate(cfg, []Region{wide, tall}), test.ShouldHaveLength, 1)
	})

	t.Run("large share of the smaller box", func(t *testing.T) {
		a := boxRegion(image.Rect(0, 0, 100, 100))
		b := boxRegion(image.Rect(70, 0, 110, 40))
		test.That(t, IOU(a.Box, b.Box), test.ShouldBeLessThan, cfg.DuplicateIOUThreshold)
		test.That(t, a.Centroid.Dist(b.Centroid), test.ShouldBeGreaterThan, cfg.DuplicateDistanceThreshold)
		test.That(t, Deduplicate(cfg, []Region{a, b}), test.ShouldHaveLength, 1)
	})

	t.Run("separate cells survive largest first", func(t *testing.T) {
		a := cellAt(100, 100, 30)
		b := cellAt(300, 100, 40)
		c := cellAt(500, 100, 20)
		out := Deduplicate(cfg, []Region{a, b, c})
		test.That(t, out, test.ShouldHaveLength, 3)
		test.That(t, out[0].Centroid, test.ShouldResemble, b.Centroid)
		test.That(t, out[1].Centroid, test.ShouldResemble, a.Centroid)
		test.That(t, out[2].Centroid, test.ShouldResemble, c.Centroid)
	})
}

func TestDeduplicateNeverKeepsOverlappingPairs(t *testing.T) {
	cfg := DefaultConfig()
	var regions []Region
	for i := 0; i < 12; i++ {
		x := 17 * i
		regions = append(regions, boxRegion(image.Rect(x, x/2, x+40+i, x/2+35)))
	}
	out := Deduplicate(cfg, regions)
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			test.That(t, IOU(out[i].Box, out[j].Box), test.ShouldBeLessThanOrEqualTo, cfg.DuplicateIOUThreshold)
		}
	}
}
