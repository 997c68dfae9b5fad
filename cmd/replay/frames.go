package main

import (
	"bufio"
	"encoding/json"
	"image"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/viam-modules/cell-tracking/engine"
)

// regionLine is one region of a recorded frame. Only the box is required; the
// other measurements default to those of the box.
type regionLine struct {
	Box       [4]int      `json:"box"`
	Centroid  *[2]float64 `json:"centroid,omitempty"`
	Area      *float64    `json:"area,omitempty"`
	Perimeter *float64    `json:"perimeter,omitempty"`
}

type frameLine struct {
	Regions []regionLine `json:"regions"`
}

func (rl regionLine) region() engine.Region {
	r := engine.RegionFromBox(image.Rect(rl.Box[0], rl.Box[1], rl.Box[2], rl.Box[3]))
	if rl.Centroid != nil {
		r.Centroid = engine.Point{X: rl.Centroid[0], Y: rl.Centroid[1]}
	}
	if rl.Area != nil {
		r.Area = *rl.Area
	}
	if rl.Perimeter != nil {
		r.Perimeter = *rl.Perimeter
	}
	return r
}

// readFrames decodes one frame per non-blank line and hands its regions to fn.
func readFrames(r io.Reader, fn func([]engine.Region) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var fl frameLine
		if err := json.Unmarshal([]byte(text), &fl); err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		regions := make([]engine.Region, 0, len(fl.Regions))
		for _, rl := range fl.Regions {
			regions = append(regions, rl.region())
		}
		if err := fn(regions); err != nil {
			return err
		}
	}
	return scanner.Err()
}
