package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/rdk/logging"
	"go.viam.com/test"

	"github.com/viam-modules/cell-tracking/countlog"
	"github.com/viam-modules/cell-tracking/engine"
)

const recording = `{"regions":[{"box":[85,85,115,115]},{"box":[0,0,3,3]}]}
{"regions":[{"box":[85,85,115,115]}]}

{"regions":[{"box":[86,85,116,115],"area":700}]}
{"regions":[]}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	test.That(t, os.WriteFile(path, []byte(content), 0o644), test.ShouldBeNil)
	return path
}

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		in:     writeFile(t, dir, "frames.jsonl", recording),
		config: writeFile(t, dir, "cfg.json", `{"stability_threshold": 3}`),
		db:     filepath.Join(dir, "counts.db"),
		chart:  filepath.Join(dir, "chart.html"),
	}
	var out bytes.Buffer
	err := run(context.Background(), opts, &out, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.Split(strings.TrimSpace(out.String()), "\n"), test.ShouldResemble, []string{
		"Frame 1: 0 locked, 1 candidates",
		"Frame 2: 0 locked, 1 candidates",
		"Frame 3: 1 locked, 0 candidates",
		"Frame 4: 0 locked, 0 candidates",
	})

	store, err := countlog.Open(opts.db)
	test.That(t, err, test.ShouldBeNil)
	defer store.Close()
	sessions, err := store.Sessions(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sessions, test.ShouldHaveLength, 1)
	test.That(t, sessions[0].Source, test.ShouldEqual, "frames.jsonl")
	recs, err := store.Records(context.Background(), sessions[0].ID)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, recs, test.ShouldHaveLength, 4)
	test.That(t, recs[0].Regions, test.ShouldEqual, 2)
	test.That(t, recs[3].Lost, test.ShouldEqual, 1)

	chart, err := os.ReadFile(opts.chart)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(chart), test.ShouldContainSubstring, "frames.jsonl")
}

func TestReplayRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	logger := logging.NewTestLogger(t)

	opts := options{in: writeFile(t, dir, "bad.jsonl", "{\"regions\":[]}\nnot json\n")}
	err := run(context.Background(), opts, &bytes.Buffer{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "line 2")

	opts = options{
		in:     writeFile(t, dir, "ok.jsonl", "{\"regions\":[]}\n"),
		config: writeFile(t, dir, "cfg.json", `{"min_area": 50000}`),
	}
	err = run(context.Background(), opts, &bytes.Buffer{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "min_area")
}

func TestRegionLineDefaults(t *testing.T) {
	area := 500.0
	r := regionLine{Box: [4]int{10, 20, 40, 60}, Area: &area}.region()
	test.That(t, r.Centroid, test.ShouldResemble, engine.Point{X: 25, Y: 40})
	test.That(t, r.Area, test.ShouldEqual, 500.0)
	test.That(t, r.Perimeter, test.ShouldEqual, 140.0)
}

func TestLoadConfigKeepsExplicitZeros(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cfg.json", `{"exclusion_padding": 0, "velocity_smoothing_alpha": 0}`)
	cfg, err := loadConfig(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ExclusionPadding, test.ShouldEqual, 0)
	test.That(t, cfg.VelocitySmoothingAlpha, test.ShouldEqual, 0.0)
	test.That(t, cfg.StabilityThreshold, test.ShouldEqual, engine.DefaultStabilityThreshold)
}
