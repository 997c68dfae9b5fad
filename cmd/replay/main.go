// Package main replays recorded region frames through the tracking engine and
// prints the per-frame counts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"

	"github.com/viam-modules/cell-tracking/countlog"
	"github.com/viam-modules/cell-tracking/engine"
)

type options struct {
	in, config, db, chart string
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "", "JSON lines file with one frame of regions per line")
	flag.StringVar(&opts.config, "config", "", "optional JSON tracking config")
	flag.StringVar(&opts.db, "db", "", "optional SQLite count log")
	flag.StringVar(&opts.chart, "chart", "", "optional HTML chart output")
	debug := flag.Bool("debug", false, "log per-frame summaries")
	flag.Parse()

	logger := logging.NewLogger("replay")
	if *debug {
		logger.SetLevel(logging.DEBUG)
	}
	if opts.in == "" {
		logger.Fatal("-in is required")
	}
	if err := run(context.Background(), opts, os.Stdout, logger); err != nil {
		logger.Fatal(err)
	}
}

func loadConfig(path string) (engine.Config, error) {
	if path == "" {
		return engine.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Config{}, errors.Wrap(err, "failed to read config")
	}
	var attrs engine.Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return engine.Config{}, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return attrs.Config(), nil
}

func run(ctx context.Context, opts options, out io.Writer, logger logging.Logger) error {
	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	en, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}
	f, err := os.Open(opts.in)
	if err != nil {
		return errors.Wrap(err, "failed to open frames")
	}
	defer f.Close()

	st := engine.NewTrackerState()
	var store *countlog.Store
	if opts.db != "" {
		store, err = countlog.Open(opts.db)
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := store.StartSession(ctx, st.SessionID, filepath.Base(opts.in), time.Now()); err != nil {
			return err
		}
	}

	var recs []countlog.Record
	var last engine.FrameResult
	err = readFrames(f, func(regions []engine.Region) error {
		res := en.ProcessFrame(st, regions)
		last = res
		fmt.Fprintf(out, "Frame %d: %d locked, %d candidates\n", res.Frame, len(res.Entities), res.CandidateCount)
		rec := countlog.RecordFromResult(res, time.Now())
		recs = append(recs, rec)
		if store != nil {
			return store.Append(ctx, st.SessionID, rec)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to replay %s", opts.in)
	}
	logger.Infof("replayed %d frames of session %s: %d cells tracked, %d moving, %d staying",
		last.Frame, st.SessionID, last.Counts.Total, last.Counts.Moving, last.Counts.Staying)

	if opts.chart == "" {
		return nil
	}
	cf, err := os.Create(opts.chart)
	if err != nil {
		return errors.Wrap(err, "failed to create chart")
	}
	defer cf.Close()
	return countlog.RenderChart(cf, "Cell Population: "+filepath.Base(opts.in), recs)
}
