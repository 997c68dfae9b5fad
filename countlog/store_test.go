package countlog

import (
	"bytes"
	"context"
	"image"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/viam-modules/cell-tracking/engine"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "counts.db"))
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.StartSession(ctx, "session-a", "dish_01.mp4", start)
	test.That(t, err, test.ShouldBeNil)
	_, err = s.StartSession(ctx, "session-b", "dish_02.mp4", start.Add(time.Minute))
	test.That(t, err, test.ShouldBeNil)

	for i := 1; i <= 3; i++ {
		rec := Record{Frame: i, Confirmed: i - 1, Candidates: 1, Regions: 2, RecordedAt: start.Add(time.Duration(i) * time.Second)}
		test.That(t, s.Append(ctx, "session-a", rec), test.ShouldBeNil)
	}
	test.That(t, s.Append(ctx, "session-b", Record{Frame: 1, RecordedAt: start}), test.ShouldBeNil)

	recs, err := s.Records(ctx, "session-a")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, recs, test.ShouldHaveLength, 3)
	test.That(t, recs[2].Frame, test.ShouldEqual, 3)
	test.That(t, recs[2].Confirmed, test.ShouldEqual, 2)
	test.That(t, recs[2].RecordedAt.Equal(start.Add(3*time.Second)), test.ShouldBeTrue)

	sessions, err := s.Sessions(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sessions, test.ShouldHaveLength, 2)
	test.That(t, sessions[0].ID, test.ShouldEqual, "session-a")
	test.That(t, sessions[1].Source, test.ShouldEqual, "dish_02.mp4")
}

func TestAppendRejectsDuplicateFrame(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.StartSession(ctx, "s", "cam", time.Now())
	test.That(t, err, test.ShouldBeNil)

	test.That(t, s.Append(ctx, "s", Record{Frame: 7, RecordedAt: time.Now()}), test.ShouldBeNil)
	err = s.Append(ctx, "s", Record{Frame: 7, RecordedAt: time.Now()})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "frame 7")
}

func TestRecordFromResult(t *testing.T) {
	res := engine.FrameResult{
		Frame:          12,
		Entities:       []engine.EntitySnapshot{{ID: 1, Box: image.Rect(0, 0, 10, 10)}},
		CandidateCount: 4,
		Promoted:       []int{1},
		Lost:           []int{},
		RegionCount:    9,
		Counts:         engine.StatusCounts{Total: 1, Moving: 1},
	}
	now := time.Now()
	rec := RecordFromResult(res, now)
	test.That(t, rec, test.ShouldResemble, Record{
		Frame: 12, Confirmed: 1, Candidates: 4, Regions: 9, Moving: 1, Promoted: 1, RecordedAt: now,
	})
}

func TestRenderChart(t *testing.T) {
	var buf bytes.Buffer
	recs := []Record{{Frame: 1, Candidates: 1}, {Frame: 2, Candidates: 1}, {Frame: 3, Confirmed: 1}}
	test.That(t, RenderChart(&buf, "Population Analysis", recs), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldContainSubstring, "Population Analysis")
	test.That(t, buf.String(), test.ShouldContainSubstring, "candidates")
}

func TestAppendAfterClose(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "counts.db"))
	test.That(t, err, test.ShouldBeNil)
	_, err = s.StartSession(ctx, "s", "cam", time.Now())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Close(), test.ShouldBeNil)

	err = s.Append(ctx, "s", Record{Frame: 1, RecordedAt: time.Now()})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "frame 1")
}
