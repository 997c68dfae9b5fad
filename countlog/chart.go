package countlog

import (
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
)

// RenderChart writes an HTML line chart of confirmed and candidate counts per frame.
func RenderChart(w io.Writer, title string, recs []Record) error {
	frames := make([]string, 0, len(recs))
	confirmed := make([]opts.LineData, 0, len(recs))
	candidates := make([]opts.LineData, 0, len(recs))
	moving := make([]opts.LineData, 0, len(recs))
	for _, rec := range recs {
		frames = append(frames, strconv.Itoa(rec.Frame))
		confirmed = append(confirmed, opts.LineData{Value: rec.Confirmed})
		candidates = append(candidates, opts.LineData{Value: rec.Candidates})
		moving = append(moving, opts.LineData{Value: rec.Moving})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "1000px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "frames=" + strconv.Itoa(len(recs))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Cell Count"}),
	)
	line.SetXAxis(frames).
		AddSeries("confirmed", confirmed).
		AddSeries("candidates", candidates).
		AddSeries("moving", moving)

	if err := line.Render(w); err != nil {
		return errors.Wrap(err, "failed to render count chart")
	}
	return nil
}
