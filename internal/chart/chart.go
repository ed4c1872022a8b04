// Package chart renders player-count history as a PNG line chart attached to
// status notifications.
package chart

import (
	"bytes"
	"time"

	"beacon/internal/models"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	width  = 800
	height = 300

	// minScale keeps near-empty servers from rendering as a zoomed-in
	// flatline; the axis always spans at least this many players.
	minScale = 10
)

// Render draws the sample series, oldest-first, into a PNG image.
// It is a pure function of its input: zero or one samples produce a valid
// flat chart, and the vertical axis always covers the observed maximum.
func Render(samples []models.PlayerSample) ([]byte, error) {
	times, counts := seriesValues(samples)

	maxY := float64(minScale)
	for _, c := range counts {
		if c > maxY {
			maxY = c
		}
	}

	lineColor := drawing.ColorFromHex("4bc0c0")

	graph := chart.Chart{
		Title:  "Player Count Over Time",
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name:           "Time",
			ValueFormatter: chart.TimeValueFormatterWithFormat("15:04"),
		},
		YAxis: chart.YAxis{
			Name:  "Players",
			Range: &chart.ContinuousRange{Min: 0, Max: maxY},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: "Players",
				Style: chart.Style{
					StrokeColor: lineColor,
					FillColor:   lineColor.WithAlpha(48),
				},
				XValues: times,
				YValues: counts,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// seriesValues converts samples into plot vectors, padding short series
// because the renderer requires at least two points per series.
func seriesValues(samples []models.PlayerSample) ([]time.Time, []float64) {
	now := time.Now()

	switch len(samples) {
	case 0:
		return []time.Time{now.Add(-time.Hour), now}, []float64{0, 0}
	case 1:
		s := samples[0]
		return []time.Time{s.Timestamp.Add(-5 * time.Minute), s.Timestamp},
			[]float64{float64(s.PlayerCount), float64(s.PlayerCount)}
	}

	times := make([]time.Time, len(samples))
	counts := make([]float64, len(samples))
	for i, s := range samples {
		times[i] = s.Timestamp
		counts[i] = float64(s.PlayerCount)
	}

	return times, counts
}
