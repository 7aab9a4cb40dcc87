package handlers

import (
	"math"

	"mindtracker/internal/models"
)

// barColors cycle across bars. The mapping carries no meaning.
var barColors = []string{"blue", "red", "green", "purple", "orange"}

const (
	chartWidth        = 640.0
	chartHeight       = 380.0
	chartMarginLeft   = 56.0
	chartMarginRight  = 16.0
	chartMarginTop    = 40.0
	chartMarginBottom = 120.0
)

type Bar struct {
	Label  string
	Count  int
	X      float64
	Y      float64
	Width  float64
	Height float64
	Color  string
	// LabelX is the horizontal center of the bar.
	LabelX float64
}

type Tick struct {
	Value int
	Y     float64
}

type BarChart struct {
	Title  string
	XLabel string
	YLabel string
	Width  float64
	Height float64
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
	Bars   []Bar
	Ticks  []Tick
}

// buildBarChart lays out one bar per trigger. It returns nil for no data.
func buildBarChart(counts []models.TriggerCount) *BarChart {
	if len(counts) == 0 {
		return nil
	}

	chart := &BarChart{
		Title:  "Emotion Triggers Over Time",
		XLabel: "Emotion Trigger",
		YLabel: "Frequency",
		Width:  chartWidth,
		Height: chartHeight,
		Left:   chartMarginLeft,
		Right:  chartWidth - chartMarginRight,
		Top:    chartMarginTop,
		Bottom: chartHeight - chartMarginBottom,
	}

	maxCount := 0
	for _, c := range counts {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	step := tickStep(maxCount)
	top := int(math.Ceil(float64(maxCount)/float64(step))) * step

	plotWidth := chart.Right - chart.Left
	plotHeight := chart.Bottom - chart.Top
	slot := plotWidth / float64(len(counts))

	for i, c := range counts {
		h := float64(c.Count) / float64(top) * plotHeight
		x := chart.Left + float64(i)*slot + slot*0.2
		chart.Bars = append(chart.Bars, Bar{
			Label:  c.Trigger,
			Count:  c.Count,
			X:      x,
			Y:      chart.Bottom - h,
			Width:  slot * 0.6,
			Height: h,
			Color:  barColors[i%len(barColors)],
			LabelX: x + slot*0.3,
		})
	}

	for v := 0; v <= top; v += step {
		chart.Ticks = append(chart.Ticks, Tick{
			Value: v,
			Y:     chart.Bottom - float64(v)/float64(top)*plotHeight,
		})
	}

	return chart
}

// tickStep keeps the y axis at roughly five labels or fewer.
func tickStep(maxCount int) int {
	if maxCount <= 5 {
		return 1
	}
	return int(math.Ceil(float64(maxCount) / 5))
}
