// Package export renders stored run series to standalone SVG documents.
package export

import (
	"fmt"
	"strings"

	"cacaotherm/internal/therm"
)

type seriesStyle struct {
	values []float64
	color  string
}

// TemperatureSVG renders the bed temperature envelope (maximum, mean and
// minimum in celsius over hours) as a self-contained SVG chart. It returns
// the empty string when the result holds fewer than two samples.
func TemperatureSVG(res *therm.Result, width, height int) string {
	if res == nil || len(res.Times) < 2 {
		return ""
	}

	series := []seriesStyle{
		{res.TMax, "#ff5f5f"},
		{res.TAvg, "#ffd75f"},
		{res.TMin, "#5fd7ff"},
	}

	// Shared bounds across all three curves so they stay comparable.
	minX, maxX := res.Times[0], res.Times[len(res.Times)-1]
	minY, maxY := series[0].values[0], series[0].values[0]
	for _, s := range series {
		for _, v := range s.values {
			if v < minY {
				minY = v
			}
			if v > maxY {
				maxY = v
			}
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for _, s := range series {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, s.color))
		for i, v := range s.values {
			x := (res.Times[i] - minX) / rangeX * float64(width)
			y := float64(height) - (v-minY)/rangeY*float64(height)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString(fmt.Sprintf(`<text x="8" y="16" fill="#9e9e9e" font-family="monospace" font-size="12">%s  peak %.1f C over %.0f h</text>
`, res.Vessel, res.MaxTempReached, maxX))
	sb.WriteString("</svg>\n")
	return sb.String()
}
