package infrastructure

import (
	"bytes"
	"fmt"
	"time"

	"chiptable/models"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

type scoreboardColumn struct {
	header string
	x      float64
	rgb    [3]float64
}

// ScoreboardImageGenerator renders the chip scoreboard as a PNG card
type ScoreboardImageGenerator struct {
	width     int
	minHeight int
	padding   int
	rowHeight int
}

// NewScoreboardImageGenerator creates a generator with the default card style
func NewScoreboardImageGenerator() *ScoreboardImageGenerator {
	return &ScoreboardImageGenerator{
		width:     360,
		minHeight: 120,
		padding:   15,
		rowHeight: 26,
	}
}

// Generate draws one row per scoreboard entry
func (g *ScoreboardImageGenerator) Generate(entries []*models.ScoreboardEntry) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithFields(log.Fields{
			"duration_ms": time.Since(start).Milliseconds(),
			"row_count":   len(entries),
		}).Debug("Scoreboard image generation completed")
	}()

	pad := float64(g.padding)
	columns := []scoreboardColumn{
		{header: "#", x: pad, rgb: [3]float64{0.85, 0.85, 0.9}},
		{header: "Player", x: pad + 25, rgb: [3]float64{1, 1, 1}},
		{header: "Chips", x: pad + 165, rgb: [3]float64{0.85, 1, 0.85}},
		{header: "Win%", x: pad + 255, rgb: [3]float64{0.85, 0.85, 1}},
	}

	// Header band + spacing + rows + bottom padding
	height := 25 + 30 + len(entries)*g.rowHeight + g.padding
	if height < g.minHeight {
		height = g.minHeight
	}

	dc := gg.NewContext(g.width, height)
	dc.SetFillRule(gg.FillRuleWinding)

	for i := 0; i < height; i++ {
		t := float64(i) / float64(height)
		dc.SetRGB(0.02+t*0.03, 0.02+t*0.05, 0.05+t*0.1)
		dc.DrawLine(0, float64(i), float64(g.width), float64(i))
		dc.Stroke()
	}

	face, err := loadFont(gomono.TTF, 11)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	rankFace, err := loadFont(gobold.TTF, 9)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetFontFace(face)

	y := float64(25)
	dc.SetRGBA(0.3, 0.3, 0.4, 0.4)
	dc.DrawRectangle(0, y-15, float64(g.width), 20)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	for _, col := range columns {
		drawSharpText(dc, col.header, col.x, y)
	}

	dc.SetRGBA(0.6, 0.6, 0.7, 0.7)
	dc.SetLineWidth(1)
	dc.DrawLine(0, y+8, float64(g.width), y+8)
	dc.Stroke()

	if len(entries) == 0 {
		dc.SetRGB(0.7, 0.7, 0.7)
		dc.DrawStringAnchored("No players yet", float64(g.width)/2, y+40, 0.5, 0.5)
	}

	y += 30
	for i, entry := range entries {
		podium, onPodium := podiumColor(i)
		if onPodium {
			dc.SetRGBA(podium[0], podium[1], podium[2], 0.1)
		} else {
			dc.SetRGBA(0.5, 0.5, 0.6, 0.02)
		}
		dc.DrawRectangle(0, y-15, float64(g.width), float64(g.rowHeight))
		dc.Fill()

		if onPodium {
			dc.SetRGB(podium[0], podium[1], podium[2])
			dc.DrawCircle(columns[0].x+3, y-4, 6)
			dc.Fill()
			dc.SetRGB(0, 0, 0)
			dc.SetFontFace(rankFace)
			dc.DrawStringAnchored(fmt.Sprintf("%d", entry.Rank), columns[0].x+3, y-5, 0.5, 0.4)
			dc.SetFontFace(face)
		} else {
			dc.SetRGB(columns[0].rgb[0], columns[0].rgb[1], columns[0].rgb[2])
			drawSharpText(dc, fmt.Sprintf("%d", entry.Rank), columns[0].x, y)
		}

		cells := []string{
			fmt.Sprintf("User%d", entry.UserID),
			entry.ChipBalance.StringFixed(2),
			fmt.Sprintf("%.1f%%", entry.WinPercentage),
		}
		for j, cell := range cells {
			col := columns[j+1]
			dc.SetRGB(col.rgb[0], col.rgb[1], col.rgb[2])
			drawSharpText(dc, cell, col.x, y)
		}

		y += float64(g.rowHeight)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// podiumColor returns gold, silver and bronze for the first three rows
func podiumColor(index int) ([3]float64, bool) {
	switch index {
	case 0:
		return [3]float64{1, 0.84, 0}, true
	case 1:
		return [3]float64{0.75, 0.75, 0.75}, true
	case 2:
		return [3]float64{0.8, 0.5, 0.2}, true
	}
	return [3]float64{}, false
}

// drawSharpText draws text over a faint offset shadow
func drawSharpText(dc *gg.Context, text string, x, y float64) {
	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawString(text, x+0.5, y+0.5)
	dc.Pop()

	dc.DrawString(text, x, y)
}

func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	}), nil
}
