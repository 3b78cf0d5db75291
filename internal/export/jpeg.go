package export

import (
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	"image/jpeg"
	"io"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kazkleen/crm/internal/storage"
)

const (
	overviewMinWidth   = 400
	overviewMargin     = 16
	overviewLineHeight = 18
	overviewScale      = 2
	overviewQuality    = 90
)

type overviewLine struct {
	text     string
	centered bool
	rule     bool
}

// OverviewFileName is the download name for an order's overview image.
func OverviewFileName(o storage.Order) string {
	client := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, o.ClientName)
	return fmt.Sprintf("Kazkleen_Project_%s_%s.jpg", client, o.Date)
}

func overviewLines(o storage.Order) []overviewLine {
	lines := []overviewLine{
		{text: "Kazkleen", centered: true},
		{text: "Cleaning Project Overview", centered: true},
		{rule: true},
		{text: "Client: " + o.ClientName},
		{text: "Date: " + o.Date},
		{text: "Submitted by: " + o.SubmittedBy},
		{},
	}
	for _, f := range o.Floors {
		lines = append(lines, overviewLine{text: f.Name})
		for _, r := range f.Rooms {
			lines = append(lines, overviewLine{text: "  " + r.Name})
			for _, item := range r.Items {
				lines = append(lines, overviewLine{
					text: fmt.Sprintf("    - %s (Quantity: %d)", item.Service, item.Quantity),
				})
			}
		}
	}
	if o.Completion != nil {
		by := o.Completion.By
		if by == "" {
			by = "Manager"
		}
		lines = append(lines,
			overviewLine{},
			overviewLine{rule: true},
			overviewLine{text: "Project Completion"},
			overviewLine{text: "Completed on: " + o.Completion.Date},
			overviewLine{text: "Completed by: " + by},
		)
	}
	return lines
}

// RenderOverview draws the printable summary of one order.
func RenderOverview(o storage.Order) image.Image {
	face := basicfont.Face7x13
	lines := overviewLines(o)

	width := overviewMinWidth
	for _, l := range lines {
		w := font.MeasureString(face, l.text).Ceil() + 2*overviewMargin
		if w > width {
			width = w
		}
	}
	height := 2*overviewMargin + len(lines)*overviewLineHeight

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	stddraw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, stddraw.Src)

	d := &font.Drawer{Dst: canvas, Src: image.Black, Face: face}
	ruleColor := color.Gray{Y: 0xcc}
	for i, l := range lines {
		baseline := overviewMargin + (i+1)*overviewLineHeight - 5
		if l.rule {
			y := baseline - overviewLineHeight/2 + 2
			for x := overviewMargin; x < width-overviewMargin; x++ {
				canvas.Set(x, y, ruleColor)
			}
			continue
		}
		x := overviewMargin
		if l.centered {
			x = (width - font.MeasureString(face, l.text).Ceil()) / 2
		}
		d.Dot = fixed.P(x, baseline)
		d.DrawString(l.text)
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width*overviewScale, height*overviewScale))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), canvas, canvas.Bounds(), xdraw.Over, nil)
	return scaled
}

func WriteOverviewJPEG(w io.Writer, o storage.Order) error {
	if err := jpeg.Encode(w, RenderOverview(o), &jpeg.Options{Quality: overviewQuality}); err != nil {
		return fmt.Errorf("failed to encode overview: %w", err)
	}
	return nil
}
