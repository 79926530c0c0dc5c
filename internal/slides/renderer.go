package slides

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"github.com/AfikDanan/DayZeroAI/internal/config"
	"github.com/AfikDanan/DayZeroAI/internal/models"
)

// SlideCount is fixed: welcome, role/team, tech stack, schedule, closing.
const SlideCount = 5

// At most this many first-day items fit the schedule slide; the rest are
// silently dropped.
const maxScheduleItems = 5

const (
	titleColor  = "#1e293b"
	accentColor = "#16c79a"
	nameColor   = "#22c55e"
)

// Renderer produces the five-slide visual set for a job.
type Renderer struct {
	width        int
	height       int
	templatePath string
	fontPaths    []string
	log          *zap.Logger
}

func NewRenderer(cfg config.Config, log *zap.Logger) *Renderer {
	return &Renderer{
		width:        1920,
		height:       1080,
		templatePath: cfg.TemplatePath,
		fontPaths:    cfg.FontPaths,
		log:          log,
	}
}

// Render writes the ordered slide set into workDir and returns the paths.
// Slide order is significant for composition.
func (r *Renderer) Render(ctx context.Context, emp models.Employee, workDir string) ([]string, error) {
	draws := []func(*gg.Context, models.Employee){
		r.drawWelcome,
		r.drawRole,
		r.drawTechStack,
		r.drawSchedule,
		r.drawClosing,
	}

	paths := make([]string, 0, SlideCount)
	for i, draw := range draws {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(workDir, fmt.Sprintf("slide_%d.png", i+1))
		dc := gg.NewContext(r.width, r.height)
		dc.DrawImage(r.background(), 0, 0)
		draw(dc, emp)
		if err := dc.SavePNG(path); err != nil {
			return nil, fmt.Errorf("save slide %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}

	r.log.Info("slides rendered", zap.Int("count", len(paths)))
	return paths, nil
}

// background loads the shared template when one is configured and present,
// resized to the slide dimensions; otherwise a flat fill.
func (r *Renderer) background() image.Image {
	if r.templatePath != "" {
		if _, err := os.Stat(r.templatePath); err == nil {
			img, err := imaging.Open(r.templatePath)
			if err == nil {
				b := img.Bounds()
				if b.Dx() != r.width || b.Dy() != r.height {
					img = imaging.Resize(img, r.width, r.height, imaging.Lanczos)
				}
				return img
			}
			r.log.Warn("template unreadable, using flat background", zap.Error(err))
		}
	}
	return imaging.New(r.width, r.height, color.NRGBA{R: 0xf8, G: 0xf7, B: 0xfc, A: 0xff})
}

func (r *Renderer) drawWelcome(dc *gg.Context, emp models.Employee) {
	dc.SetFontFace(resolveFace(r.fontPaths, 90))
	dc.SetHexColor(titleColor)
	dc.DrawStringAnchored(fmt.Sprintf("Welcome, %s!", emp.FirstName()), float64(r.width)/2, 480, 0.5, 0.5)

	dc.SetFontFace(resolveFace(r.fontPaths, 48))
	dc.SetHexColor(nameColor)
	dc.DrawStringAnchored(emp.Position, float64(r.width)/2, 620, 0.5, 0.5)
}

func (r *Renderer) drawRole(dc *gg.Context, emp models.Employee) {
	dc.SetFontFace(resolveFace(r.fontPaths, 45))
	dc.SetHexColor(titleColor)

	lines := []string{
		"Team: " + emp.Team,
		"Manager: " + emp.Manager,
		"Office: " + emp.Office,
		"Start Date: " + emp.StartDate,
	}
	y := 300.0
	for _, line := range lines {
		dc.DrawString(line, 200, y)
		y += 80
	}
}

func (r *Renderer) drawTechStack(dc *gg.Context, emp models.Employee) {
	dc.SetFontFace(resolveFace(r.fontPaths, 60))
	dc.SetHexColor(accentColor)
	dc.DrawString("Your Tech Stack", 200, 240)

	dc.SetFontFace(resolveFace(r.fontPaths, 40))
	dc.SetHexColor(titleColor)
	y := 380.0
	for _, tech := range emp.TechStack {
		dc.DrawString("• "+tech, 250, y)
		y += 70
	}
}

func (r *Renderer) drawSchedule(dc *gg.Context, emp models.Employee) {
	dc.SetFontFace(resolveFace(r.fontPaths, 60))
	dc.SetHexColor(accentColor)
	dc.DrawString("First Day Schedule", 200, 200)

	items := emp.FirstDaySchedule
	if len(items) > maxScheduleItems {
		items = items[:maxScheduleItems]
	}

	dc.SetFontFace(resolveFace(r.fontPaths, 35))
	dc.SetHexColor(titleColor)
	y := 330.0
	for _, item := range items {
		dc.DrawString(item.Time+" - "+item.Activity, 200, y)
		y += 60
	}
}

func (r *Renderer) drawClosing(dc *gg.Context, _ models.Employee) {
	dc.SetFontFace(resolveFace(r.fontPaths, 70))
	dc.SetHexColor(accentColor)
	dc.DrawStringAnchored("See you soon!", float64(r.width)/2, 500, 0.5, 0.5)
}
