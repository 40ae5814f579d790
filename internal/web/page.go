package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"wallcal/internal/layout"
	appLog "wallcal/internal/log"
	"wallcal/internal/render"
	"wallcal/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/calendar.html"))

type box struct {
	X, Y, W, H int
}

type cellData struct {
	box
	Day   int
	Today bool
}

type textData struct {
	box
	Lines       []string
	FontSize    int
	LineAdvance int
	Red         bool
	// Row-only fields.
	TimeLabel    string
	TimeFontSize int
	TitleX       int
	TitleY       int
	// Bar-only fields.
	Before, After bool
}

type headerData struct {
	Y     int
	Label string
}

type upcomingRowData struct {
	Y           int
	Date, Time  string
	Lines       []string
	FontSize    int
	LineAdvance int
	Red         bool
}

type pageData struct {
	View          view.Name
	Width, Height int
	Title         string
	DayHeaders    []box
	DayNames      [layout.Columns]string
	HeaderY       int
	Cells         []cellData
	Bars          []textData
	Rows          []textData
	Categories    []headerData
	Upcoming      []upcomingRowData
	TimeFontSize  int
	TitleX        int
}

func toBox(x0, y0, x1, y1 int) box { return box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0} }

// handleCalendar serves the view as positioned HTML. The root carries
// data-ready="true" so headless captures know rendering is complete.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	name, ok := viewParam(w, r)
	if !ok {
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	cfg := s.engine.Config()
	fitter := s.engine.Fitter()
	data := pageData{View: name, Width: cfg.Canvas.Width, Height: cfg.Canvas.Height}

	if name == view.Upcoming {
		u, err := s.engine.UpcomingList(snap)
		if err != nil {
			writeViewError(w, err)
			return
		}
		up := cfg.UpcomingView()
		data.Title = "Upcoming"
		data.TimeFontSize = up.TimeFontSize
		data.TitleX = cfg.Canvas.Width - 40 - up.TitleWidth
		for _, h := range u.Headers {
			data.Categories = append(data.Categories, headerData{Y: h.Y, Label: h.Category.String()})
		}
		for _, row := range u.Rows {
			data.Upcoming = append(data.Upcoming, upcomingRowData{
				Y:           row.Y,
				Date:        row.DateLabel,
				Time:        row.TimeLabel,
				Lines:       row.Lines,
				FontSize:    row.FontSize,
				LineAdvance: fitter.LineAdvance(row.FontSize),
				Red:         render.Highlighted(row.Title, cfg.HighlightRed),
			})
		}
	} else {
		g, err := s.engine.Grid(snap, name)
		if err != nil {
			writeViewError(w, err)
			return
		}
		data.Title = g.StartMonth + " " + strconv.Itoa(g.Layout.Window.First.Year)
		if g.EndMonth != "" {
			data.Title = g.StartMonth + " / " + g.EndMonth + " " + strconv.Itoa(g.Layout.Window.Last().Year)
		}
		data.DayNames = g.DayHeaders
		data.HeaderY = g.Top - 34
		data.Height = g.Top + g.Config.CellHeight*g.Layout.Window.Rows
		data.Width = g.Config.CellWidth * layout.Columns

		for row := 0; row < g.Layout.Window.Rows; row++ {
			for col := 0; col < layout.Columns; col++ {
				c := layout.CellBox(g.Config, g.Top, row, col)
				date := g.Layout.Window.DateAt(row, col)
				data.Cells = append(data.Cells, cellData{
					box:   toBox(c.Min.X, c.Min.Y, c.Max.X, c.Max.Y),
					Day:   date.Day,
					Today: date == snap.Today,
				})
			}
		}
		for col := 0; col < layout.Columns; col++ {
			data.DayHeaders = append(data.DayHeaders, box{X: col * g.Config.CellWidth, Y: data.HeaderY})
		}
		for _, rect := range g.Rects {
			b := toBox(rect.Box.Min.X, rect.Box.Min.Y, rect.Box.Max.X, rect.Box.Max.Y)
			if rect.Bar {
				bar := g.Layout.Bars[rect.Index]
				data.Bars = append(data.Bars, textData{
					box:         b,
					Lines:       bar.Lines,
					FontSize:    bar.FontSize,
					LineAdvance: fitter.LineAdvance(bar.FontSize),
					Red:         render.Highlighted(bar.Title, cfg.HighlightRed),
					Before:      bar.ContinuesBefore,
					After:       bar.ContinuesAfter,
				})
				continue
			}
			row := g.Layout.Rows[rect.Index]
			data.Rows = append(data.Rows, textData{
				box:          b,
				Lines:        row.Lines,
				FontSize:     row.FontSize,
				LineAdvance:  fitter.LineAdvance(row.FontSize),
				Red:          render.Highlighted(row.Title, cfg.HighlightRed),
				TimeLabel:    row.TimeLabel,
				TimeFontSize: row.TimeFontSize,
				TitleX:       row.TitleOffsetX,
				TitleY:       row.TitleOffsetY,
			})
		}
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		appLog.Error("calendar template failed", err, "view", string(name))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
