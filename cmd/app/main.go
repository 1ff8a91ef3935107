package main

import (
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/0x0FACED/go-voronoi/pkg/dcel"
	"github.com/0x0FACED/go-voronoi/pkg/geom"
	"github.com/0x0FACED/go-voronoi/pkg/logger"
	"github.com/0x0FACED/go-voronoi/pkg/voronoi"
	"github.com/0x0FACED/go-voronoi/static"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func generateRandomSites(n, width, height int) []geom.Point {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sites := make([]geom.Point, 0, n)
	seen := make(map[geom.Point]bool, n)
	for len(sites) < n {
		p := geom.Point{
			X: float64(rng.Intn(width)),
			Y: float64(rng.Intn(height)),
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		sites = append(sites, p)
	}
	return sites
}

func generateGridSites(n, width, height int) []geom.Point {
	sites := make([]geom.Point, 0, n)

	rows := int(math.Sqrt(float64(n)))
	if rows == 0 {
		rows = 1
	}
	cols := (n + rows - 1) / rows

	xStep := float64(width) / float64(cols)
	yStep := float64(height) / float64(rows)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if len(sites) == n {
				break
			}
			sites = append(sites, geom.Point{
				X: xStep/2 + float64(j)*xStep,
				Y: yStep/2 + float64(i)*yStep,
			})
		}
	}
	return sites
}

func prepareScatter(scatter *charts.Scatter) {
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Height: "580px",
			Width:  "1020px",
		}),
		charts.WithLegendOpts(opts.Legend{
			TextStyle: &opts.TextStyle{
				Color: "white",
			},
			Right: "10%",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:                "Voronoi diagram (Fortune's sweep)",
			TitleBackgroundColor: "white",
			Left:                 "10%",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "value",
			Name: "Width",
			AxisLabel: &opts.AxisLabel{
				Color: "white",
			},
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(false),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value",
			Name: "Height",
			AxisLabel: &opts.AxisLabel{
				Color: "white",
			},
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(false),
			},
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			FilterMode: "none",
			Orient:     "horizontal",
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			FilterMode: "none",
			Orient:     "vertical",
		}),
	)
}

func diagramToEcharts(sites []geom.Point, d *dcel.DCEL) *charts.Scatter {
	scatter := charts.NewScatter()
	prepareScatter(scatter)

	points := make([]opts.ScatterData, 0, len(sites))
	for _, site := range sites {
		points = append(points, opts.ScatterData{
			Value: []float64{site.X, site.Y},
		})
	}
	scatter.AddSeries("Sites", points).
		SetSeriesOptions(
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color: "lightgreen",
			}),
		)

	for _, seg := range d.Segments() {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithXAxisOpts(opts.XAxis{Show: opts.Bool(true)}),
			charts.WithYAxisOpts(opts.YAxis{Show: opts.Bool(true)}),
		)
		line.AddSeries("Edges", []opts.LineData{
			{Value: []float64{seg[0].X, seg[0].Y}},
			{Value: []float64{seg[1].X, seg[1].Y}},
		}).SetSeriesOptions(
			charts.WithLineStyleOpts(opts.LineStyle{
				Width: 2,
			}),
		)
		scatter.Overlap(line)
	}

	return scatter
}

func diagramHandler(w http.ResponseWriter, r *http.Request) {
	width := 1000
	height := 1000
	numSites := 12
	var isRandom bool

	if r.Method == http.MethodPost {
		r.ParseForm()
		width, _ = strconv.Atoi(r.FormValue("width"))
		height, _ = strconv.Atoi(r.FormValue("height"))
		numSites, _ = strconv.Atoi(r.FormValue("sites"))
		isRandom = r.FormValue("random") == "true"
	}

	var sites []geom.Point
	if isRandom {
		sites = generateRandomSites(numSites, width, height)
	} else {
		sites = generateGridSites(numSites, width, height)
	}

	bbox := dcel.NewBoundingBox(0, float64(width), 0, float64(height))

	log := logger.New()
	defer log.ClearLogs()

	diagram, err := voronoi.Build(sites, bbox, log)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	scatter := diagramToEcharts(sites, diagram)

	fmt.Fprintln(w, static.Part1)

	if err := scatter.Render(w); err != nil {
		fmt.Println("render error:", err)
	}

	fmt.Fprintln(w, static.Part2)
	fmt.Fprintln(w, log.HTMLLogs())
	fmt.Fprintln(w, static.Part3)
}

func main() {
	http.HandleFunc("/", diagramHandler)
	fmt.Println("Listening on http://localhost:8080")
	if err := http.ListenAndServe(":8080", nil); err != nil {
		fmt.Println("ListenAndServe:", err)
	}
}
