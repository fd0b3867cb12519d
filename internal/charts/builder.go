package charts

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/models"
)

const (
	DefaultTopN = 10
	donutHole   = 0.6
	facetWrap   = 2
)

// Charts is the set of figures shown next to a batch result.
type Charts struct {
	SalesByCategory   Figure     `json:"salesByCategory"`
	TopItemsByOutlet  Figure     `json:"topItemsByOutlet"`
	VisibilityBox     Figure     `json:"visibilityBox"`
	VisibilityVsSales Figure     `json:"visibilityVsSales"`
	BoxStats          []BoxStats `json:"boxStats"`
}

// BoxStats summarizes Item_Visibility for one item type.
type BoxStats struct {
	ItemType string  `json:"itemType"`
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Q1       float64 `json:"q1"`
	Median   float64 `json:"median"`
	Q3       float64 `json:"q3"`
	Max      float64 `json:"max"`

	// Whisker ends: the most extreme values within 1.5 IQR of the quartiles.
	LowerFence float64   `json:"lowerFence"`
	UpperFence float64   `json:"upperFence"`
	Outliers   []float64 `json:"outliers,omitempty"`
}

type Builder struct {
	palette *Palette
	topN    int
	logger  logger.Logger
}

func NewBuilder(p *Palette, topN int, log logger.Logger) *Builder {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Builder{palette: p, topN: topN, logger: log.WithComponent("charts")}
}

func (b *Builder) Palette() *Palette {
	return b.palette
}

// Build renders every figure. Any item type without a palette color fails the
// whole build with PALETTE_INCOMPLETE.
func (b *Builder) Build(rows []models.SalesRow) (*Charts, error) {
	colors, err := b.palette.ColorsFor(itemTypesOf(rows))
	if err != nil {
		return nil, err
	}

	out := &Charts{
		SalesByCategory:   b.salesByCategory(rows, colors),
		TopItemsByOutlet:  b.topItemsByOutlet(rows, colors),
		VisibilityVsSales: b.visibilityVsSales(rows, colors),
	}
	out.VisibilityBox, out.BoxStats = b.visibilityBox(rows, colors)

	b.logger.Debug("charts built", map[string]interface{}{
		"rows":      len(rows),
		"itemTypes": len(colors),
	})
	return out, nil
}

func itemTypesOf(rows []models.SalesRow) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		t := string(r.ItemType)
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func totalSales(rows []models.SalesRow) float64 {
	var total float64
	for _, r := range rows {
		total += r.ItemOutletSales
	}
	return total
}

func share(v, total float64) float64 {
	if total == 0 {
		return 0
	}
	return v / total * 100
}

// ==========================
// Donut: sales share by item type
// ==========================

func (b *Builder) salesByCategory(rows []models.SalesRow, colors map[string]string) Figure {
	total := totalSales(rows)
	sums := make(map[string]float64)
	for _, r := range rows {
		sums[string(r.ItemType)] += r.ItemOutletSales
	}

	labels := make([]string, 0, len(sums))
	for t := range sums {
		labels = append(labels, t)
	}
	sort.Slice(labels, func(i, j int) bool {
		if sums[labels[i]] != sums[labels[j]] {
			return sums[labels[i]] > sums[labels[j]]
		}
		return labels[i] < labels[j]
	})

	values := make([]float64, len(labels))
	sliceColors := make([]string, len(labels))
	for i, t := range labels {
		values[i] = share(sums[t], total)
		sliceColors[i] = colors[t]
	}

	fig := Figure{
		Layout: Layout{
			Title:  &Title{Text: "Sales distribution by item type", X: 0.15},
			Legend: &Legend{Orientation: "v", YAnchor: "middle", Y: 0.5, XAnchor: "left", X: 1.2},
		},
	}
	if len(labels) > 0 {
		fig.Data = []Trace{{
			Type:     "pie",
			Labels:   labels,
			Values:   values,
			Hole:     donutHole,
			TextInfo: "percent",
			Marker:   &Marker{Colors: sliceColors, Line: &Line{Color: "white", Width: 2}},
		}}
	}
	return fig
}

// ==========================
// Grouped bars: top N item types per outlet
// ==========================

type outletGroup struct {
	itemType string
	outlet   string
	size     string
	location string
	sales    float64
	count    int
}

func (b *Builder) topItemsByOutlet(rows []models.SalesRow, colors map[string]string) Figure {
	index := make(map[[4]string]*outletGroup)
	var groups []*outletGroup
	for _, r := range rows {
		key := [4]string{string(r.ItemType), r.OutletIdentifier, string(r.OutletSize), string(r.OutletLocationType)}
		g, ok := index[key]
		if !ok {
			g = &outletGroup{itemType: key[0], outlet: key[1], size: key[2], location: key[3]}
			index[key] = g
			groups = append(groups, g)
		}
		g.sales += r.ItemOutletSales
		g.count++
	}

	typeTotals := make(map[string]float64)
	for _, g := range groups {
		typeTotals[g.itemType] += g.sales
	}

	// top N groups per outlet by sales
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].sales > groups[j].sales })
	perOutlet := make(map[string]int)
	var top []*outletGroup
	for _, g := range groups {
		if perOutlet[g.outlet] < b.topN {
			perOutlet[g.outlet]++
			top = append(top, g)
		}
	}

	var order []string
	byType := make(map[string][]*outletGroup)
	for _, g := range top {
		if _, ok := byType[g.itemType]; !ok {
			order = append(order, g.itemType)
		}
		byType[g.itemType] = append(byType[g.itemType], g)
	}
	sort.SliceStable(order, func(i, j int) bool {
		if typeTotals[order[i]] != typeTotals[order[j]] {
			return typeTotals[order[i]] > typeTotals[order[j]]
		}
		return order[i] < order[j]
	})

	fig := Figure{
		Layout: Layout{
			Title:     &Title{Text: fmt.Sprintf("Top %d best-selling item types per outlet", b.topN), X: 0.5},
			Height:    600,
			BarMode:   "group",
			HoverMode: "x",
			Legend:    &Legend{Orientation: "h", Y: 1.1, Title: &Title{Text: "Item type"}},
			Axes: map[string]Axis{
				"xaxis": {Title: &Title{Text: "Outlet"}},
				"yaxis": {Title: &Title{Text: "Total sales"}, ShowGrid: true},
			},
		},
	}

	for _, t := range order {
		tr := Trace{
			Type:         "bar",
			Name:         t,
			TextPosition: "inside",
			Marker:       &Marker{Color: colors[t], Line: &Line{Color: "white", Width: 1}},
		}
		for _, g := range byType[t] {
			tr.X = append(tr.X, g.outlet)
			tr.Y = append(tr.Y, g.sales)
			tr.Text = append(tr.Text, fmt.Sprintf("%d", g.count))
		}
		fig.Data = append(fig.Data, tr)
	}

	annotated := make(map[string]bool)
	var outletsSeen []*outletGroup
	for _, g := range groups {
		if !annotated[g.outlet] {
			annotated[g.outlet] = true
			outletsSeen = append(outletsSeen, g)
		}
	}
	sort.Slice(outletsSeen, func(i, j int) bool { return outletsSeen[i].outlet < outletsSeen[j].outlet })
	for _, g := range outletsSeen {
		fig.Layout.Annotations = append(fig.Layout.Annotations, Annotation{
			X:     g.outlet,
			Y:     -0.12,
			YRef:  "y domain",
			Text:  fmt.Sprintf("Size: %s<br>Location: %s", g.size, g.location),
			Align: "center",
		})
	}
	return fig
}

// ==========================
// Box: visibility by item type
// ==========================

func (b *Builder) visibilityBox(rows []models.SalesRow, colors map[string]string) (Figure, []BoxStats) {
	values := make(map[string][]float64)
	for _, r := range rows {
		t := string(r.ItemType)
		values[t] = append(values[t], r.ItemVisibility)
	}

	fig := Figure{
		Layout: Layout{
			Title:     &Title{Text: "Visibility distribution by item type", X: 0.5},
			HoverMode: "closest",
			Legend:    &Legend{Orientation: "h", Y: 1.1},
			Axes: map[string]Axis{
				"xaxis": {Title: &Title{Text: "Item type"}},
				"yaxis": {Title: &Title{Text: "Item visibility"}, ShowGrid: true},
			},
		},
	}

	var stats []BoxStats
	for _, t := range itemTypesOf(rows) {
		s := summarize(t, values[t])
		stats = append(stats, s)
		fig.Data = append(fig.Data, Trace{
			Type:        "box",
			Name:        t,
			X:           []interface{}{t},
			Q1:          []float64{s.Q1},
			Median:      []float64{s.Median},
			Q3:          []float64{s.Q3},
			LowerFence:  []float64{s.LowerFence},
			UpperFence:  []float64{s.UpperFence},
			Marker:      &Marker{Color: colors[t]},
			LegendGroup: t,
		})
		if len(s.Outliers) > 0 {
			x := make([]interface{}, len(s.Outliers))
			for i := range x {
				x[i] = t
			}
			fig.Data = append(fig.Data, Trace{
				Type:        "scatter",
				Mode:        "markers",
				Name:        t,
				X:           x,
				Y:           s.Outliers,
				Marker:      &Marker{Color: colors[t]},
				LegendGroup: t,
				ShowLegend:  boolPtr(false),
			})
		}
	}
	return fig, stats
}

func summarize(itemType string, vals []float64) BoxStats {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	s := BoxStats{
		ItemType: itemType,
		Count:    len(sorted),
		Min:      sorted[0],
		Q1:       stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:       stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:      sorted[len(sorted)-1],
	}

	iqr := s.Q3 - s.Q1
	lo, hi := s.Q1-1.5*iqr, s.Q3+1.5*iqr
	s.LowerFence, s.UpperFence = s.Q1, s.Q3
	for _, v := range sorted {
		if v < lo || v > hi {
			s.Outliers = append(s.Outliers, v)
		}
	}
	for _, v := range sorted {
		if v >= lo {
			s.LowerFence = v
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= hi {
			s.UpperFence = sorted[i]
			break
		}
	}
	return s
}

// ==========================
// Bubbles: visibility vs sales, one facet per outlet type
// ==========================

func (b *Builder) visibilityVsSales(rows []models.SalesRow, colors map[string]string) Figure {
	total := totalSales(rows)

	var facets []models.OutletType
	present := make(map[models.OutletType]bool)
	for _, r := range rows {
		present[r.OutletType] = true
	}
	for _, ot := range models.OutletTypes() {
		if present[ot] {
			facets = append(facets, ot)
		}
	}

	fig := Figure{
		Layout: Layout{
			Title:  &Title{Text: "Item visibility vs total sales", X: 0.5},
			Height: 900,
			Legend: &Legend{Orientation: "h", Y: 1.02, X: 0.5, XAnchor: "center", YAnchor: "bottom"},
			Axes:   map[string]Axis{},
		},
	}
	if len(facets) == 0 {
		return fig
	}

	gridRows := (len(facets) + facetWrap - 1) / facetWrap
	fig.Layout.Grid = &Grid{Rows: gridRows, Columns: min(len(facets), facetWrap), Pattern: "independent"}

	legendShown := make(map[string]bool)
	for i, ot := range facets {
		suffix := ""
		if i > 0 {
			suffix = fmt.Sprintf("%d", i+1)
		}
		xRef, yRef := "x"+suffix, "y"+suffix
		fig.Layout.Axes["xaxis"+suffix] = Axis{Title: &Title{Text: "Item visibility"}, Anchor: yRef}
		fig.Layout.Axes["yaxis"+suffix] = Axis{Title: &Title{Text: "Total sales"}, Anchor: xRef}
		fig.Layout.Annotations = append(fig.Layout.Annotations, Annotation{
			X:    0.5,
			Y:    1.0,
			XRef: xRef + " domain",
			YRef: yRef + " domain",
			Text: "Outlet_Type=" + string(ot),
		})

		for _, t := range itemTypesOf(rows) {
			tr := Trace{
				Type:          "scatter",
				Mode:          "markers",
				Name:          t,
				LegendGroup:   t,
				ShowLegend:    boolPtr(!legendShown[t]),
				XAxis:         xRef,
				YAxis:         yRef,
				Marker:        &Marker{Color: colors[t]},
				HoverTemplate: "Item_Identifier=%{customdata[0]}<br>Outlet_Identifier=%{customdata[1]}<extra></extra>",
			}
			for _, r := range rows {
				if r.OutletType != ot || string(r.ItemType) != t {
					continue
				}
				tr.X = append(tr.X, r.ItemVisibility)
				tr.Y = append(tr.Y, r.ItemOutletSales)
				tr.Marker.Size = append(tr.Marker.Size, share(r.ItemOutletSales, total))
				tr.CustomData = append(tr.CustomData, []string{r.ItemIdentifier, r.OutletIdentifier})
			}
			if len(tr.X) == 0 {
				continue
			}
			legendShown[t] = true
			fig.Data = append(fig.Data, tr)
		}
	}

	fig.Data = append(fig.Data, trendLine(rows))
	return fig
}

// trendLine draws y = visibility × mean(sales) across all rows.
func trendLine(rows []models.SalesRow) Trace {
	vis := make([]float64, len(rows))
	sales := make([]float64, len(rows))
	for i, r := range rows {
		vis[i] = r.ItemVisibility
		sales[i] = r.ItemOutletSales
	}
	sort.Float64s(vis)
	mean := stat.Mean(sales, nil)

	tr := Trace{
		Type: "scatter",
		Mode: "lines",
		Name: "Hypothetical trend line",
		Line: &Line{Color: "red", Dash: "dot"},
	}
	for _, v := range vis {
		tr.X = append(tr.X, v)
		tr.Y = append(tr.Y, v*mean)
	}
	return tr
}
