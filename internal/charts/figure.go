// Package charts builds Plotly-compatible figures over batch predictions.
package charts

import "encoding/json"

// Figure serializes to the {"data": [...], "layout": {...}} shape Plotly renders.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

type Trace struct {
	Type          string        `json:"type"`
	Name          string        `json:"name,omitempty"`
	Labels        []string      `json:"labels,omitempty"`
	Values        []float64     `json:"values,omitempty"`
	X             []interface{} `json:"x,omitempty"`
	Y             []float64     `json:"y,omitempty"`
	Text          []string      `json:"text,omitempty"`
	CustomData    [][]string    `json:"customdata,omitempty"`
	Hole          float64       `json:"hole,omitempty"`
	TextInfo      string        `json:"textinfo,omitempty"`
	TextPosition  string        `json:"textposition,omitempty"`
	Mode          string        `json:"mode,omitempty"`
	Marker        *Marker       `json:"marker,omitempty"`
	Line          *Line         `json:"line,omitempty"`
	XAxis         string        `json:"xaxis,omitempty"`
	YAxis         string        `json:"yaxis,omitempty"`
	LegendGroup   string        `json:"legendgroup,omitempty"`
	ShowLegend    *bool         `json:"showlegend,omitempty"`
	HoverTemplate string        `json:"hovertemplate,omitempty"`

	// precomputed box statistics
	Q1         []float64 `json:"q1,omitempty"`
	Median     []float64 `json:"median,omitempty"`
	Q3         []float64 `json:"q3,omitempty"`
	LowerFence []float64 `json:"lowerfence,omitempty"`
	UpperFence []float64 `json:"upperfence,omitempty"`
}

type Marker struct {
	Color   string    `json:"color,omitempty"`
	Colors  []string  `json:"colors,omitempty"`
	Size    []float64 `json:"size,omitempty"`
	SizeRef float64   `json:"sizeref,omitempty"`
	Line    *Line     `json:"line,omitempty"`
}

type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
	Dash  string  `json:"dash,omitempty"`
}

type Title struct {
	Text string  `json:"text"`
	X    float64 `json:"x,omitempty"`
}

type Legend struct {
	Orientation string  `json:"orientation,omitempty"`
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
	XAnchor     string  `json:"xanchor,omitempty"`
	YAnchor     string  `json:"yanchor,omitempty"`
	Title       *Title  `json:"title,omitempty"`
}

type Annotation struct {
	X         interface{} `json:"x"`
	Y         float64     `json:"y"`
	XRef      string      `json:"xref,omitempty"`
	YRef      string      `json:"yref,omitempty"`
	Text      string      `json:"text"`
	ShowArrow bool        `json:"showarrow"`
	Align     string      `json:"align,omitempty"`
}

type Grid struct {
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Pattern string `json:"pattern"`
}

type Axis struct {
	Title    *Title `json:"title,omitempty"`
	Anchor   string `json:"anchor,omitempty"`
	ShowGrid bool   `json:"showgrid,omitempty"`
}

// Layout holds the figure-level settings. Axes are keyed by their Plotly layout
// name ("xaxis", "yaxis2", ...) and flattened into the layout object.
type Layout struct {
	Title       *Title          `json:"title,omitempty"`
	Height      int             `json:"height,omitempty"`
	BarMode     string          `json:"barmode,omitempty"`
	HoverMode   string          `json:"hovermode,omitempty"`
	Legend      *Legend         `json:"legend,omitempty"`
	Annotations []Annotation    `json:"annotations,omitempty"`
	Grid        *Grid           `json:"grid,omitempty"`
	Axes        map[string]Axis `json:"-"`
}

func (l Layout) MarshalJSON() ([]byte, error) {
	type plain Layout
	base, err := json.Marshal(plain(l))
	if err != nil || len(l.Axes) == 0 {
		return base, err
	}

	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for name, axis := range l.Axes {
		raw, err := json.Marshal(axis)
		if err != nil {
			return nil, err
		}
		merged[name] = raw
	}
	return json.Marshal(merged)
}

func boolPtr(b bool) *bool {
	return &b
}
