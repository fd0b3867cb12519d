// internal/models/sales.go
package models

import "strconv"

// Column names as they appear in uploads, job variables and model artifacts.
const (
	ColOutletIdentifier   = "Outlet_Identifier"
	ColItemIdentifier     = "Item_Identifier"
	ColItemType           = "Item_Type"
	ColItemFatContent     = "Item_Fat_Content"
	ColItemVisibility     = "Item_Visibility"
	ColItemMRP            = "Item_MRP"
	ColOutletType         = "Outlet_Type"
	ColOutletSize         = "Outlet_Size"
	ColOutletLocationType = "Outlet_Location_Type"
	ColOutletYears        = "Outlet_Years"
	ColItemOutletSales    = "Item_Outlet_Sales"
)

// RequestColumns are the six user-supplied attributes of a prediction request.
func RequestColumns() []string {
	return []string{
		ColOutletIdentifier, ColItemIdentifier, ColItemType,
		ColItemFatContent, ColItemVisibility, ColItemMRP,
	}
}

// ProfileColumns are the attributes the outlet table adds to a request.
func ProfileColumns() []string {
	return []string{ColOutletType, ColOutletSize, ColOutletLocationType, ColOutletYears}
}

// NumericColumns lists columns that carry numbers rather than labels.
var NumericColumns = map[string]bool{
	ColItemVisibility:           true,
	ColItemMRP:                  true,
	ColOutletYears:              true,
	ColItemOutletSales:          true,
	"Item_Weight":               true,
	"Outlet_Establishment_Year": true,
}

// PredictionRequest is the user-facing input for a single forecast.
type PredictionRequest struct {
	OutletIdentifier string     `json:"Outlet_Identifier"`
	ItemIdentifier   string     `json:"Item_Identifier"`
	ItemType         ItemType   `json:"Item_Type"`
	ItemFatContent   FatContent `json:"Item_Fat_Content"`
	ItemVisibility   float64    `json:"Item_Visibility"`
	ItemMRP          float64    `json:"Item_MRP"`
}

// OutletProfile holds the static attributes of one outlet.
type OutletProfile struct {
	OutletIdentifier   string       `json:"Outlet_Identifier" yaml:"id"`
	OutletType         OutletType   `json:"Outlet_Type" yaml:"type"`
	OutletSize         OutletSize   `json:"Outlet_Size" yaml:"size"`
	OutletLocationType LocationType `json:"Outlet_Location_Type" yaml:"location_type"`
	OutletYears        int          `json:"Outlet_Years" yaml:"years"`
}

// Value is one cell of a record: either a label or a number.
type Value struct {
	Text    string
	Num     float64
	Numeric bool
}

func TextValue(s string) Value {
	return Value{Text: s}
}

func NumberValue(f float64) Value {
	return Value{Num: f, Numeric: true}
}

func (v Value) String() string {
	if v.Numeric {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Text
}

// EnrichedRecord is a request merged with the profile of its outlet. The two key
// sets are disjoint except for Outlet_Identifier, which resolves to the profile.
type EnrichedRecord struct {
	Request PredictionRequest `json:"request"`
	Profile OutletProfile     `json:"profile"`
}

// Enrich merges a request with its outlet profile.
func Enrich(req PredictionRequest, profile OutletProfile) EnrichedRecord {
	return EnrichedRecord{Request: req, Profile: profile}
}

// Columns returns the names Column can resolve, request columns first.
func (r EnrichedRecord) Columns() []string {
	return append(RequestColumns(), ProfileColumns()...)
}

// Column resolves a column by name.
func (r EnrichedRecord) Column(name string) (Value, bool) {
	switch name {
	case ColOutletIdentifier:
		return TextValue(r.Profile.OutletIdentifier), true
	case ColItemIdentifier:
		return TextValue(r.Request.ItemIdentifier), true
	case ColItemType:
		return TextValue(string(r.Request.ItemType)), true
	case ColItemFatContent:
		return TextValue(string(r.Request.ItemFatContent)), true
	case ColItemVisibility:
		return NumberValue(r.Request.ItemVisibility), true
	case ColItemMRP:
		return NumberValue(r.Request.ItemMRP), true
	case ColOutletType:
		return TextValue(string(r.Profile.OutletType)), true
	case ColOutletSize:
		return TextValue(string(r.Profile.OutletSize)), true
	case ColOutletLocationType:
		return TextValue(string(r.Profile.OutletLocationType)), true
	case ColOutletYears:
		return NumberValue(float64(r.Profile.OutletYears)), true
	}
	return Value{}, false
}

// PredictionResult is one forecast on the original sales scale, unrounded.
type PredictionResult struct {
	ItemOutletSales float64        `json:"Item_Outlet_Sales"`
	Record          EnrichedRecord `json:"record"`
}

// SalesRow is one predicted row as consumed by the chart builders.
type SalesRow struct {
	OutletIdentifier   string       `json:"Outlet_Identifier"`
	ItemIdentifier     string       `json:"Item_Identifier"`
	ItemType           ItemType     `json:"Item_Type"`
	ItemVisibility     float64      `json:"Item_Visibility"`
	OutletType         OutletType   `json:"Outlet_Type"`
	OutletSize         OutletSize   `json:"Outlet_Size"`
	OutletLocationType LocationType `json:"Outlet_Location_Type"`
	ItemOutletSales    float64      `json:"Item_Outlet_Sales"`
}
