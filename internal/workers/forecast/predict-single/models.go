package predictsingle

import "sales-forecast/internal/models"

type Input struct {
	Request models.PredictionRequest
}

// Output becomes the job's completion variables.
type Output struct {
	ItemOutletSales        float64              `json:"itemOutletSales"`
	ItemOutletSalesRounded float64              `json:"itemOutletSalesRounded"`
	Display                string               `json:"display"`
	OutletProfile          models.OutletProfile `json:"outletProfile"`
}
