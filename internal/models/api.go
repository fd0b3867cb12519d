package models

// SingleResponse is the body of POST /api/v1/predictions.
type SingleResponse struct {
	ItemOutletSales        float64       `json:"Item_Outlet_Sales"`
	ItemOutletSalesRounded float64       `json:"Item_Outlet_Sales_Rounded"`
	Display                string        `json:"display"`
	Outlet                 OutletProfile `json:"outlet"`
}

type BatchPrediction struct {
	OutletIdentifier string  `json:"Outlet_Identifier"`
	ItemIdentifier   string  `json:"Item_Identifier"`
	ItemOutletSales  float64 `json:"Item_Outlet_Sales"`
}

// BatchFailure describes a row skipped under the partial policy. Row is 1-based.
type BatchFailure struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchResponse is the body of POST /api/v1/predictions/batch.
type BatchResponse struct {
	BatchID     string            `json:"batch_id"`
	Rows        int               `json:"rows"`
	Failed      int               `json:"failed"`
	Predictions []BatchPrediction `json:"predictions"`
	Failures    []BatchFailure    `json:"failures"`
	DownloadURL string            `json:"download_url"`
	Charts      interface{}       `json:"charts,omitempty"`
	ChartsError string            `json:"charts_error,omitempty"`
}

// APIError is the "error" member of every non-2xx response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
