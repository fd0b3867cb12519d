package predictbatch

type Input struct {
	Contents string `json:"contents"`
}

type Prediction struct {
	OutletIdentifier string  `json:"outletIdentifier"`
	ItemIdentifier   string  `json:"itemIdentifier"`
	ItemOutletSales  float64 `json:"itemOutletSales"`
}

// RowFailure names a row skipped under the partial failure policy. Row is 1-based.
type RowFailure struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type Output struct {
	BatchID     string       `json:"batchId"`
	RowCount    int          `json:"rowCount"`
	FailedCount int          `json:"failedCount"`
	Predictions []Prediction `json:"predictions"`
	Failures    []RowFailure `json:"failures,omitempty"`
	DownloadURL string       `json:"downloadUrl"`
}
