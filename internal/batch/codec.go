// Package batch adapts uploaded tables to the prediction pipeline and turns the
// results into the downloadable CSV.
package batch

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/forecast"
	"sales-forecast/internal/models"
)

// ResultHeader is the header of the downloadable result file.
var ResultHeader = []string{models.ColOutletIdentifier, models.ColItemIdentifier, models.ColItemOutletSales}

// Decode parses an uploaded table. contents is either raw CSV or a browser data
// URL ("data:text/csv;base64,..."). Known numeric columns are parsed as numbers;
// every other column is kept as text.
func Decode(contents []byte) (*models.Frame, error) {
	raw, err := unwrapDataURL(contents)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(raw))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewInvalidInputError("uploaded table is empty")
	}
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("read header: %v", err))
	}
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("column %d has no name", i+1))
		}
		if seen[name] {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("column %s appears twice", name))
		}
		seen[name] = true
		header[i] = name
	}

	cells := make([][]string, len(header))
	rows := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("row %d: %v", rows+1, err))
		}
		for i, v := range record {
			cells[i] = append(cells[i], strings.TrimSpace(v))
		}
		rows++
	}
	if rows == 0 {
		return nil, apperrors.NewInvalidInputError("uploaded table has no rows")
	}

	frame := models.NewFrame()
	for i, name := range header {
		if !models.NumericColumns[name] {
			if err := frame.AddText(name, cells[i]); err != nil {
				return nil, apperrors.NewInvalidInputError(err.Error())
			}
			continue
		}
		nums := make([]float64, rows)
		for row, v := range cells[i] {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, apperrors.NewInvalidInputError(
					fmt.Sprintf("row %d column %s: %q is not a number", row+1, name, v))
			}
			nums[row] = f
		}
		if err := frame.AddNumeric(name, nums); err != nil {
			return nil, apperrors.NewInvalidInputError(err.Error())
		}
	}
	return frame, nil
}

func unwrapDataURL(contents []byte) ([]byte, error) {
	if !bytes.HasPrefix(contents, []byte("data:")) {
		return contents, nil
	}
	comma := bytes.IndexByte(contents, ',')
	if comma < 0 {
		return nil, apperrors.NewInvalidInputError("malformed data URL")
	}
	meta, payload := string(contents[5:comma]), contents[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return payload, nil
	}
	out := make([]byte, base64.StdEncoding.DecodedLen(len(payload)))
	n, err := base64.StdEncoding.Decode(out, bytes.TrimSpace(payload))
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("decode data URL: %v", err))
	}
	return out[:n], nil
}

// EncodeResults writes one line per predicted row with sales at two decimals.
// Rows that failed under the partial policy are left out.
func EncodeResults(result *forecast.BatchResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ResultHeader); err != nil {
		return nil, err
	}
	for _, row := range result.Succeeded() {
		line := []string{
			row.Record.Profile.OutletIdentifier,
			row.Record.Request.ItemIdentifier,
			strconv.FormatFloat(row.Sales, 'f', 2, 64),
		}
		if err := w.Write(line); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
