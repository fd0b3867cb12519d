package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"sales-forecast/internal/models"
)

// FileCatalog holds the identifiers of a CSV file with an Item_Identifier column,
// deduplicated and in file order.
type FileCatalog struct {
	items []string
	lower []string
}

func LoadFile(path string) (*FileCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open item catalog: %w", err)
	}
	defer f.Close()

	fc, err := ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("item catalog %s: %w", path, err)
	}
	return fc, nil
}

func ReadCatalog(r io.Reader) (*FileCatalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, err
	}

	col := -1
	for i, name := range header {
		if strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) == models.ColItemIdentifier {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("no %s column", models.ColItemIdentifier)
	}

	fc := &FileCatalog{}
	seen := make(map[string]bool)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if col >= len(rec) {
			continue
		}
		id := strings.TrimSpace(rec[col])
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		fc.items = append(fc.items, id)
		fc.lower = append(fc.lower, strings.ToLower(id))
	}
	return fc, nil
}

func (c *FileCatalog) Len() int {
	return len(c.items)
}

func (c *FileCatalog) Search(ctx context.Context, term string, limit int) ([]string, error) {
	needle := strings.ToLower(term)
	var out []string
	for i, l := range c.lower {
		if limit > 0 && len(out) == limit {
			break
		}
		if strings.Contains(l, needle) {
			out = append(out, c.items[i])
		}
	}
	return out, ctx.Err()
}
