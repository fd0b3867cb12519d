package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"sales-forecast/internal/models"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func newTable(out io.Writer) table.Writer {
	w := table.NewWriter()
	w.SetOutputMirror(out)
	w.SetStyle(table.StyleLight)
	return w
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkFormat(format string) error {
	if format != outputTable && format != outputJSON {
		return fmt.Errorf("unknown output format %q (use table or json)", format)
	}
	return nil
}

func renderSingle(out io.Writer, format string, res *models.SingleResponse) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == outputJSON {
		return writeJSON(out, res)
	}

	fmt.Fprintln(out, res.Display)
	w := newTable(out)
	w.AppendHeader(table.Row{"Outlet", "Type", "Size", "Location", "Years"})
	w.AppendRow(table.Row{
		res.Outlet.OutletIdentifier, res.Outlet.OutletType, res.Outlet.OutletSize,
		res.Outlet.OutletLocationType, res.Outlet.OutletYears,
	})
	w.Render()
	return nil
}

func renderBatch(out io.Writer, format string, res *models.BatchResponse) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == outputJSON {
		return writeJSON(out, res)
	}

	w := newTable(out)
	w.AppendHeader(table.Row{"#", models.ColOutletIdentifier, models.ColItemIdentifier, models.ColItemOutletSales})
	var total float64
	for i, p := range res.Predictions {
		w.AppendRow(table.Row{i + 1, p.OutletIdentifier, p.ItemIdentifier, fmt.Sprintf("%.2f", p.ItemOutletSales)})
		total += p.ItemOutletSales
	}
	w.AppendFooter(table.Row{"", "", "Total", fmt.Sprintf("%.2f", total)})
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	w.Render()

	if len(res.Failures) > 0 {
		f := newTable(out)
		f.SetTitle("Skipped rows")
		f.AppendHeader(table.Row{"Row", "Code", "Message"})
		for _, failure := range res.Failures {
			f.AppendRow(table.Row{failure.Row, failure.Code, failure.Message})
		}
		f.Render()
	}
	fmt.Fprintf(out, "Batch %s: %d rows, %d failed\n", res.BatchID, res.Rows, res.Failed)
	return nil
}

func renderOutlets(out io.Writer, format string, profiles []models.OutletProfile) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == outputJSON {
		return writeJSON(out, profiles)
	}

	w := newTable(out)
	w.AppendHeader(table.Row{"Outlet", "Type", "Size", "Location", "Years"})
	for _, p := range profiles {
		w.AppendRow(table.Row{p.OutletIdentifier, p.OutletType, p.OutletSize, p.OutletLocationType, p.OutletYears})
	}
	w.Render()
	return nil
}

func renderItems(out io.Writer, format string, items []string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == outputJSON {
		return writeJSON(out, items)
	}
	for _, item := range items {
		fmt.Fprintln(out, item)
	}
	return nil
}
