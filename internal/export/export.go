// Package export turns ride lists into single-sheet xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"net/http"

	"github.com/xuri/excelize/v2"

	"ride-planner/internal/drivers"
	"ride-planner/internal/rides"
)

// Unknown is the driver name used when a ride's chauffeur is not in the directory.
const Unknown = "Onbekend"

// Columns is the header row, in order.
var Columns = []string{"Datum", "Chauffeur", "Vertrek", "Aankomst", "Klant", "Van", "Naar", "Status", "Notitie"}

// Fixed file and sheet names per download.
const (
	DayFile        = "ritten.xlsx"
	DaySheet       = "Ritten"
	CompletedFile  = "afgeronde_ritten.xlsx"
	CompletedSheet = "Afgeronde Ritten"
)

const defaultSheet = "Sheet1"

// Row is one exported ride.
type Row struct {
	Date      string
	Driver    string
	Departure string
	Arrival   string
	Customer  string
	From      string
	To        string
	Status    string
	Notes     string
}

func (r Row) cells() []any {
	return []any{r.Date, r.Driver, r.Departure, r.Arrival, r.Customer, r.From, r.To, r.Status, r.Notes}
}

// Rows maps rides to export rows, resolving driver names from ds.
func Rows(list []rides.Ride, ds []drivers.Driver) []Row {
	out := make([]Row, 0, len(list))
	for _, r := range list {
		name, ok := drivers.Name(ds, r.ChauffeurID)
		if !ok {
			name = Unknown
		}
		out = append(out, Row{
			Date:      r.Date,
			Driver:    name,
			Departure: rides.ShortClock(r.DepartureTime),
			Arrival:   rides.ShortClock(r.ArrivalTime),
			Customer:  r.CustomerName,
			From:      r.FromLocation,
			To:        r.ToLocation,
			Status:    r.Status.Label(),
			Notes:     r.Notes,
		})
	}
	return out
}

// Write builds a workbook with one sheet holding the header and rows, and writes it to w.
func Write(w io.Writer, sheet string, rows []Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := r.cells()
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "I", 16); err != nil {
		return err
	}
	return f.Write(w)
}

// Serve sends rows as an attachment named filename.
func Serve(w http.ResponseWriter, filename, sheet string, rows []Row) error {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return Write(w, sheet, rows)
}
