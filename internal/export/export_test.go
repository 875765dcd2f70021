package export_test

import (
	"bytes"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"ride-planner/internal/drivers"
	"ride-planner/internal/export"
	"ride-planner/internal/rides"
)

var directory = []drivers.Driver{
	{ID: "d-jan", Name: "Jan", Role: drivers.RoleChauffeur},
}

func TestRows(t *testing.T) {
	list := []rides.Ride{
		{Date: "2024-05-01", DepartureTime: "09:00:00", ArrivalTime: "10:30:00", CustomerName: "Klant A",
			FromLocation: "Utrecht", ToLocation: "Zeist", Status: rides.StatusCompleted, ChauffeurID: "d-jan", Notes: "rolstoel"},
		{Date: "2024-05-01", CustomerName: "Klant B", Status: rides.StatusPlanned, ChauffeurID: "d-weg"},
	}
	got := export.Rows(list, directory)
	want := []export.Row{
		{Date: "2024-05-01", Driver: "Jan", Departure: "09:00", Arrival: "10:30", Customer: "Klant A",
			From: "Utrecht", To: "Zeist", Status: "Afgerond", Notes: "rolstoel"},
		{Date: "2024-05-01", Driver: export.Unknown, Customer: "Klant B", Status: "Gepland"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rows\n got  %+v\n want %+v", got, want)
	}
}

func readBack(t *testing.T, data []byte) (string, [][]string) {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if n := len(f.GetSheetList()); n != 1 {
		t.Fatalf("sheets = %d, want 1", n)
	}
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatal(err)
	}
	return sheet, rows
}

func TestWrite_LabelsNotRawStatus(t *testing.T) {
	list := []rides.Ride{{Date: "2024-05-01", ChauffeurID: "d-jan", Status: rides.StatusCompleted,
		DepartureTime: "08:15:00", ArrivalTime: "09:00:00", CustomerName: "C", FromLocation: "F", ToLocation: "T"}}

	var buf bytes.Buffer
	if err := export.Write(&buf, export.CompletedSheet, export.Rows(list, directory)); err != nil {
		t.Fatal(err)
	}
	sheet, rows := readBack(t, buf.Bytes())
	if sheet != "Afgeronde Ritten" {
		t.Errorf("sheet = %q", sheet)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if !reflect.DeepEqual(rows[0], export.Columns) {
		t.Errorf("header = %v", rows[0])
	}
	want := []string{"2024-05-01", "Jan", "08:15", "09:00", "C", "F", "T", "Afgerond"}
	if !reflect.DeepEqual(rows[1], want) {
		t.Errorf("row = %v, want %v", rows[1], want)
	}
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := export.Write(&buf, export.DaySheet, nil); err != nil {
		t.Fatal(err)
	}
	sheet, rows := readBack(t, buf.Bytes())
	if sheet != "Ritten" || len(rows) != 1 {
		t.Errorf("sheet %q rows %v", sheet, rows)
	}
}

func TestServe_Headers(t *testing.T) {
	w := httptest.NewRecorder()
	if err := export.Serve(w, export.DayFile, export.DaySheet, nil); err != nil {
		t.Fatal(err)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="ritten.xlsx"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Body.Len() == 0 {
		t.Error("empty body")
	}
}
