package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"eventnest/internal/database"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ExcelExporter writes admin reports as .xlsx files under dir.
type ExcelExporter struct {
	db     *database.DB
	dir    string
	logger *zerolog.Logger
}

func NewExcelExporter(db *database.DB, dir string, logger *zerolog.Logger) *ExcelExporter {
	return &ExcelExporter{db: db, dir: dir, logger: logger}
}

// ExportBookings dumps every booking into a dated workbook and returns the
// file path.
func (e *ExcelExporter) ExportBookings(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	bookings, err := e.db.ListBookings(ctx)
	if err != nil {
		return "", fmt.Errorf("load bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"ID", "Vendor ID", "Customer ID", "Status", "Event Date",
		"Proposal State", "Proposed Date", "Total Price", "Vendor Fee",
		"Customer Fee", "Confirmed At", "Created At",
	}
	writeHeaderRow(f, sheetName, headers)

	for i, b := range bookings {
		row := i + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), b.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), b.VendorID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), b.CustomerID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), b.Status)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), formatDatePtr(b.EventDate))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), b.ProposalState)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), formatDatePtr(b.ProposedDate))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), b.TotalPrice)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), b.VendorFee)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), b.CustomerFee)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("K%d", row), formatTimePtr(b.ConfirmedAt))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("L%d", row), b.CreatedAt.Format("2006-01-02 15:04"))
	}

	_ = f.SetColWidth(sheetName, "A", "C", 12)
	_ = f.SetColWidth(sheetName, "D", "G", 16)
	_ = f.SetColWidth(sheetName, "H", "J", 12)
	_ = f.SetColWidth(sheetName, "K", "L", 18)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("bookings export created")
	return filePath, nil
}

// ExportReviews dumps every review into a dated workbook and returns the
// file path.
func (e *ExcelExporter) ExportReviews(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	reviews, err := e.db.ListReviews(ctx)
	if err != nil {
		return "", fmt.Errorf("load reviews: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Reviews"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Booking ID", "Vendor ID", "Customer ID", "Rating", "Body", "Created At"}
	writeHeaderRow(f, sheetName, headers)

	for i, r := range reviews {
		row := i + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.BookingID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.VendorID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), r.CustomerID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), r.Rating)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), r.Body)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), r.CreatedAt.Format("2006-01-02 15:04"))
	}

	_ = f.SetColWidth(sheetName, "A", "E", 12)
	_ = f.SetColWidth(sheetName, "F", "F", 50)
	_ = f.SetColWidth(sheetName, "G", "G", 18)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("reviews_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("reviews", len(reviews)).Msg("reviews export created")
	return filePath, nil
}

func writeHeaderRow(f *excelize.File, sheetName string, headers []string) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
