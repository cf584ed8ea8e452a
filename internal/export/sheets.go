package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"eventnest/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsReporter mirrors the bookings table into a Google spreadsheet that
// the operations team reads. The sheet is a report, never a source of truth:
// every push fully rewrites the Bookings tab.
type SheetsReporter struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewSheetsReporter(credentialsFile, spreadsheetID string) (*SheetsReporter, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsReporter{service: srv, spreadsheetID: spreadsheetID}, nil
}

// TestConnection reads one cell to verify the service account can see the
// spreadsheet.
func (s *SheetsReporter) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, "Bookings!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// ServiceAccountEmail extracts client_email so the admin knows whom to share
// the spreadsheet with.
func (s *SheetsReporter) ServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

// PushBookings clears the Bookings tab and rewrites it from the given rows.
func (s *SheetsReporter) PushBookings(ctx context.Context, bookings []*models.Booking) error {
	clearRange := "Bookings!A1:Z"
	_, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear bookings sheet: %w", err)
	}

	values := [][]interface{}{{
		"ID", "Vendor ID", "Customer ID", "Status", "Event Date",
		"Total Price", "Vendor Fee", "Customer Fee", "Created At", "Updated At",
	}}
	for _, b := range bookings {
		values = append(values, bookingRowValues(b))
	}

	rangeData := fmt.Sprintf("Bookings!A1:J%d", len(values))
	valueRange := &sheets.ValueRange{Values: values}
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update bookings sheet: %w", err)
	}
	return nil
}

func bookingRowValues(b *models.Booking) []interface{} {
	return []interface{}{
		b.ID,
		b.VendorID,
		b.CustomerID,
		b.Status,
		formatDatePtr(b.EventDate),
		b.TotalPrice,
		b.VendorFee,
		b.CustomerFee,
		b.CreatedAt.Format("2006-01-02 15:04:05"),
		b.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
