package googlesheets

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// SheetsService wraps the Google Sheets client used to publish the asset
// register and to read stocktake counts filled in by warehouse staff.
type SheetsService struct {
	sheetsService *sheets.Service
	spreadsheetID string
}

func NewSheetsService() (*SheetsService, error) {
	ctx := context.Background()

	spreadsheetID := os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")
	if spreadsheetID == "" {
		return nil, fmt.Errorf("GOOGLE_SHEETS_SPREADSHEET_ID environment variable is not set")
	}

	credentialsJSON := os.Getenv("GOOGLE_SHEETS_CREDENTIALS_JSON")
	var credentials *google.Credentials
	var err error

	if credentialsJSON != "" {
		credentials, err = google.CredentialsFromJSON(ctx, []byte(credentialsJSON), sheets.SpreadsheetsScope)
	} else {
		// Local credentials file, development only.
		b, readErr := os.ReadFile("configs/google-credentials.json")
		if readErr != nil {
			return nil, fmt.Errorf("cannot read Google credentials file: %v", readErr)
		}
		credentials, err = google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load Google credentials: %v", err)
	}

	client := oauth2.NewClient(ctx, credentials.TokenSource)
	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("cannot create Google Sheets client: %v", err)
	}

	return &SheetsService{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
	}, nil
}

// PublishRegister replaces the register sheet with the given rows, header
// included.
func (s *SheetsService) PublishRegister(rows [][]interface{}) error {
	clearRange := "Register!A:J"
	if _, err := s.sheetsService.Spreadsheets.Values.
		Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
		Do(); err != nil {
		return fmt.Errorf("cannot clear register sheet: %v", err)
	}

	body := &sheets.ValueRange{Values: rows}
	if _, err := s.sheetsService.Spreadsheets.Values.
		Update(s.spreadsheetID, "Register!A1", body).
		ValueInputOption("RAW").
		Do(); err != nil {
		return fmt.Errorf("cannot write register sheet: %v", err)
	}

	return nil
}

// ReadStocktake returns the raw rows of the stocktake sheet.
func (s *SheetsService) ReadStocktake() ([][]interface{}, error) {
	readRange := "Stocktake!A1:C999"

	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Do()
	if err != nil {
		return nil, fmt.Errorf("cannot read stocktake sheet: %v", err)
	}

	if len(resp.Values) == 0 {
		return nil, nil
	}

	return resp.Values, nil
}
