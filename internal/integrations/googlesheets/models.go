package googlesheets

import (
	"stockledger/pkg/models"

	"github.com/shopspring/decimal"
)

// StocktakeRow is one physical count row filled in by warehouse staff.
type StocktakeRow struct {
	SKU             string          `json:"sku"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
	Note            string          `json:"note"`
}

var registerHeader = []interface{}{
	"SKU", "Name", "Type", "Unit", "Status", "Warehouse",
	"Unit cost", "Stock", "Allocated", "Closing value",
}

// RegisterRows flattens the asset list into sheet rows, header first.
func RegisterRows(assets []models.Asset) [][]interface{} {
	rows := make([][]interface{}, 0, len(assets)+1)
	rows = append(rows, registerHeader)

	for _, asset := range assets {
		rows = append(rows, []interface{}{
			asset.SKU,
			asset.Name,
			asset.Type,
			asset.Unit,
			asset.Status,
			asset.Warehouse.Name,
			asset.UnitCost.String(),
			asset.Balances.StockQuantity.String(),
			asset.Balances.AllocatedQuantity.String(),
			asset.Balances.ClosingValue.String(),
		})
	}

	return rows
}

// ParseStocktake turns raw sheet rows into count rows. The first row is the
// header; rows without a SKU or with an unparseable count are skipped.
func ParseStocktake(values [][]interface{}) []StocktakeRow {
	if len(values) < 2 {
		return []StocktakeRow{}
	}

	rows := make([]StocktakeRow, 0, len(values)-1)
	for _, raw := range values[1:] {
		if len(raw) < 2 {
			continue
		}

		sku, ok := raw[0].(string)
		if !ok || sku == "" {
			continue
		}

		countStr, ok := raw[1].(string)
		if !ok {
			continue
		}
		counted, err := decimal.NewFromString(countStr)
		if err != nil {
			continue
		}

		row := StocktakeRow{SKU: sku, CountedQuantity: counted}
		if len(raw) > 2 {
			if note, ok := raw[2].(string); ok {
				row.Note = note
			}
		}
		rows = append(rows, row)
	}

	return rows
}
