package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DeletionRecord snapshots an asset at deletion time. It carries enough of
// the original row to recreate the asset on restore, plus the cumulative
// history of partial restorations.
type DeletionRecord struct {
	ID                 int                `json:"id"`
	AssetSKU           string             `json:"asset_sku"`
	AssetName          string             `json:"asset_name"`
	AssetType          string             `json:"asset_type"`
	Unit               string             `json:"unit"`
	IsConsumable       bool               `json:"is_consumable"`
	Brand              string             `json:"brand"`
	WarehouseID        int                `json:"warehouse_id"`
	UnitCost           decimal.Decimal    `json:"unit_cost"`
	StockQuantity      decimal.Decimal    `json:"stock_quantity"`
	CostBasis          decimal.Decimal    `json:"cost_basis"`
	Reason             string             `json:"reason"`
	DeletedBy          string             `json:"deleted_by"`
	DeletedAt          time.Time          `json:"deleted_at"`
	RestorationHistory []RestorationEntry `json:"restoration_history"`
}

type RestorationEntry struct {
	RestoredQuantity decimal.Decimal `json:"restored_quantity"`
	RestoredValue    decimal.Decimal `json:"restored_value"`
	RestoredBy       string          `json:"restored_by"`
	RestoredAt       time.Time       `json:"restored_at"`
}

// SnapshotUnitCost derives the per-unit cost of the deleted stock from the
// recorded cost basis. Restores are priced with this, not with the live
// asset's current cost.
func (r *DeletionRecord) SnapshotUnitCost() decimal.Decimal {
	if r.StockQuantity.IsZero() {
		return r.UnitCost
	}
	return r.CostBasis.Div(r.StockQuantity)
}

type FlatDeletionRecord struct {
	ID                 int             `db:"id"`
	AssetSKU           string          `db:"asset_sku"`
	AssetName          string          `db:"asset_name"`
	AssetType          string          `db:"asset_type"`
	Unit               string          `db:"unit"`
	IsConsumable       bool            `db:"is_consumable"`
	Brand              string          `db:"brand"`
	WarehouseID        int             `db:"warehouse_id"`
	UnitCost           decimal.Decimal `db:"unit_cost"`
	StockQuantity      decimal.Decimal `db:"stock_quantity"`
	CostBasis          decimal.Decimal `db:"cost_basis"`
	Reason             string          `db:"reason"`
	DeletedBy          string          `db:"deleted_by"`
	DeletedAt          time.Time       `db:"deleted_at"`
	RestorationHistory []byte          `db:"restoration_history"`
}

func (fr *FlatDeletionRecord) TransformToDeletionRecord() (DeletionRecord, error) {
	history := []RestorationEntry{}
	if len(fr.RestorationHistory) > 0 {
		if err := json.Unmarshal(fr.RestorationHistory, &history); err != nil {
			return DeletionRecord{}, fmt.Errorf("failed to unmarshal restoration history: %w", err)
		}
	}

	return DeletionRecord{
		ID:                 fr.ID,
		AssetSKU:           fr.AssetSKU,
		AssetName:          fr.AssetName,
		AssetType:          fr.AssetType,
		Unit:               fr.Unit,
		IsConsumable:       fr.IsConsumable,
		Brand:              fr.Brand,
		WarehouseID:        fr.WarehouseID,
		UnitCost:           fr.UnitCost,
		StockQuantity:      fr.StockQuantity,
		CostBasis:          fr.CostBasis,
		Reason:             fr.Reason,
		DeletedBy:          fr.DeletedBy,
		DeletedAt:          fr.DeletedAt,
		RestorationHistory: history,
	}, nil
}

func (r *DeletionRecord) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   r.ID,
		ResourceType: "asset_deletion",
	}
}

type DeleteAssetRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RestoreRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}
