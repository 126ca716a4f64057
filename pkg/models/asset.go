package models

import (
	"stockledger/pkg/ledger"

	"github.com/shopspring/decimal"
)

// Asset is one stock-keeping unit: a piece of equipment, a tool or a
// consumable material tracked by the ledger.
type Asset struct {
	ID           int             `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Unit         string          `json:"unit"`
	IsConsumable bool            `json:"is_consumable"`
	Brand        string          `json:"brand,omitempty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Status       string          `json:"status"`
	Warehouse    Warehouse       `json:"warehouse,omitempty"`
	Balances     ledger.Balances `json:"balances"`
}

type FlatAssetRecord struct {
	ID                int             `db:"asset_id"`
	SKU               string          `db:"sku"`
	Name              string          `db:"name"`
	Type              string          `db:"asset_type"`
	Unit              string          `db:"unit"`
	IsConsumable      bool            `db:"is_consumable"`
	Brand             string          `db:"brand"`
	UnitCost          decimal.Decimal `db:"unit_cost"`
	Status            string          `db:"status"`
	WarehouseID       int             `db:"warehouse_id"`
	WarehouseName     string          `db:"warehouse_name"`
	OpeningQuantity   decimal.Decimal `db:"opening_quantity"`
	OpeningValue      decimal.Decimal `db:"opening_value"`
	InboundQuantity   decimal.Decimal `db:"inbound_quantity"`
	InboundValue      decimal.Decimal `db:"inbound_value"`
	OutboundQuantity  decimal.Decimal `db:"outbound_quantity"`
	OutboundValue     decimal.Decimal `db:"outbound_value"`
	ClosingQuantity   decimal.Decimal `db:"closing_quantity"`
	ClosingValue      decimal.Decimal `db:"closing_value"`
	StockQuantity     decimal.Decimal `db:"stock_quantity"`
	AllocatedQuantity decimal.Decimal `db:"allocated_quantity"`
}

func (fa *FlatAssetRecord) TransformToAsset() Asset {
	return Asset{
		ID:           fa.ID,
		SKU:          fa.SKU,
		Name:         fa.Name,
		Type:         fa.Type,
		Unit:         fa.Unit,
		IsConsumable: fa.IsConsumable,
		Brand:        fa.Brand,
		UnitCost:     fa.UnitCost,
		Status:       fa.Status,
		Warehouse: Warehouse{
			ID:   fa.WarehouseID,
			Name: fa.WarehouseName,
		},
		Balances: ledger.Balances{
			OpeningQuantity:   fa.OpeningQuantity,
			OpeningValue:      fa.OpeningValue,
			InboundQuantity:   fa.InboundQuantity,
			InboundValue:      fa.InboundValue,
			OutboundQuantity:  fa.OutboundQuantity,
			OutboundValue:     fa.OutboundValue,
			ClosingQuantity:   fa.ClosingQuantity,
			ClosingValue:      fa.ClosingValue,
			StockQuantity:     fa.StockQuantity,
			AllocatedQuantity: fa.AllocatedQuantity,
		},
	}
}

func (a *Asset) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   a.ID,
		ResourceType: "asset",
	}
}

// AssetRequest carries a manual-entry or import row.
type AssetRequest struct {
	SKU          *string         `json:"sku"`
	Name         string          `json:"name" binding:"required"`
	Type         string          `json:"type" binding:"required"`
	Unit         string          `json:"unit"`
	IsConsumable bool            `json:"is_consumable"`
	Brand        string          `json:"brand"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	WarehouseID  int             `json:"warehouse_id"`
	OpeningQty   decimal.Decimal `json:"opening_quantity"`
}

// ReceiptRequest books an inbound goods receipt against an asset.
type ReceiptRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Note     string          `json:"note"`
}
