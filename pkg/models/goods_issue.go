package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoodsIssueNote is a voucher documenting a consumable-material issue out of
// the warehouse. Items may still be partially returned against the note.
type GoodsIssueNote struct {
	ID          int       `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	WarehouseID int       `json:"warehouse_id" db:"warehouse_id"`
	IssuedTo    string    `json:"issued_to" db:"issued_to"`
	Note        string    `json:"note" db:"note"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Items       []GINItem `json:"items"`
}

type GINItem struct {
	ID               int             `json:"id" db:"id"`
	NoteID           int             `json:"note_id" db:"note_id"`
	AssetID          int             `json:"asset_id" db:"asset_id"`
	AssetName        string          `json:"asset_name,omitempty" db:"asset_name"`
	AssetSKU         string          `json:"asset_sku,omitempty" db:"asset_sku"`
	Quantity         decimal.Decimal `json:"quantity" db:"quantity"`
	ReturnedQuantity decimal.Decimal `json:"returned_quantity" db:"returned_quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	TotalCost        decimal.Decimal `json:"total_cost" db:"total_cost"`
	Status           string          `json:"status" db:"status"`
}

// Outstanding is the issued quantity not yet returned against this item.
func (i *GINItem) Outstanding() decimal.Decimal {
	return i.Quantity.Sub(i.ReturnedQuantity)
}

func (n *GoodsIssueNote) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   n.ID,
		ResourceType: "goods_issue_note",
	}
}

type GoodsIssueRequest struct {
	WarehouseID int                   `json:"warehouse_id"`
	IssuedTo    string                `json:"issued_to" binding:"required"`
	Note        string                `json:"note"`
	Items       []GoodsIssueItemInput `json:"items" binding:"required"`
}

type GoodsIssueItemInput struct {
	AssetID  int             `json:"asset_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

type IssueReturnRequest struct {
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	ConditionNote string          `json:"condition_note"`
}
