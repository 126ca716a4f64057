package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation is a checkout of equipment/tools (returnable) or materials
// (returnable or consumable) to an employee or a free-text recipient.
type Allocation struct {
	ID                 int             `json:"id" db:"id"`
	AssetID            int             `json:"asset_id" db:"asset_id"`
	AssetName          string          `json:"asset_name,omitempty" db:"asset_name"`
	AssetSKU           string          `json:"asset_sku,omitempty" db:"asset_sku"`
	Quantity           decimal.Decimal `json:"quantity" db:"quantity"`
	AllocatedToID      *int            `json:"allocated_to_id" db:"allocated_to_id"`
	AllocatedToName    string          `json:"allocated_to_name" db:"allocated_to_name"`
	Purpose            string          `json:"purpose" db:"purpose"`
	Status             string          `json:"status" db:"status"`
	IsConsumed         bool            `json:"is_consumed" db:"is_consumed"`
	ConsumedQuantity   decimal.Decimal `json:"consumed_quantity" db:"consumed_quantity"`
	RemainingQuantity  decimal.Decimal `json:"remaining_quantity" db:"remaining_quantity"`
	ReusabilityPct     *int            `json:"reusability_pct" db:"reusability_pct"`
	ConditionNote      string          `json:"condition_note" db:"condition_note"`
	ExpectedReturnDate *time.Time      `json:"expected_return_date" db:"expected_return_date"`
	AllocatedAt        time.Time       `json:"allocated_at" db:"allocated_at"`
	ActualReturnDate   *time.Time      `json:"actual_return_date" db:"actual_return_date"`
}

// Outstanding is the quantity still checked out on this allocation.
func (a *Allocation) Outstanding() decimal.Decimal {
	return a.Quantity.Sub(a.ConsumedQuantity)
}

func (a *Allocation) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   a.ID,
		ResourceType: "allocation",
	}
}

type AllocationRequest struct {
	AssetID            int             `json:"asset_id" binding:"required"`
	Quantity           decimal.Decimal `json:"quantity" binding:"required"`
	AllocatedToID      *int            `json:"allocated_to_id"`
	AllocatedToName    string          `json:"allocated_to_name"`
	Purpose            string          `json:"purpose"`
	ExpectedReturnDate *time.Time      `json:"expected_return_date"`
}

type ReturnRequest struct {
	Quantity       *decimal.Decimal `json:"quantity"`
	ConditionNote  string           `json:"condition_note"`
	ReusabilityPct int              `json:"reusability_pct"`
}

type ConsumeRequest struct {
	ConsumedQuantity decimal.Decimal `json:"consumed_quantity" binding:"required"`
}
