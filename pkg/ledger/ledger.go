// Package ledger holds the pure quantity/value balance rules of the asset
// ledger. Every rule takes the current balances and returns a new set without
// touching the store; persistence and locking are the caller's problem.
//
// All monetary deltas are priced with the unit cost passed by the caller,
// which services read from the asset at operation time. Historical cost at
// allocation time is deliberately not used.
package ledger

import (
	"stockledger/pkg/metadata"

	custom_error "stockledger/pkg/errors"

	"github.com/shopspring/decimal"
)

// ReusabilityThreshold is the minimum reusability percentage at which a
// returned asset goes straight back into stock instead of maintenance.
const ReusabilityThreshold = 70

// Balances carries the six book balances plus the two working quantities of
// one asset. The closing pair is derived: closing_quantity must always equal
// inbound_quantity - outbound_quantity.
type Balances struct {
	OpeningQuantity   decimal.Decimal `json:"opening_quantity" db:"opening_quantity"`
	OpeningValue      decimal.Decimal `json:"opening_value" db:"opening_value"`
	InboundQuantity   decimal.Decimal `json:"inbound_quantity" db:"inbound_quantity"`
	InboundValue      decimal.Decimal `json:"inbound_value" db:"inbound_value"`
	OutboundQuantity  decimal.Decimal `json:"outbound_quantity" db:"outbound_quantity"`
	OutboundValue     decimal.Decimal `json:"outbound_value" db:"outbound_value"`
	ClosingQuantity   decimal.Decimal `json:"closing_quantity" db:"closing_quantity"`
	ClosingValue      decimal.Decimal `json:"closing_value" db:"closing_value"`
	StockQuantity     decimal.Decimal `json:"stock_quantity" db:"stock_quantity"`
	AllocatedQuantity decimal.Decimal `json:"allocated_quantity" db:"allocated_quantity"`
}

// reclose recomputes the derived closing pair after any book mutation.
func (b Balances) reclose(unitCost decimal.Decimal) Balances {
	b.ClosingQuantity = b.InboundQuantity.Sub(b.OutboundQuantity)
	b.ClosingValue = b.ClosingQuantity.Mul(unitCost)
	return b
}

// Receipt books an inbound goods receipt (GRN) of qty units.
func Receipt(b Balances, qty, unitCost decimal.Decimal) (Balances, metadata.AssetStatus, error) {
	if !qty.IsPositive() {
		return b, "", custom_error.NewValidationError("receipt quantity must be positive, got %s", qty.String())
	}

	b.StockQuantity = b.StockQuantity.Add(qty)
	b.InboundQuantity = b.InboundQuantity.Add(qty)
	b.InboundValue = b.InboundValue.Add(qty.Mul(unitCost))
	b = b.reclose(unitCost)

	return b, metadata.AssetInStock, nil
}

// Outgoing books an allocation or a goods issue of qty units. With
// trackAllocated the quantity is also added to allocated_quantity; goods
// issues leave that field alone.
func Outgoing(b Balances, qty, unitCost decimal.Decimal, trackAllocated bool) (Balances, metadata.AssetStatus, error) {
	if !qty.IsPositive() {
		return b, "", custom_error.NewValidationError("outgoing quantity must be positive, got %s", qty.String())
	}
	if qty.GreaterThan(b.StockQuantity) {
		return b, "", &custom_error.InsufficientStockError{Requested: qty, Available: b.StockQuantity}
	}

	b.StockQuantity = b.StockQuantity.Sub(qty)
	if trackAllocated {
		b.AllocatedQuantity = b.AllocatedQuantity.Add(qty)
	}
	b.OutboundQuantity = b.OutboundQuantity.Add(qty)
	b.OutboundValue = b.OutboundValue.Add(qty.Mul(unitCost))
	b = b.reclose(unitCost)

	return b, outgoingStatus(b), nil
}

// Return books a full or partial return of qty units. The caller validates
// qty against the outstanding quantity of the allocation or issue item; the
// rule only protects the books themselves.
func Return(b Balances, qty, unitCost decimal.Decimal, reusabilityPct int, trackAllocated bool) (Balances, metadata.AssetStatus, error) {
	if !qty.IsPositive() {
		return b, "", custom_error.NewValidationError("return quantity must be positive, got %s", qty.String())
	}
	if trackAllocated && qty.GreaterThan(b.AllocatedQuantity) {
		return b, "", &custom_error.ExcessiveReturnError{Requested: qty, Outstanding: b.AllocatedQuantity}
	}

	b.StockQuantity = b.StockQuantity.Add(qty)
	if trackAllocated {
		b.AllocatedQuantity = b.AllocatedQuantity.Sub(qty)
	}
	b.OutboundQuantity = b.OutboundQuantity.Sub(qty)
	b.OutboundValue = b.OutboundValue.Sub(qty.Mul(unitCost))
	if b.OutboundValue.IsNegative() {
		b.OutboundValue = decimal.Zero
	}
	b = b.reclose(unitCost)

	return b, returnStatus(b, reusabilityPct), nil
}

// Consume marks qty outstanding units of a consumable allocation as used up.
// Outbound was already booked at allocation time, so consumption only
// releases the allocated quantity; stock and values stay put.
func Consume(b Balances, qty decimal.Decimal) (Balances, error) {
	if !qty.IsPositive() {
		return b, custom_error.NewValidationError("consumed quantity must be positive, got %s", qty.String())
	}
	if qty.GreaterThan(b.AllocatedQuantity) {
		return b, &custom_error.ExcessiveReturnError{Requested: qty, Outstanding: b.AllocatedQuantity}
	}

	b.AllocatedQuantity = b.AllocatedQuantity.Sub(qty)

	return b, nil
}

// Restore books qty units back onto a live asset from a deletion record.
// The unit cost comes from the snapshot (original cost_basis over original
// quantity), not from the live asset; restoration recreates what was deleted
// at the price it was deleted at. Closing is adjusted directly because the
// restored quantity never passed through the inbound/outbound books.
func Restore(b Balances, qty, unitCost decimal.Decimal) (Balances, metadata.AssetStatus, error) {
	if !qty.IsPositive() {
		return b, "", custom_error.NewValidationError("restore quantity must be positive, got %s", qty.String())
	}

	b.StockQuantity = b.StockQuantity.Add(qty)
	b.ClosingQuantity = b.ClosingQuantity.Add(qty)
	b.ClosingValue = b.ClosingValue.Add(qty.Mul(unitCost))

	return b, metadata.AssetInStock, nil
}

func outgoingStatus(b Balances) metadata.AssetStatus {
	if b.StockQuantity.IsZero() {
		return metadata.AssetAllocated
	}
	return metadata.AssetInStock
}

func returnStatus(b Balances, reusabilityPct int) metadata.AssetStatus {
	status := metadata.AssetInStock
	if reusabilityPct < ReusabilityThreshold {
		status = metadata.AssetUnderMaintenance
	}
	if b.StockQuantity.IsZero() {
		status = metadata.AssetAllocated
	}
	return status
}
