package allocations

import (
	"time"

	"stockledger/internal/inventory/assets"
	"stockledger/internal/repository"
	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/ledger"
	"stockledger/pkg/metadata"
	"stockledger/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"
)

// AllocationStore is the slice of the allocations repository the service
// needs.
type AllocationStore interface {
	GetAllocation(id int) (*models.Allocation, error)
	GetAllocationForUpdate(tx *goqu.TxDatabase, id int) (*models.Allocation, error)
	InsertAllocation(tx *goqu.TxDatabase, req models.AllocationRequest) (int, error)
	CloseAllocation(tx *goqu.TxDatabase, id int, req models.ReturnRequest) error
	ReduceAllocation(tx *goqu.TxDatabase, id int, newQuantity, remaining decimal.Decimal) error
	InsertReturnedSplit(tx *goqu.TxDatabase, original models.Allocation, qty decimal.Decimal, req models.ReturnRequest) (int, error)
	MarkConsumed(tx *goqu.TxDatabase, id int, consumed, remaining decimal.Decimal, closed bool) error
	MarkOverdueAllocations(now time.Time) (int64, error)
}

type AllocationService struct {
	allocationsRepo AllocationStore
	assetsRepo      assets.AssetStore
	tx              repository.TxRunner
}

func NewAllocationService(allocationsRepo AllocationStore, assetsRepo assets.AssetStore, tx repository.TxRunner) *AllocationService {
	return &AllocationService{
		allocationsRepo: allocationsRepo,
		assetsRepo:      assetsRepo,
		tx:              tx,
	}
}

// Allocate checks out qty units of an asset to an employee or a free-text
// recipient. The outbound book is priced at the asset's current unit cost.
func (s *AllocationService) Allocate(req models.AllocationRequest) (*models.Allocation, error) {
	if !req.Quantity.IsPositive() {
		return nil, custom_error.NewValidationError("allocation quantity must be positive")
	}
	if req.AllocatedToID == nil && req.AllocatedToName == "" {
		return nil, custom_error.NewValidationError("allocation needs a recipient")
	}

	var allocationID int
	err := s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		asset, err := s.assetsRepo.GetAssetForUpdate(tx, req.AssetID)
		if err != nil {
			return err
		}

		balances, status, err := ledger.Outgoing(asset.Balances, req.Quantity, asset.UnitCost, true)
		if err != nil {
			return err
		}

		if err := s.assetsRepo.UpdateBalances(tx, req.AssetID, balances, status); err != nil {
			return err
		}

		allocationID, err = s.allocationsRepo.InsertAllocation(tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.allocationsRepo.GetAllocation(allocationID)
}

// ReturnFull closes an open allocation and books the whole outstanding
// quantity back into stock. A second return of the same allocation fails on
// the status guard, so double returns cannot inflate the books.
func (s *AllocationService) ReturnFull(allocationID int, req models.ReturnRequest) (*models.Allocation, error) {
	if req.ReusabilityPct < 0 || req.ReusabilityPct > 100 {
		return nil, custom_error.NewValidationError("reusability must be between 0 and 100, got %d", req.ReusabilityPct)
	}

	err := s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		allocation, err := s.allocationsRepo.GetAllocationForUpdate(tx, allocationID)
		if err != nil {
			return err
		}
		if !metadata.AllocationStatus(allocation.Status).Open() {
			return custom_error.NewValidationError("allocation %d is already returned", allocationID)
		}

		qty := allocation.Outstanding()
		if !qty.IsPositive() {
			return custom_error.NewValidationError("allocation %d has nothing left to return", allocationID)
		}

		asset, err := s.assetsRepo.GetAssetForUpdate(tx, allocation.AssetID)
		if err != nil {
			return err
		}

		balances, status, err := ledger.Return(asset.Balances, qty, asset.UnitCost, req.ReusabilityPct, true)
		if err != nil {
			return err
		}

		if err := s.assetsRepo.UpdateBalances(tx, allocation.AssetID, balances, status); err != nil {
			return err
		}

		return s.allocationsRepo.CloseAllocation(tx, allocationID, req)
	})
	if err != nil {
		return nil, err
	}

	return s.allocationsRepo.GetAllocation(allocationID)
}

// ReturnPartial books a return of part of an open allocation. The original
// row shrinks to what is still checked out and stays open; the returned part
// becomes its own closed row, so each return event stays visible.
func (s *AllocationService) ReturnPartial(allocationID int, req models.ReturnRequest) (*models.Allocation, error) {
	if req.Quantity == nil || !req.Quantity.IsPositive() {
		return nil, custom_error.NewValidationError("partial return needs a positive quantity")
	}
	if req.ReusabilityPct < 0 || req.ReusabilityPct > 100 {
		return nil, custom_error.NewValidationError("reusability must be between 0 and 100, got %d", req.ReusabilityPct)
	}
	qty := *req.Quantity

	var splitID int
	err := s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		allocation, err := s.allocationsRepo.GetAllocationForUpdate(tx, allocationID)
		if err != nil {
			return err
		}
		if !metadata.AllocationStatus(allocation.Status).Open() {
			return custom_error.NewValidationError("allocation %d is already returned", allocationID)
		}

		outstanding := allocation.Outstanding()
		if qty.GreaterThanOrEqual(outstanding) {
			return &custom_error.ExcessiveReturnError{Requested: qty, Outstanding: outstanding}
		}

		asset, err := s.assetsRepo.GetAssetForUpdate(tx, allocation.AssetID)
		if err != nil {
			return err
		}

		balances, status, err := ledger.Return(asset.Balances, qty, asset.UnitCost, req.ReusabilityPct, true)
		if err != nil {
			return err
		}

		if err := s.assetsRepo.UpdateBalances(tx, allocation.AssetID, balances, status); err != nil {
			return err
		}

		newQuantity := allocation.Quantity.Sub(qty)
		remaining := newQuantity.Sub(allocation.ConsumedQuantity)
		if err := s.allocationsRepo.ReduceAllocation(tx, allocationID, newQuantity, remaining); err != nil {
			return err
		}

		splitID, err = s.allocationsRepo.InsertReturnedSplit(tx, *allocation, qty, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.allocationsRepo.GetAllocation(splitID)
}

// Consume books usage against a consumable allocation. Outbound was already
// priced at allocation time, so consumption only releases the allocated
// quantity; a fully consumed allocation closes, a partial one stays open.
func (s *AllocationService) Consume(allocationID int, req models.ConsumeRequest) (*models.Allocation, error) {
	if !req.ConsumedQuantity.IsPositive() {
		return nil, custom_error.NewValidationError("consumed quantity must be positive")
	}

	err := s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		allocation, err := s.allocationsRepo.GetAllocationForUpdate(tx, allocationID)
		if err != nil {
			return err
		}
		if !metadata.AllocationStatus(allocation.Status).Open() {
			return custom_error.NewValidationError("allocation %d is already closed", allocationID)
		}

		outstanding := allocation.Outstanding()
		if req.ConsumedQuantity.GreaterThan(outstanding) {
			return &custom_error.ExcessiveReturnError{Requested: req.ConsumedQuantity, Outstanding: outstanding}
		}

		asset, err := s.assetsRepo.GetAssetForUpdate(tx, allocation.AssetID)
		if err != nil {
			return err
		}
		if !asset.IsConsumable {
			return custom_error.NewValidationError("asset %s is not consumable", asset.SKU)
		}

		balances, err := ledger.Consume(asset.Balances, req.ConsumedQuantity)
		if err != nil {
			return err
		}

		if err := s.assetsRepo.UpdateBalances(tx, allocation.AssetID, balances, metadata.AssetStatus(asset.Status)); err != nil {
			return err
		}

		consumed := allocation.ConsumedQuantity.Add(req.ConsumedQuantity)
		remaining := allocation.Quantity.Sub(consumed)
		return s.allocationsRepo.MarkConsumed(tx, allocationID, consumed, remaining, remaining.IsZero())
	})
	if err != nil {
		return nil, err
	}

	return s.allocationsRepo.GetAllocation(allocationID)
}

// MarkOverdue flags every active allocation past its expected return date.
func (s *AllocationService) MarkOverdue() (int64, error) {
	return s.allocationsRepo.MarkOverdueAllocations(time.Now())
}
