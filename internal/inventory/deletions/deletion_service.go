package deletions

import (
	"time"

	"stockledger/internal/inventory/assets"
	"stockledger/internal/repository"
	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/ledger"
	"stockledger/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"
)

// DeletionStore is the slice of the deletions repository the service needs.
type DeletionStore interface {
	GetDeletionRecord(id int) (*models.DeletionRecord, error)
	GetDeletionRecordForUpdate(tx *goqu.TxDatabase, id int) (*models.DeletionRecord, error)
	InsertDeletionRecord(tx *goqu.TxDatabase, asset models.Asset, reason, deletedBy string) (int, error)
	ReduceDeletionRecord(tx *goqu.TxDatabase, id int, remaining, remainingBasis decimal.Decimal, history []models.RestorationEntry) error
	RemoveDeletionRecord(tx *goqu.TxDatabase, id int) error
}

type DeletionService struct {
	deletionsRepo DeletionStore
	assetsRepo    assets.AssetStore
	tx            repository.TxRunner
}

func NewDeletionService(deletionsRepo DeletionStore, assetsRepo assets.AssetStore, tx repository.TxRunner) *DeletionService {
	return &DeletionService{
		deletionsRepo: deletionsRepo,
		assetsRepo:    assetsRepo,
		tx:            tx,
	}
}

// DeleteAsset removes an asset from the ledger and snapshots it into the
// deletion history. The snapshot's cost basis is the on-hand quantity priced
// at the current unit cost; equipment still checked out blocks the delete.
func (s *DeletionService) DeleteAsset(assetID int, req models.DeleteAssetRequest, deletedBy string) (*models.DeletionRecord, error) {
	var recordID int
	err := s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		asset, err := s.assetsRepo.GetAssetForUpdate(tx, assetID)
		if err != nil {
			return err
		}
		if asset.Balances.AllocatedQuantity.IsPositive() {
			return custom_error.NewValidationError(
				"asset %s still has %s units allocated", asset.SKU, asset.Balances.AllocatedQuantity.String())
		}

		recordID, err = s.deletionsRepo.InsertDeletionRecord(tx, *asset, req.Reason, deletedBy)
		if err != nil {
			return err
		}

		return s.assetsRepo.RemoveAsset(tx, assetID)
	})
	if err != nil {
		return nil, err
	}

	return s.deletionsRepo.GetDeletionRecord(recordID)
}

// Restore brings qty units back from a deletion snapshot, priced at the
// snapshot's unit cost rather than any current price. If a live asset still
// carries the SKU the quantity lands on it; otherwise the asset row is
// recreated from the snapshot. A fully spent snapshot disappears, a partial
// one keeps the remainder plus one history entry per restoration.
func (s *DeletionService) Restore(recordID int, req models.RestoreRequest, restoredBy string) (*models.Asset, error) {
	if !req.Quantity.IsPositive() {
		return nil, custom_error.NewValidationError("restore quantity must be positive")
	}

	var assetID int
	err := s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		record, err := s.deletionsRepo.GetDeletionRecordForUpdate(tx, recordID)
		if err != nil {
			return err
		}

		if req.Quantity.GreaterThan(record.StockQuantity) {
			return custom_error.NewValidationError(
				"restore of %s exceeds the %s units left on the snapshot",
				req.Quantity.String(), record.StockQuantity.String())
		}

		unitCost := record.SnapshotUnitCost()
		restoredValue := req.Quantity.Mul(unitCost)

		asset, err := s.assetsRepo.GetAssetBySKUForUpdate(tx, record.AssetSKU)
		if err != nil {
			return err
		}

		if asset != nil {
			assetID = asset.ID
			balances, status, err := ledger.Restore(asset.Balances, req.Quantity, unitCost)
			if err != nil {
				return err
			}
			if err := s.assetsRepo.UpdateBalances(tx, asset.ID, balances, status); err != nil {
				return err
			}
		} else {
			assetID, err = s.recreateAsset(tx, record, req.Quantity, unitCost)
			if err != nil {
				return err
			}
		}

		remaining := record.StockQuantity.Sub(req.Quantity)
		if remaining.IsZero() {
			return s.deletionsRepo.RemoveDeletionRecord(tx, recordID)
		}

		history := append(record.RestorationHistory, models.RestorationEntry{
			RestoredQuantity: req.Quantity,
			RestoredValue:    restoredValue,
			RestoredBy:       restoredBy,
			RestoredAt:       time.Now(),
		})
		remainingBasis := record.CostBasis.Sub(restoredValue)

		return s.deletionsRepo.ReduceDeletionRecord(tx, recordID, remaining, remainingBasis, history)
	})
	if err != nil {
		return nil, err
	}

	return s.assetsRepo.GetAsset(assetID)
}

// recreateAsset rebuilds the asset row from the snapshot with the restored
// quantity seeded through the inbound book, so the recreated row satisfies
// the closing identity on its own.
func (s *DeletionService) recreateAsset(tx *goqu.TxDatabase, record *models.DeletionRecord, qty, unitCost decimal.Decimal) (int, error) {
	sku := record.AssetSKU
	req := models.AssetRequest{
		SKU:          &sku,
		Name:         record.AssetName,
		Type:         record.AssetType,
		Unit:         record.Unit,
		IsConsumable: record.IsConsumable,
		Brand:        record.Brand,
		UnitCost:     unitCost,
		WarehouseID:  record.WarehouseID,
	}

	balances, status, err := ledger.Receipt(ledger.Balances{}, qty, unitCost)
	if err != nil {
		return 0, err
	}

	return s.assetsRepo.PersistAsset(tx, req, balances, status)
}
