package assets

import (
	"fmt"

	"stockledger/internal/repository"
	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/ledger"
	"stockledger/pkg/metadata"
	"stockledger/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"
)

// AssetStore is the slice of the assets repository the service needs; the
// lifecycle services in allocations/issues/deletions reuse it.
type AssetStore interface {
	GetAsset(id int) (*models.Asset, error)
	GetAssetForUpdate(tx *goqu.TxDatabase, id int) (*models.Asset, error)
	GetAssetBySKUForUpdate(tx *goqu.TxDatabase, sku string) (*models.Asset, error)
	PersistAsset(tx *goqu.TxDatabase, req models.AssetRequest, b ledger.Balances, status metadata.AssetStatus) (int, error)
	UpdateSKU(tx *goqu.TxDatabase, assetID int, sku string) error
	UpdateBalances(tx *goqu.TxDatabase, assetID int, b ledger.Balances, status metadata.AssetStatus) error
	UpdateUnitCost(tx *goqu.TxDatabase, assetID int, unitCost decimal.Decimal) error
	RemoveAsset(tx *goqu.TxDatabase, assetID int) error
}

type AssetService struct {
	assetsRepo AssetStore
	tx         repository.TxRunner
}

func NewAssetService(assetsRepo AssetStore, tx repository.TxRunner) *AssetService {
	return &AssetService{
		assetsRepo: assetsRepo,
		tx:         tx,
	}
}

// CreateAsset registers a stock-keeping unit. An opening quantity is booked
// through the receipt rule so the closing identity holds from day one; a
// missing SKU is generated from the asset type and the new row id.
func (s *AssetService) CreateAsset(req models.AssetRequest) (*models.Asset, error) {
	assetType, err := metadata.NewAssetType(req.Type)
	if err != nil {
		return nil, custom_error.NewValidationError("invalid asset type: %v", err)
	}
	req.Type = assetType.String()

	if req.IsConsumable && !assetType.ConsumableAllowed() {
		return nil, custom_error.NewValidationError("only materials can be flagged consumable, got type %s", assetType)
	}
	if req.UnitCost.IsNegative() {
		return nil, custom_error.NewValidationError("unit cost cannot be negative")
	}
	if req.OpeningQty.IsNegative() {
		return nil, custom_error.NewValidationError("opening quantity cannot be negative")
	}
	if req.WarehouseID == 0 {
		req.WarehouseID = models.DefaultWarehouseID
	}

	balances := ledger.Balances{}
	status := metadata.AssetInStock
	if req.OpeningQty.IsPositive() {
		balances.OpeningQuantity = req.OpeningQty
		balances.OpeningValue = req.OpeningQty.Mul(req.UnitCost)
		balances, status, err = ledger.Receipt(balances, req.OpeningQty, req.UnitCost)
		if err != nil {
			return nil, err
		}
	}

	var assetID int
	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		assetID, err = s.assetsRepo.PersistAsset(tx, req, balances, status)
		if err != nil {
			return err
		}

		if req.SKU == nil || *req.SKU == "" {
			sku := metadata.NewSKU(assetType, assetID)
			if err := s.assetsRepo.UpdateSKU(tx, assetID, sku.GenerateSKU()); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.assetsRepo.GetAsset(assetID)
}

// Receive books an inbound goods receipt (GRN) against an asset. A unit cost
// on the request replaces the asset's current cost; all later ledger pricing
// uses the current cost, never the historical one.
func (s *AssetService) Receive(assetID int, req models.ReceiptRequest) (*models.Asset, error) {
	err := s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		asset, err := s.assetsRepo.GetAssetForUpdate(tx, assetID)
		if err != nil {
			return err
		}
		if asset == nil {
			return custom_error.NewNotFoundError("asset", assetID)
		}
		if !req.Quantity.IsPositive() {
			return custom_error.NewValidationError("receipt quantity must be positive")
		}

		unitCost := asset.UnitCost
		if req.UnitCost.IsPositive() {
			unitCost = req.UnitCost
		}

		balances, status, err := ledger.Receipt(asset.Balances, req.Quantity, unitCost)
		if err != nil {
			return err
		}

		if err := s.assetsRepo.UpdateBalances(tx, assetID, balances, status); err != nil {
			return err
		}

		if !unitCost.Equal(asset.UnitCost) {
			if err := s.assetsRepo.UpdateUnitCost(tx, assetID, unitCost); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to book goods receipt: %w", err)
	}

	return s.assetsRepo.GetAsset(assetID)
}
