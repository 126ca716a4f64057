package assets

import (
	"fmt"

	"stockledger/internal/repository"
	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/ledger"
	"stockledger/pkg/metadata"
	"stockledger/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type AssetsRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AssetsRepository {
	return &AssetsRepository{
		repository: r,
	}
}

func (r *AssetsRepository) getAssetQuery() *goqu.SelectDataset {
	return r.repository.GoquDBWrapper.
		Select(
			goqu.I("a.id").As("asset_id"),
			goqu.I("a.sku").As("sku"),
			goqu.I("a.name").As("name"),
			goqu.I("a.asset_type").As("asset_type"),
			goqu.I("a.unit").As("unit"),
			goqu.I("a.is_consumable").As("is_consumable"),
			goqu.I("a.brand").As("brand"),
			goqu.I("a.unit_cost").As("unit_cost"),
			goqu.I("a.status").As("status"),
			goqu.I("a.warehouse_id").As("warehouse_id"),
			goqu.I("w.name").As("warehouse_name"),
			goqu.I("a.opening_quantity").As("opening_quantity"),
			goqu.I("a.opening_value").As("opening_value"),
			goqu.I("a.inbound_quantity").As("inbound_quantity"),
			goqu.I("a.inbound_value").As("inbound_value"),
			goqu.I("a.outbound_quantity").As("outbound_quantity"),
			goqu.I("a.outbound_value").As("outbound_value"),
			goqu.I("a.closing_quantity").As("closing_quantity"),
			goqu.I("a.closing_value").As("closing_value"),
			goqu.I("a.stock_quantity").As("stock_quantity"),
			goqu.I("a.allocated_quantity").As("allocated_quantity"),
		).
		From(goqu.T("assets").As("a")).
		LeftJoin(
			goqu.T("warehouses").As("w"),
			goqu.On(goqu.Ex{"a.warehouse_id": goqu.I("w.id")}),
		)
}

func (r *AssetsRepository) fetchFlatAssetByCondition(condition goqu.Ex) (*models.Asset, error) {
	var flatAsset models.FlatAssetRecord
	query := r.getAssetQuery().Where(condition)

	found, err := query.Executor().ScanStruct(&flatAsset)
	if err != nil {
		return nil, fmt.Errorf("unable to select asset from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("asset", condition)
	}

	asset := flatAsset.TransformToAsset()
	return &asset, nil
}

func (r *AssetsRepository) GetAsset(id int) (*models.Asset, error) {
	return r.fetchFlatAssetByCondition(goqu.Ex{"a.id": id})
}

func (r *AssetsRepository) GetAssetBySKU(sku string) (*models.Asset, error) {
	return r.fetchFlatAssetByCondition(goqu.Ex{"a.sku": sku})
}

func (r *AssetsRepository) GetAssetList() (*[]models.Asset, error) {
	return r.scanAssets(r.getAssetQuery().Order(goqu.I("a.id").Asc()))
}

func (r *AssetsRepository) GetAssetsBy(conditions repository.QueryBuilder) (*[]models.Asset, error) {
	aliases := map[string]string{
		"warehouse_id": "a.warehouse_id",
		"type":         "a.asset_type",
		"status":       "a.status",
		"sku":          "a.sku",
	}

	query := r.getAssetQuery().
		Where(conditions.BuildConditions(aliases)).
		Order(goqu.I("a.id").Asc())

	return r.scanAssets(query)
}

func (r *AssetsRepository) scanAssets(query *goqu.SelectDataset) (*[]models.Asset, error) {
	var flatAssets []models.FlatAssetRecord
	if err := query.Executor().ScanStructs(&flatAssets); err != nil {
		return nil, fmt.Errorf("unable to select assets from database: %w", err)
	}

	var assets []models.Asset
	for _, flatAsset := range flatAssets {
		assets = append(assets, flatAsset.TransformToAsset())
	}

	return &assets, nil
}

// GetAssetForUpdate loads an asset inside tx with a row lock, so the ledger
// rule computes against balances no concurrent writer can move underneath it.
func (r *AssetsRepository) GetAssetForUpdate(tx *goqu.TxDatabase, id int) (*models.Asset, error) {
	return r.lockFlatAsset(tx, goqu.Ex{"id": id})
}

// GetAssetBySKUForUpdate is the restore path's lookup. A nil asset with a nil
// error means no live asset carries the SKU.
func (r *AssetsRepository) GetAssetBySKUForUpdate(tx *goqu.TxDatabase, sku string) (*models.Asset, error) {
	asset, err := r.lockFlatAsset(tx, goqu.Ex{"sku": sku})
	if custom_error.IsNotFound(err) {
		return nil, nil
	}
	return asset, err
}

func (r *AssetsRepository) lockFlatAsset(tx *goqu.TxDatabase, condition goqu.Ex) (*models.Asset, error) {
	var flatAsset models.FlatAssetRecord
	query := tx.
		Select(
			goqu.C("id").As("asset_id"),
			goqu.C("sku"), goqu.C("name"), goqu.C("asset_type"), goqu.C("unit"),
			goqu.C("is_consumable"), goqu.C("brand"), goqu.C("unit_cost"),
			goqu.C("status"), goqu.C("warehouse_id"),
			goqu.C("opening_quantity"), goqu.C("opening_value"),
			goqu.C("inbound_quantity"), goqu.C("inbound_value"),
			goqu.C("outbound_quantity"), goqu.C("outbound_value"),
			goqu.C("closing_quantity"), goqu.C("closing_value"),
			goqu.C("stock_quantity"), goqu.C("allocated_quantity"),
		).
		From("assets").
		Where(condition).
		ForUpdate(exp.Wait)

	found, err := query.Executor().ScanStruct(&flatAsset)
	if err != nil {
		return nil, fmt.Errorf("unable to lock asset row: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("asset", condition)
	}

	asset := flatAsset.TransformToAsset()
	return &asset, nil
}

func balanceRecord(b ledger.Balances) goqu.Record {
	return goqu.Record{
		"opening_quantity":   b.OpeningQuantity,
		"opening_value":      b.OpeningValue,
		"inbound_quantity":   b.InboundQuantity,
		"inbound_value":      b.InboundValue,
		"outbound_quantity":  b.OutboundQuantity,
		"outbound_value":     b.OutboundValue,
		"closing_quantity":   b.ClosingQuantity,
		"closing_value":      b.ClosingValue,
		"stock_quantity":     b.StockQuantity,
		"allocated_quantity": b.AllocatedQuantity,
	}
}

func (r *AssetsRepository) PersistAsset(tx *goqu.TxDatabase, req models.AssetRequest, b ledger.Balances, status metadata.AssetStatus) (int, error) {
	record := balanceRecord(b)
	record["sku"] = req.SKU
	record["name"] = req.Name
	record["asset_type"] = req.Type
	record["unit"] = req.Unit
	record["is_consumable"] = req.IsConsumable
	record["brand"] = req.Brand
	record["unit_cost"] = req.UnitCost
	record["warehouse_id"] = req.WarehouseID
	record["status"] = string(status)

	query := tx.Insert("assets").Rows(record).Returning("id")

	var assetID int
	if _, err := query.Executor().ScanVal(&assetID); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return 0, custom_error.WrapDBError("Duplicate SKU for asset", string(pqErr.Code))
			}
		}
		return 0, fmt.Errorf("failed to insert asset record: %w", err)
	}

	return assetID, nil
}

func (r *AssetsRepository) UpdateSKU(tx *goqu.TxDatabase, assetID int, sku string) error {
	query := tx.Update("assets").
		Set(goqu.Record{"sku": sku}).
		Where(goqu.Ex{"id": assetID})

	if _, err := query.Executor().Exec(); err != nil {
		return fmt.Errorf("failed to update asset SKU: %w", err)
	}

	return nil
}

// UpdateBalances writes a full balance set plus the derived status back to
// the asset row. Callers hold the row lock from GetAssetForUpdate, so the
// balances written here were computed against a snapshot no concurrent
// writer could move.
func (r *AssetsRepository) UpdateBalances(tx *goqu.TxDatabase, assetID int, b ledger.Balances, status metadata.AssetStatus) error {
	record := balanceRecord(b)
	record["status"] = string(status)

	result, err := tx.Update("assets").
		Set(record).
		Where(goqu.Ex{"id": assetID}).
		Executor().
		Exec()
	if err != nil {
		return fmt.Errorf("failed to update asset balances: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for asset %d: %w", assetID, err)
	}
	if rowsAffected == 0 {
		return custom_error.NewNotFoundError("asset", assetID)
	}

	return nil
}

func (r *AssetsRepository) UpdateUnitCost(tx *goqu.TxDatabase, assetID int, unitCost decimal.Decimal) error {
	query := tx.Update("assets").
		Set(goqu.Record{"unit_cost": unitCost}).
		Where(goqu.Ex{"id": assetID})

	if _, err := query.Executor().Exec(); err != nil {
		return fmt.Errorf("failed to update asset unit cost: %w", err)
	}

	return nil
}

func (r *AssetsRepository) RemoveAsset(tx *goqu.TxDatabase, assetID int) error {
	result, err := tx.Delete("assets").
		Where(goqu.Ex{"id": assetID}).
		Executor().
		Exec()
	if err != nil {
		return fmt.Errorf("failed to delete asset %d: %w", assetID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for asset %d: %w", assetID, err)
	}
	if rowsAffected == 0 {
		return custom_error.NewNotFoundError("asset", assetID)
	}

	return nil
}
