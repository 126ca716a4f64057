package deletions

import (
	"encoding/json"
	"fmt"
	"time"

	"stockledger/internal/repository"
	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/shopspring/decimal"
)

type DeletionsRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *DeletionsRepository {
	return &DeletionsRepository{
		repository: r,
	}
}

func deletionColumns() []interface{} {
	return []interface{}{
		goqu.C("id"), goqu.C("asset_sku"), goqu.C("asset_name"),
		goqu.C("asset_type"), goqu.C("unit"), goqu.C("is_consumable"),
		goqu.C("brand"), goqu.C("warehouse_id"), goqu.C("unit_cost"),
		goqu.C("stock_quantity"), goqu.C("cost_basis"), goqu.C("reason"),
		goqu.C("deleted_by"), goqu.C("deleted_at"), goqu.C("restoration_history"),
	}
}

func (r *DeletionsRepository) GetDeletionRecord(id int) (*models.DeletionRecord, error) {
	var flat models.FlatDeletionRecord
	query := r.repository.GoquDBWrapper.
		Select(deletionColumns()...).
		From("asset_deletion_history").
		Where(goqu.Ex{"id": id})

	found, err := query.Executor().ScanStruct(&flat)
	if err != nil {
		return nil, fmt.Errorf("unable to select deletion record from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("deletion record", id)
	}

	record, err := flat.TransformToDeletionRecord()
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *DeletionsRepository) GetDeletionList() (*[]models.DeletionRecord, error) {
	var flats []models.FlatDeletionRecord
	query := r.repository.GoquDBWrapper.
		Select(deletionColumns()...).
		From("asset_deletion_history").
		Order(goqu.C("deleted_at").Desc())

	if err := query.Executor().ScanStructs(&flats); err != nil {
		return nil, fmt.Errorf("unable to select deletion records from database: %w", err)
	}

	records := make([]models.DeletionRecord, 0, len(flats))
	for _, flat := range flats {
		record, err := flat.TransformToDeletionRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return &records, nil
}

// GetDeletionRecordForUpdate locks the deletion record inside tx so two
// concurrent restores cannot both spend the same snapshot quantity.
func (r *DeletionsRepository) GetDeletionRecordForUpdate(tx *goqu.TxDatabase, id int) (*models.DeletionRecord, error) {
	var flat models.FlatDeletionRecord
	query := tx.
		Select(deletionColumns()...).
		From("asset_deletion_history").
		Where(goqu.Ex{"id": id}).
		ForUpdate(exp.Wait)

	found, err := query.Executor().ScanStruct(&flat)
	if err != nil {
		return nil, fmt.Errorf("unable to lock deletion record row: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("deletion record", id)
	}

	record, err := flat.TransformToDeletionRecord()
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *DeletionsRepository) InsertDeletionRecord(tx *goqu.TxDatabase, asset models.Asset, reason, deletedBy string) (int, error) {
	record := goqu.Record{
		"asset_sku":           asset.SKU,
		"asset_name":          asset.Name,
		"asset_type":          asset.Type,
		"unit":                asset.Unit,
		"is_consumable":       asset.IsConsumable,
		"brand":               asset.Brand,
		"warehouse_id":        asset.Warehouse.ID,
		"unit_cost":           asset.UnitCost,
		"stock_quantity":      asset.Balances.StockQuantity,
		"cost_basis":          asset.Balances.StockQuantity.Mul(asset.UnitCost),
		"reason":              reason,
		"deleted_by":          deletedBy,
		"deleted_at":          time.Now(),
		"restoration_history": []byte("[]"),
	}

	query := tx.Insert("asset_deletion_history").Rows(record).Returning("id")

	var recordID int
	if _, err := query.Executor().ScanVal(&recordID); err != nil {
		return 0, fmt.Errorf("failed to insert deletion record: %w", err)
	}

	return recordID, nil
}

// ReduceDeletionRecord spends part of the snapshot: the remaining quantity
// and cost basis shrink and the restoration gets its own history entry.
func (r *DeletionsRepository) ReduceDeletionRecord(tx *goqu.TxDatabase, id int, remaining, remainingBasis decimal.Decimal, history []models.RestorationEntry) error {
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal restoration history: %w", err)
	}

	result, err := tx.Update("asset_deletion_history").
		Set(goqu.Record{
			"stock_quantity":      remaining,
			"cost_basis":          remainingBasis,
			"restoration_history": historyJSON,
		}).
		Where(goqu.Ex{"id": id}).
		Executor().
		Exec()
	if err != nil {
		return fmt.Errorf("failed to update deletion record %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for deletion record %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return custom_error.NewNotFoundError("deletion record", id)
	}

	return nil
}

// RemoveDeletionRecord drops a fully restored snapshot.
func (r *DeletionsRepository) RemoveDeletionRecord(tx *goqu.TxDatabase, id int) error {
	result, err := tx.Delete("asset_deletion_history").
		Where(goqu.Ex{"id": id}).
		Executor().
		Exec()
	if err != nil {
		return fmt.Errorf("failed to delete deletion record %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for deletion record %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return custom_error.NewNotFoundError("deletion record", id)
	}

	return nil
}
