package warehouses

import (
	"fmt"

	"stockledger/internal/repository"
	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
)

type WarehouseRepository struct {
	Repository *repository.Repository
}

func NewWarehouseRepository(r *repository.Repository) *WarehouseRepository {
	return &WarehouseRepository{Repository: r}
}

func (r *WarehouseRepository) GetWarehouses() ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	query := r.Repository.GoquDBWrapper.
		Select("id", "name", "address", "details").
		From("warehouses").
		Order(goqu.C("id").Asc())

	if err := query.Executor().ScanStructs(&warehouses); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return warehouses, nil
}

func (r *WarehouseRepository) GetWarehouse(id int) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	query := r.Repository.GoquDBWrapper.
		Select("id", "name", "address", "details").
		From("warehouses").
		Where(goqu.Ex{"id": id})

	found, err := query.Executor().ScanStruct(&warehouse)
	if err != nil {
		return nil, fmt.Errorf("failed to get warehouse: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("warehouse", id)
	}

	return &warehouse, nil
}

func (r *WarehouseRepository) PersistWarehouse(warehouse *models.Warehouse) error {
	query := r.Repository.GoquDBWrapper.Insert("warehouses").
		Rows(goqu.Record{
			"name":    warehouse.Name,
			"address": warehouse.Address,
			"details": warehouse.Details,
		}).
		Returning("id")

	if _, err := query.Executor().ScanVal(&warehouse.ID); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return custom_error.WrapDBError("Duplicate warehouse name", string(pqErr.Code))
		}
		return fmt.Errorf("failed to insert warehouse: %w", err)
	}

	return nil
}

func (r *WarehouseRepository) RemoveWarehouse(id int) error {
	result, err := r.Repository.GoquDBWrapper.Delete("warehouses").
		Where(goqu.Ex{"id": id}).
		Executor().
		Exec()
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return custom_error.WrapDBError("warehouse still holds assets", string(pqErr.Code))
		}
		return fmt.Errorf("failed to delete warehouse: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for warehouse %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return custom_error.NewNotFoundError("warehouse", id)
	}

	return nil
}
