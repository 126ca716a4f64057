package allocations

import (
	"fmt"
	"time"

	"stockledger/internal/repository"
	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/metadata"
	"stockledger/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/shopspring/decimal"
)

type AllocationsRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AllocationsRepository {
	return &AllocationsRepository{
		repository: r,
	}
}

func (r *AllocationsRepository) getAllocationQuery() *goqu.SelectDataset {
	return r.repository.GoquDBWrapper.
		Select(
			goqu.I("al.id").As("id"),
			goqu.I("al.asset_id").As("asset_id"),
			goqu.I("a.name").As("asset_name"),
			goqu.I("a.sku").As("asset_sku"),
			goqu.I("al.quantity").As("quantity"),
			goqu.I("al.allocated_to_id").As("allocated_to_id"),
			goqu.I("al.allocated_to_name").As("allocated_to_name"),
			goqu.I("al.purpose").As("purpose"),
			goqu.I("al.status").As("status"),
			goqu.I("al.is_consumed").As("is_consumed"),
			goqu.I("al.consumed_quantity").As("consumed_quantity"),
			goqu.I("al.remaining_quantity").As("remaining_quantity"),
			goqu.I("al.reusability_pct").As("reusability_pct"),
			goqu.I("al.condition_note").As("condition_note"),
			goqu.I("al.expected_return_date").As("expected_return_date"),
			goqu.I("al.allocated_at").As("allocated_at"),
			goqu.I("al.actual_return_date").As("actual_return_date"),
		).
		From(goqu.T("allocations").As("al")).
		LeftJoin(
			goqu.T("assets").As("a"),
			goqu.On(goqu.Ex{"al.asset_id": goqu.I("a.id")}),
		)
}

func (r *AllocationsRepository) GetAllocation(id int) (*models.Allocation, error) {
	var allocation models.Allocation
	query := r.getAllocationQuery().Where(goqu.Ex{"al.id": id})

	found, err := query.Executor().ScanStruct(&allocation)
	if err != nil {
		return nil, fmt.Errorf("unable to select allocation from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("allocation", id)
	}

	return &allocation, nil
}

func (r *AllocationsRepository) GetAllocationsBy(conditions repository.QueryBuilder) (*[]models.Allocation, error) {
	aliases := map[string]string{
		"asset_id":        "al.asset_id",
		"status":          "al.status",
		"allocated_to_id": "al.allocated_to_id",
	}

	query := r.getAllocationQuery().
		Where(conditions.BuildConditions(aliases)).
		Order(goqu.I("al.allocated_at").Desc())

	var allocations []models.Allocation
	if err := query.Executor().ScanStructs(&allocations); err != nil {
		return nil, fmt.Errorf("unable to select allocations from database: %w", err)
	}

	return &allocations, nil
}

// GetAllocationForUpdate locks the allocation row inside tx. Return and
// consumption flows lock the allocation before the asset, always in that
// order, so two flows never deadlock on each other.
func (r *AllocationsRepository) GetAllocationForUpdate(tx *goqu.TxDatabase, id int) (*models.Allocation, error) {
	var allocation models.Allocation
	query := tx.
		Select(
			goqu.C("id"), goqu.C("asset_id"), goqu.C("quantity"),
			goqu.C("allocated_to_id"), goqu.C("allocated_to_name"),
			goqu.C("purpose"), goqu.C("status"), goqu.C("is_consumed"),
			goqu.C("consumed_quantity"), goqu.C("remaining_quantity"),
			goqu.C("reusability_pct"), goqu.C("condition_note"),
			goqu.C("expected_return_date"), goqu.C("allocated_at"),
			goqu.C("actual_return_date"),
		).
		From("allocations").
		Where(goqu.Ex{"id": id}).
		ForUpdate(exp.Wait)

	found, err := query.Executor().ScanStruct(&allocation)
	if err != nil {
		return nil, fmt.Errorf("unable to lock allocation row: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("allocation", id)
	}

	return &allocation, nil
}

func (r *AllocationsRepository) InsertAllocation(tx *goqu.TxDatabase, req models.AllocationRequest) (int, error) {
	record := goqu.Record{
		"asset_id":             req.AssetID,
		"quantity":             req.Quantity,
		"allocated_to_id":      req.AllocatedToID,
		"allocated_to_name":    req.AllocatedToName,
		"purpose":              req.Purpose,
		"status":               string(metadata.AllocationActive),
		"remaining_quantity":   req.Quantity,
		"expected_return_date": req.ExpectedReturnDate,
		"allocated_at":         time.Now(),
	}

	query := tx.Insert("allocations").Rows(record).Returning("id")

	var allocationID int
	if _, err := query.Executor().ScanVal(&allocationID); err != nil {
		return 0, fmt.Errorf("failed to insert allocation record: %w", err)
	}

	return allocationID, nil
}

// CloseAllocation flips an open allocation to returned. The status guard in
// the WHERE clause makes a second return of the same allocation a no-op that
// the RowsAffected check turns into an error.
func (r *AllocationsRepository) CloseAllocation(tx *goqu.TxDatabase, id int, req models.ReturnRequest) error {
	record := goqu.Record{
		"status":             string(metadata.AllocationReturned),
		"reusability_pct":    req.ReusabilityPct,
		"condition_note":     req.ConditionNote,
		"remaining_quantity": decimal.Zero,
		"actual_return_date": time.Now(),
	}

	return r.guardedUpdate(tx, id, record)
}

// ReduceAllocation books a partial return on an open allocation: the original
// row keeps the still-outstanding quantity and stays open.
func (r *AllocationsRepository) ReduceAllocation(tx *goqu.TxDatabase, id int, newQuantity, remaining decimal.Decimal) error {
	record := goqu.Record{
		"quantity":           newQuantity,
		"remaining_quantity": remaining,
	}

	return r.guardedUpdate(tx, id, record)
}

// InsertReturnedSplit records the returned part of a partial return as its
// own closed row, so the return history stays visible per event.
func (r *AllocationsRepository) InsertReturnedSplit(tx *goqu.TxDatabase, original models.Allocation, qty decimal.Decimal, req models.ReturnRequest) (int, error) {
	record := goqu.Record{
		"asset_id":             original.AssetID,
		"quantity":             qty,
		"allocated_to_id":      original.AllocatedToID,
		"allocated_to_name":    original.AllocatedToName,
		"purpose":              original.Purpose,
		"status":               string(metadata.AllocationReturned),
		"remaining_quantity":   decimal.Zero,
		"reusability_pct":      req.ReusabilityPct,
		"condition_note":       req.ConditionNote,
		"expected_return_date": original.ExpectedReturnDate,
		"allocated_at":         original.AllocatedAt,
		"actual_return_date":   time.Now(),
	}

	query := tx.Insert("allocations").Rows(record).Returning("id")

	var splitID int
	if _, err := query.Executor().ScanVal(&splitID); err != nil {
		return 0, fmt.Errorf("failed to insert returned split record: %w", err)
	}

	return splitID, nil
}

// MarkConsumed books consumption against an open allocation. A fully
// consumed allocation closes; a partial one stays open with the consumed
// and remaining quantities updated.
func (r *AllocationsRepository) MarkConsumed(tx *goqu.TxDatabase, id int, consumed, remaining decimal.Decimal, closed bool) error {
	record := goqu.Record{
		"consumed_quantity":  consumed,
		"remaining_quantity": remaining,
	}
	if closed {
		record["status"] = string(metadata.AllocationReturned)
		record["is_consumed"] = true
		record["actual_return_date"] = time.Now()
	}

	return r.guardedUpdate(tx, id, record)
}

func (r *AllocationsRepository) guardedUpdate(tx *goqu.TxDatabase, id int, record goqu.Record) error {
	result, err := tx.Update("allocations").
		Set(record).
		Where(goqu.Ex{
			"id": id,
			"status": []string{
				string(metadata.AllocationActive),
				string(metadata.AllocationOverdue),
			},
		}).
		Executor().
		Exec()
	if err != nil {
		return fmt.Errorf("failed to update allocation %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for allocation %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return custom_error.NewValidationError("allocation %d is not open", id)
	}

	return nil
}

// MarkOverdueAllocations flags every active allocation whose expected return
// date has passed. Runs outside any caller transaction; the scan is a pure
// status flip and books nothing.
func (r *AllocationsRepository) MarkOverdueAllocations(now time.Time) (int64, error) {
	result, err := r.repository.GoquDBWrapper.Update("allocations").
		Set(goqu.Record{"status": string(metadata.AllocationOverdue)}).
		Where(
			goqu.Ex{"status": string(metadata.AllocationActive)},
			goqu.C("expected_return_date").IsNotNull(),
			goqu.C("expected_return_date").Lt(now),
		).
		Executor().
		Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue allocations: %w", err)
	}

	return result.RowsAffected()
}
