package issues

import (
	"fmt"
	"time"

	"stockledger/internal/repository"
	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/metadata"
	"stockledger/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type IssuesRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *IssuesRepository {
	return &IssuesRepository{
		repository: r,
	}
}

func (r *IssuesRepository) GetNote(id int) (*models.GoodsIssueNote, error) {
	var note models.GoodsIssueNote
	query := r.repository.GoquDBWrapper.
		Select(
			goqu.C("id"), goqu.C("code"), goqu.C("warehouse_id"),
			goqu.C("issued_to"), goqu.C("note"), goqu.C("created_at"),
		).
		From("goods_issue_notes").
		Where(goqu.Ex{"id": id})

	found, err := query.Executor().ScanStruct(&note)
	if err != nil {
		return nil, fmt.Errorf("unable to select goods issue note from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("goods issue note", id)
	}

	items, err := r.getNoteItems(id)
	if err != nil {
		return nil, err
	}
	note.Items = items

	return &note, nil
}

func (r *IssuesRepository) GetNoteByCode(code string) (*models.GoodsIssueNote, error) {
	var note models.GoodsIssueNote
	query := r.repository.GoquDBWrapper.
		Select(
			goqu.C("id"), goqu.C("code"), goqu.C("warehouse_id"),
			goqu.C("issued_to"), goqu.C("note"), goqu.C("created_at"),
		).
		From("goods_issue_notes").
		Where(goqu.Ex{"code": code})

	found, err := query.Executor().ScanStruct(&note)
	if err != nil {
		return nil, fmt.Errorf("unable to select goods issue note from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("goods issue note", code)
	}

	items, err := r.getNoteItems(note.ID)
	if err != nil {
		return nil, err
	}
	note.Items = items

	return &note, nil
}

func (r *IssuesRepository) GetNoteList() (*[]models.GoodsIssueNote, error) {
	var notes []models.GoodsIssueNote
	query := r.repository.GoquDBWrapper.
		Select(
			goqu.C("id"), goqu.C("code"), goqu.C("warehouse_id"),
			goqu.C("issued_to"), goqu.C("note"), goqu.C("created_at"),
		).
		From("goods_issue_notes").
		Order(goqu.C("created_at").Desc())

	if err := query.Executor().ScanStructs(&notes); err != nil {
		return nil, fmt.Errorf("unable to select goods issue notes from database: %w", err)
	}

	return &notes, nil
}

func (r *IssuesRepository) getNoteItems(noteID int) ([]models.GINItem, error) {
	var items []models.GINItem
	query := r.repository.GoquDBWrapper.
		Select(
			goqu.I("i.id").As("id"),
			goqu.I("i.note_id").As("note_id"),
			goqu.I("i.asset_id").As("asset_id"),
			goqu.I("a.name").As("asset_name"),
			goqu.I("a.sku").As("asset_sku"),
			goqu.I("i.quantity").As("quantity"),
			goqu.I("i.returned_quantity").As("returned_quantity"),
			goqu.I("i.unit_cost").As("unit_cost"),
			goqu.I("i.total_cost").As("total_cost"),
			goqu.I("i.status").As("status"),
		).
		From(goqu.T("gin_items").As("i")).
		LeftJoin(
			goqu.T("assets").As("a"),
			goqu.On(goqu.Ex{"i.asset_id": goqu.I("a.id")}),
		).
		Where(goqu.Ex{"i.note_id": noteID}).
		Order(goqu.I("i.id").Asc())

	if err := query.Executor().ScanStructs(&items); err != nil {
		return nil, fmt.Errorf("unable to select goods issue items from database: %w", err)
	}

	return items, nil
}

func (r *IssuesRepository) InsertNote(tx *goqu.TxDatabase, code string, req models.GoodsIssueRequest) (int, error) {
	record := goqu.Record{
		"code":         code,
		"warehouse_id": req.WarehouseID,
		"issued_to":    req.IssuedTo,
		"note":         req.Note,
		"created_at":   time.Now(),
	}

	query := tx.Insert("goods_issue_notes").Rows(record).Returning("id")

	var noteID int
	if _, err := query.Executor().ScanVal(&noteID); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return 0, custom_error.WrapDBError("Duplicate goods issue note code", string(pqErr.Code))
		}
		return 0, fmt.Errorf("failed to insert goods issue note: %w", err)
	}

	return noteID, nil
}

func (r *IssuesRepository) InsertItem(tx *goqu.TxDatabase, noteID, assetID int, qty, unitCost decimal.Decimal) error {
	record := goqu.Record{
		"note_id":           noteID,
		"asset_id":          assetID,
		"quantity":          qty,
		"returned_quantity": decimal.Zero,
		"unit_cost":         unitCost,
		"total_cost":        qty.Mul(unitCost),
		"status":            string(metadata.IssueItemIssued),
	}

	if _, err := tx.Insert("gin_items").Rows(record).Executor().Exec(); err != nil {
		return fmt.Errorf("failed to insert goods issue item: %w", err)
	}

	return nil
}

// GetItemForUpdate locks one issue item inside tx before the return flow
// touches the asset row; items lock before assets, always in that order.
func (r *IssuesRepository) GetItemForUpdate(tx *goqu.TxDatabase, itemID int) (*models.GINItem, error) {
	var item models.GINItem
	query := tx.
		Select(
			goqu.C("id"), goqu.C("note_id"), goqu.C("asset_id"),
			goqu.C("quantity"), goqu.C("returned_quantity"),
			goqu.C("unit_cost"), goqu.C("total_cost"), goqu.C("status"),
		).
		From("gin_items").
		Where(goqu.Ex{"id": itemID}).
		ForUpdate(exp.Wait)

	found, err := query.Executor().ScanStruct(&item)
	if err != nil {
		return nil, fmt.Errorf("unable to lock goods issue item row: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("goods issue item", itemID)
	}

	return &item, nil
}

// UpdateItemReturn books a return on an issue item. The status guard keeps
// fully returned items closed for good; transitions only move forward.
func (r *IssuesRepository) UpdateItemReturn(tx *goqu.TxDatabase, itemID int, returned decimal.Decimal, status metadata.IssueItemStatus) error {
	result, err := tx.Update("gin_items").
		Set(goqu.Record{
			"returned_quantity": returned,
			"status":            string(status),
		}).
		Where(goqu.Ex{
			"id": itemID,
			"status": []string{
				string(metadata.IssueItemIssued),
				string(metadata.IssueItemPartialReturned),
			},
		}).
		Executor().
		Exec()
	if err != nil {
		return fmt.Errorf("failed to update goods issue item %d: %w", itemID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for goods issue item %d: %w", itemID, err)
	}
	if rowsAffected == 0 {
		return custom_error.NewValidationError("goods issue item %d is already fully returned", itemID)
	}

	return nil
}

// RemoveNote deletes a note and its items. The stock the note issued is
// deliberately left untouched.
func (r *IssuesRepository) RemoveNote(tx *goqu.TxDatabase, noteID int) error {
	if _, err := tx.Delete("gin_items").
		Where(goqu.Ex{"note_id": noteID}).
		Executor().
		Exec(); err != nil {
		return fmt.Errorf("failed to delete goods issue items for note %d: %w", noteID, err)
	}

	result, err := tx.Delete("goods_issue_notes").
		Where(goqu.Ex{"id": noteID}).
		Executor().
		Exec()
	if err != nil {
		return fmt.Errorf("failed to delete goods issue note %d: %w", noteID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for goods issue note %d: %w", noteID, err)
	}
	if rowsAffected == 0 {
		return custom_error.NewNotFoundError("goods issue note", noteID)
	}

	return nil
}
