package issues

import (
	"fmt"
	"sort"

	"stockledger/internal/inventory/assets"
	"stockledger/internal/repository"
	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/ledger"
	"stockledger/pkg/metadata"
	"stockledger/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IssueStore is the slice of the issues repository the service needs.
type IssueStore interface {
	GetNote(id int) (*models.GoodsIssueNote, error)
	InsertNote(tx *goqu.TxDatabase, code string, req models.GoodsIssueRequest) (int, error)
	InsertItem(tx *goqu.TxDatabase, noteID, assetID int, qty, unitCost decimal.Decimal) error
	GetItemForUpdate(tx *goqu.TxDatabase, itemID int) (*models.GINItem, error)
	UpdateItemReturn(tx *goqu.TxDatabase, itemID int, returned decimal.Decimal, status metadata.IssueItemStatus) error
	RemoveNote(tx *goqu.TxDatabase, noteID int) error
}

type IssueService struct {
	issuesRepo IssueStore
	assetsRepo assets.AssetStore
	tx         repository.TxRunner
}

func NewIssueService(issuesRepo IssueStore, assetsRepo assets.AssetStore, tx repository.TxRunner) *IssueService {
	return &IssueService{
		issuesRepo: issuesRepo,
		assetsRepo: assetsRepo,
		tx:         tx,
	}
}

// newNoteCode mints a voucher code for a goods issue note.
func newNoteCode() string {
	fragment := uuid.New().String()[:8]
	return fmt.Sprintf("GIN-%s", fragment)
}

// CreateNote issues consumable materials out of the warehouse under one
// voucher. Every line is priced at its asset's current unit cost; the whole
// note books atomically or not at all.
func (s *IssueService) CreateNote(req models.GoodsIssueRequest) (*models.GoodsIssueNote, error) {
	if len(req.Items) == 0 {
		return nil, custom_error.NewValidationError("goods issue note needs at least one item")
	}
	seen := make(map[int]bool, len(req.Items))
	for _, item := range req.Items {
		if !item.Quantity.IsPositive() {
			return nil, custom_error.NewValidationError("issue quantity must be positive for asset %d", item.AssetID)
		}
		if seen[item.AssetID] {
			return nil, custom_error.NewValidationError("asset %d appears twice on the note", item.AssetID)
		}
		seen[item.AssetID] = true
	}
	if req.WarehouseID == 0 {
		req.WarehouseID = models.DefaultWarehouseID
	}

	// Lock assets in id order so two overlapping notes cannot deadlock.
	items := make([]models.GoodsIssueItemInput, len(req.Items))
	copy(items, req.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].AssetID < items[j].AssetID })

	var noteID int
	err := s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		var err error
		noteID, err = s.issuesRepo.InsertNote(tx, newNoteCode(), req)
		if err != nil {
			return err
		}

		for _, item := range items {
			asset, err := s.assetsRepo.GetAssetForUpdate(tx, item.AssetID)
			if err != nil {
				return err
			}
			if !asset.IsConsumable {
				return custom_error.NewValidationError("asset %s is not consumable", asset.SKU)
			}

			balances, status, err := ledger.Outgoing(asset.Balances, item.Quantity, asset.UnitCost, false)
			if err != nil {
				return err
			}

			if err := s.assetsRepo.UpdateBalances(tx, item.AssetID, balances, status); err != nil {
				return err
			}

			if err := s.issuesRepo.InsertItem(tx, noteID, item.AssetID, item.Quantity, asset.UnitCost); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issuesRepo.GetNote(noteID)
}

// ReturnItem books a return of qty units against one note item. The item's
// status only moves forward: issued, partial_returned, returned.
func (s *IssueService) ReturnItem(itemID int, req models.IssueReturnRequest) (*models.GoodsIssueNote, error) {
	if !req.Quantity.IsPositive() {
		return nil, custom_error.NewValidationError("return quantity must be positive")
	}

	var noteID int
	err := s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		item, err := s.issuesRepo.GetItemForUpdate(tx, itemID)
		if err != nil {
			return err
		}
		noteID = item.NoteID

		outstanding := item.Outstanding()
		if req.Quantity.GreaterThan(outstanding) {
			return &custom_error.ExcessiveReturnError{Requested: req.Quantity, Outstanding: outstanding}
		}

		asset, err := s.assetsRepo.GetAssetForUpdate(tx, item.AssetID)
		if err != nil {
			return err
		}

		// Issue returns go straight back into stock; reusability grading
		// only applies to allocated equipment.
		balances, status, err := ledger.Return(asset.Balances, req.Quantity, asset.UnitCost, 100, false)
		if err != nil {
			return err
		}

		if err := s.assetsRepo.UpdateBalances(tx, item.AssetID, balances, status); err != nil {
			return err
		}

		returned := item.ReturnedQuantity.Add(req.Quantity)
		itemStatus := metadata.IssueItemPartialReturned
		if returned.Equal(item.Quantity) {
			itemStatus = metadata.IssueItemReturned
		}

		return s.issuesRepo.UpdateItemReturn(tx, itemID, returned, itemStatus)
	})
	if err != nil {
		return nil, err
	}

	return s.issuesRepo.GetNote(noteID)
}

// DeleteNote removes a note and its items. The issued stock stays issued:
// deleting the voucher never books the materials back, so the caller is
// told the ledger effect is permanent.
func (s *IssueService) DeleteNote(noteID int) error {
	return s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		return s.issuesRepo.RemoveNote(tx, noteID)
	})
}
