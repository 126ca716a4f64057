package issues

import (
	"strings"
	"testing"

	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/ledger"
	"stockledger/pkg/metadata"
	"stockledger/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockIssueStore struct {
	mock.Mock
}

func (m *MockIssueStore) GetNote(id int) (*models.GoodsIssueNote, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GoodsIssueNote), args.Error(1)
}

func (m *MockIssueStore) InsertNote(tx *goqu.TxDatabase, code string, req models.GoodsIssueRequest) (int, error) {
	args := m.Called(tx, code, req)
	return args.Int(0), args.Error(1)
}

func (m *MockIssueStore) InsertItem(tx *goqu.TxDatabase, noteID, assetID int, qty, unitCost decimal.Decimal) error {
	args := m.Called(tx, noteID, assetID, qty, unitCost)
	return args.Error(0)
}

func (m *MockIssueStore) GetItemForUpdate(tx *goqu.TxDatabase, itemID int) (*models.GINItem, error) {
	args := m.Called(tx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GINItem), args.Error(1)
}

func (m *MockIssueStore) UpdateItemReturn(tx *goqu.TxDatabase, itemID int, returned decimal.Decimal, status metadata.IssueItemStatus) error {
	args := m.Called(tx, itemID, returned, status)
	return args.Error(0)
}

func (m *MockIssueStore) RemoveNote(tx *goqu.TxDatabase, noteID int) error {
	args := m.Called(tx, noteID)
	return args.Error(0)
}

type MockAssetStore struct {
	mock.Mock
}

func (m *MockAssetStore) GetAsset(id int) (*models.Asset, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Asset), args.Error(1)
}

func (m *MockAssetStore) GetAssetForUpdate(tx *goqu.TxDatabase, id int) (*models.Asset, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Asset), args.Error(1)
}

func (m *MockAssetStore) GetAssetBySKUForUpdate(tx *goqu.TxDatabase, sku string) (*models.Asset, error) {
	args := m.Called(tx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Asset), args.Error(1)
}

func (m *MockAssetStore) PersistAsset(tx *goqu.TxDatabase, req models.AssetRequest, b ledger.Balances, status metadata.AssetStatus) (int, error) {
	args := m.Called(tx, req, b, status)
	return args.Int(0), args.Error(1)
}

func (m *MockAssetStore) UpdateSKU(tx *goqu.TxDatabase, assetID int, sku string) error {
	args := m.Called(tx, assetID, sku)
	return args.Error(0)
}

func (m *MockAssetStore) UpdateBalances(tx *goqu.TxDatabase, assetID int, b ledger.Balances, status metadata.AssetStatus) error {
	args := m.Called(tx, assetID, b, status)
	return args.Error(0)
}

func (m *MockAssetStore) UpdateUnitCost(tx *goqu.TxDatabase, assetID int, unitCost decimal.Decimal) error {
	args := m.Called(tx, assetID, unitCost)
	return args.Error(0)
}

func (m *MockAssetStore) RemoveAsset(tx *goqu.TxDatabase, assetID int) error {
	args := m.Called(tx, assetID)
	return args.Error(0)
}

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTransaction(fn func(tx *goqu.TxDatabase) error) error {
	return fn(nil)
}

func consumableAsset(id int, stock int64) *models.Asset {
	return &models.Asset{
		ID:           id,
		SKU:          "MAT-00001",
		IsConsumable: true,
		UnitCost:     decimal.NewFromInt(20),
		Status:       string(metadata.AssetInStock),
		Balances: ledger.Balances{
			InboundQuantity: decimal.NewFromInt(stock),
			InboundValue:    decimal.NewFromInt(stock * 20),
			ClosingQuantity: decimal.NewFromInt(stock),
			ClosingValue:    decimal.NewFromInt(stock * 20),
			StockQuantity:   decimal.NewFromInt(stock),
		},
	}
}

func TestNewNoteCodeFormat(t *testing.T) {
	code := newNoteCode()

	assert.True(t, strings.HasPrefix(code, "GIN-"))
	assert.Len(t, code, 12)
	assert.NotEqual(t, code, newNoteCode())
}

func TestCreateNoteIssuesEveryLine(t *testing.T) {
	issueStore := new(MockIssueStore)
	assetStore := new(MockAssetStore)
	service := NewIssueService(issueStore, assetStore, fakeTxRunner{})

	issueStore.On("InsertNote", mock.Anything, mock.Anything, mock.Anything).Return(3, nil)
	assetStore.On("GetAssetForUpdate", mock.Anything, 1).Return(consumableAsset(1, 10), nil)
	assetStore.On("GetAssetForUpdate", mock.Anything, 2).Return(consumableAsset(2, 5), nil)
	assetStore.On("UpdateBalances", mock.Anything, 1, mock.Anything, metadata.AssetInStock).
		Run(func(args mock.Arguments) {
			b := args.Get(2).(ledger.Balances)
			assert.True(t, b.StockQuantity.Equal(decimal.NewFromInt(4)))
			assert.True(t, b.AllocatedQuantity.IsZero())
			assert.True(t, b.OutboundValue.Equal(decimal.NewFromInt(120)))
		}).
		Return(nil)
	assetStore.On("UpdateBalances", mock.Anything, 2, mock.Anything, metadata.AssetInStock).Return(nil)
	issueStore.On("InsertItem", mock.Anything, 3, 1, decimal.NewFromInt(6), decimal.NewFromInt(20)).Return(nil)
	issueStore.On("InsertItem", mock.Anything, 3, 2, decimal.NewFromInt(2), decimal.NewFromInt(20)).Return(nil)
	issueStore.On("GetNote", 3).Return(&models.GoodsIssueNote{ID: 3, Code: "GIN-a1b2c3d4"}, nil)

	note, err := service.CreateNote(models.GoodsIssueRequest{
		IssuedTo: "Site B crew",
		Items: []models.GoodsIssueItemInput{
			{AssetID: 2, Quantity: decimal.NewFromInt(2)},
			{AssetID: 1, Quantity: decimal.NewFromInt(6)},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, note.ID)
	issueStore.AssertExpectations(t)
	assetStore.AssertExpectations(t)
}

func TestCreateNoteRejectsNonConsumable(t *testing.T) {
	issueStore := new(MockIssueStore)
	assetStore := new(MockAssetStore)
	service := NewIssueService(issueStore, assetStore, fakeTxRunner{})

	tool := consumableAsset(1, 10)
	tool.IsConsumable = false
	issueStore.On("InsertNote", mock.Anything, mock.Anything, mock.Anything).Return(3, nil)
	assetStore.On("GetAssetForUpdate", mock.Anything, 1).Return(tool, nil)

	_, err := service.CreateNote(models.GoodsIssueRequest{
		IssuedTo: "Site B crew",
		Items:    []models.GoodsIssueItemInput{{AssetID: 1, Quantity: decimal.NewFromInt(2)}},
	})

	assert.Error(t, err)
	assert.True(t, custom_error.IsValidation(err))
	issueStore.AssertNotCalled(t, "InsertItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateNoteRejectsInvalidItems(t *testing.T) {
	testCases := []struct {
		name  string
		items []models.GoodsIssueItemInput
	}{
		{
			name:  "no items",
			items: nil,
		},
		{
			name:  "zero quantity",
			items: []models.GoodsIssueItemInput{{AssetID: 1, Quantity: decimal.Zero}},
		},
		{
			name: "duplicate asset",
			items: []models.GoodsIssueItemInput{
				{AssetID: 1, Quantity: decimal.NewFromInt(2)},
				{AssetID: 1, Quantity: decimal.NewFromInt(3)},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			issueStore := new(MockIssueStore)
			service := NewIssueService(issueStore, new(MockAssetStore), fakeTxRunner{})

			_, err := service.CreateNote(models.GoodsIssueRequest{IssuedTo: "Site B crew", Items: tc.items})

			assert.Error(t, err)
			assert.True(t, custom_error.IsValidation(err))
			issueStore.AssertNotCalled(t, "InsertNote", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReturnItemBooksStockBack(t *testing.T) {
	issueStore := new(MockIssueStore)
	assetStore := new(MockAssetStore)
	service := NewIssueService(issueStore, assetStore, fakeTxRunner{})

	item := &models.GINItem{
		ID:       4,
		NoteID:   3,
		AssetID:  1,
		Quantity: decimal.NewFromInt(10),
		UnitCost: decimal.NewFromInt(20),
		Status:   string(metadata.IssueItemIssued),
	}

	issued := consumableAsset(1, 0)
	issued.Balances.InboundQuantity = decimal.NewFromInt(10)
	issued.Balances.InboundValue = decimal.NewFromInt(200)
	issued.Balances.OutboundQuantity = decimal.NewFromInt(10)
	issued.Balances.OutboundValue = decimal.NewFromInt(200)

	issueStore.On("GetItemForUpdate", mock.Anything, 4).Return(item, nil)
	assetStore.On("GetAssetForUpdate", mock.Anything, 1).Return(issued, nil)
	assetStore.On("UpdateBalances", mock.Anything, 1, mock.Anything, metadata.AssetInStock).
		Run(func(args mock.Arguments) {
			b := args.Get(2).(ledger.Balances)
			assert.True(t, b.StockQuantity.Equal(decimal.NewFromInt(4)))
			assert.True(t, b.OutboundQuantity.Equal(decimal.NewFromInt(6)))
			assert.True(t, b.OutboundValue.Equal(decimal.NewFromInt(120)))
		}).
		Return(nil)
	issueStore.On("UpdateItemReturn", mock.Anything, 4, decimal.NewFromInt(4), metadata.IssueItemPartialReturned).Return(nil)
	issueStore.On("GetNote", 3).Return(&models.GoodsIssueNote{ID: 3}, nil)

	_, err := service.ReturnItem(4, models.IssueReturnRequest{Quantity: decimal.NewFromInt(4)})

	assert.NoError(t, err)
	issueStore.AssertExpectations(t)
}

func TestReturnItemFullReturnClosesItem(t *testing.T) {
	issueStore := new(MockIssueStore)
	assetStore := new(MockAssetStore)
	service := NewIssueService(issueStore, assetStore, fakeTxRunner{})

	item := &models.GINItem{
		ID:               4,
		NoteID:           3,
		AssetID:          1,
		Quantity:         decimal.NewFromInt(10),
		ReturnedQuantity: decimal.NewFromInt(6),
		Status:           string(metadata.IssueItemPartialReturned),
	}

	partiallyReturned := consumableAsset(1, 6)
	partiallyReturned.Balances.InboundQuantity = decimal.NewFromInt(10)
	partiallyReturned.Balances.InboundValue = decimal.NewFromInt(200)
	partiallyReturned.Balances.OutboundQuantity = decimal.NewFromInt(4)
	partiallyReturned.Balances.OutboundValue = decimal.NewFromInt(80)

	issueStore.On("GetItemForUpdate", mock.Anything, 4).Return(item, nil)
	assetStore.On("GetAssetForUpdate", mock.Anything, 1).Return(partiallyReturned, nil)
	assetStore.On("UpdateBalances", mock.Anything, 1, mock.Anything, mock.Anything).Return(nil)
	issueStore.On("UpdateItemReturn", mock.Anything, 4, decimal.NewFromInt(10), metadata.IssueItemReturned).Return(nil)
	issueStore.On("GetNote", 3).Return(&models.GoodsIssueNote{ID: 3}, nil)

	_, err := service.ReturnItem(4, models.IssueReturnRequest{Quantity: decimal.NewFromInt(4)})

	assert.NoError(t, err)
	issueStore.AssertExpectations(t)
}

func TestReturnItemRejectsExcessiveReturn(t *testing.T) {
	issueStore := new(MockIssueStore)
	assetStore := new(MockAssetStore)
	service := NewIssueService(issueStore, assetStore, fakeTxRunner{})

	item := &models.GINItem{
		ID:               4,
		NoteID:           3,
		AssetID:          1,
		Quantity:         decimal.NewFromInt(10),
		ReturnedQuantity: decimal.NewFromInt(10),
		Status:           string(metadata.IssueItemReturned),
	}

	issueStore.On("GetItemForUpdate", mock.Anything, 4).Return(item, nil)

	_, err := service.ReturnItem(4, models.IssueReturnRequest{Quantity: decimal.NewFromInt(1)})

	assert.Error(t, err)
	assert.True(t, custom_error.IsValidation(err))
	assetStore.AssertNotCalled(t, "GetAssetForUpdate", mock.Anything, mock.Anything)
}

func TestDeleteNoteLeavesStockAlone(t *testing.T) {
	issueStore := new(MockIssueStore)
	assetStore := new(MockAssetStore)
	service := NewIssueService(issueStore, assetStore, fakeTxRunner{})

	issueStore.On("RemoveNote", mock.Anything, 3).Return(nil)

	err := service.DeleteNote(3)

	assert.NoError(t, err)
	assetStore.AssertNotCalled(t, "GetAssetForUpdate", mock.Anything, mock.Anything)
	assetStore.AssertNotCalled(t, "UpdateBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
