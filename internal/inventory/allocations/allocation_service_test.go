package allocations

import (
	"testing"
	"time"

	custom_error "stockledger/pkg/errors"
	"stockledger/pkg/ledger"
	"stockledger/pkg/metadata"
	"stockledger/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAllocationStore struct {
	mock.Mock
}

func (m *MockAllocationStore) GetAllocation(id int) (*models.Allocation, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Allocation), args.Error(1)
}

func (m *MockAllocationStore) GetAllocationForUpdate(tx *goqu.TxDatabase, id int) (*models.Allocation, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Allocation), args.Error(1)
}

func (m *MockAllocationStore) InsertAllocation(tx *goqu.TxDatabase, req models.AllocationRequest) (int, error) {
	args := m.Called(tx, req)
	return args.Int(0), args.Error(1)
}

func (m *MockAllocationStore) CloseAllocation(tx *goqu.TxDatabase, id int, req models.ReturnRequest) error {
	args := m.Called(tx, id, req)
	return args.Error(0)
}

func (m *MockAllocationStore) ReduceAllocation(tx *goqu.TxDatabase, id int, newQuantity, remaining decimal.Decimal) error {
	args := m.Called(tx, id, newQuantity, remaining)
	return args.Error(0)
}

func (m *MockAllocationStore) InsertReturnedSplit(tx *goqu.TxDatabase, original models.Allocation, qty decimal.Decimal, req models.ReturnRequest) (int, error) {
	args := m.Called(tx, original, qty, req)
	return args.Int(0), args.Error(1)
}

func (m *MockAllocationStore) MarkConsumed(tx *goqu.TxDatabase, id int, consumed, remaining decimal.Decimal, closed bool) error {
	args := m.Called(tx, id, consumed, remaining, closed)
	return args.Error(0)
}

func (m *MockAllocationStore) MarkOverdueAllocations(now time.Time) (int64, error) {
	args := m.Called(now)
	return args.Get(0).(int64), args.Error(1)
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

func newTestService(allocations *MockAllocationStore, assetStore *MockAssetStore) *AllocationService {
	return NewAllocationService(allocations, assetStore, fakeTxRunner{})
}

func stockedAsset(id int, stock, allocated int64) *models.Asset {
	return &models.Asset{
		ID:       id,
		SKU:      "TLS-00001",
		UnitCost: decimal.NewFromInt(50),
		Status:   string(metadata.AssetInStock),
		Balances: ledger.Balances{
			InboundQuantity:   decimal.NewFromInt(stock + allocated),
			InboundValue:      decimal.NewFromInt((stock + allocated) * 50),
			OutboundQuantity:  decimal.NewFromInt(allocated),
			OutboundValue:     decimal.NewFromInt(allocated * 50),
			ClosingQuantity:   decimal.NewFromInt(stock),
			ClosingValue:      decimal.NewFromInt(stock * 50),
			StockQuantity:     decimal.NewFromInt(stock),
			AllocatedQuantity: decimal.NewFromInt(allocated),
		},
	}
}

func openAllocation(id, assetID int, qty int64) *models.Allocation {
	return &models.Allocation{
		ID:       id,
		AssetID:  assetID,
		Quantity: decimal.NewFromInt(qty),
		Status:   string(metadata.AllocationActive),
	}
}

func TestAllocateMovesStockToAllocated(t *testing.T) {
	allocStore := new(MockAllocationStore)
	assetStore := new(MockAssetStore)
	service := newTestService(allocStore, assetStore)

	assetStore.On("GetAssetForUpdate", mock.Anything, 1).Return(stockedAsset(1, 10, 0), nil)
	assetStore.On("UpdateBalances", mock.Anything, 1, mock.Anything, metadata.AssetInStock).
		Run(func(args mock.Arguments) {
			b := args.Get(2).(ledger.Balances)
			assert.True(t, b.StockQuantity.Equal(decimal.NewFromInt(6)))
			assert.True(t, b.AllocatedQuantity.Equal(decimal.NewFromInt(4)))
			assert.True(t, b.OutboundQuantity.Equal(decimal.NewFromInt(4)))
			assert.True(t, b.OutboundValue.Equal(decimal.NewFromInt(200)))
		}).
		Return(nil)
	allocStore.On("InsertAllocation", mock.Anything, mock.Anything).Return(7, nil)
	allocStore.On("GetAllocation", 7).Return(openAllocation(7, 1, 4), nil)

	allocation, err := service.Allocate(models.AllocationRequest{
		AssetID:         1,
		Quantity:        decimal.NewFromInt(4),
		AllocatedToName: "Nguyen Van A",
	})

	assert.NoError(t, err)
	assert.Equal(t, 7, allocation.ID)
	allocStore.AssertExpectations(t)
	assetStore.AssertExpectations(t)
}

func TestAllocateRejectsInsufficientStock(t *testing.T) {
	allocStore := new(MockAllocationStore)
	assetStore := new(MockAssetStore)
	service := newTestService(allocStore, assetStore)

	assetStore.On("GetAssetForUpdate", mock.Anything, 1).Return(stockedAsset(1, 3, 0), nil)

	_, err := service.Allocate(models.AllocationRequest{
		AssetID:         1,
		Quantity:        decimal.NewFromInt(4),
		AllocatedToName: "Nguyen Van A",
	})

	assert.Error(t, err)
	assert.True(t, custom_error.IsValidation(err))
	allocStore.AssertNotCalled(t, "InsertAllocation", mock.Anything, mock.Anything)
	assetStore.AssertNotCalled(t, "UpdateBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAllocateRequiresRecipient(t *testing.T) {
	service := newTestService(new(MockAllocationStore), new(MockAssetStore))

	_, err := service.Allocate(models.AllocationRequest{
		AssetID:  1,
		Quantity: decimal.NewFromInt(1),
	})

	assert.Error(t, err)
	assert.True(t, custom_error.IsValidation(err))
}

func TestReturnFullBooksStockBack(t *testing.T) {
	allocStore := new(MockAllocationStore)
	assetStore := new(MockAssetStore)
	service := newTestService(allocStore, assetStore)

	allocStore.On("GetAllocationForUpdate", mock.Anything, 7).Return(openAllocation(7, 1, 4), nil)
	assetStore.On("GetAssetForUpdate", mock.Anything, 1).Return(stockedAsset(1, 6, 4), nil)
	assetStore.On("UpdateBalances", mock.Anything, 1, mock.Anything, metadata.AssetInStock).
		Run(func(args mock.Arguments) {
			b := args.Get(2).(ledger.Balances)
			assert.True(t, b.StockQuantity.Equal(decimal.NewFromInt(10)))
			assert.True(t, b.AllocatedQuantity.IsZero())
			assert.True(t, b.OutboundQuantity.IsZero())
		}).
		Return(nil)
	allocStore.On("CloseAllocation", mock.Anything, 7, mock.Anything).Return(nil)
	allocStore.On("GetAllocation", 7).Return(openAllocation(7, 1, 4), nil)

	_, err := service.ReturnFull(7, models.ReturnRequest{ReusabilityPct: 90})

	assert.NoError(t, err)
	allocStore.AssertExpectations(t)
	assetStore.AssertExpectations(t)
}

func TestReturnFullLowReusabilityGoesToMaintenance(t *testing.T) {
	allocStore := new(MockAllocationStore)
	assetStore := new(MockAssetStore)
	service := newTestService(allocStore, assetStore)

	allocStore.On("GetAllocationForUpdate", mock.Anything, 7).Return(openAllocation(7, 1, 4), nil)
	assetStore.On("GetAssetForUpdate", mock.Anything, 1).Return(stockedAsset(1, 6, 4), nil)
	assetStore.On("UpdateBalances", mock.Anything, 1, mock.Anything, metadata.AssetUnderMaintenance).Return(nil)
	allocStore.On("CloseAllocation", mock.Anything, 7, mock.Anything).Return(nil)
	allocStore.On("GetAllocation", 7).Return(openAllocation(7, 1, 4), nil)

	_, err := service.ReturnFull(7, models.ReturnRequest{ReusabilityPct: 40})

	assert.NoError(t, err)
	assetStore.AssertExpectations(t)
}

func TestReturnFullRejectsClosedAllocation(t *testing.T) {
	allocStore := new(MockAllocationStore)
	assetStore := new(MockAssetStore)
	service := newTestService(allocStore, assetStore)

	closed := openAllocation(7, 1, 4)
	closed.Status = string(metadata.AllocationReturned)
	allocStore.On("GetAllocationForUpdate", mock.Anything, 7).Return(closed, nil)

	_, err := service.ReturnFull(7, models.ReturnRequest{ReusabilityPct: 90})

	assert.Error(t, err)
	assert.True(t, custom_error.IsValidation(err))
	assetStore.AssertNotCalled(t, "GetAssetForUpdate", mock.Anything, mock.Anything)
}

func TestReturnPartialSplitsAllocation(t *testing.T) {
	allocStore := new(MockAllocationStore)
	assetStore := new(MockAssetStore)
	service := newTestService(allocStore, assetStore)

	original := openAllocation(7, 1, 10)
	qty := decimal.NewFromInt(4)

	allocStore.On("GetAllocationForUpdate", mock.Anything, 7).Return(original, nil)
	assetStore.On("GetAssetForUpdate", mock.Anything, 1).Return(stockedAsset(1, 0, 10), nil)
	assetStore.On("UpdateBalances", mock.Anything, 1, mock.Anything, mock.Anything).Return(nil)
	allocStore.On("ReduceAllocation", mock.Anything, 7, decimal.NewFromInt(6), decimal.NewFromInt(6)).Return(nil)
	allocStore.On("InsertReturnedSplit", mock.Anything, *original, qty, mock.Anything).Return(12, nil)
	allocStore.On("GetAllocation", 12).Return(openAllocation(12, 1, 4), nil)

	split, err := service.ReturnPartial(7, models.ReturnRequest{Quantity: &qty, ReusabilityPct: 80})

	assert.NoError(t, err)
	assert.Equal(t, 12, split.ID)
	allocStore.AssertExpectations(t)
}

func TestReturnPartialRejectsFullQuantity(t *testing.T) {
	allocStore := new(MockAllocationStore)
	assetStore := new(MockAssetStore)
	service := newTestService(allocStore, assetStore)

	qty := decimal.NewFromInt(10)
	allocStore.On("GetAllocationForUpdate", mock.Anything, 7).Return(openAllocation(7, 1, 10), nil)

	_, err := service.ReturnPartial(7, models.ReturnRequest{Quantity: &qty, ReusabilityPct: 80})

	assert.Error(t, err)
	assert.True(t, custom_error.IsValidation(err))
	assetStore.AssertNotCalled(t, "GetAssetForUpdate", mock.Anything, mock.Anything)
}

func TestConsumeRejectsNonConsumableAsset(t *testing.T) {
	allocStore := new(MockAllocationStore)
	assetStore := new(MockAssetStore)
	service := newTestService(allocStore, assetStore)

	allocStore.On("GetAllocationForUpdate", mock.Anything, 7).Return(openAllocation(7, 1, 5), nil)
	asset := stockedAsset(1, 0, 5)
	asset.IsConsumable = false
	assetStore.On("GetAssetForUpdate", mock.Anything, 1).Return(asset, nil)

	_, err := service.Consume(7, models.ConsumeRequest{ConsumedQuantity: decimal.NewFromInt(2)})

	assert.Error(t, err)
	assert.True(t, custom_error.IsValidation(err))
	allocStore.AssertNotCalled(t, "MarkConsumed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConsumePartialKeepsAllocationOpen(t *testing.T) {
	allocStore := new(MockAllocationStore)
	assetStore := new(MockAssetStore)
	service := newTestService(allocStore, assetStore)

	allocStore.On("GetAllocationForUpdate", mock.Anything, 7).Return(openAllocation(7, 1, 10), nil)
	asset := stockedAsset(1, 0, 10)
	asset.IsConsumable = true
	assetStore.On("GetAssetForUpdate", mock.Anything, 1).Return(asset, nil)
	assetStore.On("UpdateBalances", mock.Anything, 1, mock.Anything, metadata.AssetInStock).
		Run(func(args mock.Arguments) {
			b := args.Get(2).(ledger.Balances)
			assert.True(t, b.AllocatedQuantity.Equal(decimal.NewFromInt(6)))
			assert.True(t, b.StockQuantity.IsZero())
		}).
		Return(nil)
	allocStore.On("MarkConsumed", mock.Anything, 7, decimal.NewFromInt(4), decimal.NewFromInt(6), false).Return(nil)
	allocStore.On("GetAllocation", 7).Return(openAllocation(7, 1, 10), nil)

	_, err := service.Consume(7, models.ConsumeRequest{ConsumedQuantity: decimal.NewFromInt(4)})

	assert.NoError(t, err)
	allocStore.AssertExpectations(t)
}

func TestConsumeFullClosesAllocation(t *testing.T) {
	allocStore := new(MockAllocationStore)
	assetStore := new(MockAssetStore)
	service := newTestService(allocStore, assetStore)

	allocStore.On("GetAllocationForUpdate", mock.Anything, 7).Return(openAllocation(7, 1, 10), nil)
	asset := stockedAsset(1, 0, 10)
	asset.IsConsumable = true
	assetStore.On("GetAssetForUpdate", mock.Anything, 1).Return(asset, nil)
	assetStore.On("UpdateBalances", mock.Anything, 1, mock.Anything, mock.Anything).Return(nil)
	allocStore.On("MarkConsumed", mock.Anything, 7, decimal.NewFromInt(10),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.IsZero() }), true).Return(nil)
	allocStore.On("GetAllocation", 7).Return(openAllocation(7, 1, 10), nil)

	_, err := service.Consume(7, models.ConsumeRequest{ConsumedQuantity: decimal.NewFromInt(10)})

	assert.NoError(t, err)
	allocStore.AssertExpectations(t)
}

func TestConsumeRejectsMoreThanOutstanding(t *testing.T) {
	allocStore := new(MockAllocationStore)
	assetStore := new(MockAssetStore)
	service := newTestService(allocStore, assetStore)

	allocation := openAllocation(7, 1, 10)
	allocation.ConsumedQuantity = decimal.NewFromInt(8)
	allocStore.On("GetAllocationForUpdate", mock.Anything, 7).Return(allocation, nil)

	_, err := service.Consume(7, models.ConsumeRequest{ConsumedQuantity: decimal.NewFromInt(3)})

	assert.Error(t, err)
	assert.True(t, custom_error.IsValidation(err))
}
