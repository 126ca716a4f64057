package assets

import (
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

// fakeTxRunner runs the callback without a database so service logic can be
// exercised against mocks.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTransaction(fn func(tx *goqu.TxDatabase) error) error {
	return fn(nil)
}

func newTestService(store *MockAssetStore) *AssetService {
	return NewAssetService(store, fakeTxRunner{})
}

func TestCreateAssetGeneratesSKUAndBooksOpeningStock(t *testing.T) {
	store := new(MockAssetStore)
	service := newTestService(store)

	req := models.AssetRequest{
		Name:       "Makita drill",
		Type:       "tools",
		Unit:       "pcs",
		UnitCost:   decimal.NewFromInt(120),
		OpeningQty: decimal.NewFromInt(4),
	}

	store.On("PersistAsset", mock.Anything, mock.Anything, mock.Anything, metadata.AssetInStock).
		Run(func(args mock.Arguments) {
			b := args.Get(2).(ledger.Balances)
			assert.True(t, b.OpeningQuantity.Equal(decimal.NewFromInt(4)))
			assert.True(t, b.OpeningValue.Equal(decimal.NewFromInt(480)))
			assert.True(t, b.StockQuantity.Equal(decimal.NewFromInt(4)))
			assert.True(t, b.ClosingValue.Equal(decimal.NewFromInt(480)))
		}).
		Return(17, nil)
	store.On("UpdateSKU", mock.Anything, 17, "TLS-00017").Return(nil)
	store.On("GetAsset", 17).Return(&models.Asset{ID: 17, SKU: "TLS-00017"}, nil)

	asset, err := service.CreateAsset(req)

	assert.NoError(t, err)
	assert.Equal(t, "TLS-00017", asset.SKU)
	store.AssertExpectations(t)
}

func TestCreateAssetKeepsProvidedSKU(t *testing.T) {
	store := new(MockAssetStore)
	service := newTestService(store)

	sku := "EQP-CUSTOM"
	req := models.AssetRequest{
		SKU:  &sku,
		Name: "Projector",
		Type: "equipment",
	}

	store.On("PersistAsset", mock.Anything, mock.Anything, mock.Anything, metadata.AssetInStock).Return(3, nil)
	store.On("GetAsset", 3).Return(&models.Asset{ID: 3, SKU: sku}, nil)

	_, err := service.CreateAsset(req)

	assert.NoError(t, err)
	store.AssertNotCalled(t, "UpdateSKU", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateAssetRejectsInvalidInput(t *testing.T) {
	testCases := []struct {
		name string
		req  models.AssetRequest
	}{
		{
			name: "unknown type",
			req:  models.AssetRequest{Name: "Widget", Type: "furniture"},
		},
		{
			name: "consumable equipment",
			req:  models.AssetRequest{Name: "Projector", Type: "equipment", IsConsumable: true},
		},
		{
			name: "negative unit cost",
			req:  models.AssetRequest{Name: "Cable", Type: "materials", UnitCost: decimal.NewFromInt(-5)},
		},
		{
			name: "negative opening quantity",
			req:  models.AssetRequest{Name: "Cable", Type: "materials", OpeningQty: decimal.NewFromInt(-1)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockAssetStore)
			service := newTestService(store)

			_, err := service.CreateAsset(tc.req)

			assert.Error(t, err)
			assert.True(t, custom_error.IsValidation(err))
			store.AssertNotCalled(t, "PersistAsset", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReceiveBooksInboundAtCurrentCost(t *testing.T) {
	store := new(MockAssetStore)
	service := newTestService(store)

	existing := &models.Asset{
		ID:       5,
		UnitCost: decimal.NewFromInt(100),
		Balances: ledger.Balances{
			InboundQuantity: decimal.NewFromInt(2),
			InboundValue:    decimal.NewFromInt(200),
			ClosingQuantity: decimal.NewFromInt(2),
			ClosingValue:    decimal.NewFromInt(200),
			StockQuantity:   decimal.NewFromInt(2),
		},
	}

	store.On("GetAssetForUpdate", mock.Anything, 5).Return(existing, nil)
	store.On("UpdateBalances", mock.Anything, 5, mock.Anything, metadata.AssetInStock).
		Run(func(args mock.Arguments) {
			b := args.Get(2).(ledger.Balances)
			assert.True(t, b.InboundQuantity.Equal(decimal.NewFromInt(5)))
			assert.True(t, b.InboundValue.Equal(decimal.NewFromInt(500)))
			assert.True(t, b.StockQuantity.Equal(decimal.NewFromInt(5)))
		}).
		Return(nil)
	store.On("GetAsset", 5).Return(existing, nil)

	_, err := service.Receive(5, models.ReceiptRequest{Quantity: decimal.NewFromInt(3)})

	assert.NoError(t, err)
	store.AssertNotCalled(t, "UpdateUnitCost", mock.Anything, mock.Anything, mock.Anything)
}

func TestReceiveReplacesUnitCost(t *testing.T) {
	store := new(MockAssetStore)
	service := newTestService(store)

	existing := &models.Asset{ID: 5, UnitCost: decimal.NewFromInt(100)}

	store.On("GetAssetForUpdate", mock.Anything, 5).Return(existing, nil)
	store.On("UpdateBalances", mock.Anything, 5, mock.Anything, metadata.AssetInStock).Return(nil)
	store.On("UpdateUnitCost", mock.Anything, 5, decimal.NewFromInt(120)).Return(nil)
	store.On("GetAsset", 5).Return(existing, nil)

	_, err := service.Receive(5, models.ReceiptRequest{
		Quantity: decimal.NewFromInt(1),
		UnitCost: decimal.NewFromInt(120),
	})

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestReceiveUnknownAsset(t *testing.T) {
	store := new(MockAssetStore)
	service := newTestService(store)

	store.On("GetAssetForUpdate", mock.Anything, 99).Return(nil, nil)

	_, err := service.Receive(99, models.ReceiptRequest{Quantity: decimal.NewFromInt(1)})

	assert.Error(t, err)
	assert.True(t, custom_error.IsNotFound(err))
}

func TestReceiveRejectsNonPositiveQuantity(t *testing.T) {
	store := new(MockAssetStore)
	service := newTestService(store)

	store.On("GetAssetForUpdate", mock.Anything, 5).Return(&models.Asset{ID: 5}, nil)

	_, err := service.Receive(5, models.ReceiptRequest{Quantity: decimal.Zero})

	assert.Error(t, err)
	assert.True(t, custom_error.IsValidation(err))
	store.AssertNotCalled(t, "UpdateBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
