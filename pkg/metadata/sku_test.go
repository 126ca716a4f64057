package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSKU(t *testing.T) {
	tests := []struct {
		name      string
		assetType AssetType
		assetID   int
		expected  string
	}{
		{
			name:      "Equipment",
			assetType: TypeEquipment,
			assetID:   123,
			expected:  "EQP-00123",
		},
		{
			name:      "Materials",
			assetType: TypeMaterials,
			assetID:   7,
			expected:  "MAT-00007",
		},
		{
			name:      "Tools",
			assetType: TypeTools,
			assetID:   98765,
			expected:  "TLS-98765",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sku := NewSKU(tt.assetType, tt.assetID)
			actual := sku.GenerateSKU()
			assert.Equal(t, tt.expected, actual)
		})
	}
}
