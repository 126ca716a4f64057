package metadata

import (
	"fmt"
	"strings"
)

type AssetType string

const (
	TypeEquipment AssetType = "equipment"
	TypeTools     AssetType = "tools"
	TypeMaterials AssetType = "materials"
)

func (t AssetType) IsValid() bool {
	switch t {
	case TypeEquipment, TypeTools, TypeMaterials:
		return true
	default:
		return false
	}
}

// ConsumableAllowed reports whether assets of this type may carry the
// is_consumable flag. Only materials can be consumed during an allocation.
func (t AssetType) ConsumableAllowed() bool {
	return t == TypeMaterials
}

func NewAssetType(value string) (AssetType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	assetType := AssetType(normalized)
	if !assetType.IsValid() {
		return assetType, fmt.Errorf(
			"value not valid, only valid values are: %s, %s, %s",
			TypeEquipment, TypeTools, TypeMaterials,
		)
	}

	return assetType, nil
}

func (t AssetType) String() string {
	return string(t)
}

// Prefix returns the SKU prefix registered for the asset type.
func (t AssetType) Prefix() string {
	switch t {
	case TypeEquipment:
		return "EQP"
	case TypeTools:
		return "TLS"
	case TypeMaterials:
		return "MAT"
	default:
		return "AST"
	}
}
