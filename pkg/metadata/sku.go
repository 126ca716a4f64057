package metadata

import (
	"fmt"
)

type SKU struct {
	prefix string
	id     string
}

func (s *SKU) GenerateSKU() string {
	return s.prefix + "-" + s.id
}

func NewSKU(assetType AssetType, assetID int) SKU {
	var sku SKU

	sku.prefix = assetType.Prefix()
	sku.id = fmt.Sprintf("%05d", assetID)

	return sku
}
