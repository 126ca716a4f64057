package models

const DefaultWarehouseID = 1

type Warehouse struct {
	ID      int     `json:"id" db:"id"`
	Name    string  `json:"name" db:"name"`
	Address *string `json:"address" db:"address"`
	Details *string `json:"details" db:"details"`
}

func (w *Warehouse) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   w.ID,
		ResourceType: "warehouse",
	}
}
