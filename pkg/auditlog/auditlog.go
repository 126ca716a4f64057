package auditlog

import (
	"log"

	"stockledger/pkg/models"
)

type LogStore interface {
	PersistLog(auditlog models.AuditLog, data interface{}) error
}

type Auditlog struct {
	store LogStore
}

type Auditable interface {
	CreateLogView() models.AuditLog
}

func NewAuditLog(store LogStore) *Auditlog {
	return &Auditlog{store: store}
}

// Log records an audit entry for a completed ledger action. Callers fire it
// from a goroutine after the transaction commits; a failed entry never fails
// the operation itself.
func (a *Auditlog) Log(action string, data interface{}, item Auditable) {
	auditLog := item.CreateLogView()
	auditLog.Action = action

	if err := a.store.PersistLog(auditLog, data); err != nil {
		log.Println("Unable to create audit log entry for id ", auditLog.ResourceID)
		return
	}
}
