package metadata

import "fmt"

// AssetStatus is the stock status of an asset derived by the ledger rules.
type AssetStatus string

const (
	AssetInStock          AssetStatus = "in_stock"
	AssetAllocated        AssetStatus = "allocated"
	AssetUnderMaintenance AssetStatus = "under_maintenance"
)

func (s AssetStatus) IsValid() bool {
	switch s {
	case AssetInStock, AssetAllocated, AssetUnderMaintenance:
		return true
	default:
		return false
	}
}

// AllocationStatus tracks the checkout lifecycle of an allocation row.
type AllocationStatus string

const (
	AllocationActive   AllocationStatus = "active"
	AllocationReturned AllocationStatus = "returned"
	AllocationOverdue  AllocationStatus = "overdue"
)

func NewAllocationStatus(value string) (AllocationStatus, error) {
	status := AllocationStatus(value)
	if !status.isValid() {
		return "", fmt.Errorf("invalid allocation status: %s", value)
	}
	return status, nil
}

func (s AllocationStatus) isValid() bool {
	switch s {
	case AllocationActive, AllocationReturned, AllocationOverdue:
		return true
	default:
		return false
	}
}

// Open reports whether the allocation still has equipment checked out.
// Overdue allocations are open: the scan only flags them, it never closes them.
func (s AllocationStatus) Open() bool {
	return s == AllocationActive || s == AllocationOverdue
}

// IssueItemStatus tracks a goods-issue-note item. Transitions are monotonic:
// issued -> partial_returned -> returned.
type IssueItemStatus string

const (
	IssueItemIssued          IssueItemStatus = "issued"
	IssueItemPartialReturned IssueItemStatus = "partial_returned"
	IssueItemReturned        IssueItemStatus = "returned"
)

func (s IssueItemStatus) isValid() bool {
	switch s {
	case IssueItemIssued, IssueItemPartialReturned, IssueItemReturned:
		return true
	default:
		return false
	}
}

func NewIssueItemStatus(value string) (IssueItemStatus, error) {
	status := IssueItemStatus(value)
	if !status.isValid() {
		return "", fmt.Errorf("invalid issue item status: %s", value)
	}
	return status, nil
}
