package reconcile

import "time"

// Category enumerates the physical inventory buckets reconciled against the GL.
type Category string

const (
	CategoryRawMaterials  Category = "RAW_MATERIALS"
	CategoryWIP           Category = "WIP"
	CategoryFinishedGoods Category = "FINISHED_GOODS"
	CategoryPackaging     Category = "PACKAGING"
)

// Categories lists the reconciled buckets in report order.
func Categories() []Category {
	return []Category{CategoryRawMaterials, CategoryWIP, CategoryFinishedGoods, CategoryPackaging}
}

// AccountForCategory maps each bucket to its GL inventory account.
func AccountForCategory(c Category) string {
	switch c {
	case CategoryRawMaterials:
		return "1200"
	case CategoryWIP:
		return "1210"
	case CategoryFinishedGoods:
		return "1220"
	case CategoryPackaging:
		return "1230"
	default:
		return ""
	}
}

// Snapshot is the derived comparison for one category. Variance is physical
// minus GL; causes (manual adjustments, pre-system stock, timing) are left
// to the operator.
type Snapshot struct {
	Category           Category
	AccountCode        string
	GLBalanceMinor     int64
	PhysicalValueMinor int64
	VarianceMinor      int64
	AsOf               time.Time
}
