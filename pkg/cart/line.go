package cart

// Line is one product-and-quantity entry within a cart. Name and image are
// denormalized from the catalog at the time of add so the cart renders
// without a catalog round-trip.
type Line struct {
	ProductID string `json:"product_id"`
	Name      string `json:"display_name"`
	UnitPrice int64  `json:"unit_price"`
	Image     string `json:"image_ref"`
	Quantity  int32  `json:"quantity"`
}

// Op describes what a cart mutation did. Presentation code decides whether
// and how to notify; the store itself has no notification side effects.
type Op int32

const (
	OpNone Op = iota
	OpAdded
	OpMerged
	OpUpdated
	OpRemoved
	OpCleared
)

func (op Op) String() string {
	switch op {
	case OpAdded:
		return "added"
	case OpMerged:
		return "merged"
	case OpUpdated:
		return "updated"
	case OpRemoved:
		return "removed"
	case OpCleared:
		return "cleared"
	default:
		return "none"
	}
}

// MutationResult reports the outcome of a single cart mutation. Line is the
// resulting line for add/merge/update, or the removed line for remove.
type MutationResult struct {
	Op   Op
	Line *Line
}
