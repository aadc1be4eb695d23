package models

// InventoryKey is the key of the single inventory record.
const InventoryKey = "inventory"

// Tier identifies a prize category. Lower numbers are scarcer and win first.
type Tier string

const (
	TierOne   Tier = "P1"
	TierTwo   Tier = "P2"
	TierThree Tier = "P3"
	// TierNone is the consolation outcome handed out once every tier is exhausted.
	TierNone Tier = "NONE"
)

// Inventory holds the remaining count per tier.
type Inventory struct {
	Tier1 int `json:"p1"`
	Tier2 int `json:"p2"`
	Tier3 int `json:"p3"`
}

// Total returns the number of prizes left across all tiers.
func (i Inventory) Total() int {
	return i.Tier1 + i.Tier2 + i.Tier3
}

// Count returns the remaining count of a tier. TierNone is unlimited and reports 0.
func (i Inventory) Count(tier Tier) int {
	switch tier {
	case TierOne:
		return i.Tier1
	case TierTwo:
		return i.Tier2
	case TierThree:
		return i.Tier3
	}
	return 0
}

// Prize is the outcome of an allocation.
type Prize struct {
	Type  Tier   `json:"type"`
	Label string `json:"label"`
}
