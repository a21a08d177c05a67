// Package domain contains core domain types for the SSB practice platform.
package domain

// TestType identifies one practice test family.
type TestType string

// Test types offered by the platform.
const (
	TestTAT  TestType = "tat"  // Thematic Apperception Test (pictures)
	TestWAT  TestType = "wat"  // Word Association Test (word list)
	TestSRT  TestType = "srt"  // Situation Reaction Test (situation list)
	TestPPDT TestType = "ppdt" // Picture Perception and Description Test
)

// KnownTestTypes lists every test type the platform serves.
var KnownTestTypes = []TestType{TestTAT, TestWAT, TestSRT, TestPPDT}

// IsValid reports whether t is one of the known test types.
func (t TestType) IsValid() bool {
	for _, known := range KnownTestTypes {
		if t == known {
			return true
		}
	}
	return false
}

// CatalogItem is one practice item: an image URL for picture tests, a word
// or situation text otherwise. Items are immutable once fetched.
type CatalogItem struct {
	ID          string `json:"id"`
	Payload     string `json:"payload"`
	Description string `json:"description,omitempty"`
}

// Catalog is the ordered set of items available for one test type.
type Catalog struct {
	TestType TestType      `json:"test_type"`
	Items    []CatalogItem `json:"items"`
}

// IsEmpty reports whether the catalog has no items.
func (c Catalog) IsEmpty() bool {
	return len(c.Items) == 0
}

// IDs returns the item ids in catalog order.
func (c Catalog) IDs() []string {
	ids := make([]string, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ID
	}
	return ids
}
