// Package todo defines the todo item domain model and its in-memory store.
package todo

// Item is a single todo entry.
//
// The text is serialized under the "todos" key for wire compatibility with
// existing clients.
type Item struct {
	ID       uint32 `json:"id"`
	Text     string `json:"todos"`
	Complete bool   `json:"complete"`
}

// IDPolicy selects how the store assigns ids to new items.
type IDPolicy string

const (
	// IDPolicyLength assigns len(items)+1. After a removal the next id can
	// collide with an existing one; kept for compatibility.
	IDPolicyLength IDPolicy = "length"
	// IDPolicySequence assigns from a counter that only grows, so ids are never reused.
	IDPolicySequence IDPolicy = "sequence"
)

// IsValid reports whether p is a known policy.
func (p IDPolicy) IsValid() bool {
	switch p {
	case IDPolicyLength, IDPolicySequence:
		return true
	}
	return false
}
