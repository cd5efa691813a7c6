// Package types defines the shared domain model for the diary:
// calendar Days and the Memory tagged union.
package types

// UnnamedDay is the sentinel stored in Day.SpecialName when the user has
// not named the day. It is compared verbatim; renaming a day to an empty
// or whitespace-only string normalizes back to this value.
const UnnamedDay = "Unnamed Day"

// Day is one of the 366 fixed calendar slots of the diary, identified by a
// zero-padded "MM-DD" id. Days are generated once at first run and never
// deleted; only SpecialName and HasMemories change afterwards.
type Day struct {
	// ID is the "MM-DD" calendar key (e.g. "02-14"). Unique and stable.
	ID string `json:"id"`

	// DisplayName is the derived human-readable name, e.g. "14 de Febrero".
	// Generated at creation and never user-editable.
	DisplayName string `json:"displayName"`

	// SpecialName is the user-editable label. UnnamedDay means "not named".
	// The UI limits it to 25 characters; the store accepts longer input.
	SpecialName string `json:"specialName"`

	// HasMemories is a denormalized flag kept equal to "this day has at
	// least one memory" after every memory create/delete. It is a cache:
	// recomputable from the memory collection if ever found wrong.
	HasMemories bool `json:"hasMemories"`
}

// IsNamed reports whether the day carries a user-assigned name.
func (d *Day) IsNamed() bool {
	return d.SpecialName != "" && d.SpecialName != UnnamedDay
}
