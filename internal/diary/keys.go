package diary

// Keys under which the diary keeps its dataset in the key-value substrate.
// The backup protocol serializes these verbatim, so renaming one is a
// breaking change to the backup payload format.
const (
	// KeyDays holds the map of all 366 Day records, keyed by Day.ID.
	KeyDays = "days"

	// KeyMemories holds the map of memory slices, keyed by Day.ID.
	KeyMemories = "memories"

	// KeyImages holds the image blob map, keyed by image id. Values are
	// data URLs referenced by Image memories through "local://<id>".
	KeyImages = "images"

	// KeyViewMode holds the UI view mode preference.
	KeyViewMode = "view_mode"

	// KeyFirstRunDone marks that the 366-day calendar has been generated.
	KeyFirstRunDone = "first_run_done"

	// KeyWelcomeShown marks that the welcome dialog has been dismissed.
	KeyWelcomeShown = "welcome_shown"

	// KeyLastBackup holds the timestamp of the last successful backup.
	KeyLastBackup = "last_backup"
)
