package constants

const (
	// AppName is used for config paths, the Postgres schema, and keyring entries.
	AppName = "habitgrid"

	// DateFormat is the calendar-date layout used everywhere a date crosses a
	// package boundary. Habit log dates are stored in this form, so lexicographic
	// and chronological order coincide.
	DateFormat = "2006-01-02"

	// DefaultKeyringUser is the keyring account name for the remote sync DSN.
	DefaultKeyringUser = "remote-dsn"
)
