package config

// Default paths
const (
	// DefaultDatabaseURL is used when DATABASE_URL is empty: a SQLite file next to the binary.
	DefaultDatabaseURL = "./library.db"

	// DefaultTasksDatabasePath is the dedicated SQLite file backing the maintenance queue.
	DefaultTasksDatabasePath = "./library-tasks.db"

	// DefaultUploadDir is the content root for covers and book files.
	DefaultUploadDir = "./uploads"
)

// DefaultMaxUploadSize caps multipart bodies at 16 MiB.
const DefaultMaxUploadSize int64 = 16 << 20

// Upload subfolders under the content root.
const (
	CoversSubfolder = "covers"
	BooksSubfolder  = "books"
)

const EnvironmentProduction = "production"
