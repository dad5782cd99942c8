package cli

import (
	"fmt"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/library/internal/database"
)

// openDatabase connects and migrates. Provisioning commands only log SQL
// warnings so their own output stays readable.
func openDatabase(databaseURL string) (*database.Database, error) {
	db, err := database.NewDatabase(databaseURL, logger.Warn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
