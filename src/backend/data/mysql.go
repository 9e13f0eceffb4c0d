package data

import (
	"log"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/suidao-labs/suidao-backend/src/backend/types"
)

const (
	connectAttempts = 30
	connectDelay    = 2 * time.Second
)

// ConnectMySQL opens a gorm DB with sane defaults.
func ConnectMySQL(dsn string) (*gorm.DB, error) {
	dsn = ensureParam(dsn, "parseTime", "true")
	if !strings.Contains(dsn, "charset=") {
		dsn = ensureParam(dsn, "charset", "utf8mb4")
		dsn = ensureParam(dsn, "collation", "utf8mb4_unicode_ci")
	}

	gormLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	return gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
}

// MustMySQL connects with bounded retries so the service survives a
// database that is still starting up. Fatal once the attempts run out.
func MustMySQL(dsn string) *gorm.DB {
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := ConnectMySQL(dsn)
		if err == nil {
			return db
		}
		lastErr = err
		log.Printf("mysql not ready, retry %d/%d: %v", attempt, connectAttempts, err)
		time.Sleep(connectDelay)
	}
	log.Fatalf("mysql: %v", lastErr)
	return nil
}

// Migrate creates or updates the mirror tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&types.Organization{}, &types.Proposal{})
}

func ensureParam(dsn, key, val string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + val
}
