package repo

import (
	"Notico/internal/model"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// DefaultSQLiteDSN используется, когда DATABASE_URI не задан.
const DefaultSQLiteDSN = "file:notico-server.db?_pragma=foreign_keys(1)"

// InitDB открывает БД по DSN и накатывает схему.
// postgres:// и key=value DSN уходят в Postgres, всё остальное в SQLite (modernc).
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate создаёт или обновляет таблицы серверных моделей.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Folder{}, &model.Item{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func dialector(dsn string) gorm.Dialector {
	switch {
	case dsn == "":
		return gormsqlite.Dialector{DriverName: "sqlite", DSN: DefaultSQLiteDSN}
	case isPostgresDSN(dsn):
		return postgres.Open(dsn)
	default:
		return gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}
