package db

import (
	"fmt"
	"time"

	"rocketcoins/internal/config"
	"rocketcoins/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models lists every table in migration order.
func Models() []any {
	return []any{&domain.User{}, &domain.Wallet{}, &domain.Transaction{}, &domain.PointRecord{}}
}

// gormConfig keeps timestamps in UTC and turns driver errors such as unique
// violations into gorm.ErrDuplicatedKey.
func gormConfig(level gormlogger.LogLevel) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormlogger.Default.LogMode(level),
	}
}

// MySQLDSN builds the Data Source Name from the configuration.
func MySQLDSN(cfg *config.Config) string {
	return cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true&loc=UTC"
}

// Open connects to the configured database. "mysql" is the production driver;
// "sqlite" is meant for local runs, with DB_NAME as the file path.
func Open(cfg *config.Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.IsProd {
		level = gormlogger.Error
	}
	switch cfg.DBDriver {
	case "mysql", "":
		return gorm.Open(mysql.Open(MySQLDSN(cfg)), gormConfig(level))
	case "sqlite":
		return OpenSQLite(cfg.DBName, level)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// OpenSQLite opens a sqlite database. SQLite has no row locks, so the pool is
// limited to a single connection and writers serialize on it.
func OpenSQLite(dsn string, level gormlogger.LogLevel) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), gormConfig(level))
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	return gdb, nil
}

// Migrate performs automatic migration for the database schema
func Migrate(gdb *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("Migration completed.")
	return nil
}
