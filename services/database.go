package services

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ramen-office/models"
)

// OpenDatabase - 드라이버에 맞게 DB 연결 후 마이그레이션
//
// sqlite는 dsn에 파일 경로, mysql은 go-sql-driver 형식 DSN을 받는다.
func OpenDatabase(driver, dsn string, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if err := db.AutoMigrate(&models.Device{}, &models.ActivityLog{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if logger != nil {
		logger.Info("database ready", zap.String("driver", driver))
	}
	return db, nil
}
