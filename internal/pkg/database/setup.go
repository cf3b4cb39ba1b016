package database

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/propmodel/challenge-admin/app/models"
	"github.com/propmodel/challenge-admin/internal/pkg/env"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// DSN builds the MySQL data source name from the environment.
func DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)
}

func SetupDatabase() {
	var err error
	dsn := DSN()

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{})
		if err == nil {
			if env.GetEnvBool("DB_AUTO_MIGRATE", false) {
				if err = DB.AutoMigrate(Models()...); err != nil {
					log.Errorf("[Database] auto migrate failed: %v", err)
				}
			}
			return
		}

		log.Warnf("[Database] failed to connect (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// Models lists every table owned by this service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.PlatformGroup{},
		&models.PhaseWiseSetting{},
		&models.AdvancedChallengeSettings{},
		&models.DefaultChallengeSettings{},
		&models.DiscountCode{},
		&models.Purchase{},
		&models.PlatformAccount{},
		&models.Tag{},
		&models.Subtag{},
		&models.PlatformAccountSubtag{},
		&models.FreeTrialCode{},
		&models.FreeTrialSettings{},
		&models.ActivityLog{},
	}
}

// GetDB returns the shared connection.
func GetDB() *gorm.DB {
	return DB
}
