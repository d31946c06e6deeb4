package mock

import (
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/todo-app/backend/config"
	"github.com/todo-app/backend/internal/infra/db"
)

var once sync.Once
var database *Db

type Db struct {
	Database *db.Database
	models   []any
}

// NewDb opens a shared in-memory SQLite database and migrates models into it.
func NewDb(models ...any) *Db {
	once.Do(
		func() {
			database = open(models)
		},
	)

	return database
}

func open(models []any) *Db {
	conn, err := db.NewSQLiteConnection(&config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"})
	if err != nil {
		panic("failed to connect to database. err: " + err.Error())
	}

	if err := conn.AutoMigrate(models...); err != nil {
		panic(fmt.Sprintf("failed to migrate database. err: %s", err.Error()))
	}

	newDbMock := &Db{
		Database: conn,
		models:   models,
	}

	if err := newDbMock.ClearDB(); err != nil {
		panic(fmt.Sprintf("failed to clear database. err: %s", err.Error()))
	}

	return newDbMock
}

// Conn returns the GORM connection.
func (d *Db) Conn() *gorm.DB {
	return d.Database.DB()
}

// ClearDB removes every row and resets autoincrement counters.
func (d *Db) ClearDB() error {
	conn := d.Conn()
	for _, model := range d.models {
		if err := conn.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
			return err
		}

		stmt := &gorm.Statement{DB: conn}
		if err := stmt.Parse(model); err != nil {
			return err
		}

		err := conn.Exec("DELETE FROM sqlite_sequence WHERE name = ?", stmt.Schema.Table).Error
		if err != nil && !strings.Contains(err.Error(), "no such table: sqlite_sequence") {
			return err
		}
	}
	return nil
}
