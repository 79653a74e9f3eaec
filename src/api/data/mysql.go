package data

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fundguard/fundguard/src/api/store"
	"github.com/fundguard/fundguard/src/api/types"
)

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := db.AutoMigrate(&types.Account{}, &types.Community{}); err != nil {
		log.Fatalf("mysql migrate: %v", err)
	}
	return db
}

// MySQLBackend keeps one row per account and per community; nested
// lists (members, proposals, joined communities) are JSON columns.
// Records are never deleted in this design, so Save is upsert-only.
type MySQLBackend struct {
	db *gorm.DB
}

func NewMySQLBackend(db *gorm.DB) *MySQLBackend {
	return &MySQLBackend{db: db}
}

func (b *MySQLBackend) Load() (*store.State, error) {
	st := store.NewState()
	var accounts []types.Account
	if err := b.db.Find(&accounts).Error; err != nil {
		return nil, err
	}
	for i := range accounts {
		st.Accounts[accounts[i].Email] = &accounts[i]
	}
	var communities []types.Community
	if err := b.db.Find(&communities).Error; err != nil {
		return nil, err
	}
	for i := range communities {
		st.Communities[communities[i].Code] = &communities[i]
	}
	return st, nil
}

func (b *MySQLBackend) Save(st *store.State) error {
	return b.db.Transaction(func(tx *gorm.DB) error {
		for _, acct := range st.Accounts {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(acct).Error; err != nil {
				return err
			}
		}
		for _, community := range st.Communities {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(community).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

var _ store.Backend = (*MySQLBackend)(nil)
