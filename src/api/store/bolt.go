package store

import (
	"encoding/json"

	"go.etcd.io/bbolt"
)

var (
	stateBucket    = []byte("state")
	accountsKey    = []byte("accounts")
	communitiesKey = []byte("communities")
)

// BoltBackend persists the two mappings as JSON blobs under a single
// bucket, one key per mapping.
type BoltBackend struct {
	db *bbolt.DB
}

func NewBoltBackend(db *bbolt.DB) *BoltBackend {
	return &BoltBackend{db: db}
}

func (b *BoltBackend) Load() (*State, error) {
	st := NewState()
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(stateBucket)
		if bucket == nil {
			return nil
		}
		if val := bucket.Get(accountsKey); val != nil {
			if err := json.Unmarshal(val, &st.Accounts); err != nil {
				return err
			}
		}
		if val := bucket.Get(communitiesKey); val != nil {
			if err := json.Unmarshal(val, &st.Communities); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (b *BoltBackend) Save(st *State) error {
	accounts, err := json.Marshal(st.Accounts)
	if err != nil {
		return err
	}
	communities, err := json.Marshal(st.Communities)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(stateBucket)
		if err != nil {
			return err
		}
		if err := bucket.Put(accountsKey, accounts); err != nil {
			return err
		}
		return bucket.Put(communitiesKey, communities)
	})
}

var _ Backend = (*BoltBackend)(nil)
