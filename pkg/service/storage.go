package service

import (
	"context"
	"fmt"

	"github.com/danielkrainas/gobag/util/uid"
	memdb "github.com/hashicorp/go-memdb"
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/util/log"
)

const pollTable = "poll"

// MemoryStore keeps polls in an in-memory radix tree. Stored objects are
// never mutated in place; every write inserts a fresh copy.
type MemoryStore struct {
	db *memdb.MemDB
}

var _ PollStore = &MemoryStore{}

func NewMemoryStore(polls []*Poll) (*MemoryStore, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			pollTable: {
				Name: pollTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"active": {
						Name:    "active",
						Indexer: &memdb.BoolFieldIndex{Field: "IsActive"},
					},
				},
			},
		},
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, err
	}

	storage := &MemoryStore{
		db: db,
	}

	txn := db.Txn(true)
	for _, p := range polls {
		p = p.clone()
		if p.ID == "" {
			p.ID = uid.Generate()
		}

		log.Debug("pre-inserting poll", PollFields(p)...)
		if err := txn.Insert(pollTable, p); err != nil {
			txn.Abort()
			return nil, err
		}
	}

	txn.Commit()
	log.Info("in-memory storage ready", zap.Int("polls", len(polls)))
	return storage, nil
}

func (storage *MemoryStore) FindActive(ctx context.Context) ([]*Poll, error) {
	transact := storage.db.Txn(false)
	defer transact.Abort()

	it, err := transact.Get(pollTable, "active", true)
	if err != nil {
		return nil, err
	}

	result := make([]*Poll, 0)
	for obj := it.Next(); obj != nil; obj = it.Next() {
		result = append(result, obj.(*Poll).clone())
	}

	return result, nil
}

func (storage *MemoryStore) Deactivate(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	transact := storage.db.Txn(true)
	obj, err := transact.First(pollTable, "id", id)
	if err != nil {
		transact.Abort()
		return err
	} else if obj == nil {
		transact.Abort()
		return fmt.Errorf("%w: %s", ErrPollNotFound, id)
	}

	p := obj.(*Poll)
	if !p.IsActive {
		transact.Abort()
		return nil
	}

	p = p.clone()
	p.IsActive = false
	if err := transact.Insert(pollTable, p); err != nil {
		transact.Abort()
		return err
	}

	transact.Commit()
	return nil
}

func (storage *MemoryStore) CreatePoll(ctx context.Context, p *Poll) (*Poll, error) {
	p = p.clone()
	p.ID = uid.Generate()
	transact := storage.db.Txn(true)
	if err := transact.Insert(pollTable, p); err != nil {
		transact.Abort()
		return nil, err
	}

	transact.Commit()
	return p.clone(), nil
}

func (storage *MemoryStore) GetPoll(ctx context.Context, id string) (*Poll, error) {
	transact := storage.db.Txn(false)
	defer transact.Abort()

	obj, err := transact.First(pollTable, "id", id)
	if err != nil {
		return nil, err
	} else if obj == nil {
		return nil, fmt.Errorf("%w: %s", ErrPollNotFound, id)
	}

	return obj.(*Poll).clone(), nil
}

func (storage *MemoryStore) ListPolls(ctx context.Context) ([]*Poll, error) {
	transact := storage.db.Txn(false)
	defer transact.Abort()

	it, err := transact.Get(pollTable, "id")
	if err != nil {
		return nil, err
	}

	result := make([]*Poll, 0)
	for obj := it.Next(); obj != nil; obj = it.Next() {
		result = append(result, obj.(*Poll).clone())
	}

	return result, nil
}

func (storage *MemoryStore) Close() error {
	return nil
}
