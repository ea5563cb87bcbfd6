package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/core/ports"
	"github.com/tdex-network/escrowd/internal/storageutil/uow"
	"github.com/timshannon/badgerhold/v4"
)

const (
	gcInterval     = 5 * time.Minute
	gcDiscardRatio = 0.5
)

type txKey struct{}

type repoManager struct {
	store *badgerhold.Store

	depositRepository domain.DepositRepository
	eventRepository   domain.EventRepository
	policyRepository  domain.PolicyRepository

	gcTicker *time.Ticker
	quit     chan struct{}
}

// NewRepoManager opens (or creates if not exists) the badger store on disk.
// It expects a base data dir and an optional logger. If the datadir is empty,
// the store is opened in memory.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, "ledger")
	}

	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}

	r := &repoManager{
		store:             store,
		depositRepository: NewDepositRepositoryImpl(store),
		eventRepository:   NewEventRepositoryImpl(store),
		policyRepository:  NewPolicyRepositoryImpl(store),
		quit:              make(chan struct{}),
	}
	if len(dbDir) > 0 {
		r.gcTicker = time.NewTicker(gcInterval)
		go r.runGC()
	}
	return r, nil
}

func (r *repoManager) DepositRepository() domain.DepositRepository {
	return r.depositRepository
}

func (r *repoManager) EventRepository() domain.EventRepository {
	return r.eventRepository
}

func (r *repoManager) PolicyRepository() domain.PolicyRepository {
	return r.policyRepository
}

// Begin opens a new read/write badger transaction and stores it in the
// returned context.
func (r *repoManager) Begin(
	ctx context.Context,
) (context.Context, uow.Tx, error) {
	tx := &transaction{r.store.Badger().NewTransaction(true)}
	return context.WithValue(ctx, txKey{}, tx.Txn), tx, nil
}

func (r *repoManager) Close() {
	if r.gcTicker != nil {
		r.gcTicker.Stop()
		close(r.quit)
	}
	r.store.Close()
}

func (r *repoManager) runGC() {
	for {
		select {
		case <-r.gcTicker.C:
			if err := r.store.Badger().RunValueLogGC(gcDiscardRatio); err != nil {
				if err != badger.ErrNoRewrite {
					log.WithError(err).Warn("ledger db: value log gc failed")
				}
			}
		case <-r.quit:
			return
		}
	}
}

type transaction struct {
	*badger.Txn
}

// Commit maps badger's conflict error so that callers can retry.
func (t *transaction) Commit() error {
	if err := t.Txn.Commit(); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return fmt.Errorf("%w: %s", uow.ErrConflict, err)
		}
		return err
	}
	return nil
}

func (t *transaction) Rollback() error {
	t.Discard()
	return nil
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}

// update runs fn within the transaction found in the given context, or
// within a new one committed right after.
func update(
	ctx context.Context, store *badgerhold.Store, fn func(tx *badger.Txn) error,
) error {
	if tx, ok := ctx.Value(txKey{}).(*badger.Txn); ok {
		return fn(tx)
	}
	return store.Badger().Update(fn)
}

// view runs fn within the transaction found in the given context, or within a
// new read-only one.
func view(
	ctx context.Context, store *badgerhold.Store, fn func(tx *badger.Txn) error,
) error {
	if tx, ok := ctx.Value(txKey{}).(*badger.Txn); ok {
		return fn(tx)
	}
	return store.Badger().View(fn)
}
