package state

import (
	"sync"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

var KeyState = []byte("s")

type StateHeader struct {
	Height   uint64
	ChainId  string
	RootHash []byte
	Hash     []byte
}

type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	db     *iavl.MutableTree

	header *StateHeader
	// read view over the tree, shared by queries
	state *Repository
}

func NewStateDB(dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "govdb")
	ldb, err := dbm.NewDB("hacgov", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	return newStateDB(ldb, dir, logger)
}

// NewMemStateDB keeps the tree in memory.
func NewMemStateDB(logger cmtlog.Logger) (db *StateDB, err error) {
	return newStateDB(dbm.NewMemDB(), "", logger.With("module", "govdb"))
}

func newStateDB(ldb dbm.DB, dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	tdb := iavl.NewMutableTree(ldb, 128, true, Cometbft2CosmosLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	db = &StateDB{
		dir:    dir,
		logger: logger,
		db:     tdb,
		header: new(StateHeader),
	}
	err = db.load()
	if err != nil {
		logger.Error("from govdb load fail", "err", err)
		return nil, err
	}
	db.state = NewRepository(NewState(treeStore{tree: tdb}))
	return
}

func (db *StateDB) load() (err error) {
	val, err := treeStore{tree: db.db}.Get(KeyState)
	if err != nil {
		return err
	}
	if val == nil {
		return nil
	}
	if err = rlp.DecodeBytes(val, db.header); err != nil {
		return err
	}
	// the saved header predates the hash of its own version
	db.calcHash(db.db.Hash(), true)
	return nil
}

func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	return
}

func (db *StateDB) Header() StateHeader {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return *db.header
}

// Repository returns the read view. Callers must not write to it.
func (db *StateDB) Repository() *Repository {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state
}

// View runs fn on the read view while holding off Update and Save.
func (db *StateDB) View(fn func(repo *Repository) error) error {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return fn(db.state)
}

// NewState branches the working tree for one block.
func (db *StateDB) NewState() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return NewState(treeStore{tree: db.db})
}

func (db *StateDB) SetChainId(chainId string) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	db.header.ChainId = chainId
}

// Update flushes a block state into the working tree and returns the working
// app hash. The tree version is not saved until Save.
func (db *StateDB) Update(st *State, height uint64) (h common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	var hash []byte
	defer func() {
		if hash == nil {
			db.db.Rollback()
		}
	}()
	err = st.Write()
	if err != nil {
		return
	}
	db.header.Height = height
	val, err := rlp.EncodeToBytes(db.header)
	if err != nil {
		return
	}
	_, err = db.db.Set(KeyState, val)
	if err != nil {
		return
	}
	hash = db.db.WorkingHash()
	h = db.calcHash(hash, false)
	return
}

func (db *StateDB) Save() (h common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, ver, err := db.db.SaveVersion()
	if err != nil {
		return h, err
	}
	db.logger.Debug("state saved", "version", ver, "height", db.header.Height)
	h = db.calcHash(hash, true)
	return
}

func (db *StateDB) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		db.header.RootHash = append([]byte{}, rootHash...)
		db.header.Hash = append([]byte{}, h[:]...)
	}
	return
}

func (db *StateDB) Hash() (h common.Hash) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	if db.header.Hash != nil {
		copy(h[:], db.header.Hash)
	}
	return
}
