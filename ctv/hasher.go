package ctv

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightninglabs/neutrino/cache/lru"
)

const (
	// DefaultHashCacheSize is the number of template hashes a Hasher
	// created with a zero size keeps.
	DefaultHashCacheSize = 1000
)

type cachedHash struct {
	hash chainhash.Hash
}

func (c *cachedHash) Size() (uint64, error) {
	return 1, nil
}

// Hasher memoizes template hashes by template identity. Deriving scripts,
// addresses or spend chains for a tree rehashes every nested template once per
// level above it; a Hasher collapses that to a single hash per template.
//
// Templates passed to a Hasher must not be mutated afterwards. A nil *Hasher
// is valid and computes every hash from scratch.
type Hasher struct {
	cache *lru.Cache[*Template, *cachedHash]
}

// NewHasher returns a Hasher keeping up to size template hashes.
func NewHasher(size uint64) *Hasher {
	if size == 0 {
		size = DefaultHashCacheSize
	}

	return &Hasher{
		cache: lru.NewCache[*Template, *cachedHash](size),
	}
}

// Hash returns the template hash of t.
func (h *Hasher) Hash(t *Template) (chainhash.Hash, error) {
	if h == nil {
		return t.computeHash(nil)
	}

	if entry, err := h.cache.Get(t); err == nil {
		return entry.hash, nil
	}

	hash, err := t.computeHash(h)
	if err != nil {
		return chainhash.Hash{}, err
	}

	if _, err := h.cache.Put(t, &cachedHash{hash: hash}); err != nil {
		log.Debugf("Unable to cache template hash %v: %v", hash, err)
	}

	return hash, nil
}

// LockingScript returns the CTV locking script of t.
func (h *Hasher) LockingScript(t *Template) ([]byte, error) {
	return t.lockingScript(h)
}

// Address returns the address t locks funds to.
func (h *Hasher) Address(t *Template) (btcutil.Address, error) {
	return t.address(h)
}

// SpendingTxs returns the spend chain of t funded at prevTxid:prevVout.
func (h *Hasher) SpendingTxs(t *Template, prevTxid chainhash.Hash,
	prevVout uint32) ([]*wire.MsgTx, error) {

	return t.spendingTxs(h, prevTxid, prevVout)
}

// Len returns the number of cached hashes.
func (h *Hasher) Len() int {
	if h == nil {
		return 0
	}
	return h.cache.Len()
}
