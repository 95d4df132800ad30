package ctv

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// TxType selects the locking encoding a template pays to. It is implemented
// by SegwitV0 and Taproot only. A nil TxType is treated as SegwitV0.
type TxType interface {
	fmt.Stringer

	isTxType()
}

// SegwitV0 locks to a pay-to-witness-script-hash of the CTV script.
type SegwitV0 struct{}

func (SegwitV0) isTxType() {}

func (SegwitV0) String() string { return "Segwit" }

// Taproot locks to a taproot output whose only script leaf is the CTV script.
type Taproot struct {
	// InternalKey is the untweaked x-only internal key.
	InternalKey [32]byte
}

// NewTaproot returns a Taproot tx type using the x-only encoding of key.
func NewTaproot(key *btcec.PublicKey) Taproot {
	var t Taproot
	copy(t.InternalKey[:], schnorr.SerializePubKey(key))
	return t
}

func (Taproot) isTxType() {}

func (t Taproot) String() string {
	return fmt.Sprintf("Taproot(%x)", t.InternalKey[:])
}

// Fields are the transaction fields a template hash commits to.
type Fields struct {
	Version  int32
	LockTime uint32

	// Sequences holds one sequence per committed input. Its length is the
	// committed input count.
	Sequences []uint32

	// Outputs holds the committed outputs in order.
	Outputs []Output

	// InputIdx is the index of the input of the spending transaction that
	// is bound to this commitment.
	InputIdx uint32
}

// Template is a CTV commitment: the committed fields, the locking encoding
// and the network used to render addresses. The network is not committed to.
//
// A Template must not be mutated once any hash, script, address or spend
// chain has been derived from it.
type Template struct {
	Net    *chaincfg.Params
	TxType TxType
	Fields Fields
}

// Hash returns the template hash committed to by the template's locking
// script.
func (t *Template) Hash() (chainhash.Hash, error) {
	return t.hash(nil)
}

// AsTx returns the template view of the transaction that satisfies the
// template: one input per committed sequence, with empty scriptSigs and
// null outpoints, and the rendered outputs.
func (t *Template) AsTx() (*wire.MsgTx, error) {
	return t.asTx(nil)
}

// TxOuts renders the committed outputs.
func (t *Template) TxOuts() ([]*wire.TxOut, error) {
	return t.txOuts(nil)
}

// Amount is the sum of the amounts of all committed outputs.
func (t *Template) Amount() btcutil.Amount {
	var total btcutil.Amount
	for _, out := range t.Fields.Outputs {
		total += out.Amount()
	}
	return total
}

// Depth returns the number of transactions SpendingTxs produces for the
// template, which is one plus the depth of the tree committed at output 0.
func (t *Template) Depth() int {
	depth := 1
	for cur := t; len(cur.Fields.Outputs) > 0; depth++ {
		tree, ok := cur.Fields.Outputs[0].(*TreeOutput)
		if !ok || tree.Tree == nil {
			break
		}
		cur = tree.Tree
	}
	return depth
}

func (t *Template) txType() TxType {
	if t.TxType == nil {
		return SegwitV0{}
	}
	return t.TxType
}

func (t *Template) params() (*chaincfg.Params, error) {
	if t.Net == nil {
		return nil, ctvError(ErrUnknownNetwork,
			"template has no network", nil)
	}
	return t.Net, nil
}

func (t *Template) hash(h *Hasher) (chainhash.Hash, error) {
	if h != nil {
		return h.Hash(t)
	}
	return t.computeHash(nil)
}

func (t *Template) computeHash(h *Hasher) (chainhash.Hash, error) {
	tx, err := t.asTx(h)
	if err != nil {
		return chainhash.Hash{}, err
	}

	hash, err := TemplateHash(tx, t.Fields.InputIdx)
	if err != nil {
		return chainhash.Hash{}, err
	}

	log.Tracef("Template hash %v (inputs=%d, outputs=%d, input_idx=%d)",
		hash, len(tx.TxIn), len(tx.TxOut), t.Fields.InputIdx)

	return hash, nil
}

func (t *Template) asTx(h *Hasher) (*wire.MsgTx, error) {
	txOuts, err := t.txOuts(h)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(t.Fields.Version)
	tx.LockTime = t.Fields.LockTime
	for _, seq := range t.Fields.Sequences {
		tx.AddTxIn(&wire.TxIn{Sequence: seq})
	}
	tx.TxOut = txOuts

	return tx, nil
}

func (t *Template) txOuts(h *Hasher) ([]*wire.TxOut, error) {
	txOuts := make([]*wire.TxOut, 0, len(t.Fields.Outputs))
	for i, out := range t.Fields.Outputs {
		if out == nil {
			str := fmt.Sprintf("output %d is nil", i)
			return nil, ctvError(ErrInvalidTemplate, str, nil)
		}

		txOut, err := out.txOut(t.Net, h)
		if err != nil {
			return nil, err
		}
		txOuts = append(txOuts, txOut)
	}

	return txOuts, nil
}
