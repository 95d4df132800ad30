package ctv

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// SpendingTxs generates the transactions that spend the template's output
// funded at prevTxid:prevVout. The first transaction spends the funding
// outpoint and pays to the committed outputs. If the first committed output is
// a TreeOutput, the transactions spending that nested template (funded at
// output 0 of the previous transaction) follow, recursively.
//
// Tree outputs at any other position are committed to but not chained; call
// SpendingTxs on their templates separately once their outpoint is known.
//
// The returned transactions must be broadcast in order.
func (t *Template) SpendingTxs(prevTxid chainhash.Hash,
	prevVout uint32) ([]*wire.MsgTx, error) {

	return t.spendingTxs(nil, prevTxid, prevVout)
}

func (t *Template) spendingTxs(h *Hasher, prevTxid chainhash.Hash,
	prevVout uint32) ([]*wire.MsgTx, error) {

	tx, err := t.spendingTx(h, prevTxid, prevVout)
	if err != nil {
		return nil, err
	}
	txid := tx.TxHash()

	log.Debugf("Spending %v:%d with %v (%d outputs)", prevTxid, prevVout,
		txid, len(tx.TxOut))

	txs := []*wire.MsgTx{tx}

	if len(t.Fields.Outputs) == 0 {
		return txs, nil
	}
	tree, ok := t.Fields.Outputs[0].(*TreeOutput)
	if !ok || tree.Tree == nil {
		return txs, nil
	}

	children, err := tree.Tree.spendingTxs(h, txid, 0)
	if err != nil {
		return nil, err
	}

	return append(txs, children...), nil
}

func (t *Template) spendingTx(h *Hasher, prevTxid chainhash.Hash,
	prevVout uint32) (*wire.MsgTx, error) {

	seqs := t.Fields.Sequences
	if len(seqs) == 0 {
		return nil, ctvError(ErrMissingSequence,
			"template commits to no input sequences", nil)
	}
	if int64(t.Fields.InputIdx) >= int64(len(seqs)) {
		str := fmt.Sprintf("input index %d out of range for %d "+
			"committed inputs", t.Fields.InputIdx, len(seqs))
		return nil, ctvError(ErrInputIndex, str, nil)
	}

	witness, err := t.witness(h)
	if err != nil {
		return nil, err
	}

	txOuts, err := t.txOuts(h)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(t.Fields.Version)
	tx.LockTime = t.Fields.LockTime
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{
			Hash:  prevTxid,
			Index: prevVout,
		},
		Sequence: seqs[0],
		Witness:  witness,
	})
	tx.TxOut = txOuts

	return tx, nil
}
