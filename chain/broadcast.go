package chain

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// TxSender is a backend that accepts raw transactions.
type TxSender interface {
	SendTx(tx *wire.MsgTx) (*chainhash.Hash, error)
}

// BroadcastError is returned by BroadcastChain when a transaction of the
// chain is rejected.
type BroadcastError struct {
	// Index is the position of the rejected transaction in the chain.
	Index int
	Txid  chainhash.Hash
	Err   error
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("broadcast of tx %d (%v) failed: %v", e.Index,
		e.Txid, e.Err)
}

func (e *BroadcastError) Unwrap() error {
	return e.Err
}

// BroadcastChain sends txs to sender in order. Each transaction spends an
// output of the one before it, so it stops at the first failure. It returns
// the number of transactions the sender accepted.
func BroadcastChain(ctx context.Context, sender TxSender,
	txs []*wire.MsgTx) (int, error) {

	for i, tx := range txs {
		select {
		case <-ctx.Done():
			return i, ctx.Err()
		default:
		}

		txid := tx.TxHash()
		if _, err := sender.SendTx(tx); err != nil {
			return i, &BroadcastError{Index: i, Txid: txid, Err: err}
		}

		log.Infof("Broadcast tx %d/%d: %v", i+1, len(txs), txid)
	}

	return len(txs), nil
}
