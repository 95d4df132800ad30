package ctv

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// OP_CHECKTEMPLATEVERIFY is the BIP-119 opcode. It redefines OP_NOP4.
const OP_CHECKTEMPLATEVERIFY = txscript.OP_NOP4

// LockingScript returns the script <hash> OP_CHECKTEMPLATEVERIFY for a
// template hash.
func LockingScript(hash chainhash.Hash) ([]byte, error) {
	script, err := txscript.NewScriptBuilder().
		AddData(hash[:]).
		AddOp(OP_CHECKTEMPLATEVERIFY).
		Script()
	if err != nil {
		return nil, ctvError(ErrOversizedPush,
			"unable to build locking script", err)
	}

	return script, nil
}

// SegwitLockingAddress returns the pay-to-witness-script-hash address of
// script on net.
func SegwitLockingAddress(script []byte, net *chaincfg.Params) (
	*btcutil.AddressWitnessScriptHash, error) {

	addr, err := btcutil.NewAddressWitnessScriptHash(
		chainhash.HashB(script), net,
	)
	if err != nil {
		return nil, ctvError(ErrInvalidAddress,
			"unable to create witness script hash address", err)
	}

	return addr, nil
}

// TaprootSpendInfo describes the single leaf taproot tree committing to a
// CTV locking script.
type TaprootSpendInfo struct {
	InternalKey  *btcec.PublicKey
	Leaf         txscript.TapLeaf
	MerkleRoot   chainhash.Hash
	OutputKey    *btcec.PublicKey
	ControlBlock txscript.ControlBlock
}

// NewTaprootSpendInfo builds the taproot tree whose only leaf is script over
// the x-only internalKey.
func NewTaprootSpendInfo(internalKey [32]byte, script []byte) (
	*TaprootSpendInfo, error) {

	key, err := schnorr.ParsePubKey(internalKey[:])
	if err != nil {
		str := fmt.Sprintf("taproot not finalizable with internal "+
			"key %x", internalKey[:])
		return nil, ctvError(ErrTaprootConstruction, str, err)
	}

	leaf := txscript.NewBaseTapLeaf(script)
	tree := txscript.AssembleTaprootScriptTree(leaf)
	root := tree.RootNode.TapHash()
	outputKey := txscript.ComputeTaprootOutputKey(key, root[:])

	return &TaprootSpendInfo{
		InternalKey:  key,
		Leaf:         leaf,
		MerkleRoot:   root,
		OutputKey:    outputKey,
		ControlBlock: tree.LeafMerkleProofs[0].ToControlBlock(key),
	}, nil
}

// ControlBlockBytes returns the serialized control block proving the CTV
// leaf is committed to by the output key.
func (s *TaprootSpendInfo) ControlBlockBytes() ([]byte, error) {
	cb, err := s.ControlBlock.ToBytes()
	if err != nil {
		return nil, ctvError(ErrTaprootConstruction,
			"taproot construction error", err)
	}
	return cb, nil
}

// Address returns the taproot address of the output key on net.
func (s *TaprootSpendInfo) Address(net *chaincfg.Params) (
	*btcutil.AddressTaproot, error) {

	addr, err := btcutil.NewAddressTaproot(
		schnorr.SerializePubKey(s.OutputKey), net,
	)
	if err != nil {
		return nil, ctvError(ErrTaprootConstruction,
			"unable to create taproot address", err)
	}
	return addr, nil
}

// LockingScript returns the CTV locking script committing to the template.
func (t *Template) LockingScript() ([]byte, error) {
	return t.lockingScript(nil)
}

// Address returns the address funds must be sent to so that they can only be
// spent by a transaction matching the template.
func (t *Template) Address() (btcutil.Address, error) {
	return t.address(nil)
}

// PkScript returns the output script of Address.
func (t *Template) PkScript() ([]byte, error) {
	return t.pkScript(nil)
}

// TaprootSpendInfo returns the taproot tree of a Taproot template.
func (t *Template) TaprootSpendInfo() (*TaprootSpendInfo, error) {
	return t.taprootSpendInfo(nil)
}

func (t *Template) lockingScript(h *Hasher) ([]byte, error) {
	hash, err := t.hash(h)
	if err != nil {
		return nil, err
	}
	return LockingScript(hash)
}

func (t *Template) taprootSpendInfo(h *Hasher) (*TaprootSpendInfo, error) {
	tr, ok := t.txType().(Taproot)
	if !ok {
		return nil, ctvError(ErrTaprootConstruction,
			"template does not lock to a taproot output", nil)
	}

	script, err := t.lockingScript(h)
	if err != nil {
		return nil, err
	}

	return NewTaprootSpendInfo(tr.InternalKey, script)
}

func (t *Template) address(h *Hasher) (btcutil.Address, error) {
	net, err := t.params()
	if err != nil {
		return nil, err
	}

	switch t.txType().(type) {
	case SegwitV0:
		script, err := t.lockingScript(h)
		if err != nil {
			return nil, err
		}
		addr, err := SegwitLockingAddress(script, net)
		if err != nil {
			return nil, err
		}
		return addr, nil

	case Taproot:
		info, err := t.taprootSpendInfo(h)
		if err != nil {
			return nil, err
		}
		addr, err := info.Address(net)
		if err != nil {
			return nil, err
		}
		return addr, nil

	default:
		str := fmt.Sprintf("unsupported tx type %v", t.TxType)
		return nil, ctvError(ErrInvalidTemplate, str, nil)
	}
}

func (t *Template) pkScript(h *Hasher) ([]byte, error) {
	addr, err := t.address(h)
	if err != nil {
		return nil, err
	}

	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, ctvError(ErrInvalidAddress,
			"unable to build output script", err)
	}
	return pkScript, nil
}

// witness returns the witness stack that reveals the locking script, plus the
// control block for taproot spends.
func (t *Template) witness(h *Hasher) (wire.TxWitness, error) {
	script, err := t.lockingScript(h)
	if err != nil {
		return nil, err
	}

	switch tr := t.txType().(type) {
	case SegwitV0:
		return wire.TxWitness{script}, nil

	case Taproot:
		info, err := NewTaprootSpendInfo(tr.InternalKey, script)
		if err != nil {
			return nil, err
		}
		cb, err := info.ControlBlockBytes()
		if err != nil {
			return nil, err
		}
		return wire.TxWitness{script, cb}, nil

	default:
		str := fmt.Sprintf("unsupported tx type %v", t.TxType)
		return nil, ctvError(ErrInvalidTemplate, str, nil)
	}
}
