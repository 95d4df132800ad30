package ctv

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// TemplateHash calculates the BIP-119 OP_CHECKTEMPLATEVERIFY template hash of
// tx for the input at inputIdx. Only the template view of the transaction is
// committed to: version, locktime, scriptSigs (when any is non-empty), input
// count, sequences, output count, outputs and the input index. Previous
// outpoints and witnesses are not part of the hash.
func TemplateHash(tx *wire.MsgTx, inputIdx uint32) (chainhash.Hash, error) {
	preimage, err := templatePreimage(tx, inputIdx)
	if err != nil {
		return chainhash.Hash{}, err
	}

	return chainhash.HashH(preimage), nil
}

// templatePreimage serializes the fields committed to by TemplateHash in
// their normative order.
func templatePreimage(tx *wire.MsgTx, inputIdx uint32) ([]byte, error) {
	var buf bytes.Buffer

	writeUint32LE(&buf, uint32(tx.Version))
	writeUint32LE(&buf, tx.LockTime)

	scriptSigs, err := scriptSigsHash(tx)
	if err != nil {
		return nil, err
	}
	if scriptSigs != nil {
		buf.Write(scriptSigs)
	}

	writeUint32LE(&buf, uint32(len(tx.TxIn)))
	buf.Write(sequencesHash(tx))

	writeUint32LE(&buf, uint32(len(tx.TxOut)))
	outputs, err := outputsHash(tx)
	if err != nil {
		return nil, err
	}
	buf.Write(outputs)

	writeUint32LE(&buf, inputIdx)

	return buf.Bytes(), nil
}

// scriptSigsHash returns nil when every input has an empty scriptSig.
func scriptSigsHash(tx *wire.MsgTx) ([]byte, error) {
	empty := true
	for _, txIn := range tx.TxIn {
		if len(txIn.SignatureScript) != 0 {
			empty = false
			break
		}
	}
	if empty {
		return nil, nil
	}

	var buf bytes.Buffer
	for i, txIn := range tx.TxIn {
		err := wire.WriteVarBytes(&buf, 0, txIn.SignatureScript)
		if err != nil {
			str := fmt.Sprintf("failed to encode scriptSig of input %d", i)
			return nil, ctvError(ErrEncoding, str, err)
		}
	}

	return chainhash.HashB(buf.Bytes()), nil
}

func sequencesHash(tx *wire.MsgTx) []byte {
	var buf bytes.Buffer
	for _, txIn := range tx.TxIn {
		writeUint32LE(&buf, txIn.Sequence)
	}

	return chainhash.HashB(buf.Bytes())
}

func outputsHash(tx *wire.MsgTx) ([]byte, error) {
	var buf bytes.Buffer
	for i, txOut := range tx.TxOut {
		if err := wire.WriteTxOut(&buf, 0, tx.Version, txOut); err != nil {
			str := fmt.Sprintf("failed to encode output %d", i)
			return nil, ctvError(ErrEncoding, str, err)
		}
	}

	return chainhash.HashB(buf.Bytes()), nil
}

func writeUint32LE(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
