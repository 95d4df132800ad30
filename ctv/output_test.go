package ctv

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputAmount(t *testing.T) {
	tests := []struct {
		name   string
		output Output
		want   btcutil.Amount
	}{
		{"address", NewAddressOutput(testnetP2WPKH, 1234), 1234},
		{"data", NewDataOutput([]byte("x")), 0},
		{"tree", NewTreeOutput(treeTemplate(), 5555), 5555},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, test.output.Amount(), test.name)
	}
}

func TestAddressOutputTxOut(t *testing.T) {
	out := NewAddressOutput(testnetP2WPKH, 8000)

	txOut, err := out.TxOut(&chaincfg.TestNet3Params)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), txOut.Value)

	want := append([]byte{txscript.OP_0, txscript.OP_DATA_20},
		bytes.Repeat([]byte{0x33}, 20)...)
	assert.Equal(t, want, txOut.PkScript)

	// Testnet and signet share their address encoding.
	_, err = out.TxOut(&chaincfg.SigNetParams)
	require.NoError(t, err)
}

func TestAddressOutputErrors(t *testing.T) {
	tests := []struct {
		name    string
		address string
		net     *chaincfg.Params
		code    ErrorCode
	}{
		{
			name:    "bech32 testnet on mainnet",
			address: testnetP2WPKH,
			net:     &chaincfg.MainNetParams,
			code:    ErrAddressMismatch,
		},
		{
			name:    "base58 testnet on mainnet",
			address: testnetP2PKH,
			net:     &chaincfg.MainNetParams,
			code:    ErrAddressMismatch,
		},
		{
			name:    "bech32 testnet on regtest",
			address: testnetP2WPKH,
			net:     &chaincfg.RegressionNetParams,
			code:    ErrAddressMismatch,
		},
		{
			name:    "garbage",
			address: "not-an-address",
			net:     &chaincfg.TestNet3Params,
			code:    ErrInvalidAddress,
		},
		{
			name:    "no network",
			address: testnetP2WPKH,
			net:     nil,
			code:    ErrUnknownNetwork,
		},
	}

	for _, test := range tests {
		_, err := NewAddressOutput(test.address, 1).TxOut(test.net)
		checkError(t, test.name, err, test.code)
	}
}

func TestDataOutputTxOut(t *testing.T) {
	txOut, err := NewDataOutput([]byte("hello")).TxOut(nil)
	require.NoError(t, err)

	assert.Equal(t, int64(0), txOut.Value)
	assert.Equal(t, []byte{txscript.OP_RETURN, txscript.OP_DATA_5,
		'h', 'e', 'l', 'l', 'o'}, txOut.PkScript)
	assert.Equal(t, txscript.NullDataTy, txscript.GetScriptClass(txOut.PkScript))

	// The largest push is accepted.
	maxData := bytes.Repeat([]byte{0x01}, txscript.MaxScriptElementSize)
	_, err = NewDataOutput(maxData).TxOut(nil)
	require.NoError(t, err)

	_, err = NewDataOutput(append(maxData, 0x01)).TxOut(nil)
	checkError(t, "oversized data", err, ErrOversizedPush)
}

func TestDataOutputPushEncoding(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"empty", []byte{}, "6a00"},
		{"nil", nil, "6a00"},
		{"zero byte", []byte{0x00}, "6a0100"},
		{"small int", []byte{0x05}, "6a0105"},
		{"sixteen", []byte{0x10}, "6a0110"},
		{"negative one", []byte{0x81}, "6a0181"},
		{"two bytes", []byte{0x00, 0x05}, "6a020005"},
		{"pushdata1", bytes.Repeat([]byte{0xaa}, 76),
			"6a4c4c" + strings.Repeat("aa", 76)},
	}

	for _, test := range tests {
		txOut, err := NewDataOutput(test.data).TxOut(nil)
		require.NoError(t, err, test.name)
		assert.Equal(t, test.want, hex.EncodeToString(txOut.PkScript),
			test.name)
		assert.Equal(t, txscript.NullDataTy,
			txscript.GetScriptClass(txOut.PkScript), test.name)
	}
}

func TestDataOutputCommitmentsDiffer(t *testing.T) {
	payloads := [][]byte{{}, {0x00}, {0x05}, {0x81}}

	seen := make(map[chainhash.Hash]int)
	for i, data := range payloads {
		tmpl := &Template{
			Net: &chaincfg.TestNet3Params,
			Fields: Fields{
				Version:   2,
				Sequences: []uint32{wire.MaxTxInSequenceNum},
				Outputs:   []Output{NewDataOutput(data)},
			},
		}

		hash, err := tmpl.Hash()
		require.NoError(t, err)

		prev, dup := seen[hash]
		assert.False(t, dup, "payload %d hashes like payload %d", i, prev)
		seen[hash] = i
	}
}

func TestTreeOutputTxOut(t *testing.T) {
	root := treeTemplate()
	child := root.Fields.Outputs[0].(*TreeOutput).Tree

	txOut, err := root.Fields.Outputs[0].TxOut(&chaincfg.TestNet3Params)
	require.NoError(t, err)

	pkScript, err := child.PkScript()
	require.NoError(t, err)

	assert.Equal(t, int64(9000), txOut.Value)
	assert.Equal(t, pkScript, txOut.PkScript)
	assert.Equal(t, txscript.WitnessV0ScriptHashTy,
		txscript.GetScriptClass(txOut.PkScript))

	_, err = NewTreeOutput(nil, 1).TxOut(&chaincfg.TestNet3Params)
	checkError(t, "nil tree", err, ErrInvalidTemplate)
}

func TestOutputRenderingIdempotent(t *testing.T) {
	outputs := []Output{
		NewAddressOutput(testnetP2PKH, 1),
		NewDataOutput([]byte("data")),
		NewTreeOutput(treeTemplate(), 2),
	}

	for _, out := range outputs {
		first, err := out.TxOut(&chaincfg.TestNet3Params)
		require.NoError(t, err)
		second, err := out.TxOut(&chaincfg.TestNet3Params)
		require.NoError(t, err)

		var a, b bytes.Buffer
		require.NoError(t, wire.WriteTxOut(&a, 0, 2, first))
		require.NoError(t, wire.WriteTxOut(&b, 0, 2, second))
		assert.Equal(t, a.Bytes(), b.Bytes())
	}
}
