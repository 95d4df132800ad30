package ctv

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fundingTxid = chainhash.Hash{
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
}

// levels returns the templates SpendingTxs walks for t, root first.
func levels(t *Template) []*Template {
	out := []*Template{t}
	for len(t.Fields.Outputs) > 0 {
		tree, ok := t.Fields.Outputs[0].(*TreeOutput)
		if !ok {
			break
		}
		t = tree.Tree
		out = append(out, t)
	}
	return out
}

func TestSpendingTxsSingle(t *testing.T) {
	tmpl := simpleTemplate(&chaincfg.TestNet3Params)

	txs, err := tmpl.SpendingTxs(fundingTxid, 3)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, int32(2), tx.Version)
	assert.Equal(t, uint32(0), tx.LockTime)
	require.Len(t, tx.TxIn, 1)
	assert.Equal(t, wire.OutPoint{Hash: fundingTxid, Index: 3},
		tx.TxIn[0].PreviousOutPoint)
	assert.Equal(t, uint32(wire.MaxTxInSequenceNum), tx.TxIn[0].Sequence)
	assert.Empty(t, tx.TxIn[0].SignatureScript)

	script, err := tmpl.LockingScript()
	require.NoError(t, err)
	assert.Equal(t, wire.TxWitness{script}, tx.TxIn[0].Witness)

	require.Len(t, tx.TxOut, 1)
	assert.Equal(t, int64(1000), tx.TxOut[0].Value)
	assert.Equal(t, txscript.PubKeyHashTy,
		txscript.GetScriptClass(tx.TxOut[0].PkScript))

	hash, err := TemplateHash(tx, 0)
	require.NoError(t, err)
	want, err := tmpl.Hash()
	require.NoError(t, err)
	assert.Equal(t, want, hash)
}

func TestSpendingTxsChain(t *testing.T) {
	tests := []struct {
		name string
		tmpl *Template
	}{
		{"tree", treeTemplate()},
		{"chain of 5", chainTemplate(5, 100000)},
		{"taproot chain", func() *Template {
			tmpl := chainTemplate(3, 5000)
			for _, level := range levels(tmpl) {
				level.TxType = NUMSTaproot([]byte("chain"))
			}
			return tmpl
		}()},
	}

	for _, test := range tests {
		txs, err := test.tmpl.SpendingTxs(fundingTxid, 0)
		require.NoError(t, err, test.name)

		templates := levels(test.tmpl)
		require.Len(t, txs, test.tmpl.Depth(), test.name)
		require.Len(t, txs, len(templates), test.name)

		prev := wire.OutPoint{Hash: fundingTxid, Index: 0}
		for i, tx := range txs {
			if !assert.Equal(t, prev, tx.TxIn[0].PreviousOutPoint) {
				t.Logf("%s: tx %d: %v", test.name, i, spew.Sdump(tx))
			}

			want, err := templates[i].Hash()
			require.NoError(t, err)
			got, err := TemplateHash(tx, templates[i].Fields.InputIdx)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%s: level %d", test.name, i)

			// Each level pays to the structure the level above committed.
			if i > 0 {
				pkScript, err := templates[i].PkScript()
				require.NoError(t, err)
				assert.Equal(t, pkScript, txs[i-1].TxOut[0].PkScript)
			}

			prev = wire.OutPoint{Hash: tx.TxHash(), Index: 0}
		}
	}
}

func TestSpendingTxsTaprootWitness(t *testing.T) {
	tmpl := simpleTemplate(&chaincfg.TestNet3Params)
	tmpl.TxType = NUMSTaproot([]byte("witness"))

	txs, err := tmpl.SpendingTxs(fundingTxid, 1)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	witness := txs[0].TxIn[0].Witness
	require.Len(t, witness, 2, spew.Sdump(witness))

	script, err := tmpl.LockingScript()
	require.NoError(t, err)
	assert.Equal(t, script, witness[0])

	info, err := tmpl.TaprootSpendInfo()
	require.NoError(t, err)
	cb, err := info.ControlBlockBytes()
	require.NoError(t, err)
	assert.Equal(t, cb, witness[1])
	assert.Len(t, witness[1], txscript.ControlBlockBaseSize)
}

func TestSpendingTxsOnlyChainsFirstOutput(t *testing.T) {
	root := treeTemplate()
	child := root.Fields.Outputs[0].(*TreeOutput)

	// Move the tree behind the data output.
	root.Fields.Outputs[0], root.Fields.Outputs[1] =
		root.Fields.Outputs[1], child

	txs, err := root.SpendingTxs(fundingTxid, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, 1, root.Depth())

	pkScript, err := child.Tree.PkScript()
	require.NoError(t, err)
	assert.Equal(t, pkScript, txs[0].TxOut[1].PkScript)
}

func TestSpendingTxsErrors(t *testing.T) {
	noSeqs := simpleTemplate(&chaincfg.TestNet3Params)
	noSeqs.Fields.Sequences = nil

	badIdx := simpleTemplate(&chaincfg.TestNet3Params)
	badIdx.Fields.InputIdx = 1

	badChild := treeTemplate()
	badChild.Fields.Outputs[0].(*TreeOutput).Tree.Fields.Sequences = nil

	wrongNet := simpleTemplate(&chaincfg.MainNetParams)

	tests := []struct {
		name string
		tmpl *Template
		code ErrorCode
	}{
		{"no sequences", noSeqs, ErrMissingSequence},
		{"input index", badIdx, ErrInputIndex},
		{"nested no sequences", badChild, ErrMissingSequence},
		{"address mismatch", wrongNet, ErrAddressMismatch},
	}

	for _, test := range tests {
		txs, err := test.tmpl.SpendingTxs(fundingTxid, 0)
		if checkError(t, test.name, err, test.code) {
			assert.Nil(t, txs, test.name)
		}
	}

	// The hash of a template with an out of range index is still defined.
	_, err := badIdx.Hash()
	assert.NoError(t, err)
}
