package ctv

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/czh0526/btc-ctv/netparams"
)

// Output is an output committed to by a template. It is implemented by
// AddressOutput, DataOutput and TreeOutput only.
type Output interface {
	// Amount returns the amount the output commits to.
	Amount() btcutil.Amount

	// TxOut renders the output as a transaction output. The network is
	// only used to validate address outputs.
	TxOut(net *chaincfg.Params) (*wire.TxOut, error)

	txOut(net *chaincfg.Params, h *Hasher) (*wire.TxOut, error)
}

// AddressOutput pays a fixed amount to an address. The address is not checked
// against any network until the output is rendered.
type AddressOutput struct {
	Address string
	Value   btcutil.Amount
}

// DataOutput commits to an OP_RETURN output carrying Data.
type DataOutput struct {
	Data []byte
}

// TreeOutput commits Value to a nested template. Use it to build congestion
// control trees or other covenant trees.
type TreeOutput struct {
	Tree  *Template
	Value btcutil.Amount
}

var (
	_ Output = (*AddressOutput)(nil)
	_ Output = (*DataOutput)(nil)
	_ Output = (*TreeOutput)(nil)
)

// NewAddressOutput returns an output paying amount to addr.
func NewAddressOutput(addr string, amount btcutil.Amount) *AddressOutput {
	return &AddressOutput{Address: addr, Value: amount}
}

// NewDataOutput returns an OP_RETURN output carrying data.
func NewDataOutput(data []byte) *DataOutput {
	return &DataOutput{Data: data}
}

// NewTreeOutput returns an output paying amount to the locking condition of
// tree.
func NewTreeOutput(tree *Template, amount btcutil.Amount) *TreeOutput {
	return &TreeOutput{Tree: tree, Value: amount}
}

func (o *AddressOutput) Amount() btcutil.Amount {
	return o.Value
}

func (o *AddressOutput) TxOut(net *chaincfg.Params) (*wire.TxOut, error) {
	return o.txOut(net, nil)
}

func (o *AddressOutput) txOut(net *chaincfg.Params, _ *Hasher) (*wire.TxOut, error) {
	addr, err := decodeAddress(o.Address, net)
	if err != nil {
		return nil, err
	}

	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		str := fmt.Sprintf("unable to build script for address %s",
			o.Address)
		return nil, ctvError(ErrInvalidAddress, str, err)
	}

	return wire.NewTxOut(int64(o.Value), pkScript), nil
}

// decodeAddress decodes addr for net. An address that only decodes for
// another known network is reported as a mismatch rather than as malformed.
func decodeAddress(addr string, net *chaincfg.Params) (btcutil.Address, error) {
	if net == nil {
		str := fmt.Sprintf("no network to check address %s against", addr)
		return nil, ctvError(ErrUnknownNetwork, str, nil)
	}

	decoded, err := btcutil.DecodeAddress(addr, net)
	if err == nil && decoded.IsForNet(net) {
		return decoded, nil
	}

	for _, other := range netparams.All() {
		if other.Params.Name == net.Name {
			continue
		}
		alt, altErr := btcutil.DecodeAddress(addr, other.Params)
		if altErr == nil && alt.IsForNet(other.Params) {
			str := fmt.Sprintf("address %s is for network %s, not %s",
				addr, other.Params.Name, net.Name)
			return nil, ctvError(ErrAddressMismatch, str, nil)
		}
	}

	if err == nil {
		str := fmt.Sprintf("address %s is not for network %s",
			addr, net.Name)
		return nil, ctvError(ErrAddressMismatch, str, nil)
	}

	str := fmt.Sprintf("unable to decode address %s", addr)
	return nil, ctvError(ErrInvalidAddress, str, err)
}

// Amount is always zero for data outputs.
func (o *DataOutput) Amount() btcutil.Amount {
	return 0
}

func (o *DataOutput) TxOut(net *chaincfg.Params) (*wire.TxOut, error) {
	return o.txOut(net, nil)
}

func (o *DataOutput) txOut(_ *chaincfg.Params, _ *Hasher) (*wire.TxOut, error) {
	if len(o.Data) > txscript.MaxScriptElementSize {
		str := fmt.Sprintf("data payload of %d bytes exceeds the "+
			"maximum push of %d bytes", len(o.Data),
			txscript.MaxScriptElementSize)
		return nil, ctvError(ErrOversizedPush, str, nil)
	}

	// Single bytes are pushed as data, never as small integer opcodes, so
	// an empty payload and a zero byte commit to different scripts.
	if len(o.Data) == 1 {
		pkScript := []byte{txscript.OP_RETURN, txscript.OP_DATA_1, o.Data[0]}
		return wire.NewTxOut(0, pkScript), nil
	}

	pkScript, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(o.Data).
		Script()
	if err != nil {
		return nil, ctvError(ErrOversizedPush,
			"unable to build data output script", err)
	}

	return wire.NewTxOut(0, pkScript), nil
}

func (o *TreeOutput) Amount() btcutil.Amount {
	return o.Value
}

// TxOut renders the output paying to the nested template. The nested
// template renders its own address, so net is unused.
func (o *TreeOutput) TxOut(net *chaincfg.Params) (*wire.TxOut, error) {
	return o.txOut(net, nil)
}

func (o *TreeOutput) txOut(_ *chaincfg.Params, h *Hasher) (*wire.TxOut, error) {
	if o.Tree == nil {
		return nil, ctvError(ErrInvalidTemplate,
			"tree output has no nested template", nil)
	}

	pkScript, err := o.Tree.pkScript(h)
	if err != nil {
		return nil, err
	}

	return wire.NewTxOut(int64(o.Value), pkScript), nil
}
