package ctv

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/czh0526/btc-ctv/netparams"
	"github.com/mitchellh/mapstructure"
)

// Template files use the layout below. Outputs are untagged and told apart by
// their keys.
//
//	{
//	  "network": "testnet",
//	  "tx_type": "Segwit" | {"Taproot": {"internal_key": "<32 byte hex>"}},
//	  "fields": {
//	    "version": 2,
//	    "locktime": 0,
//	    "sequences": [4294967295],
//	    "outputs": [
//	      {"address": "tb1q...", "amount": 1000},
//	      {"data": "hello"},
//	      {"tree": { ...template... }, "amount": 900}
//	    ],
//	    "input_idx": 0
//	  }
//	}

const (
	txTypeSegwit  = "Segwit"
	txTypeTaproot = "Taproot"
)

type rawTemplate struct {
	Network string      `mapstructure:"network"`
	TxType  interface{} `mapstructure:"tx_type"`
	Fields  rawFields   `mapstructure:"fields"`
}

// rawFields decodes integers at full width. mapstructure narrows json.Number
// without a range check, so the bounds are enforced in fieldsFromRaw.
type rawFields struct {
	Version   int64                    `mapstructure:"version"`
	LockTime  uint64                   `mapstructure:"locktime"`
	Sequences []uint64                 `mapstructure:"sequences"`
	Outputs   []map[string]interface{} `mapstructure:"outputs"`
	InputIdx  uint64                   `mapstructure:"input_idx"`
}

type rawAddressOutput struct {
	Address string `mapstructure:"address"`
	Amount  int64  `mapstructure:"amount"`
}

type rawDataOutput struct {
	Data string `mapstructure:"data"`
}

type rawTreeOutput struct {
	Tree   map[string]interface{} `mapstructure:"tree"`
	Amount int64                  `mapstructure:"amount"`
}

type rawTaproot struct {
	InternalKey string `mapstructure:"internal_key"`
}

// DecodeTemplate reads a JSON template description from r.
func DecodeTemplate(r io.Reader) (*Template, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return nil, ctvError(ErrInvalidTemplate,
			"unable to parse template json", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ctvError(ErrInvalidTemplate,
			"unexpected data after template json", err)
	}

	return templateFromMap(m)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Template) UnmarshalJSON(b []byte) error {
	tmpl, err := DecodeTemplate(bytes.NewReader(b))
	if err != nil {
		return err
	}
	*t = *tmpl
	return nil
}

func decodeMap(m map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(m)
}

func templateFromMap(m map[string]interface{}) (*Template, error) {
	var raw rawTemplate
	if err := decodeMap(m, &raw); err != nil {
		return nil, ctvError(ErrInvalidTemplate,
			"malformed template", err)
	}

	net, ok := netparams.ByName(raw.Network)
	if !ok {
		str := fmt.Sprintf("unknown network %q", raw.Network)
		return nil, ctvError(ErrUnknownNetwork, str, nil)
	}

	txType, err := txTypeFromRaw(raw.TxType)
	if err != nil {
		return nil, err
	}

	outputs := make([]Output, 0, len(raw.Fields.Outputs))
	for i, rawOut := range raw.Fields.Outputs {
		out, err := outputFromMap(rawOut)
		if err != nil {
			str := fmt.Sprintf("output %d", i)
			return nil, ctvError(ErrInvalidTemplate, str, err)
		}
		outputs = append(outputs, out)
	}

	fields, err := fieldsFromRaw(&raw.Fields)
	if err != nil {
		return nil, err
	}
	fields.Outputs = outputs

	return &Template{
		Net:    net.Params,
		TxType: txType,
		Fields: fields,
	}, nil
}

func fieldsFromRaw(raw *rawFields) (Fields, error) {
	if raw.Version < math.MinInt32 || raw.Version > math.MaxInt32 {
		str := fmt.Sprintf("version %d out of range", raw.Version)
		return Fields{}, ctvError(ErrInvalidTemplate, str, nil)
	}

	lockTime, err := checkUint32("locktime", raw.LockTime)
	if err != nil {
		return Fields{}, err
	}
	inputIdx, err := checkUint32("input_idx", raw.InputIdx)
	if err != nil {
		return Fields{}, err
	}

	var sequences []uint32
	if raw.Sequences != nil {
		sequences = make([]uint32, 0, len(raw.Sequences))
	}
	for i, seq := range raw.Sequences {
		v, err := checkUint32(fmt.Sprintf("sequence %d", i), seq)
		if err != nil {
			return Fields{}, err
		}
		sequences = append(sequences, v)
	}

	return Fields{
		Version:   int32(raw.Version),
		LockTime:  lockTime,
		Sequences: sequences,
		InputIdx:  inputIdx,
	}, nil
}

func checkUint32(name string, v uint64) (uint32, error) {
	if v > math.MaxUint32 {
		str := fmt.Sprintf("%s %d out of range", name, v)
		return 0, ctvError(ErrInvalidTemplate, str, nil)
	}
	return uint32(v), nil
}

func txTypeFromRaw(v interface{}) (TxType, error) {
	switch raw := v.(type) {
	case nil:
		return SegwitV0{}, nil

	case string:
		if raw == txTypeSegwit {
			return SegwitV0{}, nil
		}

	case map[string]interface{}:
		inner, ok := raw[txTypeTaproot].(map[string]interface{})
		if !ok || len(raw) != 1 {
			break
		}

		var tr rawTaproot
		if err := decodeMap(inner, &tr); err != nil {
			return nil, ctvError(ErrInvalidTemplate,
				"malformed taproot tx type", err)
		}

		key, err := hex.DecodeString(tr.InternalKey)
		if err != nil || len(key) != 32 {
			str := fmt.Sprintf("internal key %q is not 32 hex "+
				"encoded bytes", tr.InternalKey)
			return nil, ctvError(ErrInvalidTemplate, str, err)
		}

		var taproot Taproot
		copy(taproot.InternalKey[:], key)
		return taproot, nil
	}

	str := fmt.Sprintf("unknown tx type %v", v)
	return nil, ctvError(ErrInvalidTemplate, str, nil)
}

func checkAmount(amount int64) (btcutil.Amount, error) {
	if amount < 0 || amount > btcutil.MaxSatoshi {
		return 0, fmt.Errorf("amount %d out of range", amount)
	}
	return btcutil.Amount(amount), nil
}

func outputFromMap(m map[string]interface{}) (Output, error) {
	switch {
	case m["tree"] != nil:
		var raw rawTreeOutput
		if err := decodeMap(m, &raw); err != nil {
			return nil, err
		}
		amount, err := checkAmount(raw.Amount)
		if err != nil {
			return nil, err
		}
		tree, err := templateFromMap(raw.Tree)
		if err != nil {
			return nil, err
		}
		return NewTreeOutput(tree, amount), nil

	case m["address"] != nil:
		var raw rawAddressOutput
		if err := decodeMap(m, &raw); err != nil {
			return nil, err
		}
		amount, err := checkAmount(raw.Amount)
		if err != nil {
			return nil, err
		}
		return NewAddressOutput(raw.Address, amount), nil

	case m["data"] != nil:
		var raw rawDataOutput
		if err := decodeMap(m, &raw); err != nil {
			return nil, err
		}
		return NewDataOutput([]byte(raw.Data)), nil

	default:
		return nil, fmt.Errorf("output has none of the keys " +
			"address, data or tree")
	}
}

type jsonTemplate struct {
	Network string      `json:"network"`
	TxType  interface{} `json:"tx_type"`
	Fields  jsonFields  `json:"fields"`
}

type jsonFields struct {
	Version   int32         `json:"version"`
	LockTime  uint32        `json:"locktime"`
	Sequences []uint32      `json:"sequences"`
	Outputs   []interface{} `json:"outputs"`
	InputIdx  uint32        `json:"input_idx"`
}

type jsonAddressOutput struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

type jsonDataOutput struct {
	Data string `json:"data"`
}

type jsonTreeOutput struct {
	Tree   *Template `json:"tree"`
	Amount int64     `json:"amount"`
}

type jsonTaproot struct {
	InternalKey string `json:"internal_key"`
}

// MarshalJSON implements json.Marshaler using the template file layout.
func (t *Template) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}

	net, ok := netparams.ForChain(t.Net)
	if !ok {
		return nil, ctvError(ErrUnknownNetwork,
			"template network is not registered", nil)
	}

	var txType interface{}
	switch tt := t.txType().(type) {
	case SegwitV0:
		txType = txTypeSegwit
	case Taproot:
		txType = map[string]jsonTaproot{
			txTypeTaproot: {InternalKey: hex.EncodeToString(tt.InternalKey[:])},
		}
	}

	sequences := t.Fields.Sequences
	if sequences == nil {
		sequences = []uint32{}
	}

	outputs := make([]interface{}, 0, len(t.Fields.Outputs))
	for _, out := range t.Fields.Outputs {
		switch o := out.(type) {
		case *AddressOutput:
			outputs = append(outputs, jsonAddressOutput{
				Address: o.Address, Amount: int64(o.Value),
			})
		case *DataOutput:
			if !utf8.Valid(o.Data) {
				return nil, ctvError(ErrInvalidTemplate,
					"data output is not valid utf-8", nil)
			}
			outputs = append(outputs, jsonDataOutput{
				Data: string(o.Data),
			})
		case *TreeOutput:
			outputs = append(outputs, jsonTreeOutput{
				Tree: o.Tree, Amount: int64(o.Value),
			})
		default:
			str := fmt.Sprintf("unsupported output type %T", out)
			return nil, ctvError(ErrInvalidTemplate, str, nil)
		}
	}

	return json.Marshal(jsonTemplate{
		Network: net.TemplateName,
		TxType:  txType,
		Fields: jsonFields{
			Version:   t.Fields.Version,
			LockTime:  t.Fields.LockTime,
			Sequences: sequences,
			Outputs:   outputs,
			InputIdx:  t.Fields.InputIdx,
		},
	})
}
