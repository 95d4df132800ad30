package netparams

import (
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// Params couples the chain parameters of a network with the name it carries
// in template files and the default port of its btcd RPC server.
type Params struct {
	*chaincfg.Params
	TemplateName  string
	RPCClientPort string
}

var MainNetParams = Params{
	Params:        &chaincfg.MainNetParams,
	TemplateName:  "bitcoin",
	RPCClientPort: "8334",
}

var TestNetParams = Params{
	Params:        &chaincfg.TestNet3Params,
	TemplateName:  "testnet",
	RPCClientPort: "18334",
}

var SigNetParams = Params{
	Params:        &chaincfg.SigNetParams,
	TemplateName:  "signet",
	RPCClientPort: "38332",
}

var RegressionNetParams = Params{
	Params:        &chaincfg.RegressionNetParams,
	TemplateName:  "regtest",
	RPCClientPort: "18334",
}

var SimNetParams = Params{
	Params:        &chaincfg.SimNetParams,
	TemplateName:  "simnet",
	RPCClientPort: "18556",
}

var all = []*Params{
	&MainNetParams,
	&TestNetParams,
	&SigNetParams,
	&RegressionNetParams,
	&SimNetParams,
}

// All returns every supported network.
func All() []*Params {
	return all
}

// ByName looks up a network by its template name or by its chaincfg name,
// case-insensitively.
func ByName(name string) (*Params, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range all {
		if name == p.TemplateName || name == p.Name {
			return p, true
		}
	}
	return nil, false
}

// ForChain returns the network wrapping chainParams, matched by name.
func ForChain(chainParams *chaincfg.Params) (*Params, bool) {
	if chainParams == nil {
		return nil, false
	}
	for _, p := range all {
		if p.Name == chainParams.Name {
			return p, true
		}
	}
	return nil, false
}
