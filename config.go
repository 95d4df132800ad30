package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/czh0526/btc-ctv/internal/cfgutil"
	"github.com/czh0526/btc-ctv/netparams"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultLogLevel          = "info"
	defaultHashCacheSize     = 1000
	defaultReconnectAttempts = 5
)

var (
	btcdDefaultCAFile = filepath.Join(btcutil.AppDataDir("btcd", false), "rpc.cert")
)

type config struct {
	ShowVersion  bool   `short:"V" long:"version" description:"Display version information and exit"`
	TemplateFile string `short:"t" long:"template" description:"Path to the JSON template to commit to"`
	TestNet3     bool   `long:"testnet" description:"Use the test Bitcoin network (version 3)"`
	SimNet       bool   `long:"simnet" description:"Use the simulation test network"`
	SigNet       bool   `long:"signet" description:"Use the signet test network"`
	RegTest      bool   `long:"regtest" description:"Use the regression test network"`
	Network      string `long:"network" description:"Override the network recorded in the template {bitcoin, testnet, signet, regtest, simnet}"`
	DebugLevel   string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	HashCache    uint64 `long:"hashcache" description:"Number of template hashes to memoize while deriving scripts and spends -- 0 disables the cache"`

	// Spend options
	PrevTxid string `long:"prevtxid" description:"Txid of the transaction funding the template address; prints the spend chain"`
	PrevVout uint32 `long:"prevvout" description:"Output index of the funding outpoint"`

	// RPC client options
	Broadcast        bool   `long:"broadcast" description:"Broadcast the spend chain through the btcd RPC server"`
	RPCConnect       string `short:"c" long:"rpcconnect" description:"Hostname/IP and port of btcd RPC server to connect to (default localhost:8334, testnet: localhost:18334, simnet: localhost:18556)"`
	RPCUser          string `short:"u" long:"rpcuser" description:"Username for btcd authentication"`
	RPCPass          string `short:"P" long:"rpcpass" default-mask:"-" description:"Password for btcd authentication"`
	CAFile           string `long:"cafile" description:"File containing root certificates to authenticate a TLS connections with btcd"`
	DisableClientTLS bool   `long:"noclienttls" description:"Disable TLS for the RPC client -- NOTE: This is only allowed if the RPC client is connecting to localhost"`
	HTTPPostMode     bool   `long:"rpcpost" description:"Use HTTP POST instead of websockets, e.g. to talk to bitcoind"`

	net      *netparams.Params
	prevTxid *chainhash.Hash
}

// loadConfig parses the command line in args. The template network is left
// untouched unless a network flag is given, in which case cfg.net is set.
func loadConfig(args []string) (*config, []string, error) {
	cfg := config{
		DebugLevel: defaultLogLevel,
		HashCache:  defaultHashCacheSize,
	}

	parser := flags.NewParser(&cfg, flags.Default)
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	if cfg.ShowVersion {
		return &cfg, remainingArgs, nil
	}

	if err := setLogLevels(cfg.DebugLevel); err != nil {
		return nil, nil, err
	}

	// Multiple networks can't be selected simultaneously.
	numNets := 0
	if cfg.TestNet3 {
		cfg.net = &netparams.TestNetParams
		numNets++
	}
	if cfg.SimNet {
		cfg.net = &netparams.SimNetParams
		numNets++
	}
	if cfg.SigNet {
		cfg.net = &netparams.SigNetParams
		numNets++
	}
	if cfg.RegTest {
		cfg.net = &netparams.RegressionNetParams
		numNets++
	}
	if cfg.Network != "" {
		p, ok := netparams.ByName(cfg.Network)
		if !ok {
			return nil, nil, fmt.Errorf("unknown network %q", cfg.Network)
		}
		if cfg.net != p {
			numNets++
		}
		cfg.net = p
	}
	if numNets > 1 {
		return nil, nil, fmt.Errorf("the testnet, signet, regtest, " +
			"simnet and network params can't be used together -- " +
			"choose one")
	}

	if cfg.TemplateFile == "" {
		return nil, nil, fmt.Errorf("no template file given, use --template")
	}
	cfg.TemplateFile = cleanAndExpandPath(cfg.TemplateFile)
	exists, err := cfgutil.FileExists(cfg.TemplateFile)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, fmt.Errorf("the template file `%v` does not "+
			"exist", cfg.TemplateFile)
	}

	if cfg.PrevTxid != "" {
		cfg.prevTxid, err = chainhash.NewHashFromStr(cfg.PrevTxid)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid prevtxid: %v", err)
		}
	}
	if cfg.Broadcast && cfg.prevTxid == nil {
		return nil, nil, fmt.Errorf("--broadcast requires --prevtxid")
	}

	if cfg.CAFile == "" && !cfg.DisableClientTLS {
		cfg.CAFile = btcdDefaultCAFile
	}
	if cfg.CAFile != "" {
		cfg.CAFile = cleanAndExpandPath(cfg.CAFile)
	}

	return &cfg, remainingArgs, nil
}

// rpcAddress returns the RPC server address for params, filling in the
// network's default port.
func (c *config) rpcAddress(params *netparams.Params) (string, error) {
	addr := c.RPCConnect
	if addr == "" {
		addr = "localhost"
	}
	return cfgutil.NormalizeAddress(addr, params.RPCClientPort)
}

// cleanAndExpandPath expands a leading ~ and environment variables and
// cleans the result.
func cleanAndExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			path = strings.Replace(path, "~", homeDir, 1)
		}
	}

	return filepath.Clean(os.ExpandEnv(path))
}
