package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/czh0526/btc-ctv/chain"
	"github.com/czh0526/btc-ctv/ctv"
	"github.com/czh0526/btc-ctv/netparams"
	flags "github.com/jessevdk/go-flags"
)

const appVersion = "0.1.0"

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	if err := ctvMain(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ctvMain loads the template named on the command line, writes its commitment
// to w and, when a funding outpoint is given, its spend chain.
func ctvMain(args []string, w io.Writer) error {
	cfg, _, err := loadConfig(args)
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	if cfg.ShowVersion {
		fmt.Fprintf(w, "btc-ctv version %s\n", appVersion)
		return nil
	}

	tmpl, err := readTemplate(cfg.TemplateFile)
	if err != nil {
		return err
	}
	if cfg.net != nil {
		setNetwork(tmpl, cfg.net.Params)
	}

	activeNet, ok := netparams.ForChain(tmpl.Net)
	if !ok {
		return fmt.Errorf("template network is not supported")
	}
	log.Debugf("Loaded template %v on %s (depth %d, %v)",
		cfg.TemplateFile, activeNet.TemplateName, tmpl.Depth(),
		tmpl.Amount())

	var hasher *ctv.Hasher
	if cfg.HashCache > 0 {
		hasher = ctv.NewHasher(cfg.HashCache)
	}

	if err := writeCommitment(w, hasher, tmpl); err != nil {
		return err
	}

	if cfg.prevTxid == nil {
		return nil
	}

	txs, err := hasher.SpendingTxs(tmpl, *cfg.prevTxid, cfg.PrevVout)
	if err != nil {
		return err
	}
	if err := writeSpendChain(w, txs); err != nil {
		return err
	}

	if !cfg.Broadcast {
		return nil
	}

	ctx, stop := interruptContext(context.Background())
	defer stop()

	return broadcast(ctx, cfg, activeNet, txs)
}

func readTemplate(path string) (*ctv.Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tmpl, err := ctv.DecodeTemplate(f)
	if err != nil {
		return nil, fmt.Errorf("unable to load template %v: %w", path,
			err)
	}
	return tmpl, nil
}

// setNetwork replaces the network of t and every template nested in it.
func setNetwork(t *ctv.Template, net *chaincfg.Params) {
	t.Net = net
	for _, out := range t.Fields.Outputs {
		if tree, ok := out.(*ctv.TreeOutput); ok && tree.Tree != nil {
			setNetwork(tree.Tree, net)
		}
	}
}

func writeCommitment(w io.Writer, hasher *ctv.Hasher, t *ctv.Template) error {
	hash, err := hasher.Hash(t)
	if err != nil {
		return err
	}
	script, err := hasher.LockingScript(t)
	if err != nil {
		return err
	}
	addr, err := hasher.Address(t)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "hash: %s\n", hex.EncodeToString(hash[:]))
	fmt.Fprintf(w, "script: %x\n", script)
	fmt.Fprintf(w, "address: %s\n", addr.EncodeAddress())
	fmt.Fprintf(w, "amount: %d\n", int64(t.Amount()))
	return nil
}

func writeSpendChain(w io.Writer, txs []*wire.MsgTx) error {
	for i, tx := range txs {
		var buf bytes.Buffer
		if err := tx.Serialize(&buf); err != nil {
			return err
		}
		fmt.Fprintf(w, "tx %d %v: %x\n", i, tx.TxHash(), buf.Bytes())
	}
	return nil
}

func broadcast(ctx context.Context, cfg *config, activeNet *netparams.Params,
	txs []*wire.MsgTx) error {

	rpcConnect, err := cfg.rpcAddress(activeNet)
	if err != nil {
		return err
	}

	var certs []byte
	if !cfg.DisableClientTLS {
		certs, err = os.ReadFile(cfg.CAFile)
		if err != nil {
			return fmt.Errorf("unable to read RPC certificate %v: %w",
				cfg.CAFile, err)
		}
	}

	log.Infof("Attempting RPC client connection to %v", rpcConnect)
	rpcc, err := chain.NewRPCClient(activeNet.Params, rpcConnect,
		cfg.RPCUser, cfg.RPCPass, certs, cfg.DisableClientTLS,
		cfg.HTTPPostMode, defaultReconnectAttempts)
	if err != nil {
		return err
	}
	if err := rpcc.Start(); err != nil {
		return fmt.Errorf("unable to open connection to consensus RPC "+
			"server: %w", err)
	}
	defer rpcc.Stop()

	n, err := chain.BroadcastChain(ctx, rpcc, txs)
	log.Infof("Broadcast %d of %d transactions", n, len(txs))
	return err
}
