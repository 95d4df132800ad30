package chain

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
)

// RPCClient is a btcd RPC client used to broadcast spend chains.
type RPCClient struct {
	*rpcclient.Client
	connConfig        *rpcclient.ConnConfig
	chainParams       *chaincfg.Params
	reconnectAttempts int
}

// NewRPCClient creates a client connection to the server described by the
// connect string. If disableTLS is false, the remote RPC certificate must be
// provided in the certs slice. If httpPost is true the client talks plain
// HTTP POST, which also works against bitcoind, instead of websockets.
func NewRPCClient(chainParams *chaincfg.Params, connect, user, pass string,
	certs []byte, disableTLS, httpPost bool,
	reconnectAttempts int) (*RPCClient, error) {

	if reconnectAttempts <= 0 {
		return nil, errors.New("reconnectAttempts must be positive")
	}

	client := &RPCClient{
		connConfig: &rpcclient.ConnConfig{
			Host:                 connect,
			Endpoint:             "ws",
			User:                 user,
			Pass:                 pass,
			Certificates:         certs,
			DisableAutoReconnect: false,
			DisableConnectOnNew:  true,
			DisableTLS:           disableTLS,
			HTTPPostMode:         httpPost,
		},
		chainParams:       chainParams,
		reconnectAttempts: reconnectAttempts,
	}

	var ntfnCallbacks *rpcclient.NotificationHandlers
	if !httpPost {
		ntfnCallbacks = &rpcclient.NotificationHandlers{
			OnClientConnected: func() {
				log.Infof("Established connection to RPC server %s",
					connect)
			},
		}
	}

	rpcClient, err := rpcclient.New(client.connConfig, ntfnCallbacks)
	if err != nil {
		return nil, err
	}
	client.Client = rpcClient
	return client, nil
}

// Start connects the websocket client and checks that the server runs on the
// expected network. It is a no-op in HTTP POST mode.
func (c *RPCClient) Start() error {
	if c.connConfig.HTTPPostMode {
		return nil
	}

	if err := c.Client.Connect(c.reconnectAttempts); err != nil {
		return err
	}

	net, err := c.GetCurrentNet()
	if err != nil {
		c.Disconnect()
		return err
	}
	if net != c.chainParams.Net {
		c.Disconnect()
		return fmt.Errorf("mismatched networks: server is on %v, "+
			"expected %v", net, c.chainParams.Net)
	}

	return nil
}

// Stop disconnects the client and waits for it to shut down.
func (c *RPCClient) Stop() {
	c.Client.Shutdown()
	c.Client.WaitForShutdown()
}

// SendTx broadcasts tx and returns its txid.
func (c *RPCClient) SendTx(tx *wire.MsgTx) (*chainhash.Hash, error) {
	return c.Client.SendRawTransaction(tx, false)
}
