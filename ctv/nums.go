package ctv

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Hash2Curve hashes data with SHA-256, rehashing the digest until it is the
// x coordinate of a point on secp256k1, and returns that point. The result
// has no known discrete log, so it can be used as a NUMS taproot internal key
// that disables the key path.
func Hash2Curve(data []byte) *btcec.PublicKey {
	hashed := chainhash.HashB(data)
	for {
		if key, err := schnorr.ParsePubKey(hashed); err == nil {
			return key
		}
		hashed = chainhash.HashB(hashed)
	}
}

// NUMSTaproot returns a Taproot tx type whose internal key is Hash2Curve(data).
func NUMSTaproot(data []byte) Taproot {
	return NewTaproot(Hash2Curve(data))
}
