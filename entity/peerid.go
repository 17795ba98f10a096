package entity

import (
	cryptorand "crypto/rand"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

// newPeerID mints a fresh libp2p peer identity and returns its string form,
// used as a member's entity id. Grounded on P2PHost's PeerID field
// (ollama-distributed/pkg/p2p/host/host.go): member identity is a libp2p
// peer.ID derived from a keypair, not an arbitrary random string.
func newPeerID() (string, error) {
	_, pub, err := crypto.GenerateEd25519Key(cryptorand.Reader)
	if err != nil {
		return "", err
	}
	id, err := peer.IDFromPublicKey(pub)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
