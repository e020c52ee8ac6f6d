package clique

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
)

// encMode produces the canonical encoding used for hashing and for measuring state size.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

type protocolMarshal struct {
	Self     common.Address
	Endpoint string
	Genesis  *Genesis
	Chain    []*Block
	Pending  []*Transaction
}

// MarshalBinary returns the canonical encoding of the whole protocol state:
// identity, genesis, sealed chain and pending transaction pool.
func (p *Protocol) MarshalBinary() ([]byte, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return encMode.Marshal(&protocolMarshal{
		Self:     p.self.Address(),
		Endpoint: p.self.Endpoint,
		Genesis:  p.genesis,
		Chain:    p.chain,
		Pending:  p.pending,
	})
}
