package ledger

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58/base58"
)

// AddressLength is the fixed byte length of every remote account address.
const AddressLength = 32

// Address identifies a remote account. Derived addresses are computed from
// seeds, others come from keypairs; both share this fixed-length form.
type Address [AddressLength]byte

// ZeroAddress is the all-zero address. It doubles as the native transfer
// program identifier on the remote ledger.
var ZeroAddress Address

func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("invalid address length: %d", len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

func AddressFromBase58(s string) (Address, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid base58 address: %w", err)
	}
	return AddressFromBytes(raw)
}

func (a Address) Bytes() []byte {
	return append([]byte(nil), a[:]...)
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) IsZero() bool {
	return bytes.Equal(a[:], ZeroAddress[:])
}

// Blockhash is the network reference point a transaction is anchored to.
type Blockhash [32]byte

func BlockhashFromBase58(s string) (Blockhash, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Blockhash{}, fmt.Errorf("invalid base58 blockhash: %w", err)
	}
	if len(raw) != 32 {
		return Blockhash{}, fmt.Errorf("invalid blockhash length: %d", len(raw))
	}
	var h Blockhash
	copy(h[:], raw)
	return h, nil
}

func (h Blockhash) String() string {
	return base58.Encode(h[:])
}
