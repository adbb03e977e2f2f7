package derive

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"dinebook/go-client/internal/ledger"
)

// Role tags for derived record addresses. These are wire-visible seeds and
// must match the remote program exactly.
const (
	TagUserStats = "user-stats"
	TagDishStats = "dish-stats"
	TagReview    = "review"
)

// recordDomain separates record-address derivation from every other use of
// the hash, mirroring the remote scheme's domain suffix.
const recordDomain = "DerivedRecordAddress"

const maxSeedLength = 32

var (
	ErrEmptyTag     = errors.New("derivation tag is required")
	ErrSeedTooLong  = errors.New("derivation seed exceeds 32 bytes")
	ErrTooManySeeds = errors.New("too many derivation seeds")
)

// Record derives the address of a program record from a role tag and a
// fixed-order sequence of identity seeds. Pure and deterministic: identical
// inputs always produce the identical address.
func Record(program ledger.Address, tag string, seeds ...[]byte) (ledger.Address, error) {
	if tag == "" {
		return ledger.Address{}, ErrEmptyTag
	}
	if len(seeds) > 16 {
		return ledger.Address{}, ErrTooManySeeds
	}
	h := sha256.New()
	h.Write([]byte(tag))
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return ledger.Address{}, ErrSeedTooLong
		}
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write([]byte(recordDomain))
	return ledger.AddressFromBytes(h.Sum(nil))
}

// UserStatsAddress derives the visit-counter record for (user, restaurant).
func UserStatsAddress(program, user, restaurant ledger.Address) (ledger.Address, error) {
	return Record(program, TagUserStats, user[:], restaurant[:])
}

// DishStatsAddress derives the order-counter record for (user, dish).
func DishStatsAddress(program, user, dish ledger.Address) (ledger.Address, error) {
	return Record(program, TagDishStats, user[:], dish[:])
}

// ReviewAddress derives the write-once review record for (user, restaurant).
func ReviewAddress(program, user, restaurant ledger.Address) (ledger.Address, error) {
	return Record(program, TagReview, user[:], restaurant[:])
}

// RestaurantIdentity maps a small catalog id to a stable identity: the ASCII
// text "restaurant-<id>" zero-padded to address length. Not a secure scheme,
// and kept only for compatibility with existing on-ledger records.
func RestaurantIdentity(id int) (ledger.Address, error) {
	if id < 0 {
		return ledger.Address{}, fmt.Errorf("restaurant id must be non-negative: %d", id)
	}
	label := fmt.Sprintf("restaurant-%d", id)
	if len(label) > ledger.AddressLength {
		return ledger.Address{}, fmt.Errorf("restaurant id too large: %d", id)
	}
	var a ledger.Address
	copy(a[:], label)
	return a, nil
}
