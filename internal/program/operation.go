// Package program composes ordered operation lists for the remote
// restaurant-booking program and encodes their instruction payloads.
package program

import (
	"crypto/sha256"
	"encoding/binary"

	"dinebook/go-client/internal/ledger"
	"dinebook/go-client/internal/records"
)

// AccountMeta references one account an operation touches.
type AccountMeta struct {
	Address  ledger.Address
	Signer   bool
	Writable bool
}

// Operation is a single instruction bound for the remote ledger: the program
// to invoke, the accounts it touches in program-defined order, and the
// encoded argument payload.
type Operation struct {
	Program  ledger.Address
	Accounts []AccountMeta
	Data     []byte
}

// DishAccount pairs a dish stats record address with the dish identity it
// tracks. The book operation consumes these as adjacent account pairs, so
// the pairing must never be flattened independently.
type DishAccount struct {
	Record ledger.Address
	Dish   ledger.Address
}

// nativeTransferIndex selects the transfer instruction of the native
// program (the all-zero program address).
const nativeTransferIndex uint32 = 2

// methodMarker computes the 8-byte instruction marker for a program method.
func methodMarker(method string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + method))
	var m [8]byte
	copy(m[:], sum[:8])
	return m
}

var (
	initUserStatsMarker = methodMarker("initialize_user_stats")
	initDishStatsMarker = methodMarker("initialize_dish_stats")
	bookTableMarker     = methodMarker("book_table")
	submitReviewMarker  = methodMarker("submit_review")
)

func appendU32(b []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(b, buf[:]...)
}

func appendU64(b []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(b, buf[:]...)
}

func appendString(b []byte, s string) []byte {
	b = appendU32(b, uint32(len(s)))
	return append(b, s...)
}

// Transfer moves lamports from payer to destination via the native program.
func Transfer(payer, destination ledger.Address, lamports uint64) Operation {
	data := appendU32(nil, nativeTransferIndex)
	data = appendU64(data, lamports)
	return Operation{
		Program: ledger.ZeroAddress,
		Accounts: []AccountMeta{
			{Address: payer, Signer: true, Writable: true},
			{Address: destination, Writable: true},
		},
		Data: data,
	}
}

// InitializeUserStats creates the visit-counter record for (user, restaurant).
func InitializeUserStats(programID, record, restaurant, user ledger.Address) Operation {
	return Operation{
		Program: programID,
		Accounts: []AccountMeta{
			{Address: record, Writable: true},
			{Address: restaurant},
			{Address: user, Signer: true, Writable: true},
			{Address: ledger.ZeroAddress},
		},
		Data: append([]byte(nil), initUserStatsMarker[:]...),
	}
}

// InitializeDishStats creates the order-counter record for (user, dish).
// Names beyond the record's fixed buffer are truncated, matching the remote
// program's clamp.
func InitializeDishStats(programID, record, dish, user ledger.Address, name string) Operation {
	if len(name) > records.MaxDishNameLength {
		name = name[:records.MaxDishNameLength]
	}
	data := append([]byte(nil), initDishStatsMarker[:]...)
	data = appendString(data, name)
	return Operation{
		Program: programID,
		Accounts: []AccountMeta{
			{Address: record, Writable: true},
			{Address: dish},
			{Address: user, Signer: true, Writable: true},
			{Address: ledger.ZeroAddress},
		},
		Data: data,
	}
}

// BookTable increments the visit counter and each supplied dish counter.
// Dish records and identities ride along as adjacent auxiliary account
// pairs in the order the dishes were supplied.
func BookTable(programID, userStats, restaurant, user ledger.Address, dishes []DishAccount) Operation {
	data := append([]byte(nil), bookTableMarker[:]...)
	data = appendU32(data, uint32(len(dishes)))
	for _, d := range dishes {
		data = append(data, d.Dish[:]...)
	}
	accounts := []AccountMeta{
		{Address: userStats, Writable: true},
		{Address: restaurant},
		{Address: user, Signer: true, Writable: true},
	}
	for _, d := range dishes {
		accounts = append(accounts,
			AccountMeta{Address: d.Record, Writable: true},
			AccountMeta{Address: d.Dish},
		)
	}
	return Operation{Program: programID, Accounts: accounts, Data: data}
}

// SubmitReview writes the one-shot review record for (user, restaurant).
// Text beyond the record's fixed buffer is truncated, matching the remote
// program's clamp.
func SubmitReview(programID, review, restaurant, user ledger.Address, rating uint8, text string, confidenceLevel uint8) Operation {
	if len(text) > records.MaxReviewTextLength {
		text = text[:records.MaxReviewTextLength]
	}
	data := append([]byte(nil), submitReviewMarker[:]...)
	data = append(data, rating)
	data = appendString(data, text)
	data = append(data, confidenceLevel)
	return Operation{
		Program: programID,
		Accounts: []AccountMeta{
			{Address: review, Writable: true},
			{Address: restaurant},
			{Address: user, Signer: true, Writable: true},
			{Address: ledger.ZeroAddress},
		},
		Data: data,
	}
}
