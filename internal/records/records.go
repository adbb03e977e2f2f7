// Package records defines the on-wire layouts of the three program record
// types and explicit decoders for them. Every record starts with an 8-byte
// type marker followed by the 32-byte owner identity, so owner-filtered
// scans use byte offset 8 regardless of record type.
package records

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"dinebook/go-client/internal/ledger"
)

const (
	// OwnerFieldOffset is where the owner identity begins in every record.
	OwnerFieldOffset = 8

	MaxDishNameLength   = 50
	MaxReviewTextLength = 200

	UserStatsSize = 8 + 32 + 32 + 8
	DishStatsSize = 8 + 32 + 32 + 8 + 4 + MaxDishNameLength
	ReviewSize    = 8 + 32 + 32 + 1 + 4 + MaxReviewTextLength + 1
)

// Marker computes the 8-byte record type marker for a record type name.
func Marker(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var m [8]byte
	copy(m[:], sum[:8])
	return m
}

var (
	userStatsMarker = Marker("UserStats")
	dishStatsMarker = Marker("DishStats")
	reviewMarker    = Marker("Review")
)

// UserStats tracks a user's confirmed visits to one restaurant.
type UserStats struct {
	User       ledger.Address
	Restaurant ledger.Address
	VisitCount uint64
}

// DishStats tracks a user's orders of one dish identity.
type DishStats struct {
	User  ledger.Address
	Dish  ledger.Address
	Count uint64
	Name  string
}

// Review is the write-once review record for one (user, restaurant) pair.
type Review struct {
	User            ledger.Address
	Restaurant      ledger.Address
	Rating          uint8
	Text            string
	ConfidenceLevel uint8
}

func checkMarker(data []byte, want [8]byte, name string) error {
	if len(data) < 8 {
		return fmt.Errorf("%s record too short: %d bytes", name, len(data))
	}
	var got [8]byte
	copy(got[:], data[:8])
	if got != want {
		return fmt.Errorf("%s record marker mismatch", name)
	}
	return nil
}

func readAddress(data []byte, offset int) ledger.Address {
	var a ledger.Address
	copy(a[:], data[offset:offset+32])
	return a
}

func DecodeUserStats(data []byte) (UserStats, error) {
	if len(data) != UserStatsSize {
		return UserStats{}, fmt.Errorf("user stats record has %d bytes, want %d", len(data), UserStatsSize)
	}
	if err := checkMarker(data, userStatsMarker, "user stats"); err != nil {
		return UserStats{}, err
	}
	return UserStats{
		User:       readAddress(data, 8),
		Restaurant: readAddress(data, 40),
		VisitCount: binary.LittleEndian.Uint64(data[72:80]),
	}, nil
}

func DecodeDishStats(data []byte) (DishStats, error) {
	if len(data) != DishStatsSize {
		return DishStats{}, fmt.Errorf("dish stats record has %d bytes, want %d", len(data), DishStatsSize)
	}
	if err := checkMarker(data, dishStatsMarker, "dish stats"); err != nil {
		return DishStats{}, err
	}
	nameLen := binary.LittleEndian.Uint32(data[80:84])
	if nameLen > MaxDishNameLength {
		return DishStats{}, fmt.Errorf("dish name length %d exceeds %d", nameLen, MaxDishNameLength)
	}
	return DishStats{
		User:  readAddress(data, 8),
		Dish:  readAddress(data, 40),
		Count: binary.LittleEndian.Uint64(data[72:80]),
		Name:  string(data[84 : 84+nameLen]),
	}, nil
}

func DecodeReview(data []byte) (Review, error) {
	if len(data) != ReviewSize {
		return Review{}, fmt.Errorf("review record has %d bytes, want %d", len(data), ReviewSize)
	}
	if err := checkMarker(data, reviewMarker, "review"); err != nil {
		return Review{}, err
	}
	textLen := binary.LittleEndian.Uint32(data[73:77])
	if textLen > MaxReviewTextLength {
		return Review{}, fmt.Errorf("review text length %d exceeds %d", textLen, MaxReviewTextLength)
	}
	return Review{
		User:            readAddress(data, 8),
		Restaurant:      readAddress(data, 40),
		Rating:          data[72],
		Text:            string(data[77 : 77+textLen]),
		ConfidenceLevel: data[77+MaxReviewTextLength],
	}, nil
}

// EncodeUserStats produces the wire form of a user stats record. The client
// never writes records itself; encoders exist for fixtures and fakes.
func EncodeUserStats(s UserStats) []byte {
	out := make([]byte, UserStatsSize)
	copy(out[:8], userStatsMarker[:])
	copy(out[8:40], s.User[:])
	copy(out[40:72], s.Restaurant[:])
	binary.LittleEndian.PutUint64(out[72:80], s.VisitCount)
	return out
}

func EncodeDishStats(s DishStats) ([]byte, error) {
	if len(s.Name) > MaxDishNameLength {
		return nil, fmt.Errorf("dish name %q exceeds %d bytes", s.Name, MaxDishNameLength)
	}
	out := make([]byte, DishStatsSize)
	copy(out[:8], dishStatsMarker[:])
	copy(out[8:40], s.User[:])
	copy(out[40:72], s.Dish[:])
	binary.LittleEndian.PutUint64(out[72:80], s.Count)
	binary.LittleEndian.PutUint32(out[80:84], uint32(len(s.Name)))
	copy(out[84:], s.Name)
	return out, nil
}

func EncodeReview(r Review) ([]byte, error) {
	if len(r.Text) > MaxReviewTextLength {
		return nil, fmt.Errorf("review text exceeds %d bytes", MaxReviewTextLength)
	}
	out := make([]byte, ReviewSize)
	copy(out[:8], reviewMarker[:])
	copy(out[8:40], r.User[:])
	copy(out[40:72], r.Restaurant[:])
	out[72] = r.Rating
	binary.LittleEndian.PutUint32(out[73:77], uint32(len(r.Text)))
	copy(out[77:77+MaxReviewTextLength], r.Text)
	out[77+MaxReviewTextLength] = r.ConfidenceLevel
	return out, nil
}
