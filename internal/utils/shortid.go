package utils

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShortID is a 6-byte random identifier. It is stored in MongoDB as BinData
// with custom subtype 0x80 and rendered as a 10-character Crockford Base32
// string, which is what listing public IDs and URLs carry.
type ShortID [6]byte

// ShortIDHookFunc can override NewShortID generation. Tests set this to force
// duplicate-key collisions.
type ShortIDHookFunc func() (id ShortID, override bool)

var NewShortIDHook ShortIDHookFunc

// NewShortID returns a new random ShortID.
func NewShortID() ShortID {
	if NewShortIDHook != nil {
		if id, override := NewShortIDHook(); override {
			return id
		}
	}
	var id ShortID
	if _, err := rand.Read(id[:]); err != nil {
		// crypto/rand failing is unrecoverable for ID generation
		panic("shortid: crypto/rand unavailable: " + err.Error())
	}
	return id
}

const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockfordValues [256]int8

func init() {
	for i := range crockfordValues {
		crockfordValues[i] = -1
	}
	for i := 0; i < len(crockfordAlphabet); i++ {
		c := crockfordAlphabet[i]
		crockfordValues[c] = int8(i)
		if c >= 'A' && c <= 'Z' {
			crockfordValues[c+'a'-'A'] = int8(i)
		}
	}
	// Crockford aliases for easily confused characters
	crockfordValues['o'], crockfordValues['O'] = 0, 0
	crockfordValues['i'], crockfordValues['I'] = 1, 1
	crockfordValues['l'], crockfordValues['L'] = 1, 1
}

// String returns the Crockford Base32 form (10 characters for 48 bits).
func (id ShortID) String() string {
	var out [10]byte
	var acc uint64
	for _, b := range id {
		acc = acc<<8 | uint64(b)
	}
	for i := 9; i >= 0; i-- {
		out[i] = crockfordAlphabet[acc&0x1F]
		acc >>= 5
	}
	return string(out[:])
}

// ParseShortID decodes a 10-character Crockford Base32 string. Hyphens are
// tolerated, as is lowercase and the usual 0/O, 1/I/L confusions.
func ParseShortID(s string) (ShortID, error) {
	s = strings.ReplaceAll(s, "-", "")
	if len(s) != 10 {
		return ShortID{}, errors.New("short ID must be 10 characters")
	}
	var acc uint64
	for i := 0; i < 10; i++ {
		v := crockfordValues[s[i]]
		if v < 0 {
			return ShortID{}, errors.New("invalid character in short ID")
		}
		acc = acc<<5 | uint64(v)
	}
	// 50 decoded bits; the top two must be padding
	if acc>>48 != 0 {
		return ShortID{}, errors.New("short ID out of range")
	}
	var id ShortID
	for i := 5; i >= 0; i-- {
		id[i] = byte(acc)
		acc >>= 8
	}
	return id, nil
}

// IsZero reports whether the ID is the zero value.
func (id ShortID) IsZero() bool {
	return id == ShortID{}
}

// MarshalBSONValue stores the ID as BinData subtype 0x80.
func (id ShortID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(primitive.Binary{Subtype: 0x80, Data: id[:]})
}

// UnmarshalBSONValue accepts BinData of length 6 regardless of subtype.
func (id *ShortID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	var bin primitive.Binary
	if err := raw.Unmarshal(&bin); err != nil {
		return errors.New("short ID: expected BSON binary")
	}
	if len(bin.Data) != len(id) {
		return errors.New("short ID: binary data must be 6 bytes")
	}
	copy(id[:], bin.Data)
	return nil
}

// MarshalJSON renders the ID as its Crockford Base32 string.
func (id ShortID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ShortID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseShortID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
