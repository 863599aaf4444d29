package token

import (
	"encoding/binary"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCollectionExists    = errors.New("collection already exists")
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrTokenDataExists     = errors.New("token data already exists")
	ErrCollectionFull      = errors.New("collection template maximum reached")
	ErrTokenDataNotFound   = errors.New("token data not found")
	ErrSupplyExceeded      = errors.New("maximum supply exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrFieldImmutable      = errors.New("field is not mutable")
	ErrInvalidAmount       = errors.New("invalid amount")
)

type PropertyValue struct {
	Type  string
	Value string
}

type PropertyMap map[string]PropertyValue

func (pm PropertyMap) Clone() PropertyMap {
	cm := make(PropertyMap, len(pm))
	for k, v := range pm {
		cm[k] = v
	}
	return cm
}

type CollectionMutability struct {
	Description bool
	URI         bool
	Maximum     bool
}

type TokenMutability struct {
	Maximum     bool
	URI         bool
	Royalty     bool
	Description bool
	Properties  bool
}

// Collection is a named grouping of token templates under one creator.
// Maximum zero means the collection holds an unlimited number of templates.
type Collection struct {
	Creator        string
	Name           string
	Description    string
	URI            string
	Maximum        uint64
	TokenDataCount uint64
	Mutability     CollectionMutability
	CreatedAt      time.Time
}

type Royalty struct {
	Payee       string
	Numerator   uint64
	Denominator uint64
}

func (r Royalty) Rate() decimal.Decimal {
	if r.Denominator == 0 {
		return decimal.Zero
	}
	num := decimal.NewFromInt(int64(r.Numerator))
	den := decimal.NewFromInt(int64(r.Denominator))
	return num.Div(den)
}

func (r Royalty) AmountOf(price decimal.Decimal) decimal.Decimal {
	return price.Mul(r.Rate())
}

// TokenDataID references a token template inside a creator's collection.
type TokenDataID struct {
	Creator    string
	Collection string
	Name       string
}

func (id TokenDataID) Key() []byte {
	key := append([]byte(id.Creator), 0)
	key = append(key, id.Collection...)
	key = append(key, 0)
	return append(key, id.Name...)
}

func (id TokenDataID) String() string {
	return id.Creator + "::" + id.Collection + "::" + id.Name
}

// TokenData is the template individual units are minted from. Supply counts
// all units ever minted and never exceeds Maximum when Maximum is nonzero.
type TokenData struct {
	ID                     TokenDataID
	Description            string
	URI                    string
	Maximum                uint64
	Supply                 uint64
	LargestPropertyVersion uint64
	Royalty                Royalty
	Mutability             TokenMutability
	Properties             PropertyMap
	CreatedAt              time.Time
}

// TokenID identifies units minted from a template. Freshly minted units sit
// at property version zero; mutating the properties of such a unit splits it
// off to a fresh version with its own property map.
type TokenID struct {
	Data            TokenDataID
	PropertyVersion uint64
}

func (id TokenID) Key() []byte {
	key := append(id.Data.Key(), 0)
	return binary.BigEndian.AppendUint64(key, id.PropertyVersion)
}

func (id TokenID) String() string {
	return id.Data.String() + "::" + strconv.FormatUint(id.PropertyVersion, 10)
}

type Token struct {
	ID     TokenID
	Amount uint64
}
