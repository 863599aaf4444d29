package minter

import (
	"time"

	"github.com/0xNekr/firstmint/token"
)

type Store interface {
	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)

	// WriteMintedToken mints one unit of data to r.Receiver at a fresh
	// property version carrying props, fills r.Token and records the
	// receipt, all in one transaction. An already recorded trace id loads
	// the old receipt into r instead of minting again.
	WriteMintedToken(data token.TokenDataID, r *Receipt, props token.PropertyMap) error

	ReadMintReceipt(traceID string) (*Receipt, error)
	ListMintReceipts(limit int) ([]*Receipt, error)
}

// Receipt records one successful mint. Replaying a trace id returns the
// recorded token instead of minting again.
type Receipt struct {
	TraceID   string
	Receiver  string
	Token     token.TokenID
	CreatedAt time.Time
}
