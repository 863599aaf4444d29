package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/0xNekr/firstmint/minter"
	"github.com/0xNekr/firstmint/store"
	"github.com/0xNekr/firstmint/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *store.BadgerStore {
	bs, err := store.OpenBadger(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { bs.Close() })
	return bs
}

func testTemplate(t *testing.T, bs *store.BadgerStore, maximum uint64) token.TokenDataID {
	id := token.TokenDataID{Creator: "0xabc", Collection: "punks", Name: "punk #1"}
	require.NoError(t, bs.CreateCollection(&token.Collection{Creator: id.Creator, Name: id.Collection}))
	require.NoError(t, bs.CreateTokenData(&token.TokenData{
		ID:         id,
		Maximum:    maximum,
		Mutability: token.TokenMutability{Properties: true},
		Properties: token.PropertyMap{"rarity": {Type: "string", Value: "common"}},
	}))
	return id
}

func TestProperty(t *testing.T) {
	bs := testStore(t)

	val, err := bs.ReadProperty([]byte("missing"))
	require.NoError(t, err)
	require.Nil(t, val)

	require.NoError(t, bs.WriteProperty([]byte("checkpoint"), []byte("1234")))
	val, err = bs.ReadProperty([]byte("checkpoint"))
	require.NoError(t, err)
	require.Equal(t, []byte("1234"), val)

	require.NoError(t, bs.WriteProperty([]byte("checkpoint"), []byte("5678")))
	val, err = bs.ReadProperty([]byte("checkpoint"))
	require.NoError(t, err)
	require.Equal(t, []byte("5678"), val)
}

func TestWriteMintedToken(t *testing.T) {
	bs := testStore(t)
	id := testTemplate(t, bs, 1)

	trace := minter.UniqueTraceID("mint", "a")
	r := &minter.Receipt{TraceID: trace, Receiver: "0xdef", CreatedAt: time.Now()}
	err := bs.WriteMintedToken(id, r, token.PropertyMap{"minted_to": {Type: "address", Value: "0xdef"}})
	require.NoError(t, err)
	require.Equal(t, uint64(1), r.Token.PropertyVersion)

	d, err := bs.ReadTokenData(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), d.Supply)
	assert.Equal(t, uint64(1), d.LargestPropertyVersion)

	bal, err := bs.ReadBalance("0xdef", r.Token)
	require.NoError(t, err)
	require.Equal(t, uint64(1), bal)

	pm, err := bs.ReadTokenProperties(r.Token)
	require.NoError(t, err)
	assert.Equal(t, "common", pm["rarity"].Value)
	assert.Equal(t, "0xdef", pm["minted_to"].Value)

	// the template is at capacity: the failed mint commits nothing
	trace2 := minter.UniqueTraceID("mint", "b")
	r2 := &minter.Receipt{TraceID: trace2, Receiver: "0x999", CreatedAt: time.Now()}
	err = bs.WriteMintedToken(id, r2, nil)
	require.ErrorIs(t, err, token.ErrSupplyExceeded)

	d, err = bs.ReadTokenData(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), d.Supply)
	assert.Equal(t, uint64(1), d.LargestPropertyVersion)
	missing, err := bs.ReadMintReceipt(trace2)
	require.NoError(t, err)
	require.Nil(t, missing)
	tokens, err := bs.ListTokens("0x999")
	require.NoError(t, err)
	require.Empty(t, tokens)

	// replaying the recorded trace loads the old receipt and mints nothing
	again := &minter.Receipt{TraceID: trace, Receiver: "0xdef", CreatedAt: time.Now().Add(time.Hour)}
	err = bs.WriteMintedToken(id, again, nil)
	require.NoError(t, err)
	require.Equal(t, r.Token, again.Token)
	require.Equal(t, r.CreatedAt.UnixNano(), again.CreatedAt.UnixNano())

	d, err = bs.ReadTokenData(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), d.Supply)
}

func TestWriteMintedTokenImmutable(t *testing.T) {
	bs := testStore(t)

	id := token.TokenDataID{Creator: "0xabc", Collection: "punks", Name: "frozen"}
	require.NoError(t, bs.CreateCollection(&token.Collection{Creator: id.Creator, Name: id.Collection}))
	require.NoError(t, bs.CreateTokenData(&token.TokenData{ID: id}))

	r := &minter.Receipt{TraceID: minter.UniqueTraceID("mint", "frozen"), Receiver: "0xdef", CreatedAt: time.Now()}
	err := bs.WriteMintedToken(id, r, nil)
	require.ErrorIs(t, err, token.ErrFieldImmutable)

	missing := token.TokenDataID{Creator: id.Creator, Collection: id.Collection, Name: "nope"}
	err = bs.WriteMintedToken(missing, r, nil)
	require.ErrorIs(t, err, token.ErrTokenDataNotFound)
}

func TestListMintReceipts(t *testing.T) {
	bs := testStore(t)
	id := testTemplate(t, bs, 0)

	missing, err := bs.ReadMintReceipt("nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	base := time.Now()
	for i := 0; i < 3; i++ {
		r := &minter.Receipt{
			TraceID:   minter.UniqueTraceID("receipt", string(rune('a'+i))),
			Receiver:  "0xdef",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, bs.WriteMintedToken(id, r, nil))
	}

	receipts, err := bs.ListMintReceipts(0)
	require.NoError(t, err)
	require.Len(t, receipts, 3)
	for i, r := range receipts {
		assert.Equal(t, uint64(i+1), r.Token.PropertyVersion)
	}

	receipts, err = bs.ListMintReceipts(2)
	require.NoError(t, err)
	require.Len(t, receipts, 2)
}
