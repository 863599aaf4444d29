package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/0xNekr/firstmint/minter"
	"github.com/0xNekr/firstmint/store"
	"github.com/0xNekr/firstmint/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOwner    = "0x5ae6789dd2285d061638ca4e2ba1d0005bb93ed1"
	testReceiver = "0x7f36b6bb32557d7f95b4fdd9c9e20e1b9b5e3c2a"
)

func testServer(t *testing.T) *httptest.Server {
	ctx := context.Background()
	bs, err := store.OpenBadger(ctx, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { bs.Close() })

	ledger := token.NewLedger(bs)
	m, err := minter.NewMinter(bs, ledger, testOwner, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Setup(ctx))

	rctx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go m.Run(rctx)

	s := &server{minter: m, ledger: ledger, logger: zerolog.Nop()}
	ts := httptest.NewServer(s.router())
	t.Cleanup(ts.Close)
	return ts
}

func postMint(t *testing.T, ts *httptest.Server, body mintRequestBody) *http.Response {
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/mints", "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestMintEndpoint(t *testing.T) {
	ts := testServer(t)

	resp := postMint(t, ts, mintRequestBody{Caller: testReceiver, Receiver: testReceiver})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = postMint(t, ts, mintRequestBody{Caller: testOwner})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	trace := minter.UniqueTraceID(testReceiver, "api")
	resp = postMint(t, ts, mintRequestBody{Caller: testOwner, Receiver: testReceiver, Trace: trace})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var view mintView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, minter.CollectionName, view.Collection)
	assert.Equal(t, minter.TokenName, view.Name)
	assert.Equal(t, uint64(1), view.PropertyVersion)

	resp, err := http.Get(ts.URL + "/mints/" + trace)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var receipt mintView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&receipt))
	assert.Equal(t, testReceiver, receipt.Receiver)
	assert.Equal(t, trace, receipt.Trace)
}

func TestReceiptNotFound(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/mints/" + minter.UniqueTraceID("no", "mint"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCollectionEndpoint(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/collection")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view collectionView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, testOwner, view.Creator)
	assert.Equal(t, minter.CollectionName, view.Name)
	assert.Equal(t, uint64(0), view.Supply)
	assert.Equal(t, "0.05", view.RoyaltyRate)
	assert.Equal(t, minter.ReceiverPropertyKey, view.PropertyKey)
}

func TestTokensEndpoint(t *testing.T) {
	ts := testServer(t)

	resp := postMint(t, ts, mintRequestBody{Caller: testOwner, Receiver: testReceiver})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err := http.Get(ts.URL + "/tokens/" + testReceiver)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var views []tokenView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, uint64(1), views[0].Amount)
	assert.Equal(t, testReceiver, views[0].Properties[minter.ReceiverPropertyKey])

	resp, err = http.Get(ts.URL + "/tokens/0xnobody")
	require.NoError(t, err)
	defer resp.Body.Close()
	var empty []tokenView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&empty))
	require.Empty(t, empty)
}
