package minter

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xNekr/firstmint/token"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v4"
)

// The collection and template are registered once with these fixed
// parameters; the receiver address is the only dynamic input afterwards.
const (
	CollectionName        = "First NFT Collection"
	CollectionDescription = "The first collection minted by this service."
	CollectionURI         = "https://firstmint.0xnekr.dev/collection.json"
	CollectionMaximum     = 0

	TokenName        = "First NFT"
	TokenDescription = "A numbered unit minted from the first template."
	TokenURI         = "https://firstmint.0xnekr.dev/token.json"
	TokenMaximum     = 10000

	RoyaltyNumerator   = 5
	RoyaltyDenominator = 100

	ReceiverPropertyKey  = "minted_to"
	ReceiverPropertyType = "address"
)

const tokenDataStoreKey = "MINTER:TOKENDATA:ID"

var (
	ErrPermissionDenied   = errors.New("permission denied")
	ErrAlreadyInitialized = errors.New("minter already initialized")
	ErrNotInitialized     = errors.New("minter not initialized")
)

// Minter gates minting behind the configured owner address and runs every
// mint through a single loop, one request at a time.
type Minter struct {
	store  Store
	ledger *token.Ledger
	clock  *Clock
	owner  string
	logger zerolog.Logger

	data token.TokenDataID
	init bool
	reqs chan *mintRequest
}

type mintRequest struct {
	traceID  string
	receiver string
	result   chan *mintResult
}

type mintResult struct {
	token token.TokenID
	err   error
}

func NewMinter(store Store, ledger *token.Ledger, owner string, logger zerolog.Logger) (*Minter, error) {
	if owner == "" {
		return nil, fmt.Errorf("invalid owner address %q", owner)
	}
	clock, err := NewClock(store)
	if err != nil {
		return nil, err
	}
	m := &Minter{
		store:  store,
		ledger: ledger,
		clock:  clock,
		owner:  owner,
		logger: logger.With().Str("component", "minter").Logger(),
		reqs:   make(chan *mintRequest),
	}

	val, err := store.ReadProperty([]byte(tokenDataStoreKey))
	if err != nil {
		return nil, err
	}
	if len(val) > 0 {
		err = msgpack.Unmarshal(val, &m.data)
		if err != nil {
			return nil, err
		}
		m.init = true
	}
	return m, nil
}

func (m *Minter) Owner() string {
	return m.owner
}

func (m *Minter) Initialized() bool {
	return m.init
}

// TokenData returns the template registered at setup.
func (m *Minter) TokenData() token.TokenDataID {
	return m.data
}

// Setup registers the collection and the token template with the fixed
// parameters above, then persists the returned template id. It runs once;
// a second call is rejected. Entities left behind by a run that died before
// the id was persisted are picked up again, so a restart always converges.
func (m *Minter) Setup(ctx context.Context) error {
	if m.init {
		return ErrAlreadyInitialized
	}

	_, err := m.ledger.CreateCollection(m.owner, CollectionName, CollectionDescription, CollectionURI, CollectionMaximum, token.CollectionMutability{})
	if err != nil && !errors.Is(err, token.ErrCollectionExists) {
		return fmt.Errorf("create collection: %w", err)
	}
	id, err := m.ledger.CreateTokenData(m.owner, CollectionName, TokenName, TokenDescription, TokenMaximum, TokenURI, token.Royalty{
		Payee:       m.owner,
		Numerator:   RoyaltyNumerator,
		Denominator: RoyaltyDenominator,
	}, token.TokenMutability{Properties: true}, nil)
	if err != nil && !errors.Is(err, token.ErrTokenDataExists) {
		return fmt.Errorf("create token data: %w", err)
	}

	val, err := msgpack.Marshal(id)
	if err != nil {
		return err
	}
	err = m.store.WriteProperty([]byte(tokenDataStoreKey), val)
	if err != nil {
		return err
	}
	m.data = id
	m.init = true
	m.logger.Info().Str("token_data", id.String()).Msg("minter initialized")
	return nil
}

// MintTo mints one unit of the registered template and hands it to the
// receiver, recording the receiver address in the unit's property map. Only
// the configured owner may call it. An empty trace id gets a random one;
// callers needing idempotency pass their own.
func (m *Minter) MintTo(ctx context.Context, caller, receiver, traceID string) (token.TokenID, error) {
	if caller != m.owner {
		return token.TokenID{}, ErrPermissionDenied
	}
	if !m.init {
		return token.TokenID{}, ErrNotInitialized
	}
	if receiver == "" {
		return token.TokenID{}, fmt.Errorf("invalid receiver %q", receiver)
	}
	if traceID == "" {
		traceID = uuid.Must(uuid.NewV4()).String()
	}

	req := &mintRequest{
		traceID:  traceID,
		receiver: receiver,
		result:   make(chan *mintResult, 1),
	}
	select {
	case m.reqs <- req:
	case <-ctx.Done():
		return token.TokenID{}, ctx.Err()
	}
	select {
	case res := <-req.result:
		return res.token, res.err
	case <-ctx.Done():
		return token.TokenID{}, ctx.Err()
	}
}

// Receipt returns the recorded mint for a trace id, or nil.
func (m *Minter) Receipt(traceID string) (*Receipt, error) {
	return m.store.ReadMintReceipt(traceID)
}

func (m *Minter) ListReceipts(limit int) ([]*Receipt, error) {
	return m.store.ListMintReceipts(limit)
}

// Run serializes all mint processing on the calling goroutine.
func (m *Minter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-m.reqs:
			req.result <- m.process(req)
		}
	}
}

func (m *Minter) process(req *mintRequest) *mintResult {
	old, err := m.store.ReadMintReceipt(req.traceID)
	if err != nil {
		return &mintResult{err: err}
	}
	if old != nil {
		m.logger.Info().Str("trace", req.traceID).Str("token", old.Token.String()).Msg("mint replayed")
		return &mintResult{token: old.Token}
	}

	// mint, hand over and record in one store transaction, so a failed
	// mint leaves no supply bump, no stranded unit and no receipt behind
	receipt := &Receipt{
		TraceID:   req.traceID,
		Receiver:  req.receiver,
		CreatedAt: m.clock.Now(),
	}
	err = m.store.WriteMintedToken(m.data, receipt, token.PropertyMap{
		ReceiverPropertyKey: {Type: ReceiverPropertyType, Value: req.receiver},
	})
	if err != nil {
		return &mintResult{err: fmt.Errorf("mint token: %w", err)}
	}
	m.logger.Info().Str("trace", req.traceID).Str("receiver", req.receiver).Str("token", receipt.Token.String()).Msg("minted")
	return &mintResult{token: receipt.Token}
}

// UniqueTraceID derives a deterministic trace id from two parts, so the same
// logical request always maps to the same receipt.
func UniqueTraceID(a, b string) string {
	ns := uuid.NewV5(uuid.NamespaceOID, "firstmint")
	return uuid.NewV5(ns, a+":"+b).String()
}
