package token

import (
	"fmt"
	"time"
)

// Ledger exposes the token library operations over a Store. All compound
// updates happen inside a single store transaction, so a failed call leaves
// no partial state behind.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

func (lg *Ledger) CreateCollection(creator, name, description, uri string, maximum uint64, mut CollectionMutability) (*Collection, error) {
	if creator == "" || name == "" {
		return nil, fmt.Errorf("invalid collection %s %s", creator, name)
	}
	c := &Collection{
		Creator:     creator,
		Name:        name,
		Description: description,
		URI:         uri,
		Maximum:     maximum,
		Mutability:  mut,
		CreatedAt:   time.Now(),
	}
	err := lg.store.CreateCollection(c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (lg *Ledger) CreateTokenData(creator, collection, name, description string, maximum uint64, uri string, royalty Royalty, mut TokenMutability, props PropertyMap) (TokenDataID, error) {
	id := TokenDataID{Creator: creator, Collection: collection, Name: name}
	if creator == "" || collection == "" || name == "" {
		return id, fmt.Errorf("invalid token data %s", id)
	}
	if royalty.Numerator > 0 && royalty.Denominator == 0 {
		return id, fmt.Errorf("invalid royalty %d/%d", royalty.Numerator, royalty.Denominator)
	}
	if royalty.Numerator > royalty.Denominator {
		return id, fmt.Errorf("invalid royalty %d/%d", royalty.Numerator, royalty.Denominator)
	}
	d := &TokenData{
		ID:          id,
		Description: description,
		URI:         uri,
		Maximum:     maximum,
		Royalty:     royalty,
		Mutability:  mut,
		Properties:  props.Clone(),
		CreatedAt:   time.Now(),
	}
	err := lg.store.CreateTokenData(d)
	if err != nil {
		return id, err
	}
	return id, nil
}

// MintToken mints amount units at property version zero into the creator's
// balance. Only the template creator may mint from it.
func (lg *Ledger) MintToken(caller string, id TokenDataID, amount uint64) (TokenID, error) {
	tid := TokenID{Data: id}
	if amount == 0 {
		return tid, ErrInvalidAmount
	}
	if caller != id.Creator {
		return tid, fmt.Errorf("only creator %s can mint %s", id.Creator, id)
	}
	_, err := lg.store.MintTokenData(id, amount)
	if err != nil {
		return tid, err
	}
	return tid, nil
}

func (lg *Ledger) DirectTransfer(from, to string, id TokenID, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if to == "" {
		return fmt.Errorf("invalid receiver %q", to)
	}
	if from == to {
		return nil
	}
	return lg.store.TransferToken(from, to, id, amount)
}

// MutateTokenProperties records props on one of the owner's units. A version
// zero unit is split to a fresh property version carrying the template's
// default map overlaid with props; a versioned unit is mutated in place. The
// returned id is the unit the mutation landed on.
func (lg *Ledger) MutateTokenProperties(owner string, id TokenID, props PropertyMap) (TokenID, error) {
	d, err := lg.store.ReadTokenData(id.Data)
	if err != nil {
		return id, err
	}
	if d == nil {
		return id, ErrTokenDataNotFound
	}
	if !d.Mutability.Properties {
		return id, ErrFieldImmutable
	}
	if id.PropertyVersion == 0 {
		return lg.store.SplitTokenProperties(owner, id, props)
	}
	return id, lg.store.MutateTokenProperties(owner, id, props)
}

func (lg *Ledger) GetCollection(creator, name string) (*Collection, error) {
	return lg.store.ReadCollection(creator, name)
}

func (lg *Ledger) GetTokenData(id TokenDataID) (*TokenData, error) {
	return lg.store.ReadTokenData(id)
}

func (lg *Ledger) BalanceOf(owner string, id TokenID) (uint64, error) {
	return lg.store.ReadBalance(owner, id)
}

func (lg *Ledger) TokenProperties(id TokenID) (PropertyMap, error) {
	return lg.store.ReadTokenProperties(id)
}

func (lg *Ledger) ListTokens(owner string) ([]*Token, error) {
	return lg.store.ListTokens(owner)
}
