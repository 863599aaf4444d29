package store

import (
	"github.com/0xNekr/firstmint/token"
	"github.com/dgraph-io/badger/v3"
	"github.com/vmihailenco/msgpack/v4"
)

const (
	prefixCollectionPayload = "COLLECTIBLES:COLLECTION:"
	prefixTokenDataPayload  = "COLLECTIBLES:TOKENDATA:"
)

func (bs *BadgerStore) CreateCollection(c *token.Collection) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		old, err := bs.readCollection(txn, c.Creator, c.Name)
		if err != nil {
			return err
		} else if old != nil {
			return token.ErrCollectionExists
		}
		key := buildCollectionKey(c.Creator, c.Name)
		val, err := msgpack.Marshal(c)
		if err != nil {
			return err
		}
		return txn.Set(key, val)
	})
}

func (bs *BadgerStore) ReadCollection(creator, name string) (*token.Collection, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readCollection(txn, creator, name)
}

func (bs *BadgerStore) CreateTokenData(d *token.TokenData) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		old, err := bs.readTokenData(txn, d.ID)
		if err != nil {
			return err
		} else if old != nil {
			return token.ErrTokenDataExists
		}

		c, err := bs.readCollection(txn, d.ID.Creator, d.ID.Collection)
		if err != nil {
			return err
		} else if c == nil {
			return token.ErrCollectionNotFound
		}
		if c.Maximum > 0 && c.TokenDataCount >= c.Maximum {
			return token.ErrCollectionFull
		}
		c.TokenDataCount += 1

		key := buildCollectionKey(c.Creator, c.Name)
		val, err := msgpack.Marshal(c)
		if err != nil {
			return err
		}
		err = txn.Set(key, val)
		if err != nil {
			return err
		}
		return bs.writeTokenData(txn, d)
	})
}

func (bs *BadgerStore) ReadTokenData(id token.TokenDataID) (*token.TokenData, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readTokenData(txn, id)
}

// MintTokenData bumps the template supply against its maximum and credits
// the minted units to the creator at property version zero, atomically.
func (bs *BadgerStore) MintTokenData(id token.TokenDataID, amount uint64) (*token.TokenData, error) {
	var d *token.TokenData
	err := bs.db.Update(func(txn *badger.Txn) error {
		var err error
		d, err = bs.readTokenData(txn, id)
		if err != nil {
			return err
		} else if d == nil {
			return token.ErrTokenDataNotFound
		}
		if d.Maximum > 0 && d.Supply+amount > d.Maximum {
			return token.ErrSupplyExceeded
		}
		d.Supply += amount

		err = bs.writeTokenData(txn, d)
		if err != nil {
			return err
		}
		return bs.creditBalance(txn, id.Creator, token.TokenID{Data: id}, amount)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (bs *BadgerStore) readCollection(txn *badger.Txn, creator, name string) (*token.Collection, error) {
	item, err := txn.Get(buildCollectionKey(creator, name))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var c token.Collection
	err = msgpack.Unmarshal(val, &c)
	return &c, err
}

func (bs *BadgerStore) readTokenData(txn *badger.Txn, id token.TokenDataID) (*token.TokenData, error) {
	key := append([]byte(prefixTokenDataPayload), id.Key()...)
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var d token.TokenData
	err = msgpack.Unmarshal(val, &d)
	return &d, err
}

func (bs *BadgerStore) writeTokenData(txn *badger.Txn, d *token.TokenData) error {
	key := append([]byte(prefixTokenDataPayload), d.ID.Key()...)
	val, err := msgpack.Marshal(d)
	if err != nil {
		return err
	}
	return txn.Set(key, val)
}

func buildCollectionKey(creator, name string) []byte {
	key := append([]byte(prefixCollectionPayload), creator...)
	key = append(key, 0)
	return append(key, name...)
}
