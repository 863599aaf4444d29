package store

import (
	"github.com/0xNekr/firstmint/token"
	"github.com/dgraph-io/badger/v3"
	"github.com/vmihailenco/msgpack/v4"
)

const (
	prefixTokenBalance    = "COLLECTIBLES:BALANCE:"
	prefixTokenProperties = "COLLECTIBLES:PROPERTIES:"
)

func (bs *BadgerStore) TransferToken(from, to string, id token.TokenID, amount uint64) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		err := bs.debitBalance(txn, from, id, amount)
		if err != nil {
			return err
		}
		return bs.creditBalance(txn, to, id, amount)
	})
}

// SplitTokenProperties moves one of the owner's version zero units to a
// fresh property version carrying the template default map overlaid with
// props. The fresh version number is never reused within a template.
func (bs *BadgerStore) SplitTokenProperties(owner string, id token.TokenID, props token.PropertyMap) (token.TokenID, error) {
	var nid token.TokenID
	err := bs.db.Update(func(txn *badger.Txn) error {
		d, err := bs.readTokenData(txn, id.Data)
		if err != nil {
			return err
		} else if d == nil {
			return token.ErrTokenDataNotFound
		}

		err = bs.debitBalance(txn, owner, id, 1)
		if err != nil {
			return err
		}

		d.LargestPropertyVersion += 1
		nid = token.TokenID{Data: id.Data, PropertyVersion: d.LargestPropertyVersion}
		err = bs.writeTokenData(txn, d)
		if err != nil {
			return err
		}
		err = bs.creditBalance(txn, owner, nid, 1)
		if err != nil {
			return err
		}

		pm := d.Properties.Clone()
		for k, v := range props {
			pm[k] = v
		}
		return bs.writeTokenProperties(txn, nid, pm)
	})
	return nid, err
}

func (bs *BadgerStore) MutateTokenProperties(owner string, id token.TokenID, props token.PropertyMap) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		bal, err := bs.readBalance(txn, owner, id)
		if err != nil {
			return err
		}
		if bal == nil || bal.Amount == 0 {
			return token.ErrInsufficientBalance
		}
		pm, err := bs.readTokenProperties(txn, id)
		if err != nil {
			return err
		}
		if pm == nil {
			pm = make(token.PropertyMap)
		}
		for k, v := range props {
			pm[k] = v
		}
		return bs.writeTokenProperties(txn, id, pm)
	})
}

func (bs *BadgerStore) ReadTokenProperties(id token.TokenID) (token.PropertyMap, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	if id.PropertyVersion == 0 {
		d, err := bs.readTokenData(txn, id.Data)
		if err != nil || d == nil {
			return nil, err
		}
		return d.Properties, nil
	}
	return bs.readTokenProperties(txn, id)
}

func (bs *BadgerStore) ReadBalance(owner string, id token.TokenID) (uint64, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	bal, err := bs.readBalance(txn, owner, id)
	if err != nil || bal == nil {
		return 0, err
	}
	return bal.Amount, nil
}

func (bs *BadgerStore) ListTokens(owner string) ([]*token.Token, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	prefix := append([]byte(prefixTokenBalance), owner...)
	prefix = append(prefix, 0)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var tokens []*token.Token
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var t token.Token
		err = msgpack.Unmarshal(val, &t)
		if err != nil {
			return nil, err
		}
		if t.Amount == 0 {
			continue
		}
		tokens = append(tokens, &t)
	}
	return tokens, nil
}

func (bs *BadgerStore) creditBalance(txn *badger.Txn, owner string, id token.TokenID, amount uint64) error {
	bal, err := bs.readBalance(txn, owner, id)
	if err != nil {
		return err
	}
	if bal == nil {
		bal = &token.Token{ID: id}
	}
	bal.Amount += amount
	val, err := msgpack.Marshal(bal)
	if err != nil {
		return err
	}
	return txn.Set(buildBalanceKey(owner, id), val)
}

func (bs *BadgerStore) debitBalance(txn *badger.Txn, owner string, id token.TokenID, amount uint64) error {
	bal, err := bs.readBalance(txn, owner, id)
	if err != nil {
		return err
	}
	if bal == nil || bal.Amount < amount {
		return token.ErrInsufficientBalance
	}
	bal.Amount -= amount
	key := buildBalanceKey(owner, id)
	if bal.Amount == 0 {
		return txn.Delete(key)
	}
	val, err := msgpack.Marshal(bal)
	if err != nil {
		return err
	}
	return txn.Set(key, val)
}

func (bs *BadgerStore) readBalance(txn *badger.Txn, owner string, id token.TokenID) (*token.Token, error) {
	item, err := txn.Get(buildBalanceKey(owner, id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var bal token.Token
	err = msgpack.Unmarshal(val, &bal)
	return &bal, err
}

func (bs *BadgerStore) readTokenProperties(txn *badger.Txn, id token.TokenID) (token.PropertyMap, error) {
	key := append([]byte(prefixTokenProperties), id.Key()...)
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
	var pm token.PropertyMap
	err = msgpack.Unmarshal(val, &pm)
	return pm, err
}

func (bs *BadgerStore) writeTokenProperties(txn *badger.Txn, id token.TokenID, pm token.PropertyMap) error {
	key := append([]byte(prefixTokenProperties), id.Key()...)
	val, err := msgpack.Marshal(pm)
	if err != nil {
		return err
	}
	return txn.Set(key, val)
}

func buildBalanceKey(owner string, id token.TokenID) []byte {
	key := append([]byte(prefixTokenBalance), owner...)
	key = append(key, 0)
	return append(key, id.Key()...)
}
