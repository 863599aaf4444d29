package store

import (
	"encoding/binary"
	"time"

	"github.com/0xNekr/firstmint/minter"
	"github.com/0xNekr/firstmint/token"
	"github.com/dgraph-io/badger/v3"
	"github.com/vmihailenco/msgpack/v4"
)

const (
	prefixMintReceiptPayload = "MINTER:RECEIPT:PAYLOAD:"
	prefixMintReceiptTimed   = "MINTER:RECEIPT:TIMED:"
)

// WriteMintedToken performs a whole mint in one transaction: supply bump
// against the template maximum, a fresh property version credited to the
// receiver with the template defaults overlaid with props, and the receipt.
// A failure commits nothing. An already recorded trace id loads the old
// receipt into r and mints nothing.
func (bs *BadgerStore) WriteMintedToken(data token.TokenDataID, r *minter.Receipt, props token.PropertyMap) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		old, err := bs.readMintReceipt(txn, r.TraceID)
		if err != nil {
			return err
		} else if old != nil {
			*r = *old
			return nil
		}

		d, err := bs.readTokenData(txn, data)
		if err != nil {
			return err
		} else if d == nil {
			return token.ErrTokenDataNotFound
		}
		if !d.Mutability.Properties {
			return token.ErrFieldImmutable
		}
		if d.Maximum > 0 && d.Supply+1 > d.Maximum {
			return token.ErrSupplyExceeded
		}
		d.Supply += 1
		d.LargestPropertyVersion += 1
		nid := token.TokenID{Data: data, PropertyVersion: d.LargestPropertyVersion}

		err = bs.writeTokenData(txn, d)
		if err != nil {
			return err
		}
		err = bs.creditBalance(txn, r.Receiver, nid, 1)
		if err != nil {
			return err
		}
		pm := d.Properties.Clone()
		for k, v := range props {
			pm[k] = v
		}
		err = bs.writeTokenProperties(txn, nid, pm)
		if err != nil {
			return err
		}

		r.Token = nid
		return bs.writeMintReceipt(txn, r)
	})
}

func (bs *BadgerStore) ReadMintReceipt(traceID string) (*minter.Receipt, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readMintReceipt(txn, traceID)
}

func (bs *BadgerStore) ListMintReceipts(limit int) ([]*minter.Receipt, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefixMintReceiptTimed)
	it := txn.NewIterator(opts)
	defer it.Close()

	var receipts []*minter.Receipt
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		id := string(key[len(opts.Prefix)+8:])
		r, err := bs.readMintReceipt(txn, id)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
		if len(receipts) == limit {
			break
		}
	}
	return receipts, nil
}

func (bs *BadgerStore) writeMintReceipt(txn *badger.Txn, r *minter.Receipt) error {
	key := []byte(prefixMintReceiptPayload + r.TraceID)
	val, err := msgpack.Marshal(r)
	if err != nil {
		return err
	}
	err = txn.Set(key, val)
	if err != nil {
		return err
	}
	return txn.Set(buildMintReceiptTimedKey(r), []byte{1})
}

func (bs *BadgerStore) readMintReceipt(txn *badger.Txn, traceID string) (*minter.Receipt, error) {
	key := []byte(prefixMintReceiptPayload + traceID)
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
	var r minter.Receipt
	err = msgpack.Unmarshal(val, &r)
	return &r, err
}

func buildMintReceiptTimedKey(r *minter.Receipt) []byte {
	key := append([]byte(prefixMintReceiptTimed), tsToBytes(r.CreatedAt)...)
	return append(key, []byte(r.TraceID)...)
}

func tsToBytes(ts time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(ts.UnixNano()))
	return buf
}
