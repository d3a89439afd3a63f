// Package store keeps the frozen document store and the ranked model in a
// single bbolt database next to the positional segment.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.etcd.io/bbolt"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

// FileName is the database inside an index directory.
const FileName = "irkit.db"

var (
	bucketDocs  = []byte("docs")
	bucketMeta  = []byte("meta")
	bucketModel = []byte("model")

	keyOrder   = []byte("doc_order")
	keyBuiltAt = []byte("built_at")
	keyTerms   = []byte("terms")
	keyIDF     = []byte("idf")
	keyTFIDF   = []byte("tfidf")
	keyBM25    = []byte("bm25")
	keyDocIDs  = []byte("doc_ids")
	keyDocLens = []byte("doc_lens")
	keyParams  = []byte("params")
)

type BoltStore struct {
	db *bbolt.DB
}

// Open opens or creates the database at path. readOnly opens a shared lock
// so several searches can read one index concurrently.
func Open(path string, readOnly bool) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db %s: %w", path, err)
	}
	if !readOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			for _, b := range [][]byte{bucketDocs, bucketMeta, bucketModel} {
				if _, err := tx.CreateBucketIfNotExists(b); err != nil {
					return fmt.Errorf("creating bucket %s: %w", b, err)
				}
			}
			return nil
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// PutCorpus replaces the stored documents with store, keeping its order.
func (s *BoltStore) PutCorpus(store *corpus.Store) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		docs, err := resetBucket(tx, bucketDocs)
		if err != nil {
			return err
		}
		for _, d := range store.Docs() {
			data, err := json.Marshal(d.Tokens)
			if err != nil {
				return fmt.Errorf("marshaling doc %d: %w", d.ID, err)
			}
			if err := docs.Put(docKey(d.ID), data); err != nil {
				return err
			}
		}
		order, err := json.Marshal(store.IDs())
		if err != nil {
			return err
		}
		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyOrder, order); err != nil {
			return err
		}
		return meta.Put(keyBuiltAt, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// Corpus loads the documents in their original enumeration order.
func (s *BoltStore) Corpus() (*corpus.Store, error) {
	var docs []corpus.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta, b := tx.Bucket(bucketMeta), tx.Bucket(bucketDocs)
		if meta == nil || b == nil {
			return notFound("document store")
		}
		raw := meta.Get(keyOrder)
		if raw == nil {
			return notFound("document order")
		}
		var ids []int
		if err := json.Unmarshal(raw, &ids); err != nil {
			return corrupt("document order: %v", err)
		}
		docs = make([]corpus.Document, 0, len(ids))
		for _, id := range ids {
			data := b.Get(docKey(id))
			if data == nil {
				return corrupt("document %d listed but missing", id)
			}
			var tokens []string
			if err := json.Unmarshal(data, &tokens); err != nil {
				return corrupt("document %d: %v", id, err)
			}
			docs = append(docs, corpus.Document{ID: id, Tokens: tokens})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return corpus.NewStore(docs)
}

// BuiltAt returns when the corpus was last written.
func (s *BoltStore) BuiltAt() (time.Time, error) {
	var t time.Time
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil || meta.Get(keyBuiltAt) == nil {
			return notFound("build timestamp")
		}
		var err error
		t, err = time.Parse(time.RFC3339, string(meta.Get(keyBuiltAt)))
		return err
	})
	return t, err
}

// PutRanked replaces the stored ranked model.
func (s *BoltStore) PutRanked(idx *index.RankedIndex) error {
	p := idx.Parts()
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := resetBucket(tx, bucketModel)
		if err != nil {
			return err
		}
		values := map[string]any{
			string(keyTerms):   p.Terms,
			string(keyDocIDs):  p.DocIDs,
			string(keyDocLens): p.DocLens,
			string(keyParams):  p.Params,
		}
		for k, v := range values {
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("marshaling %s: %w", k, err)
			}
			if err := b.Put([]byte(k), data); err != nil {
				return err
			}
		}
		if err := b.Put(keyIDF, encodeFloats(p.IDF)); err != nil {
			return err
		}
		if err := b.Put(keyTFIDF, encodeMatrix(p.TFIDF)); err != nil {
			return err
		}
		return b.Put(keyBM25, encodeMatrix(p.BM25))
	})
}

// Ranked loads and validates the ranked model.
func (s *BoltStore) Ranked() (*index.RankedIndex, error) {
	var parts index.RankedParts
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketModel)
		if b == nil || b.Get(keyTerms) == nil {
			return notFound("ranked model")
		}
		decode := []struct {
			key []byte
			dst any
		}{
			{keyTerms, &parts.Terms},
			{keyDocIDs, &parts.DocIDs},
			{keyDocLens, &parts.DocLens},
			{keyParams, &parts.Params},
		}
		for _, d := range decode {
			raw := b.Get(d.key)
			if raw == nil {
				return corrupt("ranked model lacks %s", d.key)
			}
			if err := json.Unmarshal(raw, d.dst); err != nil {
				return corrupt("ranked model %s: %v", d.key, err)
			}
		}
		var err error
		if parts.IDF, err = decodeFloats(b.Get(keyIDF)); err != nil {
			return corrupt("idf: %v", err)
		}
		if parts.TFIDF, err = decodeMatrix(b.Get(keyTFIDF)); err != nil {
			return corrupt("tfidf: %v", err)
		}
		if parts.BM25, err = decodeMatrix(b.Get(keyBM25)); err != nil {
			return corrupt("bm25: %v", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return index.NewRankedIndex(parts)
}

func resetBucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil, fmt.Errorf("clearing bucket %s: %w", name, err)
	}
	b, err := tx.CreateBucket(name)
	if err != nil {
		return nil, fmt.Errorf("creating bucket %s: %w", name, err)
	}
	return b, nil
}

// docKey is big-endian so bbolt iterates documents in id order.
func docKey(id int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func encodeFloats(v []float64) []byte {
	b := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(f))
	}
	return b
}

// decodeFloats copies out of b, which bbolt only keeps valid inside the
// transaction.
func decodeFloats(b []byte) ([]float64, error) {
	if b == nil {
		return nil, errors.New("missing")
	}
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of 8", len(b))
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v, nil
}

// encodeMatrix writes rows and cols as uint64 followed by the row-major data.
func encodeMatrix(m *index.Matrix) []byte {
	b := make([]byte, 16, 16+8*len(m.Data))
	binary.LittleEndian.PutUint64(b[0:8], uint64(m.Rows))
	binary.LittleEndian.PutUint64(b[8:16], uint64(m.Cols))
	return append(b, encodeFloats(m.Data)...)
}

func decodeMatrix(b []byte) (*index.Matrix, error) {
	if len(b) < 16 {
		return nil, errors.New("matrix header truncated")
	}
	rows := int(binary.LittleEndian.Uint64(b[0:8]))
	cols := int(binary.LittleEndian.Uint64(b[8:16]))
	data, err := decodeFloats(b[16:])
	if err != nil {
		return nil, err
	}
	return &index.Matrix{Rows: rows, Cols: cols, Data: data}, nil
}

func notFound(what string) error {
	return apperrors.Newf(apperrors.ErrIndexNotFound, apperrors.ExitNoIndex, "%s not built", what)
}

func corrupt(format string, args ...any) error {
	return apperrors.Newf(apperrors.ErrCorruptIndex, apperrors.ExitBadIndex, format, args...)
}
