package segment

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

type Reader struct {
	file    *os.File
	path    string
	header  Header
	dict    []DictEntry
	postCRC uint32
}

// Open validates the header, footer and dictionary checksum of the segment
// at path. Postings are read lazily.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Newf(apperrors.ErrIndexNotFound, apperrors.ExitNoIndex, "segment %s does not exist", path)
		}
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	r, err := open(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func open(f *os.File, path string) (*Reader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat segment file: %w", err)
	}
	if info.Size() < int64(HeaderSize+FooterSize) {
		return nil, corrupt(path, "file too short (%d bytes)", info.Size())
	}

	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	header := decodeHeader(headerBytes)
	if header.Magic != MagicBytes {
		return nil, corrupt(path, "bad magic bytes %x", header.Magic)
	}
	if header.Version != FormatVersion {
		return nil, corrupt(path, "unsupported format version %d", header.Version)
	}
	if header.PostOffset != int64(HeaderSize) ||
		header.PostSize < 0 || header.PostSize > info.Size() ||
		header.DictSize < 0 || header.DictSize > info.Size() {
		return nil, corrupt(path, "invalid section bounds")
	}
	if header.DictOffset+header.DictSize+int64(FooterSize) != info.Size() ||
		header.PostOffset+header.PostSize != header.DictOffset {
		return nil, corrupt(path, "section offsets do not match file size")
	}

	footer := make([]byte, FooterSize)
	if _, err := f.ReadAt(footer, info.Size()-int64(FooterSize)); err != nil {
		return nil, fmt.Errorf("reading footer: %w", err)
	}
	if binary.LittleEndian.Uint32(footer[8:12]) != MagicBytes {
		return nil, corrupt(path, "bad footer")
	}

	dictBytes := make([]byte, header.DictSize)
	if _, err := f.ReadAt(dictBytes, header.DictOffset); err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	if crc32.ChecksumIEEE(dictBytes) != binary.LittleEndian.Uint32(footer[0:4]) {
		return nil, corrupt(path, "dictionary checksum mismatch")
	}
	var dict []DictEntry
	if err := json.Unmarshal(dictBytes, &dict); err != nil {
		return nil, corrupt(path, "parsing dictionary: %v", err)
	}
	if len(dict) != int(header.TermCount) {
		return nil, corrupt(path, "dictionary has %d terms, header says %d", len(dict), header.TermCount)
	}
	return &Reader{
		file:    f,
		path:    path,
		header:  header,
		dict:    dict,
		postCRC: binary.LittleEndian.Uint32(footer[4:8]),
	}, nil
}

// Search returns the posting list of term, or nil when it is absent.
func (r *Reader) Search(term string) (index.PostingList, error) {
	i := sort.Search(len(r.dict), func(i int) bool {
		return r.dict[i].Term >= term
	})
	if i >= len(r.dict) || r.dict[i].Term != term {
		return nil, nil
	}
	entry := r.dict[i]
	data := make([]byte, entry.PostLen)
	if _, err := r.file.ReadAt(data, r.header.PostOffset+entry.PostOffset); err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}
	var postings index.PostingList
	if err := json.Unmarshal(data, &postings); err != nil {
		return nil, corrupt(r.path, "parsing postings of %q: %v", term, err)
	}
	return postings, nil
}

// Index reads every posting list, checks the postings checksum and
// rebuilds the positional index.
func (r *Reader) Index() (*index.PositionalIndex, error) {
	section := make([]byte, r.header.PostSize)
	if _, err := r.file.ReadAt(section, r.header.PostOffset); err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}
	if crc32.ChecksumIEEE(section) != r.postCRC {
		return nil, corrupt(r.path, "postings checksum mismatch")
	}
	entries := make([]index.TermEntry, len(r.dict))
	for i, d := range r.dict {
		end := d.PostOffset + int64(d.PostLen)
		if d.PostOffset < 0 || end > int64(len(section)) {
			return nil, corrupt(r.path, "postings of %q out of range", d.Term)
		}
		var pl index.PostingList
		if err := json.Unmarshal(section[d.PostOffset:end], &pl); err != nil {
			return nil, corrupt(r.path, "parsing postings of %q: %v", d.Term, err)
		}
		entries[i] = index.TermEntry{Term: d.Term, Postings: pl}
	}
	idx, err := index.NewPositionalIndex(entries, int(r.header.DocCount))
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", r.path, err)
	}
	return idx, nil
}

// Load opens path and returns the full positional index.
func Load(path string) (*index.PositionalIndex, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Index()
}

func (r *Reader) Header() Header { return r.header }

func (r *Reader) Terms() int { return len(r.dict) }

func (r *Reader) DocCount() int { return int(r.header.DocCount) }

func (r *Reader) Close() error {
	return r.file.Close()
}

func corrupt(path, format string, args ...any) error {
	return apperrors.Newf(apperrors.ErrCorruptIndex, apperrors.ExitBadIndex, "segment %s: %s", path, fmt.Sprintf(format, args...))
}
