package resultcache

import (
	"bytes"

	"github.com/brimdata/iql/rowio"
	"github.com/brimdata/iql/rowio/tsvio"
	"github.com/klauspost/compress/zstd"
)

// Results are stored as zstd-compressed TSV with key counts.  EncodeAll
// and DecodeAll may be called concurrently.
var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

type buffer struct {
	bytes.Buffer
}

func (*buffer) Close() error { return nil }

// blobWriter collects rows and hands the compressed blob to commit on
// Close.
type blobWriter struct {
	buf    buffer
	tsv    *tsvio.Writer
	commit func([]byte) error
	done   bool
}

func newBlobWriter(commit func([]byte) error) *blobWriter {
	w := &blobWriter{commit: commit}
	w.tsv = tsvio.NewWriter(&w.buf, tsvio.WriterOpts{KeyCount: true})
	return w
}

func (w *blobWriter) Write(r *rowio.Row) error {
	return w.tsv.Write(r)
}

func (w *blobWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.tsv.Close(); err != nil {
		return err
	}
	return w.commit(encoder.EncodeAll(w.buf.Bytes(), nil))
}

func (w *blobWriter) Abort() {
	w.done = true
	w.buf.Reset()
}

func readBlob(b []byte) (rowio.Reader, error) {
	raw, err := decoder.DecodeAll(b, nil)
	if err != nil {
		return nil, err
	}
	return tsvio.NewReader(bytes.NewReader(raw), tsvio.ReaderOpts{KeyCount: true}), nil
}
