// Package encoding serializes JSON bodies through pooled buffers.
package encoding

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
)

// maxPooledBuffer keeps one outlier payload from pinning memory in the pool
const maxPooledBuffer = 64 * 1024

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}

// Marshal encodes v to compact JSON with no trailing newline.
// The returned slice is owned by the caller.
func Marshal(v interface{}) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}

	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	result := make([]byte, len(out))
	copy(result, out)
	return result, nil
}

// WriteJSON encodes v before touching w, so an encoding failure leaves the
// response unwritten and the caller can still send an error.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(v); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}
