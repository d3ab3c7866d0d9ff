// Package json wraps JSON serialization for the module. It uses sonic on
// the architectures sonic supports (amd64/arm64) and falls back to the
// standard library elsewhere, so callers never need to care which one is
// underneath.
package json

import (
	stdjson "encoding/json"
	"io"
	"runtime"

	"github.com/bytedance/sonic"
)

var (
	// Marshal encodes v into JSON bytes.
	Marshal func(v interface{}) ([]byte, error)

	// MarshalIndent encodes v into indented JSON bytes.
	MarshalIndent func(v interface{}, prefix, indent string) ([]byte, error)

	// Unmarshal decodes JSON bytes into v.
	Unmarshal func(data []byte, v interface{}) error

	// Valid reports whether data is syntactically valid JSON.
	Valid func(data []byte) bool

	// NewEncoder creates a JSON encoder writing to w.
	NewEncoder func(w io.Writer) Encoder

	// NewDecoder creates a JSON decoder reading from r.
	NewDecoder func(r io.Reader) Decoder

	usingSonic bool
)

// Encoder is a JSON encoder interface.
type Encoder interface {
	Encode(v interface{}) error
}

// Decoder is a JSON decoder interface.
type Decoder interface {
	Decode(v interface{}) error
}

func init() {
	// Sonic only supports amd64 and arm64.
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		api := sonic.ConfigDefault
		Marshal = api.Marshal
		MarshalIndent = api.MarshalIndent
		Unmarshal = api.Unmarshal
		Valid = api.Valid
		NewEncoder = func(w io.Writer) Encoder {
			return api.NewEncoder(w)
		}
		NewDecoder = func(r io.Reader) Decoder {
			return api.NewDecoder(r)
		}
		usingSonic = true
	} else {
		Marshal = stdjson.Marshal
		MarshalIndent = stdjson.MarshalIndent
		Unmarshal = stdjson.Unmarshal
		Valid = stdjson.Valid
		NewEncoder = func(w io.Writer) Encoder {
			return stdjson.NewEncoder(w)
		}
		NewDecoder = func(r io.Reader) Decoder {
			return stdjson.NewDecoder(r)
		}
		usingSonic = false
	}
}

// IsUsingSonic reports whether sonic backs the package-level functions.
func IsUsingSonic() bool {
	return usingSonic
}
