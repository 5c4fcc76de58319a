package cache

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Encode serializes v with msgpack.
func Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode deserializes msgpack data into v.
func Decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
