package persistence

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/petrijr/rastro/pkg/api"
)

// EncodeRecord serializes a record for key-value sinks.
func EncodeRecord(rec api.Record) ([]byte, error) {
	return msgpack.Marshal(&rec)
}

// DecodeRecord is the inverse of EncodeRecord.
func DecodeRecord(data []byte) (api.Record, error) {
	var rec api.Record
	err := msgpack.Unmarshal(data, &rec)
	return rec, err
}
