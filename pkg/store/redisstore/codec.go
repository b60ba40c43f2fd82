package redisstore

import (
	"encoding/json"
	"errors"

	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

// tombstone is published when a record is removed.
const tombstone = ""

func encodeRecord(rec *subscription.Record) ([]byte, error) {
	return json.Marshal(rec)
}

// decodeRecord parses a stored value or a pub/sub payload.
// The tombstone decodes to a nil record.
func decodeRecord(data []byte) (*subscription.Record, error) {
	if string(data) == tombstone {
		return nil, nil
	}
	var rec subscription.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Join(ErrFailedToDecodeRecord, err)
	}
	rec.Normalize()
	return &rec, nil
}
