package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is one untyped entry of a collection. Every record carries an "id".
type Record map[string]any

// Repository loads and saves whole collections by name.
//
// Load never fails: a missing collection is empty, and read or parse failures
// are logged and reported as empty. Save overwrites the full collection.
type Repository interface {
	Load(ctx context.Context, collection string) []Record
	Save(ctx context.Context, collection string, records []Record) error
	Close() error
}

// ID returns the record's id as a canonical integer.
func (r Record) ID() (int64, bool) {
	return ParseID(r["id"])
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ParseID coerces an id value to int64. Whole JSON numbers, Go integers and
// numeric strings are accepted; anything else is not an id.
func ParseID(v any) (int64, bool) {
	switch id := v.(type) {
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return n, true
		}
		f, err := id.Float64()
		if err != nil {
			return 0, false
		}
		return wholeFloat(f)
	case float64:
		return wholeFloat(id)
	case int:
		return int64(id), true
	case int64:
		return id, true
	case int32:
		return int64(id), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func wholeFloat(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// decodeRecords parses a JSON array of objects, keeping numbers as json.Number
// so integer values survive a load/save cycle unchanged.
func decodeRecords(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func encodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.MarshalIndent(records, "", "  ")
}
