package repositories

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Records are stored in badger as protobuf wire messages. Field numbers
// are part of the on-disk format and must never be reused.

type recordWriter struct {
	b []byte
}

func (w *recordWriter) string(num protowire.Number, v string) {
	w.b = protowire.AppendTag(w.b, num, protowire.BytesType)
	w.b = protowire.AppendString(w.b, v)
}

func (w *recordWriter) time(num protowire.Number, t time.Time) {
	w.b = protowire.AppendTag(w.b, num, protowire.VarintType)
	w.b = protowire.AppendVarint(w.b, uint64(t.UnixNano()))
}

type record struct {
	strings map[protowire.Number]string
	varints map[protowire.Number]uint64
}

func parseRecord(b []byte) (record, error) {
	r := record{
		strings: make(map[protowire.Number]string),
		varints: make(map[protowire.Number]uint64),
	}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return record{}, fmt.Errorf("corrupted record: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return record{}, fmt.Errorf("corrupted record: %w", protowire.ParseError(m))
			}
			r.strings[num] = v
			n = m
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return record{}, fmt.Errorf("corrupted record: %w", protowire.ParseError(m))
			}
			r.varints[num] = v
			n = m
		default:
			// unknown wire type from a newer writer, skip it
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return record{}, fmt.Errorf("corrupted record: %w", protowire.ParseError(n))
			}
		}
		b = b[n:]
	}
	return r, nil
}

func (r record) string(num protowire.Number) string {
	return r.strings[num]
}

func (r record) time(num protowire.Number) time.Time {
	return time.Unix(0, int64(r.varints[num])).UTC()
}
