package db

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"studentdb/btree"
	"studentdb/record"
)

type IndexStats struct {
	Field record.Field
	File  string
	Bytes int64
	btree.Stats
}

type Stats struct {
	Records   int64
	DataBytes int64
	Indexes   []IndexStats
}

func (d *DB) Stats() (Stats, error) {
	if d.closed {
		return Stats{}, ErrClosed
	}
	st := Stats{Records: d.Len(), DataBytes: d.size}
	for _, f := range record.Fields {
		ix := d.indexes[f]
		ts, err := ix.Stats()
		if err != nil {
			return st, err
		}
		st.Indexes = append(st.Indexes, IndexStats{
			Field: f,
			File:  ix.Name(),
			Bytes: ix.Size(),
			Stats: ts,
		})
	}
	return st, nil
}

// Print writes a human readable summary of st.
func (st Stats) Print(w io.Writer) {
	fmt.Fprintf(w, "records: %s (%s)\n", humanize.Comma(st.Records), humanize.Bytes(uint64(st.DataBytes)))
	for _, ix := range st.Indexes {
		fmt.Fprintf(w, "index %s: order=%d height=%d keys=%s nodes=%s size=%s\n",
			ix.Field, ix.Order, ix.Height,
			humanize.Comma(int64(ix.Keys)), humanize.Comma(int64(ix.Nodes)),
			humanize.Bytes(uint64(ix.Bytes)))
	}
}
