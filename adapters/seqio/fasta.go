package seqio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

// FastaRecord is one parsed FASTA sequence. Desc carries everything
// after the first whitespace of the header; reference sets use it for
// the lineage annotation.
type FastaRecord struct {
	ID   string
	Desc string
	Seq  string
}

// StreamFasta parses FASTA from r and emits one record at a time. It
// is cancelable, returning promptly when ctx is done, even mid-file.
func StreamFasta(ctx context.Context, r io.Reader, emit func(FastaRecord) error) error {
	sc := bufio.NewScanner(r)
	// Allow very long single-line sequences (64 MiB).
	const maxLine = 64 * 1024 * 1024
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		id   string
		desc string
		seen bool
		seq  = make([]byte, 0, 1<<16)
	)
	flush := func() error {
		if !seen && len(seq) == 0 {
			return nil
		}
		return emit(FastaRecord{ID: id, Desc: desc, Seq: string(seq)})
	}

	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if seen || len(seq) > 0 {
				if err := flush(); err != nil {
					return err
				}
				seq = seq[:0]
			}
			id, desc = parseHeader(line[1:])
			seen = true
			continue
		}
		seq = append(seq, bytes.TrimSpace(line)...)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("fasta scan: %w", err)
	}
	return flush()
}

func parseHeader(hdr []byte) (id, desc string) {
	hdr = bytes.TrimSpace(hdr)
	if i := bytes.IndexAny(hdr, " \t"); i >= 0 {
		return string(hdr[:i]), string(bytes.TrimSpace(hdr[i+1:]))
	}
	return string(hdr), ""
}
