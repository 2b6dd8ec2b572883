package seqio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// FastqRecord is one parsed FASTQ read with its raw phred+33 quality.
type FastqRecord struct {
	ID      string
	Seq     string
	Quality string
}

// StreamFastq parses four-line FASTQ records from r. Structurally
// broken records (bad header, missing separator, length mismatch) are
// reported through onMalformed and skipped with a resync to the next
// header line; they never abort the stream.
func StreamFastq(ctx context.Context, r io.Reader, emit func(FastqRecord) error, onMalformed func(line string)) error {
	sc := bufio.NewScanner(r)
	const maxLine = 16 * 1024 * 1024
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var pending string
	nextLine := func() (string, bool) {
		if pending != "" {
			l := pending
			pending = ""
			return l, true
		}
		for sc.Scan() {
			l := strings.TrimRight(sc.Text(), "\r\n")
			if l != "" {
				return l, true
			}
		}
		return "", false
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		header, ok := nextLine()
		if !ok {
			break
		}
		if !strings.HasPrefix(header, "@") {
			onMalformed(header)
			continue
		}
		seq, ok1 := nextLine()
		sep, ok2 := nextLine()
		qual, ok3 := nextLine()
		if !ok1 || !ok2 || !ok3 {
			onMalformed(header)
			break
		}
		if !strings.HasPrefix(sep, "+") || len(seq) != len(qual) {
			onMalformed(header)
			// The quality line of a broken record can look like a
			// header; only resync on a genuine one.
			if strings.HasPrefix(qual, "@") {
				pending = qual
			}
			continue
		}
		id := strings.TrimPrefix(header, "@")
		if i := strings.IndexAny(id, " \t"); i >= 0 {
			id = id[:i]
		}
		if err := emit(FastqRecord{ID: id, Seq: seq, Quality: qual}); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("fastq scan: %w", err)
	}
	return nil
}

// sniffFormat peeks the first non-space byte to decide the format.
func sniffFormat(br *bufio.Reader) (string, error) {
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return "", fmt.Errorf("empty read source")
		}
		if err != nil {
			return "", err
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '>':
			_ = br.UnreadByte()
			return "fasta", nil
		case '@':
			_ = br.UnreadByte()
			return "fastq", nil
		default:
			return "", fmt.Errorf("unrecognized leading byte %q", b)
		}
	}
}
