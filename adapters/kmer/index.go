package kmer

import (
	"context"
	"fmt"
	"strings"

	"gutcheck/adapters/seqio"
	"gutcheck/domain/core"
	"gutcheck/domain/taxonomy"
)

// DefaultK is the subsequence length used when the reference does not
// dictate one.
const DefaultK = 9

// Index is the immutable k-mer to taxon mapping. It is built once,
// offline, and then shared read-only across concurrent classification
// goroutines; nothing mutates it after Build returns.
type Index struct {
	k     int
	taxa  []taxonomy.Lineage
	table map[string][]int32
}

// Build constructs an index from a reference FASTA whose record
// descriptions carry the lineage as six semicolon-separated ranks,
// phylum first:
//
//	>acc123 Bacillota;Clostridia;Eubacteriales;Lachnospiraceae;Blautia;Blautia hansenii
//
// An empty or malformed reference set is a ClassificationError; Build
// never hands back a silently empty index.
func Build(ctx context.Context, path string, k int) (*Index, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", core.ErrClassification, k)
	}

	rc, err := seqio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening reference %s: %v", core.ErrClassification, path, err)
	}
	defer rc.Close()

	ix := &Index{k: k, table: make(map[string][]int32)}
	taxonIDs := make(map[string]int32)

	err = seqio.StreamFasta(ctx, rc, func(rec seqio.FastaRecord) error {
		lineage, err := ParseLineage(rec.Desc)
		if err != nil {
			return fmt.Errorf("%w: reference record %s: %v", core.ErrClassification, rec.ID, err)
		}
		id, ok := taxonIDs[lineage.Species]
		if !ok {
			id = int32(len(ix.taxa))
			ix.taxa = append(ix.taxa, lineage)
			taxonIDs[lineage.Species] = id
		}
		ix.addSequence(strings.ToUpper(rec.Seq), id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(ix.table) == 0 {
		return nil, fmt.Errorf("%w: %s yielded no indexable %d-mers", core.ErrEmptyReference, path, k)
	}
	return ix, nil
}

func (ix *Index) addSequence(seq string, id int32) {
	for i := 0; i+ix.k <= len(seq); i++ {
		kmer := seq[i : i+ix.k]
		if !isACGT(kmer) {
			continue
		}
		entries := ix.table[kmer]
		if containsID(entries, id) {
			continue
		}
		ix.table[kmer] = append(entries, id)
	}
}

// K is the fixed subsequence length of this index.
func (ix *Index) K() int { return ix.k }

// Lookup returns the distinct candidate taxa for one k-mer, or nil.
func (ix *Index) Lookup(kmer string) []int32 { return ix.table[kmer] }

// Lineage resolves a taxon identifier to its precomputed lineage.
func (ix *Index) Lineage(id int32) taxonomy.Lineage { return ix.taxa[id] }

// Kmers is the number of distinct indexed k-mers.
func (ix *Index) Kmers() int { return len(ix.table) }

// Taxa is the number of distinct reference species.
func (ix *Index) Taxa() int { return len(ix.taxa) }

// ParseLineage parses the six-rank reference annotation, phylum first.
func ParseLineage(desc string) (taxonomy.Lineage, error) {
	parts := strings.Split(desc, ";")
	if len(parts) != 6 {
		return taxonomy.Lineage{}, fmt.Errorf("want 6 semicolon-separated ranks, got %d", len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	l := taxonomy.Lineage{
		Phylum:  parts[0],
		Class:   parts[1],
		Order:   parts[2],
		Family:  parts[3],
		Genus:   parts[4],
		Species: parts[5],
	}
	if l.Species == "" || l.Phylum == "" {
		return taxonomy.Lineage{}, fmt.Errorf("species and phylum ranks must be non-empty in %q", desc)
	}
	return l, nil
}

func isACGT(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

func containsID(ids []int32, id int32) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
