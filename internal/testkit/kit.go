// Package testkit holds shared fixtures for pipeline tests.
package testkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gutcheck/domain/abundance"
	"gutcheck/domain/curation"
	"gutcheck/domain/taxonomy"
)

// RefSeq is one reference sequence used to build a test index.
type RefSeq struct {
	ID      string
	Lineage taxonomy.Lineage
	Seq     string
}

// WriteReferenceFasta writes reference sequences in the index builder's
// annotated FASTA format and returns the file path.
func WriteReferenceFasta(t *testing.T, refs []RefSeq) string {
	t.Helper()
	var b strings.Builder
	for _, r := range refs {
		l := r.Lineage
		fmt.Fprintf(&b, ">%s %s;%s;%s;%s;%s;%s\n%s\n",
			r.ID, l.Phylum, l.Class, l.Order, l.Family, l.Genus, l.Species, r.Seq)
	}
	return WriteFile(t, "ref.fasta", b.String())
}

// WriteFastq writes four-line FASTQ records and returns the file path.
// Quality defaults to phred 30 ("?") for every base when qual is empty.
func WriteFastq(t *testing.T, name string, reads []taxonomy.Read) string {
	t.Helper()
	var b strings.Builder
	for _, r := range reads {
		q := r.Quality
		if q == "" {
			q = strings.Repeat("?", len(r.Sequence))
		}
		fmt.Fprintf(&b, "@%s\n%s\n+\n%s\n", r.ID, r.Sequence, q)
	}
	return WriteFile(t, name, b.String())
}

// WriteFile drops content into the test's temp dir.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}

// Lineage builds a full lineage for a species under the given phylum
// and genus, filling the middle ranks with derived placeholders.
func Lineage(phylum, genus, species string) taxonomy.Lineage {
	return taxonomy.Lineage{
		Phylum:  phylum,
		Class:   phylum + "ia",
		Order:   phylum + "ales",
		Family:  genus + "aceae",
		Genus:   genus,
		Species: species,
	}
}

// Abundance builds one abundance row.
func Abundance(phylum, genus, species string, count int, percent float64) abundance.SpeciesAbundance {
	return abundance.SpeciesAbundance{
		Species: species,
		Lineage: Lineage(phylum, genus, species),
		Count:   count,
		Percent: percent,
	}
}

// Rules builds a minimal valid rule set for one database.
func Rules(database string, minAbundance float64) curation.Rules {
	min := minAbundance
	return curation.Rules{
		Database:     database,
		Path:         "/refs/" + database + ".fasta",
		MinAbundance: &min,
	}
}
