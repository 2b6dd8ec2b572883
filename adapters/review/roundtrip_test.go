package review

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gutcheck/domain/abundance"
	"gutcheck/domain/core"
	"gutcheck/domain/curation"
	"gutcheck/domain/taxonomy"
)

func reviewRecord() curation.Record {
	entry := func(species, phylum, genus string, count int, pct float64, tier curation.Tier) curation.Entry {
		return curation.Entry{
			Abundance: abundance.SpeciesAbundance{
				Species: species,
				Lineage: taxonomy.Lineage{Phylum: phylum, Genus: genus, Species: species},
				Count:   count,
				Percent: pct,
			},
			Tier: tier,
		}
	}
	return curation.Record{
		SampleID: "s1",
		Database: "equine_gut",
		Entries: []curation.Entry{
			entry("Blautia hansenii", "Bacillota", "Blautia", 620, 62.0, curation.TierAutoInclude),
			entry("Mycoplasma equirhinis", "Mycoplasmatota", "Mycoplasma", 300, 30.0, curation.TierManualReview),
			entry("Homo sapiens", "Chordata", "Homo", 80, 8.0, curation.TierAutoExclude),
		},
	}
}

func requireSameTiers(t *testing.T, want, got curation.Record) {
	t.Helper()
	require.Len(t, got.Entries, len(want.Entries))
	for i := range want.Entries {
		assert.Equal(t, want.Entries[i].Abundance.Species, got.Entries[i].Abundance.Species)
		assert.Equal(t, want.Entries[i].Tier, got.Entries[i].Tier)
		assert.Equal(t, want.Entries[i].Decision, got.Entries[i].Decision)
	}
}

func TestRoundTripUnedited(t *testing.T) {
	// Exporting and importing an untouched artifact must reproduce the
	// record exactly, in both supported formats.
	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			rec := reviewRecord()
			path := filepath.Join(t.TempDir(), "curation"+ext)

			require.NoError(t, Export(rec, path))
			out, ignored, err := Import(rec, path)
			require.NoError(t, err)
			assert.Empty(t, ignored)
			requireSameTiers(t, rec, out)
		})
	}
}

func TestImportAppliesManualDecision(t *testing.T) {
	rec := reviewRecord()
	path := filepath.Join(t.TempDir(), "curation.csv")

	edited := "species,phylum,genus,count,percent,tier,decision,notes\n" +
		"Blautia hansenii,Bacillota,Blautia,620,62,auto-include,,\n" +
		"Mycoplasma equirhinis,Mycoplasmatota,Mycoplasma,300,30,manual-review,yes,known equine pathogen\n" +
		"Homo sapiens,Chordata,Homo,80,8,auto-exclude,,\n"
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	out, ignored, err := Import(rec, path)
	require.NoError(t, err)
	assert.Empty(t, ignored)
	assert.Equal(t, curation.DecisionYes, out.Entries[1].Decision)
	assert.Equal(t, "known equine pathogen", out.Entries[1].Notes)
}

func TestImportIgnoresDecisionOutsideReviewTier(t *testing.T) {
	rec := reviewRecord()
	path := filepath.Join(t.TempDir(), "curation.csv")

	edited := "species,phylum,genus,count,percent,tier,decision,notes\n" +
		"Homo sapiens,Chordata,Homo,80,8,auto-exclude,YES,please keep\n"
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	out, ignored, err := Import(rec, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Homo sapiens"}, ignored)
	assert.Equal(t, curation.TierAutoExclude, out.Entries[2].Tier)
	assert.Equal(t, curation.DecisionNone, out.Entries[2].Decision)
}

func TestImportRejectsUnknownSpecies(t *testing.T) {
	rec := reviewRecord()
	path := filepath.Join(t.TempDir(), "curation.csv")

	edited := "species,phylum,genus,count,percent,tier,decision,notes\n" +
		"Invented species,Bacillota,Blautia,10,1,manual-review,YES,\n"
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	_, _, err := Import(rec, path)
	require.True(t, core.IsReviewImportError(err), "got %v", err)
}

func TestImportRejectsMalformedDecision(t *testing.T) {
	rec := reviewRecord()
	path := filepath.Join(t.TempDir(), "curation.csv")

	edited := "species,phylum,genus,count,percent,tier,decision,notes\n" +
		"Mycoplasma equirhinis,Mycoplasmatota,Mycoplasma,300,30,manual-review,MAYBE,\n"
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	_, _, err := Import(rec, path)
	require.True(t, core.IsReviewImportError(err), "got %v", err)
}

func TestImportMissingArtifact(t *testing.T) {
	_, _, err := Import(reviewRecord(), "/nonexistent/curation.csv")
	require.True(t, core.IsInputError(err), "got %v", err)
}
