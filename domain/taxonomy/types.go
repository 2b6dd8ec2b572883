package taxonomy

import "strings"

// Lineage is the ordered classification path attached to a reference
// sequence or a classified read.
type Lineage struct {
	Phylum  string `json:"phylum"`
	Class   string `json:"class"`
	Order   string `json:"order"`
	Family  string `json:"family"`
	Genus   string `json:"genus"`
	Species string `json:"species"`
}

// String renders the lineage phylum-first, semicolon separated.
func (l Lineage) String() string {
	return strings.Join([]string{l.Phylum, l.Class, l.Order, l.Family, l.Genus, l.Species}, ";")
}

// Text returns a lowercased blob of every rank, used for substring
// matching of curation include patterns.
func (l Lineage) Text() string {
	return strings.ToLower(l.String())
}

// Read is a single validated sequencing read. Quality is the raw
// phred+33 string and may be empty for FASTA sources.
type Read struct {
	ID       string
	Sequence string
	Quality  string
	Source   string
}

// MeanQuality returns the mean phred score of the read, or 0 when no
// quality string is present.
func (r Read) MeanQuality() float64 {
	if len(r.Quality) == 0 {
		return 0
	}
	sum := 0
	for i := 0; i < len(r.Quality); i++ {
		sum += int(r.Quality[i]) - 33
	}
	return float64(sum) / float64(len(r.Quality))
}

// UnclassifiedReason explains why a read produced no taxonomic hit.
type UnclassifiedReason string

const (
	ReasonTooShort      UnclassifiedReason = "too-short"
	ReasonLowConfidence UnclassifiedReason = "low-confidence"
	ReasonAmbiguous     UnclassifiedReason = "ambiguous"
)

// Hit is a successful per-read classification.
type Hit struct {
	ReadID     string  `json:"read_id"`
	Lineage    Lineage `json:"lineage"`
	Confidence float64 `json:"confidence"`
	ReadLength int     `json:"read_length"`
}

// Classification is the outcome of classifying one read: either Hit is
// non-nil, or Reason says why the read stayed unclassified. Exactly one
// Classification is produced per read that enters a classifier.
type Classification struct {
	Hit    *Hit
	Reason UnclassifiedReason
}

// Classified reports whether the read was assigned a taxon.
func (c Classification) Classified() bool { return c.Hit != nil }
