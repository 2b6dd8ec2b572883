package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors (fatal at batch start)
	ErrConfig           = errors.New("invalid configuration")
	ErrMissingThreshold = fmt.Errorf("%w: missing required threshold", ErrConfig)
	ErrUnknownDatabase  = fmt.Errorf("%w: unknown database", ErrConfig)

	// Input errors (fail the affected sample only)
	ErrInput         = errors.New("malformed input")
	ErrMissingColumn = fmt.Errorf("%w: required column absent", ErrInput)
	ErrNegativeCount = fmt.Errorf("%w: negative abundance count", ErrInput)

	// Classification errors (fatal at batch start, every sample depends on the index)
	ErrClassification = errors.New("classification index unusable")
	ErrEmptyReference = fmt.Errorf("%w: reference set is empty", ErrClassification)

	// Per-sample computation errors
	ErrZeroAbundance = errors.New("no classified abundance to aggregate")

	// Review boundary errors
	ErrReviewImport   = errors.New("review import rejected")
	ErrUnknownSpecies = fmt.Errorf("%w: species not present in curation record", ErrReviewImport)

	// Transient I/O, eligible for bounded retry
	ErrTransient = errors.New("transient i/o failure")
)

// Error constructors with context
func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfig, field, reason)
}

func NewInputError(source string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInput, source, reason)
}

func NewZeroAbundanceError(sampleID string) error {
	return fmt.Errorf("%w: sample %s", ErrZeroAbundance, sampleID)
}

func NewReviewImportError(species string) error {
	return fmt.Errorf("%w: %q", ErrUnknownSpecies, species)
}

// Error checking helpers
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrInput)
}

func IsClassificationError(err error) bool {
	return errors.Is(err, ErrClassification)
}

func IsZeroAbundanceError(err error) bool {
	return errors.Is(err, ErrZeroAbundance)
}

func IsReviewImportError(err error) bool {
	return errors.Is(err, ErrReviewImport)
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
