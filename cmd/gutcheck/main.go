package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"gutcheck/adapters/extclassify"
	"gutcheck/adapters/kmer"
	"gutcheck/adapters/postgres"
	"gutcheck/adapters/review"
	"gutcheck/adapters/seqio"
	"gutcheck/adapters/tabular"
	"gutcheck/app"
	"gutcheck/domain/curation"
	"gutcheck/domain/dysbiosis"
	"gutcheck/domain/run"
	"gutcheck/internal"
	"gutcheck/internal/config"
	"gutcheck/internal/diagnose"
	apperrors "gutcheck/internal/errors"
	"gutcheck/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gutcheck",
		Short: "Taxonomic classification, clinical curation, and dysbiosis scoring",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newFilterCmd(),
		newReviewCmd(),
		newValidateCmd(),
		newDiagnoseCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		database  string
		reference string
		k         int
	)

	cmd := &cobra.Command{
		Use:   "run [read-files...]",
		Short: "Run the full pipeline over a batch of samples",
		Long: `Classify, aggregate, filter, and score one sample per read file.

Each file becomes one sample named after its base name. The batch always
completes with a summary covering every sample's terminal state.

Example: gutcheck run --database equine_gut --reference refs/equine.fasta samples/*.fastq.gz`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), database, reference, k, args)
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "Rule database name (required)")
	cmd.Flags().StringVar(&reference, "reference", "", "Reference FASTA for the k-mer index (defaults to the database's configured path)")
	cmd.Flags().IntVar(&k, "k", kmer.DefaultK, "k-mer length for index construction")
	_ = cmd.MarkFlagRequired("database")

	return cmd
}

func runBatch(ctx context.Context, database, reference string, k int, files []string) error {
	log := internal.NewDefaultLogger("gutcheck")

	// Fatal errors abort the whole batch before any sample begins:
	// running under an invalid contract would taint every result.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	databases, err := config.LoadDatabases(cfg.Paths.RulesFile)
	if err != nil {
		return err
	}
	rules, err := config.SelectDatabase(databases, database)
	if err != nil {
		return err
	}

	classifier, cleanup, err := buildClassifier(ctx, cfg, rules, reference, k, log)
	if err != nil {
		return err
	}
	defer cleanup()

	var repository ports.ResultRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
		if err != nil {
			return apperrors.TransientIO("connecting to result store", err)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		repository = postgres.NewResultRepository(db)
	}

	newSource := func(path string) ports.ReadSource {
		return seqio.New(path, seqio.Options{
			MinLength:      cfg.Pipeline.MinReadLength,
			MinMeanQuality: cfg.Pipeline.MinMeanQuality,
		})
	}
	pipeline := app.NewPipeline(newSource, classifier, rules, dysbiosis.DefaultReferenceRanges, log.With("Pipeline"))
	orchestrator := app.NewBatchOrchestrator(
		pipeline, repository,
		cfg.Batch.Workers, cfg.Batch.MaxRetries,
		time.Duration(cfg.Batch.RetryBaseMS)*time.Millisecond,
		log.With("BatchOrchestrator"),
	)

	samples := make([]run.SampleSpec, 0, len(files))
	for _, f := range files {
		id := strings.TrimSuffix(filepath.Base(f), filepath.Ext(filepath.Base(f)))
		samples = append(samples, run.SampleSpec{ID: id, Path: f})
	}

	summary, err := orchestrator.Run(ctx, database, samples)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(os.Stdout).Encode(summary); err != nil {
		return err
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
	return nil
}

func buildClassifier(ctx context.Context, cfg config.Config, rules curation.Rules, reference string, k int, log *internal.Logger) (ports.Classifier, func(), error) {
	if cfg.Backend == config.BackendExternal {
		engine, err := extclassify.Start(ctx, cfg.External.Binary, cfg.External.Args...)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using external classifier %s", cfg.External.Binary)
		return engine, func() { _ = engine.Close() }, nil
	}

	if reference == "" {
		reference = rules.Path
	}
	index, err := kmer.Build(ctx, reference, k)
	if err != nil {
		return nil, nil, err
	}
	log.Info("built %d-mer index: %d kmers over %d taxa", index.K(), index.Kmers(), index.Taxa())
	return kmer.NewClassifier(index, cfg.Pipeline.MinConfidence), func() {}, nil
}

func newFilterCmd() *cobra.Command {
	var (
		table    string
		database string
		barcode  string
		out      string
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Apply a database's curation rules to an abundance table",
		Long: `Partition one barcode's abundance rows into auto-include,
manual-review, and auto-exclude tiers and write the curation record.

Example: gutcheck filter --table abundance.csv --database equine_gut --barcode barcode01 --out record.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			databases, err := config.LoadDatabases(cfg.Paths.RulesFile)
			if err != nil {
				return err
			}
			rules, err := config.SelectDatabase(databases, database)
			if err != nil {
				return err
			}

			t, err := tabular.NewReader(table).Read()
			if err != nil {
				return err
			}
			rows, err := t.SampleAbundances(barcode)
			if err != nil {
				return err
			}
			record, err := curation.ApplyFilter(barcode, rows, rules)
			if err != nil {
				return err
			}
			counts := record.TierCounts()
			fmt.Fprintf(os.Stderr, "%s: %d include, %d review, %d exclude\n",
				barcode, counts[curation.TierAutoInclude], counts[curation.TierManualReview], counts[curation.TierAutoExclude])
			return writeRecord(record, out)
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Abundance table (CSV or xlsx, required)")
	cmd.Flags().StringVar(&database, "database", "", "Rule database name (required)")
	cmd.Flags().StringVar(&barcode, "barcode", "", "Barcode column to curate (required)")
	cmd.Flags().StringVar(&out, "out", "record.json", "Curation record output path")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("database")
	_ = cmd.MarkFlagRequired("barcode")

	return cmd
}

func newReviewCmd() *cobra.Command {
	var (
		record string
		out    string
		apply  string
		score  bool
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Export a curation record for review, or apply reviewed decisions",
		Long: `Without --apply, renders the record as a reviewer-editable artifact
(.xlsx or .csv by extension). With --apply, maps the decision column of a
reviewed artifact back onto the record; --score then computes the
dysbiosis result over the finalized tiers.

Example: gutcheck review --record record.json --out review.xlsx
Example: gutcheck review --record record.json --apply reviewed.xlsx --score`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecord(record)
			if err != nil {
				return err
			}

			if apply == "" {
				if err := review.Export(rec, out); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "wrote %d rows to %s\n", len(rec.Entries), out)
				return nil
			}

			updated, ignored, err := review.Import(rec, apply)
			if err != nil {
				return err
			}
			for _, sp := range ignored {
				fmt.Fprintf(os.Stderr, "warning: decision on non-review row %q ignored\n", sp)
			}
			if err := writeRecord(updated, record); err != nil {
				return err
			}
			if !score {
				return nil
			}
			finalized, err := updated.Finalized()
			if err != nil {
				return err
			}
			result, err := dysbiosis.Score(updated.SampleID, finalized, dysbiosis.DefaultReferenceRanges)
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(result)
		},
	}

	cmd.Flags().StringVar(&record, "record", "", "Curation record JSON (required)")
	cmd.Flags().StringVar(&out, "out", "review.xlsx", "Review artifact output path")
	cmd.Flags().StringVar(&apply, "apply", "", "Reviewed artifact to import")
	cmd.Flags().BoolVar(&score, "score", false, "Score the finalized record after import")
	_ = cmd.MarkFlagRequired("record")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var reference string
	var k int

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check rule configuration and reference index integrity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			databases, err := config.LoadDatabases(cfg.Paths.RulesFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "rules: %d databases ok\n", len(databases))

			if reference != "" {
				index, err := kmer.Build(cmd.Context(), reference, k)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "index: %d kmers over %d taxa ok\n", index.Kmers(), index.Taxa())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reference, "reference", "", "Reference FASTA to verify index construction against")
	cmd.Flags().IntVar(&k, "k", kmer.DefaultK, "k-mer length")

	return cmd
}

func newDiagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Report environment and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			rep := diagnose.Run(cmd.Context(), cfg)
			rep.Write(os.Stdout)
			if !rep.Healthy() {
				os.Exit(1)
			}
			return nil
		},
	}
}

func readRecord(path string) (curation.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return curation.Record{}, apperrors.Wrapf(err, "reading curation record %s", path)
	}
	var rec curation.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return curation.Record{}, apperrors.Wrapf(err, "parsing curation record %s", path)
	}
	return rec, nil
}

func writeRecord(rec curation.Record, path string) error {
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return apperrors.Wrapf(err, "writing curation record %s", path)
	}
	return nil
}
