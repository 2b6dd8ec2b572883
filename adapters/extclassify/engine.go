// Package extclassify adapts an external high-performance classifier
// binary to the Classifier port. The tool is spawned once and spoken
// to over a line protocol: one tab-separated request per read on
// stdin ("<id>\t<sequence>"), one tab-separated response per read on
// stdout, either
//
//	<id>\tC\t<phylum;class;order;family;genus;species>\t<confidence>
//
// for a classification or
//
//	<id>\tU\t<reason>
//
// for an unclassified read.
package extclassify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"gutcheck/adapters/kmer"
	"gutcheck/domain/core"
	"gutcheck/domain/taxonomy"
	"gutcheck/internal/errors"
)

// Engine drives the external process. Requests are serialized on one
// mutex because the protocol is strictly request/response; concurrent
// sample pipelines share a single process.
type Engine struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner

	mu sync.Mutex
}

// Start launches the external classifier. An unlaunchable binary is a
// transient error so the orchestrator may retry batch startup.
func Start(ctx context.Context, binary string, args ...string) (*Engine, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "external classifier stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "external classifier stdout")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.TransientIO("starting external classifier "+binary, err)
	}

	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Engine{cmd: cmd, stdin: stdin, stdout: sc}, nil
}

// Classify sends one read to the external tool and parses its verdict.
func (e *Engine) Classify(ctx context.Context, r taxonomy.Read) (taxonomy.Classification, error) {
	if err := ctx.Err(); err != nil {
		return taxonomy.Classification{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := fmt.Fprintf(e.stdin, "%s\t%s\n", r.ID, r.Sequence); err != nil {
		return taxonomy.Classification{}, errors.TransientIO("writing to external classifier", err)
	}
	if !e.stdout.Scan() {
		if err := e.stdout.Err(); err != nil {
			return taxonomy.Classification{}, errors.TransientIO("reading from external classifier", err)
		}
		return taxonomy.Classification{}, errors.TransientIO("external classifier closed its output", nil)
	}
	return parseResponse(r, e.stdout.Text())
}

func parseResponse(r taxonomy.Read, line string) (taxonomy.Classification, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < 3 || fields[0] != r.ID {
		return taxonomy.Classification{}, core.NewInputError("external classifier", "unparsable response "+strconv.Quote(line))
	}
	switch fields[1] {
	case "U":
		reason := taxonomy.UnclassifiedReason(fields[2])
		switch reason {
		case taxonomy.ReasonTooShort, taxonomy.ReasonLowConfidence, taxonomy.ReasonAmbiguous:
			return taxonomy.Classification{Reason: reason}, nil
		default:
			return taxonomy.Classification{}, core.NewInputError("external classifier", "unknown unclassified reason "+strconv.Quote(fields[2]))
		}
	case "C":
		if len(fields) != 4 {
			return taxonomy.Classification{}, core.NewInputError("external classifier", "classification response wants 4 fields, got "+strconv.Itoa(len(fields)))
		}
		lineage, err := kmer.ParseLineage(fields[2])
		if err != nil {
			return taxonomy.Classification{}, core.NewInputError("external classifier", "bad lineage: "+err.Error())
		}
		confidence, err := strconv.ParseFloat(fields[3], 64)
		if err != nil || confidence < 0 || confidence > 1 {
			return taxonomy.Classification{}, core.NewInputError("external classifier", "confidence out of [0,1]: "+fields[3])
		}
		return taxonomy.Classification{Hit: &taxonomy.Hit{
			ReadID:     r.ID,
			Lineage:    lineage,
			Confidence: confidence,
			ReadLength: len(r.Sequence),
		}}, nil
	default:
		return taxonomy.Classification{}, core.NewInputError("external classifier", "unknown verdict "+strconv.Quote(fields[1]))
	}
}

// Close shuts the tool down and reaps the process.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.stdin.Close()
	return e.cmd.Wait()
}
