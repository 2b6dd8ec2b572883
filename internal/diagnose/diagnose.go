// Package diagnose assembles the environment report behind the
// `gutcheck diagnose` subcommand.
package diagnose

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gutcheck/internal/config"
)

// Check is one named probe result.
type Check struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// Report is the full environment and dependency report.
type Report struct {
	GoVersion string  `json:"go_version"`
	OS        string  `json:"os"`
	Arch      string  `json:"arch"`
	CPUs      int     `json:"cpus"`
	Workers   int     `json:"workers"`
	Checks    []Check `json:"checks"`
}

// Run executes every probe against the loaded configuration.
func Run(ctx context.Context, cfg config.Config) Report {
	rep := Report{
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		Workers:   cfg.Batch.Workers,
	}

	rep.Checks = append(rep.Checks, checkRulesFile(cfg.Paths.RulesFile))
	rep.Checks = append(rep.Checks, checkDatabase(ctx, cfg.Database.URL))
	if cfg.Backend == config.BackendExternal {
		rep.Checks = append(rep.Checks, checkExternal(cfg.External.Binary))
	}
	return rep
}

// Healthy reports whether every probe passed.
func (r Report) Healthy() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Write renders the report human-readably.
func (r Report) Write(w io.Writer) {
	fmt.Fprintf(w, "go:      %s (%s/%s)\n", r.GoVersion, r.OS, r.Arch)
	fmt.Fprintf(w, "cpus:    %d (worker pool: %d)\n", r.CPUs, r.Workers)
	for _, c := range r.Checks {
		status := "ok"
		if !c.OK {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%-24s %-4s %s\n", c.Name, status, c.Detail)
	}
}

func checkRulesFile(path string) Check {
	if _, err := os.Stat(path); err != nil {
		return Check{Name: "rules file", Detail: path + ": " + err.Error()}
	}
	if _, err := config.LoadDatabases(path); err != nil {
		return Check{Name: "rules file", Detail: err.Error()}
	}
	return Check{Name: "rules file", OK: true, Detail: path}
}

func checkDatabase(ctx context.Context, url string) Check {
	if url == "" {
		return Check{Name: "result store", OK: true, Detail: "not configured (persistence disabled)"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return Check{Name: "result store", Detail: err.Error()}
	}
	defer db.Close()
	return Check{Name: "result store", OK: true, Detail: "reachable"}
}

func checkExternal(binary string) Check {
	path, err := exec.LookPath(binary)
	if err != nil {
		return Check{Name: "external classifier", Detail: err.Error()}
	}
	return Check{Name: "external classifier", OK: true, Detail: path}
}
