// Command vrpsolve is the repository's own benchmark harness: it loads a
// ProblemData fixture from JSON, runs one Solve call, logs phase-tagged
// progress the way the teacher's cmd/server logs startup phases, and
// prints a humanized stats report. It also persists the run to the
// internal/rundb store so repeated invocations build up a run history,
// matching §6's "surrounding benchmark harness persists timing and cost
// metrics" note.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	vrpsolve "github.com/aryanbinazir/vrpsolve"
	"github.com/aryanbinazir/vrpsolve/internal/rundb"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("[vrpsolve] fatal: %v", err)
	}
}

func run() error {
	problemPath := flag.String("problem", "", "path to a ProblemData JSON fixture")
	seed := flag.Uint64("seed", 1, "RNG seed")
	maxIterations := flag.Int("max-iterations", 2000, "stop after this many outer iterations (0 disables)")
	maxRuntime := flag.Float64("max-runtime", 10, "stop after this many seconds (0 disables)")
	dbPath := flag.String("db", rundb.DefaultDBFileName, "path to the run-history SQLite database")
	flag.Parse()

	if *problemPath == "" {
		return errors.New("vrpsolve: -problem is required")
	}

	log.Printf("[LOAD] reading problem fixture %s", *problemPath)
	problem, err := loadProblem(*problemPath)
	if err != nil {
		return errors.Wrap(err, "vrpsolve: load problem")
	}

	runID := uuid.New().String()
	log.Printf("[SOLVE] run %s: %d locations, %d vehicle types, seed %d",
		runID, problem.NumLocations(), len(problem.VehicleTypes), *seed)

	opts := vrpsolve.Options{
		Seed:              *seed,
		MaxIterations:     *maxIterations,
		MaxRuntimeSeconds: *maxRuntime,
		NowFn:             nowSeconds,
	}

	start := time.Now()
	result, err := vrpsolve.Solve(problem, opts)
	elapsed := time.Since(start)
	if err != nil {
		return errors.Wrap(err, "vrpsolve: solve")
	}

	report(result, elapsed)

	db, err := rundb.New(*dbPath)
	if err != nil {
		return errors.Wrap(err, "vrpsolve: open run database")
	}
	defer db.Close()

	record := rundb.FromStats(runID, *problemPath, *seed, result.Stats, result.BestSolution, elapsed)
	if err := db.Runs.Insert(context.Background(), record); err != nil {
		return errors.Wrap(err, "vrpsolve: persist run")
	}
	log.Printf("[DONE] run %s persisted to %s", runID, *dbPath)
	return nil
}

func report(result vrpsolve.SolveResult, elapsed time.Duration) {
	stats := result.Stats
	sol := result.BestSolution
	log.Printf("[STATS] iterations=%s improvements=%s restarts=%s",
		humanize.Comma(int64(stats.NumIterations)),
		humanize.Comma(int64(stats.Improvements)),
		humanize.Comma(int64(stats.Restarts)))
	log.Printf("[STATS] initial_cost=%s final_cost=%s runtime=%s",
		humanize.Comma(int64(stats.InitialCost)),
		humanize.Comma(int64(stats.FinalCost)),
		elapsed.Round(time.Millisecond))
	log.Printf("[RESULT] feasible=%v routes=%d unassigned=%d distance=%s",
		sol.IsFeasible(), sol.NumRoutes, len(sol.Unassigned), humanize.Comma(int64(sol.Distance)))
}

func loadProblem(path string) (*vrpcore.ProblemData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var problem vrpcore.ProblemData
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&problem); err != nil {
		return nil, fmt.Errorf("decode problem fixture: %w", err)
	}
	return &problem, nil
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
