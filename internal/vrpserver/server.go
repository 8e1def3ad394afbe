// Package vrpserver is the thin HTTP binding mentioned in spec.md §1 as
// "the language-binding wrapper that exposes the core to a host
// runtime," made concrete here as a small labstack/echo/v4 service:
// POST /solve runs one Solve call against a posted ProblemData+Options
// body, and GET /runs/:id reads back a previously persisted run from
// internal/rundb. It adapts the teacher's internal/server+internal/handlers
// split (a Server holding its dependencies, route registration in one
// place, JSON in/out at the handler boundary) to echo's router instead of
// net/http's ServeMux.
package vrpserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	vrpsolve "github.com/aryanbinazir/vrpsolve"
	"github.com/aryanbinazir/vrpsolve/internal/rundb"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// Config holds server configuration.
type Config struct {
	Addr   string // e.g. "127.0.0.1:8080"
	DBPath string // run-history SQLite file; rundb.DefaultDBFileName if empty
}

// Server wraps the echo engine and the run-history store.
type Server struct {
	echo *echo.Echo
	db   *rundb.DB
	addr string
}

// New creates and wires a Server. It does not start listening.
func New(cfg Config) (*Server, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = rundb.DefaultDBFileName
	}

	log.Printf("[VRPSERVER] opening run database %s", dbPath)
	db, err := rundb.New(dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "vrpserver: open run database")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{echo: e, db: db, addr: cfg.Addr}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.POST("/solve", s.handleSolve)
	s.echo.GET("/runs/:id", s.handleGetRun)
	s.echo.GET("/runs", s.handleListRuns)
	s.echo.GET("/healthz", s.handleHealth)
}

// Start blocks serving on the server's configured address until it is
// shut down or an unrecoverable listener error occurs.
func (s *Server) Start() error {
	log.Printf("[VRPSERVER] listening on %s", s.addr)
	err := s.echo.Start(s.addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP listener and closes the run database.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	return s.db.Close()
}

// solveRequest is the POST /solve body: a ProblemData value plus the
// scalar subset of vrpsolve.Options that makes sense over the wire
// (StopFn/NowFn are constructor-only, per §6's "synthesized from scalar
// limits" fallback).
type solveRequest struct {
	Problem           vrpcore.ProblemData `json:"problem"`
	Seed              uint64              `json:"seed"`
	MaxIterations     int                 `json:"max_iterations"`
	MaxRuntimeSeconds float64             `json:"max_runtime_seconds"`
	NeighbourhoodK    int                 `json:"neighbourhood_k"`
	ProblemName       string              `json:"problem_name"`
}

type solveResponse struct {
	RunID       string            `json:"run_id"`
	Solution    *vrpcore.Solution `json:"solution"`
	Stats       statsView         `json:"stats"`
	RuntimeMS   int64             `json:"runtime_ms"`
}

type statsView struct {
	NumIterations int           `json:"num_iterations"`
	Improvements  int           `json:"improvements"`
	Restarts      int           `json:"restarts"`
	InitialCost   vrpcore.Cost  `json:"initial_cost"`
	FinalCost     vrpcore.Cost  `json:"final_cost"`
}

func (s *Server) handleSolve(c echo.Context) error {
	var req solveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	runID := uuid.New().String()
	start := time.Now()

	opts := vrpsolve.Options{
		Seed:              req.Seed,
		MaxIterations:     req.MaxIterations,
		MaxRuntimeSeconds: req.MaxRuntimeSeconds,
		NowFn:             nowSeconds,
		NeighbourhoodK:    req.NeighbourhoodK,
	}
	if opts.MaxIterations == 0 && opts.MaxRuntimeSeconds == 0 {
		opts.MaxIterations = 2000
	}

	result, err := vrpsolve.Solve(&req.Problem, opts)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	elapsed := time.Since(start)

	record := rundb.FromStats(runID, req.ProblemName, req.Seed, result.Stats, result.BestSolution, elapsed)
	if err := s.db.Runs.Insert(c.Request().Context(), record); err != nil {
		log.Printf("[VRPSERVER] persist run %s: %v", runID, err)
	}

	return c.JSON(http.StatusOK, solveResponse{
		RunID:    runID,
		Solution: result.BestSolution,
		Stats: statsView{
			NumIterations: result.Stats.NumIterations,
			Improvements:  result.Stats.Improvements,
			Restarts:      result.Stats.Restarts,
			InitialCost:   result.Stats.InitialCost,
			FinalCost:     result.Stats.FinalCost,
		},
		RuntimeMS: elapsed.Milliseconds(),
	})
}

func (s *Server) handleGetRun(c echo.Context) error {
	run, err := s.db.Runs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	return c.JSON(http.StatusOK, run)
}

func (s *Server) handleListRuns(c echo.Context) error {
	runs, err := s.db.Runs.List(c.Request().Context(), 50)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.db.HealthCheck(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
