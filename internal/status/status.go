// Package status exposes a small operator endpoint for a running training
// job: liveness plus a progression snapshot including the checkpoint
// directory, the sole recovery point after external termination.
package status

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/motionnets/mptrain/internal/config"
	"github.com/motionnets/mptrain/internal/logger"
)

// State is the shared, mutex-guarded view of run progression. The fit loop
// writes it; the HTTP handlers read it.
type State struct {
	mu sync.Mutex

	experimentID  string
	checkpointDir string
	strategy      string
	startedAt     time.Time

	epoch     int
	step      int
	trainLoss float64
	valLoss   float64
}

// NewState creates the run state for a freshly identified run.
func NewState(experimentID, checkpointDir, strategy string) *State {
	return &State{
		experimentID:  experimentID,
		checkpointDir: checkpointDir,
		strategy:      strategy,
		startedAt:     time.Now(),
		trainLoss:     math.NaN(),
		valLoss:       math.NaN(),
	}
}

// Update records fit-loop progression.
func (s *State) Update(epoch, step int, trainLoss, valLoss float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch = epoch
	s.step = step
	s.trainLoss = trainLoss
	s.valLoss = valLoss
}

// Progression is the JSON shape served to operators.
type Progression struct {
	ExperimentID  string             `json:"experiment_id"`
	CheckpointDir string             `json:"checkpoint_dir,omitempty"`
	Strategy      string             `json:"strategy"`
	StartedAt     time.Time          `json:"started_at"`
	CurrentEpoch  int                `json:"current_epoch"`
	CurrentStep   int                `json:"current_step"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
}

func (s *State) snapshot() Progression {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Progression{
		ExperimentID:  s.experimentID,
		CheckpointDir: s.checkpointDir,
		Strategy:      s.strategy,
		StartedAt:     s.startedAt,
		CurrentEpoch:  s.epoch,
		CurrentStep:   s.step,
		Metrics:       make(map[string]float64, 2),
	}
	if !math.IsNaN(s.trainLoss) {
		p.Metrics["train_loss"] = s.trainLoss
	}
	if !math.IsNaN(s.valLoss) {
		p.Metrics["val_loss"] = s.valLoss
	}
	return p
}

// Server serves the status endpoint.
type Server struct {
	cfg   config.StatusConfig
	state *State
	srv   *http.Server
	log   *logger.Logger
}

// NewServer creates a status server over the given run state.
func NewServer(cfg config.StatusConfig, state *State, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, state.snapshot())
	})

	return &Server{
		cfg:   cfg,
		state: state,
		srv:   &http.Server{Addr: cfg.Addr, Handler: router},
		log:   log.WithComponent("status"),
	}
}

// Start begins serving in the background.
func (s *Server) Start() {
	s.log.Info("status endpoint listening", logger.Fields("addr", s.cfg.Addr))
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("status endpoint stopped", logger.ErrorFields("serve", err))
		}
	}()
}

// Stop shuts the endpoint down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
