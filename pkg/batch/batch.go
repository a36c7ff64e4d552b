// Package batch runs one badge-photo generation batch: budget gate, gender
// split, sequential retried generation, manifest and spend write-back.
package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pario-ai/badgeshot/pkg/budget"
	"github.com/pario-ai/badgeshot/pkg/dimension"
	"github.com/pario-ai/badgeshot/pkg/diversity"
	"github.com/pario-ai/badgeshot/pkg/imageio"
	"github.com/pario-ai/badgeshot/pkg/logging"
	"github.com/pario-ai/badgeshot/pkg/manifest"
	"github.com/pario-ai/badgeshot/pkg/models"
	"github.com/pario-ai/badgeshot/pkg/prompt"
	"github.com/pario-ai/badgeshot/pkg/provider"
	"github.com/pario-ai/badgeshot/pkg/retry"
	"github.com/pario-ai/badgeshot/pkg/tracker"
)

// AttemptLogger records provider call attempts. *audit.Logger implements it.
type AttemptLogger interface {
	Log(ctx context.Context, entry models.AuditEntry) error
}

// Options wires an Orchestrator. Provider and ConfigPath are required.
type Options struct {
	Provider   provider.Provider
	Budget     models.BudgetState
	ConfigPath string
	Retry      retry.Policy

	Logger  *zap.Logger
	Tracker tracker.Tracker
	Audit   AttemptLogger
	KeyHash string
	Version string

	// Rand drives diversity attributes and dimension draws.
	Rand *rand.Rand
	// Sleep replaces the retry timer.
	Sleep retry.SleepFunc
	Now   func() time.Time
}

// Summary is the outcome of a run that passed setup.
type Summary struct {
	RunID           string
	Requested       int
	Succeeded       int
	Failed          int
	MaleCount       int
	FemaleCount     int
	AbortedByBudget bool
	Interrupted     bool
	EstimatedCost   float64
	Cost            float64
	SpentAfter      float64
	ManifestPath    string
	Decision        budget.Decision
	Report          string
	Manifest        *models.Manifest
}

// Orchestrator runs batches against one provider.
type Orchestrator struct {
	opts Options
	log  *zap.Logger
	div  *diversity.Generator
	rng  *rand.Rand
	now  func() time.Time
}

// New validates opts and returns an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Provider == nil {
		return nil, errors.New("batch: provider is required")
	}
	if opts.ConfigPath == "" {
		return nil, errors.New("batch: config path is required")
	}
	if err := opts.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}

	o := &Orchestrator{opts: opts, log: opts.Logger, rng: opts.Rand, now: opts.Now}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.now == nil {
		o.now = time.Now
	}
	o.div = diversity.New(o.rng)
	return o, nil
}

// Split returns the male and female counts for a batch of count images.
// Odd counts round males up.
func Split(count int) (male, female int) {
	return (count + 1) / 2, count / 2
}

// setup holds the validated form of GenerationParams.
type setup struct {
	format string
}

func validate(params models.GenerationParams) (*setup, error) {
	if params.Count < 1 {
		return nil, fmt.Errorf("count must be >= 1, got %d", params.Count)
	}
	if params.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if _, err := prompt.Template(params.Style); err != nil {
		return nil, err
	}
	format, err := imageio.NormalizeFormat(params.Format)
	if err != nil {
		return nil, err
	}
	if _, err := dimension.Parse(params.MinSize); err != nil {
		return nil, err
	}
	if _, err := dimension.Parse(params.MaxSize); err != nil {
		return nil, err
	}
	return &setup{format: format}, nil
}

// Run executes one batch. The returned error is non-nil only for setup,
// budget denial and finalization failures; per-image failures are counted in
// the Summary. On budget denial the Summary carries the decision and report.
func (o *Orchestrator) Run(ctx context.Context, params models.GenerationParams) (*Summary, error) {
	st, err := validate(params)
	if err != nil {
		return nil, err
	}

	p := o.opts.Provider
	state := o.opts.Budget
	estimated := p.EstimateCost(params.Count)
	decision := budget.Check(state, estimated)

	sum := &Summary{
		Requested:     params.Count,
		EstimatedCost: estimated,
		Decision:      decision,
		Report:        budget.FormatReport(state.Total, state.Spent, estimated),
	}
	o.log.Info("budget checked",
		zap.String("status", string(decision.Status)),
		zap.Float64("estimated_cost", estimated),
		zap.Float64("remaining", decision.Remaining))

	if !decision.Allowed {
		return sum, fmt.Errorf("%w: %s", budget.ErrBudgetExceeded, decision.Message)
	}
	if params.DryRun {
		return sum, nil
	}

	sum.MaleCount, sum.FemaleCount = Split(params.Count)
	for _, g := range models.Genders {
		if err := os.MkdirAll(filepath.Join(params.OutputDir, string(g)), 0o755); err != nil {
			return sum, fmt.Errorf("create output dir: %w", err)
		}
	}

	sum.RunID = uuid.NewString()
	started := o.now()
	o.recordRunStart(ctx, sum, params, st.format, started)

	perImage := estimated / float64(params.Count)
	supported := p.SupportedDimensions()
	log := o.log.With(zap.String("run_id", sum.RunID))
	var results []models.ImageResult

	for i := 0; i < params.Count; i++ {
		if ctx.Err() != nil {
			sum.Interrupted = true
			log.Warn("batch interrupted", zap.Int("index", i), zap.Error(ctx.Err()))
			break
		}

		gender := models.Female
		if i < sum.MaleCount {
			gender = models.Male
		}

		res, err := o.generateOne(ctx, log, sum.RunID, i, gender, params, st, supported)
		if err == nil {
			results = append(results, *res)
			continue
		}

		sum.Failed++
		log.Warn("image failed after retries",
			zap.Int("index", i),
			zap.String("gender", string(gender)),
			zap.String("error_kind", string(provider.KindOf(err))),
			zap.Error(err))

		running := state.Spent + float64(len(results))*perImage
		if running >= state.Total {
			sum.AbortedByBudget = true
			log.Warn("aborting batch: running cost estimate reached budget",
				zap.Float64("running_estimate", running),
				zap.Float64("total", state.Total))
			break
		}
	}

	return sum, o.finalize(ctx, log, sum, params, st.format, results, perImage, started)
}

func (o *Orchestrator) generateOne(ctx context.Context, log *zap.Logger, runID string, index int,
	gender models.Gender, params models.GenerationParams, st *setup, supported []models.Dimension,
) (*models.ImageResult, error) {
	text, err := prompt.Build(params.Style, o.div.Attributes(gender))
	if err != nil {
		return nil, err
	}
	dim, err := dimension.Select(params.MinSize, params.MaxSize, supported, o.rng)
	if err != nil {
		return nil, err
	}
	req := models.GenerationRequest{Prompt: text, Width: dim.Width, Height: dim.Height, Style: params.Style}

	p := o.opts.Provider
	attempt := 0
	call := func(ctx context.Context) (*provider.Result, error) {
		attempt++
		start := o.now()
		res, err := p.GenerateImage(ctx, req)
		o.recordAttempt(ctx, runID, attempt, req, dim, start, err)
		return res, err
	}

	retryOpts := []retry.Option{
		retry.WithLogger(log),
		retry.WithStopOn(provider.IsFatal),
		retry.WithOnRetry(func(n int, err error, delay time.Duration) {
			log.Info("retrying image",
				zap.Int("index", index),
				zap.Int("attempt", n),
				zap.Duration("delay", delay),
				zap.String("error_kind", string(provider.KindOf(err))))
		}),
	}
	if o.opts.Sleep != nil {
		retryOpts = append(retryOpts, retry.WithSleep(o.opts.Sleep))
	}

	res, err := retry.Do(ctx, o.opts.Retry, call, retryOpts...)
	if err != nil {
		return nil, err
	}

	enc, err := imageio.Convert(res.Image, st.format, dim.Width, dim.Height)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	id := uuid.NewString()
	path := filepath.Join(params.OutputDir, string(gender), id+"."+st.format)
	if err := imageio.Save(path, enc.Data); err != nil {
		return nil, err
	}

	now := o.now()
	result := &models.ImageResult{
		ID:     id,
		Gender: gender,
		Path:   path,
		Dimensions: models.ImageDimensions{
			Width:        dim.Width,
			Height:       dim.Height,
			RequestedMin: params.MinSize,
			RequestedMax: params.MaxSize,
			ActualSize:   models.Dimension{Width: enc.Width, Height: enc.Height}.String(),
		},
		Prompt:      text,
		Style:       params.Style,
		GeneratedAt: now.UTC(),
		Provider:    res.Provider,
		Model:       res.Model,
	}
	log.Info("image saved",
		zap.Int("index", index),
		zap.String("id", id),
		zap.String("gender", string(gender)),
		zap.String("size", dim.String()),
		zap.Int("attempts", attempt))

	if o.opts.Tracker != nil {
		err := o.opts.Tracker.RecordImage(context.WithoutCancel(ctx), models.ImageRecord{
			ID: id, RunID: runID, Gender: gender, Path: path,
			Width: enc.Width, Height: enc.Height, Prompt: text, CreatedAt: now,
		})
		if err != nil {
			log.Warn("history: record image", zap.Error(err))
		}
	}
	return result, nil
}

// finalize writes the manifest and then the spend. Images are already on
// disk, so a failure here loses bookkeeping only.
func (o *Orchestrator) finalize(ctx context.Context, log *zap.Logger, sum *Summary, params models.GenerationParams,
	format string, results []models.ImageResult, perImage float64, started time.Time,
) error {
	sum.Succeeded = len(results)
	sum.Cost = float64(len(results)) * perImage

	m := manifest.Build(results, params.Style, format, sum.Cost, o.opts.Version, o.now())
	sum.Manifest = &m
	path, err := manifest.Write(params.OutputDir, m)
	if err != nil {
		return err
	}
	sum.ManifestPath = path

	spent, err := budget.PersistSpend(o.opts.ConfigPath, sum.Cost)
	if err != nil {
		return err
	}
	sum.SpentAfter = spent

	if o.opts.Tracker != nil {
		err := o.opts.Tracker.FinishRun(context.WithoutCancel(ctx), models.RunRecord{
			ID:              sum.RunID,
			Succeeded:       sum.Succeeded,
			Failed:          sum.Failed,
			ActualCost:      sum.Cost,
			AbortedByBudget: sum.AbortedByBudget,
			FinishedAt:      o.now(),
		})
		if err != nil {
			log.Warn("history: finish run", zap.Error(err))
		}
	}

	log.Info("batch complete",
		zap.Int("requested", sum.Requested),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
		zap.Bool("aborted_by_budget", sum.AbortedByBudget),
		zap.Float64("cost", sum.Cost),
		zap.Duration("elapsed", o.now().Sub(started)))
	return nil
}

func (o *Orchestrator) recordRunStart(ctx context.Context, sum *Summary, params models.GenerationParams, format string, started time.Time) {
	if o.opts.Tracker == nil {
		return
	}
	err := o.opts.Tracker.StartRun(context.WithoutCancel(ctx), models.RunRecord{
		ID:            sum.RunID,
		Provider:      o.opts.Provider.Name(),
		Model:         o.opts.Provider.Model(),
		Style:         params.Style,
		Format:        format,
		OutputDir:     params.OutputDir,
		Requested:     params.Count,
		EstimatedCost: sum.EstimatedCost,
		StartedAt:     started,
	})
	if err != nil {
		o.log.Warn("history: start run", zap.Error(err))
	}
}

func (o *Orchestrator) recordAttempt(ctx context.Context, runID string, attempt int, req models.GenerationRequest,
	dim models.Dimension, start time.Time, callErr error,
) {
	if o.opts.Audit == nil {
		return
	}
	entry := models.AuditEntry{
		RequestID:  uuid.NewString(),
		RunID:      runID,
		Provider:   o.opts.Provider.Name(),
		Model:      o.opts.Provider.Model(),
		KeyHash:    o.opts.KeyHash,
		Attempt:    attempt,
		Prompt:     req.Prompt,
		Size:       dim.String(),
		StatusCode: 200,
		LatencyMs:  o.now().Sub(start).Milliseconds(),
		CreatedAt:  start,
	}
	if callErr != nil {
		entry.StatusCode = 0
		entry.ErrorKind = string(provider.KindOf(callErr))
		entry.ErrorMessage = logging.Redact(callErr.Error())
		var pe *provider.Error
		if errors.As(callErr, &pe) {
			entry.StatusCode = pe.StatusCode
		}
	}
	// Ledger and audit writes are detached so an interrupted run still
	// records what it already produced.
	if err := o.opts.Audit.Log(context.WithoutCancel(ctx), entry); err != nil {
		o.log.Warn("audit: log attempt", zap.Error(err))
	}
}
