package transcoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"vidserve/internal/encoder"
	"vidserve/internal/logging"
	"vidserve/internal/metrics"
	"vidserve/internal/workers"

	"github.com/google/uuid"
)

// ErrBusy is returned when every encode slot is occupied. Encodes block their
// request for the whole process lifetime, so saturation rejects instead of
// queueing.
var ErrBusy = errors.New("all encode slots are busy")

// ProcessError reports a nonzero encoder exit. The captured output is the
// bounded tail of the merged stdout/stderr stream.
type ProcessError struct {
	ExitCode int
	Output   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("encoder exited with code %d", e.ExitCode)
}

// Result describes one encoded rung.
type Result struct {
	Resolution      int    `json:"resolution"`
	ElapsedMs       int64  `json:"elapsedMs"`
	OutputSizeBytes int64  `json:"outputSizeBytes"`
	OutputPath      string `json:"-"`
}

// Transcoder owns the lifecycle of encode requests: scratch files, the
// external encoder process, timing, and cleanup. Each encode runs as an
// independent OS process; admission is bounded by a slot semaphore so
// saturated capacity is rejected up front.
type Transcoder struct {
	scratchDir string
	ffmpegPath string
	slots      *workers.Semaphore
}

// New creates a Transcoder writing scratch files under scratchDir.
// ffmpegPath defaults to "ffmpeg" (resolved via PATH); maxConcurrent < 1
// defaults to one slot per CPU.
func New(scratchDir, ffmpegPath string, maxConcurrent int) (*Transcoder, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if maxConcurrent < 1 {
		maxConcurrent = workers.ForCPU(0)
	}

	dir, err := filepath.Abs(scratchDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scratch directory %q: %w", scratchDir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory %q: %w", dir, err)
	}

	return &Transcoder{
		scratchDir: dir,
		ffmpegPath: ffmpegPath,
		slots:      workers.NewSemaphore(maxConcurrent),
	}, nil
}

// ScratchDir returns the absolute scratch directory.
func (t *Transcoder) ScratchDir() string {
	return t.scratchDir
}

// Slots exposes the admission gate, mainly for observability.
func (t *Transcoder) Slots() *workers.Semaphore {
	return t.slots
}

// EncodeSingle persists the upload to scratch, runs one single-rung encode
// and returns its metrics. The temp input is deleted best-effort on every
// path; plan outputs are removed if the process fails so a broken artifact
// can never be mistaken for a finished one.
func (t *Transcoder) EncodeSingle(ctx context.Context, upload io.Reader, job encoder.Job) (*Result, error) {
	if !t.slots.TryAcquire() {
		metrics.EncodeJobsRejected.Inc()
		return nil, ErrBusy
	}
	defer t.slots.Release()

	inputPath, err := t.persistInput(upload)
	if err != nil {
		metrics.EncodeJobsTotal.WithLabelValues("single", "error").Inc()
		return nil, err
	}
	defer t.removeQuietly(inputPath)

	job.InputPath = inputPath
	outputPath := filepath.Join(t.scratchDir,
		fmt.Sprintf("encoded_%s_%dp_%d.mp4", job.Codec, job.Resolution, time.Now().UnixMilli()))

	plan, err := encoder.BuildSingle(job, outputPath)
	if err != nil {
		metrics.EncodeJobsTotal.WithLabelValues("single", "error").Inc()
		return nil, err
	}

	elapsed, err := t.run(ctx, plan)
	if err != nil {
		metrics.EncodeJobsTotal.WithLabelValues("single", "error").Inc()
		return nil, err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		metrics.EncodeJobsTotal.WithLabelValues("single", "error").Inc()
		return nil, fmt.Errorf("failed to stat encoder output %s: %w", outputPath, err)
	}

	metrics.EncodeJobsTotal.WithLabelValues("single", "success").Inc()
	metrics.EncodeJobDuration.WithLabelValues("single").Observe(elapsed.Seconds())
	metrics.EncodeOutputBytes.WithLabelValues(strconv.Itoa(job.Resolution)).Add(float64(info.Size()))

	return &Result{
		Resolution:      job.Resolution,
		ElapsedMs:       elapsed.Milliseconds(),
		OutputSizeBytes: info.Size(),
		OutputPath:      outputPath,
	}, nil
}

// EncodeLadder runs one multi-rung encode as a single encoder invocation and
// returns per-rung results, highest rung first. A rung whose output file is
// missing after a clean exit contributes size zero with a logged warning
// instead of failing the whole request. Every rung carries the shared
// wall-clock time of the invocation, since the decode cost is amortized
// across the ladder.
func (t *Transcoder) EncodeLadder(ctx context.Context, upload io.Reader, job encoder.Job) ([]Result, error) {
	if !t.slots.TryAcquire() {
		metrics.EncodeJobsRejected.Inc()
		return nil, ErrBusy
	}
	defer t.slots.Release()

	inputPath, err := t.persistInput(upload)
	if err != nil {
		metrics.EncodeJobsTotal.WithLabelValues("ladder", "error").Inc()
		return nil, err
	}
	defer t.removeQuietly(inputPath)

	job.InputPath = inputPath
	baseOutput := filepath.Join(t.scratchDir,
		fmt.Sprintf("encoded_%s_%d.mp4", job.Codec, time.Now().UnixMilli()))

	plan, err := encoder.BuildLadder(job, baseOutput)
	if err != nil {
		metrics.EncodeJobsTotal.WithLabelValues("ladder", "error").Inc()
		return nil, err
	}

	elapsed, err := t.run(ctx, plan)
	if err != nil {
		metrics.EncodeJobsTotal.WithLabelValues("ladder", "error").Inc()
		return nil, err
	}

	results := make([]Result, 0, len(plan.Outputs))
	for _, out := range plan.Outputs {
		var size int64
		if info, err := os.Stat(out.Path); err == nil {
			size = info.Size()
			metrics.EncodeOutputBytes.WithLabelValues(strconv.Itoa(out.Resolution)).Add(float64(size))
		} else {
			logging.Warn("ladder rung %dp produced no output at %s: %v", out.Resolution, out.Path, err)
		}

		results = append(results, Result{
			Resolution:      out.Resolution,
			ElapsedMs:       elapsed.Milliseconds(),
			OutputSizeBytes: size,
			OutputPath:      out.Path,
		})
	}

	metrics.EncodeJobsTotal.WithLabelValues("ladder", "success").Inc()
	metrics.EncodeJobDuration.WithLabelValues("ladder").Observe(elapsed.Seconds())

	return results, nil
}

// run executes a planned encoder invocation, measuring wall-clock time and
// capturing the bounded tail of merged stdout/stderr. On any failure the
// plan's output files are removed best-effort, so partial artifacts never
// survive. The context kills the process if the caller goes away.
func (t *Transcoder) run(ctx context.Context, plan *encoder.Plan) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, t.ffmpegPath, plan.Args...)

	capture := newTailBuffer(defaultCaptureBytes)
	cmd.Stdout = capture
	cmd.Stderr = capture

	logging.Debug("spawning %s %v", t.ffmpegPath, plan.Args)

	metrics.EncodeJobsInProgress.Inc()
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	metrics.EncodeJobsInProgress.Dec()

	if err == nil {
		return elapsed, nil
	}

	for _, out := range plan.Outputs {
		t.removeQuietly(out.Path)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return elapsed, fmt.Errorf("encode canceled: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logging.Error("encoder failed (exit %d): %s", exitErr.ExitCode(), capture.String())
		return elapsed, &ProcessError{ExitCode: exitErr.ExitCode(), Output: capture.String()}
	}

	return elapsed, fmt.Errorf("failed to run encoder: %w", err)
}

// persistInput copies the upload into scratch under a unique name.
func (t *Transcoder) persistInput(upload io.Reader) (string, error) {
	if err := os.MkdirAll(t.scratchDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	path := filepath.Join(t.scratchDir, fmt.Sprintf("input_%d_%s.mp4", time.Now().UnixMilli(), uuid.NewString()))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch input: %w", err)
	}

	_, err = io.Copy(f, upload)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		t.removeQuietly(path)
		return "", fmt.Errorf("failed to persist upload to scratch: %w", err)
	}

	return path, nil
}

// removeQuietly deletes a scratch file, logging instead of propagating
// failures. Cleanup problems should never mask the request outcome.
func (t *Transcoder) removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove scratch file %s: %v", path, err)
	}
}


