package ingest

import (
	"math"
	"sort"

	"encodingdb-backend/models"
)

// madScale rescales MAD so the robust z-score is comparable to a standard
// z-score under a normal distribution.
const madScale = 1.4826

// Scorer bounds below which a submission is flatly impossible, independent of
// any statistics.
const (
	maxPlausibleFps  = 5000.0
	maxPlausibleSize = 1 << 30
	minNameLen       = 3
)

// ScoreFunc turns the per-metric robust z-scores into an informational 0-100
// quality score. The accept/reject decision never depends on it.
type ScoreFunc func(zFps, zSize, zVmaf float64) float64

// GaussianScore is the default quality policy: a smooth falloff per metric,
// combined with fixed weights (FPS 0.4, size 0.3, VMAF 0.3).
func GaussianScore(zFps, zSize, zVmaf float64) float64 {
	per := func(z float64) float64 {
		return 100 * math.Exp(-0.5*math.Pow(z/2.5, 2))
	}
	score := 0.4*per(zFps) + 0.3*per(zSize) + 0.3*per(zVmaf)
	return clamp(score, 0, 100)
}

// Scorer classifies a submission against the recent accepted history of its
// configuration key using median/MAD robust statistics.
type Scorer struct {
	SuspectZ float64
	ExtremeZ float64
	Quality  ScoreFunc
}

func NewScorer() *Scorer {
	return &Scorer{
		SuspectZ: 3,
		ExtremeZ: 6,
		Quality:  GaussianScore,
	}
}

// History is the bounded recent window of accepted submissions sharing the
// configuration key. Vmaf holds only the values that were actually reported.
type History struct {
	Fps  []float64
	Size []float64
	Vmaf []float64
}

// Result is the scorer's verdict for one submission.
type Result struct {
	Status  models.Status
	Reason  string
	Quality float64
	MaxZ    float64
}

// Score runs the decision ladder. knownInput reports whether the submission's
// canonical-input hash matches a published test clip.
func (sc *Scorer) Score(s *models.Submission, h History, knownInput bool) Result {
	if reason := implausible(s); reason != "" {
		return Result{Status: models.StatusRejected, Reason: reason, Quality: 0}
	}

	zFps := deviation(s.Fps, h.Fps)
	zSize := deviation(float64(s.FileSizeBytes), h.Size)
	zVmaf := 0.0
	if s.Vmaf != nil {
		zVmaf = deviation(*s.Vmaf, h.Vmaf)
	}
	maxZ := math.Max(math.Abs(zFps), math.Max(math.Abs(zSize), math.Abs(zVmaf)))
	quality := sc.Quality(zFps, zSize, zVmaf)

	res := Result{Quality: quality, MaxZ: maxZ}
	switch {
	case maxZ > sc.ExtremeZ:
		res.Status = models.StatusRejected
		res.Reason = "statistical outlier"
	case maxZ > sc.SuspectZ:
		res.Status = models.StatusSuspect
		res.Reason = "statistically suspect"
	case knownInput || productiveRun(s):
		res.Status = models.StatusAccepted
	default:
		res.Status = models.StatusPending
		res.Reason = "held for review"
	}
	return res
}

// implausible returns a non-empty reason when a submission fails basic sanity
// regardless of history. The checks hold even for callers that bypass the
// request schema.
func implausible(s *models.Submission) string {
	switch {
	case len(s.CpuModel) < minNameLen || len(s.Os) < minNameLen:
		return "implausible hardware description"
	case len(s.Codec) < 1 || len(s.Preset) < 1:
		return "implausible codec or preset"
	case s.Fps < 0 || s.Fps > maxPlausibleFps:
		return "impossible fps"
	case s.FileSizeBytes < 0 || s.FileSizeBytes > maxPlausibleSize:
		return "impossible output size"
	case s.Vmaf != nil && (*s.Vmaf < 0 || *s.Vmaf > 100):
		return "impossible vmaf"
	default:
		return ""
	}
}

// productiveRun reports whether the encode actually produced output. The
// client never submits failed encodes; adversaries might.
func productiveRun(s *models.Submission) bool {
	return s.Fps > 0 && s.FileSizeBytes > 0
}

// deviation computes the robust z-score of x against the sample. An empty
// sample is a degenerate baseline: the new value defines it, so z = 0.
func deviation(x float64, sample []float64) float64 {
	if len(sample) == 0 {
		return 0
	}
	med := Median(sample)
	mad := MAD(sample, med)
	if mad > 0 {
		return (x - med) / (madScale * mad)
	}
	// Zero spread: any deviation from the baseline is itself meaningful.
	return x - med
}

// Median returns the middle value of the sample, averaging the two middle
// values for even counts. The input is not modified.
func Median(sample []float64) float64 {
	n := len(sample)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, sample)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// MAD returns the median absolute deviation of the sample around med.
func MAD(sample []float64, med float64) float64 {
	if len(sample) == 0 {
		return 0
	}
	devs := make([]float64, len(sample))
	for i, x := range sample {
		devs[i] = math.Abs(x - med)
	}
	return Median(devs)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
