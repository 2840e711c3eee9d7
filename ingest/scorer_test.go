package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encodingdb-backend/models"
)

func validSubmission(fps float64) *models.Submission {
	return &models.Submission{
		CpuModel:      "AMD Ryzen 9 7950X",
		Os:            "Linux 6.8",
		Codec:         "libx264",
		Preset:        "medium",
		Crf:           24,
		Fps:           fps,
		FileSizeBytes: 10_000_000,
	}
}

// stableHistory yields median 100 and MAD 2 for FPS, with a constant size
// baseline so fps drives the verdict.
func stableHistory() History {
	return History{
		Fps:  []float64{98, 98, 100, 102, 102},
		Size: []float64{10_000_000, 10_000_000, 10_000_000, 10_000_000, 10_000_000},
	}
}

func TestMedian(t *testing.T) {
	t.Run("odd count", func(t *testing.T) {
		assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	})
	t.Run("even count averages middle pair", func(t *testing.T) {
		assert.Equal(t, 2.5, Median([]float64{1, 2, 3, 4}))
	})
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0.0, Median(nil))
	})
	t.Run("input not mutated", func(t *testing.T) {
		in := []float64{3, 1, 2}
		Median(in)
		assert.Equal(t, []float64{3, 1, 2}, in)
	})
}

func TestMAD(t *testing.T) {
	sample := []float64{98, 98, 100, 102, 102}
	med := Median(sample)
	require.Equal(t, 100.0, med)
	assert.Equal(t, 2.0, MAD(sample, med))
}

func TestScorerNoHistoryIsNeutral(t *testing.T) {
	sc := NewScorer()
	res := sc.Score(validSubmission(250), History{}, false)

	assert.Equal(t, models.StatusAccepted, res.Status)
	assert.Equal(t, 0.0, res.MaxZ)
	assert.InDelta(t, 100.0, res.Quality, 1e-9)
}

func TestScorerOutlierBoundary(t *testing.T) {
	sc := NewScorer()
	h := stableHistory()

	// Extreme boundary: 100 + 6*1.4826*2 ≈ 117.8.
	t.Run("distinctly above extreme is rejected", func(t *testing.T) {
		res := sc.Score(validSubmission(125), h, false)
		assert.Equal(t, models.StatusRejected, res.Status)
		assert.Greater(t, res.MaxZ, 6.0)
	})

	// Suspect boundary: 100 + 3*1.4826*2 ≈ 108.9.
	t.Run("between suspect and extreme is suspect", func(t *testing.T) {
		res := sc.Score(validSubmission(112), h, false)
		assert.Equal(t, models.StatusSuspect, res.Status)
		assert.Greater(t, res.MaxZ, 3.0)
		assert.LessOrEqual(t, res.MaxZ, 6.0)
	})

	t.Run("moderate variance is accepted", func(t *testing.T) {
		res := sc.Score(validSubmission(105), h, false)
		assert.Equal(t, models.StatusAccepted, res.Status)
	})
}

func TestScorerZeroSpreadBaseline(t *testing.T) {
	sc := NewScorer()
	h := History{
		Fps:  []float64{100, 100, 100},
		Size: []float64{10_000_000, 10_000_000, 10_000_000},
	}

	// MAD 0 degenerates to raw deviation: any drift counts directly.
	t.Run("small drift accepted", func(t *testing.T) {
		res := sc.Score(validSubmission(103), h, false)
		assert.Equal(t, models.StatusAccepted, res.Status)
	})
	t.Run("large drift rejected", func(t *testing.T) {
		res := sc.Score(validSubmission(107), h, false)
		assert.Equal(t, models.StatusRejected, res.Status)
	})
}

func TestScorerImpossibleBeatsStatistics(t *testing.T) {
	sc := NewScorer()

	t.Run("fps over ceiling", func(t *testing.T) {
		res := sc.Score(validSubmission(5001), History{}, false)
		assert.Equal(t, models.StatusRejected, res.Status)
		assert.Equal(t, "impossible fps", res.Reason)
		assert.Equal(t, 0.0, res.Quality)
	})

	t.Run("short cpu name", func(t *testing.T) {
		s := validSubmission(100)
		s.CpuModel = "ab"
		res := sc.Score(s, History{}, false)
		assert.Equal(t, models.StatusRejected, res.Status)
	})

	t.Run("oversized output", func(t *testing.T) {
		s := validSubmission(100)
		s.FileSizeBytes = 2 << 30
		res := sc.Score(s, History{}, false)
		assert.Equal(t, models.StatusRejected, res.Status)
	})
}

func TestScorerUnproductiveRunPends(t *testing.T) {
	sc := NewScorer()

	s := validSubmission(0)
	s.FileSizeBytes = 0
	res := sc.Score(s, History{}, false)
	assert.Equal(t, models.StatusPending, res.Status)

	// A known canonical input is trusted even for a zero run.
	res = sc.Score(s, History{}, true)
	assert.Equal(t, models.StatusAccepted, res.Status)
}

func TestScorerVmafParticipates(t *testing.T) {
	sc := NewScorer()
	h := stableHistory()
	h.Vmaf = []float64{93, 94, 95, 96, 97}

	vmaf := 40.0
	s := validSubmission(100)
	s.Vmaf = &vmaf
	res := sc.Score(s, h, false)
	assert.Equal(t, models.StatusRejected, res.Status)
}

func TestGaussianScore(t *testing.T) {
	t.Run("zero deviation scores 100", func(t *testing.T) {
		assert.InDelta(t, 100.0, GaussianScore(0, 0, 0), 1e-9)
	})
	t.Run("monotonically decreasing in z", func(t *testing.T) {
		assert.Greater(t, GaussianScore(1, 0, 0), GaussianScore(2, 0, 0))
	})
	t.Run("weights sum against worst case", func(t *testing.T) {
		// FPS weight 0.4: kill the fps metric only.
		s := GaussianScore(100, 0, 0)
		assert.InDelta(t, 60.0, s, 0.01)
	})
}
