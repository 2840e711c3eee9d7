package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptedSubmission(fps float64, size int64, vmaf *float64) *Submission {
	return &Submission{
		CpuModel:      "AMD Ryzen 9 7950X",
		Os:            "Linux 6.8",
		Codec:         "libx264",
		Preset:        "medium",
		Crf:           24,
		Fps:           fps,
		FileSizeBytes: size,
		Vmaf:          vmaf,
		Status:        StatusAccepted,
	}
}

func TestSeed(t *testing.T) {
	t.Run("with vmaf", func(t *testing.T) {
		v := 95.0
		b := Seed(acceptedSubmission(100, 1000, &v))
		assert.Equal(t, 100.0, b.AvgFps)
		assert.Equal(t, 1000.0, b.AvgFileSizeBytes)
		assert.Equal(t, 95.0, b.AvgVmaf)
		assert.Equal(t, int64(1), b.Samples)
		assert.Equal(t, int64(1), b.VmafSamples)
		assert.Equal(t, StatusAccepted, b.Status)
	})

	t.Run("without vmaf", func(t *testing.T) {
		b := Seed(acceptedSubmission(100, 1000, nil))
		assert.Equal(t, int64(1), b.Samples)
		assert.Equal(t, int64(0), b.VmafSamples)
		assert.Equal(t, 0.0, b.AvgVmaf)
	})
}

func TestMergeRunningMean(t *testing.T) {
	t.Run("constant series stays exact", func(t *testing.T) {
		b := Seed(acceptedSubmission(100, 1000, nil))
		b.Merge(acceptedSubmission(100, 1000, nil))
		b.Merge(acceptedSubmission(100, 1000, nil))

		assert.Equal(t, 100.0, b.AvgFps)
		assert.Equal(t, 1000.0, b.AvgFileSizeBytes)
		assert.Equal(t, int64(3), b.Samples)
	})

	t.Run("90 then 110 averages to 100", func(t *testing.T) {
		b := Seed(acceptedSubmission(90, 1000, nil))
		b.Merge(acceptedSubmission(110, 1000, nil))

		assert.Equal(t, 100.0, b.AvgFps)
		assert.Equal(t, int64(2), b.Samples)
	})
}

func TestMergeVmafCountersAreIndependent(t *testing.T) {
	v1, v2 := 90.0, 96.0
	b := Seed(acceptedSubmission(100, 1000, &v1))

	// A sample without VMAF moves fps/size but not the VMAF pair.
	b.Merge(acceptedSubmission(200, 2000, nil))
	require.Equal(t, int64(2), b.Samples)
	assert.Equal(t, int64(1), b.VmafSamples)
	assert.Equal(t, 90.0, b.AvgVmaf)

	b.Merge(acceptedSubmission(100, 1000, &v2))
	assert.Equal(t, int64(3), b.Samples)
	assert.Equal(t, int64(2), b.VmafSamples)
	assert.Equal(t, 93.0, b.AvgVmaf)
}

func TestStatusNeverRegresses(t *testing.T) {
	b := Seed(acceptedSubmission(100, 1000, nil))
	require.Equal(t, StatusAccepted, b.Status)

	b.MergeStatus(StatusSuspect)
	assert.Equal(t, StatusAccepted, b.Status)

	b.MergeStatus(StatusRejected)
	assert.Equal(t, StatusAccepted, b.Status)
}
