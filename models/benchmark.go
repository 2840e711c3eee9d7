package models

import "time"

// Benchmark is the running aggregate for one configuration key
// (CPU, GPU, RAM, OS, codec, preset, CRF). One row per key; created on the
// first accepted submission and updated in place afterwards.
//
// AvgFps/AvgFileSizeBytes are means over exactly Samples accepted
// submissions; AvgVmaf is the mean over the VmafSamples accepted submissions
// that reported a VMAF score.
type Benchmark struct {
	Id       uint   `json:"id" gorm:"primaryKey"`
	CpuModel string `json:"cpuModel" gorm:"size:255;not null;uniqueIndex:idx_benchmarks_config,priority:1"`
	GpuModel string `json:"gpuModel" gorm:"size:255;uniqueIndex:idx_benchmarks_config,priority:2"`
	RamGB    int    `json:"ramGB" gorm:"uniqueIndex:idx_benchmarks_config,priority:3"`
	Os       string `json:"os" gorm:"size:128;not null;uniqueIndex:idx_benchmarks_config,priority:4"`
	Codec    string `json:"codec" gorm:"size:64;not null;uniqueIndex:idx_benchmarks_config,priority:5"`
	Preset   string `json:"preset" gorm:"size:64;not null;uniqueIndex:idx_benchmarks_config,priority:6"`
	Crf      int    `json:"crf" gorm:"uniqueIndex:idx_benchmarks_config,priority:7"`

	AvgFps           float64 `json:"avgFps"`
	AvgFileSizeBytes float64 `json:"avgFileSizeBytes"`
	AvgVmaf          float64 `json:"avgVmaf"`
	Samples          int64   `json:"samples"`
	VmafSamples      int64   `json:"vmafSamples"`
	Status           Status  `json:"status" gorm:"size:16;not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Seed initializes a fresh aggregate from its first contributing submission.
func Seed(s *Submission) *Benchmark {
	b := &Benchmark{
		CpuModel: s.CpuModel,
		GpuModel: s.GpuModel,
		RamGB:    s.RamGB,
		Os:       s.Os,
		Codec:    s.Codec,
		Preset:   s.Preset,
		Crf:      s.Crf,
		AvgFps:   s.Fps,
		Status:   s.Status,

		AvgFileSizeBytes: float64(s.FileSizeBytes),
		Samples:          1,
	}
	if s.Vmaf != nil {
		b.AvgVmaf = *s.Vmaf
		b.VmafSamples = 1
	}
	return b
}

// Merge folds an accepted submission into the running means. The caller must
// only invoke it for accepted submissions; everything else is audit-only.
func (b *Benchmark) Merge(s *Submission) {
	n := float64(b.Samples)
	b.AvgFps = (b.AvgFps*n + s.Fps) / (n + 1)
	b.AvgFileSizeBytes = (b.AvgFileSizeBytes*n + float64(s.FileSizeBytes)) / (n + 1)
	b.Samples++

	if s.Vmaf != nil {
		vn := float64(b.VmafSamples)
		b.AvgVmaf = (b.AvgVmaf*vn + *s.Vmaf) / (vn + 1)
		b.VmafSamples++
	}
	b.MergeStatus(s.Status)
}

// MergeStatus applies the non-regression rule: once accepted, always accepted.
func (b *Benchmark) MergeStatus(s Status) {
	if b.Status == StatusAccepted || s == StatusAccepted {
		b.Status = StatusAccepted
	}
}
