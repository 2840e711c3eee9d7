package models

import (
	"time"

	"gorm.io/datatypes"
)

// Status is the pipeline outcome assigned to a submission, and the rollup
// status of a benchmark aggregate.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusSuspect  Status = "suspect"
	StatusRejected Status = "rejected"
	StatusPending  Status = "pending"
)

// Submission is the immutable audit record of one structurally valid ingest
// attempt. Rows are only ever inserted; the pipeline never updates or deletes
// them. GpuModel is empty for CPU-only runs.
type Submission struct {
	Id            uint     `json:"id" gorm:"primaryKey"`
	CpuModel      string   `json:"cpuModel" gorm:"size:255;not null;index:idx_submissions_config,priority:1"`
	GpuModel      string   `json:"gpuModel" gorm:"size:255;index:idx_submissions_config,priority:2"`
	RamGB         int      `json:"ramGB" gorm:"index:idx_submissions_config,priority:3"`
	Os            string   `json:"os" gorm:"size:128;not null;index:idx_submissions_config,priority:4"`
	Codec         string   `json:"codec" gorm:"size:64;not null;index:idx_submissions_config,priority:5"`
	Preset        string   `json:"preset" gorm:"size:64;not null;index:idx_submissions_config,priority:6"`
	Crf           int      `json:"crf" gorm:"index:idx_submissions_config,priority:7"`
	Fps           float64  `json:"fps"`
	Vmaf          *float64 `json:"vmaf"`
	FileSizeBytes int64    `json:"fileSizeBytes"`
	Notes         string   `json:"notes" gorm:"size:500"`

	// Submission metadata (excluded from the content fingerprint).
	EncoderName   string `json:"encoderName" gorm:"size:128"`
	FfmpegVersion string `json:"ffmpegVersion" gorm:"size:255"`
	ClientVersion string `json:"clientVersion" gorm:"size:64"`
	InputHash     string `json:"inputHash" gorm:"size:64"`
	RunMs         int64  `json:"runMs"`

	Fingerprint  string  `json:"-" gorm:"size:64;uniqueIndex:idx_submissions_fingerprint"`
	Status       Status  `json:"status" gorm:"size:16;not null"`
	QualityScore float64 `json:"qualityScore"`

	// RawPayload snapshots the client's wire record as received, before
	// trimming and defaulting.
	RawPayload datatypes.JSON `json:"-" gorm:"type:jsonb"`

	SourceIP string  `json:"-" gorm:"size:64"`
	APIKeyId *string `json:"-" gorm:"size:36"`

	CreatedAt time.Time `json:"createdAt"`
}
