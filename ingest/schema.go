package ingest

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"encodingdb-backend/models"
)

// DefaultCrf is assumed when a submission omits the CRF setting.
const DefaultCrf = 24

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report errors under the wire field names, not Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct validates any tagged struct with the shared validator
// instance (admin request DTOs reuse it).
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}

// SubmitRequest is the declarative schema of POST /submit. Every constraint
// of the wire format lives in the validate tags; optional numeric fields are
// pointers so absence is distinguishable from zero.
type SubmitRequest struct {
	CpuModel      string   `json:"cpuModel" validate:"required,min=3,max=255"`
	GpuModel      *string  `json:"gpuModel" validate:"omitempty,max=255"`
	RamGB         *int     `json:"ramGB" validate:"required,min=0,max=8192"`
	Os            string   `json:"os" validate:"required,min=3,max=128"`
	Codec         string   `json:"codec" validate:"required,min=1,max=64"`
	Preset        string   `json:"preset" validate:"required,min=1,max=64"`
	Crf           *int     `json:"crf" validate:"omitempty,min=0,max=63"`
	Fps           *float64 `json:"fps" validate:"required,gte=0,lte=5000"`
	Vmaf          *float64 `json:"vmaf" validate:"omitempty,gte=0,lte=100"`
	FileSizeBytes *int64   `json:"fileSizeBytes" validate:"required,gte=0,lte=1073741824"`
	Notes         string   `json:"notes" validate:"omitempty,max=500"`
	EncoderName   string   `json:"encoderName" validate:"omitempty,max=128"`
	FfmpegVersion string   `json:"ffmpegVersion" validate:"omitempty,max=255"`
	ClientVersion string   `json:"clientVersion" validate:"omitempty,max=64"`
	InputHash     string   `json:"inputHash" validate:"omitempty,len=64,hexadecimal,lowercase"`
	RunMs         *int64   `json:"runMs" validate:"omitempty,gte=0,lte=86400000"`
}

// ParseSubmit decodes and validates a raw request body against the schema.
// Unknown fields are rejected (strict shape). On failure it returns
// *FieldErrors; validation never partially applies.
func ParseSubmit(body []byte) (*SubmitRequest, error) {
	var req SubmitRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, &FieldErrors{Fields: map[string]string{"body": decodeReason(err)}}
	}
	if dec.More() {
		return nil, &FieldErrors{Fields: map[string]string{"body": "trailing data after JSON object"}}
	}

	if err := validate.Struct(&req); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, err
		}
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fieldReason(fe)
		}
		return nil, &FieldErrors{Fields: fields}
	}
	return &req, nil
}

func decodeReason(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "unknown field") {
		return msg
	}
	return "malformed JSON body"
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min", "gte":
		return "below minimum " + fe.Param()
	case "max", "lte":
		return "above maximum " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "hexadecimal", "lowercase":
		return "must be a lowercase hex digest"
	default:
		return "invalid (" + fe.Tag() + ")"
	}
}

// Submission materializes the validated request into an audit row, applying
// the CRF default.
func (r *SubmitRequest) Submission() *models.Submission {
	s := &models.Submission{
		CpuModel:      strings.TrimSpace(r.CpuModel),
		RamGB:         *r.RamGB,
		Os:            strings.TrimSpace(r.Os),
		Codec:         strings.TrimSpace(r.Codec),
		Preset:        strings.TrimSpace(r.Preset),
		Crf:           DefaultCrf,
		Fps:           *r.Fps,
		Vmaf:          r.Vmaf,
		FileSizeBytes: *r.FileSizeBytes,
		Notes:         r.Notes,
		EncoderName:   r.EncoderName,
		FfmpegVersion: r.FfmpegVersion,
		ClientVersion: r.ClientVersion,
		InputHash:     r.InputHash,
	}
	if r.GpuModel != nil {
		s.GpuModel = strings.TrimSpace(*r.GpuModel)
	}
	if r.Crf != nil {
		s.Crf = *r.Crf
	}
	if r.RunMs != nil {
		s.RunMs = *r.RunMs
	}
	return s
}
