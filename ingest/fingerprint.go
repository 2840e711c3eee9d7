package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"encodingdb-backend/models"
)

// Fingerprint computes the content fingerprint of a submission: a SHA-256
// digest over a canonical serialization of the significant fields only.
// Bookkeeping fields (notes, tool versions, run duration, timestamps) are
// excluded so that re-running the same benchmark with identical numeric
// results collapses to the same fingerprint even when metadata differs.
func Fingerprint(s *models.Submission) string {
	vmaf := "-"
	if s.Vmaf != nil {
		vmaf = strconv.FormatFloat(*s.Vmaf, 'f', -1, 64)
	}
	parts := []string{
		s.CpuModel,
		s.GpuModel,
		strconv.Itoa(s.RamGB),
		s.Os,
		s.Codec,
		s.Preset,
		strconv.Itoa(s.Crf),
		strconv.FormatFloat(s.Fps, 'f', -1, 64),
		vmaf,
		strconv.FormatInt(s.FileSizeBytes, 10),
		s.InputHash,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
