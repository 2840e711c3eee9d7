package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"encodingdb-backend/config"
	"encodingdb-backend/database"
	"encodingdb-backend/ingest"
	"encodingdb-backend/middlewares"
	"encodingdb-backend/models"
	"encodingdb-backend/utils"
)

// historyWindow bounds the accepted-sample history the scorer sees.
const historyWindow = 200

// SubmitHandler runs the ingest pipeline tail: schema validation,
// deduplication, outlier scoring, and the transactional aggregate merge.
// Rate limiting, authentication and the disk gate have already run as
// middlewares by the time this handler executes.
func SubmitHandler(cfg *config.Config, scorer *ingest.Scorer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := ingest.ParseSubmit(c.Body())
		if err != nil {
			return err
		}

		sub := req.Submission()
		// Copy out of fiber's reusable request buffer.
		sub.RawPayload = datatypes.JSON(append([]byte(nil), c.Body()...))
		sub.SourceIP = utils.NormalizeIP(c.IP())
		if key := middlewares.APIKeyFromCtx(c); key != nil {
			id := key.Id
			sub.APIKeyId = &id
		}
		sub.Fingerprint = ingest.Fingerprint(sub)

		// Resubmission short-circuit: the first outcome for a fingerprint is
		// authoritative, which makes the endpoint safe to retry.
		var existing models.Submission
		err = database.DB.Where("fingerprint = ?", sub.Fingerprint).First(&existing).Error
		if err == nil {
			return respondDuplicate(c, &existing)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		history, err := fetchHistory(database.DB, sub)
		if err != nil {
			return err
		}
		verdict := scorer.Score(sub, history, cfg.KnownInput(sub.InputHash))
		sub.Status = verdict.Status
		sub.QualityScore = verdict.Quality

		bench, created, err := persistSubmission(database.DB, sub)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Either an identical concurrent submission won the fingerprint
			// index, or a rival first submission for the configuration key
			// committed the benchmark row between our read and insert.
			ferr := database.DB.Where("fingerprint = ?", sub.Fingerprint).First(&existing).Error
			if ferr == nil {
				return respondDuplicate(c, &existing)
			}
			if !errors.Is(ferr, gorm.ErrRecordNotFound) {
				return ferr
			}

			// Benchmark seed race: the row exists now, so a second attempt
			// takes the locked merge path.
			sub.Id = 0
			bench, created, err = persistSubmission(database.DB, sub)
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				if ferr := database.DB.Where("fingerprint = ?", sub.Fingerprint).First(&existing).Error; ferr == nil {
					return respondDuplicate(c, &existing)
				}
			}
		}
		if err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"fingerprint": sub.Fingerprint,
			"status":      sub.Status,
			"quality":     sub.QualityScore,
			"maxZ":        verdict.MaxZ,
		}).Info("submission processed")

		status := fiber.StatusOK
		code := "ok"
		if created {
			status = fiber.StatusCreated
			code = "created"
		}
		return c.Status(status).JSON(fiber.Map{
			"status":     code,
			"submission": outcomeOf(sub),
			"benchmark":  bench,
		})
	}
}

// persistSubmission inserts the audit row and folds it into its aggregate in
// one transaction. On a duplicate-key failure the whole transaction rolls
// back, including the audit insert, so the caller may retry with the same
// submission.
func persistSubmission(db *gorm.DB, sub *models.Submission) (*models.Benchmark, bool, error) {
	var (
		bench   *models.Benchmark
		created bool
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		var err error
		bench, created, err = mergeAggregate(tx, sub)
		return err
	})
	return bench, created, err
}

// mergeAggregate folds the submission into its configuration's benchmark row
// inside the caller's transaction. The row is locked FOR UPDATE so concurrent
// merges on one configuration key are linearized and the running mean never
// loses updates.
func mergeAggregate(tx *gorm.DB, sub *models.Submission) (*models.Benchmark, bool, error) {
	var bench models.Benchmark
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cpu_model = ? AND gpu_model = ? AND ram_gb = ? AND os = ? AND codec = ? AND preset = ? AND crf = ?",
			sub.CpuModel, sub.GpuModel, sub.RamGB, sub.Os, sub.Codec, sub.Preset, sub.Crf).
		First(&bench).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if sub.Status != models.StatusAccepted {
			// Audit-only outcome before any aggregate exists for the key.
			return nil, false, nil
		}
		fresh := models.Seed(sub)
		if err := tx.Create(fresh).Error; err != nil {
			return nil, false, err
		}
		return fresh, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	if sub.Status != models.StatusAccepted {
		return &bench, false, nil
	}
	bench.Merge(sub)
	if err := tx.Save(&bench).Error; err != nil {
		return nil, false, err
	}
	return &bench, false, nil
}

// fetchHistory loads the recent accepted samples sharing the submission's
// configuration key, newest first.
func fetchHistory(db *gorm.DB, sub *models.Submission) (ingest.History, error) {
	var rows []models.Submission
	err := db.
		Where("cpu_model = ? AND gpu_model = ? AND ram_gb = ? AND os = ? AND codec = ? AND preset = ? AND crf = ? AND status = ?",
			sub.CpuModel, sub.GpuModel, sub.RamGB, sub.Os, sub.Codec, sub.Preset, sub.Crf, models.StatusAccepted).
		Order("id DESC").Limit(historyWindow).
		Find(&rows).Error
	if err != nil {
		return ingest.History{}, err
	}

	h := ingest.History{
		Fps:  make([]float64, 0, len(rows)),
		Size: make([]float64, 0, len(rows)),
	}
	for _, r := range rows {
		h.Fps = append(h.Fps, r.Fps)
		h.Size = append(h.Size, float64(r.FileSizeBytes))
		if r.Vmaf != nil {
			h.Vmaf = append(h.Vmaf, *r.Vmaf)
		}
	}
	return h, nil
}

func respondDuplicate(c *fiber.Ctx, first *models.Submission) error {
	var bench *models.Benchmark
	var row models.Benchmark
	err := database.DB.
		Where("cpu_model = ? AND gpu_model = ? AND ram_gb = ? AND os = ? AND codec = ? AND preset = ? AND crf = ?",
			first.CpuModel, first.GpuModel, first.RamGB, first.Os, first.Codec, first.Preset, first.Crf).
		First(&row).Error
	if err == nil {
		bench = &row
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":     "ok",
		"duplicate":  true,
		"submission": outcomeOf(first),
		"benchmark":  bench,
	})
}

func outcomeOf(s *models.Submission) fiber.Map {
	return fiber.Map{
		"id":           s.Id,
		"status":       s.Status,
		"qualityScore": s.QualityScore,
	}
}
