package database

import (
	"fmt"

	"gorm.io/gorm"

	"encodingdb-backend/models"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns/tag-declared indexes)
// - CHECK constraints guarding the aggregate invariants at the storage layer
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.Submission{},
			&models.Benchmark{},
			&models.APIKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		checks := []struct{ table, name, expr string }{
			{"submissions", "chk_submissions_fps_nonneg", "fps >= 0"},
			{"submissions", "chk_submissions_size_nonneg", "file_size_bytes >= 0"},
			{"submissions", "chk_submissions_crf_range", "crf >= 0 AND crf <= 63"},
			{"benchmarks", "chk_benchmarks_samples_nonneg", "samples >= 0"},
			{"benchmarks", "chk_benchmarks_vmaf_samples", "vmaf_samples >= 0 AND vmaf_samples <= samples"},
		}
		for _, chk := range checks {
			stmt := fmt.Sprintf(`
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = '%s'::regclass
		  AND conname  = '%s'
	) THEN
		ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
	END IF;
END $$;`, chk.table, chk.name, chk.table, chk.name, chk.expr)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed on %s: %w", chk.name, err)
			}
		}

		return nil
	})
}
