package repository

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/hireready/backend/models"
)

// CV file operations
func (r *GORMRepository) CreateCVFile(ctx context.Context, file *models.CVFile) error {
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		slog.Error("Failed to create CV file", "error", err)
		return err
	}
	slog.Info("CV file created", "cv_file_id", file.ID, "file_name", file.FileName)
	return nil
}

func (r *GORMRepository) GetCVFiles(ctx context.Context, userID string) ([]models.CVFile, error) {
	var files []models.CVFile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		slog.Error("Failed to get CV files", "error", err, "user_id", userID)
		return nil, err
	}
	return files, nil
}

// GetCVFileByID loads a CV file with its analysis in a single round trip via
// the owning relation.
func (r *GORMRepository) GetCVFileByID(ctx context.Context, fileID, userID string) (*models.CVFile, error) {
	var file models.CVFile
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", fileID, userID).
		Preload("Analysis").
		First(&file).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get CV file", "error", err, "cv_file_id", fileID)
		return nil, err
	}
	return &file, nil
}

// SaveAnalysisResult stores the AI analysis and denormalizes the score onto
// the CV file in one transaction. Re-analyzing replaces the previous result.
func (r *GORMRepository) SaveAnalysisResult(ctx context.Context, result *models.AnalysisResult) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cv_file_id = ?", result.CVFileID).Delete(&models.AnalysisResult{}).Error; err != nil {
			return err
		}
		if err := tx.Create(result).Error; err != nil {
			return err
		}
		return tx.Model(&models.CVFile{}).
			Where("id = ?", result.CVFileID).
			Update("score", result.ATSScore).Error
	})
	if err != nil {
		slog.Error("Failed to save analysis result", "error", err, "cv_file_id", result.CVFileID)
		return err
	}
	slog.Info("Analysis result saved", "cv_file_id", result.CVFileID, "ats_score", result.ATSScore)
	return nil
}

func (r *GORMRepository) DeleteCVFile(ctx context.Context, fileID, userID string) (*models.CVFile, error) {
	file, err := r.GetCVFileByID(ctx, fileID, userID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, nil
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cv_file_id = ?", fileID).Delete(&models.AnalysisResult{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CVFile{}, "id = ?", fileID).Error
	})
	if err != nil {
		slog.Error("Failed to delete CV file", "error", err, "cv_file_id", fileID)
		return nil, err
	}
	slog.Info("CV file deleted", "cv_file_id", fileID, "user_id", userID)
	return file, nil
}
