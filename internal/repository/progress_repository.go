package repository

import (
	"edulearn_backend/internal/model"
	"edulearn_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindByLearnerAndCourse(learnerID, courseID uint) (*model.Progress, error) {
	var progress model.Progress
	err := r.DB.
		Preload("CompletedLessons").
		Preload("Bookmarks").
		Preload("Notes").
		Where("learner_id = ? AND course_id = ?", learnerID, courseID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// SaveCompletion 以乐观锁落盘一次课时完成：版本号不匹配返回 ErrVersionConflict，
// 调用方重读重算后重试。聚合字段与完成条目在同一事务内写入。
func (r *ProgressRepository) SaveCompletion(p *model.Progress, entry *model.LessonCompletion) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Progress{}).
			Where("id = ? AND version = ?", p.ID, p.Version).
			Updates(map[string]interface{}{
				"progress_percent":     p.ProgressPercent,
				"total_time_spent_min": p.TotalTimeSpentMin,
				"average_quiz_score":   p.AverageQuizScore,
				"is_completed":         p.IsCompleted,
				"completed_at":         p.CompletedAt,
				"streak_days":          p.StreakDays,
				"last_active_date":     p.LastActiveDate,
				"version":              p.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrVersionConflict
		}

		entry.ProgressID = p.ID
		if entry.ID == 0 {
			if err := tx.Create(entry).Error; err != nil {
				// 并发首次完成同一课时：另一事务已插入同 (progress, lesson) 条目
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return util.ErrVersionConflict
				}
				return err
			}
			return nil
		}

		return tx.Model(&model.LessonCompletion{}).Where("id = ?", entry.ID).
			Updates(map[string]interface{}{
				"time_spent_min": entry.TimeSpentMin,
				"quiz_score":     entry.QuizScore,
			}).Error
	})
	if err != nil {
		return err
	}

	p.Version++
	return nil
}

// Reset 清空进度：完成条目、书签、笔记全部删除，聚合字段归零。
// 选课记录与已签发证书不在此处处理。
func (r *ProgressRepository) Reset(p *model.Progress) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("progress_id = ?", p.ID).Delete(&model.LessonCompletion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("progress_id = ?", p.ID).Delete(&model.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("progress_id = ?", p.ID).Delete(&model.Note{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Progress{}).Where("id = ?", p.ID).
			Updates(map[string]interface{}{
				"progress_percent":     0,
				"total_time_spent_min": 0,
				"average_quiz_score":   0,
				"is_completed":         false,
				"completed_at":         nil,
				"streak_days":          0,
				"last_active_date":     nil,
				"version":              gorm.Expr("version + 1"),
			}).Error
	})
}

func (r *ProgressRepository) AddBookmark(bookmark *model.Bookmark) error {
	return r.DB.Create(bookmark).Error
}

func (r *ProgressRepository) DeleteBookmark(progressID, bookmarkID uint) error {
	res := r.DB.Where("id = ? AND progress_id = ?", bookmarkID, progressID).Delete(&model.Bookmark{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ProgressRepository) AddNote(note *model.Note) error {
	return r.DB.Create(note).Error
}

func (r *ProgressRepository) UpdateNote(progressID, noteID uint, content string) error {
	res := r.DB.Model(&model.Note{}).
		Where("id = ? AND progress_id = ?", noteID, progressID).
		Update("content", content) // gorm 自动刷新 updated_at
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ProgressRepository) DeleteNote(progressID, noteID uint) error {
	res := r.DB.Where("id = ? AND progress_id = ?", noteID, progressID).Delete(&model.Note{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DistinctCourseIDs 所有进度记录涉及的课程 ID，孤儿清理扫描用
func (r *ProgressRepository) DistinctCourseIDs() ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Progress{}).Distinct("course_id").Pluck("course_id", &ids).Error
	return ids, err
}

// DeleteByCourses 删除指定课程下的全部进度记录及其子表
func (r *ProgressRepository) DeleteByCourses(courseIDs []uint) (int64, error) {
	if len(courseIDs) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var progressIDs []uint
		if err := tx.Model(&model.Progress{}).Where("course_id IN ?", courseIDs).
			Pluck("id", &progressIDs).Error; err != nil {
			return err
		}
		if len(progressIDs) == 0 {
			return nil
		}
		if err := tx.Where("progress_id IN ?", progressIDs).Delete(&model.LessonCompletion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("progress_id IN ?", progressIDs).Delete(&model.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("progress_id IN ?", progressIDs).Delete(&model.Note{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", progressIDs).Delete(&model.Progress{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}
