package repository

import (
	"context"
	"edulearn_backend/internal/model"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// 目录分页的总数走 redis 缓存；进度计算用到的课程结构一律直读数据库
const catalogCountTTL = time.Minute

type CourseRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewCourseRepository(db *gorm.DB, rdb *redis.Client) *CourseRepository {
	return &CourseRepository{DB: db, Redis: rdb}
}

// Create 整棵课程结构入库；course_id 冗余回填到课时行，
// 课时归属校验与课时总数统计都走 lessons 单表
func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(course).Error; err != nil {
			return err
		}

		var lessonIDs []uint
		for _, m := range course.Modules {
			for _, l := range m.Lessons {
				lessonIDs = append(lessonIDs, l.ID)
			}
		}
		if len(lessonIDs) == 0 {
			return nil
		}
		return tx.Model(&model.Lesson{}).
			Where("id IN ?", lessonIDs).
			Update("course_id", course.ID).Error
	})
}

// FindByID 加载完整课程结构（模块、课时、测验），按 order 排序
func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_modules.order ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.order ASC")
		}).
		Preload("Modules.Lessons.Quiz.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.order ASC")
		}).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

const catalogCountKey = "courses:published:count"

// FindPublished 课程目录分页。分页总数是全表扫描的热点，允许短暂过期，
// 走 redis 缓存；课程数据本身每次直读
func (r *CourseRepository) FindPublished(page, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	query := r.DB.Model(&model.Course{}).Where("is_published = ?", true)

	cached := false
	if r.Redis != nil {
		if v, err := r.Redis.Get(context.Background(), catalogCountKey).Result(); err == nil {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				total = n
				cached = true
			}
		}
	}
	if !cached {
		if err := query.Count(&total).Error; err != nil {
			return nil, 0, err
		}
		if r.Redis != nil {
			r.Redis.Set(context.Background(), catalogCountKey, total, catalogCountTTL)
		}
	}

	err := query.Preload("Instructor").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) FindByInstructor(instructorID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("instructor_id = ?", instructorID).Order("created_at DESC").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) Publish(courseID uint) error {
	now := time.Now()
	return r.DB.Model(&model.Course{}).Where("id = ?", courseID).
		Updates(map[string]interface{}{"is_published": true, "published_at": now}).Error
}

// TotalLessons 返回课程当前课时总数，每次直读数据库不走缓存：
// 课程内容可能在选课后变化，百分比重算和 100% 判定必须基于最新结构，
// 任何过期总数都可能提前触发一次不可撤销的证书签发
func (r *CourseRepository) TotalLessons(courseID uint) (int, error) {
	var count int64
	err := r.DB.Model(&model.Lesson{}).Where("course_id = ?", courseID).Count(&count).Error
	return int(count), err
}

// InvalidateCatalogCount 发布状态变更后清掉目录总数缓存
func (r *CourseRepository) InvalidateCatalogCount() {
	if r.Redis != nil {
		r.Redis.Del(context.Background(), catalogCountKey)
	}
}

func (r *CourseRepository) LessonExists(courseID, lessonID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Lesson{}).
		Where("course_id = ? AND id = ?", courseID, lessonID).
		Count(&count).Error
	return count > 0, err
}

// QuizForLesson 返回课时内嵌测验，无测验时返回 (nil, nil)
func (r *CourseRepository) QuizForLesson(courseID, lessonID uint) (*model.Quiz, error) {
	var lesson model.Lesson
	err := r.DB.Preload("Quiz.Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("quiz_questions.order ASC")
	}).Where("course_id = ? AND id = ?", courseID, lessonID).First(&lesson).Error
	if err != nil {
		return nil, err
	}
	return lesson.Quiz, nil
}

func (r *CourseRepository) SkillTags(courseID uint) ([]string, error) {
	var course model.Course
	err := r.DB.Select("id", "skill_tags").First(&course, courseID).Error
	if err != nil {
		return nil, err
	}
	return course.SkillTags, nil
}

// UnpublishedOrDeletedIDs 返回给定课程 ID 中已下架或已删除的部分，孤儿清理用
func (r *CourseRepository) UnpublishedOrDeletedIDs(courseIDs []uint) ([]uint, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var alive []uint
	err := r.DB.Model(&model.Course{}).
		Where("id IN ? AND is_published = ?", courseIDs, true).
		Pluck("id", &alive).Error
	if err != nil {
		return nil, err
	}

	aliveSet := make(map[uint]bool, len(alive))
	for _, id := range alive {
		aliveSet[id] = true
	}

	var orphaned []uint
	for _, id := range courseIDs {
		if !aliveSet[id] {
			orphaned = append(orphaned, id)
		}
	}
	return orphaned, nil
}
