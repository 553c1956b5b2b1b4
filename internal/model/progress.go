package model

import "time"

// Progress 学员在某课程中的权威学习进度记录，随选课创建
// swagger:model Progress
type Progress struct {
	BaseModel
	LearnerID          uint               `gorm:"uniqueIndex:idx_progress_learner_course;not null" json:"learnerId"`
	CourseID           uint               `gorm:"uniqueIndex:idx_progress_learner_course;not null" json:"courseId"`
	ProgressPercent    int                `gorm:"default:0" json:"progressPercent"`
	TotalTimeSpentMin  int                `gorm:"default:0" json:"totalTimeSpentMinutes"`
	AverageQuizScore   float64            `gorm:"default:0" json:"averageQuizScore"`
	IsCompleted        bool               `gorm:"default:false" json:"isCompleted"`
	CompletedAt        *time.Time         `json:"completedAt,omitempty"`
	StreakDays         int                `gorm:"default:0" json:"streakDays"`
	LastActiveDate     *time.Time         `json:"lastActiveDate,omitempty"` // 仅日期有意义
	Version            int                `gorm:"default:0" json:"-"`       // 乐观锁版本号
	CompletedLessons   []LessonCompletion `gorm:"foreignKey:ProgressID" json:"completedLessons,omitempty"`
	Bookmarks          []Bookmark         `gorm:"foreignKey:ProgressID" json:"bookmarks,omitempty"`
	Notes              []Note             `gorm:"foreignKey:ProgressID" json:"notes,omitempty"`
}

func (Progress) TableName() string {
	return "progress_records"
}

// FindCompletion 返回指定课时的完成条目，不存在时为 nil
func (p *Progress) FindCompletion(lessonID uint) *LessonCompletion {
	for i := range p.CompletedLessons {
		if p.CompletedLessons[i].LessonID == lessonID {
			return &p.CompletedLessons[i]
		}
	}
	return nil
}

// LessonCompletion 课时完成条目：(progress, lesson) 唯一，重复完成只累计时长
// swagger:model LessonCompletion
type LessonCompletion struct {
	BaseModel
	ProgressID      uint      `gorm:"uniqueIndex:idx_completion_progress_lesson;not null" json:"-"`
	LessonID        uint      `gorm:"uniqueIndex:idx_completion_progress_lesson;not null" json:"lessonId"`
	CompletedAt     time.Time `gorm:"not null" json:"completedAt"`
	TimeSpentMin    int       `gorm:"default:0" json:"timeSpentMinutes"`
	QuizScore       *int      `json:"quizScore,omitempty"`
}

func (LessonCompletion) TableName() string {
	return "lesson_completions"
}

// Bookmark 学员书签，定位到课时内的视频时间点
// swagger:model Bookmark
type Bookmark struct {
	BaseModel
	ProgressID       uint   `gorm:"index;not null" json:"-"`
	LessonID         uint   `gorm:"index;not null" json:"lessonId"`
	TimestampSeconds int    `gorm:"default:0" json:"timestampSeconds"`
	Title            string `gorm:"size:255" json:"title"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}

// Note 学员笔记，编辑时单独刷新 UpdatedAt
// swagger:model Note
type Note struct {
	BaseModel
	ProgressID       uint   `gorm:"index;not null" json:"-"`
	LessonID         uint   `gorm:"index;not null" json:"lessonId"`
	TimestampSeconds int    `gorm:"default:0" json:"timestampSeconds"`
	Content          string `gorm:"type:text;not null" json:"content"`
}

func (Note) TableName() string {
	return "notes"
}
