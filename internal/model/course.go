package model

import "time"

type LessonType string

const (
	LessonVideo      LessonType = "video"
	LessonText       LessonType = "text"
	LessonQuiz       LessonType = "quiz"
	LessonAssignment LessonType = "assignment"
	LessonLive       LessonType = "live"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

// Course 课程：讲师拥有，发布后对学员可见
// swagger:model Course
type Course struct {
	BaseModel
	Title           string         `gorm:"size:255;not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	InstructorID    uint           `gorm:"index;not null" json:"instructorId"`
	Instructor      *User          `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Level           CourseLevel    `gorm:"type:enum('beginner','intermediate','advanced');default:'beginner'" json:"level"`
	SkillTags       []string       `gorm:"type:json;serializer:json" json:"skillTags"`
	Thumbnail       string         `gorm:"size:255" json:"thumbnail"`
	IsPublished     bool           `gorm:"default:false;index" json:"isPublished"`
	PublishedAt     *time.Time     `json:"publishedAt,omitempty"`
	EnrollmentCount int            `gorm:"default:0" json:"enrollmentCount"`
	Modules         []CourseModule `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// TotalLessons 统计课程下的所有课时数（需预加载 Modules.Lessons）
func (c *Course) TotalLessons() int {
	total := 0
	for _, m := range c.Modules {
		total += len(m.Lessons)
	}
	return total
}

// FindLesson 按 ID 在课程结构中查找课时
func (c *Course) FindLesson(lessonID uint) *Lesson {
	for i := range c.Modules {
		for j := range c.Modules[i].Lessons {
			if c.Modules[i].Lessons[j].ID == lessonID {
				return &c.Modules[i].Lessons[j]
			}
		}
	}
	return nil
}

// swagger:model CourseModule
type CourseModule struct {
	BaseModel
	CourseID    uint     `gorm:"index;not null" json:"courseId"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Order       int      `gorm:"default:0" json:"order"`
	Lessons     []Lesson `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

// swagger:model Lesson
type Lesson struct {
	BaseModel
	ModuleID        uint       `gorm:"index;not null" json:"moduleId"`
	CourseID        uint       `gorm:"index;not null" json:"courseId"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Type            LessonType `gorm:"type:enum('video','text','quiz','assignment','live');not null" json:"type"`
	Order           int        `gorm:"default:0" json:"order"`
	Content         string     `gorm:"type:text" json:"content"`
	VideoURL        string     `gorm:"size:512" json:"videoUrl"`
	DurationMinutes int        `gorm:"default:0" json:"durationMinutes"`
	IsPreview       bool       `gorm:"default:false" json:"isPreview"`
	Quiz            *Quiz      `gorm:"foreignKey:LessonID" json:"quiz,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// Quiz 课时内嵌测验
// swagger:model Quiz
type Quiz struct {
	BaseModel
	LessonID         uint           `gorm:"uniqueIndex;not null" json:"lessonId"`
	Title            string         `gorm:"size:255" json:"title"`
	TimeLimitMinutes int            `gorm:"default:0" json:"timeLimitMinutes"`
	PassingScore     int            `gorm:"default:60" json:"passingScore"` // 通过分数线（百分比）
	Questions        []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	QuizID        uint     `gorm:"index;not null" json:"quizId"`
	Text          string   `gorm:"type:text;not null" json:"text"`
	Options       []string `gorm:"type:json;serializer:json" json:"options"`
	CorrectOption int      `gorm:"not null" json:"-"` // 不下发给学员
	Explanation   string   `gorm:"type:text" json:"explanation,omitempty"`
	Order         int      `gorm:"default:0" json:"order"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}
