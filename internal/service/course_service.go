package service

import (
	"edulearn_backend/internal/model"
	"edulearn_backend/internal/repository"
	"edulearn_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// CourseService 课程目录：学员侧浏览 + 讲师侧建课/发布。
// 课程内容编辑界面不在本服务范围，这里只是课程结构的落库入口。
type CourseService struct {
	Courses *repository.CourseRepository
}

func NewCourseService(courses *repository.CourseRepository) *CourseService {
	return &CourseService{Courses: courses}
}

type LessonInput struct {
	Title           string           `json:"title" binding:"required"`
	Type            model.LessonType `json:"type" binding:"required"`
	Content         string           `json:"content"`
	VideoURL        string           `json:"videoUrl"`
	DurationMinutes int              `json:"durationMinutes"`
	IsPreview       bool             `json:"isPreview"`
	Quiz            *QuizInput       `json:"quiz,omitempty"`
}

type QuizInput struct {
	Title            string          `json:"title"`
	TimeLimitMinutes int             `json:"timeLimitMinutes"`
	PassingScore     int             `json:"passingScore"`
	Questions        []QuestionInput `json:"questions" binding:"required"`
}

type QuestionInput struct {
	Text          string   `json:"text" binding:"required"`
	Options       []string `json:"options" binding:"required"`
	CorrectOption int      `json:"correctOption"`
	Explanation   string   `json:"explanation"`
}

type ModuleInput struct {
	Title       string        `json:"title" binding:"required"`
	Description string        `json:"description"`
	Lessons     []LessonInput `json:"lessons"`
}

type CreateCourseRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	Level       model.CourseLevel `json:"level"`
	SkillTags   []string          `json:"skillTags"`
	Thumbnail   string            `json:"thumbnail"`
	Modules     []ModuleInput     `json:"modules"`
}

// Create 建课：模块与课时的 order 按提交顺序编号，构成严格全序
func (s *CourseService) Create(instructorID uint, req CreateCourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		InstructorID: instructorID,
		Level:        req.Level,
		SkillTags:    req.SkillTags,
		Thumbnail:    req.Thumbnail,
	}
	if course.Level == "" {
		course.Level = model.LevelBeginner
	}

	for mi, m := range req.Modules {
		courseModule := model.CourseModule{
			Title:       m.Title,
			Description: m.Description,
			Order:       mi + 1,
		}
		for li, l := range m.Lessons {
			lesson := model.Lesson{
				Title:           l.Title,
				Type:            l.Type,
				Order:           li + 1,
				Content:         l.Content,
				VideoURL:        l.VideoURL,
				DurationMinutes: l.DurationMinutes,
				IsPreview:       l.IsPreview,
			}
			if l.Quiz != nil {
				quiz := &model.Quiz{
					Title:            l.Quiz.Title,
					TimeLimitMinutes: l.Quiz.TimeLimitMinutes,
					PassingScore:     l.Quiz.PassingScore,
				}
				if quiz.PassingScore <= 0 {
					quiz.PassingScore = 60
				}
				for qi, q := range l.Quiz.Questions {
					quiz.Questions = append(quiz.Questions, model.QuizQuestion{
						Text:          q.Text,
						Options:       q.Options,
						CorrectOption: q.CorrectOption,
						Explanation:   q.Explanation,
						Order:         qi + 1,
					})
				}
				lesson.Quiz = quiz
			}
			courseModule.Lessons = append(courseModule.Lessons, lesson)
		}
		course.Modules = append(course.Modules, courseModule)
	}

	if err := s.Courses.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Publish(instructorID, courseID uint) error {
	course, err := s.Courses.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCourseNotFound
		}
		return err
	}
	if course.InstructorID != instructorID {
		return util.ErrPermissionDenied
	}
	if err := s.Courses.Publish(courseID); err != nil {
		return err
	}
	s.Courses.InvalidateCatalogCount()
	return nil
}

func (s *CourseService) GetCatalog(page, limit int) ([]model.Course, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.Courses.FindPublished(page, limit)
}

// GetDetail 课程详情（完整结构）。未发布课程只有讲师本人可见。
func (s *CourseService) GetDetail(courseID uint, viewerID uint) (*model.Course, error) {
	course, err := s.Courses.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if !course.IsPublished && course.InstructorID != viewerID {
		return nil, util.ErrCourseNotAvailable
	}
	return course, nil
}

func (s *CourseService) ListByInstructor(instructorID uint) ([]model.Course, error) {
	return s.Courses.FindByInstructor(instructorID)
}
