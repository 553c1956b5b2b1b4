package controller

import (
	"edulearn_backend/internal/service"
	"edulearn_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

func (c *ProgressController) handleProgressError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrNotEnrolled), errors.Is(err, util.ErrProgressNotFound):
		util.Error(ctx, http.StatusForbidden, util.ErrNotEnrolled.Error())
	case errors.Is(err, util.ErrLessonNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrQuizNotFound), errors.Is(err, util.ErrEmptyQuiz),
		errors.Is(err, util.ErrNegativeTimeSpent):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrVersionConflict):
		// 乐观锁重试耗尽：提示稍后重试，不暴露内部细节
		util.Error(ctx, http.StatusConflict, "please retry later")
	case errors.Is(err, gorm.ErrRecordNotFound):
		util.NotFound(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

type CompleteLessonRequest struct {
	TimeSpentMinutes int  `json:"timeSpentMinutes" binding:"gte=0"`
	QuizScore        *int `json:"quizScore,omitempty"`
}

// @Summary 完成课时
// @Description 记录课时完成；重复完成幂等（累计时长、覆盖分数）。
// @Description 推进到 100% 时自动签发证书，签发失败通过 certificateError 标记。
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param lessonId path int true "课时ID"
// @Param body body CompleteLessonRequest true "学习时长与可选测验分数"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/lessons/{lessonId}/complete [post]
func (c *ProgressController) CompleteLesson(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	lessonID := util.MustParseUint(ctx.Param("lessonId"))

	var req CompleteLessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ProgressService.CompleteLesson(user.UserID, courseID, lessonID, req.TimeSpentMinutes, req.QuizScore)
	if err != nil {
		c.handleProgressError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

type SubmitQuizRequest struct {
	Answers          map[uint]int `json:"answers" binding:"required"`
	TimeSpentMinutes int          `json:"timeSpentMinutes" binding:"gte=0"`
}

// @Summary 提交课时测验
// @Description 判分并以聚合分数记为该课时的完成记录
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param lessonId path int true "课时ID"
// @Param submission body SubmitQuizRequest true "答案：题目ID -> 选项下标"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/lessons/{lessonId}/quiz [post]
func (c *ProgressController) SubmitQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	lessonID := util.MustParseUint(ctx.Param("lessonId"))

	var req SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ProgressService.SubmitQuiz(user.UserID, courseID, lessonID, req.Answers, req.TimeSpentMinutes)
	if err != nil {
		c.handleProgressError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 查询学习进度
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/progress [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	progress, err := c.ProgressService.GetProgress(user.UserID, courseID)
	if err != nil {
		c.handleProgressError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 重置学习进度
// @Description 清零进度重新学习；选课关系与已签发证书保留
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/progress/reset [post]
func (c *ProgressController) ResetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	if err := c.ProgressService.ResetProgress(user.UserID, courseID); err != nil {
		c.handleProgressError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "progress reset"})
}

type AddBookmarkRequest struct {
	LessonID         uint   `json:"lessonId" binding:"required"`
	TimestampSeconds int    `json:"timestampSeconds"`
	Title            string `json:"title"`
}

// @Summary 添加书签
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param bookmark body AddBookmarkRequest true "书签"
// @Success 201 {object} util.Response
// @Router /api/courses/{courseId}/bookmarks [post]
func (c *ProgressController) AddBookmark(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))

	var req AddBookmarkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	bookmark, err := c.ProgressService.AddBookmark(user.UserID, courseID, req.LessonID, req.TimestampSeconds, req.Title)
	if err != nil {
		c.handleProgressError(ctx, err)
		return
	}

	util.Created(ctx, bookmark)
}

// @Summary 删除书签
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param bookmarkId path int true "书签ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/bookmarks/{bookmarkId} [delete]
func (c *ProgressController) RemoveBookmark(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	bookmarkID := util.MustParseUint(ctx.Param("bookmarkId"))

	if err := c.ProgressService.RemoveBookmark(user.UserID, courseID, bookmarkID); err != nil {
		c.handleProgressError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "bookmark removed"})
}

type NoteRequest struct {
	LessonID         uint   `json:"lessonId" binding:"required"`
	TimestampSeconds int    `json:"timestampSeconds"`
	Content          string `json:"content" binding:"required"`
}

// @Summary 添加笔记
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param note body NoteRequest true "笔记"
// @Success 201 {object} util.Response
// @Router /api/courses/{courseId}/notes [post]
func (c *ProgressController) AddNote(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))

	var req NoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	note, err := c.ProgressService.AddNote(user.UserID, courseID, req.LessonID, req.TimestampSeconds, req.Content)
	if err != nil {
		c.handleProgressError(ctx, err)
		return
	}

	util.Created(ctx, note)
}

type UpdateNoteRequest struct {
	Content string `json:"content" binding:"required"`
}

// @Summary 编辑笔记
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param noteId path int true "笔记ID"
// @Param note body UpdateNoteRequest true "笔记内容"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/notes/{noteId} [put]
func (c *ProgressController) UpdateNote(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	noteID := util.MustParseUint(ctx.Param("noteId"))

	var req UpdateNoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ProgressService.UpdateNote(user.UserID, courseID, noteID, req.Content); err != nil {
		c.handleProgressError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "note updated"})
}

// @Summary 删除笔记
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param noteId path int true "笔记ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/notes/{noteId} [delete]
func (c *ProgressController) RemoveNote(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	noteID := util.MustParseUint(ctx.Param("noteId"))

	if err := c.ProgressService.RemoveNote(user.UserID, courseID, noteID); err != nil {
		c.handleProgressError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "note removed"})
}
