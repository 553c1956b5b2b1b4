package controller

import (
	"edulearn_backend/internal/service"
	"edulearn_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CertificateController struct {
	CertificateService *service.CertificateService
}

func NewCertificateController(certificateService *service.CertificateService) *CertificateController {
	return &CertificateController{CertificateService: certificateService}
}

// @Summary 我的证书
// @Description 列出当前学员已获得的全部证书
// @Tags 证书
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/certificates [get]
func (c *CertificateController) ListMine(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	certificates, err := c.CertificateService.ListByLearner(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, certificates)
}

// @Summary 下载证书
// @Description 返回证书详情并累计下载次数
// @Tags 证书
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/certificate [get]
func (c *CertificateController) Download(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	certificate, err := c.CertificateService.Download(user.UserID, courseID)
	if err != nil {
		if errors.Is(err, util.ErrCertificateInvalid) || errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, certificate)
}

type VerifyCertificateRequest struct {
	CertificateNo    string `json:"certificateNo" binding:"required"`
	VerificationCode string `json:"verificationCode" binding:"required"`
}

// @Summary 证书真伪校验
// @Description 公开接口：凭证书编号与校验码验证证书。校验结果只披露
// @Description 学员姓名、课程名、成绩与签发日期，不暴露其他个人信息。
// @Tags 证书
// @Accept json
// @Produce json
// @Param body body VerifyCertificateRequest true "证书编号与校验码"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/certificates/verify [post]
func (c *CertificateController) Verify(ctx *gin.Context) {
	var req VerifyCertificateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.CertificateService.Verify(req.CertificateNo, req.VerificationCode)
	if err != nil {
		if errors.Is(err, util.ErrCertificateInvalid) {
			// 无效与不存在统一口径，避免探测
			util.Error(ctx, http.StatusNotFound, util.ErrCertificateInvalid.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}
