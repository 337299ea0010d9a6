package handler

import (
	"github.com/gin-gonic/gin"

	appuser "github.com/xiebiao/labinventory/internal/application/user"
	"github.com/xiebiao/labinventory/internal/interface/http/dto"
	"github.com/xiebiao/labinventory/internal/interface/http/middleware"
	"github.com/xiebiao/labinventory/pkg/response"
)

// UserHandler 账号HTTP处理器
// 设计说明：
// 1. Handler只负责解析请求、调用应用层、返回响应
// 2. 参数格式由binding tag校验，业务规则(用户名唯一、密码强度)在领域服务
type UserHandler struct {
	registerUseCase *appuser.RegisterUseCase
	loginUseCase    *appuser.LoginUseCase
	logoutUseCase   *appuser.LogoutUseCase
	refreshUseCase  *appuser.RefreshTokenUseCase
}

// NewUserHandler 创建处理器
func NewUserHandler(
	registerUseCase *appuser.RegisterUseCase,
	loginUseCase *appuser.LoginUseCase,
	logoutUseCase *appuser.LogoutUseCase,
	refreshUseCase *appuser.RefreshTokenUseCase,
) *UserHandler {
	return &UserHandler{
		registerUseCase: registerUseCase,
		loginUseCase:    loginUseCase,
		logoutUseCase:   logoutUseCase,
		refreshUseCase:  refreshUseCase,
	}
}

// Register 注册
// @Summary      注册
// @Tags         账号
// @Accept       json
// @Produce      json
// @Param        request body dto.RegisterRequest true "注册信息"
// @Success      200 {object} response.Response{data=appuser.UserInfo}
// @Failure      200 {object} response.Response "40003 用户名已被注册"
// @Router       /api/v1/users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.registerUseCase.Execute(c.Request.Context(), appuser.RegisterRequest{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Login 登录
// @Summary      登录
// @Tags         账号
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "登录信息"
// @Success      200 {object} response.Response{data=appuser.LoginResponse}
// @Failure      200 {object} response.Response "40103 用户名或密码错误"
// @Router       /api/v1/users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.loginUseCase.Execute(c.Request.Context(), appuser.LoginRequest{
		Username: req.Username,
		Password: req.Password,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Logout 登出
// @Summary      登出
// @Tags         账号
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/v1/users/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.logoutUseCase.Execute(c.Request.Context(), middleware.GetUserID(c), middleware.GetToken(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Refresh 刷新Access Token
// @Summary      刷新Token
// @Tags         账号
// @Accept       json
// @Produce      json
// @Param        request body dto.RefreshRequest true "Refresh Token"
// @Success      200 {object} response.Response{data=appuser.RefreshResponse}
// @Router       /api/v1/users/refresh [post]
func (h *UserHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.refreshUseCase.Execute(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
