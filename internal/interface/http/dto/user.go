package dto

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=32" example:"zhangsan"`
	Password    string `json:"password" binding:"required,min=8,max=20" example:"password123"`
	DisplayName string `json:"display_name" binding:"max=50" example:"张三"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"zhangsan"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// RefreshRequest 刷新Token请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
