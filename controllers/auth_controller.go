package controllers

import (
	"net/http"

	"craftory-backend/apperrors"
	"craftory-backend/middleware"
	"craftory-backend/services"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{Auth: auth}
}

func (ac *AuthController) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Phone    string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	user, err := ac.Auth.Register(c, req.Name, req.Email, req.Password, req.Phone)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"message": "verification code sent", "user": user})
}

func (ac *AuthController) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := ac.Auth.VerifyOTP(c, req.Email, req.Code); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"message": "email verified"})
}

func (ac *AuthController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	token, user, err := ac.Auth.Login(c, req.Email, req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"token": token, "user": user})
}

func (ac *AuthController) Me(c *gin.Context) {
	email := middleware.GetUserEmail(c)
	if email == "" {
		respondErr(c, apperrors.ErrUnauthorized)
		return
	}
	respondOK(c, gin.H{"email": email})
}
