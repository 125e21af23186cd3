package controllers

import (
	"net/http"
	"time"

	dbpkg "litigation/db"
	"litigation/models"
	"litigation/tools"
	"litigation/workers"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type LoginResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		RespondError(c, "username e password são obrigatórios", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var user models.User
	if err := db.Where("username = ? OR email = ?", req.Username, req.Username).First(&user).Error; err != nil {
		RespondError(c, "usuário ou senha inválidos", http.StatusUnauthorized)
		return
	}

	// valida senha (mesma regra usada no CreateUser)
	passwordEncode := tools.EncryptTextSHA512(req.Password)
	passwordEncode = user.Username + ":" + passwordEncode
	passwordEncode = tools.EncryptTextSHA512(passwordEncode)
	if user.Password != passwordEncode {
		RespondError(c, "usuário ou senha inválidos", http.StatusUnauthorized)
		return
	}

	if user.Status == models.USER_STATUS_BLOCKED {
		RespondError(c, "usuário bloqueado", http.StatusForbidden)
		return
	}

	now := time.Now()
	signed, err := signHS256JWT(getJWTSecret(), map[string]any{
		"sub":      user.ID,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(24 * time.Hour).Unix(),
	})
	if err != nil {
		RespondError(c, "erro ao assinar token", http.StatusInternalServerError)
		return
	}

	refresh, err := issueRefreshToken(db, user.ID, now)
	if err != nil {
		RespondError(c, "erro ao gerar refresh token", http.StatusInternalServerError)
		return
	}

	// Gatilho de limpeza no login: em background, com o gate global do
	// auto cleanup checado lá dentro. O login nunca espera a varredura.
	cfg := dbpkg.Config()
	if cfg.Drafts.CleanupOnLogin {
		workers.RunBackgroundCleanup(db, cfg, "login")
	}

	user.Password = ""
	RespondSuccess(c, LoginResponse{Token: signed, RefreshToken: refresh, User: user})
}
