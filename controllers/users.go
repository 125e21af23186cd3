package controllers

import (
	"net/http"

	dbpkg "litigation/db"
	"litigation/models"
	"litigation/tools"

	"github.com/gin-gonic/gin"
)

func CheckUserExists(c *gin.Context, username, email string) bool {
	db := dbpkg.DBInstance(c)
	if db == nil {
		return false
	}

	var user models.User
	if err := db.Where("username = ? OR email = ?", username, email).First(&user).Error; err != nil {
		return false
	}
	return true
}

func CreateUser(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	user := models.User{}
	if err := c.Bind(&user); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	missing := user.MissingFields()
	if missing != "" {
		RespondError(c, "Faltando campo "+missing, http.StatusBadRequest)
		return
	}

	if !tools.ValidateEmail(user.Email) {
		RespondError(c, "E-mail inválido!", http.StatusBadRequest)
		return
	}

	if CheckUserExists(c, user.Username, user.Email) {
		RespondError(c, "Usuário já existe", http.StatusBadRequest)
		return
	}

	// mesma regra de senha validada no Login
	passwordEncode := tools.EncryptTextSHA512(user.Password)
	passwordEncode = user.Username + ":" + passwordEncode
	passwordEncode = tools.EncryptTextSHA512(passwordEncode)
	user.Password = passwordEncode

	user.Admin = false
	user.Status = models.USER_STATUS_AVAILABLE

	if err := db.Create(&user).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	user.Password = ""
	RespondSuccess(c, gin.H{"user": user})
}

// DELETE /api/users/:id (admin)
// Remove o usuário e, em cascata na mesma transação, seus drafts e refresh
// tokens. O sqlite do gorm v1 não aplica ON DELETE CASCADE, então a cascata
// é explícita aqui.
func DeleteUser(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		RespondError(c, "usuário não encontrado", http.StatusNotFound)
		return
	}

	tx := db.Begin()
	if err := tx.Delete(&models.Draft{}, "user_id = ?", user.ID).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if err := tx.Delete(&models.RefreshToken{}, "user_id = ?", user.ID).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if err := tx.Delete(&models.User{}, "id = ?", user.ID).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{"status": "deleted"})
}
