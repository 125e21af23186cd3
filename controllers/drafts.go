package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	dbpkg "litigation/db"
	"litigation/models"
	"litigation/tools"
	"litigation/workers"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// ErrDraftOwnerMismatch: a linha sob a chave derivada pertence a outro
// usuário. Não deve acontecer (a chave embute o dono); checagem defensiva.
var ErrDraftOwnerMismatch = errors.New("draft pertence a outro usuário")

type AutoSaveDraftRequest struct {
	DraftType string          `json:"draft_type"`
	Title     string          `json:"title"`
	CaseID    string          `json:"case_id"`
	FormData  json.RawMessage `json:"form_data"`
}

type ManualDraftRequest struct {
	DraftType string          `json:"draft_type"`
	Title     string          `json:"title"`
	CaseID    string          `json:"case_id"`
	FormData  json.RawMessage `json:"form_data"`
}

// DraftResponse devolve o form_data como JSON cru (no model ele vive
// serializado como text).
type DraftResponse struct {
	ID          int64           `json:"id"`
	DraftKey    string          `json:"draft_key"`
	Title       string          `json:"title"`
	DraftType   string          `json:"draft_type"`
	FormData    json.RawMessage `json:"form_data"`
	CaseID      string          `json:"case_id"`
	IsAutoSaved bool            `json:"is_auto_saved"`
	CreatedAt   *time.Time      `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at"`
}

func draftResponse(d models.Draft) DraftResponse {
	return DraftResponse{
		ID:          d.ID,
		DraftKey:    d.DraftKey,
		Title:       d.Title,
		DraftType:   d.DraftType,
		FormData:    d.FormDataJSON(),
		CaseID:      d.CaseID,
		IsAutoSaved: d.IsAutoSaved,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// POST /api/drafts/auto-save (validated)
// Upsert idempotente pela chave derivada: criar se não existe, sobrescrever
// se existe. Depois do save o excedente de auto-saves do usuário é podado
// inline, então o cap já vale quando a resposta volta.
func AutoSaveDraft(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req AutoSaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.DraftType == "" {
		req.DraftType = models.DRAFT_TYPE_CASE
	}
	if !models.IsValidDraftType(req.DraftType) {
		RespondError(c, "draft_type inválido", http.StatusBadRequest)
		return
	}
	if len(req.FormData) == 0 || !tools.ValidateJSONObject(req.FormData) {
		RespondError(c, "form_data precisa ser um objeto JSON", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	key := models.AutoSaveDraftKey(req.DraftType, user.ID, req.CaseID)

	draft, created, err := upsertAutoSave(db, user, req, key)
	if err != nil {
		if errors.Is(err, ErrDraftOwnerMismatch) {
			RespondError(c, err.Error(), http.StatusConflict)
			return
		}
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	workers.EnforceAutoSaveCap(db, user.ID, dbpkg.Config().Drafts.MaxAutoSavedPerUser)

	RespondSuccess(c, gin.H{
		"success":   true,
		"message":   "Draft saved successfully",
		"draft_key": draft.DraftKey,
		"draft_id":  draft.ID,
		"timestamp": draft.UpdatedAt,
		"created":   created,
	})
}

// upsertAutoSave cria ou sobrescreve o draft do usuário sob a chave derivada.
// Chave duplicada não é erro: é o caminho normal de sobrescrita. A corrida
// create-vs-create no unique(user_id, draft_key) é resolvida re-buscando a
// linha e virando update (last write wins, por ordem de commit).
func upsertAutoSave(db *gorm.DB, user models.User, req AutoSaveDraftRequest, key string) (models.Draft, bool, error) {
	title := req.Title
	if title == "" {
		title = models.DefaultDraftTitle(req.DraftType, req.CaseID)
	}

	var draft models.Draft
	err := db.Where("user_id = ? AND draft_key = ?", user.ID, key).First(&draft).Error
	if err != nil {
		if !gorm.IsRecordNotFoundError(err) {
			return models.Draft{}, false, err
		}

		draft = models.Draft{
			UserID:      user.ID,
			DraftType:   req.DraftType,
			Title:       title,
			FormData:    string(req.FormData),
			CaseID:      req.CaseID,
			DraftKey:    key,
			IsAutoSaved: true,
		}
		createErr := db.Create(&draft).Error
		if createErr == nil {
			return draft, true, nil
		}
		// outro save chegou primeiro; re-busca e segue como update
		if fetchErr := db.Where("user_id = ? AND draft_key = ?", user.ID, key).First(&draft).Error; fetchErr != nil {
			return models.Draft{}, false, createErr
		}
	}

	if draft.UserID != user.ID {
		return models.Draft{}, false, ErrDraftOwnerMismatch
	}

	updates := map[string]any{
		"title":         title,
		"form_data":     string(req.FormData),
		"case_id":       req.CaseID,
		"is_auto_saved": true,
	}
	if err := db.Model(&draft).Updates(updates).Error; err != nil {
		return models.Draft{}, false, err
	}
	if err := db.Where("id = ?", draft.ID).First(&draft).Error; err != nil {
		return models.Draft{}, false, err
	}
	return draft, false, nil
}

// GET /api/drafts/current (validated)
// Resolução: draft_key exato > chave derivada de (draft_type, case_id) >
// draft "novo" mais recente do tipo. Ausência responde draft null, não erro.
func GetCurrentDraft(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	draftKey := c.Query("draft_key")
	caseID := c.Query("case_id")
	draftType := c.DefaultQuery("draft_type", models.DRAFT_TYPE_CASE)

	var draft models.Draft
	var err error
	if draftKey != "" {
		err = db.Where("user_id = ? AND draft_key = ?", user.ID, draftKey).First(&draft).Error
	} else if caseID != "" {
		key := models.AutoSaveDraftKey(draftType, user.ID, caseID)
		err = db.Where("user_id = ? AND draft_key = ?", user.ID, key).First(&draft).Error
	} else {
		prefix := models.NewDraftKeyPrefix(draftType, user.ID)
		err = db.Where("user_id = ? AND draft_key LIKE ?", user.ID, prefix+"%").
			Order("updated_at desc").
			First(&draft).Error
	}

	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			RespondSuccess(c, gin.H{"success": true, "draft": nil})
			return
		}
		RespondError(c, "falha ao buscar draft", http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, gin.H{"success": true, "draft": draftResponse(draft)})
}

// GET /api/drafts (validated)
func ListUserDrafts(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	draftType := c.DefaultQuery("draft_type", models.DRAFT_TYPE_CASE)
	includeAutoSaved := QueryBool(c, "include_auto_saved", true)
	limit := QueryInt(c, "limit", 20)

	q := db.Where("user_id = ? AND draft_type = ?", user.ID, draftType)
	if !includeAutoSaved {
		q = q.Where("is_auto_saved = ?", false)
	}

	var items []models.Draft
	if err := q.Order("updated_at desc").Limit(limit).Find(&items).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	out := make([]DraftResponse, 0, len(items))
	for _, d := range items {
		out = append(out, draftResponse(d))
	}

	RespondSuccess(c, gin.H{"success": true, "drafts": out, "count": len(out)})
}

// POST /api/drafts/manual (validated)
// Save manual sempre cria um registro novo com chave própria (sufixo
// aleatório); nunca sobrescreve um draft existente.
func SaveManualDraft(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req ManualDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.DraftType == "" {
		req.DraftType = models.DRAFT_TYPE_CASE
	}
	if !models.IsValidDraftType(req.DraftType) {
		RespondError(c, "draft_type inválido", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		RespondError(c, "title é obrigatório", http.StatusBadRequest)
		return
	}
	if len(req.Title) > 200 {
		RespondError(c, "title muito longo (máx. 200)", http.StatusBadRequest)
		return
	}
	if len(req.FormData) == 0 || !tools.ValidateJSONObject(req.FormData) {
		RespondError(c, "form_data precisa ser um objeto JSON", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	draft := models.Draft{
		UserID:      user.ID,
		DraftType:   req.DraftType,
		Title:       req.Title,
		FormData:    string(req.FormData),
		CaseID:      req.CaseID,
		DraftKey:    models.ManualDraftKey(req.DraftType, user.ID),
		IsAutoSaved: false,
	}
	if err := db.Create(&draft).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{
		"success": true,
		"message": "Draft saved successfully",
		"draft":   draftResponse(draft),
	})
}

// DELETE /api/drafts/:id (validated)
func DeleteDraft(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var draft models.Draft
	if err := db.Where("user_id = ? AND id = ?", user.ID, id).First(&draft).Error; err != nil {
		RespondError(c, "draft não encontrado", http.StatusNotFound)
		return
	}

	if err := db.Delete(&models.Draft{}, "id = ?", draft.ID).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{
		"success": true,
		"message": fmt.Sprintf("Draft %q deleted successfully", draft.Title),
	})
}

// DELETE /api/drafts?draft_key=... (validated)
// Limpa um auto-save específico pela chave. 404 quando nada foi apagado:
// quem chama consegue distinguir "já tinha sumido" de "apagado agora".
func ClearAutoSave(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	draftKey := c.Query("draft_key")
	if draftKey == "" {
		RespondError(c, "draft_key é obrigatório", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	res := db.Delete(&models.Draft{}, "user_id = ? AND draft_key = ?", user.ID, draftKey)
	if res.Error != nil {
		RespondError(c, res.Error.Error(), http.StatusBadRequest)
		return
	}
	if res.RowsAffected == 0 {
		RespondError(c, "Draft not found", http.StatusNotFound)
		return
	}

	RespondSuccess(c, gin.H{"success": true, "message": "Draft cleared successfully"})
}

// POST /api/drafts/cleanup (validated)
// Limpeza por idade restrita aos auto-saves do PRÓPRIO usuário.
func CleanupUserDrafts(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	daysOld := QueryInt(c, "days_old", dbpkg.Config().Drafts.AutoSaveRetentionDays)
	cutoff := time.Now().Add(-time.Duration(daysOld) * 24 * time.Hour)

	res := db.Delete(&models.Draft{},
		"user_id = ? AND is_auto_saved = ? AND updated_at < ?", user.ID, true, cutoff)
	if res.Error != nil {
		RespondError(c, "falha ao limpar drafts", http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, gin.H{
		"success": true,
		"message": fmt.Sprintf("Cleaned up %d old drafts", res.RowsAffected),
	})
}

// POST /api/admin/drafts/cleanup (admin)
// Invocação explícita da varredura global. force ignora o gate
// enable_auto_cleanup; dry_run só relata os candidatos.
func AdminCleanupDrafts(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	opts := workers.CleanupOptions{
		DaysOld:   QueryInt(c, "days_old", 0),
		DraftType: c.DefaultQuery("draft_type", models.DRAFT_CLEANUP_ALL),
		DryRun:    QueryBool(c, "dry_run", false),
		Force:     QueryBool(c, "force", false),
	}
	if opts.DraftType != models.DRAFT_CLEANUP_AUTO &&
		opts.DraftType != models.DRAFT_CLEANUP_MANUAL &&
		opts.DraftType != models.DRAFT_CLEANUP_ALL {
		RespondError(c, "draft_type inválido (auto|manual|all)", http.StatusBadRequest)
		return
	}

	result, err := workers.CleanupOldDrafts(db, dbpkg.Config(), opts)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, gin.H{"success": true, "result": result})
}
