package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

/************************************************
/**** MARK: DRAFT TYPES ****/
/************************************************/
const DRAFT_TYPE_CASE = "case"
const DRAFT_TYPE_USER = "user"
const DRAFT_TYPE_OTHER = "other"

/************************************************
/**** MARK: CLEANUP CLASSES ****/
/************************************************/
const DRAFT_CLEANUP_AUTO = "auto"
const DRAFT_CLEANUP_MANUAL = "manual"
const DRAFT_CLEANUP_ALL = "all"

// Draft guarda um formulário em andamento de um usuário.
// Regra: um usuário só pode ter 1 draft por chave (unique(user_id, draft_key)).
// O conteúdo (FormData) é JSON opaco; o backend não interpreta o schema.
type Draft struct {
	ID          int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID      int64      `gorm:"not null;index;unique_index:ux_user_draft_key" json:"user_id"`
	DraftType   string     `gorm:"not null;default:'case';index" json:"draft_type" form:"draft_type"`
	Title       string     `gorm:"not null" json:"title" form:"title"`
	FormData    string     `gorm:"type:text;not null" json:"-"` // JSON object serializado
	CaseID      string     `gorm:"default:'';index" json:"case_id" form:"case_id"`
	DraftKey    string     `gorm:"not null;index;unique_index:ux_user_draft_key" json:"draft_key"`
	// sem default no gorm: com `default:true` o gorm v1 omite o campo no
	// INSERT quando o valor é false e o save manual viraria auto-save
	IsAutoSaved bool       `gorm:"not null;index" json:"is_auto_saved"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// BeforeSave preenche chave e título quando ausentes, na criação ou atualização.
func (d *Draft) BeforeSave() error {
	if d.DraftType == "" {
		d.DraftType = DRAFT_TYPE_CASE
	}
	if d.DraftKey == "" {
		d.DraftKey = ManualDraftKey(d.DraftType, d.UserID)
	}
	if d.Title == "" {
		d.Title = DefaultDraftTitle(d.DraftType, d.CaseID)
	}
	return nil
}

// FormDataJSON expõe o conteúdo como JSON cru para as respostas da API.
func (d Draft) FormDataJSON() json.RawMessage {
	if strings.TrimSpace(d.FormData) == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(d.FormData)
}

// AgeInMinutes devolve a idade do draft (desde o último update).
func (d Draft) AgeInMinutes(now time.Time) int {
	if d.UpdatedAt == nil {
		return 0
	}
	return int(now.Sub(*d.UpdatedAt).Minutes())
}

// IsRecent indica se o draft foi atualizado na última hora.
func (d Draft) IsRecent(now time.Time) bool {
	return d.AgeInMinutes(now) <= 60
}

func IsValidDraftType(t string) bool {
	return t == DRAFT_TYPE_CASE || t == DRAFT_TYPE_USER || t == DRAFT_TYPE_OTHER
}

// AutoSaveDraftKey deriva a chave estável usada pelo auto-save.
// Editando um caso existente a chave termina em "_edit" e é determinística
// por (tipo, usuário, caso). Sem caso, todos os drafts "novos" daquele tipo
// compartilham a mesma chave "_new": um segundo auto-save de registro novo
// sobrescreve o primeiro em silêncio. Quem precisar de vários drafts novos
// independentes usa o caminho manual (ManualDraftKey).
func AutoSaveDraftKey(draftType string, userID int64, caseID string) string {
	if caseID != "" {
		return fmt.Sprintf("%s_%d_%s_edit", draftType, userID, caseID)
	}
	return fmt.Sprintf("%s_%d_new", draftType, userID)
}

// NewDraftKeyPrefix é o prefixo das chaves de "registro novo" de um tipo,
// usado na busca do draft novo mais recente.
func NewDraftKeyPrefix(draftType string, userID int64) string {
	return fmt.Sprintf("%s_%d_new", draftType, userID)
}

// ManualDraftKey cria uma chave nova com sufixo aleatório (nunca colide com
// a chave derivada do auto-save).
func ManualDraftKey(draftType string, userID int64) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", draftType, userID, suffix)
}

// DefaultDraftTitle gera o título exibido quando o cliente não manda um.
func DefaultDraftTitle(draftType, caseID string) string {
	if caseID != "" {
		return "Draft for Case " + caseID
	}
	return "New " + titleCase(draftType) + " Draft"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
