package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoSaveDraftKey(t *testing.T) {
	key := AutoSaveDraftKey(DRAFT_TYPE_CASE, 42, "2024-CCI-0017")
	assert.Equal(t, "case_42_2024-CCI-0017_edit", key)

	// mesma entrada, mesma chave: é isso que torna o auto-save idempotente
	assert.Equal(t, key, AutoSaveDraftKey(DRAFT_TYPE_CASE, 42, "2024-CCI-0017"))

	assert.Equal(t, "case_42_new", AutoSaveDraftKey(DRAFT_TYPE_CASE, 42, ""))
	assert.Equal(t, "user_7_new", AutoSaveDraftKey(DRAFT_TYPE_USER, 7, ""))
}

func TestNewDraftKeyPrefix(t *testing.T) {
	assert.Equal(t, AutoSaveDraftKey(DRAFT_TYPE_CASE, 42, ""), NewDraftKeyPrefix(DRAFT_TYPE_CASE, 42))
}

func TestManualDraftKey(t *testing.T) {
	a := ManualDraftKey(DRAFT_TYPE_CASE, 42)
	b := ManualDraftKey(DRAFT_TYPE_CASE, 42)

	assert.True(t, strings.HasPrefix(a, "case_42_"))
	assert.Len(t, a, len("case_42_")+8)

	// sufixo aleatório: duas chaves manuais nunca colidem entre si
	assert.NotEqual(t, a, b)

	// nem com a chave derivada de "registro novo"
	assert.NotEqual(t, a, AutoSaveDraftKey(DRAFT_TYPE_CASE, 42, ""))
}

func TestDefaultDraftTitle(t *testing.T) {
	assert.Equal(t, "Draft for Case 2024-CCI-0017", DefaultDraftTitle(DRAFT_TYPE_CASE, "2024-CCI-0017"))
	assert.Equal(t, "New Case Draft", DefaultDraftTitle(DRAFT_TYPE_CASE, ""))
	assert.Equal(t, "New User Draft", DefaultDraftTitle(DRAFT_TYPE_USER, ""))
	assert.Equal(t, "New Other Draft", DefaultDraftTitle(DRAFT_TYPE_OTHER, ""))
}

func TestDraftBeforeSaveBackfill(t *testing.T) {
	d := Draft{UserID: 7}
	require.NoError(t, d.BeforeSave())

	assert.Equal(t, DRAFT_TYPE_CASE, d.DraftType)
	assert.True(t, strings.HasPrefix(d.DraftKey, "case_7_"))
	assert.Equal(t, "New Case Draft", d.Title)
}

func TestDraftBeforeSaveKeepsExplicitValues(t *testing.T) {
	d := Draft{
		UserID:    7,
		DraftType: DRAFT_TYPE_USER,
		DraftKey:  "user_7_new",
		Title:     "Meu rascunho",
	}
	require.NoError(t, d.BeforeSave())

	assert.Equal(t, "user_7_new", d.DraftKey)
	assert.Equal(t, "Meu rascunho", d.Title)
}

func TestIsValidDraftType(t *testing.T) {
	assert.True(t, IsValidDraftType(DRAFT_TYPE_CASE))
	assert.True(t, IsValidDraftType(DRAFT_TYPE_USER))
	assert.True(t, IsValidDraftType(DRAFT_TYPE_OTHER))
	assert.False(t, IsValidDraftType("invoice"))
	assert.False(t, IsValidDraftType(""))
}

func TestFormDataJSON(t *testing.T) {
	d := Draft{FormData: `{"case_number":"123"}`}
	assert.JSONEq(t, `{"case_number":"123"}`, string(d.FormDataJSON()))

	empty := Draft{}
	assert.Equal(t, "{}", string(empty.FormDataJSON()))
}

func TestDraftAge(t *testing.T) {
	now := time.Now()

	recent := now.Add(-30 * time.Minute)
	d := Draft{UpdatedAt: &recent}
	assert.Equal(t, 30, d.AgeInMinutes(now))
	assert.True(t, d.IsRecent(now))

	stale := now.Add(-2 * time.Hour)
	d = Draft{UpdatedAt: &stale}
	assert.False(t, d.IsRecent(now))
}
