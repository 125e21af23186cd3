package workers

import (
	"fmt"
	"testing"
	"time"

	"litigation/config"
	"litigation/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.LogMode(false)
	// uma conexão só: cada conexão sqlite :memory: enxerga um banco próprio
	db.DB().SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Draft{}).Error)

	t.Cleanup(func() { db.Close() })
	return db
}

// seedDraft cria um draft e força updated_at para `age` atrás via
// UpdateColumn (sem passar pelos hooks, que restaurariam o timestamp).
func seedDraft(t *testing.T, db *gorm.DB, userID int64, key string, autoSaved bool, age time.Duration) models.Draft {
	t.Helper()

	d := models.Draft{
		UserID:      userID,
		DraftType:   models.DRAFT_TYPE_CASE,
		Title:       "Draft " + key,
		FormData:    `{"field":"value"}`,
		DraftKey:    key,
		IsAutoSaved: autoSaved,
	}
	require.NoError(t, db.Create(&d).Error)

	updated := time.Now().Add(-age)
	require.NoError(t, db.Model(&models.Draft{}).
		Where("id = ?", d.ID).
		UpdateColumn("updated_at", updated).Error)
	d.UpdatedAt = &updated
	return d
}

func countDrafts(t *testing.T, db *gorm.DB, where string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.Model(&models.Draft{}).Where(where, args...).Count(&n).Error)
	return n
}

const day = 24 * time.Hour

func TestCleanupOldDrafts_AgeBoundaries(t *testing.T) {
	db := newTestDB(t)
	cfg := config.Defaults() // retenção auto = 7 dias

	old := seedDraft(t, db, 1, "case_1_a_edit", true, 8*day)
	fresh := seedDraft(t, db, 1, "case_1_b_edit", true, 6*day)

	res, err := CleanupOldDrafts(db, cfg, CleanupOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.AutoCandidates)
	assert.Equal(t, 1, res.Deleted)
	assert.Empty(t, res.Failures)

	assert.Equal(t, 0, countDrafts(t, db, "id = ?", old.ID))
	assert.Equal(t, 1, countDrafts(t, db, "id = ?", fresh.ID))
}

func TestCleanupOldDrafts_ManualFilter(t *testing.T) {
	db := newTestDB(t)
	cfg := config.Defaults() // retenção manual = 30 dias

	expired := seedDraft(t, db, 1, "case_1_man1", false, 31*day)
	kept := seedDraft(t, db, 1, "case_1_man2", false, 29*day)
	// auto-save bem mais velho que qualquer retenção: fora do filtro manual
	autoOld := seedDraft(t, db, 1, "case_1_old_edit", true, 90*day)

	res, err := CleanupOldDrafts(db, cfg, CleanupOptions{DraftType: models.DRAFT_CLEANUP_MANUAL})
	require.NoError(t, err)

	assert.Equal(t, 0, res.AutoCandidates)
	assert.Equal(t, 1, res.ManualCandidates)
	assert.Equal(t, 1, res.Deleted)

	assert.Equal(t, 0, countDrafts(t, db, "id = ?", expired.ID))
	assert.Equal(t, 1, countDrafts(t, db, "id = ?", kept.ID))
	assert.Equal(t, 1, countDrafts(t, db, "id = ?", autoOld.ID))
}

func TestCleanupOldDrafts_DaysOldOverride(t *testing.T) {
	db := newTestDB(t)
	cfg := config.Defaults()

	seedDraft(t, db, 1, "case_1_x_edit", true, 3*day)

	// override de 2 dias apanha o draft de 3 dias
	res, err := CleanupOldDrafts(db, cfg, CleanupOptions{DaysOld: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, res.AutoSaveDays)
	assert.Equal(t, 2, res.ManualDays)
	assert.Equal(t, 1, res.Deleted)
}

func TestCleanupOldDrafts_DryRunPurity(t *testing.T) {
	db := newTestDB(t)
	cfg := config.Defaults()

	seedDraft(t, db, 1, "case_1_a_edit", true, 10*day)
	seedDraft(t, db, 1, "case_1_man", false, 40*day)
	seedDraft(t, db, 1, "case_1_new", true, 1*day)

	dry, err := CleanupOldDrafts(db, cfg, CleanupOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, dry.TotalCandidates())
	assert.Equal(t, 0, dry.Deleted)

	// dry-run não mexe no store
	assert.Equal(t, 3, countDrafts(t, db, "1 = 1"))

	// a execução real apaga exatamente o conjunto relatado
	real, err := CleanupOldDrafts(db, cfg, CleanupOptions{})
	require.NoError(t, err)
	assert.Equal(t, dry.TotalCandidates(), real.Deleted)
	assert.Equal(t, 1, countDrafts(t, db, "1 = 1"))
}

func TestCleanupOldDrafts_DisabledGateAndForce(t *testing.T) {
	db := newTestDB(t)

	cfg := config.Defaults()
	disabled := false
	cfg.Drafts.EnableAutoCleanup = &disabled

	seedDraft(t, db, 1, "case_1_a_edit", true, 10*day)

	res, err := CleanupOldDrafts(db, cfg, CleanupOptions{})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 1, countDrafts(t, db, "1 = 1"))

	res, err = CleanupOldDrafts(db, cfg, CleanupOptions{Force: true})
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 0, countDrafts(t, db, "1 = 1"))
}

func TestCleanupOldDrafts_ActiveEditSurvives(t *testing.T) {
	db := newTestDB(t)
	cfg := config.Defaults()

	// draft velho o bastante para ser candidato...
	d := seedDraft(t, db, 1, "case_1_busy_edit", true, 8*day)

	// ...mas re-salvo antes da varredura: updated_at volta para "agora"
	require.NoError(t, db.Model(&models.Draft{}).
		Where("id = ?", d.ID).
		UpdateColumn("updated_at", time.Now()).Error)

	res, err := CleanupOldDrafts(db, cfg, CleanupOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, res.TotalCandidates())
	assert.Equal(t, 1, countDrafts(t, db, "id = ?", d.ID))
}

func TestEnforceAutoSaveCap(t *testing.T) {
	db := newTestDB(t)

	// 12 auto-saves com idades crescentes: chave 0 é a mais recente
	for i := 0; i < 12; i++ {
		seedDraft(t, db, 1, fmt.Sprintf("case_1_c%02d_edit", i), true, time.Duration(i)*time.Hour)
	}

	EnforceAutoSaveCap(db, 1, 10)

	assert.Equal(t, 10, countDrafts(t, db, "user_id = ? AND is_auto_saved = ?", 1, true))

	// os dois mais velhos por updated_at foram embora
	assert.Equal(t, 0, countDrafts(t, db, "draft_key = ?", "case_1_c10_edit"))
	assert.Equal(t, 0, countDrafts(t, db, "draft_key = ?", "case_1_c11_edit"))
	assert.Equal(t, 1, countDrafts(t, db, "draft_key = ?", "case_1_c00_edit"))
}

func TestEnforceAutoSaveCap_ScopedToOwnerAndClass(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 12; i++ {
		seedDraft(t, db, 1, fmt.Sprintf("case_1_c%02d_edit", i), true, time.Duration(i)*time.Hour)
	}
	// drafts manuais do mesmo dono e auto-saves de outro dono ficam fora da poda
	seedDraft(t, db, 1, "case_1_man", false, 100*day)
	seedDraft(t, db, 2, "case_2_a_edit", true, 100*day)

	EnforceAutoSaveCap(db, 1, 10)

	assert.Equal(t, 10, countDrafts(t, db, "user_id = ? AND is_auto_saved = ?", 1, true))
	assert.Equal(t, 1, countDrafts(t, db, "user_id = ? AND is_auto_saved = ?", 1, false))
	assert.Equal(t, 1, countDrafts(t, db, "user_id = ?", 2))
}

func TestEnforceAutoSaveCap_UnderCapIsNoop(t *testing.T) {
	db := newTestDB(t)

	seedDraft(t, db, 1, "case_1_a_edit", true, time.Hour)
	seedDraft(t, db, 1, "case_1_b_edit", true, 2*time.Hour)

	EnforceAutoSaveCap(db, 1, 10)

	assert.Equal(t, 2, countDrafts(t, db, "user_id = ?", 1))
}

func TestScheduleSpec(t *testing.T) {
	cases := []struct {
		schedule string
		at       string
		want     string
	}{
		{"daily", "02:00", "0 2 * * *"},
		{"", "02:00", "0 2 * * *"},
		{"weekly", "03:30", "30 3 * * 0"},
		{"monthly", "00:15", "15 0 1 * *"},
	}
	for _, tc := range cases {
		got, err := ScheduleSpec(tc.schedule, tc.at)
		require.NoError(t, err, "schedule %q at %q", tc.schedule, tc.at)
		assert.Equal(t, tc.want, got)
	}

	_, err := ScheduleSpec("hourly", "02:00")
	assert.Error(t, err)

	_, err = ScheduleSpec("daily", "25:00")
	assert.Error(t, err)

	_, err = ScheduleSpec("daily", "bogus")
	assert.Error(t, err)
}
