package workers

import (
	"fmt"
	"log"
	"time"

	"litigation/config"
	"litigation/models"

	"github.com/jinzhu/gorm"
	"github.com/robfig/cron/v3"
)

// CleanupOptions espelha os parâmetros do comando cleanup-drafts.
type CleanupOptions struct {
	DaysOld   int    // override das retenções do config quando > 0
	DraftType string // auto | manual | all (default all)
	DryRun    bool
	Force     bool // roda mesmo com enable_auto_cleanup = false
}

type CleanupFailure struct {
	DraftID int64  `json:"draft_id"`
	Error   string `json:"error"`
}

// CleanupResult resume uma varredura de retenção.
type CleanupResult struct {
	Skipped          bool             `json:"skipped"`
	DryRun           bool             `json:"dry_run"`
	AutoSaveDays     int              `json:"auto_save_days"`
	ManualDays       int              `json:"manual_days"`
	AutoCandidates   int              `json:"auto_candidates"`
	ManualCandidates int              `json:"manual_candidates"`
	Deleted          int              `json:"deleted"`
	Failures         []CleanupFailure `json:"failures,omitempty"`

	// candidatos na ordem em que foram coletados (auto primeiro)
	Candidates []models.Draft `json:"-"`
}

func (r CleanupResult) TotalCandidates() int {
	return r.AutoCandidates + r.ManualCandidates
}

// CandidateSummary devolve as primeiras linhas de candidatos no formato do
// comando cleanup-drafts (máximo 10, com reticências).
func (r CleanupResult) CandidateSummary(now time.Time) []string {
	var lines []string
	for i, d := range r.Candidates {
		if i == 10 {
			break
		}
		age := 0
		if d.UpdatedAt != nil {
			age = int(now.Sub(*d.UpdatedAt).Hours() / 24)
		}
		lines = append(lines, fmt.Sprintf("  - %s (User: %d, Age: %d days)", d.Title, d.UserID, age))
	}
	if len(r.Candidates) > 10 {
		lines = append(lines, fmt.Sprintf("  ... and %d more", len(r.Candidates)-10))
	}
	return lines
}

// CleanupOldDrafts remove drafts mais velhos que a retenção da sua classe:
// auto-saves além de auto_save_retention_days e drafts manuais além de
// manual_draft_retention_days. Os cutoffs são calculados uma única vez, no
// início da varredura; um draft re-salvo durante a varredura ganha
// updated_at "agora" e fica fora do conjunto de candidatos, então ninguém
// perde um draft em edição ativa.
func CleanupOldDrafts(db *gorm.DB, cfg config.Configuration, opts CleanupOptions) (CleanupResult, error) {
	res := CleanupResult{DryRun: opts.DryRun}

	if !cfg.Drafts.AutoCleanupEnabled() && !opts.Force {
		log.Println("draft cleanup: auto cleanup desabilitado no config (use force para rodar mesmo assim)")
		res.Skipped = true
		return res, nil
	}

	draftType := opts.DraftType
	if draftType == "" {
		draftType = models.DRAFT_CLEANUP_ALL
	}

	autoDays := cfg.Drafts.AutoSaveRetentionDays
	manualDays := cfg.Drafts.ManualRetentionDays
	if opts.DaysOld > 0 {
		autoDays = opts.DaysOld
		manualDays = opts.DaysOld
	}
	res.AutoSaveDays = autoDays
	res.ManualDays = manualDays

	now := time.Now()
	autoCutoff := now.Add(-time.Duration(autoDays) * 24 * time.Hour)
	manualCutoff := now.Add(-time.Duration(manualDays) * 24 * time.Hour)

	if draftType == models.DRAFT_CLEANUP_AUTO || draftType == models.DRAFT_CLEANUP_ALL {
		var autoDrafts []models.Draft
		if err := db.
			Where("is_auto_saved = ? AND updated_at < ?", true, autoCutoff).
			Find(&autoDrafts).Error; err != nil {
			return res, fmt.Errorf("query auto-saved drafts: %v", err)
		}
		res.AutoCandidates = len(autoDrafts)
		res.Candidates = append(res.Candidates, autoDrafts...)
		log.Printf("draft cleanup: auto-saved drafts older than %d days: %d", autoDays, len(autoDrafts))
	}

	if draftType == models.DRAFT_CLEANUP_MANUAL || draftType == models.DRAFT_CLEANUP_ALL {
		var manualDrafts []models.Draft
		if err := db.
			Where("is_auto_saved = ? AND updated_at < ?", false, manualCutoff).
			Find(&manualDrafts).Error; err != nil {
			return res, fmt.Errorf("query manual drafts: %v", err)
		}
		res.ManualCandidates = len(manualDrafts)
		res.Candidates = append(res.Candidates, manualDrafts...)
		log.Printf("draft cleanup: manual drafts older than %d days: %d", manualDays, len(manualDrafts))
	}

	if len(res.Candidates) == 0 {
		log.Println("draft cleanup: no old drafts found to clean up")
		return res, nil
	}

	if opts.DryRun {
		log.Printf("draft cleanup: dry run, %d drafts would be deleted", len(res.Candidates))
		return res, nil
	}

	// Cada delete é independente: falha em um registro não aborta os demais.
	for _, d := range res.Candidates {
		if err := db.Delete(&models.Draft{}, "id = ?", d.ID).Error; err != nil {
			log.Printf("draft cleanup: failed to delete draft %d: %v", d.ID, err)
			res.Failures = append(res.Failures, CleanupFailure{DraftID: d.ID, Error: err.Error()})
			continue
		}
		res.Deleted++
	}

	log.Printf("draft cleanup: deleted %d old drafts (%d failures)", res.Deleted, len(res.Failures))
	return res, nil
}

// EnforceAutoSaveCap mantém apenas os `keep` auto-saves mais recentes do
// usuário e apaga o excedente. Best-effort: o delete é re-tentado uma vez e
// depois só logado; um auto-save nunca falha por causa da poda (a varredura
// por idade recolhe o que sobrar).
func EnforceAutoSaveCap(db *gorm.DB, userID int64, keep int) {
	if keep <= 0 {
		keep = 10
	}

	var drafts []models.Draft
	if err := db.
		Where("user_id = ? AND is_auto_saved = ?", userID, true).
		Order("updated_at desc").
		Find(&drafts).Error; err != nil {
		log.Printf("draft cleanup: cap query failed for user %d: %v", userID, err)
		return
	}
	if len(drafts) <= keep {
		return
	}

	ids := make([]int64, 0, len(drafts)-keep)
	for _, d := range drafts[keep:] {
		ids = append(ids, d.ID)
	}

	err := db.Delete(&models.Draft{}, "id in (?)", ids).Error
	if err != nil {
		err = db.Delete(&models.Draft{}, "id in (?)", ids).Error
	}
	if err != nil {
		log.Printf("draft cleanup: cap delete failed for user %d: %v", userID, err)
	}
}

// Uma varredura em andamento por processo; disparos extras são ignorados.
var sweepSlot = make(chan struct{}, 1)

// RunBackgroundCleanup dispara a varredura em segundo plano (fire-and-forget).
// O chamador nunca espera o resultado; o desfecho vai para o log.
func RunBackgroundCleanup(db *gorm.DB, cfg config.Configuration, reason string) {
	select {
	case sweepSlot <- struct{}{}:
	default:
		log.Printf("draft cleanup: sweep already running, skipping trigger (%s)", reason)
		return
	}

	go func() {
		defer func() { <-sweepSlot }()

		res, err := CleanupOldDrafts(db, cfg, CleanupOptions{DraftType: models.DRAFT_CLEANUP_ALL})
		if err != nil {
			log.Printf("draft cleanup (%s): failed: %v", reason, err)
			return
		}
		if res.Skipped {
			return
		}
		log.Printf("draft cleanup (%s): completed, deleted=%d failures=%d", reason, res.Deleted, len(res.Failures))
	}()
}

// StartCleanupScheduler agenda a varredura no horário configurado
// (cleanup_time + cleanup_schedule). Convive com o heartbeat do middleware:
// os dois caminhos dividem o mesmo slot único de varredura.
func StartCleanupScheduler(db *gorm.DB, cfg config.Configuration) (*cron.Cron, error) {
	spec, err := ScheduleSpec(cfg.Drafts.CleanupSchedule, cfg.Drafts.CleanupTime)
	if err != nil {
		return nil, err
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		RunBackgroundCleanup(db, cfg, "scheduler")
	}); err != nil {
		return nil, err
	}
	c.Start()

	log.Printf("draft cleanup: scheduler started (%s)", spec)
	return c, nil
}

// ScheduleSpec converte (daily|weekly|monthly, "HH:MM") em expressão cron.
// weekly roda no domingo, monthly no dia 1.
func ScheduleSpec(schedule, at string) (string, error) {
	var hour, min int
	if _, err := fmt.Sscanf(at, "%d:%d", &hour, &min); err != nil {
		return "", fmt.Errorf("invalid cleanup_time %q", at)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return "", fmt.Errorf("invalid cleanup_time %q", at)
	}

	switch schedule {
	case "daily", "":
		return fmt.Sprintf("%d %d * * *", min, hour), nil
	case "weekly":
		return fmt.Sprintf("%d %d * * 0", min, hour), nil
	case "monthly":
		return fmt.Sprintf("%d %d 1 * *", min, hour), nil
	}
	return "", fmt.Errorf("invalid cleanup_schedule %q", schedule)
}
