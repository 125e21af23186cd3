package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"litigation/config"
	dbpkg "litigation/db"
	"litigation/models"
	"litigation/router"
	"litigation/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var (
	cleanupDaysOld   int
	cleanupDraftType string
	cleanupDryRun    bool
	cleanupForce     bool
)

var rootCmd = &cobra.Command{
	Use:   "litigation",
	Short: "Backend de contencioso (casos, usuários e rascunhos persistentes)",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Sobe a API REST",
	RunE:  runServe,
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup-drafts",
	Short: "Remove drafts antigos conforme a retenção configurada",
	RunE:  runCleanup,
}

func main() {
	// .env é opcional; em produção as envs vêm do ambiente mesmo
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "caminho do config.json")

	cleanupCmd.Flags().IntVar(&cleanupDaysOld, "days-old", 0, "override da retenção (dias) para as duas classes")
	cleanupCmd.Flags().StringVar(&cleanupDraftType, "draft-type", models.DRAFT_CLEANUP_ALL, "classe a limpar: auto | manual | all")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "só relata o que seria apagado")
	cleanupCmd.Flags().BoolVar(&cleanupForce, "force", false, "roda mesmo com enable_auto_cleanup = false")

	rootCmd.AddCommand(serveCmd, cleanupCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get(configPath)
	dbpkg.SetConfigurations(cfg)

	db, err := dbpkg.Connect()
	if err != nil {
		return err
	}
	defer db.Close()

	// Gatilho de boot: uma varredura em background, se configurado.
	if cfg.Drafts.CleanupOnStartup {
		workers.RunBackgroundCleanup(db, cfg, "startup")
	}

	// Loop agendado (cleanup_schedule + cleanup_time).
	if cfg.Drafts.AutoCleanupEnabled() {
		if _, err := workers.StartCleanupScheduler(db, cfg); err != nil {
			log.Printf("draft cleanup: scheduler disabled: %v", err)
		}
	}

	r := gin.New()
	r.Use(dbpkg.SetDBtoContext(db))
	router.Initialize(r, cfg)

	log.Printf("Litigation API listening on :%s", cfg.ApiPort)
	return r.Run(":" + cfg.ApiPort)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	if cleanupDraftType != models.DRAFT_CLEANUP_AUTO &&
		cleanupDraftType != models.DRAFT_CLEANUP_MANUAL &&
		cleanupDraftType != models.DRAFT_CLEANUP_ALL {
		return fmt.Errorf("--draft-type inválido %q (auto|manual|all)", cleanupDraftType)
	}

	cfg := config.Get(configPath)
	dbpkg.SetConfigurations(cfg)

	db, err := dbpkg.Connect()
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := workers.CleanupOldDrafts(db, cfg, workers.CleanupOptions{
		DaysOld:   cleanupDaysOld,
		DraftType: cleanupDraftType,
		DryRun:    cleanupDryRun,
		Force:     cleanupForce,
	})
	if err != nil {
		return err
	}

	if res.Skipped {
		fmt.Println("Auto cleanup is disabled in settings. Use --force to override.")
		return nil
	}

	if cleanupDraftType != models.DRAFT_CLEANUP_MANUAL {
		fmt.Printf("Auto-saved drafts older than %d days: %d\n", res.AutoSaveDays, res.AutoCandidates)
	}
	if cleanupDraftType != models.DRAFT_CLEANUP_AUTO {
		fmt.Printf("Manual drafts older than %d days: %d\n", res.ManualDays, res.ManualCandidates)
	}

	if res.TotalCandidates() == 0 {
		fmt.Println("No old drafts found to clean up.")
		return nil
	}

	fmt.Printf("\nDrafts to be deleted: %d\n", res.TotalCandidates())
	for _, line := range res.CandidateSummary(time.Now()) {
		fmt.Println(line)
	}

	if res.DryRun {
		fmt.Println("Dry run mode - no drafts were actually deleted.")
		return nil
	}

	for _, f := range res.Failures {
		fmt.Printf("Failed to delete draft %d: %s\n", f.DraftID, f.Error)
	}
	fmt.Printf("Successfully deleted %d old drafts.\n", res.Deleted)
	return nil
}
