package middleware

import (
	"sync"
	"time"

	"litigation/config"
	dbpkg "litigation/db"
	"litigation/workers"

	"github.com/gin-gonic/gin"
)

// DraftCleanup dispara a varredura de retenção de drafts no caminho da
// requisição, respeitando o cleanup_schedule (daily/weekly/monthly).
//
// O marcador lastCleanup é avançado ANTES de lançar a varredura (otimista):
// requisições em rajada logo depois não disparam varreduras duplicadas. A
// varredura roda em goroutine própria, a resposta nunca espera por ela.
//
// Limitação conhecida: lastCleanup vive na memória do processo. Com várias
// instâncias atrás de um balanceador, cada uma mantém sua própria cadência
// (at-least-once por instância, não exactly-once global).
func DraftCleanup(cfg config.Configuration) gin.HandlerFunc {
	var mu sync.Mutex
	var lastCleanup *time.Time

	return func(c *gin.Context) {
		if cfg.Drafts.AutoCleanupEnabled() {
			mu.Lock()
			now := time.Now()
			if cleanupDue(lastCleanup, cfg.Drafts.CleanupSchedule, now) {
				lastCleanup = &now
				if db := dbpkg.DBInstance(c); db != nil {
					workers.RunBackgroundCleanup(db, cfg, "request")
				}
			}
			mu.Unlock()
		}

		c.Next()
	}
}

// cleanupDue decide se a varredura está vencida para o schedule dado.
// Nunca rodou conta como vencida.
func cleanupDue(lastCleanup *time.Time, schedule string, now time.Time) bool {
	if lastCleanup == nil {
		return true
	}

	elapsed := now.Sub(*lastCleanup)
	switch schedule {
	case "weekly":
		return elapsed >= 7*24*time.Hour
	case "monthly":
		return elapsed >= 30*24*time.Hour
	default: // daily
		return elapsed >= 24*time.Hour
	}
}
