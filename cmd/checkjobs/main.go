package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/gamifylearn/gamification-api/config"
	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// checkjobs prints the ledger state: recent cron runs, stuck payments and unread notifications
func main() {
	limit := flag.Int("limit", 20, "number of cron runs to show")
	stale := flag.Duration("stale", time.Hour, "age after which a pending payment is reported")
	flag.Parse()

	if err := config.LoadENV(); err != nil {
		log.Warnf(".env could not be loaded: %v", err)
	}
	env, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	store, err := database.StartGORM(env)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	db := store.GetDB().Session(&gorm.Session{Logger: logger.Default.LogMode(logger.Silent)})

	printCronRuns(db, *limit)
	printStalePayments(db, *stale)
	printUnreadNotifications(db)

	fmt.Println("\n========================================")
}

func printCronRuns(db *gorm.DB, limit int) {
	fmt.Println("========================================")
	fmt.Println("CRON JOB RUNS")
	fmt.Println("========================================")

	var runs []model.CronJobLog
	if err := db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		log.Fatalf("Failed to fetch cron runs: %v", err)
	}

	if len(runs) == 0 {
		fmt.Println("\n❌ No cron runs recorded")
		return
	}

	fmt.Printf("\n📋 Last %d runs:\n\n", len(runs))
	for _, run := range runs {
		statusIcon := "⏳"
		switch run.Status {
		case model.CronStatusCompleted:
			statusIcon = "✅"
		case model.CronStatusFailed:
			statusIcon = "❌"
		}

		fmt.Printf("%s %-28s %s  %6dms", statusIcon, run.JobName, run.StartedAt.Format("2006-01-02 15:04:05"), run.Duration)
		switch {
		case run.ErrorMsg != "":
			fmt.Printf("  error: %s", truncate(run.ErrorMsg, 60))
		case run.Message != "":
			fmt.Printf("  %s", truncate(run.Message, 60))
		}
		fmt.Println()
	}
}

func printStalePayments(db *gorm.DB, olderThan time.Duration) {
	var payments []model.PaymentTransaction
	db.Where("status = ? AND created_at < ?", model.PaymentStatusPending, time.Now().Add(-olderThan)).
		Order("created_at").Find(&payments)

	fmt.Println("\n========================================")
	fmt.Printf("PENDING PAYMENTS OLDER THAN %s: %d\n", olderThan, len(payments))
	fmt.Println("========================================")

	if len(payments) == 0 {
		fmt.Println("No stuck payments")
		return
	}
	for _, p := range payments {
		fmt.Printf("🔄 %s  user:%s course:%s  %.2f %s  since %s\n",
			p.TxRef, p.UserID, p.CourseID, p.Amount, p.Currency, p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printUnreadNotifications(db *gorm.DB) {
	fmt.Println("\n========================================")
	fmt.Println("UNREAD NOTIFICATIONS BY TYPE")
	fmt.Println("========================================")

	var rows []struct {
		Type  string
		Count int64
	}
	db.Model(&model.UserNotification{}).
		Select("type, count(*) as count").
		Where("read = ?", false).
		Group("type").
		Order("count DESC").
		Scan(&rows)

	if len(rows) == 0 {
		fmt.Println("Every notification has been read")
		return
	}
	for _, r := range rows {
		fmt.Printf("○ %-12s %d\n", r.Type, r.Count)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
