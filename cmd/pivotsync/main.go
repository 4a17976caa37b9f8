package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pivotsync/internal/config"
	"pivotsync/internal/logger"
	"pivotsync/internal/schedule"
	"pivotsync/internal/sync"
	"pivotsync/internal/xlsx"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	boundStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	command := os.Args[1]

	cfg, err := config.LoadConfig("configs/config.toml")
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Setup(cfg.Log.Directory, cfg.Log.Level); err != nil {
		fmt.Printf("Error setting up logging: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "sync":
		runSync(cfg, "")
	case "sync-date":
		if len(os.Args) < 3 {
			fmt.Println("Error: sync-date command requires a date")
			fmt.Println("Usage: pivotsync sync-date <YYYY-MM-DD>")
			return
		}
		runSync(cfg, os.Args[2])
	case "watch":
		runWatch(cfg)
	case "inspect":
		runInspect(cfg)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func printUsage() {
	fmt.Println("pivotsync - Pivot table date filter synchronizer")
	fmt.Println("\nUsage:")
	fmt.Println("  pivotsync sync                  - Sync pivot date filters to the latest date in the data sheet")
	fmt.Println("  pivotsync sync-date <date>      - Sync pivot date filters to an explicit YYYY-MM-DD date")
	fmt.Println("  pivotsync watch                 - Run the sync on the configured schedule until interrupted")
	fmt.Println("  pivotsync inspect               - Report data rows and pivot filters without changing anything")
}

// syncOnce runs a single synchronization pass. An empty date means the
// latest date is computed from the data sheet.
func syncOnce(cfg *config.Config, date string) (*sync.Result, error) {
	view, err := xlsx.OpenReportView(cfg.Workbook.Path, cfg.Workbook.ReportSheet)
	if err != nil {
		return nil, err
	}

	source := xlsx.NewDataSource(cfg.Workbook.Path, cfg.Workbook.DataSheet)
	synchronizer := sync.New(source, view, cfg.Workbook.DateColumn)

	var result *sync.Result
	if date == "" {
		result, err = synchronizer.SyncToLatest()
	} else {
		result, err = synchronizer.SyncToDate(date)
	}
	if err != nil {
		return nil, err
	}

	if result.FiltersUpdated > 0 {
		if err := view.Save(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func runSync(cfg *config.Config, date string) {
	logger.Info("Starting sync operation", "workbook", cfg.Workbook.Path)

	result, err := syncOnce(cfg, date)
	if err != nil {
		logger.Error("Sync operation failed", "error", err)
		fmt.Printf("Error syncing filters: %v\n", err)
		os.Exit(1)
	}

	if result.Skipped {
		fmt.Printf("Nothing to sync: %s\n", result.Reason)
		return
	}

	fmt.Printf("✓ Filters synced to %s\n", result.LatestDate)
	fmt.Printf("✓ Updated %d filter(s) across %d pivot table(s)\n", result.FiltersUpdated, result.PivotCount)
	if result.FiltersFailed > 0 {
		fmt.Printf("❌ %d filter(s) failed, see log\n", result.FiltersFailed)
	}
}

func runWatch(cfg *config.Config) {
	period, err := schedule.Period(cfg.Schedule.Every, cfg.Schedule.Unit)
	if err != nil {
		logger.Error("Invalid schedule configuration", "error", err)
		fmt.Printf("Error in schedule configuration: %v\n", err)
		os.Exit(1)
	}

	client := schedule.NewCronClient()
	manager := schedule.NewManager(client, period)

	job := func() {
		result, err := syncOnce(cfg, "")
		if err != nil {
			// A failed run never stops the schedule
			logger.Error("Scheduled sync failed", "error", err)
			return
		}
		if result.Skipped {
			logger.Info("Scheduled sync skipped", "reason", result.Reason)
		}
	}

	if err := manager.Install(job); err != nil {
		logger.Error("Failed to install schedule", "error", err)
		fmt.Printf("Error installing schedule: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Watching %s every %s (Ctrl+C to stop)\n", cfg.Workbook.Path, period)

	// First pass right away, then on the period
	job()
	client.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	manager.Uninstall()
	client.Stop()
	fmt.Println("\n✓ Schedule removed, exiting")
}

func runInspect(cfg *config.Config) {
	logger.Info("Starting inspect operation", "workbook", cfg.Workbook.Path)

	wb, err := xlsx.OpenWorkbook(cfg.Workbook.Path)
	if err != nil {
		logger.Error("Inspect operation failed", "error", err)
		fmt.Printf("Error opening workbook: %v\n", err)
		os.Exit(1)
	}
	sheetNames := wb.SheetNames()
	wb.Close()

	view, err := xlsx.OpenReportView(cfg.Workbook.Path, cfg.Workbook.ReportSheet)
	if err != nil {
		logger.Error("Inspect operation failed", "error", err)
		fmt.Printf("Error opening report view: %v\n", err)
		os.Exit(1)
	}

	source := xlsx.NewDataSource(cfg.Workbook.Path, cfg.Workbook.DataSheet)
	synchronizer := sync.New(source, view, cfg.Workbook.DateColumn)

	diag, err := synchronizer.Inspect()
	if err != nil {
		logger.Error("Inspect operation failed", "error", err)
		fmt.Printf("Error inspecting workbook: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(titleStyle.Render("Workbook: " + cfg.Workbook.Path))
	fmt.Printf("  Sheets: %s\n", strings.Join(sheetNames, ", "))

	fmt.Println(titleStyle.Render("Data sheet: " + cfg.Workbook.DataSheet))
	fmt.Printf("  Rows:      %d\n", diag.RowCount)
	fmt.Printf("  Header:    %v\n", diag.Header)
	if diag.LastRowDate != "" {
		fmt.Printf("  Last date: %s (raw %q)\n", diag.LastRowDate, diag.LastRowRaw)
	} else {
		fmt.Printf("  Last date: %s\n", dimStyle.Render("not parseable: "+diag.LastRowRaw))
	}

	fmt.Println(titleStyle.Render("Report sheet: " + cfg.Workbook.ReportSheet))
	fmt.Printf("  Pivot tables: %d\n", len(diag.Pivots))
	for _, pivot := range diag.Pivots {
		fmt.Printf("  %s\n", pivot.Name)
		for _, filter := range pivot.Filters {
			line := fmt.Sprintf("    [%d] %s", filter.ColumnIndex, filter.ColumnName)
			if filter.DateBound {
				fmt.Println(boundStyle.Render(line + "  (date-bound)"))
			} else {
				fmt.Println(dimStyle.Render(line))
			}
		}
	}
}
