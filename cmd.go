package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"timegrid/internal/config"
	"timegrid/internal/export"
	"timegrid/internal/gateway"
	"timegrid/internal/log"
	"timegrid/internal/storage"
	"timegrid/internal/timesheet"
	"timegrid/internal/tui"
	"timegrid/internal/web"
)

var (
	flagConfigDir string
	flagListen    string
	flagUpstream  string
	flagFormat    string
	flagOut       string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "timegrid",
	Short: "timegrid tracks work hours on a calendar",
	Long: `timegrid is a work-hours timesheet. Hours are logged per project per
day, kept in a local database with a redundant snapshot copy, and
browsable in the terminal or through a small web UI that stays usable
offline.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfiguration,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web UI with an offline page cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all entries to CSV or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("timegrid v0.1.0")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "config directory (default: per-user config dir)")

	serveCmd.Flags().StringVar(&flagListen, "listen", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagUpstream, "upstream", "", "upstream base URL to cache pages from (overrides config)")

	exportCmd.Flags().StringVar(&flagFormat, "format", "csv", "export format: csv or json")
	exportCmd.Flags().StringVar(&flagOut, "out", "", "output path (default: timegrid-export-<date>.<format>)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfiguration(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	dir := flagConfigDir
	if dir == "" {
		var err error
		dir, err = config.DefaultDir()
		if err != nil {
			return err
		}
	}

	var err error
	cfg, err = config.Load(dir)
	if err != nil {
		return err
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		log.SetLevel(log.LevelDebug)
	case "error":
		log.SetLevel(log.LevelError)
	default:
		log.SetLevel(log.LevelInfo)
	}

	return nil
}

// openManager opens the key-value store and loads the timesheet into
// memory. The caller owns both returned closers.
func openManager(notifier timesheet.Notifier) (*timesheet.Manager, storage.KV, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure data dir: %w", err)
	}

	var kv storage.KV
	kv, err := storage.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.QuotaBytes > 0 {
		kv, err = storage.NewQuota(kv, cfg.QuotaBytes)
		if err != nil {
			kv.Close()
			return nil, nil, fmt.Errorf("apply quota: %w", err)
		}
	}

	var opts []timesheet.Option
	if notifier != nil {
		opts = append(opts, timesheet.WithNotifier(notifier))
	}
	m := timesheet.New(kv, opts...)
	m.Load()
	return m, kv, nil
}

func runTUI() error {
	notifier := tui.NewNotifier()
	m, kv, err := openManager(notifier)
	if err != nil {
		return err
	}
	defer kv.Close()
	defer m.Close()

	app := tui.NewApp(m, notifier)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func runServe(ctx context.Context) error {
	m, kv, err := openManager(nil)
	if err != nil {
		return err
	}
	defer kv.Close()
	defer m.Close()

	listen := cfg.Listen
	if flagListen != "" {
		listen = flagListen
	}
	upstreamURL := cfg.Upstream
	if flagUpstream != "" {
		upstreamURL = flagUpstream
	}

	var up gateway.Upstream
	if upstreamURL != "" {
		up, err = gateway.NewHTTPUpstream(upstreamURL)
		if err != nil {
			return fmt.Errorf("upstream: %w", err)
		}
	} else {
		up = gateway.NewHandlerUpstream(web.StaticHandler())
	}

	gw, err := gateway.New(cfg.CacheDir, up)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	installCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := gw.Install(installCtx); err != nil {
		// Serving degrades gracefully: pages get cached on first hit.
		log.Error("precache failed", err)
	}
	cancel()
	if err := gw.Activate(); err != nil {
		log.Error("stale cache sweep failed", err)
	}

	c := cron.New()
	c.AddFunc("@every 15m", func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := gw.RefreshManifest(refreshCtx); err != nil {
			log.Error("cache refresh failed", err)
		}
		if err := gw.SyncTimesheet(refreshCtx); err != nil {
			log.Error("sync failed", err)
		}
	})
	c.Start()
	defer c.Stop()

	srv := web.NewServer(m, gw)
	log.Info("listening", "addr", listen, "upstream", upstreamURL)
	return http.ListenAndServe(listen, srv.Handler())
}

func runExport() error {
	m, kv, err := openManager(nil)
	if err != nil {
		return err
	}
	defer kv.Close()
	defer m.Close()

	entries := m.Entries()
	projects := make(map[int64]timesheet.Project)
	for _, p := range m.Projects() {
		projects[p.ID] = p
	}

	format := strings.ToLower(flagFormat)
	out := flagOut
	if out == "" {
		out = filepath.Join(".", fmt.Sprintf("timegrid-export-%s.%s", time.Now().Format("2006-01-02"), format))
	}

	switch format {
	case "csv":
		err = export.ToCSV(entries, projects, out)
	case "json":
		err = export.ToJSON(entries, projects, out)
	default:
		return fmt.Errorf("unknown format %q (use csv or json)", flagFormat)
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	fmt.Printf("Exported %d entries to %s\n", len(entries), out)
	return nil
}
