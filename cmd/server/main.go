package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/telemetry-viewer/backend/internal/api"
	"github.com/telemetry-viewer/backend/internal/config"
	"github.com/telemetry-viewer/backend/internal/loader"
	"github.com/telemetry-viewer/backend/internal/models"
	"github.com/telemetry-viewer/backend/internal/parser"
	"github.com/telemetry-viewer/backend/internal/session"
	"github.com/telemetry-viewer/backend/internal/storage"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "TelemetryViewer.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.GetLogLevel(),
	})))

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		slog.Error("failed to create directories", "error", err)
		os.Exit(1)
	}

	pairing := loader.PairByRow
	if cfg.Telemetry.PairByIndex {
		pairing = loader.PairByIndex
	}
	dirLoader, err := loader.New(loader.Options{
		Pattern:    cfg.Telemetry.FilePattern,
		TimeColumn: cfg.Telemetry.TimeColumn,
		Pairing:    pairing,
	})
	if err != nil {
		slog.Error("invalid telemetry settings", "error", err)
		os.Exit(1)
	}

	// Load plot style, falling back to built-in defaults
	var style *models.PlotStyle
	if cfg.Telemetry.StyleFile != "" {
		style, err = parser.ParsePlotStyle(cfg.Telemetry.StyleFile)
		if err != nil {
			slog.Warn("failed to load plot style, using defaults", "path", cfg.Telemetry.StyleFile, "error", err)
			style = nil
		} else {
			slog.Info("plot style loaded", "path", cfg.Telemetry.StyleFile)
		}
	}

	// Initialize storage
	fileStore, err := storage.NewLocalStore(cfg.GetWorkspacesDir())
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize session manager
	sessionMgr := session.NewManager(dirLoader)

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Processing.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.CleanupOldSessions(time.Duration(cfg.Processing.SessionTimeoutMinutes) * time.Minute)
		}
	}()

	// Initialize API handler
	h := api.NewHandler(fileStore, sessionMgr, api.Options{
		Version:            Version,
		Style:              style,
		AllowDirectoryLoad: cfg.Security.AllowDirectoryLoad,
		MaxUploadFiles:     cfg.Security.MaxUploadFiles,
	})

	e := echo.New()
	e.HideBanner = true

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			return c.Request().URL.Path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	// Compression middleware
	if cfg.Processing.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Processing.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				// PNG and XLSX are already compressed
				path := c.Request().URL.Path
				return strings.HasSuffix(path, ".png") || strings.HasSuffix(path, ".xlsx")
			},
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	api.SetupMiddleware(e)
	api.RegisterRoutes(e, h)

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Telemetry Viewer Server                         ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("║  Pattern:   %-46s║\n", cfg.Telemetry.FilePattern)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	e.Logger.Fatal(e.StartServer(s))
}
