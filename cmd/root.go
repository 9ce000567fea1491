package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bunkrfetch/downloader"
	"bunkrfetch/extractor"
	"bunkrfetch/internal"
	"bunkrfetch/utils"
)

var (
	outputDir string
	skipItems int
	rateLimit string
	proxyURL  string
	tlds      bool
	listOnly  bool
	quiet     bool
	debug     bool
	logLevel  string
	logFile   string
	config    *internal.Config
)

var rootCmd = &cobra.Command{
	Use:     "bunkrfetch [OPTIONS] <URL>",
	Short:   "Resolve and download files from bunkr albums and media pages",
	Version: "v1.0.0",
	Long: `bunkrfetch resolves bunkr album and media page links into direct file
URLs, routing around domains behind anti-bot challenges and reversing the
host's URL obfuscation, then downloads the files.

Examples:
  bunkrfetch https://bunkr.si/a/ALBUM_ID
  bunkrfetch -o ./downloads --skip 10 https://bunkr.si/a/ALBUM_ID
  bunkrfetch --list-only https://bunkr.si/f/FILE_ID
  bunkrfetch "bunkr:fresh-mirror.example/a/ALBUM_ID"

Environment Variables:
  BUNKRFETCH_TLDS       Accept any bunkr.* TLD instead of the fixed list
  BUNKRFETCH_TIMEOUT    HTTP timeout in seconds
  BUNKRFETCH_PROXY      Proxy URL
  BUNKRFETCH_RATE_LIMIT Default rate limit (e.g., 5M)`,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfiguration(); err != nil {
			return fmt.Errorf("configuration error: %v", err)
		}

		if err := internal.InitLogger(config); err != nil {
			return fmt.Errorf("failed to initialize logger: %v", err)
		}

		internal.LogDebug("Configuration loaded: tlds=%v, timeout=%d, debug=%v, quiet=%v",
			config.ExpandedTLDs, config.DefaultTimeout, config.EnableDebug, config.QuietMode)

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		rawURL := args[0]

		validator := utils.NewURLValidator(config.ExpandedTLDs)
		info, err := validator.ParseURL(rawURL)
		if err != nil {
			if be, ok := err.(*internal.BunkrError); ok {
				internal.LogBunkrError(be)
			}
			return fmt.Errorf("invalid URL: %v\n\nSupported URL formats:\n  - https://bunkr.si/a/[album_id]\n  - https://bunkr.si/f/[file_id]\n  - bunkr:[host]/a/[album_id]", err)
		}
		internal.LogDebug("URL parsed: %s", info)

		var rateLimitBytes int64
		if rateLimit != "" {
			rateLimitBytes, err = utils.ParseRateLimit(rateLimit)
			if err != nil {
				return fmt.Errorf("invalid rate limit format: %v\n\nSupported formats:\n  - 1M (1 MB/s)\n  - 500K (500 KB/s)\n  - 1024 (1024 bytes/s)", err)
			}
		}

		return executeExtraction(info, rateLimitBytes)
	},
}

// loadConfiguration loads configuration from environment variables and
// merges it with CLI flags
func loadConfiguration() error {
	config = internal.DefaultConfig()
	config.LoadFromEnv()

	if tlds {
		config.ExpandedTLDs = true
	}

	if proxyURL == "" {
		proxyURL = os.Getenv("BUNKRFETCH_PROXY")
	}

	if rateLimit == "" {
		rateLimit = os.Getenv("BUNKRFETCH_RATE_LIMIT")
	}

	if debug {
		config.EnableDebug = true
		config.LogLevel = "debug"
	}

	if quiet {
		config.QuietMode = true
	}

	if logLevel != "" {
		config.LogLevel = logLevel
	}

	if logFile != "" {
		config.LogFile = logFile
	}

	return config.ValidateConfig()
}

// executeExtraction runs the resolve-then-download workflow for one link
func executeExtraction(info *utils.URLInfo, rateLimitBytes int64) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		internal.LogInfo("Received signal %v, shutting down", sig)
		cancel()
	}()

	pool := extractor.NewDefaultDomainPool()

	// Legacy domains are recognized in input but never requested; their
	// links resolve against the default root. Explicit overrides always
	// use the host as given.
	root := extractor.DefaultRoot
	if info.Explicit || !pool.IsLegacy(info.Host) {
		root = "https://" + info.Host
	}

	client := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
		Timeout:         0,
		ProxyURL:        proxyURL,
		FollowRedirects: false,
		MaxAttempts:     config.MaxRetries,
	})
	router := extractor.NewRouterWithClient(client, pool, root)
	ex := extractor.NewAlbumExtractor(router)
	if skipItems > 0 {
		ex.Skip(skipItems)
	}

	var (
		it   *extractor.FileIterator
		meta *internal.AlbumMetadata
		err  error
	)
	if info.IsAlbum() {
		internal.LogInfo("Fetching album %s from %s", info.ID, root)
		it, meta, err = ex.FetchAlbum(info.ID)
	} else {
		internal.LogInfo("Fetching media page %s from %s", info.ID, root)
		it, meta, err = ex.FetchMedia(root + info.Path)
	}
	if err != nil {
		if be, ok := err.(*internal.BunkrError); ok {
			internal.LogBunkrError(be)
		}
		return fmt.Errorf("extraction failed: %w", err)
	}

	if !quiet {
		if meta.AlbumName != "" {
			fmt.Printf("Album: %s", meta.AlbumName)
			if meta.AlbumSize != "" {
				fmt.Printf(" (%s)", meta.AlbumSize)
			}
			fmt.Println()
		}
		fmt.Printf("Items: %d\n", meta.Count)
		if skipItems > 0 {
			fmt.Printf("Skipping first %d item(s)\n", skipItems)
		}
	}

	engine := downloader.NewStreamEngine()
	downloadConfig := &internal.DownloadConfig{
		OutputDir: outputDir,
		RateLimit: rateLimitBytes,
		Quiet:     quiet,
	}

	resolved, failed := 0, 0
	for it.Next() {
		if ctx.Err() != nil {
			return fmt.Errorf("cancelled")
		}

		file := it.File()
		resolved++

		if listOnly {
			fmt.Println(file.DirectURL)
			continue
		}

		if err := engine.Download(ctx, file, downloadConfig); err != nil {
			failed++
			internal.LogError("download failed for %s: %v", file.Name, err)
		}
	}
	if err := it.Err(); err != nil {
		// domain exhaustion: no further progress is possible this run
		if be, ok := err.(*internal.BunkrError); ok {
			internal.LogBunkrError(be)
		}
		return err
	}

	internal.LogInfo("Done: %d of %d item(s) resolved, %d download failure(s)", resolved, meta.Count, failed)
	if !quiet && !listOnly {
		fmt.Printf("Resolved %d of %d item(s), %d download failure(s)\n", resolved, meta.Count, failed)
	}
	return nil
}

func init() {
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory for downloaded files")
	rootCmd.Flags().IntVar(&skipItems, "skip", 0, "Skip the first N album items without resolving them")
	rootCmd.Flags().StringVarP(&rateLimit, "limit-rate", "r", "", "Bandwidth limit (e.g., 5M for 5MB/s) (env: BUNKRFETCH_RATE_LIMIT)")
	rootCmd.Flags().StringVar(&proxyURL, "proxy", "", "HTTP/SOCKS proxy URL (env: BUNKRFETCH_PROXY)")
	rootCmd.Flags().BoolVar(&tlds, "tlds", false, "Accept any bunkr.* top-level domain (env: BUNKRFETCH_TLDS)")
	rootCmd.Flags().BoolVar(&listOnly, "list-only", false, "Print resolved direct URLs instead of downloading")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging (env: BUNKRFETCH_DEBUG)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Set log level (debug, info, warn, error) (env: BUNKRFETCH_LOG_LEVEL)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr (env: BUNKRFETCH_LOG_FILE)")
}

func Execute() error {
	return rootCmd.Execute()
}
