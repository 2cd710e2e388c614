package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zen-systems/mediagate/pkg/adapter"
	"github.com/zen-systems/mediagate/pkg/audit"
	"github.com/zen-systems/mediagate/pkg/config"
	"github.com/zen-systems/mediagate/pkg/metrics"
	"github.com/zen-systems/mediagate/pkg/router"
	"github.com/zen-systems/mediagate/pkg/server"
)

var (
	configFile   string
	providerFlag string
	logLevel     string
	logFormat    string
	jsonFlag     bool

	overrideName string
	overrideKey  string
	overrideURL  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mediagate",
		Short: "Uniform text, image and video generation over multiple model providers",
		Long: `Mediagate exposes one generation interface over xAI, OpenAI-compatible
	vendors, Gemini and Claude. Run "mediagate serve" for the HTTP API or use the
	text, image and video commands directly.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default ~/.mediagate/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "default provider (overrides GEN_MODEL_PROVIDER)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format: console or json")
	rootCmd.PersistentFlags().StringVar(&overrideName, "provider-name", "", "per-call provider name (requires --provider-key)")
	rootCmd.PersistentFlags().StringVar(&overrideKey, "provider-key", "", "per-call provider API key")
	rootCmd.PersistentFlags().StringVar(&overrideURL, "provider-url", "", "per-call base URL for unknown OpenAI-compatible providers")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(textCmd())
	rootCmd.AddCommand(imageCmd())
	rootCmd.AddCommand(videoCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(providersCmd())
	rootCmd.AddCommand(historyCmd())

	return rootCmd
}

// app bundles what every command needs after configuration is loaded.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	resolver *router.Resolver
	opts     []router.Option
}

func (a *app) override() router.Override {
	return router.Override{Name: overrideName, APIKey: overrideKey, BaseURL: overrideURL}
}

func (a *app) adapter() (adapter.Adapter, error) {
	return a.resolver.Resolve(a.override())
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func setup(opts ...router.Option) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	logger, err := newLogger(level, logFormat)
	if err != nil {
		return nil, err
	}
	if cfg.EnvFile != "" {
		logger.Debug("loaded environment file", zap.String("path", cfg.EnvFile))
	}

	opts = append([]router.Option{router.WithLogger(logger)}, opts...)
	a := &app{cfg: cfg, logger: logger, opts: opts}

	def, err := router.Build(cfg, opts...)
	if err != nil {
		// A complete per-call override does not need the default provider.
		if !a.override().Active() {
			return nil, err
		}
		logger.Debug("default provider unavailable", zap.Error(err))
	}
	a.resolver = router.NewResolver(def, opts...)
	return a, nil
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	var host string
	var port int
	var auditPath string
	var noMetrics bool
	var origins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serves the generation API on ARTS_ENGINE_HOST:ARTS_ENGINE_PORT
	(default 127.0.0.1:8082). Requests may select another provider with the
	X-Provider-Name, X-Provider-Key and X-Provider-URL headers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var collector *metrics.Collector
			var routerOpts []router.Option
			if !noMetrics {
				collector = metrics.NewCollector("mediagate", nil)
				collector.Registry().MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				routerOpts = append(routerOpts, router.WithMetrics(collector))
			}

			a, err := setup(routerOpts...)
			if err != nil {
				return err
			}
			defer a.close()

			if a.resolver.Default() == nil {
				return fmt.Errorf("serve requires a default provider")
			}
			if host != "" {
				a.cfg.ServerHost = host
			}
			if port != 0 {
				a.cfg.ServerPort = port
			}
			if auditPath != "" {
				a.cfg.AuditCSV = auditPath
			}

			auditLog := audit.NewLogger(a.cfg.AuditCSV)
			srvOpts := []server.Option{
				server.WithLogger(a.logger),
				server.WithAudit(auditLog),
				server.WithAllowedOrigins(origins...),
			}
			if collector != nil {
				srvOpts = append(srvOpts, server.WithMetrics(collector))
			}
			srv := server.New(a.resolver, srvOpts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("starting mediagate",
				zap.String("provider", a.resolver.Default().Name()),
				zap.String("audit_csv", auditLog.Path()),
			)
			return srv.ListenAndServe(ctx, a.cfg.Addr())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	cmd.Flags().StringVar(&auditPath, "audit-csv", "", "video audit CSV path (overrides config)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", []string{"*"}, "allowed CORS origins")

	return cmd
}

func modelsCmd() *cobra.Command {
	var allFlag bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models offered by the provider",
		Long: `Lists the models of the default (or --provider-name) provider.

	Use --all to query every provider that has a key configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODEL\tOWNED BY")

			if !allFlag {
				p, err := a.adapter()
				if err != nil {
					return err
				}
				models, err := p.ListModels(cmd.Context())
				if err != nil {
					return err
				}
				for _, m := range models {
					fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name(), m.ID, m.OwnedBy)
				}
				return w.Flush()
			}

			for _, r := range listAll(cmd.Context(), a) {
				if r.err != nil {
					fmt.Fprintf(w, "%s\t-\terror: %v\n", r.provider, r.err)
					continue
				}
				for _, m := range r.models {
					fmt.Fprintf(w, "%s\t%s\t%s\n", r.provider, m.ID, m.OwnedBy)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&allFlag, "all", false, "list models for every configured provider")

	return cmd
}

type listResult struct {
	provider string
	models   []adapter.ModelSummary
	err      error
}

// listAll queries every configured provider concurrently. Results keep the
// order of router.Known.
func listAll(ctx context.Context, a *app) []listResult {
	var providers []router.Provider
	for _, p := range router.Known() {
		if p.Name == "mock" || a.cfg.HasAdapter(p.Name) {
			providers = append(providers, p)
		}
	}

	results := make([]listResult, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range providers {
		g.Go(func() error {
			results[i].provider = p.Name
			cfg := *a.cfg
			cfg.Provider = p.Name
			built, err := router.Build(&cfg, a.opts...)
			if err != nil {
				results[i].err = err
				return nil
			}
			results[i].models, results[i].err = built.ListModels(gctx)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func textCmd() *cobra.Command {
	var req adapter.TextRequest
	var temperature float64
	var maxTokens int

	cmd := &cobra.Command{
		Use:   "text [prompt]",
		Short: "Generate text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.adapter()
			if err != nil {
				return err
			}

			req.Prompt = args[0]
			if cmd.Flags().Changed("temperature") {
				req.Temperature = &temperature
			}
			if cmd.Flags().Changed("max-tokens") {
				req.MaxTokens = &maxTokens
			}

			resp, err := p.GenerateText(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&req.Model, "model", "", "model to use (default: provider default)")
	cmd.Flags().StringVar(&req.SystemPrompt, "system", "", "system prompt")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "sampling temperature")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "maximum tokens to generate")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "print the full JSON response")

	return cmd
}

func imageCmd() *cobra.Command {
	var req adapter.ImageRequest

	cmd := &cobra.Command{
		Use:   "image [prompt]",
		Short: "Generate an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.adapter()
			if err != nil {
				return err
			}

			req.Prompt = args[0]
			resp, err := p.GenerateImage(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&req.Model, "model", "", "model to use (default: provider default)")
	cmd.Flags().StringVar(&req.AspectRatio, "aspect", "", "aspect ratio, e.g. 16:9")
	cmd.Flags().StringVar(&req.ResponseFormat, "format", "", "response format: url or b64_json")
	cmd.Flags().StringSliceVar(&req.ImageURLs, "image-url", nil, "reference image URL (repeatable)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "print the full JSON response")

	return cmd
}

func videoCmd() *cobra.Command {
	var req adapter.VideoRequest
	var duration int

	cmd := &cobra.Command{
		Use:   "video [prompt]",
		Short: "Submit a video generation job",
		Long: `Submits a video job and prints its id. Poll it with "mediagate status <id>".
	Accepted jobs are appended to the audit CSV.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.adapter()
			if err != nil {
				return err
			}

			req.Prompt = args[0]
			if cmd.Flags().Changed("duration") {
				req.DurationSeconds = &duration
			}

			resp, err := p.GenerateVideo(cmd.Context(), req)
			if err != nil {
				return err
			}
			if resp.ID != "" {
				if err := audit.NewLogger(a.cfg.AuditCSV).RecordVideo(req.Prompt, resp.ID); err != nil {
					a.logger.Warn("failed to record video job", zap.Error(err))
				}
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&req.Model, "model", "", "model to use (default: provider default)")
	cmd.Flags().StringVar(&req.AspectRatio, "aspect", "", "aspect ratio, e.g. 16:9")
	cmd.Flags().IntVar(&duration, "duration", 0, "duration in seconds")
	cmd.Flags().StringSliceVar(&req.ImageURLs, "image-url", nil, "reference image URL (repeatable)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "print the full JSON response")

	return cmd
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [id]",
		Short: "Poll a video generation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.adapter()
			if err != nil {
				return err
			}
			resp, err := p.VideoStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "print the full JSON response")

	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List recognized providers and whether a key is configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return writeProviders(cmd.OutOrStdout(), cfg)
		},
	}
}

func writeProviders(out io.Writer, cfg *config.Config) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tBASE URL\tTEXT MODEL\tSTATUS")

	defaultName := router.Canonical(cfg.Provider)
	for _, p := range router.Known() {
		status := "no key (" + router.KeyEnv(p.Name) + ")"
		if p.Name == "mock" || cfg.HasAdapter(p.Name) {
			status = "ready"
		}
		if p.Name == defaultName {
			status += ", default"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, dash(p.BaseURL), dash(p.TextModel), status)
	}
	return w.Flush()
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show submitted video jobs from the audit CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			entries, err := audit.ReadEntries(cfg.AuditCSV)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no video jobs recorded in %s\n", cfg.AuditCSV)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATETIME\tURL PATH\tPROMPT")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.DateTime.Format("2006-01-02 15:04:05"), e.URLPath, oneLine(e.Prompt, 60))
			}
			return w.Flush()
		},
	}
}

func printResponse(out io.Writer, resp *adapter.GenerationResponse) error {
	if resp == nil {
		return errors.New("provider returned no response")
	}
	if jsonFlag {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintf(out, "[%s/%s] %s", resp.Provider, resp.Model, resp.Status)
	if resp.ID != "" {
		fmt.Fprintf(out, " id=%s", resp.ID)
	}
	fmt.Fprintln(out)
	if resp.Text != "" {
		fmt.Fprintln(out, resp.Text)
	}
	for _, u := range resp.MediaURLs {
		fmt.Fprintln(out, oneLine(u, 120))
	}
	if resp.Usage != nil {
		fmt.Fprintf(out, "tokens: prompt=%d completion=%d total=%d\n",
			resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// oneLine collapses whitespace and truncates to max runes.
func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > max {
		return string([]rune(s)[:max-3]) + "..."
	}
	return s
}
