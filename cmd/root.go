// Package cmd implements the zeroshot CLI: a thin cobra front-end over
// internal/orchestrator.Supervisor, demonstrating the library surface
// rather than replacing it (spec.md §1 scopes the CLI itself out).
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	viperlib "github.com/spf13/viper"

	"github.com/zeroshot/zeroshot/internal/bus"
	"github.com/zeroshot/zeroshot/internal/client"
	"github.com/zeroshot/zeroshot/internal/config"
	"github.com/zeroshot/zeroshot/internal/ledgerstore"
	"github.com/zeroshot/zeroshot/internal/log"
	"github.com/zeroshot/zeroshot/internal/orchestrator"
	"github.com/zeroshot/zeroshot/internal/statusbar"
	"github.com/zeroshot/zeroshot/internal/watcher"

	_ "github.com/zeroshot/zeroshot/internal/client/providers/amp"
	_ "github.com/zeroshot/zeroshot/internal/client/providers/claude"
	_ "github.com/zeroshot/zeroshot/internal/client/providers/codex"
	_ "github.com/zeroshot/zeroshot/internal/client/providers/gemini"
	_ "github.com/zeroshot/zeroshot/internal/client/providers/opencode"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config

	debugFlag bool

	presetFlag    string
	worktreeFlag  bool
	dockerFlag    bool
	imageFlag     string
	seedTopicFlag string
	ledgerFlag    string

	// viper uses "::" as key delimiter instead of "." so dotted theme
	// color tokens ("text.primary") can be literal map keys in the config
	// file without being parsed as nested paths.
	viper = viperlib.NewWithOptions(viperlib.KeyDelimiter("::"))
)

var rootCmd = &cobra.Command{
	Use:     "zeroshot",
	Short:   "A headless multi-agent orchestrator",
	Long:    `zeroshot starts and supervises clusters of AI coding-agent processes coordinated through a shared message bus.`,
	Version: version,
}

var startCmd = &cobra.Command{
	Use:   "start [preset]",
	Short: "Start a cluster from a named preset and run until it stops",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStart,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/zeroshot/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug logging (also: ZEROSHOT_DEBUG=1)")

	startCmd.Flags().StringVar(&presetFlag, "preset", "", "cluster preset name (default: config's default_preset)")
	startCmd.Flags().BoolVar(&worktreeFlag, "worktree", true, "provision a git worktree for cluster isolation")
	startCmd.Flags().BoolVar(&dockerFlag, "docker", false, "provision a container instead of a worktree for cluster isolation")
	startCmd.Flags().StringVar(&imageFlag, "image", "", "container image, when --docker is set")
	startCmd.Flags().StringVar(&seedTopicFlag, "seed-topic", "", "override the preset's seed topic")
	startCmd.Flags().StringVar(&ledgerFlag, "ledger", "", "mirror the cluster's bus events to a sqlite database at this path, for observability only")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(presetsCmd)
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List configured cluster presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range cfg.ClusterPresets {
			fmt.Printf("%s\t%d agent(s)\tseed=%s\n", p.Name, len(p.Agents), p.SeedTopic)
		}
		return nil
	},
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("ui::show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("default_preset", defaults.DefaultPreset)
	viper.SetDefault("orchestration::grace_window", defaults.Orchestration.GraceWindow)
	viper.SetDefault("orchestration::claude::model", defaults.Orchestration.Claude.Model)
	viper.SetDefault("orchestration::codex::model", defaults.Orchestration.Codex.Model)
	viper.SetDefault("orchestration::amp::model", defaults.Orchestration.Amp.Model)
	viper.SetDefault("orchestration::amp::mode", defaults.Orchestration.Amp.Mode)
	viper.SetDefault("orchestration::gemini::model", defaults.Orchestration.Gemini.Model)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if _, err := os.Stat(".zeroshot/config.yaml"); err == nil {
		viper.SetConfigFile(".zeroshot/config.yaml")
	} else {
		home, _ := os.UserHomeDir()
		viper.AddConfigPath(filepath.Join(home, ".config", "zeroshot"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viperlib.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			defaultPath := ".zeroshot/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
		}
	}

	_ = viper.Unmarshal(&cfg)
	if len(cfg.ClusterPresets) == 0 {
		cfg.ClusterPresets = defaults.ClusterPresets
	}
	if cfg.DefaultPreset == "" {
		cfg.DefaultPreset = defaults.DefaultPreset
	}
}

func runStart(cmd *cobra.Command, args []string) error {
	debug := os.Getenv("ZEROSHOT_DEBUG") != "" || debugFlag
	if debug {
		logPath := os.Getenv("ZEROSHOT_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		defer cleanup()
	}

	if err := config.ValidateOrchestration(cfg.Orchestration); err != nil {
		return fmt.Errorf("invalid orchestration configuration: %w", err)
	}
	if err := config.ValidateClusterPresets(cfg.ClusterPresets); err != nil {
		return fmt.Errorf("invalid cluster preset configuration: %w", err)
	}

	name := presetFlag
	if name == "" {
		if len(args) > 0 {
			name = args[0]
		} else {
			name = cfg.DefaultPreset
		}
	}
	preset, ok := cfg.FindPreset(name)
	if !ok {
		return fmt.Errorf("no such cluster preset: %q", name)
	}

	agents := make([]orchestrator.AgentConfig, 0, len(preset.Agents))
	for _, a := range preset.Agents {
		agents = append(agents, a.ToAgentConfig())
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	extensions := map[client.ClientType]map[string]any{
		client.ClientClaude:   cfg.Orchestration.ExtensionsFor(client.ClientClaude),
		client.ClientCodex:    cfg.Orchestration.ExtensionsFor(client.ClientCodex),
		client.ClientAmp:      cfg.Orchestration.ExtensionsFor(client.ClientAmp),
		client.ClientGemini:   cfg.Orchestration.ExtensionsFor(client.ClientGemini),
		client.ClientOpenCode: cfg.Orchestration.ExtensionsFor(client.ClientOpenCode),
	}

	seedTopic := seedTopicFlag
	if seedTopic == "" {
		seedTopic = preset.SeedTopic
	}

	var mirror bus.Mirror
	if ledgerFlag != "" {
		ledgerDB, err := ledgerstore.NewDB(ledgerFlag)
		if err != nil {
			return fmt.Errorf("opening ledger database: %w", err)
		}
		defer ledgerDB.Close()
		store := ledgerDB.Mirror()
		defer store.Close()
		mirror = store
	}

	sup := orchestrator.New(workDir)
	clusterID, err := sup.Start(context.Background(), orchestrator.ClusterConfig{Agents: agents}, nil, orchestrator.Options{
		Worktree:    worktreeFlag && !dockerFlag,
		Docker:      dockerFlag,
		Image:       imageFlag,
		Cwd:         workDir,
		SeedTopic:   seedTopic,
		Extensions:  extensions,
		Mirror:      mirror,
		GraceWindow: cfg.Orchestration.GraceWindow,
	})
	if err != nil {
		return fmt.Errorf("starting cluster: %w", err)
	}

	fmt.Printf("cluster %s started from preset %q\n", clusterID, name)

	if watch, watchErr := watchConfigForPresetChanges(); watchErr == nil && watch != nil {
		defer func() { _ = watch.Stop() }()
	}

	statusCtx, stopStatus := context.WithCancel(context.Background())
	defer stopStatus()
	if cfg.UI.ShowStatusBar && statusbar.IsTerminal() {
		go func() {
			if err := statusbar.Run(statusCtx, sup, clusterID, cfg.Theme); err != nil {
				log.Debug(log.CatOrchestrator, "status footer exited", "err", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	unsub := subscribeClusterStop(sup, clusterID, done)
	defer unsub()

	select {
	case <-sig:
		fmt.Println("interrupted, killing cluster")
		_ = sup.Kill(context.Background(), clusterID)
	case <-done:
		fmt.Println("cluster stopped")
	}

	return nil
}

// subscribeClusterStop reports when clusterID transitions to StateStopped,
// so the CLI can exit once the cluster's own shutdown detector has acted.
// Polls GetCluster rather than subscribing to the bus directly: the
// Supervisor does not expose the underlying *bus.Bus to callers, keeping
// cluster internals private to internal/orchestrator.
func subscribeClusterStop(sup *orchestrator.Supervisor, clusterID string, done chan struct{}) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				info, ok := sup.GetCluster(clusterID)
				if !ok || info.State == orchestrator.StateStopped {
					close(done)
					return
				}
			}
		}
	}()
	return func() { close(stop) }
}

// watchConfigForPresetChanges watches the config file viper loaded from
// for edits and reloads cfg.ClusterPresets so a subsequent `zeroshot
// start` invocation (or `zeroshot presets`) picks up the change. It never
// touches an already-running cluster: orchestrator.ClusterConfig.Snapshot
// copies a cluster's agent graph at Supervisor.Start, so a config edit
// mid-run simply has no path back into a live cluster.
//
// Returns a nil Watcher without error if no config file is in use (e.g.
// defaults only, nothing found on disk).
func watchConfigForPresetChanges() (*watcher.Watcher, error) {
	configPath := viper.ConfigFileUsed()
	if configPath == "" {
		return nil, nil
	}

	w, err := watcher.New(watcher.DefaultConfig(configPath))
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}

	onChange, err := w.Start()
	if err != nil {
		return nil, fmt.Errorf("starting config watcher: %w", err)
	}

	go func() {
		for range onChange {
			if err := viper.ReadInConfig(); err != nil {
				log.Warn(log.CatConfig, "config reload failed", "path", configPath, "err", err)
				continue
			}
			var reloaded config.Config
			if err := viper.Unmarshal(&reloaded); err != nil {
				log.Warn(log.CatConfig, "config reload unmarshal failed", "path", configPath, "err", err)
				continue
			}
			cfg.ClusterPresets = reloaded.ClusterPresets
			log.Info(log.CatConfig, "cluster presets reloaded", "path", configPath, "presets", len(reloaded.ClusterPresets))
		}
	}()

	return w, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
