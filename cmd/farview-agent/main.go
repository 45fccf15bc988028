// Farview Agent - remote access agent
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/farview/farview-agent/internal/config"
	"github.com/farview/farview-agent/internal/ipc"
	"github.com/farview/farview-agent/internal/logging"
	"github.com/farview/farview-agent/internal/service"
	"github.com/farview/farview-agent/internal/session"
	"github.com/farview/farview-agent/internal/supervisor"
	"github.com/farview/farview-agent/internal/worker"
	"github.com/farview/farview-agent/pkg/version"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		serverMode  = flag.Bool("server", false, "Run as a session worker (spawned by the service)")
		install     = flag.Bool("install", false, "Install the agent as a system service")
		uninstall   = flag.Bool("uninstall", false, "Uninstall the agent service")
		configPath  = flag.String("config", "", "Path to the configuration file")
		debug       = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		os.Exit(0)
	}

	paths := config.DefaultPaths()
	if *configPath != "" {
		paths.ConfigFile = *configPath
	}

	logger, closeLogs, err := logging.SetupWithDefaults(paths.LogDir, *debug)
	if err != nil {
		logger = slog.Default()
		logger.Warn("file logging unavailable", "error", err)
	} else {
		defer closeLogs()
	}
	slog.SetDefault(logger)

	if *install {
		if err := runInstall(paths, logger); err != nil {
			logger.Error("installation failed", "error", err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	if *uninstall {
		if err := runUninstall(logger); err != nil {
			logger.Error("uninstallation failed", "error", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}

	if *serverMode {
		if err := worker.Run(cfg, logger.With("role", "worker")); err != nil {
			logger.Error("worker failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("agent failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting Farview Agent", "version", version.Get().Version)

	// A second service instance would race over the worker lifecycle;
	// failing to bind the control endpoint means one is already up.
	listener, err := ipc.Listen(ipc.ServiceEndpoint)
	if err != nil {
		return fmt.Errorf("control endpoint busy, is another agent running? %w", err)
	}
	defer listener.Close()

	sup := supervisor.New(supervisor.Config{
		PollInterval:    cfg.PollInterval(),
		ReadTimeout:     cfg.ReadTimeout(),
		WorkerWait:      cfg.WorkerWait(),
		ShareRDP:        cfg.ShareRDP,
		ServiceEndpoint: ipc.ServiceEndpoint,
		WorkerEndpoint:  ipc.WorkerEndpoint,
	}, logger, session.New(), supervisor.NewProcessLauncher(logger, cfg.LaunchAsUser), listener)

	return service.Run(sup, logger)
}

func runInstall(paths config.Paths, logger *slog.Logger) error {
	inst := service.NewInstaller()
	if inst == nil {
		return fmt.Errorf("no service manager on this platform")
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable: %w", err)
	}

	if err := os.MkdirAll(paths.BaseDir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	// Seed the default config so operators have a file to edit.
	if _, err := os.Stat(paths.ConfigFile); os.IsNotExist(err) {
		if err := config.Default().Save(paths.ConfigFile); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	cfg := service.DefaultInstallConfig(exe, paths.BaseDir)
	if err := inst.Install(cfg); err != nil {
		return err
	}
	if err := inst.Start(cfg.Name); err != nil {
		logger.Warn("service installed but not started", "error", err)
	}
	logger.Info("agent installed", "service", cfg.Name)
	return nil
}

func runUninstall(logger *slog.Logger) error {
	inst := service.NewInstaller()
	if inst == nil {
		return fmt.Errorf("no service manager on this platform")
	}
	if err := inst.Uninstall(service.Name); err != nil {
		return err
	}
	logger.Info("agent uninstalled", "service", service.Name)
	return nil
}
