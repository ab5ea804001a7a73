// Command microbot executes one harvesting mission: it loads the
// mission command issued by the fleet core, validates it against the
// robot's safety limits, drives the waypoint plan, streams telemetry
// to the configured store, and prints the final mission report.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/canaswarm/microbot/internal/command"
	"github.com/canaswarm/microbot/internal/config"
	"github.com/canaswarm/microbot/internal/dispatcher"
	"github.com/canaswarm/microbot/internal/engine"
	"github.com/canaswarm/microbot/internal/influx"
	"github.com/canaswarm/microbot/internal/logging"
	"github.com/canaswarm/microbot/internal/model/core"
	"github.com/canaswarm/microbot/internal/monitor"
	intOtel "github.com/canaswarm/microbot/internal/otel"
	"github.com/canaswarm/microbot/internal/sensors"
	"github.com/canaswarm/microbot/internal/telemetry"
	"github.com/canaswarm/microbot/internal/telemetry/gormstore"
)

// version info - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	ExtensionName string = "microbot"
)

var (
	SessionStartTime time.Time = time.Now()

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	RobotLogFilePath string
	RobotLogFile     *os.File
)

func main() {
	os.Exit(run())
}

func run() int {
	// Console logging until the config and log file are ready.
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil, nil)
	Logger = SlogManager.Logger()

	Logger.Info("Starting up...", "version", CurrentVersion, "buildDate", BuildDate)

	if err := loadConfig(); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	robotID := viper.GetString("robot.id")
	logsDir := viper.GetString("logsDir")

	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.MkdirAll(logsDir, 0755)
	}

	RobotLogFilePath = logging.LogFilePath(logsDir, robotID, SessionStartTime)
	var err error
	RobotLogFile, err = os.OpenFile(RobotLogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", RobotLogFilePath)
	}

	// OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			RobotID:      robotID,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    RobotLogFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else if otelCfg.Endpoint != "" {
			Logger.Info("OTel provider initialized", "file", RobotLogFilePath, "endpoint", otelCfg.Endpoint)
		} else {
			Logger.Info("OTel provider initialized", "file", RobotLogFilePath)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}

	var gelfWriter io.Writer
	if viper.GetBool("graylog.enabled") {
		w, err := logging.NewGraylogWriter(viper.GetString("graylog.address"), robotID)
		if err != nil {
			Logger.Error("Failed to connect Graylog writer", "error", err)
		} else {
			gelfWriter = w
		}
	}

	// Re-setup logging with file output and the optional sinks.
	var fileWriter io.Writer
	if RobotLogFile != nil {
		fileWriter = RobotLogFile
	}
	SlogManager.Setup(fileWriter, viper.GetString("logLevel"), otelLogProvider, gelfWriter)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", RobotLogFilePath)

	commandPath := "robot_commands.json"
	if len(os.Args) > 1 {
		commandPath = os.Args[1]
	}

	cmd, err := command.LoadFile(commandPath, robotID)
	if err != nil {
		Logger.Error("Failed to load mission command", "path", commandPath, "error", err)
		return 1
	}
	Logger.Info("Mission command loaded",
		"path", commandPath,
		"commandID", cmd.CommandID,
		"missionID", cmd.MissionID)

	// zerolog for the database and influx managers
	var zlogOut io.Writer = os.Stderr
	if RobotLogFile != nil {
		zlogOut = RobotLogFile
	}
	zlog := zerolog.New(zlogOut).With().Timestamp().Str("robot", robotID).Logger()

	store, err := telemetry.NewStore(config.GetStorageConfig(), zlog)
	if err != nil {
		Logger.Error("Failed to create telemetry store", "error", err)
		return 1
	}
	if err := store.Init(); err != nil {
		Logger.Error("Failed to initialize telemetry store", "error", err)
		return 1
	}
	defer store.Close()

	disp, err := dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		Logger.Error("Failed to create telemetry dispatcher", "error", err)
		return 1
	}

	var influxMgr *influx.Manager
	if viper.GetBool("influx.enabled") {
		backupPath := filepath.Join(logsDir, fmt.Sprintf("%s_influx_backup_%s.lp.gz",
			ExtensionName, SessionStartTime.Format("20060102_150405")))
		influxMgr = influx.NewManager(zlog, backupPath)
		if err := influxMgr.Connect(); err != nil {
			Logger.Error("InfluxDB connection failed", "error", err)
		}
		influxMgr.CreateWriters()

		disp.Attach("influx", func(rec core.TelemetryRecord) error {
			return influxMgr.WritePoint(context.Background(), "robot_telemetry", influx.TelemetryPoint(rec))
		}, dispatcher.Buffered(64), dispatcher.Logged())
	}

	seed := viper.GetInt64("robot.sensorSeed")
	if seed == 0 {
		seed = SessionStartTime.UnixNano()
	}
	sensorMgr := sensors.NewSimulated(seed)

	// Mission context travels on every engine log record.
	var eng *engine.Engine
	engineLogger := slog.New(logging.NewContextHandler(Logger.Handler(), func() []slog.Attr {
		attrs := []slog.Attr{
			slog.String("robotID", robotID),
			slog.String("missionID", cmd.MissionID),
		}
		if eng != nil {
			attrs = append(attrs, slog.String("status", string(eng.CommittedState().Status)))
		}
		return attrs
	}))

	eng, err = engine.New(engine.Config{
		Command:           cmd,
		Sensors:           sensorMgr,
		Store:             store,
		Dispatcher:        disp,
		Logger:            engineLogger,
		SnapshotTelemetry: viper.GetBool("robot.snapshotTelemetry"),
	})
	if err != nil {
		Logger.Error("Failed to create mission engine", "error", err)
		return 1
	}

	monitorService := startMonitor(robotID, cmd, eng, store, influxMgr, logsDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, runErr := eng.Run(ctx)
	if runErr != nil {
		Logger.Error("Mission did not complete", "error", runErr)
	}

	monitorService.Stop()
	disp.Close()
	if influxMgr != nil {
		if err := influxMgr.Close(); err != nil {
			Logger.Error("Error closing InfluxDB manager", "error", err)
		}
	}

	if rep != nil {
		printReport(rep)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := SlogManager.Flush(flushCtx); err != nil {
		Logger.Warn("Failed to flush logs", "error", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(flushCtx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}

	if runErr != nil || rep == nil || rep.Status != core.StatusCompleted {
		return 1
	}
	return 0
}

func loadConfig() error {
	return config.Load(".")
}

// startMonitor wires the heartbeat service. Database-backed stores
// also feed write-queue health and performance rows.
func startMonitor(robotID string, cmd *core.MissionCommand, eng *engine.Engine, store telemetry.Store, influxMgr *influx.Manager, statusDir string) *monitor.Service {
	deps := monitor.Dependencies{
		RobotID:    robotID,
		MissionID:  cmd.MissionID,
		State:      eng,
		Influx:     influxMgr,
		LogManager: SlogManager,
		StatusDir:  statusDir,
		Interval:   time.Duration(cmd.CoordinationRules.HeartbeatInterval * float64(time.Second)),
	}

	if gs, ok := store.(*gormstore.Backend); ok {
		deps.Queue = gs
		if dbm := gs.Database(); dbm != nil {
			deps.DB = dbm.DB
			deps.IsDatabaseValid = func() bool { return dbm.IsValid }
		}
	}

	svc := monitor.NewService(deps)
	if err := svc.Start(); err != nil {
		Logger.Error("Failed to start heartbeat monitor", "error", err)
	}

	if deps.DB != nil && deps.DB.Dialector.Name() == "postgres" {
		err := svc.ValidateHypertables(map[string][]string{
			"telemetry_states":   {"mission_id"},
			"robot_performances": {"mission_id"},
		})
		if err != nil {
			Logger.Warn("TimescaleDB hypertable setup skipped", "error", err)
		}
	}

	return svc
}

func printReport(rep *core.MissionReport) {
	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		Logger.Error("Failed to render mission report", "error", err)
		return
	}
	fmt.Println(string(out))
}
