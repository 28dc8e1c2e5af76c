package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/riskboard/internal/cli"
	"github.com/theirongolddev/riskboard/internal/config"
	"github.com/theirongolddev/riskboard/internal/daemon"
	"github.com/theirongolddev/riskboard/internal/logging"
	"github.com/theirongolddev/riskboard/internal/pipeline"
)

type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DBPath    string    `json:"db_path"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a background risk monitor with HTTP/SSE endpoints",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	pf.DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	pf.StringVar(&flagDaemonPIDFile, "pid-file", "", "PID file path (default <data-dir>/riskboardd.pid)")
	pf.StringVar(&flagDaemonLogFile, "log-file", "", "Log file for detached mode (default <data-dir>/riskboardd.log)")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonSettings resolves daemon flags against the config file.
type daemonSettings struct {
	addr     string
	interval time.Duration
	buffer   int
	pidFile  pidFile
	logFile  string
}

func resolveDaemonSettings(cfg config.Config) daemonSettings {
	s := daemonSettings{
		addr:     cfg.Daemon.Addr,
		interval: time.Duration(cfg.Daemon.IntervalSec) * time.Second,
		buffer:   cfg.Daemon.EventsBuffer,
		pidFile:  pidFile(filepath.Join(cfg.DataDir(), "riskboardd.pid")),
		logFile:  filepath.Join(cfg.DataDir(), "riskboardd.log"),
	}
	if flagDaemonAddr != "" {
		s.addr = flagDaemonAddr
	}
	if flagDaemonInterval > 0 {
		s.interval = flagDaemonInterval
	}
	if flagDaemonEventsBuffer > 0 {
		s.buffer = flagDaemonEventsBuffer
	}
	if flagDaemonPIDFile != "" {
		s.pidFile = pidFile(flagDaemonPIDFile)
	}
	if flagDaemonLogFile != "" {
		s.logFile = flagDaemonLogFile
	}
	return s
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ds := resolveDaemonSettings(cfg)

	if flagDaemonDetach {
		return startDaemonDetached(ds)
	}
	return runDaemonForeground(cmd.Context(), cfg, ds)
}

func startDaemonDetached(ds daemonSettings) error {
	if err := ds.pidFile.ensureStopped(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := filterDetachArg(os.Args[1:])
	args = append(args, "--child")

	if err := os.MkdirAll(filepath.Dir(string(ds.pidFile)), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(ds.logFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(ds.logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Stdin = nil
	child.Env = os.Environ()

	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  PID file: %s\n", ds.pidFile)
	fmt.Printf("  API: http://%s/v1/status\n", ds.addr)
	fmt.Printf("  Log: %s\n", ds.logFile)
	return nil
}

func runDaemonForeground(parent context.Context, cfg config.Config, ds daemonSettings) error {
	if err := ds.pidFile.ensureStopped(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(string(ds.pidFile)), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}

	db := dbPath(cfg)
	err := ds.pidFile.write(daemonRuntimeState{
		PID:       os.Getpid(),
		Addr:      ds.addr,
		StartedAt: time.Now(),
		DBPath:    db,
	})
	if err != nil {
		return err
	}
	defer ds.pidFile.remove()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	log := logging.Component(newLogger(cfg), "daemon")
	svc := daemon.New(daemon.Config{
		DBPath:          db,
		Directorate:     flagDirectorate,
		Status:          flagStatus,
		Category:        flagCategory,
		OverheadPercent: cfg.Budget.OverheadPercent,
		Interval:        ds.interval,
		Addr:            ds.addr,
		EventsBuffer:    ds.buffer,
		Log:             log,
	}, st, pipeline.NewEvaluator(cfg.Thresholds))

	fmt.Printf("  riskboard daemon listening on http://%s\n", ds.addr)
	fmt.Printf("  Polling %s every %s\n", db, ds.interval)
	fmt.Printf("  Stop with: riskboard daemon stop --pid-file %s\n", ds.pidFile)

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ds := resolveDaemonSettings(cfg)

	pid, err := ds.pidFile.pid()
	if err != nil {
		fmt.Printf("  Daemon: not running (pid file not found)\n")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := ds.addr
	if rs, err := ds.pidFile.state(); err == nil && rs.Addr != "" {
		addr = rs.Addr
	}

	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status probe
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	if st.LastPollAt.IsZero() {
		fmt.Printf("  Last poll: pending\n")
	} else {
		fmt.Printf("  Last poll: %s\n", st.LastPollAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Poll count: %d\n", st.PollCount)
	fmt.Printf("  Projects: %d (%d in progress)\n", st.Summary.Projects, st.Summary.InProgress)
	fmt.Printf("  High risk: %d\n", st.Summary.HighRisk)
	fmt.Printf("  Revenue: %s\n", cli.FormatCurrency(st.Summary.TotalRevenue, cfg.General.Currency))
	fmt.Printf("  Profit: %s\n", cli.FormatCurrency(st.Summary.TotalProfit, cfg.General.Currency))
	fmt.Printf("  Events: %d (%d subscribers)\n", st.EventCount, st.SubscriberCount)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pf := resolveDaemonSettings(cfg).pidFile

	pid, err := pf.pid()
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			pf.remove()
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}

	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

// pidFile is the daemon's pid file plus a JSON sidecar describing the
// running instance.
type pidFile string

func (f pidFile) statePath() string { return string(f) + ".json" }

func (f pidFile) write(st daemonRuntimeState) error {
	if err := os.WriteFile(string(f), []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.statePath(), append(data, '\n'), 0o600)
}

func (f pidFile) pid() (int, error) {
	data, err := os.ReadFile(string(f)) //nolint:gosec // pid path is configured by the local user
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", f)
	}
	return pid, nil
}

func (f pidFile) state() (daemonRuntimeState, error) {
	var st daemonRuntimeState
	data, err := os.ReadFile(f.statePath()) //nolint:gosec // pid path is configured by the local user
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

func (f pidFile) remove() {
	_ = os.Remove(string(f))
	_ = os.Remove(f.statePath())
}

// ensureStopped clears a stale pid file and fails if the daemon is alive.
func (f pidFile) ensureStopped() error {
	pid, err := f.pid()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if processAlive(pid) {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	f.remove()
	return nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
