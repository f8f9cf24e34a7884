package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ayusman/handrunner/internal/app"
	"github.com/ayusman/handrunner/internal/capture"
	"github.com/ayusman/handrunner/internal/config"
	"github.com/ayusman/handrunner/internal/detector"
	"github.com/ayusman/handrunner/internal/game"
	"github.com/ayusman/handrunner/internal/gesture"
	"github.com/ayusman/handrunner/internal/hook"
	"github.com/ayusman/handrunner/internal/recording"
	"github.com/ayusman/handrunner/internal/server"
	"github.com/ayusman/handrunner/internal/store"
	"github.com/ayusman/handrunner/internal/tray"
)

var (
	flagTray     bool
	flagHeadless bool
	flagDuration time.Duration
	flagReplay   string
	flagLoop     bool
	flagRecord   string
	flagSeed     int64
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run the game",
	Long: `Start the game loop: capture frames, detect and classify hands, drive
the player and serve the dashboard.

Without a working MediaPipe setup the game still runs; only the keyboard
(A, D, Space) moves the player.

Examples:
  handrunner play
  handrunner play --tray
  handrunner play --record run.json
  handrunner play --replay run.json --duration 30s`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&flagTray, "tray", false, "Show the system tray menu")
	playCmd.Flags().BoolVar(&flagHeadless, "headless", false, "Use a blank camera instead of the webcam")
	playCmd.Flags().DurationVar(&flagDuration, "duration", 0, "Stop after this long (0 = run until interrupted)")
	playCmd.Flags().StringVar(&flagReplay, "replay", "", "Feed hands from a recording instead of the detector")
	playCmd.Flags().BoolVar(&flagLoop, "loop", false, "Loop the replayed recording")
	playCmd.Flags().StringVar(&flagRecord, "record", "", "Write detected hands to a recording when the game stops")
	playCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed for enemy movement (0 = random based on time)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	logger.Info("configuration loaded", "source", cfg.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if flagDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagDuration)
		defer cancel()
	}
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	blank := flagHeadless || flagReplay != ""
	var camera capture.Camera
	if blank {
		camera = capture.NewBlankCamera(cfg.Camera.Width, cfg.Camera.Height)
	} else {
		camera = capture.NewCamera(cfg.Camera)
	}

	det, replayer, err := buildDetector(cfg, logger)
	if err != nil {
		return err
	}
	var recorder *recording.Recorder
	if flagRecord != "" {
		recorder = recording.NewRecorder(det)
		det = recorder
	}

	trackerCfg, err := cfg.Tracker.Build(logger.WithPrefix("tracker"))
	if err != nil {
		return err
	}

	gate := newMotionGate(cfg, blank)

	level := game.DefaultLevel()
	if cfg.World.Level != "" {
		if level, err = game.LoadLevel(cfg.World.Level); err != nil {
			return err
		}
	}
	g := game.New(game.Config{World: cfg.World, Player: cfg.Player, Enemy: cfg.Enemy}, level, newRNG(flagSeed))

	hub := server.NewHub(server.DefaultBroadcastInterval, logger.WithPrefix("ws"))
	var streamInterval time.Duration
	if cfg.Camera.FPS > 0 {
		streamInterval = time.Second / time.Duration(cfg.Camera.FPS)
	}
	stream := server.NewStreamHandler(streamInterval)

	var listener app.GestureListener
	if cfg.Hooks.Enabled {
		d, err := startHooks(ctx, cfg, logger.WithPrefix("hooks"))
		if err != nil {
			logger.Warn("gesture hooks disabled", "err", err)
		} else {
			listener = d
		}
	}

	var tr *tray.Tray
	var display app.GestureDisplay
	if flagTray {
		tr = tray.New(true)
		display = tr
	}

	input := app.NewHandInput(app.InputConfig{
		Camera:   camera,
		Detector: det,
		Tracker:  gesture.NewTracker(trackerCfg),
		Gate:     gate,
		Sink:     stream,
		Logger:   logger.WithPrefix("input"),
	})
	a := app.New(app.Config{
		Input:     input,
		Game:      g,
		Store:     st,
		Publisher: hub,
		Display:   display,
		Listener:  listener,
		Tick:      cfg.World.Tick(),
		Session: store.Session{
			ConfigSource: cfg.Source,
			HandPolicy:   cfg.Tracker.HandPolicy,
			Recenter:     cfg.Tracker.Recenter,
		},
		Logger: logger.WithPrefix("game"),
	})
	hub.HandleKeys(a.PressKey)

	dashboardURL := ""
	if cfg.Server.Enabled {
		srv := server.New(server.Config{
			StaticDir:  findWebDir(cfg),
			Store:      st,
			Controller: a,
			Stream:     stream,
			Hub:        hub,
			Logger:     logger.WithPrefix("server"),
			TickRate:   cfg.World.TickRate,
		})
		dashboardURL = localURL(cfg.Server.Addr)
		go func() {
			if err := srv.Run(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("dashboard stopped", "err", err)
			}
		}()
	}

	if replayer != nil && !flagLoop {
		go stopWhenDone(ctx, replayer, quit)
	}

	errc := make(chan error, 1)
	if tr == nil {
		errc <- a.Run(ctx)
	} else {
		tr.SetEnabled(a.IsEnabled())
		tr.OnToggle(a.SetEnabled)
		tr.OnResetTracker(a.ResetTracker)
		tr.OnQuit(quit)
		if dashboardURL != "" {
			tr.OnDashboard(func() {
				if err := openBrowser(dashboardURL); err != nil {
					logger.Warn("failed to open dashboard", "err", err)
				}
			})
		}
		go func() {
			errc <- a.Run(ctx)
			tr.Quit()
		}()
		// the tray needs the main goroutine
		tr.Run()
		quit()
	}
	runErr := <-errc

	if recorder != nil {
		rec := recorder.Recording(filepath.Base(flagRecord), cfg.Camera.FPS)
		if err := rec.Save(flagRecord); err != nil {
			logger.Error("failed to save recording", "err", err)
		} else {
			logger.Info("recording saved", "path", flagRecord, "frames", len(rec.Frames))
		}
	}

	stats := a.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s: %d frames, %d without a hand, %d recenters\n",
		a.SessionID(), stats.Frames, stats.NoHandFrames, stats.Recenters)
	return runErr
}

// buildDetector returns the replayer when --replay is set, else MediaPipe,
// falling back to a detector that never sees a hand.
func buildDetector(cfg config.Config, logger *log.Logger) (detector.Detector, *recording.Replayer, error) {
	if flagReplay != "" {
		rec, err := recording.Load(flagReplay)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("replaying", "recording", rec.Name, "frames", len(rec.Frames), "loop", flagLoop)
		r := recording.NewReplayer(rec, flagLoop)
		return r, r, nil
	}

	mp, err := detector.NewMediaPipeDetector(cfg.Detector, logger)
	if err != nil {
		logger.Warn("hand detection unavailable, keyboard only", "err", err)
		return detector.NewMockDetector(), nil, nil
	}
	return mp, nil, nil
}

// newMotionGate returns nil when the gate is disabled or the camera is blank;
// blank frames never show motion and would starve the detector.
func newMotionGate(cfg config.Config, blankCamera bool) *capture.MotionGate {
	if !cfg.Motion.Enabled || blankCamera {
		return nil
	}
	return capture.NewMotionGate(cfg.Motion)
}

func startHooks(ctx context.Context, cfg config.Config, logger *log.Logger) (*hook.Dispatcher, error) {
	dir, err := cfg.HooksDir()
	if err != nil {
		return nil, err
	}
	m := hook.NewManager(dir)
	if err := m.Discover(); err != nil {
		return nil, err
	}
	for _, h := range m.List() {
		logger.Info("hook loaded", "name", h.Manifest.Name, "gestures", h.Manifest.Gestures)
	}

	d := hook.NewDispatcher(m, hook.NewExecutor(cfg.Hooks.Timeout), cfg.Hooks.QueueSize, logger)
	go d.Run(ctx)
	return d, nil
}

func stopWhenDone(ctx context.Context, r *recording.Replayer, stop context.CancelFunc) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.Done() {
				stop()
				return
			}
		}
	}
}

func newRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

// findWebDir returns server.static_dir, or the first of ./web and
// ~/.handrunner/web that exists. Empty disables static files.
func findWebDir(cfg config.Config) string {
	if cfg.Server.StaticDir != "" {
		return cfg.Server.StaticDir
	}

	candidates := []string{"web"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".handrunner", "web"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// localURL turns a listen address into a browsable URL.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
