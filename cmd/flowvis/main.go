package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/kjkrol/flowvis/internal/config"
	"github.com/kjkrol/flowvis/internal/glbackend"
	"github.com/kjkrol/flowvis/internal/platform"
	"github.com/kjkrol/flowvis/pkg/camera"
	"github.com/kjkrol/flowvis/pkg/chart"
	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/kjkrol/flowvis/pkg/nodes"
	"github.com/kjkrol/flowvis/pkg/viewer"
)

// GLFW and GL calls must stay on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", config.Path(), "path to the TOML config file")
	chartPath := flag.String("chart", "charts/sphere.yaml", "path to the YAML chart to display")
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Parse()

	if err := run(*configPath, *chartPath, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "flowvis:", err)
		os.Exit(1)
	}
}

func run(configPath, chartPath string, verbose bool) error {
	conf, err := config.LoadOrInit(configPath)
	if err != nil {
		return err
	}
	level, _ := conf.Level()
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	wrapper, err := platform.NewPlatformWindowWrapper(platform.WindowConfig{
		Width:   conf.Window.Width,
		Height:  conf.Window.Height,
		Title:   conf.Window.Title,
		Samples: conf.Window.Samples,
	})
	if err != nil {
		return err
	}
	gl, err := glbackend.New()
	if err != nil {
		wrapper.Close()
		return err
	}
	slog.Info("opengl ready", "version", gl.Version())

	window := viewer.NewWindow(viewer.WindowConfig{
		ClearColor: conf.ClearColor,
		RefreshFPS: conf.Window.RefreshFPS,
		Camera: camera.Config{
			FOV:      conf.Camera.FOV,
			Near:     conf.Camera.Near,
			Far:      conf.Camera.Far,
			Distance: conf.Camera.Distance,
			Scale:    conf.Camera.Scale,
		},
	}, wrapper, gl)
	defer window.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	graph := flow.New()
	defer graph.Clear()
	env := nodes.Env{Window: window}
	reload := func() {
		if err := loadChart(ctx, graph, env, chartPath); err != nil {
			slog.Error("load chart", "path", chartPath, "err", err)
		}
		window.RenderLater()
	}
	reload()

	if conf.WatchChart {
		err := chart.Watch(ctx, chartPath, func() {
			if !window.Post(reload) {
				slog.Warn("update queue full, chart reload dropped", "path", chartPath)
			}
		})
		if err != nil {
			slog.Warn("chart hot reload disabled", "err", err)
		}
	}
	if conf.SpinDegPerSec != 0 {
		window.StartAnimation(window.Spin(conf.SpinDegPerSec))
	}

	window.Show()
	window.ListenEvents(func(event viewer.Event) {
		switch e := event.(type) {
		case viewer.KeyPress:
			switch {
			case e.Code == viewer.KeyCodeEscape:
				window.Stop()
			case e.Label == "r":
				reload()
			case e.Label == "p":
				path := time.Now().Format("flowvis-20060102-150405.png")
				if err := window.SaveScreenshot(path); err != nil {
					slog.Error("screenshot", "err", err)
				} else {
					slog.Info("screenshot saved", "path", path)
				}
			}
		case viewer.DestroyNotify:
			cancel()
		}
	}, viewer.DrainMax(64))
	return nil
}

// loadChart replaces the graph with the chart at path. A chart that fails
// to parse leaves the current graph untouched.
func loadChart(ctx context.Context, graph *flow.Graph, env nodes.Env, path string) error {
	c, err := chart.Load(path)
	if err != nil {
		return err
	}
	graph.Clear()
	if err := c.Build(graph, env); err != nil {
		return err
	}
	slog.Info("chart loaded", "path", path, "nodes", len(c.Nodes), "connections", len(c.Connections))
	return graph.Process(ctx)
}
