package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lex00/satellite-fetcher-aws-go/internal/asset"
	"github.com/lex00/satellite-fetcher-aws-go/internal/lint"
)

// newWatchCmd creates the "watch" subcommand for auto-rebuilding on file changes.
func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		lintOnly     bool
		debounce     time.Duration
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-synthesize on image or config changes",
		Long: `Watch monitors the image directory and the config file and re-synthesizes
the template whenever they change.

The watch command:
- Monitors the image build context recursively
- Monitors the config file and .env file
- Runs lint on each change
- Writes the template if lint finds no errors (unless --lint-only)
- Debounces rapid changes to avoid excessive rebuilds

Examples:
    satfetch watch -o template.json
    satfetch watch --lint-only
    satfetch watch --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, watchOptions{
				lintOnly:     lintOnly,
				debounce:     debounce,
				outputFormat: outputFormat,
				outputFile:   outputFile,
			})
		},
	}

	cmd.Flags().BoolVar(&lintOnly, "lint-only", false, "Only run lint, skip writing the template")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format for the template: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for the template (default: stdout)")

	return cmd
}

type watchOptions struct {
	lintOnly     bool
	debounce     time.Duration
	outputFormat string
	outputFile   string
}

// runWatch monitors the image and config files and re-synthesizes on changes.
func runWatch(cmd *cobra.Command, g *globalOptions, opts watchOptions) error {
	log := g.logger()

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	imageDir, err := filepath.Abs(cfg.Image.Path)
	if err != nil {
		return err
	}

	settings := settingsFiles(cfg.File(), g.envFile)
	pinned := settingsDirs(settings)
	for dir := range pinned {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		log.WithField("dir", dir).Debug("watching settings directory")
	}

	iw := &imageWatch{watcher: watcher, pinned: pinned}
	if err := iw.set(imageDir, cfg.Image.Dockerfile); err != nil {
		return fmt.Errorf("failed to watch %s: %w", imageDir, err)
	}
	log.WithField("dir", imageDir).Info("watching image directory")

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log.Info("running initial synth")
	runLintAndSynth(ctx, cmd, g, log, opts)

	// Debounce timer
	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)
	settingsChanged := false

	log.Info("watching for changes (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event, iw.dir, settings) {
				continue
			}
			if settings[event.Name] {
				settingsChanged = true
			}

			// New directories inside the build context need their own watch
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := iw.refresh(); err != nil {
						log.WithError(err).Warn("watch refresh failed")
					}
				}
			}

			log.WithField("file", event.Name).Debug("change detected")

			// Debounce: reset timer on each change
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			if settingsChanged {
				settingsChanged = false
				retargetImage(iw, g, log)
			}
			if err := iw.refresh(); err != nil {
				log.WithError(err).Warn("watch refresh failed")
			}
			log.Info("change detected, re-synthesizing")
			runLintAndSynth(ctx, cmd, g, log, opts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watch error")

		case <-sigChan:
			log.Info("stopping watch")
			return nil

		case <-ctx.Done():
			return nil
		}
	}
}

// settingsFiles returns the absolute paths of the config and dotenv files.
func settingsFiles(configFile, envFile string) map[string]bool {
	files := map[string]bool{}
	if configFile == "" {
		configFile = "satfetch.yaml"
	}
	if envFile == "" {
		envFile = ".env"
	}
	for _, f := range []string{configFile, envFile} {
		if abs, err := filepath.Abs(f); err == nil {
			files[abs] = true
		}
	}
	return files
}

func settingsDirs(files map[string]bool) map[string]bool {
	dirs := map[string]bool{}
	for f := range files {
		dirs[filepath.Dir(f)] = true
	}
	return dirs
}

// relevantEvent reports whether event should trigger a rebuild.
func relevantEvent(event fsnotify.Event, imageDir string, settings map[string]bool) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if settings[event.Name] {
		return true
	}
	rel, err := filepath.Rel(imageDir, event.Name)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	// Editor swap and backup files
	base := filepath.Base(event.Name)
	return !strings.HasSuffix(base, "~") && !strings.HasSuffix(base, ".swp")
}

// imageWatch keeps the watched directories in step with the image build
// context: every directory the asset hash walks, and nothing it skips.
type imageWatch struct {
	watcher    *fsnotify.Watcher
	dir        string
	dockerfile string
	pinned     map[string]bool
	watched    map[string]bool
}

// set points the watch at a new build context.
func (iw *imageWatch) set(dir, dockerfile string) error {
	iw.dir = dir
	iw.dockerfile = dockerfile
	return iw.refresh()
}

// refresh re-walks the build context, adding new directories and dropping
// ones that are gone or now ignored. Settings directories stay watched.
func (iw *imageWatch) refresh() error {
	dirs, err := asset.Dirs(iw.dir, iw.dockerfile)
	if err != nil {
		return err
	}

	next := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		next[d] = true
	}
	for d := range iw.watched {
		if !next[d] && !iw.pinned[d] {
			_ = iw.watcher.Remove(d)
		}
	}
	for _, d := range dirs {
		if err := iw.watcher.Add(d); err != nil {
			return err
		}
	}
	iw.watched = next
	return nil
}

// retargetImage reloads the config and moves the watch when the image path
// or Dockerfile changed.
func retargetImage(iw *imageWatch, g *globalOptions, log logrus.FieldLogger) {
	cfg, err := g.loadConfig()
	if err != nil {
		log.WithError(err).Warn("config reload failed")
		return
	}
	dir, err := filepath.Abs(cfg.Image.Path)
	if err != nil {
		log.WithError(err).Warn("config reload failed")
		return
	}
	if dir == iw.dir && cfg.Image.Dockerfile == iw.dockerfile {
		return
	}
	if err := iw.set(dir, cfg.Image.Dockerfile); err != nil {
		log.WithError(err).WithField("dir", dir).Warn("failed to watch image directory")
		return
	}
	log.WithField("dir", dir).Info("watching image directory")
}

// runLintAndSynth synthesizes, lints and writes the template when lint passes.
func runLintAndSynth(ctx context.Context, cmd *cobra.Command, g *globalOptions, log *logrus.Logger, opts watchOptions) {
	res, err := g.synthesize(ctx, log)
	if err != nil {
		log.WithError(err).Error("synth failed")
		return
	}

	lintResult := lint.LintTemplate(res.Template, lint.Options{})
	for _, issue := range lintResult.Issues {
		log.WithFields(logrus.Fields{
			"rule":     issue.Rule,
			"resource": issue.Resource,
		}).Warn(issue.Message)
	}
	if lintResult.HasErrors() {
		log.Error("lint failed, skipping output")
		return
	}
	log.WithField("resources", len(res.Template.Resources)).Info("lint passed")

	if opts.lintOnly {
		return
	}

	data, err := encodeTemplate(res.Template, opts.outputFormat)
	if err != nil {
		log.WithError(err).Error("encode failed")
		return
	}
	if err := writeOutput(cmd.OutOrStdout(), data, opts.outputFile); err != nil {
		log.WithError(err).Error("write failed")
		return
	}
	if opts.outputFile != "" {
		log.WithField("file", opts.outputFile).Info("wrote template")
	}
}
