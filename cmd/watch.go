package cmd

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/ginjarator/internal/fsys"
	"github.com/conneroisu/ginjarator/internal/project"
	"github.com/conneroisu/ginjarator/internal/watch"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Regenerate build files whenever sources or the config change",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger("watch")
		if err != nil {
			return err
		}
		root := projectRoot()
		ctx := cmd.Context()

		if err := project.Init(root); err != nil {
			return err
		}

		fs, err := fsys.New(root)
		if err != nil {
			return err
		}
		watcher, err := watch.New(watchDebounce)
		if err != nil {
			return err
		}
		defer watcher.Close()
		watcher.AddFilter(watch.NoInternalFilter)
		watcher.AddFilter(watch.NoGitFilter)

		if err := watcher.AddPath(root); err != nil {
			return err
		}
		for _, sourcePath := range fs.MinimalConfig().SourcePaths {
			resolved := fs.Resolve(sourcePath)
			if err := watcher.AddRecursive(resolved); err != nil {
				log.Warn(ctx, err, "not watching source path", "path", resolved)
			}
		}

		log.Info(ctx, "watching for changes", "root", root)
		return watcher.Watch(ctx, func(events []watch.Event) {
			changed := make([]string, len(events))
			for i, event := range events {
				changed[i] = filepath.ToSlash(event.Path)
			}
			log.Info(ctx, "change detected", "paths", changed)
			if err := project.Init(root); err != nil {
				log.Error(ctx, err, "regenerating build files failed")
				return
			}
			log.Info(ctx, "build files regenerated")
		})
	},
}

func init() {
	watchCmd.Flags().DurationVar(
		&watchDebounce, "debounce", 300*time.Millisecond,
		"how long to wait for changes to settle before rebuilding",
	)
	rootCmd.AddCommand(watchCmd)
}
