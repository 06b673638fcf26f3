package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/entrhq/formpilot/pkg/action"
	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/monitor"
	"github.com/entrhq/formpilot/pkg/notify"
	"github.com/entrhq/formpilot/pkg/session"
	"github.com/entrhq/formpilot/pkg/types"
	"github.com/entrhq/formpilot/pkg/watch"
	"github.com/entrhq/formpilot/pkg/workflow"
)

const msgRunning = "formpilot actief: sleep bestanden naar het venster of de map"

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dropDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Attach to the browser and handle drops and description fills until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if dropDir != "" {
				cfg.Drop.Dir = dropDir
				if err := cfg.Drop.Validate(); err != nil {
					return fmt.Errorf("drop: %w", err)
				}
			}
			log := ctx.logger("run")

			path, err := lockPath(cfg)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return fmt.Errorf("create lock directory: %w", err)
			}
			lock := flock.New(path)
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errors.New("another formpilot run is already driving this browser profile")
			}
			defer lock.Unlock()

			runCtx := cmd.Context()
			h, err := openHost(runCtx, cfg, ctx.logger("host"))
			if err != nil {
				return err
			}
			defer h.Close()

			notifier := notify.Multi{notify.NewTerminal(cmd.OutOrStdout()), notify.NewLog(log)}
			timeline := workflow.NewTimeline(ctx.logger("timeline"))
			defer timeline.Close()

			exec := action.New(h.doc, cfg.Keywords)
			sess := session.New()
			driver := workflow.NewDriver(runCtx, exec, timeline, sess, workflow.Options{
				Config:   cfg.Workflow(),
				Notifier: notifier,
				Logger:   ctx.logger("workflow"),
				OnTransition: func(t workflow.Transition) {
					log.Debugf("%s job %s: %s", t.Kind, t.JobID, t.Stage)
				},
			})
			mon := monitor.New(exec, timeline, sess, monitor.Options{
				Notifier: notifier,
				Logger:   ctx.logger("monitor"),
			})

			g, gctx := errgroup.WithContext(runCtx)
			g.Go(func() error {
				err := mon.Run(gctx)
				if errors.Is(err, monitor.ErrNotObservable) {
					log.Warnf("description monitor disabled: %v", err)
					return nil
				}
				return err
			})

			if bridge, ok := h.doc.(host.DropBridge); ok {
				if err := bridge.OnDrop(gctx, driver.HandleDrop); err != nil {
					log.Warnf("in-page drop disabled: %v", err)
				}
			}

			if cfg.Drop.Dir != "" {
				folder, err := watch.New(cfg.Drop, driver.HandleDrop, ctx.logger("watch"))
				if err != nil {
					return err
				}
				log.Infof("watching drop folder %s", folder.Dir())
				g.Go(func() error { return folder.Run(gctx) })
			}

			log.Infof("session %s started", sess.ID())
			notifier.Notify(msgRunning, types.SeverityInfo)

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dropDir, "drop-dir", "", "Watch this folder for files to upload or import")
	return cmd
}
