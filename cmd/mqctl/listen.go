// Copyright 2016 Aleksandr Demakin. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nxgtw/typedmq"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newListenCommand(ctx *commandContext) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "listen [NAME]",
		Short: "Receive commands and print them",
		Long: "Creates the queue, or attaches to an existing one, and prints received commands.\n" +
			"A queue created by listen is removed on exit.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.queue(args)
			if err != nil {
				return err
			}
			if err := applyQueueFlags(cmd.Flags(), &q); err != nil {
				return err
			}
			opts, err := ctx.endpointOptions(q)
			if err != nil {
				return err
			}

			lock := flock.New(lockPath(q.Name))
			ok, err := lock.TryLock()
			if err != nil {
				return errors.Wrap(err, "failed to acquire listener lock")
			}
			if !ok {
				return errors.Errorf("another listener is running for %s", q.Name)
			}
			defer lock.Unlock()

			r, err := typedmq.Listen[typedmq.Command](q.Name, q.Attrs(), opts...)
			if err != nil {
				return err
			}
			defer r.Close()
			ctx.logger.Info("listening", "queue", q.Name, "owner", r.Owner(), "msgsize", r.MaxMessageSize())

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			done := make(chan error, 1)
			go func() {
				done <- receiveLoop(r, cmd.OutOrStdout(), count)
			}()
			select {
			case err := <-done:
				return err
			case <-sigCtx.Done():
				ctx.logger.Info("shutting down", "queue", q.Name)
				return nil
			}
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Exit after N commands (0 means run until interrupted)")
	bindQueueFlags(cmd.Flags())
	return cmd
}

// pollInterval is the pause after a non-blocking receive found the queue empty.
const pollInterval = 50 * time.Millisecond

// receiveLoop prints commands until count is reached or receive fails.
// Undecodable messages are reported and skipped.
func receiveLoop(r *typedmq.Receiver[typedmq.Command], out io.Writer, count int) error {
	for received := 0; count <= 0 || received < count; {
		cmd, prio, err := r.ReceivePriority()
		switch {
		case err == nil:
			received++
			fmt.Fprintf(out, "sender=%d priority=%d data=%q\n", cmd.Origin(), prio, cmd.Payload())
		case typedmq.IsDeserializationFailed(err):
			fmt.Fprintf(out, "skipped: %v\n", err)
		case typedmq.IsTemporary(err):
			time.Sleep(pollInterval)
		default:
			return err
		}
	}
	return nil
}

// lockPath returns the listener lock file for a queue.
func lockPath(name string) string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "typedmq-"+strings.TrimPrefix(name, "/")+".lock")
}

