// Copyright 2016 Aleksandr Demakin. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/nxgtw/typedmq"
	"github.com/nxgtw/typedmq/config"
	"github.com/nxgtw/typedmq/mq"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bindQueueFlags registers flags, which override the queue section of the profile.
func bindQueueFlags(flags *pflag.FlagSet) {
	flags.Int64("max-messages", mq.DefaultMaxMsg, "Queue capacity")
	flags.Int64("message-size", mq.DefaultMsgSize, "Max message size in bytes")
	flags.String("perm", "0600", "Queue permissions (octal)")
	flags.String("codec", "cbor", "Payload codec: cbor, binary, cbor+lz4, cbor+zstd")
	flags.Bool("nonblocking", false, "Fail instead of blocking on a full or empty queue")
}

// applyQueueFlags copies explicitly set flags into q.
func applyQueueFlags(flags *pflag.FlagSet, q *config.Queue) error {
	var err error
	if flags.Changed("max-messages") {
		if q.MaxMessages, err = flags.GetInt64("max-messages"); err != nil {
			return err
		}
	}
	if flags.Changed("message-size") {
		if q.MessageSize, err = flags.GetInt64("message-size"); err != nil {
			return err
		}
	}
	if flags.Changed("perm") {
		if q.Perm, err = flags.GetString("perm"); err != nil {
			return err
		}
	}
	if flags.Changed("codec") {
		if q.Codec, err = flags.GetString("codec"); err != nil {
			return err
		}
	}
	if flags.Changed("nonblocking") {
		if q.NonBlocking, err = flags.GetBool("nonblocking"); err != nil {
			return err
		}
	}
	return q.Validate()
}

func newCreateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [NAME]",
		Short: "Create a queue and leave it in place",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.queue(args)
			if err != nil {
				return err
			}
			if err := applyQueueFlags(cmd.Flags(), &q); err != nil {
				return err
			}
			perm, err := q.FileMode()
			if err != nil {
				return err
			}
			attrs := q.Attrs()
			if limits, err := mq.ReadLimits(); err == nil {
				if err := limits.Fits(attrs); err != nil {
					ctx.logger.Warn("queue attributes exceed unprivileged limits", "queue", q.Name, "error", err)
				}
			}
			handle, err := mq.OpenOrCreate(q.Name, &attrs, os.O_RDONLY|os.O_EXCL, perm)
			if err != nil {
				return err
			}
			defer handle.Close()
			ctx.logger.Info("queue created", "queue", q.Name, "maxmsg", attrs.MaxMsg, "msgsize", attrs.MsgSize)
			fmt.Fprintln(cmd.OutOrStdout(), q.Name)
			return nil
		},
	}
	bindQueueFlags(cmd.Flags())
	return cmd
}

func newSendCommand(ctx *commandContext) *cobra.Command {
	var priority uint
	var sender uint8
	cmd := &cobra.Command{
		Use:   "send NAME DATA",
		Short: "Send a command to an existing queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.queue(args[:1])
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
			s, err := typedmq.Connect[typedmq.Command](q.Name, opts...)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Send(typedmq.NewCommand(sender, []byte(args[1])), priority); err != nil {
				return err
			}
			ctx.logger.Debug("command sent", "queue", q.Name, "sender", sender, "priority", priority)
			return nil
		},
	}
	cmd.Flags().UintVarP(&priority, "priority", "p", 0, "Message priority")
	cmd.Flags().Uint8Var(&sender, "sender", 0, "Command origin id")
	bindQueueFlags(cmd.Flags())
	return cmd
}

func newUnlinkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink [NAME]",
		Short: "Remove a queue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.queue(args)
			if err != nil {
				return err
			}
			if err := mq.Unlink(q.Name); err != nil {
				return err
			}
			ctx.logger.Info("queue removed", "queue", q.Name)
			return nil
		},
	}
}
