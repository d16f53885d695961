// Copyright 2016 Aleksandr Demakin. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/nxgtw/typedmq/mq"

	"github.com/spf13/cobra"
)

func newStatCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stat [NAME]",
		Short: "Show queue attributes and system limits",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows [][]string
			if len(args) > 0 {
				q, err := ctx.queue(args)
				if err != nil {
					return err
				}
				handle, err := mq.Connect(q.Name, os.O_RDONLY|mq.O_NONBLOCK)
				if err != nil {
					return err
				}
				attrs, err := handle.Attrs()
				handle.Close()
				if err != nil {
					return err
				}
				rows = append(rows, attrRows(q.Name, attrs)...)
			}
			limits, err := mq.ReadLimits()
			if err != nil {
				ctx.logger.Warn("mqueue limits are not available", "error", err)
			} else {
				rows = append(rows, limitRows(limits)...)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Property", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func attrRows(name string, attrs *mq.Attrs) [][]string {
	blocking := "yes"
	if attrs.Flags&mq.O_NONBLOCK != 0 {
		blocking = "no"
	}
	return [][]string{
		{"queue", name},
		{"max messages", strconv.FormatInt(attrs.MaxMsg, 10)},
		{"message size", strconv.FormatInt(attrs.MsgSize, 10)},
		{"pending messages", strconv.FormatInt(attrs.CurMsgs, 10)},
		{"blocking", blocking},
	}
}

func limitRows(l *mq.Limits) [][]string {
	return [][]string{
		{"msg_max", strconv.FormatInt(l.MsgMax, 10)},
		{"msgsize_max", strconv.FormatInt(l.MsgSizeMax, 10)},
		{"queues_max", strconv.FormatInt(l.QueuesMax, 10)},
		{"msg_default", strconv.FormatInt(l.MsgDefault, 10)},
		{"msgsize_default", strconv.FormatInt(l.MsgSizeDefault, 10)},
	}
}
