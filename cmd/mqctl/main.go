// Copyright 2016 Aleksandr Demakin. All rights reserved.

// mqctl creates, inspects and removes typed message queues, and sends or
// receives typedmq.Command values from the shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
