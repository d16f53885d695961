// Copyright 2015 Aleksandr Demakin. All rights reserved.

// mqsend is a test program, which sends one typedmq.Command to an existing queue.
package main

import (
	"fmt"
	"os"

	"github.com/nxgtw/typedmq"
	"github.com/nxgtw/typedmq/codec"

	flag "github.com/spf13/pflag"
)

var (
	objName   = flag.String("name", "", "queue name")
	sender    = flag.Uint8("sender", 0, "command origin id")
	priority  = flag.Uint("priority", 0, "message priority")
	data      = flag.String("data", "", "command payload")
	codecName = flag.String("codec", codec.NameCBOR, "payload codec")
	count     = flag.Int("count", 1, "number of copies to send")
)

func run() error {
	c, err := codec.ByName(*codecName)
	if err != nil {
		return err
	}
	s, err := typedmq.Connect[typedmq.Command](*objName, typedmq.WithCodec(c))
	if err != nil {
		return err
	}
	defer s.Close()
	for i := 0; i < *count; i++ {
		if err := s.Send(typedmq.NewCommand(*sender, []byte(*data)), *priority); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	flag.Parse()
	if len(*objName) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
