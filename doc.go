// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package typedmq sends typed values between processes through linux (POSIX) message queues.
//
// A Receiver is created first: Listen creates the named queue, or attaches
// to an existing one. Any number of Senders then Connect to the same name.
// Values are encoded by a codec.Codec (CBOR by default) into a single message,
// which must fit into the message size of the queue.
//
// Delivery follows the kernel: the highest priority first, FIFO among equal
// priorities. Send blocks while the queue is full, Receive blocks while it
// is empty; there are no timeouts and no retries. The receiver, which created
// the queue, removes it on Close. Senders and attached receivers never do.
//
//	r, err := typedmq.Listen[typedmq.Command]("/jobs", mq.Attrs{MaxMsg: 10, MsgSize: 1024})
//	...
//	defer r.Close()
//	s, err := typedmq.Connect[typedmq.Command]("/jobs")
//	...
//	defer s.Close()
//	err = s.Send(typedmq.NewCommand(1, []byte("run")), 5)
//	cmd, err := r.Receive()
package typedmq
