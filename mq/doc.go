// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package mq provides access to linux (POSIX) message queues.
//
// A Handle owns exactly one queue descriptor. OpenOrCreate is used by the side,
// which owns the queue (it may create it), Connect is used by clients,
// which only attach to an existing queue. Handle.Created reports, whether
// the call that returned the handle has created the queue, so that the owner
// knows, that it must Unlink the queue when it is done.
//
// All operations are direct system calls: there is no buffering,
// no retries on EINTR, and no timeouts. Send blocks while the queue is full,
// Receive blocks while it is empty, unless the handle was opened with O_NONBLOCK.
package mq
