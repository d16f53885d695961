// Copyright 2016 Aleksandr Demakin. All rights reserved.

package typedmq

// Command is a generic message: an origin id and an opaque payload.
// Use Sender[Command] and Receiver[Command], when the payload format
// is up to the application.
type Command struct {
	Sender uint8  `cbor:"sender"`
	Data   []byte `cbor:"data"`
}

// NewCommand returns a command from the given origin.
func NewCommand(sender uint8, data []byte) Command {
	return Command{Sender: sender, Data: data}
}

// Origin returns the sender id.
func (c Command) Origin() uint8 {
	return c.Sender
}

// Payload returns the command data.
func (c Command) Payload() []byte {
	return c.Data
}
