// Copyright 2016 Aleksandr Demakin. All rights reserved.

package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueNameUnique(t *testing.T) {
	a := assert.New(t)
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		name := QueueName("unit")
		a.True(strings.HasPrefix(name, "/typedmq-unit-"))
		a.Equal(1, strings.Count(name, "/"))
		a.LessOrEqual(len(name)-1, 255)
		_, dup := seen[name]
		a.False(dup, name)
		seen[name] = struct{}{}
	}
}

func TestRunProgramFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	result := RunProgram(ctx, "./no-such-program")
	assert.Error(t, result.Err)
}

func TestStartProgramKilledByContext(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping a test, which builds a helper program")
	}
	ctx, cancel := context.WithCancel(context.Background())
	p, err := StartProgram(ctx, "./mqsend", "--name", QueueName("killed"))
	if !assert.NoError(t, err) {
		cancel()
		return
	}
	cancel()
	result := p.Wait()
	assert.Error(t, result.Err)
}
