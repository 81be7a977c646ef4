/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/prism/engine"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/testbed"
)

func main() {
	tb, err := testbed.NewTestGame()
	if err != nil {
		panic(err)
	}

	engine, err := engine.New(tb.Game)
	if err != nil {
		panic(err)
	}

	if err := engine.Initialize(); err != nil {
		panic(err)
	}

	if path := os.Getenv("PRISM_CONFIG"); path != "" {
		if err := engine.WatchConfig(path); err != nil {
			panic(err)
		}
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// a signal asks the run loop to stop; Shutdown runs exactly once below
	go func() {
		<-sigCh
		core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
	}()

	// run engine
	if err := engine.Run(); err != nil {
		panic(err)
	}

	if err := engine.Shutdown(); err != nil {
		panic(err)
	}
}
