// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/epam/backendctl/cmd/backendctl/config"
	"github.com/epam/backendctl/cmd/backendctl/util"
)

const forcedExitCode = 3

// watchInterrupt cancels the returned context on SIGINT / SIGTERM so the running
// CDK process is stopped and the sandbox watch loop returns. A repeated signal
// exits immediately.
func watchInterrupt() context.Context {
	return cancelOnSignal(context.Background(), func() { os.Exit(forcedExitCode) },
		os.Interrupt, syscall.SIGTERM)
}

func cancelOnSignal(parent context.Context, force func(), signals ...os.Signal) context.Context {
	ctx, cancel := context.WithCancel(parent)
	received := make(chan os.Signal, 1)
	stop := make(chan struct{})
	signal.Notify(received, signals...)

	go func() {
		defer signal.Stop(received)
		for {
			select {
			case sig := <-received:
				if ctx.Err() != nil {
					force()
					continue
				}
				cancel()
				if config.Verbose {
					log.Printf("Received %v, stopping; repeat to exit immediately", sig)
				}
			case <-stop:
				cancel()
				return
			}
		}
	}()

	util.AtDone(func() <-chan struct{} {
		close(stop)
		return nil
	})
	return ctx
}
