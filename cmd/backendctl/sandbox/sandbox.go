// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sandbox

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/epam/backendctl/cmd/backendctl/backend"
	"github.com/epam/backendctl/cmd/backendctl/config"
	"github.com/epam/backendctl/cmd/backendctl/util"
)

const DefaultDebounce = 500 * time.Millisecond

type Deployer interface {
	Deploy(ctx context.Context, id *backend.BackendIdentifier, props *backend.DeployProps) error
	Destroy(ctx context.Context, id *backend.BackendIdentifier, props *backend.DeployProps) error
}

type SecretTimestamps interface {
	LastUpdated(ctx context.Context, id *backend.BackendIdentifier) (*time.Time, error)
}

type Options struct {
	ProjectDir         string
	Debounce           time.Duration
	ValidateAppSources bool
	// Exclude holds path prefixes, relative to ProjectDir, that never trigger a redeploy.
	Exclude []string
}

type Sandbox struct {
	deployer Deployer
	secrets  SecretTimestamps
	id       *backend.BackendIdentifier
	options  Options
}

func New(deployer Deployer, secrets SecretTimestamps, id *backend.BackendIdentifier, options Options) *Sandbox {
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}
	if options.ProjectDir == "" {
		options.ProjectDir = "."
	}
	return &Sandbox{deployer: deployer, secrets: secrets, id: id, options: options}
}

func (s *Sandbox) Identifier() *backend.BackendIdentifier {
	return s.id
}

// Deploy deploys the sandbox once. Secret timestamp lookup failures are not fatal,
// the deployment then proceeds without the secret refresh hint.
func (s *Sandbox) Deploy(ctx context.Context) error {
	var updated *time.Time
	if s.secrets != nil {
		var err error
		updated, err = s.secrets.LastUpdated(ctx, s.id)
		if err != nil {
			util.WarnOnce("Unable to determine when sandbox secrets were last updated: %v", err)
		}
	}
	if config.Verbose {
		log.Printf("Deploying sandbox %s", util.HighlightColor(s.id.String()))
	}
	return s.deployer.Deploy(ctx, s.id, &backend.DeployProps{
		DeploymentType:     backend.Sandbox,
		SecretLastUpdated:  updated,
		ValidateAppSources: s.options.ValidateAppSources,
	})
}

func (s *Sandbox) Delete(ctx context.Context) error {
	if config.Verbose {
		log.Printf("Deleting sandbox %s", util.HighlightColor(s.id.String()))
	}
	return s.deployer.Destroy(ctx, s.id, &backend.DeployProps{DeploymentType: backend.Sandbox})
}

// Watch deploys, then redeploys whenever backend sources change, until ctx is done.
// Deployments never overlap; changes made during a deployment trigger one more.
func (s *Sandbox) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("Unable to start file watcher: %v", err)
	}
	defer watcher.Close()

	root := filepath.Join(s.options.ProjectDir, backend.BackendDir)
	if err := s.watchTree(watcher, root); err != nil {
		return err
	}

	events := make(chan string)
	go s.forward(ctx, watcher, events)
	return s.loop(ctx, events)
}

func (s *Sandbox) loop(ctx context.Context, events <-chan string) error {
	s.deployAndReport(ctx)
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if config.Debug {
				log.Printf("Change detected: %s", path)
			}
			settle = time.After(s.options.Debounce)
		case <-settle:
			settle = nil
			s.deployAndReport(ctx)
		}
	}
}

func (s *Sandbox) deployAndReport(ctx context.Context) {
	err := s.Deploy(ctx)
	if ctx.Err() != nil || util.ContextCanceled(err) {
		return
	}
	if err != nil {
		log.Print(util.ErrorChain(err))
		log.Print("Sandbox deployment failed; watching for further changes")
		return
	}
	log.Printf("Sandbox %s deployed; watching for changes", s.id)
}

func (s *Sandbox) forward(ctx context.Context, watcher *fsnotify.Watcher, events chan<- string) {
	defer close(events)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod || s.ignored(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := s.watchTree(watcher, event.Name); err != nil {
						util.Warn("%v", err)
					}
				}
			}
			select {
			case events <- event.Name:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			util.Warn("File watcher error: %v", err)
		}
	}
}

func (s *Sandbox) watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("Unable to watch `%s`: %v", path, err)
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && s.ignored(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("Unable to watch `%s`: %v", path, err)
		}
		return nil
	})
}

var alwaysIgnored = []string{"node_modules", ".amplify"}

func (s *Sandbox) ignored(path string) bool {
	base := filepath.Base(path)
	if util.Contains(alwaysIgnored, base) || (strings.HasPrefix(base, ".") && base != ".") {
		return true
	}
	rel, err := filepath.Rel(s.options.ProjectDir, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, prefix := range s.options.Exclude {
		prefix = strings.TrimSuffix(filepath.ToSlash(prefix), "/")
		if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
			return true
		}
	}
	return false
}
