// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package util

import "sync"

var (
	atDone     []func() <-chan struct{}
	atDoneLock sync.Mutex
)

// AtDone registers cleanup to run on Done; a non-nil returned channel is waited upon.
func AtDone(cleanup func() <-chan struct{}) {
	atDoneLock.Lock()
	defer atDoneLock.Unlock()
	atDone = append(atDone, cleanup)
}

func Done() {
	atDoneLock.Lock()
	cleanups := atDone
	atDone = nil
	atDoneLock.Unlock()

	var chs []<-chan struct{}
	for _, cleanup := range cleanups {
		ch := cleanup()
		if ch != nil {
			chs = append(chs, ch)
		}
	}
	for _, ch := range chs {
		<-ch
	}
}
