// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package grant

import "time"

// A Clock abstracts time so grant expiry can be tested without
// sleeping. TTL expiry is enforced lazily at check time against this
// clock; there is no background timer.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default clock, backed by time.Now.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
