// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"github.com/pkg/errors"
)

// Load errors. They are wrapped with context, test with errors.Is.
var (
	ErrNotFound           = errors.New("level file not found")
	ErrVersionUnsupported = errors.New("unsupported bsp version")
	ErrCorruptedData      = errors.New("corrupted bsp data")
)

func corrupted(format string, args ...interface{}) error {
	return errors.Wrapf(ErrCorruptedData, format, args...)
}
