// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package doot

import "github.com/fatih/color"

// LogFunc is the manager's logging sink. It receives fully rendered lines,
// color codes included, without a trailing newline.
type LogFunc func(string)

// Colors are forced on: lines go to the sink with their escape codes
// regardless of whether a terminal is attached. Sinks that want plain text
// install their own LogFunc.
var (
	cmdColor   = color.New(color.FgHiCyan)
	infoColor  = color.New(color.FgHiGreen)
	warnColor  = color.New(color.FgHiYellow)
	errorColor = color.New(color.FgHiRed)
)

func init() {
	for _, c := range []*color.Color{cmdColor, infoColor, warnColor, errorColor} {
		c.EnableColor()
	}
}

// Log writes an uncolored line to the sink.
func (m *Manager) Log(msg string) {
	m.logf(msg)
}

// Logcmd writes an echoed command line to the sink.
func (m *Manager) Logcmd(msg string) {
	m.logf(cmdColor.Sprint(" -> " + msg))
}

// Info writes an informational line to the sink.
func (m *Manager) Info(msg string) {
	m.logf(infoColor.Sprint(msg))
}

// Warn writes a warning line to the sink.
func (m *Manager) Warn(msg string) {
	m.logf(warnColor.Sprint(msg))
}

// Error writes an error line to the sink.
func (m *Manager) Error(msg string) {
	m.logf(errorColor.Sprint("ERROR: " + msg))
}

// Fatal writes an error line and terminates with status 1.
func (m *Manager) Fatal(msg string) {
	m.FatalCode(msg, 1)
}

// FatalCode writes an error line and terminates with the given status.
func (m *Manager) FatalCode(msg string, status int) {
	m.Error(msg)
	m.exit(status)
}
