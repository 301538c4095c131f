// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"

	"github.com/epam/backendctl/cmd/backendctl/config"
)

var (
	warnings        = make([]string, 0)
	warningsEmitted = make(map[string]struct{})
	HighlightColor  = maybeHighlight(aurora.BrightCyan)
	WarnColor       = maybeHighlight(aurora.BrightMagenta)
	ErrorColor      = maybeHighlight(aurora.BrightRed)
	logTerminal     *bool
)

func maybeHighlight(color func(interface{}) aurora.Value) func(string) string {
	return func(str string) string {
		if config.Tty && (IsLogTerminal() || config.TtyForced) {
			str = color(str).String()
		}
		return str
	}
}

func IsLogTerminal() bool {
	if logTerminal != nil {
		return *logTerminal
	}
	fd := os.Stderr.Fd()
	if config.LogDestination == "stdout" {
		fd = os.Stdout.Fd()
	}
	tty := isatty.IsTerminal(fd)
	logTerminal = &tty
	return tty
}

func Warn(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	log.Printf(WarnColor("WARN: %s"), msg)
	if config.AggWarnings {
		warnings = append(warnings, msg)
	}
}

func WarnOnce(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	if _, emitted := warningsEmitted[msg]; emitted {
		return
	}
	warningsEmitted[msg] = struct{}{}
	Warn("%s", msg)
}

func PrintAllWarnings() {
	if !config.AggWarnings || len(warnings) == 0 {
		return
	}
	if config.Verbose {
		log.Print(WarnColor("All warnings combined:"))
	}
	io.WriteString(os.Stderr, strings.Join(UniqInOrder(warnings), "\n"))
	io.WriteString(os.Stderr, "\n")
}

// ErrorChain renders err and every wrapped cause, outermost first.
func ErrorChain(err error) string {
	if err == nil {
		return ""
	}
	lines := []string{ErrorColor(err.Error())}
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		lines = append(lines, fmt.Sprintf("\tcaused by: %s", strings.TrimSpace(cause.Error())))
	}
	return strings.Join(lines, "\n")
}

func Errors(sep string, maybeErrors ...error) string {
	if sep == "" {
		sep = ", "
	}
	errs := make([]string, 0, len(maybeErrors))
	for _, err := range maybeErrors {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) == 0 {
		return "(no errors)"
	}
	return strings.Join(UniqInOrder(errs), sep)
}

func Coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func UniqInOrder(source []string) []string {
	res := make([]string, 0, len(source))
	seen := make(map[string]struct{}, len(source))
	for _, str := range source {
		if _, exist := seen[str]; !exist {
			seen[str] = struct{}{}
			res = append(res, str)
		}
	}
	return res
}

func Contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// ContainsPrefix matches value against patterns; a trailing `*` in a pattern makes it a prefix match.
func ContainsPrefix(patterns []string, value string) bool {
	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "*") {
			if strings.HasPrefix(value, pattern[:len(pattern)-1]) {
				return true
			}
		} else if pattern == value {
			return true
		}
	}
	return false
}

func ContextCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	str := err.Error()
	return str == "context canceled" ||
		strings.Contains(str, ": context canceled") ||
		strings.Contains(str, "signal: killed") ||
		strings.Contains(str, "signal: interrupt")
}

func Plural(size int, noun ...string) string {
	if len(noun) == 0 {
		return ""
	}
	if size == 1 {
		return fmt.Sprintf("%d %s", size, noun[0])
	}
	if len(noun) > 1 {
		return fmt.Sprintf("%d %s", size, noun[1])
	}
	return fmt.Sprintf("%d %ss", size, noun[0])
}

func MaskedValue(trace bool, value string) string {
	if trace {
		return value
	}
	return "(masked)"
}
