// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Port is a uint16 for IP ports. The default parser accepts 0-65535; use
// PortRange for a bounded parser.
type Port uint16

func (p Port) String() string { return strconv.FormatUint(uint64(p), 10) }

// ParsePortRange parses a range string like "1-65535" or "8000-9000".
func ParsePortRange(rangeStr string) (min, max Port, err error) {
	parts := strings.Split(rangeStr, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid port range format %q (expected \"min-max\")", rangeStr)
	}
	minVal, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid min port in range %q: %w", rangeStr, err)
	}
	maxVal, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid max port in range %q: %w", rangeStr, err)
	}
	if minVal > maxVal {
		return 0, 0, fmt.Errorf("invalid port range %q: min (%d) > max (%d)", rangeStr, minVal, maxVal)
	}
	return Port(minVal), Port(maxVal), nil
}

func parsePort(value string) (Port, error) {
	portVal, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, OutOfRange("port must be between 0 and 65535")
		}
		return 0, Invalid("invalid port value")
	}
	return Port(portVal), nil
}

// PortRange returns a Port parser that rejects ports outside [min, max].
func PortRange(min, max Port) Parser {
	return Scalar(func(s string) (Port, error) {
		p, err := parsePort(s)
		if err != nil {
			return 0, err
		}
		if p < min || p > max {
			return 0, OutOfRange("port must be between %d-%d", min, max)
		}
		return p, nil
	}, Port.String)
}
