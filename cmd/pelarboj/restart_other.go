//go:build !unix

package main

import "errors"

func restartSelf() error {
	return errors.New("restart: not supported on this platform")
}
