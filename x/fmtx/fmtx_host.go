//go:build !(rp2040 || rp2350)

// Package fmtx is the formatting used by the firmware: fmt on hosts, the
// reflection-free Appendf on rp2 boards.
package fmtx

import "fmt"

func Sprintf(format string, a ...any) string { return fmt.Sprintf(format, a...) }
func Errorf(format string, a ...any) error   { return fmt.Errorf(format, a...) }
