//go:build rp2040 || rp2350

package fmtx

import "errors"

func Sprintf(format string, a ...any) string { return string(Appendf(nil, format, a...)) }
func Errorf(format string, a ...any) error   { return errors.New(Sprintf(format, a...)) }
