package console

import (
	"io"

	"rtdnode/x/logx"
)

// MirrorLogs copies every debug line onto the side-channel console w when
// enabled, as the BLE UART does while a central is connected. Disabled, it
// removes any mirror.
func MirrorLogs(out *logx.Output, w io.Writer, enabled bool) {
	if !enabled || w == nil {
		out.SetMirror(nil)
		return
	}
	out.SetMirror(func() io.Writer { return w })
}
