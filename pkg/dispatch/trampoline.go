package dispatch

import (
	"fmt"

	"github.com/procaddr/procaddr-go/pkg/entrypoint"
)

// Device is an execution context that owns a per-device dispatch table.
type Device interface {
	DispatchTable() *Table
}

// CommandBuffer is a recording object bound to the device that created it.
type CommandBuffer interface {
	Device() Device
}

// trampoline forwards a call through the table of the object passed as the
// first argument. Calling it without a suitable owner, or when the owner's
// table lacks the slot, is a contract violation and panics.
func trampoline(id int, name string, owner entrypoint.OwnerKind) Proc {
	return func(args ...any) any {
		if len(args) == 0 {
			panic(fmt.Sprintf("dispatch: %s trampoline called without arguments", name))
		}

		var table *Table
		switch owner {
		case entrypoint.OwnerDevice:
			dev, ok := args[0].(Device)
			if !ok {
				panic(fmt.Sprintf("dispatch: %s trampoline needs a Device, got %T", name, args[0]))
			}
			table = dev.DispatchTable()
		case entrypoint.OwnerCommandBuffer:
			cb, ok := args[0].(CommandBuffer)
			if !ok {
				panic(fmt.Sprintf("dispatch: %s trampoline needs a CommandBuffer, got %T", name, args[0]))
			}
			table = cb.Device().DispatchTable()
		}

		p := table.Get(id)
		if p == nil {
			panic(fmt.Sprintf("dispatch: %s is not available on this device", name))
		}
		return p(args...)
	}
}
