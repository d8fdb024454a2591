package dispatch

// DeviceHandle is a device with its own dispatch table, built once by
// Resolver.NewDevice.
type DeviceHandle struct {
	info  DeviceInfo
	layer Layer
	ctx   Context
	table *Table
}

// DispatchTable returns the per-device table.
func (d *DeviceHandle) DispatchTable() *Table {
	return d.table
}

// Info returns the hardware description the table was built for.
func (d *DeviceHandle) Info() DeviceInfo {
	return d.info
}

// Layer returns the generation layer of the device.
func (d *DeviceHandle) Layer() Layer {
	return d.layer
}

// Context returns the gating context the table was built with.
func (d *DeviceHandle) Context() Context {
	return d.ctx
}

// NewCommandBuffer creates a command buffer bound to d.
func (d *DeviceHandle) NewCommandBuffer() *CommandBufferHandle {
	return &CommandBufferHandle{device: d}
}

// CommandBufferHandle is a command buffer bound to the device that created it.
type CommandBufferHandle struct {
	device *DeviceHandle
}

// Device returns the owning device.
func (c *CommandBufferHandle) Device() Device {
	return c.device
}

// Compile-time interface satisfaction checks.
var (
	_ Device        = (*DeviceHandle)(nil)
	_ CommandBuffer = (*CommandBufferHandle)(nil)
)
