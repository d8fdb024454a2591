package entrypoint

// MaxProbeLength is the default bound on a single collision chain. Chains in
// a well-sized table stay in single digits, the last collision bucket.
const MaxProbeLength = CollisionBuckets - 1

// Default first-parameter types that make an entry point eligible for a
// trampoline.
const (
	DefaultDeviceType        = "VkDevice"
	DefaultCommandBufferType = "VkCommandBuffer"
)

// Option tunes catalog finalization and index construction.
type Option func(*options)

type options struct {
	hashSize          int
	primeFactor       uint32
	primeStep         uint32
	maxProbe          int
	deviceType        string
	commandBufferType string
}

func newOptions(opts []Option) options {
	o := options{
		hashSize:          HashSize,
		primeFactor:       PrimeFactor,
		primeStep:         PrimeStep,
		maxProbe:          MaxProbeLength,
		deviceType:        DefaultDeviceType,
		commandBufferType: DefaultCommandBufferType,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithHashSize sets the number of table slots. It must be a power of two.
func WithHashSize(n int) Option {
	return func(o *options) { o.hashSize = n }
}

// WithPrimeFactor overrides the hash multiplier.
func WithPrimeFactor(f uint32) Option {
	return func(o *options) { o.primeFactor = f }
}

// WithPrimeStep overrides the probe step. It must be odd.
func WithPrimeStep(s uint32) Option {
	return func(o *options) { o.primeStep = s }
}

// WithMaxProbe sets the longest collision chain the builder accepts.
func WithMaxProbe(n int) Option {
	return func(o *options) { o.maxProbe = n }
}

// WithOwnerTypes sets the first-parameter type names that identify device
// and command buffer owned entry points.
func WithOwnerTypes(device, commandBuffer string) Option {
	return func(o *options) {
		o.deviceType = device
		o.commandBufferType = commandBuffer
	}
}

func (o options) ownerOf(d Descriptor) OwnerKind {
	if len(d.Params) == 0 {
		return OwnerNone
	}
	switch d.Params[0].Type {
	case o.deviceType:
		return OwnerDevice
	case o.commandBufferType:
		return OwnerCommandBuffer
	default:
		return OwnerNone
	}
}
