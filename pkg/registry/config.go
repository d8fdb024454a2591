package registry

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/procaddr/procaddr-go/pkg/entrypoint"
	"github.com/procaddr/procaddr-go/pkg/version"
)

// Config selects what a build includes and how the index is laid out.
type Config struct {
	// MaxAPIVersion is the newest core version whose features are included.
	MaxAPIVersion string `yaml:"maxApiVersion"`

	// API is the registry API name features and extensions must target.
	API string `yaml:"api"`

	// NamePrefix is the namespace every entry point name starts with.
	NamePrefix string `yaml:"namePrefix"`

	// Extensions lists the supported extensions. Commands of any other
	// extension are left out.
	Extensions []string `yaml:"extensions"`

	// Owners names the first-parameter types that get trampolines.
	Owners OwnerTypes `yaml:"owners"`

	// HashSize is the number of index slots, a power of two.
	HashSize int `yaml:"hashSize"`

	// PrimeStep is the odd probe increment.
	PrimeStep uint32 `yaml:"primeStep"`

	// MaxProbe is the longest collision chain the build accepts.
	MaxProbe int `yaml:"maxProbe"`

	// Legacy lists entry points no registry describes. They are appended
	// after everything else.
	Legacy []RawCommand `yaml:"legacy"`
}

// OwnerTypes names the owner object types.
type OwnerTypes struct {
	Device        string `yaml:"device"`
	CommandBuffer string `yaml:"commandBuffer"`
}

// DefaultConfig returns the configuration of the builtin registry build.
func DefaultConfig() Config {
	return Config{
		MaxAPIVersion: version.Current,
		API:           "vulkan",
		NamePrefix:    "vk",
		Extensions: []string{
			"VK_KHR_get_physical_device_properties2",
			"VK_KHR_maintenance1",
			"VK_KHR_push_descriptor",
			"VK_KHR_surface",
			"VK_KHR_swapchain",
			"VK_KHR_wayland_surface",
			"VK_KHR_xcb_surface",
			"VK_KHR_xlib_surface",
		},
		Owners: OwnerTypes{
			Device:        entrypoint.DefaultDeviceType,
			CommandBuffer: entrypoint.DefaultCommandBufferType,
		},
		HashSize:  entrypoint.HashSize,
		PrimeStep: entrypoint.PrimeStep,
		MaxProbe:  entrypoint.MaxProbeLength,
		Legacy: []RawCommand{{
			Name:   "vkCreateDmaBufImageINTEL",
			Return: "VkResult",
			Params: []entrypoint.Param{
				{Type: "VkDevice", Name: "device", Decl: "VkDevice device"},
				{Type: "VkDmaBufImageCreateInfo", Name: "pCreateInfo", Decl: "const VkDmaBufImageCreateInfo* pCreateInfo"},
				{Type: "VkAllocationCallbacks", Name: "pAllocator", Decl: "const VkAllocationCallbacks* pAllocator"},
				{Type: "VkDeviceMemory", Name: "pMem", Decl: "VkDeviceMemory* pMem"},
				{Type: "VkImage", Name: "pImage", Decl: "VkImage* pImage"},
			},
		}},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if _, err := version.Parse(c.MaxAPIVersion); err != nil {
		errs = append(errs, fmt.Errorf("maxApiVersion: %w", err))
	}
	if c.API == "" {
		errs = append(errs, errors.New("api is required"))
	}
	if c.HashSize <= 0 || c.HashSize&(c.HashSize-1) != 0 {
		errs = append(errs, fmt.Errorf("hashSize: %w: %d", entrypoint.ErrHashSizeNotPowerOfTwo, c.HashSize))
	}
	if c.PrimeStep%2 == 0 {
		errs = append(errs, fmt.Errorf("primeStep: %w: %d", entrypoint.ErrEvenPrimeStep, c.PrimeStep))
	}
	if c.MaxProbe <= 0 {
		errs = append(errs, fmt.Errorf("maxProbe must be positive, got %d", c.MaxProbe))
	}
	if c.Owners.Device == "" || c.Owners.CommandBuffer == "" {
		errs = append(errs, errors.New("owners.device and owners.commandBuffer are required"))
	}
	for i, l := range c.Legacy {
		if l.Name == "" {
			errs = append(errs, fmt.Errorf("legacy[%d]: %w", i, entrypoint.ErrEmptyName))
		}
	}
	return errors.Join(errs...)
}

// Options returns the entrypoint build options the config implies.
func (c Config) Options() []entrypoint.Option {
	return []entrypoint.Option{
		entrypoint.WithHashSize(c.HashSize),
		entrypoint.WithPrimeStep(c.PrimeStep),
		entrypoint.WithMaxProbe(c.MaxProbe),
		entrypoint.WithOwnerTypes(c.Owners.Device, c.Owners.CommandBuffer),
	}
}

// supports reports whether ext is in the supported list.
func (c Config) supports(ext string) bool {
	for _, e := range c.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ParseConfig parses a config from YAML bytes. Fields the document omits
// keep their DefaultConfig values.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads and parses a config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseConfig(data)
}
