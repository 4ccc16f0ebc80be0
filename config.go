package grabcache

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default tunables, used when the corresponding Config field is left at
// its zero value.
const (
	DefaultMinChunkSize     = 4 << 20 // 4 MiB
	DefaultValueAlignment   = 16
	defaultNotificationName = "limited"
)

// NotificationLevel gates which events get mirrored onto a Config's Notify
// channel, the same three-tier scheme (Limited/Moderate/Verbose) the
// teacher cache used for its own Notify channel.
type NotificationLevel int

const (
	Limited NotificationLevel = iota
	Moderate
	Verbose
)

func (l NotificationLevel) String() string {
	switch l {
	case Moderate:
		return "moderate"
	case Verbose:
		return "verbose"
	default:
		return "limited"
	}
}

func parseNotificationLevel(s string) (NotificationLevel, error) {
	switch s {
	case "", "limited":
		return Limited, nil
	case "moderate":
		return Moderate, nil
	case "verbose":
		return Verbose, nil
	default:
		return Limited, fmt.Errorf("unknown notification level %q", s)
	}
}

// Config collects the cache's construction-time tunables. It generalizes
// the flat Options struct the teacher cache took, replacing MaxSize/
// SegmentSize with the allocator's actual knobs.
type Config struct {
	// CapBytes is the overall mapped-memory footprint cap. Must be >=
	// MinChunkSize.
	CapBytes int `yaml:"cap_bytes"`

	// MinChunkSize floors the size of any single mmap'd chunk. Defaults to
	// DefaultMinChunkSize.
	MinChunkSize int `yaml:"min_chunk_size"`

	// ValueAlignment is the alignment applied to region sizes and to the
	// payload slice handed to every init function. Must be a power of two.
	// Defaults to DefaultValueAlignment.
	ValueAlignment int `yaml:"value_alignment"`

	// NotificationLevel gates which events are sent on Notify.
	NotificationLevel NotificationLevel `yaml:"-"`

	// Notify, if non-nil, receives a *Notification for every event that
	// clears NotificationLevel's filter. Not set from YAML: it is a
	// runtime channel, supplied programmatically.
	Notify chan<- *Notification `yaml:"-"`

	// Tracker is notified around chunk mmap/munmap. Defaults to
	// NoopMemoryTracker.
	Tracker MemoryTracker `yaml:"-"`

	// Logger receives informational diagnostics. Defaults to NoopLogger.
	Logger Logger `yaml:"-"`

	// ASLR produces a placement hint for new chunks. Defaults to
	// DefaultASLRHint.
	ASLR ASLRHint `yaml:"-"`
}

// yamlConfig mirrors the on-disk shape of Config, since NotificationLevel
// needs string<->enum translation that yaml.v3 won't do for us natively.
type yamlConfig struct {
	CapBytes          int    `yaml:"cap_bytes"`
	MinChunkSize      int    `yaml:"min_chunk_size"`
	ValueAlignment    int    `yaml:"value_alignment"`
	NotificationLevel string `yaml:"notification_level"`
}

// LoadConfig reads a YAML document from path and validates it, the way an
// embedding server would source this cache's tunables from its deployment
// configuration rather than hardcoding them (the teacher cache took a bare
// Options literal, since it had no notion of an external config file).
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("grabcache: read config: %w", err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return nil, fmt.Errorf("grabcache: parse config: %w", err)
	}

	level, err := parseNotificationLevel(y.NotificationLevel)
	if err != nil {
		return nil, fmt.Errorf("grabcache: %w", err)
	}

	cfg := &Config{
		CapBytes:          y.CapBytes,
		MinChunkSize:      y.MinChunkSize,
		ValueAlignment:    y.ValueAlignment,
		NotificationLevel: level,
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MinChunkSize == 0 {
		c.MinChunkSize = DefaultMinChunkSize
	}

	if c.ValueAlignment == 0 {
		c.ValueAlignment = DefaultValueAlignment
	}

	if c.Tracker == nil {
		c.Tracker = NoopMemoryTracker
	}

	if c.Logger == nil {
		c.Logger = NoopLogger
	}

	if c.ASLR == nil {
		c.ASLR = DefaultASLRHint
	}
}

// Validate enforces the same constraint the allocator's constructor
// checked directly (cap_bytes >= MinChunkSize), plus the alignment being a
// power of two, so both LoadConfig and New funnel through one check.
func (c *Config) Validate() error {
	if c.ValueAlignment <= 0 || c.ValueAlignment&(c.ValueAlignment-1) != 0 {
		return newError(InvalidArgument, fmt.Sprintf("value alignment %d is not a power of two", c.ValueAlignment), nil)
	}

	if c.CapBytes < c.MinChunkSize {
		return newError(InvalidArgument, fmt.Sprintf("cap bytes %d is smaller than min chunk size %d", c.CapBytes, c.MinChunkSize), nil)
	}

	return nil
}
