package bootstrap

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Carrier holds a secret for a single read, such as a location fragment.
type Carrier interface {
	Fragment() string
	Clear()
}

// Bootstrap seeds the initial secret from a carrier exactly once.
type Bootstrap struct {
	carrier Carrier
	once    sync.Once
	seeded  atomic.Bool
}

// New returns a bootstrap reading from carrier. A nil carrier seeds nothing.
func New(carrier Carrier) *Bootstrap {
	return &Bootstrap{carrier: carrier}
}

// Seed reads the carrier, clears it, and returns the value. Subsequent calls
// return an empty string without touching the carrier.
func (b *Bootstrap) Seed() string {
	var secret string
	b.once.Do(func() {
		if b.carrier == nil {
			return
		}
		secret = strings.TrimPrefix(b.carrier.Fragment(), "#")
		b.carrier.Clear()
		b.seeded.Store(secret != "")
	})
	return secret
}

// Seeded reports whether the first Seed call produced a value.
func (b *Bootstrap) Seeded() bool {
	return b.seeded.Load()
}

// URLCarrier reads the fragment of a location exactly as written, without
// percent-decoding, and blanks it afterwards.
type URLCarrier struct {
	location string
}

// NewURLCarrier wraps a raw location such as "https://host/app#secret".
func NewURLCarrier(location string) *URLCarrier {
	return &URLCarrier{location: location}
}

// Fragment returns everything from the first "#", including it, or "" when
// the location has no fragment.
func (c *URLCarrier) Fragment() string {
	if c == nil {
		return ""
	}
	if i := strings.IndexByte(c.location, '#'); i >= 0 {
		return c.location[i:]
	}
	return ""
}

func (c *URLCarrier) Clear() {
	if c == nil {
		return
	}
	if i := strings.IndexByte(c.location, '#'); i >= 0 {
		c.location = c.location[:i]
	}
}

// Location returns the wrapped location, without its fragment once cleared.
func (c *URLCarrier) Location() string {
	if c == nil {
		return ""
	}
	return c.location
}

// EnvCarrier reads a single environment variable and unsets it afterwards.
type EnvCarrier struct {
	Key string
}

func (c EnvCarrier) Fragment() string {
	if c.Key == "" {
		return ""
	}
	return os.Getenv(c.Key)
}

func (c EnvCarrier) Clear() {
	if c.Key == "" {
		return
	}
	_ = os.Unsetenv(c.Key)
}
