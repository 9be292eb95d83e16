package config

import (
	"fmt"
	"strings"
	"time"
)

type RedisConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the Redis configuration.
func (c *RedisConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Redis ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", c.URL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *RedisConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("redis URL is not configured")
	}
	if !strings.HasPrefix(c.URL, "redis://") && !strings.HasPrefix(c.URL, "rediss://") {
		return fmt.Errorf("redis URL must start with 'redis://': %s", c.URL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("redis connect timeout is not configured")
	}
	return nil
}
