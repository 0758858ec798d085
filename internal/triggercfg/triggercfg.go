// Package triggercfg loads the trigger definition file: a TOML
// document whose [triggers] table maps a Workbench trigger name to the
// fully qualified signature of the destination function it should
// invoke, e.g.
//
//	[triggers]
//	users_before_insert = "public.check_user()"
package triggercfg

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type configFile struct {
	Triggers map[string]string `toml:"triggers"`
}

// Config is the trigger-name → function-signature lookup.
type Config struct {
	triggers map[string]string
}

// Load reads and decodes the trigger definition file at path.
func Load(path string) (*Config, error) {
	var cf configFile
	if _, err := toml.DecodeFile(path, &cf); err != nil {
		return nil, fmt.Errorf("trigger config %s: %w", path, err)
	}
	return &Config{triggers: cf.Triggers}, nil
}

// Lookup returns the function signature configured for the trigger.
func (c *Config) Lookup(triggerName string) (string, bool) {
	sig, ok := c.triggers[triggerName]
	return sig, ok
}
