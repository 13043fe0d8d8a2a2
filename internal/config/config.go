// Package config implements the layered TOML startup configuration
// described in §6: a base file, an optional environment overlay, a
// developer-local overlay, an `[os.environ]` merge step, and a
// per-module schema validation hook.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the fully-merged configuration tree, keyed first by
// section name (a fully-qualified module name, or the reserved
// "os.environ" section).
type Config struct {
	sections map[string]map[string]any
}

// Schema validates the resolved section for one module before its
// load is allowed to proceed (§6: "validation failure aborts module
// load"). Implementations live alongside the registering module.
type Schema interface {
	Validate(section map[string]any) error
}

// Load reads quest.toml, then quest.<env>.toml (if env != ""), then
// quest.local.toml, each overlaying the previous (later wins), applies
// the resulting [os.environ] section to the process environment, and
// returns the merged Config. Missing files are not an error; a file
// that exists but fails to parse is.
func Load(dir, env string) (*Config, error) {
	c := &Config{sections: map[string]map[string]any{}}

	files := []string{"quest.toml"}
	if env != "" {
		files = append(files, fmt.Sprintf("quest.%s.toml", env))
	}
	files = append(files, "quest.local.toml")

	for _, name := range files {
		path := name
		if dir != "" {
			path = dir + string(os.PathSeparator) + name
		}
		if err := c.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := c.applyEnviron(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) mergeFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	// A dotted header such as [std.web] decodes as nested tables; walk
	// them so each key lands in the section named by its full path.
	var merge func(section string, tbl map[string]any)
	merge = func(section string, tbl map[string]any) {
		for k, v := range tbl {
			if sub, ok := v.(map[string]any); ok {
				name := k
				if section != "" {
					name = section + "." + k
				}
				merge(name, sub)
				continue
			}
			dst, ok := c.sections[section]
			if !ok {
				dst = map[string]any{}
				c.sections[section] = dst
			}
			dst[k] = v
		}
	}
	merge("", raw)
	return nil
}

// applyEnviron exports the [os.environ] section as process environment
// variables, per §6 — applied at config-load time, not at
// source-evaluation time.
func (c *Config) applyEnviron() error {
	env, ok := c.sections["os.environ"]
	if !ok {
		return nil
	}
	for k, v := range env {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("config: [os.environ] key %q must be a string, got %T", k, v)
		}
		if err := os.Setenv(k, s); err != nil {
			return fmt.Errorf("config: setting env %q: %w", k, err)
		}
	}
	return nil
}

// Section returns the resolved key/value map for a fully-qualified
// module name (e.g. "std.web"), or nil if the module has no section.
func (c *Config) Section(module string) map[string]any {
	return c.sections[module]
}

// ValidateModule runs schema against module's resolved section and
// wraps a failure in an error naming the module. The interpreter's
// module loader does not call it.
func (c *Config) ValidateModule(module string, schema Schema) error {
	if schema == nil {
		return nil
	}
	section := c.sections[module]
	if err := schema.Validate(section); err != nil {
		return fmt.Errorf("config: module %q failed schema validation: %w", module, err)
	}
	return nil
}
