// Package config loads cmsctl settings. Values are layered: built-in
// defaults, then a YAML or TOML file, then a .env file, then CMS_* variables
// from the environment. The result is normalised and validated before use.
package config
