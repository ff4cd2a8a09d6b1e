// Package config manages user-level settings stored at ~/.devkit/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the backend priority order, subprocess timeouts, and the post-install
// settle window.
package config
