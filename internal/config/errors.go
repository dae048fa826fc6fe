package config

import "strings"

// ConfigError aggregates every validation problem found in a
// configuration document. It is fatal at startup (§7): the CLI entry
// point prints it and exits non-zero without starting the Supervisor.
type ConfigError []error

func (e ConfigError) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
