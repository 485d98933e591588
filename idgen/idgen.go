// Package idgen generates a default client identifier when the caller
// leaves Options.ClientID empty. Grounded in the teacher's options.go
// newOptions, which default-constructs ClientID as "mqtt-" + requests.GenId().
package idgen

import "github.com/golang-io/requests"

// New returns a fresh "mqtt5-"-prefixed client identifier.
func New() string {
	return "mqtt5-" + requests.GenId()
}
