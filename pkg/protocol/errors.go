package protocol

import "errors"

// ErrInvalidConfig marks node configuration errors. They are fatal for the
// node: the engine fails the node immediately instead of retrying.
var ErrInvalidConfig = errors.New("invalid node configuration")

// IsConfigError reports whether err originates from node configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
