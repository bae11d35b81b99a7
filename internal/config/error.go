package config

// ConfigInitError reports a config that loads but is not ready to be used.
type ConfigInitError struct {
	msg string
}

func (e *ConfigInitError) Error() string {
	return e.msg
}
