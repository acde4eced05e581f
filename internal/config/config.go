package config

// Config is the process-wide configuration, constructed once at startup
// and passed by reference into the server. It is immutable after New
// returns; nothing reads the environment at request time.
type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
}

type mainConfig struct {
	EnvVars
	Cors
	Session
}

// New builds the configuration from the environment. Malformed lifetime
// strings fail here, at process start, never during a request.
func New() (Config, error) {
	session, err := NewSession()
	if err != nil {
		return nil, err
	}
	return mainConfig{Session: session}, nil
}
