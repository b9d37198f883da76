package config

// If you want to modify any field at run-time here, make sure to lock it using a mutex
type ClientConfig struct {
	Debug bool `toml:"debug" comment:"enables development logging, the -debug flag overrides this"`
}

func (c ClientConfig) Verify() error {
	return nil
}
