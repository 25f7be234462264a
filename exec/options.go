package exec

// config separates global settings (set by New) from local settings (set
// per run by the With* methods). Local settings win and are cleared after
// each Run.
type config struct {
	globalEnv        map[string]string
	globalDir        string
	globalInheritEnv bool

	localEnv map[string]string
	localDir string
}

func newConfig() *config {
	return &config{
		globalEnv: make(map[string]string),
		localEnv:  make(map[string]string),
	}
}

// clone copies the global settings only.
func (c *config) clone() *config {
	clone := newConfig()
	clone.globalDir = c.globalDir
	clone.globalInheritEnv = c.globalInheritEnv
	for k, v := range c.globalEnv {
		clone.globalEnv[k] = v
	}
	return clone
}

func (c *config) effectiveEnv() map[string]string {
	env := make(map[string]string, len(c.globalEnv)+len(c.localEnv))
	for k, v := range c.globalEnv {
		env[k] = v
	}
	for k, v := range c.localEnv {
		env[k] = v
	}
	return env
}

func (c *config) effectiveDir() string {
	if c.localDir != "" {
		return c.localDir
	}
	return c.globalDir
}

func (c *config) resetLocal() {
	c.localEnv = make(map[string]string)
	c.localDir = ""
}
