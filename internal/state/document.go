package state

// SSHConfig names how to reach a remote host over SSHv2. A zero-value
// Document (no SSHConfig) targets the local host.
type SSHConfig struct {
	Username       string `yaml:"username"`
	Password       string `yaml:"password,omitempty"`
	PrivateKeyPath string `yaml:"private_key_path,omitempty"`
	UseAgent       bool   `yaml:"use_agent,omitempty"`
	KnownHostsPath string `yaml:"known_hosts_path,omitempty"`
}

// Document is the on-disk shape of an expected-state file: one host, how to
// reach it, and what it's expected to look like.
type Document struct {
	Host     string         `yaml:"host"`
	SSH      *SSHConfig     `yaml:"ssh,omitempty"`
	Expected ExpectedState  `yaml:"expected_state"`
	Vars     map[string]string `yaml:"vars,omitempty"`
}
