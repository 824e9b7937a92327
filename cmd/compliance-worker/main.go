// compliance-worker reads a single Task as JSON from stdin, runs it against
// the host it names, and writes the resulting Result as JSON to stdout. It
// is the distributable execution unit: a dispatcher can ship it a Task over
// any transport that can carry bytes and read its JSON reply back.
//
// Usage:
//
//	compliance-worker < task.json > result.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"

	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/privilege"
	"github.com/hostguard/compliance/internal/task"
)

var (
	flagSSHUser     = flag.String("ssh-user", "", "SSH username; local execution if empty")
	flagSSHPassword = flag.String("ssh-password", "", "SSH password")
	flagSSHKeyPath  = flag.String("ssh-key", "", "SSH private key path")
	flagKnownHosts  = flag.String("known-hosts", "", "TOFU known_hosts path")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("read task from stdin: %v", err)
	}

	var t task.Task
	if err := json.Unmarshal(input, &t); err != nil {
		log.Fatalf("parse task: %v", err)
	}

	handler := buildHandler()
	result := task.Run(context.Background(), t, handler, nil)

	output, err := json.Marshal(result)
	if err != nil {
		log.Fatalf("marshal result: %v", err)
	}
	if _, err := os.Stdout.Write(output); err != nil {
		log.Fatalf("write result: %v", err)
	}
}

func buildHandler() hosthandler.HostHandler {
	if *flagSSHUser == "" {
		return hosthandler.NewLocalAs(privilege.CurrentUser{})
	}

	auth := hosthandler.SSHAuth{
		Password:       *flagSSHPassword,
		PrivateKeyPath: *flagSSHKeyPath,
	}
	ssh := hosthandler.NewSSH(*flagSSHUser, auth)
	ssh.KnownHostsPath = *flagKnownHosts
	return ssh
}
