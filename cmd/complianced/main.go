// complianced is the long-lived daemon: it polls a directory of
// expected-state documents and assesses (optionally remediates) every host
// they describe on a fixed interval.
//
// Usage:
//
//	complianced --config /etc/complianced/complianced.yaml
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hostguard/compliance/internal/complog"
	"github.com/hostguard/compliance/internal/config"
	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/managedhost"
	"github.com/hostguard/compliance/internal/privilege"
	"github.com/hostguard/compliance/internal/state"
)

var (
	flagConfig  = flag.String("config", "/etc/complianced/complianced.yaml", "Config file path")
	flagRemediate = flag.Bool("remediate", false, "Reach compliance instead of only assessing")
)

var daemonLog = complog.Tag("complianced")

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.LoadConfig(*flagConfig)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		daemonLog.Printf("shutdown signal: %v", sig)
		cancel()
	}()

	interval := time.Duration(cfg.PollInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce(ctx, cfg, *flagRemediate)
	for {
		select {
		case <-ctx.Done():
			daemonLog.Printf("stopped")
			return
		case <-ticker.C:
			runOnce(ctx, cfg, *flagRemediate)
		}
	}
}

func runOnce(ctx context.Context, cfg *config.Config, remediate bool) {
	dir := cfg.ExpectedStateDir()
	paths, err := filepath.Glob(filepath.Join(dir, cfg.ExpectedStateGlob))
	if err != nil {
		daemonLog.Printf("glob %s: %v", dir, err)
		return
	}
	if len(paths) == 0 {
		daemonLog.Printf("no expected-state documents in %s", dir)
		return
	}

	for _, path := range paths {
		assessOrReachOne(ctx, cfg, path, remediate)
	}
}

func assessOrReachOne(ctx context.Context, cfg *config.Config, path string, remediate bool) {
	doc, err := state.LoadDocument(path)
	if err != nil {
		daemonLog.Printf("load %s: %v", path, err)
		return
	}

	for i := range doc.Expected.Attributes {
		if doc.Expected.Attributes[i].Privilege == "" {
			doc.Expected.Attributes[i].Privilege = privilege.Privilege(cfg.DefaultPrivilege)
		}
	}

	handler := handlerFor(cfg, doc)
	mh := managedhost.New(doc.Host, handler, doc.Vars).WithMaxConcurrency(cfg.MaxConcurrentAssessments)

	if err := mh.Connect(ctx); err != nil {
		daemonLog.Printf("%s: connect failed: %v", doc.Host, err)
		return
	}
	defer mh.Disconnect()

	if remediate {
		result, err := mh.ReachCompliance(ctx, doc.Expected)
		if err != nil {
			daemonLog.Printf("%s: reach compliance failed: %v", doc.Host, err)
			return
		}
		daemonLog.Printf("%s: reach compliance status=%d actions=%d", doc.Host, result.Status, len(result.Actions))
		return
	}

	assessment, err := mh.AssessComplianceInParallel(ctx, doc.Expected)
	if err != nil {
		daemonLog.Printf("%s: assessment failed: %v", doc.Host, err)
		return
	}
	daemonLog.Printf("%s: compliance status=%d remediations=%d", doc.Host, assessment.Status, len(assessment.Remediations))
}

func handlerFor(cfg *config.Config, doc state.Document) hosthandler.HostHandler {
	if doc.SSH == nil {
		return hosthandler.NewLocalAs(privilege.CurrentUser{})
	}

	auth := hosthandler.SSHAuth{
		Password:       doc.SSH.Password,
		PrivateKeyPath: doc.SSH.PrivateKeyPath,
		UseAgent:       doc.SSH.UseAgent,
	}
	ssh := hosthandler.NewSSH(doc.SSH.Username, auth)
	ssh.KnownHostsPath = doc.SSH.KnownHostsPath
	if ssh.KnownHostsPath == "" {
		ssh.KnownHostsPath = cfg.KnownHosts()
	}
	return ssh
}
