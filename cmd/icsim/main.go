// icsim replays a scenario of property accesses against one simulated call
// site and prints how its inline cache state evolves.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/icache/codelog"
	"github.com/chazu/icache/config"
	"github.com/chazu/icache/ic"
	"github.com/chazu/icache/interp"
	"github.com/chazu/icache/object"
	"github.com/chazu/icache/snapshot"
)

func main() {
	configPath := flag.String("config", "", "Path to icache.toml (default: search from the scenario directory)")
	snapshotPath := flag.String("snapshot", "", "Write a CBOR feedback snapshot to this file")
	trace := flag.Bool("trace", false, "Log every IC transition")
	verbose := flag.Int("v", 0, "Log verbosity")
	stats := flag.Bool("stats", false, "Print IC statistics at the end")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: icsim [options] scenario.toml\n\n")
		fmt.Fprintf(os.Stderr, "Replays the accesses of a scenario against one call site.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  icsim poly.toml                      # Print state transitions\n")
		fmt.Fprintf(os.Stderr, "  icsim -trace -v 1 poly.toml          # Also log IC traces\n")
		fmt.Fprintf(os.Stderr, "  icsim -snapshot out.cbor poly.toml   # Save the final feedback\n")
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *configPath, *snapshotPath, *trace, *verbose, *stats); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(scenarioPath, configPath, snapshotPath string, trace bool, verbosity int, stats bool) error {
	if trace && verbosity < 1 {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	cfg, err := loadConfig(scenarioPath, configPath)
	if err != nil {
		return err
	}
	icfg := cfg.IsolateConfig()
	icfg.Trace = icfg.Trace || trace

	var clog *codelog.Log
	if path := cfg.CodeLogPath(); path != "" {
		clog, err = codelog.Open(path)
		if err != nil {
			return err
		}
		defer clog.Close()
	}

	realm := object.NewRealm()
	opts := ic.Options{
		Emitter:   interp.NewEmitter(),
		ArrayMaps: realm.Table(),
		Resolver:  realm.Resolver(),
	}
	if clog != nil {
		opts.Profiler = clog
	}
	iso, err := ic.NewIsolate(icfg, opts)
	if err != nil {
		return err
	}
	if clog != nil {
		clog.SetIsolate(iso.ID())
	}

	scenario, err := LoadScenario(scenarioPath)
	if err != nil {
		return err
	}
	vector, err := scenario.Run(iso, realm, os.Stdout)
	if err != nil {
		return err
	}

	if stats {
		s := iso.Stats()
		fmt.Printf("handlers: %d, megamorphic stubs: %d, hit rate: %.1f%%\n", s.Handlers, s.MegamorphicStubs, s.HitRate)
	}
	if snapshotPath != "" {
		data, err := snapshot.Marshal(snapshot.Capture(iso, vector))
		if err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		if err := os.WriteFile(snapshotPath, data, 0644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}
	return nil
}

func loadConfig(scenarioPath, configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	cfg, err := config.FindAndLoad(filepath.Dir(scenarioPath))
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}
