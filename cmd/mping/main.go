// mping probes IPv6 multicast groups for reachability.
//
// Server mode (-s) joins the configured group and unicasts an ACK echo to
// every sender it hears. Client mode (the default) multicasts periodic
// PING probes, counts the replies they draw, and prints running and final
// success-rate reports.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"

	"github.com/joshuafuller/mping/internal/addr"
	"github.com/joshuafuller/mping/internal/protocol"
	"github.com/joshuafuller/mping/prober"
	"github.com/joshuafuller/mping/responder"
)

type options struct {
	Server     bool
	Group      string
	Port       int
	IntervalMs int
	TimeoutMs  int
	Interface  string
	Verbose    bool
	Silent     bool
}

func parseOptions() *options {
	opts := &options{}

	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`mping measures IPv6 multicast reachability: a server joins a group and acknowledges every probe, a client multicasts probes and reports the fraction answered.`)

	flagSet.CreateGroup("mode", "Mode",
		flagSet.BoolVarP(&opts.Server, "server", "s", false, "run in server mode (join the group and reply to senders)"),
	)
	flagSet.CreateGroup("network", "Network",
		flagSet.StringVarP(&opts.Group, "maddr", "a", protocol.DefaultGroup, "multicast IPv6 address to use"),
		flagSet.IntVarP(&opts.Port, "port", "p", protocol.DefaultPort, "port for multicast probes and unicast replies"),
		flagSet.StringVarP(&opts.Interface, "ifname", "I", "", "interface name or index for multicast membership (default: system-selected)"),
	)
	flagSet.CreateGroup("timing", "Timing",
		flagSet.IntVarP(&opts.IntervalMs, "interval", "n", protocol.DefaultIntervalMs, "interval between probes in milliseconds (client mode)"),
		flagSet.IntVarP(&opts.TimeoutMs, "timeout", "t", protocol.DefaultTimeoutMs, "receive poll timeout in milliseconds (client mode)"),
	)
	flagSet.CreateGroup("debug", "Debug",
		flagSet.BoolVarP(&opts.Verbose, "verbose", "v", false, "show per-packet debug output"),
		flagSet.BoolVar(&opts.Silent, "silent", false, "show only report lines"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("could not parse flags: %s", err)
	}
	return opts
}

func main() {
	opts := parseOptions()

	if opts.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
	}
	if opts.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}

	group, err := addr.ParseMulticastAddress(opts.Group)
	if err != nil {
		gologger.Fatal().Msgf("%s", err)
	}
	ifIndex, err := addr.ResolveInterface(opts.Interface)
	if err != nil {
		gologger.Fatal().Msgf("%s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.Server {
		r, err := responder.New(
			responder.WithGroup(group),
			responder.WithPort(opts.Port),
			responder.WithInterface(ifIndex),
		)
		if err != nil {
			gologger.Fatal().Msgf("could not start responder: %s", err)
		}
		defer func() { _ = r.Close() }()

		if err := r.Run(ctx); err != nil {
			gologger.Fatal().Msgf("responder failed: %s", err)
		}
		return
	}

	p, err := prober.New(
		prober.WithGroup(group),
		prober.WithPort(opts.Port),
		prober.WithInterface(ifIndex),
		prober.WithInterval(time.Duration(opts.IntervalMs)*time.Millisecond),
		prober.WithTimeout(time.Duration(opts.TimeoutMs)*time.Millisecond),
	)
	if err != nil {
		gologger.Fatal().Msgf("could not start prober: %s", err)
	}
	defer func() { _ = p.Close() }()

	if err := p.Run(ctx); err != nil {
		gologger.Fatal().Msgf("prober failed: %s", err)
	}
}
