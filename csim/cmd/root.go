// Package cmd provides the command-line interface for csim.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/monitoring"
	"github.com/sarchlab/csim/stats"
	"github.com/sarchlab/csim/trace"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

type options struct {
	setBits     int
	blockBits   int
	linesPerSet int
	tracePath   string
	verbose     bool
	configPath  string

	logLevel    string
	color       bool
	resultsPath string
	record      string

	monitor     bool
	monitorPort int
	openBrowser bool
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	o := &options{}
	defaults := cache.DefaultGeometry()

	cmd := &cobra.Command{
		Use:   "csim -s <set bits> -E <lines per set> -b <block bits> -t <trace>",
		Short: "csim simulates a set-associative cache on a memory trace.",
		Long: `csim replays a memory trace against a simulated ` +
			`set-associative cache with LRU replacement and reports the ` +
			`number of hits, misses and evictions.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := loadEnv(cmd)
			if err != nil {
				return err
			}

			return setupLogging(o.logLevel)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.IntVarP(&o.setBits, "set-bits", "s", defaults.SetBits,
		"Number of set index bits, the cache has 2^s sets")
	flags.IntVarP(&o.linesPerSet, "lines", "E", defaults.LinesPerSet,
		"Number of lines per set")
	flags.IntVarP(&o.blockBits, "block-bits", "b", defaults.BlockBits,
		"Number of block offset bits, blocks hold 2^b bytes")
	flags.StringVar(&o.configPath, "config", "",
		"YAML file with the geometry, trace and verbose settings")
	flags.StringVar(&o.logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")

	local := cmd.Flags()
	local.StringVarP(&o.tracePath, "trace", "t", "", "Trace file to replay")
	local.BoolVarP(&o.verbose, "verbose", "v", false,
		"Print the outcome of every reference")
	local.BoolVar(&o.color, "color", false, "Colour verbose outcome labels")
	local.StringVar(&o.resultsPath, "results", ".csim_results",
		"File that receives the final counters, empty to disable")
	local.StringVar(&o.record, "record", "",
		"Record every access into <name>.sqlite3, 'auto' picks a name")
	local.BoolVar(&o.monitor, "monitor", false,
		"Serve the simulation state over HTTP while it runs")
	local.IntVar(&o.monitorPort, "monitor-port", 0,
		"Port of the monitoring server, 0 picks a free port")
	local.BoolVar(&o.openBrowser, "open-browser", false,
		"Open the monitoring page in a browser")

	cmd.AddCommand(newDecodeCmd(o))

	return cmd
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}

func setupLogging(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logrus.SetLevel(l)

	return nil
}

func (o *options) run(cmd *cobra.Command) error {
	cfg, err := o.resolveConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Trace == "" {
		return errors.New("no trace file given, use -t <trace>")
	}

	c, err := cache.MakeBuilder().WithGeometry(cfg.Geometry).Build("Cache")
	if err != nil {
		return err
	}

	f, err := os.Open(cfg.Trace)
	if err != nil {
		return fmt.Errorf("opening trace: %w", err)
	}
	defer f.Close()

	logrus.WithFields(logrus.Fields{
		"geometry":   cfg.Geometry.String(),
		"total_size": cfg.TotalSize(),
		"trace":      cfg.Trace,
	}).Info("Starting simulation")

	aggregator := stats.NewAggregator()
	processor := trace.NewProcessor(c, aggregator)

	if cfg.Verbose {
		processor.WithPrinter(
			trace.NewPrinter(cmd.OutOrStdout()).WithColor(o.color))
	}

	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		c.AcceptHook(cache.NewLogTracer(logrus.StandardLogger()))
	}

	if o.record != "" {
		dataRecorder := datarecording.New(recordingName(o.record))
		defer dataRecorder.Close()

		c.AcceptHook(cache.NewDBTracer(dataRecorder))
	}

	if o.monitor {
		stop, err := o.startMonitor(c, aggregator, processor, f)
		if err != nil {
			return err
		}
		defer stop()
	}

	err = processor.Run(trace.NewReader(f))
	if err != nil {
		return err
	}

	s := aggregator.Statistics()

	logrus.WithFields(logrus.Fields{
		"hit_rate": s.HitRate(),
	}).Info("Simulation complete")

	err = stats.PrintSummary(cmd.OutOrStdout(), s)
	if err != nil {
		return err
	}

	if o.resultsPath != "" {
		return stats.WriteResults(o.resultsPath, s)
	}

	return nil
}

func (o *options) startMonitor(
	c *cache.Cache,
	aggregator *stats.Aggregator,
	processor *trace.Processor,
	f *os.File,
) (func(), error) {
	m := monitoring.NewMonitor().
		WithPortNumber(o.monitorPort).
		WithBrowser(o.openBrowser)
	m.RegisterCache(c)
	m.RegisterAggregator(aggregator)

	_, err := m.StartServer()
	if err != nil {
		return nil, err
	}

	var total uint64
	if info, err := f.Stat(); err == nil {
		total = uint64(info.Size())
	}

	bar := m.CreateProgressBar(f.Name(), total)
	processor.WithLocker(m.StateLock()).WithProgress(bar)

	stop := func() {
		m.CompleteProgressBar(bar)

		if err := m.StopServer(); err != nil {
			logrus.Warnf("stopping monitoring server: %v", err)
		}
	}

	return stop, nil
}

func recordingName(record string) string {
	if record == "auto" {
		return ""
	}

	return record
}
