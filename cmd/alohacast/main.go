package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/lanikai/alohacast"
	"github.com/lanikai/alohacast/internal/adb"
	"github.com/lanikai/alohacast/internal/device"
	"github.com/lanikai/alohacast/internal/logging"
	_ "github.com/lanikai/alohacast/internal/media/libav"
)

// Populated via -ldflags="-X ...".
var GitRevisionId string
var GitTag string

var log = logging.DefaultLogger.WithTag("alohacast")

// Command line flags
var (
	flagSerial     string
	flagADBAddress string
	flagMode       = alohacast.ModeStreaming
	flagWidth      int
	flagHeight     int
	flagInterval   time.Duration
	flagCount      int
	flagConfig     string
	flagListen     string
	flagOutput     string
	flagHelp       bool
	flagVersion    bool
)

func init() {
	defaults := alohacast.DefaultConfig()

	flag.StringVarP(&flagSerial, "serial", "s", "", "Device serial number")
	flag.StringVar(&flagADBAddress, "adb-address", adb.DefaultAddress, "adb server address")
	flag.VarP(&flagMode, "mode", "m", "Capture mode")
	flag.IntVarP(&flagWidth, "width", "x", defaults.Width, "Frame width")
	flag.IntVarP(&flagHeight, "height", "y", defaults.Height, "Frame height")
	flag.DurationVarP(&flagInterval, "interval", "i", defaults.PollInterval, "Delay between screenshots")
	flag.IntVarP(&flagCount, "count", "n", 0, "Number of screenshots")
	flag.StringVarP(&flagConfig, "config", "c", "", "YAML configuration file")
	flag.StringVarP(&flagListen, "listen", "l", ":8000", "HTTP listen address")
	flag.StringVarP(&flagOutput, "output", "o", "", "Directory for PNG frames")

	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

func main() {
	flag.Usage = help
	flag.Parse()

	if flagHelp {
		help()
		os.Exit(0)
	}
	if flagVersion {
		version()
		os.Exit(0)
	}

	os.Exit(run())
}

// run captures until the task ends or a signal arrives, and returns the
// process exit code.
func run() int {
	cfg, err := loadConfig(flagConfig, flag.CommandLine)
	if err != nil {
		log.Error("%v", err)
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	queue := alohacast.NewFrameQueue()
	task, err := alohacast.NewTask(cfg, func() device.Conn {
		return adb.NewClient(flagADBAddress, flagSerial)
	}, queue)
	if err != nil {
		log.Error("%v", err)
		return 2
	}

	viewers := alohacast.NewBroadcaster()
	defer viewers.Close()
	v := newViewer(viewers)

	router := http.NewServeMux()
	v.register(router)
	router.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:     flagListen,
		Handler:  router,
		ErrorLog: stdlog.New(log.Writer(logging.Warn), "", 0),
	}
	go func() {
		log.Info("serving live view on http://%s/", displayAddress(flagListen))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http: %v", err)
			cancel()
		}
	}()
	defer server.Shutdown(context.Background())

	sinks := []alohacast.FrameSink{viewers, v}
	if flagOutput != "" {
		w, err := newPNGWriter(flagOutput)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		sinks = append(sinks, w)
	}

	// Frames leave the capture goroutine through the queue, so a slow disk or
	// viewer never holds up decoding.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		deliver(queue, alohacast.MultiSink(sinks...))
	}()

	log.Info("capturing %dx%d in %v mode", cfg.Width, cfg.Height, cfg.Mode)
	err = task.Run(ctx)
	queue.Close()
	wg.Wait()

	if err != nil {
		log.Error("%v", err)
		return 1
	}
	return 0
}

// deliver forwards queued frames to sink until the queue is closed and empty.
func deliver(queue *alohacast.FrameQueue, sink alohacast.FrameSink) {
	for {
		f, err := queue.Next(context.Background())
		if err != nil {
			return
		}
		sink.Emit(f)
	}
}
