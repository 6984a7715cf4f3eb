package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"k40nano/config"
	"k40nano/gcode"
	"k40nano/host/console"
	"k40nano/host/jog"
	"k40nano/host/monitor"
	"k40nano/host/nano"
	"k40nano/host/serial"
	"k40nano/plotter"
)

var (
	configPath = flag.String("config", "", "JSON configuration file")
	boardName  = flag.String("board", "", "Board speed table (e.g. M2), overrides the config")
	device     = flag.String("device", "", "Serial device path (default: first Nano found)")
	baud       = flag.Int("baud", 0, "Baud rate (ignored by the CH341 bridge)")
	list       = flag.Bool("list", false, "List serial ports and exit")
	gcodePath  = flag.String("gcode", "", "Run a G-code file and exit")
	dryRun     = flag.String("dry-run", "", "Write the command stream to this file instead of a board")
	monitorAt  = flag.String("monitor", "", "Serve the packet monitor on this address (e.g. :8040)")
	jogMode    = flag.Bool("jog", false, "Jog the head with the arrow keys")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()
	logger := log.New(os.Stderr, "k40: ", log.LstdFlags)

	if *list {
		listPorts()
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatalf("Error: %v", err)
	}

	var hub *monitor.Hub
	addr := cfg.MonitorAddr
	if *monitorAt != "" {
		addr = *monitorAt
	}
	if addr != "" {
		hub = monitor.NewHub()
		go func() {
			if err := http.ListenAndServe(addr, monitor.NewServeMux(hub)); err != nil {
				logger.Printf("monitor stopped: %v", err)
			}
		}()
		logger.Printf("monitor listening on %s/ws", addr)
	}

	transport, err := openTransport(cfg, hub, logger)
	if err != nil {
		logger.Fatalf("Error: %v", err)
	}

	speeds, err := cfg.SpeedTable()
	if err != nil {
		logger.Fatalf("Error: %v", err)
	}
	var plotLogger *log.Logger
	if *verbose {
		plotLogger = logger
	}
	p := plotter.New(speeds, cfg.PlotterConfig(plotLogger))
	if err := p.Open(transport); err != nil {
		logger.Fatalf("Error: failed to open: %v", err)
	}

	runErr := run(p, cfg)
	if hub != nil {
		x, y := p.Position()
		hub.PublishPosition(x, y, p.State().Mode.String())
	}
	if err := p.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		logger.Fatalf("Error: %v", runErr)
	}
}

func run(p *plotter.Plotter, cfg *config.Config) error {
	switch {
	case *gcodePath != "":
		f, err := os.Open(*gcodePath)
		if err != nil {
			return err
		}
		defer f.Close()
		interp := gcode.NewInterpreter(p, gcode.Options{
			DefaultSpeed: cfg.DefaultSpeed,
			FlipY:        cfg.FlipY,
		})
		if err := interp.Run(f); err != nil {
			return fmt.Errorf("%s: %w", *gcodePath, err)
		}
		if err := p.ExitCompactModeFinish(); err != nil {
			return err
		}
		ext := p.Extents()
		fmt.Printf("Done. Extents (%d, %d) - (%d, %d) mils\n", ext.MinX, ext.MinY, ext.MaxX, ext.MaxY)
		return nil

	case *jogMode:
		return jog.New(p, cfg.JogStep, os.Stdout).Run()

	default:
		fmt.Println("K40 Nano Host")
		fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
		return console.New(p, os.Stdout).Run(os.Stdin)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}
	if *boardName != "" {
		cfg.Board = *boardName
	}
	if *device != "" {
		cfg.Device = *device
	}
	if *baud != 0 {
		cfg.Baud = *baud
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openTransport(cfg *config.Config, hub *monitor.Hub, logger *log.Logger) (plotter.Transport, error) {
	if *dryRun != "" {
		f, err := os.Create(*dryRun)
		if err != nil {
			return nil, err
		}
		logger.Printf("writing command stream to %s", *dryRun)
		return nano.NewCapture(f), nil
	}

	dev := cfg.Device
	if dev == "" {
		found, ok := serial.FindController(serial.ListPorts())
		if !ok {
			return nil, errors.New("no board found, use -device or -list")
		}
		dev = found
	}

	connCfg := cfg.ConnectionConfig()
	if *verbose {
		connCfg.Logger = logger
	}
	if hub != nil {
		connCfg.OnPacket = hub.PublishPacket
	}
	logger.Printf("connecting to %s", dev)
	return nano.Dial(cfg.SerialConfig(dev), connCfg), nil
}

func listPorts() {
	ports := serial.ListPorts()
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return
	}
	for _, p := range ports {
		if p.IsUSB {
			fmt.Printf("%-20s usb %s:%s %s\n", p.Name, p.VID, p.PID, p.Product)
		} else {
			fmt.Println(p.Name)
		}
	}
}
