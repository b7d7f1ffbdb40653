package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"thermogo/internal/alerts"
	"thermogo/internal/app"
	"thermogo/internal/bus"
	"thermogo/internal/config"
	"thermogo/internal/logging"
	"thermogo/internal/monitor"
	"thermogo/internal/persistence"
	"thermogo/internal/protocol"
)

const usage = `usage: thermoctl [flags] <command> [args]

commands:
  pwm                         print TEC driver limits per channel
  pid                         print PID control state per channel
  s-h                         print Steinhart-Hart parameters per channel
  postfilter                  print ADC postfilter configuration per channel
  set <topic> <ch> <field> <value>
                              set one instrument parameter
  power-up <ch> <target>      enter closed-loop mode at a temperature target
  limits <max_v> <max_i_pos> <max_i_neg>
                              apply driver limits to every channel
  save                        persist instrument config to EEPROM
  load                        restore instrument config from EEPROM
  stream                      print continuous telemetry as JSON lines
  export <out.csv>            export recorded history to CSV
`

func main() {
	if err := run(); err != nil {
		slog.Error("run thermoctl", "error", err)
		os.Exit(1)
	}
}

func run() error {
	connector := flag.String("connector", "", "transport: ip or serial (default from config)")
	host := flag.String("host", "", "ip/hostname of the controller")
	port := flag.Int("port", 0, "tcp port (default 23)")
	serialPort := flag.String("serial-port", "", "serial device path")
	baud := flag.Int("baud", 0, "serial baud rate")
	record := flag.Bool("record", false, "record streamed telemetry to history db")
	channelFlag := flag.Int("channel", -1, "restrict stream to one channel (-1: config default)")
	last := flag.Duration("last", 24*time.Hour, "export: trailing time range")
	fields := flag.String("fields", "temperature,i_set", "export: comma-separated fields")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return errors.New("missing command")
	}
	command := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := app.ResolvePaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(&cfg, *connector, *host, *port, *serialPort, *baud)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logMgr := logging.NewManager()
	cfg.Logging.LogToFile = false
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() {
		_ = logMgr.Close()
	}()

	if command == "export" {
		return runExport(ctx, paths, cfg, args, *last, splitFields(*fields))
	}

	client, cleanup, err := connect(ctx, logMgr, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	switch command {
	case "pwm", "pid", "s-h", "postfilter":
		return runQuery(ctx, client, command)
	case "set":
		return runSet(ctx, client, args)
	case "power-up":
		return runPowerUp(ctx, client, args)
	case "limits":
		return runLimits(ctx, client, args)
	case "save":
		return client.SaveConfig(ctx)
	case "load":
		return client.LoadConfig(ctx)
	case "stream":
		return runStream(ctx, logMgr, paths, cfg, client, *record, *channelFlag)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func applyFlagOverrides(cfg *config.AppConfig, connector, host string, port int, serialPort string, baud int) {
	if connector != "" {
		cfg.Connection.Connector = config.ConnectorType(connector)
	}
	if strings.TrimSpace(host) != "" {
		cfg.Connection.Host = strings.TrimSpace(host)
	}
	if port > 0 {
		cfg.Connection.Port = port
	}
	if serialPort != "" {
		cfg.Connection.SerialPort = serialPort
		cfg.Connection.Connector = config.ConnectorSerial
	}
	if baud > 0 {
		cfg.Connection.SerialBaud = baud
	}
}

func connect(ctx context.Context, logMgr *logging.Manager, cfg config.AppConfig) (*protocol.Client, func(), error) {
	tr, err := app.NewTransportForConnection(cfg.Connection)
	if err != nil {
		return nil, nil, err
	}
	if err := tr.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("connect %s transport: %w", tr.Name(), err)
	}
	cleanup := func() {
		if closeErr := tr.Close(); closeErr != nil {
			slog.Warn("close transport", "error", closeErr)
		}
	}
	client := protocol.NewClient(logMgr.Logger("protocol"), tr, protocol.WithChannels(cfg.Protocol.Channels))

	return client, cleanup, nil
}

func runQuery(ctx context.Context, client *protocol.Client, topic string) error {
	reports, err := client.Query(ctx, topic, client.Channels())
	if err != nil {
		return err
	}
	return printJSON(reports)
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}
	fmt.Println(string(raw))

	return nil
}

func runSet(ctx context.Context, client *protocol.Client, args []string) error {
	if len(args) != 4 {
		return errors.New("set expects: <topic> <channel> <field> <value>")
	}
	channel, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("parse channel: %w", err)
	}
	var value any = args[3]
	if f, err := strconv.ParseFloat(args[3], 64); err == nil {
		value = f
	}

	return client.SetParameter(ctx, args[0], channel, args[2], value)
}

func runPowerUp(ctx context.Context, client *protocol.Client, args []string) error {
	if len(args) != 2 {
		return errors.New("power-up expects: <channel> <target>")
	}
	channel, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("parse channel: %w", err)
	}
	target, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("parse target: %w", err)
	}

	return client.PowerUp(ctx, channel, target)
}

func runLimits(ctx context.Context, client *protocol.Client, args []string) error {
	if len(args) != 3 {
		return errors.New("limits expects: <max_v> <max_i_pos> <max_i_neg>")
	}
	values := make([]float64, 3)
	for i, raw := range args {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parse limit %q: %w", raw, err)
		}
		values[i] = v
	}

	return app.ApplySetup(ctx, client, app.ChannelLimits{
		MaxV:    values[0],
		MaxIPos: values[1],
		MaxINeg: values[2],
	}, nil)
}

func runStream(ctx context.Context, logMgr *logging.Manager, paths app.Paths, cfg config.AppConfig, client *protocol.Client, record bool, channelFlag int) error {
	channel := cfg.Plot.Channel
	if channelFlag >= 0 {
		channel = channelFlag
	}

	b := bus.New(logMgr.Logger("bus"))
	defer b.Close()

	var recorder monitor.Recorder
	if record {
		db, err := persistence.Open(ctx, paths.DBFile)
		if err != nil {
			return err
		}
		defer func() {
			_ = db.Close()
		}()
		recorder = persistence.NewSampleRepo(db)
	}

	if cfg.Alerts.Enabled {
		watcher := alerts.NewWatcher(logMgr.Logger("alerts"), alerts.NewBeeepSender(logMgr.Logger("alerts")), cfg.Alerts)
		go watcher.Run(ctx, b)
	}

	stream, err := client.Stream(ctx, protocol.StreamOptions{
		Channel:    &channel,
		DiscardAck: cfg.Protocol.ReportAck,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for {
		rec, err := stream.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
			return nil
		default:
			return err
		}

		if err := enc.Encode(rec.Fields); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		b.Publish(bus.TopicTelemetry, rec)
		if recorder != nil {
			if err := recorder.RecordTelemetry(ctx, rec); err != nil {
				slog.Warn("record telemetry sample", "error", err)
			}
		}
	}
}

func runExport(ctx context.Context, paths app.Paths, cfg config.AppConfig, args []string, last time.Duration, fields []string) error {
	if len(args) != 1 {
		return errors.New("export expects: <out.csv>")
	}

	db, err := persistence.Open(ctx, paths.DBFile)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()
	repo := persistence.NewSampleRepo(db)

	out, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		_ = out.Close()
	}()

	now := time.Now()
	return repo.ExportCSV(ctx, out, now.Add(-last), now, fields, cfg.Protocol.Channels)
}

func splitFields(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
