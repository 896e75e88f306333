package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	kingpin "github.com/alecthomas/kingpin/v2"
	"github.com/Velocidex/ordereddict"
	"github.com/alitto/pond/v2"
	"github.com/olekukonko/tablewriter"

	vroute "www.velocidex.com/golang/vroute"
	"www.velocidex.com/golang/vroute/events"
	"www.velocidex.com/golang/vroute/json"
	"www.velocidex.com/golang/vroute/logging"
)

var (
	route_command = app.Command(
		"route", "Route JSONL events from a stream into sinks.")

	route_command_input = route_command.Flag(
		"input", "File with one JSON event per line ('-' for stdin).").
		Default("-").String()

	route_command_workers = route_command.Flag(
		"workers", "Number of routing workers. With more than one, "+
			"per key ordering follows completion order.").
		Default("1").Int()

	route_command_stats = route_command.Flag(
		"stats", "Print per key statistics when done.").Bool()
)

func doRoute() error {
	config_obj, err := makeDefaultConfigLoader().
		WithRequiredLogging().
		WithRequiredSink().
		LoadAndValidate()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appender, err := vroute.NewRoutingAppender(ctx, config_obj)
	if err != nil {
		return err
	}

	input := os.Stdin
	if *route_command_input != "-" {
		fd, err := os.Open(*route_command_input)
		if err != nil {
			return err
		}
		defer fd.Close()
		input = fd
	}

	logger := logging.GetLogger(config_obj, &logging.ToolComponent)

	workers := *route_command_workers
	if workers < 1 {
		workers = 1
	}
	pool := pond.NewPool(workers)

	var routed, failed int64

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		// The scanner reuses its buffer between lines.
		serialized := append([]byte{}, scanner.Bytes()...)
		if len(serialized) == 0 {
			continue
		}

		pool.Submit(func() {
			row := ordereddict.NewDict()
			err := json.Unmarshal(serialized, row)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				logger.Error("Unable to parse event: %v", err)
				return
			}

			err = appender.Append(events.FromRow(row))
			if err != nil {
				atomic.AddInt64(&failed, 1)
				logger.Error("Unable to route event: %v", err)
				return
			}

			atomic.AddInt64(&routed, 1)
		})
	}
	pool.StopAndWait()

	scan_err := scanner.Err()

	// The stats table reads the live cache, so print it before the
	// shutdown drains it.
	if *route_command_stats {
		printStats(appender)
	}

	close_err := appender.Close()

	logger.Info("Routed <green>%v</> events with %v failures",
		atomic.LoadInt64(&routed), atomic.LoadInt64(&failed))

	if scan_err != nil {
		return scan_err
	}
	return close_err
}

func printStats(appender *vroute.RoutingAppender) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Sink", "Appends", "Created", "Last Used"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for _, row := range appender.Stats() {
		key, _ := row.GetString("key")
		sink_id, _ := row.GetString("sink_id")
		appends, _ := row.Get("appends")

		table.Append([]string{
			key, sink_id,
			fmt.Sprintf("%v", appends),
			formatTime(row, "created"),
			formatTime(row, "last_used"),
		})
	}

	table.Render()
}

func formatTime(row *ordereddict.Dict, column string) string {
	value, _ := row.Get(column)
	stamp, ok := value.(time.Time)
	if !ok {
		return ""
	}
	return stamp.UTC().Format(time.RFC3339)
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		if command == route_command.FullCommand() {
			err := doRoute()
			kingpin.FatalIfError(err, "route")
			return true
		}
		return false
	})
}
