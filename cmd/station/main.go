package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/igorvan/omniscan/pkg/config"
	"github.com/igorvan/omniscan/pkg/logging"
	"github.com/igorvan/omniscan/pkg/scanning"
	"github.com/igorvan/omniscan/pkg/station"
)

// reads "FORMAT;TEXT" (or just "TEXT" for a QR code) lines from stdin and
// publishes them as decode results of one scanner station
func main() {
	fs := flag.NewFlagSet("station", flag.ExitOnError)
	topicID := fs.String("topic", "scanner-bench", "Station topic ID")
	name := fs.String("name", "", "Station label shown in the camera selector")
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		panic(err)
	}
	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		panic(err)
	}
	defer client.Close()

	pub, err := station.NewPublisher(ctx, client, *topicID, *name)
	if err != nil {
		panic(err)
	}
	defer pub.Stop()

	scanner := bufio.NewScanner(os.Stdin)
	count := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		res := parseLine(line)
		res.At = time.Now()
		if err := pub.Publish(ctx, res); err != nil {
			logger.Error(fmt.Sprintf("cannot publish [%s]: %s", line, err))
			continue
		}
		count++
		logger.Info(fmt.Sprintf("[Scan #%d] sent %s %s", count, res.Format, res.Text))
	}
	if err := scanner.Err(); err != nil {
		logger.Error(fmt.Sprintf("cannot read input: %s", err))
	}
}

func parseLine(line string) scanning.DecodeResult {
	format, text, ok := strings.Cut(line, ";")
	if ok && scanning.Format(format).Supported() {
		return scanning.DecodeResult{Text: text, Format: scanning.Format(format)}
	}
	return scanning.DecodeResult{Text: line, Format: scanning.QRCode}
}
