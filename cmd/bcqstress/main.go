// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command bcqstress hammers a broadcast queue with concurrent senders and
// receivers and verifies that every receiver saw every element exactly
// once, in the same order.
//
// Configuration comes from BCQ_* environment variables, a .env file in the
// working directory, or flags (highest priority):
//
//	BCQ_STRATEGY=block bcqstress -producers 8 -consumers 3 -capacity 64
//
// The JSON report is written to stdout, logs to stderr. The exit status is
// 1 when the run aborted or found a violation and 2 on bad configuration.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sugawarayuuta/sonnet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Error("Failed to load config", slog.String("component", "config"), slog.Any("error", err))
		os.Exit(2)
	}

	rep, err := run(ctx, cfg, log)
	if rep != nil {
		if werr := writeReport(os.Stdout, rep); werr != nil {
			log.Error("Failed to write report", slog.String("component", "report"), slog.Any("error", werr))
			os.Exit(1)
		}
	}
	if err != nil || rep == nil || !rep.OK {
		os.Exit(1)
	}
}

// writeReport writes rep to w as one line of JSON.
func writeReport(w io.Writer, rep *Report) error {
	out, err := sonnet.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if _, err := w.Write(append(out, '\n')); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
