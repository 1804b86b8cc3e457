// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"code.hybscloud.com/bcq"
	"github.com/google/uuid"
	"github.com/valyala/fastrand"
	"golang.org/x/sync/errgroup"
)

const (
	maxItems = 1 << 30

	// Per-receiver cap on recorded violations
	maxViolations = 16

	// FNV-1a over 64-bit words, used as an order digest
	digestOffset = 14695981039346656037
	digestPrime  = 1099511628211
)

// record is the element published by every sender. Seq counts from zero
// per producer, so a receiver registered before the first send must see
// each producer's sequence without gaps.
type record struct {
	Producer uint32
	Seq      uint32
}

// Report is the JSON summary of a stress run.
type Report struct {
	RunID      string          `json:"run_id"`
	Strategy   string          `json:"strategy"`
	Capacity   int             `json:"capacity"`
	Producers  int             `json:"producers"`
	Consumers  int             `json:"consumers"`
	Items      int             `json:"items_per_producer"`
	Published  uint64          `json:"published"`
	Elapsed    time.Duration   `json:"elapsed_ns"`
	Throughput float64         `json:"deliveries_per_sec"`
	Receivers  []ReceiverStats `json:"receivers"`
	Violations []string        `json:"violations,omitempty"`
	OK         bool            `json:"ok"`
}

// ReceiverStats summarizes what one receiver observed.
type ReceiverStats struct {
	ID       int    `json:"id"`
	Received uint64 `json:"received"`
	Stalls   uint64 `json:"stalls"`
	Digest   string `json:"digest"`
}

type receiverState struct {
	next       []uint32
	received   uint64
	stalls     uint64
	digest     uint64
	violations []string
}

func (st *receiverState) violate(format string, args ...any) {
	if len(st.violations) < maxViolations {
		st.violations = append(st.violations, fmt.Sprintf(format, args...))
	}
}

func (st *receiverState) observe(rec record) {
	st.received++
	st.digest = (st.digest ^ (uint64(rec.Producer)<<32 | uint64(rec.Seq))) * digestPrime
	if int(rec.Producer) >= len(st.next) {
		st.violate("unknown producer %d", rec.Producer)
		return
	}
	if want := st.next[rec.Producer]; rec.Seq != want {
		st.violate("producer %d: got seq %d, want %d", rec.Producer, rec.Seq, want)
	}
	st.next[rec.Producer] = rec.Seq + 1
}

// run executes one stress run. The report is returned even when err is
// non-nil so that partial progress can be inspected.
func run(ctx context.Context, cfg Config, log *slog.Logger) (*Report, error) {
	b, err := cfg.builder()
	if err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:     uuid.NewString(),
		Strategy:  cfg.Strategy,
		Producers: cfg.Producers,
		Consumers: cfg.Consumers,
		Items:     cfg.Items,
	}
	log = log.With(slog.String("run_id", rep.RunID))

	tx, rx := bcq.Build[record](b)
	rep.Capacity = tx.Cap()

	// Every receiver is registered before the first send.
	receivers := make([]*bcq.Receiver[record], cfg.Consumers)
	receivers[0] = rx
	for i := 1; i < cfg.Consumers; i++ {
		receivers[i] = rx.Clone()
	}
	senders := make([]*bcq.Sender[record], cfg.Producers)
	for i := range senders {
		senders[i] = tx.Clone()
	}
	tx.Close()

	log.Info("Stress run started",
		slog.String("strategy", cfg.Strategy),
		slog.Int("capacity", rep.Capacity),
		slog.Int("producers", cfg.Producers),
		slog.Int("consumers", cfg.Consumers),
		slog.Int("items", cfg.Items),
	)

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	states := make([]receiverState, cfg.Consumers)
	sent := make([]uint64, cfg.Producers)
	start := time.Now()

	for i, r := range receivers {
		eg.Go(func() error {
			defer r.Close()
			if err := consume(ctx, r, cfg, &states[i]); err != nil {
				return fmt.Errorf("receiver %d: %w", i, err)
			}
			return nil
		})
	}
	for i, s := range senders {
		eg.Go(func() error {
			defer s.Close()
			for seq := range cfg.Items {
				rec := record{Producer: uint32(i), Seq: uint32(seq)}
				if err := s.SendContext(ctx, &rec); err != nil {
					return fmt.Errorf("producer %d at seq %d: %w", i, seq, err)
				}
				sent[i]++
			}
			return nil
		})
	}

	err = eg.Wait()
	rep.Elapsed = time.Since(start)
	for _, n := range sent {
		rep.Published += n
	}

	verify(rep, states)
	if secs := rep.Elapsed.Seconds(); secs > 0 {
		var delivered uint64
		for _, st := range rep.Receivers {
			delivered += st.Received
		}
		rep.Throughput = float64(delivered) / secs
	}
	rep.OK = err == nil && len(rep.Violations) == 0

	if err != nil {
		log.Error("Stress run aborted", slog.String("component", "stress"), slog.Any("error", err))
		return rep, err
	}
	if !rep.OK {
		log.Error("Stress run found violations",
			slog.String("component", "verify"),
			slog.Int("violations", len(rep.Violations)),
		)
		return rep, nil
	}
	log.Info("Stress run passed",
		slog.Duration("elapsed", rep.Elapsed),
		slog.Float64("deliveries_per_sec", rep.Throughput),
	)
	return rep, nil
}

// consume drains r until every sender has closed. A configured fraction
// of receives is followed by a short stall so that this receiver becomes
// the slowest one and exercises backpressure.
func consume(ctx context.Context, r *bcq.Receiver[record], cfg Config, st *receiverState) error {
	st.next = make([]uint32, cfg.Producers)
	st.digest = digestOffset
	for {
		rec, err := r.RecvContext(ctx)
		if bcq.IsDisconnected(err) {
			return nil
		}
		if err != nil {
			return err
		}
		st.observe(rec)
		if cfg.SlowPermille > 0 && fastrand.Uint32n(1000) < uint32(cfg.SlowPermille) {
			st.stalls++
			time.Sleep(time.Duration(fastrand.Uint32n(100)) * time.Microsecond)
		}
	}
}

// verify checks completeness and cross-receiver ordering and fills the
// per-receiver section of rep.
func verify(rep *Report, states []receiverState) {
	want := uint64(rep.Producers) * uint64(rep.Items)
	for i := range states {
		st := &states[i]
		rep.Receivers = append(rep.Receivers, ReceiverStats{
			ID:       i,
			Received: st.received,
			Stalls:   st.stalls,
			Digest:   fmt.Sprintf("%016x", st.digest),
		})
		for _, v := range st.violations {
			rep.Violations = append(rep.Violations, fmt.Sprintf("receiver %d: %s", i, v))
		}
		if st.received != want {
			rep.Violations = append(rep.Violations,
				fmt.Sprintf("receiver %d: received %d, want %d", i, st.received, want))
		}
		if i > 0 && st.digest != states[0].digest {
			rep.Violations = append(rep.Violations,
				fmt.Sprintf("receiver %d: delivery order differs from receiver 0", i))
		}
	}
}
