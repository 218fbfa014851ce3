/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Seednode/gridparty/grid"
)

type watchConfig struct {
	url   string
	index int
	play  bool
	tick  time.Duration
}

func newWatchCmd() *cobra.Command {
	wc := &watchConfig{}

	v := viper.New()
	v.SetEnvPrefix("GRIDPARTY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a running grid from the terminal, or replay its history.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd.Context(), wc, cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()

	fs.StringVar(&wc.url, "url", "ws://localhost:3000/ws", "websocket url of the grid (env: GRIDPARTY_URL)")
	fs.IntVar(&wc.index, "index", -1, "show the grid as of this history index, -1 follows the live grid (env: GRIDPARTY_INDEX)")
	fs.BoolVar(&wc.play, "play", false, "play history forward from --index, or from the start (env: GRIDPARTY_PLAY)")
	fs.DurationVar(&wc.tick, "tick", grid.DefaultTick, "time between playback steps (env: GRIDPARTY_TICK)")

	bindFlags(v, fs, nil)

	return cmd
}

func printFrame(out io.Writer, f grid.Frame) {
	fmt.Fprintf(out, "-- %s #%d --\n%s", f.Mode, f.Index, f.Grid)
}

// watch connects as a regular participant and drives a local timeline from
// what the server sends. It never submits updates.
func watch(ctx context.Context, wc *watchConfig, out io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wc.url, nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", wc.url, err)
	}
	defer conn.Close()

	var (
		writeMu    sync.Mutex
		sawPlaying bool
		finishOnce sync.Once
		finished   = make(chan struct{})
	)

	tl := grid.NewTimeline(
		grid.WithTick(wc.tick),
		grid.WithHistoryRequester(func() {
			writeMu.Lock()
			defer writeMu.Unlock()
			_ = conn.WriteJSON(grid.ClientMessage{Type: grid.TypeRequestHistory})
		}),
		grid.WithFrameHandler(func(f grid.Frame) {
			printFrame(out, f)

			if f.Mode == grid.Playing {
				sawPlaying = true
			} else if sawPlaying && f.Mode == grid.Viewing {
				finishOnce.Do(func() { close(finished) })
			}
		}),
	)
	defer tl.Stop()

	ready := make(chan struct{})
	readErr := make(chan error, 1)

	go func() {
		var readyOnce sync.Once
		for {
			var msg grid.ServerMessage
			if err := conn.ReadJSON(&msg); err != nil {
				readErr <- err
				return
			}

			tl.Receive(msg)

			if msg.Type == grid.TypeHistorySnapshot {
				readyOnce.Do(func() { close(ready) })
			}
		}
	}()

	select {
	case <-ready:
	case err := <-readErr:
		return fmt.Errorf("read from %s: %w", wc.url, err)
	case <-ctx.Done():
		return nil
	}

	start := wc.index
	if start < 0 && wc.play {
		start = 0
	}

	if start >= 0 {
		if err := tl.Scrub(start); err != nil {
			return err
		}
	}

	switch {
	case wc.play:
		if !tl.Play() {
			return nil
		}
		select {
		case <-finished:
		case <-ctx.Done():
		}
		return nil

	case start >= 0:
		return nil
	}

	// follow the live grid until the server or the user hangs up
	select {
	case err := <-readErr:
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, io.EOF) {
			return nil
		}
		return err
	case <-ctx.Done():
		return nil
	}
}
