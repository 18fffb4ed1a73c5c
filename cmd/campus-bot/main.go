/*
Command campus-bot is a headless campus client.

It joins a room, wanders around with local prediction, chats now and then,
sits on seats and uses objects it passes. When the session ends it rejoins
with exponential backoff until the run duration elapses.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/netclient"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/errs"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
)

type botConfig struct {
	url      string
	name     string
	avatar   string
	room     string
	duration time.Duration
	chat     time.Duration
	fps      int
	retries  uint64
}

func main() {
	cfg := botConfig{}
	flag.StringVar(&cfg.url, "url", "ws://localhost:2567/ws", "campus server websocket url")
	flag.StringVar(&cfg.name, "name", "bot", "display name prefix")
	flag.StringVar(&cfg.avatar, "avatar", "adam", "avatar kind (adam, nancy, lucy, ash)")
	flag.StringVar(&cfg.room, "room", "", "room to join, empty for the server default")
	flag.DurationVar(&cfg.duration, "duration", time.Minute, "how long to stay")
	flag.DurationVar(&cfg.chat, "chat", 10*time.Second, "interval between chat messages, 0 disables chat")
	flag.IntVar(&cfg.fps, "fps", 30, "simulated frames per second")
	flag.Uint64Var(&cfg.retries, "retries", 5, "join attempts per session before giving up")
	debug := flag.Bool("debug", false, "verbose console logging")
	flag.Parse()

	if cfg.fps < 1 || cfg.fps > 240 {
		fmt.Fprintln(os.Stderr, "fps must be between 1 and 240")
		os.Exit(1)
	}

	logx.InitGlobalLogger(logx.Options{Development: *debug})

	// Names stay unique when several bots share a room.
	cfg.name = fmt.Sprintf("%s-%s", cfg.name, uuid.NewString()[:8])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.duration)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		logx.Fatal(err, "Bot stopped", "name", cfg.name)
	}
	logx.Info("Bot finished", "name", cfg.name)
}

// run keeps a session alive until ctx ends. A session that ends on its own
// is rejoined; a refused join that retrying cannot fix is returned.
func run(ctx context.Context, cfg botConfig) error {
	for {
		sess, err := join(ctx, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = newBot(cfg, sess).drive(ctx)
		if ctx.Err() != nil || err == nil {
			return nil
		}
		logx.Warn("Session ended, rejoining", "name", cfg.name, "error", err.Error())
	}
}

func join(ctx context.Context, cfg botConfig) (*netclient.Session, error) {
	var sess *netclient.Session

	operation := func() error {
		s, err := netclient.Join(ctx, netclient.Options{
			URL:    cfg.url,
			Name:   cfg.name,
			Avatar: cfg.avatar,
			Room:   cfg.room,
		})
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		sess = s
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second
	b := backoff.WithContext(backoff.WithMaxRetries(policy, cfg.retries), ctx)

	notify := func(err error, wait time.Duration) {
		logx.Warn("Join failed, retrying", "error", err.Error(), "wait", wait.String())
	}

	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, fmt.Errorf("join %s: %w", cfg.url, err)
	}

	logx.Info("Joined campus", "session_id", sess.ID(), "room", sess.Room(), "name", cfg.name)
	return sess, nil
}

// retryable reports whether a failed join may succeed later: transport
// failures, a full room and rate limiting qualify, bad parameters do not.
func retryable(err error) bool {
	var refused *netclient.JoinError
	if !errors.As(err, &refused) {
		return true
	}
	switch refused.Code {
	case errs.ErrRoomIsFull, errs.ErrRoomBusy, errs.ErrRateLimitExceeded:
		return true
	}
	return false
}
