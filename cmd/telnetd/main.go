// Command telnetd is a small reference Telnet server built on the gotelnet
// engine: a line-echo shell, hot-reloadable configuration, and a periodic
// keepalive sweep over active sessions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stlalpha/gotelnet"
	"github.com/stlalpha/gotelnet/internal/config"
	"github.com/stlalpha/gotelnet/internal/logging"
	"github.com/stlalpha/gotelnet/internal/reaper"
)

func main() {
	configPath := flag.String("config", "telnetd.json", "path to server config")
	debug := flag.Bool("debug", false, "enable debug logging")
	doorCmd := flag.String("door", "", "path to a program to run as a door over a PTY instead of the line-echo shell")
	flag.Parse()

	logging.DebugEnabled = *debug
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		logging.Error("telnetd: %v", err)
		os.Exit(1)
	}

	shell := echoShell
	if *doorCmd != "" {
		shell = doorShell(*doorCmd)
	}

	opts := sessionOptionsFromConfig(cfg)
	srv := telnet.NewServer(cfg.Addr, opts, shell)

	watcher, err := config.NewWatcher(*configPath, func(next *config.ServerConfig) {
		srv.Options = sessionOptionsFromConfig(next)
	})
	if err != nil {
		logging.Warn("telnetd: config hot-reload disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	r, err := reaper.New(srv.Lister(), cfg.ReapInterval)
	if err != nil {
		logging.Error("telnetd: bad reapIntervalCron %q: %v", cfg.ReapInterval, err)
		os.Exit(1)
	}
	r.Start()
	defer r.Stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logging.Error("telnetd: %v", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logging.Info("telnetd: shutting down")
	srv.Shutdown()
}

func sessionOptionsFromConfig(cfg *config.ServerConfig) *telnet.SessionOptions {
	return &telnet.SessionOptions{
		Encoding:       cfg.Encoding,
		Limit:          cfg.Limit,
		Timeout:        cfg.Timeout(),
		ConnectMaxWait: time.Duration(cfg.ConnectMaxWaitMs) * time.Millisecond,
		ConnectMinWait: time.Duration(cfg.ConnectMinWaitMs) * time.Millisecond,
		ServerWillEcho: cfg.ServerWillEcho,
		Hooks: telnet.NegotiationHooks{
			OnNAWS: func(s *telnet.Session, cols, rows int) {
				logging.Debug("telnetd: session %s resized to %dx%d", s.ID(), cols, rows)
			},
		},
	}
}

// echoShell is the default shell: it greets the peer, reports what
// negotiation discovered, then echoes every line back until EOF or the idle
// timer fires.
func echoShell(ctx context.Context, s *telnet.Session) error {
	w := s.Writer()
	r := s.Reader()
	if uw := s.UnicodeWriter(); uw != nil {
		ur := s.UnicodeReader()
		return unicodeEchoLoop(ctx, s, ur, uw)
	}

	_, _ = w.Write([]byte(fmt.Sprintf("Connected as %v (term=%v, %vx%v)\r\n",
		s.ExtraInfo(telnet.ExtraPeerName), s.ExtraInfo(telnet.ExtraTerm),
		s.ExtraInfo(telnet.ExtraCols), s.ExtraInfo(telnet.ExtraRows))))

	for {
		line, err := r.ReadLine()
		if err != nil {
			return err
		}
		if len(line) == 0 && r.AtEOF() {
			return nil
		}
		if _, err := w.Write(append(line, '\r', '\n')); err != nil {
			return err
		}
	}
}

func unicodeEchoLoop(ctx context.Context, s *telnet.Session, r *telnet.TelnetReaderUnicode, w *telnet.TelnetWriterUnicode) error {
	_, _ = w.Write(fmt.Sprintf("Connected as %v (term=%v, charset=%v)\r\n",
		s.ExtraInfo(telnet.ExtraPeerName), s.ExtraInfo(telnet.ExtraTerm), s.ExtraInfo(telnet.ExtraCharset)))
	for {
		line, err := r.ReadLine()
		if err != nil {
			return err
		}
		if line == "" && r.AtEOF() {
			return nil
		}
		if _, err := w.Write(line + "\r\n"); err != nil {
			return err
		}
	}
}
