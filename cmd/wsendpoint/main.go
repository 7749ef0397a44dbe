// Command wsendpoint exercises a ws.Endpoint from the command line: listen
// as a server, or dial out as a client, logging every connect, message, and
// disconnect event.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/mq1n/websocket-lite/ws"
)

func main() {
	cmd := &cli.Command{
		Name:  "wsendpoint",
		Usage: "RFC 6455 WebSocket endpoint core: listen or dial",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a TOML config file (listen_addr, timeouts, [tls])",
			},
			&cli.BoolFlag{
				Name:  "pretty-log",
				Usage: "human-readable console logging, instead of JSON",
			},
		},
		Commands: []*cli.Command{
			listenCommand(),
			dialCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initLog(pretty bool) zerolog.Logger {
	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func loadConfig(cmd *cli.Command) (ws.Config, error) {
	path := cmd.String("config")
	if path == "" {
		return ws.Config{}, nil
	}
	return ws.LoadConfig(path)
}

func listenCommand() *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "accept inbound WebSocket connections",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address, overrides the config file's listen_addr",
				Value: ":8080",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.IsSet("addr") || cfg.ListenAddr == "" {
				cfg.ListenAddr = cmd.String("addr")
			}
			log := initLog(cmd.Bool("pretty-log"))
			cfg.Logger = &log

			endpoint, err := ws.NewListener(cfg)
			if err != nil {
				return fmt.Errorf("build listener: %w", err)
			}

			endpoint.OnConnect(func(c *ws.Connection, _ http.Header) {
				log.Info().Str("conn_id", c.ID()).Str("remote", c.RemoteAddr().String()).Msg("connected")
			})
			endpoint.OnMessage(func(c *ws.Connection, payload []byte, op ws.Opcode) {
				log.Info().Str("conn_id", c.ID()).Str("opcode", op.String()).Int("len", len(payload)).Msg("message")
				if op == ws.OpcodeText || op == ws.OpcodeBinary {
					_ = endpoint.Send(c, ws.OutboundMessage{Opcode: op, Payload: payload})
				}
			})
			endpoint.OnDisconnect(func(c *ws.Connection, code ws.CloseCode, reason string) {
				log.Info().Str("conn_id", c.ID()).Uint16("code", uint16(code)).Str("reason", reason).Msg("disconnected")
			})

			errCh := make(chan error, 1)
			go func() { errCh <- endpoint.ListenAndServe() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-sigCh:
				log.Info().Msg("shutting down")
				return endpoint.Shutdown(ctx)
			}
		},
	}
}

func dialCommand() *cli.Command {
	return &cli.Command{
		Name:      "dial",
		Usage:     "open a client WebSocket connection",
		ArgsUsage: "host port",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := initLog(cmd.Bool("pretty-log"))
			cfg.Logger = &log

			args := cmd.Args()
			if args.Len() != 2 {
				return fmt.Errorf("usage: wsendpoint dial <host> <port>")
			}
			host := args.Get(0)
			var port int
			if _, err := fmt.Sscanf(args.Get(1), "%d", &port); err != nil {
				return fmt.Errorf("invalid port %q: %w", args.Get(1), err)
			}

			endpoint, err := ws.NewClient(cfg)
			if err != nil {
				return fmt.Errorf("build client: %w", err)
			}

			endpoint.OnMessage(func(c *ws.Connection, payload []byte, op ws.Opcode) {
				log.Info().Str("conn_id", c.ID()).Str("opcode", op.String()).Int("len", len(payload)).Msg("message")
			})
			endpoint.OnDisconnect(func(c *ws.Connection, code ws.CloseCode, reason string) {
				log.Info().Str("conn_id", c.ID()).Uint16("code", uint16(code)).Str("reason", reason).Msg("disconnected")
			})

			conn, err := endpoint.Connect(ctx, host, port, nil)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			log.Info().Str("conn_id", conn.ID()).Msg("connected")

			<-ctx.Done()
			return endpoint.Shutdown(context.Background())
		},
	}
}
