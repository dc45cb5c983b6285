package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/heysubinoy/rpkv/internal/api"
	"github.com/heysubinoy/rpkv/internal/logger"
	"github.com/heysubinoy/rpkv/internal/store"
	"github.com/heysubinoy/rpkv/pkg/config"
)

// backend is what the commands need from either the local file or a
// remote server.
type backend interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Path(ctx context.Context) (string, error)
	Close() error
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "rpkv",
		Usage: "persistent key value store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to YAML config file"},
			&cli.StringFlag{Name: "path", Usage: "store file, overrides config"},
			&cli.StringFlag{Name: "remote", Usage: "gRPC address of an rpkv-server; the file is used directly when empty", EnvVars: []string{"RPKV_REMOTE"}},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second, Usage: "remote call timeout"},
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "get key",
				ArgsUsage: "KEY",
				Action: withBackend(func(cCtx *cli.Context, b backend) error {
					if cCtx.NArg() != 1 {
						return cli.Exit("usage: rpkv get KEY", 2)
					}
					key := cCtx.Args().First()
					value, found, err := b.Get(cCtx.Context, key)
					if err != nil {
						return err
					}
					if !found {
						return cli.Exit(fmt.Sprintf("key %q not found", key), 1)
					}
					fmt.Fprintln(cCtx.App.Writer, value)
					return nil
				}),
			},
			{
				Name:      "put",
				Aliases:   []string{"set"},
				Usage:     "set key with value",
				ArgsUsage: "KEY VALUE",
				Action: withBackend(func(cCtx *cli.Context, b backend) error {
					if cCtx.NArg() != 2 {
						return cli.Exit("usage: rpkv put KEY VALUE", 2)
					}
					return b.Put(cCtx.Context, cCtx.Args().Get(0), cCtx.Args().Get(1))
				}),
			},
			{
				Name:  "path",
				Usage: "print the storage location",
				Action: withBackend(func(cCtx *cli.Context, b backend) error {
					path, err := b.Path(cCtx.Context)
					if err != nil {
						return err
					}
					fmt.Fprintln(cCtx.App.Writer, path)
					return nil
				}),
			},
		},
	}
}

func withBackend(action func(*cli.Context, backend) error) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		cfg, err := config.LoadConfig(cCtx.String("config"))
		if err != nil {
			return err
		}
		if p := cCtx.String("path"); p != "" {
			cfg.Path = p
		}
		logger.Setup(cfg.LogLevel, "rpkv")

		b, err := openBackend(cCtx.String("remote"), cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration("timeout"))
		defer cancel()
		cCtx.Context = ctx

		return action(cCtx, b)
	}
}

func openBackend(remote string, cfg *config.Config) (backend, error) {
	if remote == "" {
		return &localBackend{store: store.NewFileStore(cfg.Path,
			store.WithAtomicSave(cfg.AtomicSave),
			store.WithLogger(log.Logger),
		)}, nil
	}

	conn, err := grpc.NewClient("passthrough:///"+remote, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", remote, err)
	}
	return &remoteBackend{Client: api.NewClient(conn), conn: conn}, nil
}

type localBackend struct {
	store *store.FileStore
}

func (b *localBackend) Put(_ context.Context, key, value string) error {
	return b.store.Put(key, value)
}

func (b *localBackend) Get(_ context.Context, key string) (string, bool, error) {
	return b.store.Get(key)
}

func (b *localBackend) Path(context.Context) (string, error) {
	return b.store.Path(), nil
}

func (b *localBackend) Close() error { return nil }

type remoteBackend struct {
	*api.Client
	conn *grpc.ClientConn
}

func (b *remoteBackend) Close() error {
	return b.conn.Close()
}
