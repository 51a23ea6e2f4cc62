package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/kvops/auth"
	"github.com/jonwraymond/kvops/cache"
	"github.com/jonwraymond/kvops/httpapi"
	"github.com/jonwraymond/kvops/observe"
	"github.com/jonwraymond/kvops/replay"
)

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(a.stdout, "kvops %s (%s)\n", Version, GitCommit)
			return err
		},
	}
}

func (a *App) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the value, replay and page endpoints together with health probes
and Prometheus metrics. The store is flushed on start when cache.flush is
true, which is the default; set it to false to keep history across restarts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := a.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			c, err := rt.newCache(ctx, nil)
			if err != nil {
				return err
			}

			refreshCtx, stopRefresh := context.WithCancel(ctx)
			defer stopRefresh()
			go refreshDNS(refreshCtx, rt)

			srv := &http.Server{
				Addr: rt.cfg.HTTP.Addr,
				Handler: httpapi.New(httpapi.Deps{
					Cache:    c,
					Pages:    rt.pages,
					Health:   rt.health,
					Verifier: rt.verifier,
					Gatherer: rt.registry,
					Logger:   rt.logger,
				}),
				ReadTimeout:  rt.cfg.HTTP.ReadTimeout,
				WriteTimeout: rt.cfg.HTTP.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			rt.logger.Info(ctx, "listening", observe.Field{Key: "addr", Value: srv.Addr})

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rt.cfg.HTTP.ShutdownTimeout)
			defer cancel()
			rt.logger.Info(shutdownCtx, "shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// refreshDNS keeps the fetcher's DNS cache fresh while the server runs.
func refreshDNS(ctx context.Context, rt *runtime) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rt.resolver.Refresh(true)
		}
	}
}

// parseValue converts text to a cache.Value of the named type.
func parseValue(typ, text string) (cache.Value, error) {
	switch typ {
	case "string":
		return cache.String(text), nil
	case "bytes":
		return cache.Bytes([]byte(text)), nil
	case "int":
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return cache.Value{}, fmt.Errorf("invalid int %q", text)
		}
		return cache.Int(i), nil
	case "float":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return cache.Value{}, fmt.Errorf("invalid float %q", text)
		}
		return cache.Float(f), nil
	default:
		return cache.Value{}, fmt.Errorf("unknown type %q (want string, bytes, int or float)", typ)
	}
}

func (a *App) newStoreCmd() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "store VALUE...",
		Short: "Store values and print their keys",
		Long: `Store each VALUE under a new key and print the keys, one per line.
Unlike the cache constructor in library use, this command never flushes
the store.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := a.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			c, err := rt.newCache(ctx, new(bool))
			if err != nil {
				return err
			}
			for _, arg := range args {
				v, err := parseValue(typ, arg)
				if err != nil {
					return err
				}
				key, err := c.Store(ctx, v)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, key)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "string", "value type: string, bytes, int or float")
	return cmd
}

func (a *App) newGetCmd() *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := a.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			c, err := rt.newCache(ctx, new(bool))
			if err != nil {
				return err
			}

			var (
				out   any
				found bool
			)
			switch as {
			case "bytes":
				raw, found, err := cache.GetAs(ctx, c, args[0], cache.DecodeBytes)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("key %s not found", args[0])
				}
				_, err = a.stdout.Write(raw)
				return err
			case "string":
				out, found, err = c.GetString(ctx, args[0])
			case "int":
				out, found, err = c.GetInt(ctx, args[0])
			case "float":
				out, found, err = c.GetFloat(ctx, args[0])
			default:
				return fmt.Errorf("unknown type %q", as)
			}
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("key %s not found", args[0])
			}
			_, err = fmt.Fprintln(a.stdout, out)
			return err
		},
	}
	cmd.Flags().StringVar(&as, "as", "string", "decode as string, bytes (raw, no newline), int or float")
	return cmd
}

func (a *App) newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay [OPERATION]",
		Short: "Print the recorded call history of an operation",
		Long:  "Print how many times OPERATION (default Cache.store) was called and every recorded call.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := a.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			name := rt.cfg.Cache.OperationName
			if len(args) == 1 {
				name = args[0]
			}
			return replay.Replay(ctx, a.stdout, name, rt.store)
		},
	}
}

func (a *App) newFetchCmd() *cobra.Command {
	var showCount bool
	cmd := &cobra.Command{
		Use:   "fetch URL...",
		Short: "Fetch pages through the expiring page cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := a.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			for _, u := range args {
				body, err := rt.pages.Get(ctx, u)
				if err != nil {
					return err
				}
				if showCount {
					n, err := rt.pages.AccessCount(ctx, u)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.stdout, "%s accessed %d times\n", u, n)
					continue
				}
				fmt.Fprintln(a.stdout, body)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showCount, "count", false, "print access counts instead of bodies")
	return cmd
}

func (a *App) newTokenCmd() *cobra.Command {
	var (
		subject string
		scopes  []string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with the configured key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			v, err := auth.NewVerifier(cfg.Auth.JWT)
			if err != nil {
				return err
			}
			token, err := v.Issue(subject, scopes, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "kvops-cli", "token subject")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{httpapi.ScopeRead, httpapi.ScopeWrite}, "granted scopes")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func (a *App) newDemoCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Store sample values, replay them and fetch a page twice",
		Long: `Run the end-to-end walkthrough: flush the store, store "foo", "bar" and 42,
read them back typed, replay Cache.store, then fetch a page twice to show the
second request being served from cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := a.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)
			return runDemo(ctx, a, rt, url)
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "page to fetch twice (skipped when empty)")
	return cmd
}

func runDemo(ctx context.Context, a *App, rt *runtime, url string) error {
	flush := true
	c, err := rt.newCache(ctx, &flush)
	if err != nil {
		return err
	}

	samples := []cache.Value{cache.String("foo"), cache.String("bar"), cache.Int(42)}
	keys := make([]string, 0, len(samples))
	for _, v := range samples {
		key, err := c.Store(ctx, v)
		if err != nil {
			return err
		}
		keys = append(keys, key)
		fmt.Fprintf(a.stdout, "stored %s -> %s\n", v.Repr(), key)
	}

	s, _, err := c.GetString(ctx, keys[0])
	if err != nil {
		return err
	}
	n, _, err := c.GetInt(ctx, keys[2])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "get_str -> %q, get_int -> %d\n", s, n)

	if err := replay.Replay(ctx, a.stdout, c.OperationName(), c.Backend()); err != nil {
		return err
	}

	if strings.TrimSpace(url) == "" {
		return nil
	}
	for range 2 {
		body, err := rt.pages.Get(ctx, url)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "fetched %s (%d bytes)\n", url, len(body))
	}
	count, err := rt.pages.AccessCount(ctx, url)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s accessed %d times\n", url, count)
	return nil
}
