package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/brightforge/portal/internal/audit"
	"github.com/brightforge/portal/internal/auth"
	"github.com/brightforge/portal/internal/config"
	"github.com/brightforge/portal/internal/email"
	"github.com/brightforge/portal/internal/freshbooks"
	"github.com/brightforge/portal/internal/httpx/handlers"
	"github.com/brightforge/portal/internal/httpx/router"
	"github.com/brightforge/portal/internal/observability/logger"
	"github.com/brightforge/portal/internal/session"
	"github.com/brightforge/portal/internal/store/core"
	"github.com/brightforge/portal/internal/store/memory"
	"github.com/brightforge/portal/internal/store/pg"
)

func main() {
	// .env es opcional; si no está, vale el environment del sistema.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:   "portal",
		Short: "Backend del portal de clientes",
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("PORTAL_CONFIG"), "ruta al YAML de configuración (opcional)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newMigrateCmd(&configPath))
	root.AddCommand(newSeedCmd(&configPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("config load: %w", err)
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "portal"})
			defer func() { _ = logger.Sync() }()
			log := logger.S()

			if config.SessionSecretGenerated {
				log.Warnw("session_secret_autogenerated",
					"detail", "sin SESSION_SECRET configurado; las sesiones no sobreviven un restart")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			repo, pool, err := buildRepository(ctx, cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			sessStore, err := buildSessionStore(cfg, pool)
			if err != nil {
				return err
			}
			sessions := session.NewManager(sessStore, session.CookieConfig{
				Name:     cfg.Session.CookieName,
				Domain:   cfg.Session.Domain,
				SameSite: cfg.Session.SameSite,
				Secure:   cfg.Session.Secure,
			}, cfg.SessionTTL())

			deps := handlers.Deps{
				Repo:     repo,
				Auth:     auth.NewService(repo),
				Sessions: sessions,
				Audit:    audit.NewRecorder(repo),
				Freshbooks: freshbooks.New(freshbooks.Config{
					ClientID:     cfg.Freshbooks.ClientID,
					ClientSecret: cfg.Freshbooks.ClientSecret,
					RedirectURI:  cfg.Freshbooks.RedirectURI,
					BaseURL:      cfg.Freshbooks.BaseURL,
					AuthURL:      cfg.Freshbooks.AuthURL,
				}, repo),
				Email: email.New(email.Config{
					Host:     cfg.SMTP.Host,
					Port:     cfg.SMTP.Port,
					User:     cfg.SMTP.User,
					Pass:     cfg.SMTP.Pass,
					From:     cfg.SMTP.From,
					NotifyTo: cfg.SMTP.NotifyTo,
				}),
			}

			srv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      router.New(deps),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Infow("server_listening", "addr", cfg.Server.Addr, "storage", cfg.Storage.Driver, "session_store", cfg.Session.Store)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutCtx)
			})
			if err := g.Wait(); err != nil {
				return fmt.Errorf("server: %w", err)
			}
			log.Infow("server_stopped")
			return nil
		},
	}
}

// buildRepository arma el Repository según el driver. Devuelve también el
// pool de pg (si aplica) para reusarlo en el session store postgres.
func buildRepository(ctx context.Context, cfg *config.Config) (core.Repository, *pgxpool.Pool, error) {
	switch cfg.Storage.Driver {
	case "memory", "":
		return memory.New(), nil, nil
	case "postgres":
		st, err := pg.New(ctx, cfg.Storage.DSN, pg.Tuning{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("pg: %w", err)
		}
		return st, st.Pool(), nil
	default:
		return nil, nil, fmt.Errorf("storage driver desconocido: %q", cfg.Storage.Driver)
	}
}

func buildSessionStore(cfg *config.Config, pool *pgxpool.Pool) (session.Store, error) {
	switch cfg.Session.Store {
	case "memory", "":
		return session.NewMemory(cfg.SessionTTL()), nil
	case "redis":
		if cfg.Session.Redis.Addr == "" {
			return nil, errors.New("session store redis requiere session.redis.addr")
		}
		return session.NewRedis(cfg.Session.Redis.Addr, cfg.Session.Redis.DB), nil
	case "postgres":
		if pool == nil {
			return nil, errors.New("session store postgres requiere storage driver postgres")
		}
		return session.NewPostgres(pool), nil
	default:
		return nil, fmt.Errorf("session store desconocido: %q", cfg.Session.Store)
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Aplica las migraciones de postgres",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = strings.ToLower(args[0])
			}
			suffix := "_up.sql"
			if action == "down" {
				suffix = "_down.sql"
			} else if action != "up" {
				return fmt.Errorf("acción desconocida: %q", action)
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("config load: %w", err)
			}
			if cfg.Storage.DSN == "" {
				return errors.New("migrate requiere storage.dsn")
			}

			files, err := listSQL(dir, suffix)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("sin migraciones que aplicar")
				return nil
			}
			sort.Strings(files)
			if action == "down" {
				// down se aplica en orden inverso
				for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
					files[i], files[j] = files[j], files[i]
				}
			}

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("pgxpool: %w", err)
			}
			defer pool.Close()

			for _, f := range files {
				b, err := os.ReadFile(f)
				if err != nil {
					return err
				}
				if _, err := pool.Exec(ctx, string(b)); err != nil {
					return fmt.Errorf("exec %s: %w", f, err)
				}
				fmt.Printf("aplicada %s\n", filepath.Base(f))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations/postgres", "directorio con *_up.sql y *_down.sql")
	return cmd
}

func listSQL(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

func newSeedCmd(configPath *string) *cobra.Command {
	var (
		adminUser  string
		adminEmail string
		adminPass  string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Crea el usuario admin inicial y contenido base",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("config load: %w", err)
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "portal-seed"})

			if adminPass == "" {
				adminPass = os.Getenv("SEED_ADMIN_PASSWORD")
			}
			if adminPass == "" {
				return errors.New("falta el password del admin (--admin-pass o SEED_ADMIN_PASSWORD)")
			}

			ctx := cmd.Context()
			repo, _, err := buildRepository(ctx, cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			svc := auth.NewService(repo)
			u, err := svc.Register(ctx, auth.RegisterInput{
				Username: adminUser,
				Email:    adminEmail,
				Password: adminPass,
				Role:     core.RoleAdmin,
			})
			if err != nil {
				if errors.Is(err, core.ErrConflict) {
					fmt.Println("admin ya existe, nada que hacer")
					return nil
				}
				return err
			}
			fmt.Printf("admin creado: %s (%s)\n", u.Username, u.ID)

			blocks := []*core.ContentBlock{
				{Key: "home-hero", Title: "Bienvenido", Body: "Portal de clientes", SortOrder: 1},
				{Key: "services", Title: "Servicios", Body: "Qué hacemos", SortOrder: 2},
				{Key: "contact", Title: "Contacto", Body: "Escribinos", SortOrder: 3},
			}
			for _, b := range blocks {
				b.UpdatedBy = u.ID
				if err := repo.UpsertContentBlock(ctx, b); err != nil {
					return fmt.Errorf("seed content %s: %w", b.Key, err)
				}
			}
			fmt.Printf("%d bloques de contenido sembrados\n", len(blocks))
			return nil
		},
	}
	cmd.Flags().StringVar(&adminUser, "admin-user", "admin", "username del admin inicial")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@example.com", "email del admin inicial")
	cmd.Flags().StringVar(&adminPass, "admin-pass", "", "password del admin inicial (o SEED_ADMIN_PASSWORD)")
	return cmd
}
