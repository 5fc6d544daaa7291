package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/dandihub/dandinotes/client"
	"github.com/dandihub/dandinotes/internal/config"
	"github.com/dandihub/dandinotes/internal/infrastructure/providers"
	"github.com/dandihub/dandinotes/internal/present/rest"
	"github.com/dandihub/dandinotes/internal/present/rest/middleware"
	"github.com/dandihub/dandinotes/internal/present/web"
	"github.com/dandihub/dandinotes/internal/service"
	"github.com/dandihub/dandinotes/internal/usecase"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dandinotes",
	Short: "Annotation service for external resources referencing dandisets",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web service",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		conf, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		if conf.Server.EnableTrace {
			cleanup, err := setupTracer(cmd.Context(), conf.Server.TraceEndpoint)
			if err != nil {
				return fmt.Errorf("initializing tracer: %w", err)
			}
			defer cleanup()
		}

		repo, err := providers.NewRepository(conf.Server)
		if err != nil {
			return fmt.Errorf("opening submission store: %w", err)
		}

		mc := providers.NewMemcache(conf.Server)
		sessions := providers.NewSessionStore(conf.Server)
		auth := service.NewAuthService(conf.Server.ModeratorsPath, conf.Server.UsersPath)

		resourceUC := usecase.NewResourceUsecase(repo)
		dandisetUC := usecase.NewDandisetUsecase(repo)
		statsUC := usecase.NewStatsUsecase(repo, mc)

		guard := middleware.NewAuthMiddleware(sessions)

		e := echo.New()
		e.HideBanner = true
		e.HTTPErrorHandler = rest.ErrorHandler
		e.Use(echomiddleware.Logger())
		e.Use(echomiddleware.Recover())
		e.Use(echomiddleware.CORS())
		if conf.Server.EnableTrace {
			e.Use(otelecho.Middleware("dandinotes"))
		}
		e.Use(guard.IdentifySession)

		renderer, err := web.NewRenderer(conf.Server.TemplatesGlob)
		if err != nil {
			return fmt.Errorf("parsing templates: %w", err)
		}
		e.Renderer = renderer

		rest.NewHandler(conf, resourceUC, dandisetUC, statsUC, auth, sessions).RegisterRoutes(e, guard)
		web.NewHandler(conf, dandisetUC, resourceUC, statsUC).RegisterRoutes(e)

		slog.Info(
			"Starting server",
			slog.String("listen", conf.Server.Listen),
			slog.String("module", "main"),
		)
		return e.Start(conf.Server.Listen)
	},
}

var moderatorCmd = &cobra.Command{
	Use:   "moderator",
	Short: "Manage moderator accounts",
}

var moderatorAddCmd = &cobra.Command{
	Use:   "add USERNAME",
	Short: "Add a moderator account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		conf, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		password, _ := cmd.Flags().GetString("password")
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		if password == "" {
			return fmt.Errorf("--password is required")
		}

		auth := service.NewAuthService(conf.Server.ModeratorsPath, conf.Server.UsersPath)
		if err := auth.AddModerator(cmd.Context(), args[0], password, name, email); err != nil {
			return fmt.Errorf("adding moderator: %w", err)
		}

		fmt.Printf("Moderator %s added\n", args[0])
		return nil
	},
}

// submitFile is the YAML shape accepted by the submit command.
type submitFile struct {
	ResourceName          string `yaml:"resource_name"`
	ResourceURL           string `yaml:"resource_url"`
	ResourceIdentifier    string `yaml:"resource_identifier"`
	Repository            string `yaml:"repository"`
	Relation              string `yaml:"relation"`
	ResourceType          string `yaml:"resource_type"`
	ContributorName       string `yaml:"contributor_name"`
	ContributorEmail      string `yaml:"contributor_email"`
	ContributorIdentifier string `yaml:"contributor_identifier"`
	ContributorURL        string `yaml:"contributor_url"`
}

var submitCmd = &cobra.Command{
	Use:   "submit DANDISET_ID FILE",
	Short: "Submit an annotation from a YAML file to a running server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		server, _ := cmd.Flags().GetString("server")

		raw, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[1], err)
		}
		var file submitFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return fmt.Errorf("parsing %s: %w", args[1], err)
		}

		cl, err := client.New(server)
		if err != nil {
			return err
		}

		res, err := cl.Submit(cmd.Context(), args[0], client.SubmitRequest{
			ResourceName:          file.ResourceName,
			ResourceURL:           file.ResourceURL,
			ResourceIdentifier:    file.ResourceIdentifier,
			Repository:            file.Repository,
			Relation:              file.Relation,
			ResourceType:          file.ResourceType,
			ContributorName:       file.ContributorName,
			ContributorEmail:      file.ContributorEmail,
			ContributorIdentifier: file.ContributorIdentifier,
			ContributorURL:        file.ContributorURL,
		})
		if err != nil {
			return fmt.Errorf("submitting: %w", err)
		}

		fmt.Printf("Submitted %s (%s)\n", res.ID, res.Status)
		return nil
	},
}

func setupTracer(ctx context.Context, endpoint string) (func(), error) {
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("dandinotes"),
		)),
	)
	otel.SetTracerProvider(tp)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			slog.Error(
				"Failed to shut down tracer",
				slog.String("error", err.Error()),
				slog.String("module", "main"),
			)
		}
	}, nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.yaml", "Path to the config file")

	moderatorCmd.AddCommand(moderatorAddCmd)
	moderatorAddCmd.Flags().String("password", "", "Password for the new moderator")
	moderatorAddCmd.Flags().String("name", "", "Display name")
	moderatorAddCmd.Flags().String("email", "", "Contact email")

	submitCmd.Flags().String("server", "http://localhost:8080", "Server base URL")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(moderatorCmd)
	rootCmd.AddCommand(submitCmd)
}
