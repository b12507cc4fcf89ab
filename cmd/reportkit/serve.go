package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/reportkit-dev/reportkit/pkg/dataset"
	"github.com/reportkit-dev/reportkit/pkg/live"
	"github.com/reportkit-dev/reportkit/pkg/middleware"
	"github.com/reportkit-dev/reportkit/pkg/report"
	"github.com/reportkit-dev/reportkit/pkg/reporthttp"
)

func serveCmd() *cobra.Command {
	var (
		addr     string
		dataKey  string
		s3Bucket string
		s3Key    string
		s3Region string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a report server",
		Long: `Serve a report dataset over HTTP: a JSON report endpoint under
/api/report, a WebSocket live session under /live and Prometheus
metrics under /metrics.

Without flags the builtin student roster is served. With --s3-bucket
and --s3-key the dataset document is loaded anonymously from S3.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default().With("component", "serve")

			ds, err := loadDataset(cmd.Context(), dataKey, s3Bucket, s3Key, s3Region)
			if err != nil {
				return err
			}

			var provider report.Provider = ds
			provider = middleware.OpenTelemetry()(provider)
			provider = middleware.Prometheus()(provider)

			allowed := filterableKeys(ds)

			r := chi.NewRouter()
			r.Use(chimw.RequestID)
			r.Use(chimw.Logger)
			r.Use(chimw.Recoverer)

			r.Mount("/api", reporthttp.Routes(reporthttp.HandlerConfig{
				Provider:          provider,
				DataKey:           dataKey,
				AllowedFilterKeys: allowed,
			}))

			liveServer := live.NewServer(live.Config{
				Provider:          provider,
				AllowedFilterKeys: allowed,
				Options:           ds,
			})
			r.Get("/live", liveServer.HandleWebSocket)

			r.Handle("/metrics", promhttp.Handler())

			srv := &http.Server{
				Addr:              addr,
				Handler:           r,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", addr, "rows", ds.Len())
				errCh <- srv.ListenAndServe()
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				logger.Info("shutting down", "signal", sig.String())
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&dataKey, "data-key", "rows", "response field holding the row array")
	cmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "S3 bucket holding the dataset document")
	cmd.Flags().StringVar(&s3Key, "s3-key", "", "S3 object key of the dataset document")
	cmd.Flags().StringVar(&s3Region, "s3-region", "us-east-1", "S3 region")
	return cmd
}

func loadDataset(ctx context.Context, dataKey, bucket, key, region string) (*dataset.Dataset, error) {
	if bucket == "" {
		return dataset.Students(), nil
	}
	if key == "" {
		return nil, fmt.Errorf("--s3-key is required with --s3-bucket")
	}
	client := awss3.New(awss3.Options{
		Region:      region,
		Credentials: aws.AnonymousCredentials{},
	})
	return dataset.LoadS3(ctx, client, bucket, key, dataKey)
}

// filterableKeys exposes every non-identifying column as a filter. The
// first column is treated as the record label (name-like) and skipped.
func filterableKeys(ds *dataset.Dataset) []string {
	res, err := ds.GetReport(context.Background(), report.Params{Page: 1, Limit: 1})
	if err != nil || len(res.Columns) <= 1 {
		return nil
	}
	keys := make([]string, 0, len(res.Columns)-1)
	for _, c := range res.Columns[1:] {
		keys = append(keys, c.Key)
	}
	return keys
}
