// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"tenantforge/cli/internal/httpapi"
	"tenantforge/cli/internal/project"
	"tenantforge/cli/internal/rpc"
)

const shutdownGrace = 10 * time.Second

var (
	serveGRPCAddr    string
	serveHTTPAddr    string
	serveConcurrency int
)

// serveCmd exposes the executor over gRPC and, optionally, HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the executor over gRPC and HTTP",
	Long: `The serve command listens for ExecuteSQL calls on the gRPC address and, when
an HTTP address is configured, serves the JSON API with /execute and /projects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		grpcAddr := cfg.Server.GRPCAddr
		if serveGRPCAddr != "" {
			grpcAddr = serveGRPCAddr
		}
		httpAddr := cfg.Server.HTTPAddr
		if serveHTTPAddr != "" {
			httpAddr = serveHTTPAddr
		}

		orch, err := newOrchestrator(serveConcurrency)
		if err != nil {
			return err
		}

		var projects *project.Service
		if httpAddr != "" {
			if projects, err = openProjects(); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, ctx := errgroup.WithContext(ctx)

		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return err
		}
		gs := grpc.NewServer(grpc.UnaryInterceptor(rpc.UnaryLogger(logger)))
		rpc.NewServer(orch, logger).Register(gs)
		g.Go(func() error {
			logger.Info("grpc listening", logger.Args("addr", lis.Addr().String(), "service", rpc.ServiceName))
			return gs.Serve(lis)
		})
		g.Go(func() error {
			<-ctx.Done()
			gs.GracefulStop()
			return nil
		})

		if httpAddr != "" {
			gin.SetMode(gin.ReleaseMode)
			hs := &http.Server{
				Addr:              httpAddr,
				Handler:           httpapi.NewHandler(orch, projects, cfg.Store.UseKeychain, logger).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			g.Go(func() error {
				logger.Info("http listening", logger.Args("addr", httpAddr))
				if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
				defer cancel()
				return hs.Shutdown(sctx)
			})
		}

		err = g.Wait()
		logger.Info("server stopped")
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveGRPCAddr, "grpc-addr", "", "gRPC listen address (default from config)")
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http-addr", "", "HTTP listen address, empty disables HTTP (default from config)")
	serveCmd.Flags().IntVar(&serveConcurrency, "concurrency", 0, "Connections executed at once per invocation (default from config)")
}
