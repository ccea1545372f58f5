// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package rpc exposes the executor over gRPC.
//
// The service is tenantforge.v1.SQLExecutor with a single unary method,
// ExecuteSQL. Requests and responses travel as google.protobuf.Struct values
// carrying the same JSON shapes the HTTP API uses, so no generated stubs are
// needed on either side.
package rpc

import (
	"context"
	"time"

	"github.com/hako/durafmt"
	"github.com/pterm/pterm"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"tenantforge/cli/internal/connspec"
	"tenantforge/cli/internal/logging"
	"tenantforge/cli/internal/sqlexec"
)

const (
	ServiceName      = "tenantforge.v1.SQLExecutor"
	executeSQLMethod = "/" + ServiceName + "/ExecuteSQL"
)

// Runner executes one invocation. *sqlexec.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, sql string, inputs []connspec.Input) (*sqlexec.Report, error)
}

type executorServer interface {
	ExecuteSQL(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*executorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExecuteSQL", Handler: executeSQLHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tenantforge/v1/executor.proto",
}

func executeSQLHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(executorServer).ExecuteSQL(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: executeSQLMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(executorServer).ExecuteSQL(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Server implements the SQLExecutor service.
type Server struct {
	runner Runner
	logger *pterm.Logger
}

// NewServer creates a Server backed by runner.
func NewServer(runner Runner, logger *pterm.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{runner: runner, logger: logger}
}

// Register attaches the service to g.
func (s *Server) Register(g grpc.ServiceRegistrar) {
	g.RegisterService(&serviceDesc, s)
}

// ExecuteSQL runs one invocation. Malformed payloads and malformed
// invocations fail with InvalidArgument; tenant failures are results.
func (s *Server) ExecuteSQL(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := DecodeRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}

	// a dropped client does not abort tenants mid-script
	report, err := s.runner.Run(context.WithoutCancel(ctx), req.SQL, req.Connections)
	if err != nil {
		if sqlexec.IsInvocationError(err) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.logger.Error("execute failed", s.logger.Args("error", logging.Mask(err.Error())))
		return nil, status.Error(codes.Internal, logging.Mask(err.Error()))
	}

	out, err := EncodeReport(report)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode report: %v", err)
	}
	return out, nil
}

// UnaryLogger logs every call with its status code and duration.
func UnaryLogger(logger *pterm.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("rpc", logger.Args(
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"elapsed", durafmt.ParseShort(time.Since(start)).String()))
		return resp, err
	}
}
