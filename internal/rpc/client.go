// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"tenantforge/cli/internal/connspec"
	"tenantforge/cli/internal/sqlexec"
)

// Client calls a remote SQLExecutor. It implements Runner.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a server at addr. Extra options are appended after the
// default plaintext transport.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Run sends one invocation to the server.
func (c *Client) Run(ctx context.Context, sql string, inputs []connspec.Input) (*sqlexec.Report, error) {
	in, err := EncodeRequest(sqlexec.Request{SQL: sql, Connections: inputs})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, executeSQLMethod, in, out); err != nil {
		return nil, err
	}
	return DecodeReport(out)
}
