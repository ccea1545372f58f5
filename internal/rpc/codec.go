// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rpc

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"tenantforge/cli/internal/sqlexec"
)

// toStruct converts any JSON-encodable value into a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, errors.Wrap(err, "encode struct")
	}
	return out, nil
}

// fromStruct decodes a protobuf Struct into v through its JSON form.
// Unknown fields are rejected.
func fromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return errors.New("empty payload")
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "decode struct")
	}
	return decodeStrict(b, v)
}

func decodeStrict(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// EncodeRequest converts a request into its wire form.
func EncodeRequest(req sqlexec.Request) (*structpb.Struct, error) { return toStruct(req) }

// DecodeRequest parses the wire form of a request.
func DecodeRequest(s *structpb.Struct) (sqlexec.Request, error) {
	var req sqlexec.Request
	err := fromStruct(s, &req)
	return req, err
}

// EncodeReport converts a report into its wire form.
func EncodeReport(r *sqlexec.Report) (*structpb.Struct, error) { return toStruct(r) }

// DecodeReport parses the wire form of a report.
func DecodeReport(s *structpb.Struct) (*sqlexec.Report, error) {
	var r sqlexec.Report
	if err := fromStruct(s, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
