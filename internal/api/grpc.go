package api

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/heysubinoy/rpkv/internal/schema"
	"github.com/heysubinoy/rpkv/pkg/kv"
)

const (
	putMethod  = "/" + schema.ServiceName + "/Put"
	getMethod  = "/" + schema.ServiceName + "/Get"
	pathMethod = "/" + schema.ServiceName + "/Path"
)

// KeyValueServer is the server API for the rpkv.v1.KeyValue service.
type KeyValueServer interface {
	Put(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error)
	Get(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error)
	Path(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error)
	mustEmbedUnimplementedKeyValueServer()
}

// UnimplementedKeyValueServer must be embedded by KeyValueServer
// implementations so that methods added to the service later fail with
// codes.Unimplemented instead of breaking the build.
type UnimplementedKeyValueServer struct{}

func (UnimplementedKeyValueServer) Put(context.Context, *dynamicpb.Message) (*dynamicpb.Message, error) {
	return nil, status.Error(codes.Unimplemented, "method Put not implemented")
}

func (UnimplementedKeyValueServer) Get(context.Context, *dynamicpb.Message) (*dynamicpb.Message, error) {
	return nil, status.Error(codes.Unimplemented, "method Get not implemented")
}

func (UnimplementedKeyValueServer) Path(context.Context, *dynamicpb.Message) (*dynamicpb.Message, error) {
	return nil, status.Error(codes.Unimplemented, "method Path not implemented")
}

func (UnimplementedKeyValueServer) mustEmbedUnimplementedKeyValueServer() {}

// GRPCServer implements KeyValueServer on top of a kv.Store.
type GRPCServer struct {
	UnimplementedKeyValueServer
	Store kv.Store
	Log   zerolog.Logger
}

var _ KeyValueServer = (*GRPCServer)(nil)

// NewGRPCServer creates a new gRPC server with the given store.
func NewGRPCServer(store kv.Store, log zerolog.Logger) *GRPCServer {
	return &GRPCServer{
		Store: store,
		Log:   log,
	}
}

// RegisterKeyValueServer registers srv on s.
func RegisterKeyValueServer(s grpc.ServiceRegistrar, srv KeyValueServer) {
	s.RegisterService(&keyValueServiceDesc, srv)
}

// Put stores a key-value pair. Empty keys and values are accepted.
func (s *GRPCServer) Put(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error) {
	key := schema.GetString(req, "key")
	if err := s.Store.Put(key, schema.GetString(req, "value")); err != nil {
		return nil, s.toStatus("put", key, err)
	}
	return schema.New(schema.PutResponse), nil
}

// Get retrieves a value by key. Absence is reported through found.
func (s *GRPCServer) Get(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error) {
	key := schema.GetString(req, "key")
	value, found, err := s.Store.Get(key)
	if err != nil {
		return nil, s.toStatus("get", key, err)
	}

	resp := schema.New(schema.GetResponse)
	schema.SetString(resp, "value", value)
	schema.SetBool(resp, "found", found)
	return resp, nil
}

// Path returns the storage location.
func (s *GRPCServer) Path(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error) {
	resp := schema.New(schema.PathResponse)
	schema.SetString(resp, "path", s.Store.Path())
	return resp, nil
}

func (s *GRPCServer) toStatus(op, key string, err error) error {
	if errors.Is(err, kv.ErrEncoding) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	s.Log.Error().Err(err).Str("op", op).Str("key", key).Msg("store operation failed")
	return status.Errorf(codes.Internal, "failed to %s key", op)
}

var keyValueServiceDesc = grpc.ServiceDesc{
	ServiceName: schema.ServiceName,
	HandlerType: (*KeyValueServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Put", Handler: unaryHandler(putMethod, schema.PutRequest, KeyValueServer.Put)},
		{MethodName: "Get", Handler: unaryHandler(getMethod, schema.GetRequest, KeyValueServer.Get)},
		{MethodName: "Path", Handler: unaryHandler(pathMethod, schema.PathRequest, KeyValueServer.Path)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: schema.FileName,
}

type unaryMethod func(KeyValueServer, context.Context, *dynamicpb.Message) (*dynamicpb.Message, error)

// unaryHandler adapts a KeyValueServer method to grpc.MethodHandler,
// decoding the request into a dynamic message of the given type.
func unaryHandler(fullMethod string, in protoreflect.MessageDescriptor, call unaryMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := schema.New(in)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(KeyValueServer), ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(KeyValueServer), ctx, req.(*dynamicpb.Message))
		}
		return interceptor(ctx, req, info, handler)
	}
}
