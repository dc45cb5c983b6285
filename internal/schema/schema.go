// Package schema holds the protobuf descriptors shared by the snapshot
// codec and the gRPC service. The file descriptor is assembled at init so
// messages are handled through dynamicpb without generated code.
//
// Equivalent .proto:
//
//	syntax = "proto3";
//	package rpkv.v1;
//
//	message Snapshot { map<string, string> entries = 1; }
//
//	message PutRequest  { string key = 1; string value = 2; }
//	message PutResponse {}
//	message GetRequest  { string key = 1; }
//	message GetResponse { string value = 1; bool found = 2; }
//	message PathRequest {}
//	message PathResponse { string path = 1; }
//
//	service KeyValue {
//	  rpc Put(PutRequest) returns (PutResponse);
//	  rpc Get(GetRequest) returns (GetResponse);
//	  rpc Path(PathRequest) returns (PathResponse);
//	}
package schema

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	FileName    = "rpkv/v1/rpkv.proto"
	Package     = "rpkv.v1"
	ServiceName = Package + ".KeyValue"
)

var (
	Snapshot     protoreflect.MessageDescriptor
	PutRequest   protoreflect.MessageDescriptor
	PutResponse  protoreflect.MessageDescriptor
	GetRequest   protoreflect.MessageDescriptor
	GetResponse  protoreflect.MessageDescriptor
	PathRequest  protoreflect.MessageDescriptor
	PathResponse protoreflect.MessageDescriptor

	// SnapshotEntries is the map<string, string> field of Snapshot.
	SnapshotEntries protoreflect.FieldDescriptor
)

func init() {
	fd, err := protodesc.NewFile(fileDescriptor(), new(protoregistry.Files))
	if err != nil {
		panic(fmt.Sprintf("schema: build %s: %v", FileName, err))
	}

	msgs := fd.Messages()
	Snapshot = msgs.ByName("Snapshot")
	PutRequest = msgs.ByName("PutRequest")
	PutResponse = msgs.ByName("PutResponse")
	GetRequest = msgs.ByName("GetRequest")
	GetResponse = msgs.ByName("GetResponse")
	PathRequest = msgs.ByName("PathRequest")
	PathResponse = msgs.ByName("PathResponse")

	SnapshotEntries = Snapshot.Fields().ByName("entries")
}

// New returns an empty dynamic message of the given type.
func New(md protoreflect.MessageDescriptor) *dynamicpb.Message {
	return dynamicpb.NewMessage(md)
}

// GetString reads a string field by name.
func GetString(m protoreflect.ProtoMessage, name protoreflect.Name) string {
	r := m.ProtoReflect()
	return r.Get(r.Descriptor().Fields().ByName(name)).String()
}

// SetString writes a string field by name.
func SetString(m protoreflect.ProtoMessage, name protoreflect.Name, v string) {
	r := m.ProtoReflect()
	r.Set(r.Descriptor().Fields().ByName(name), protoreflect.ValueOfString(v))
}

// GetBool reads a bool field by name.
func GetBool(m protoreflect.ProtoMessage, name protoreflect.Name) bool {
	r := m.ProtoReflect()
	return r.Get(r.Descriptor().Fields().ByName(name)).Bool()
}

// SetBool writes a bool field by name.
func SetBool(m protoreflect.ProtoMessage, name protoreflect.Name, v bool) {
	r := m.ProtoReflect()
	r.Set(r.Descriptor().Fields().ByName(name), protoreflect.ValueOfBool(v))
}

func fileDescriptor() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(FileName),
		Package: proto.String(Package),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Snapshot"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name:     proto.String("entries"),
						Number:   proto.Int32(1),
						Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
						Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
						TypeName: proto.String("." + Package + ".Snapshot.EntriesEntry"),
					},
				},
				NestedType: []*descriptorpb.DescriptorProto{
					{
						Name: proto.String("EntriesEntry"),
						Field: []*descriptorpb.FieldDescriptorProto{
							stringField("key", 1),
							stringField("value", 2),
						},
						Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
					},
				},
			},
			message("PutRequest", stringField("key", 1), stringField("value", 2)),
			message("PutResponse"),
			message("GetRequest", stringField("key", 1)),
			message("GetResponse", stringField("value", 1), boolField("found", 2)),
			message("PathRequest"),
			message("PathResponse", stringField("path", 1)),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{
			{
				Name: proto.String("KeyValue"),
				Method: []*descriptorpb.MethodDescriptorProto{
					method("Put"),
					method("Get"),
					method("Path"),
				},
			},
		},
	}
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func stringField(name string, number int32) *descriptorpb.FieldDescriptorProto {
	return scalarField(name, number, descriptorpb.FieldDescriptorProto_TYPE_STRING)
}

func boolField(name string, number int32) *descriptorpb.FieldDescriptorProto {
	return scalarField(name, number, descriptorpb.FieldDescriptorProto_TYPE_BOOL)
}

func scalarField(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func method(name string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String("." + Package + "." + name + "Request"),
		OutputType: proto.String("." + Package + "." + name + "Response"),
	}
}
