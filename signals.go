package sieve

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for processor events.
var (
	SignalProcessorCreated   = capitan.NewSignal("sieve.processor.created", "Processor instantiated")
	SignalDecodeStart        = capitan.NewSignal("sieve.decode.start", "Decode operation beginning")
	SignalDecodeComplete     = capitan.NewSignal("sieve.decode.complete", "Decode operation finished")
	SignalEncodeStart        = capitan.NewSignal("sieve.encode.start", "Encode operation beginning")
	SignalEncodeComplete     = capitan.NewSignal("sieve.encode.complete", "Encode operation finished")
	SignalConstraintViolated = capitan.NewSignal("sieve.constraint.violated", "Value rejected by a constraint")
)

// Keys for typed event data.
var (
	KeyContentType = capitan.NewStringKey("content_type")
	KeyTypeName    = capitan.NewStringKey("type_name")
	KeySize        = capitan.NewIntKey("size")
	KeyDuration    = capitan.NewDurationKey("duration")
	KeyError       = capitan.NewErrorKey("error")
	KeyPath        = capitan.NewStringKey("path")
	KeyConstraint  = capitan.NewStringKey("constraint")
)

// emitProcessorCreated emits an event when a processor is created.
func emitProcessorCreated(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalProcessorCreated,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitDecodeStart emits an event when decode begins.
func emitDecodeStart(ctx context.Context, contentType, typeName string, size int) {
	capitan.Emit(ctx, SignalDecodeStart,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
	)
}

// emitDecodeComplete emits an event when decode finishes.
func emitDecodeComplete(ctx context.Context, contentType, typeName string, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalDecodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalDecodeComplete, fields...)
	}
}

// emitEncodeStart emits an event when encode begins.
func emitEncodeStart(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalEncodeStart,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitEncodeComplete emits an event when encode finishes.
func emitEncodeComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalEncodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalEncodeComplete, fields...)
	}
}

// emitConstraintViolated emits an event when a value fails its constraint.
func emitConstraintViolated(ctx context.Context, contentType, typeName string, v *ConstraintViolation) {
	capitan.Error(ctx, SignalConstraintViolated,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeyPath.Field(v.Path.String()),
		KeyConstraint.Field(string(v.Kind)),
		KeyError.Field(v),
	)
}
