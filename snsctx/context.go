// Package snsctx carries per-invocation options, like verbose transaction dumps, through a context.
package snsctx

import (
	"context"
	"encoding/hex"
)

type ctxIndex int

const ctxIndexVerbose ctxIndex = iota

func IsVerbose(ctx context.Context) bool {
	val := ctx.Value(ctxIndexVerbose)
	if val == nil {
		return false
	}
	return val.(bool)
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// Hex formats a transfer buffer for transaction dumps; nil and empty buffers print as "-".
func Hex(buf []byte) string {
	if len(buf) == 0 {
		return "-"
	}
	return hex.EncodeToString(buf)
}
