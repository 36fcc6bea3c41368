package logging

import (
	"github.com/rs/zerolog"
)

// ContextHook adds request_id and remote_addr to events logged with Ctx
// inside an HTTP request.
type ContextHook struct{}

func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	req, ok := RequestFrom(ctx)
	if !ok {
		return
	}
	if req.ID != "" {
		e.Str("request_id", req.ID)
	}
	if req.RemoteAddr != "" {
		e.Str("remote_addr", req.RemoteAddr)
	}
}
