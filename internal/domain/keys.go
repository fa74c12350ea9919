package domain

type CtxKey string

const (
	KeyCaller    CtxKey = "Caller"
	KeyRequestID CtxKey = "RequestID"
	KeyClientIP  CtxKey = "ClientIP"
)
