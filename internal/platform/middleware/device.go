package middleware

import (
	"context"
	"net/http"

	"github.com/mssola/useragent"
)

// DeviceInfo is what we can tell about the reporting device from its
// User-Agent. Ingestion records it on samples for support and debugging.
type DeviceInfo struct {
	Platform string
	OS       string
	Mobile   bool
	Bot      bool
}

// DeviceMetadata parses the User-Agent header once per request and stores
// the result in context.
func DeviceMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := useragent.New(r.UserAgent())
		info := DeviceInfo{
			Platform: ua.Platform(),
			OS:       ua.OS(),
			Mobile:   ua.Mobile(),
			Bot:      ua.Bot(),
		}
		ctx := context.WithValue(r.Context(), ContextKeyDevice, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetDeviceInfo retrieves parsed device metadata from the context.
func GetDeviceInfo(ctx context.Context) DeviceInfo {
	info, ok := ctx.Value(ContextKeyDevice).(DeviceInfo)
	if !ok {
		return DeviceInfo{}
	}
	return info
}
