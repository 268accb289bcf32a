package response

import (
	"net/http"

	pkgctx "github.com/baechuer/account-service/internal/pkg/context"
)

func RequestIDFromContext(r *http.Request) string {
	return pkgctx.GetRequestID(r.Context())
}
