package middleware

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"dinnerd/internal/application/quota"
	"dinnerd/internal/infrastructure/auth"
	"dinnerd/internal/infrastructure/repository"
	"dinnerd/internal/shared/constants"
	"dinnerd/internal/shared/logger"
	"dinnerd/internal/shared/utils"
)

// GateMiddleware meters and authenticates every inbound request before it
// reaches a handler. Per request it strips the credentials and access-key
// headers, charges the key's access plan, verifies HTTP Basic credentials
// against the stored digest and forwards the resolved requester identity in
// a header only the gate itself may set.
type GateMiddleware struct {
	quota  *quota.Service
	people repository.PersonRepository
	logger logger.Interface
}

func NewGateMiddleware(quotaService *quota.Service, people repository.PersonRepository, log logger.Interface) *GateMiddleware {
	return &GateMiddleware{
		quota:  quotaService,
		people: people,
		logger: log,
	}
}

func (m *GateMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		// The resolved-identity header is gate-internal. A client
		// supplying it is spoofing and gets no further processing.
		if c.GetHeader(constants.HeaderRequesterIdentity) != "" {
			utils.ErrorResponse(c, http.StatusBadRequest, "reserved header supplied by client")
			c.Abort()
			return
		}

		// Remove the raw credentials before any handler can see them.
		credentials := c.GetHeader(constants.HeaderAuthorization)
		accessKey := c.GetHeader(constants.HeaderAccessKey)
		c.Request.Header.Del(constants.HeaderAuthorization)
		c.Request.Header.Del(constants.HeaderAccessKey)

		if isPublicRequest(c.Request.Method, c.Request.URL.Path) {
			c.Next()
			return
		}

		if _, err := m.quota.Admit(c.Request.Context(), accessKey); err != nil {
			utils.ErrorResponseWithError(c, err)
			c.Abort()
			return
		}

		// Account self-registration is quota-metered but needs no
		// existing credentials.
		if isRegistration(c.Request.Method, c.Request.URL.Path) {
			c.Next()
			return
		}

		payload, ok := strings.CutPrefix(credentials, "Basic ")
		if credentials == "" || !ok {
			m.challenge(c)
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "malformed credentials encoding")
			c.Abort()
			return
		}

		identifier, secret, found := strings.Cut(string(decoded), ":")
		if !found {
			utils.ErrorResponse(c, http.StatusBadRequest, "malformed credentials encoding")
			c.Abort()
			return
		}

		person, err := m.people.GetByEmail(c.Request.Context(), identifier)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to resolve requester")
			c.Abort()
			return
		}
		if person == nil || !auth.VerifySecret(secret, person.PasswordHash) {
			m.logger.Warnw("credential verification failed", "identifier", identifier)
			m.challenge(c)
			return
		}

		c.Request.Header.Set(constants.HeaderRequesterIdentity, strconv.FormatUint(uint64(person.ID), 10))
		c.Next()
	}
}

// challenge aborts with 401 and the Basic authentication challenge. The
// response never reveals whether the identifier or the secret was wrong.
func (m *GateMiddleware) challenge(c *gin.Context) {
	c.Header(constants.HeaderAuthenticate, `Basic realm="dinnerd"`)
	utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
	c.Abort()
}

// isPublicRequest reports whether the request bypasses the gate entirely:
// CORS preflights always, and read-only fetches of the discovery document
// or of publicly served documents (avatar images embedded in third-party
// pages carry no credentials).
func isPublicRequest(method, path string) bool {
	if method == http.MethodOptions {
		return true
	}
	if method != http.MethodGet && method != http.MethodHead {
		return false
	}
	relative := strings.TrimPrefix(path, "/")
	return relative == constants.DiscoveryDocumentPath ||
		strings.HasPrefix(relative, constants.PublicDocumentPrefix)
}

// isRegistration reports whether the request creates a new account, which
// passes the gate without existing credentials.
func isRegistration(method, path string) bool {
	return method == http.MethodPost &&
		strings.TrimPrefix(path, "/") == constants.RegistrationPath
}
