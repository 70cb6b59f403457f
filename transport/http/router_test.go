package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sphinx-bounties/auth/adapters/store"
	"github.com/sphinx-bounties/auth/adapters/tokenizer"
	"github.com/sphinx-bounties/auth/core"
	"github.com/sphinx-bounties/auth/gate"
	"github.com/sphinx-bounties/auth/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	ownerPubkey  = "02a1b2c3d4e5f60718293a4b5c6d7e8f9000112233445566778899aabbccddeeff"
	memberPubkey = "03a1b2c3d4e5f60718293a4b5c6d7e8f9000112233445566778899aabbccddeeff"
)

type nopPublisher struct{}

func (nopPublisher) PublishLogin(ctx context.Context, pubkey string) error  { return nil }
func (nopPublisher) PublishLogout(ctx context.Context, pubkey string) error { return nil }

type fixture struct {
	router *gin.Engine
	codec  *tokenizer.JWTCodec
	store  *store.MemoryStore
	svc    *service.AuthService
}

func newFixture(t *testing.T, devMode bool) *fixture {
	t.Helper()

	mem := store.NewMemoryStore()
	mem.PutWorkspace(&core.Workspace{ID: "ws1", Name: "Hunters", Budget: decimal.NewFromInt(5000)})
	mem.PutMember("ws1", ownerPubkey, core.RoleOwner)
	mem.PutMember("ws1", memberPubkey, core.RoleMember)

	codec := tokenizer.NewJWTCodec([]byte("transport-test-secret"), time.Hour).(*tokenizer.JWTCodec)
	svc := service.NewAuthService(mem, codec, nopPublisher{}, "bounties.example.com", 10*time.Minute)
	engine := gate.NewEngine(gate.NewClassifier(gate.DefaultTables()), codec, mem, []string{ownerPubkey}, gate.GateConfig{}, SessionCookieName)

	router := SetupRouter(RouterConfig{
		AuthService: svc,
		Members:     mem,
		Engine:      engine,
		Cookies:     NewCookieBinder(time.Hour, false),
		DevMode:     devMode,
	})

	return &fixture{router: router, codec: codec, store: mem, svc: svc}
}

func (f *fixture) do(t *testing.T, method, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) sessionCookie(t *testing.T, pubkey string) *http.Cookie {
	t.Helper()

	token, err := f.codec.Mint(pubkey)
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookieName, Value: token}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// walletSign signs the raw k1 bytes the way a Lightning wallet does.
func walletSign(t *testing.T, k1 string) (sigHex, pubkeyHex string) {
	t.Helper()

	k1Bytes, err := hex.DecodeString(k1)
	require.NoError(t, err)

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	sig := btcecdsa.Sign(priv, k1Bytes)
	return hex.EncodeToString(sig.Serialize()), hex.EncodeToString(priv.PubKey().SerializeCompressed())
}

func TestFullLoginFlow(t *testing.T) {
	f := newFixture(t, false)

	// Initiate login.
	w := f.do(t, http.MethodGet, "/auth/challenge")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	k1 := body["k1"].(string)
	assert.Len(t, k1, 64)
	assert.NotEmpty(t, body["challenge"])
	assert.Contains(t, body["deep_link"], k1)

	// Pending poll: not authenticated, no cookie.
	w = f.do(t, http.MethodGet, "/auth/poll/"+k1)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["authenticated"])
	assert.Empty(t, w.Result().Cookies())

	// Wallet callback.
	sig, pubkey := walletSign(t, k1)
	w = f.do(t, http.MethodGet, "/auth/verify?tag=login&k1="+k1+"&sig="+sig+"&key="+pubkey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", decodeBody(t, w)["status"])

	// Authenticated poll mints the session and sets the cookie.
	w = f.do(t, http.MethodGet, "/auth/poll/"+k1)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, pubkey, body["pubkey"])

	var sessionValue string
	for _, ck := range w.Result().Cookies() {
		if ck.Name == SessionCookieName {
			sessionValue = ck.Value
			assert.True(t, ck.HttpOnly)
			assert.Equal(t, "/", ck.Path)
			assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
		}
	}
	require.NotEmpty(t, sessionValue)

	// The cookie authenticates the session endpoint.
	w = f.do(t, http.MethodGet, "/auth/session", &http.Cookie{Name: SessionCookieName, Value: sessionValue})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["authenticated"])
}

func TestVerifyErrors(t *testing.T) {
	f := newFixture(t, false)

	// Unknown k1.
	w := f.do(t, http.MethodPost, "/auth/verify?k1=deadbeef&sig=00&key="+ownerPubkey)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Create a real challenge, then feed it garbage.
	challenge := decodeBody(t, f.do(t, http.MethodGet, "/auth/challenge"))
	k1 := challenge["k1"].(string)

	w = f.do(t, http.MethodGet, "/auth/verify?k1="+k1+"&sig=deadbeef&key="+ownerPubkey)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Complete it, then replay with a fresh valid signature.
	sig, pubkey := walletSign(t, k1)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/auth/verify?k1="+k1+"&sig="+sig+"&key="+pubkey).Code)

	sig2, pubkey2 := walletSign(t, k1)
	w = f.do(t, http.MethodGet, "/auth/verify?k1="+k1+"&sig="+sig2+"&key="+pubkey2)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPollUnknownAndExpired(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(t, http.MethodGet, "/auth/poll/deadbeef")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Force an expired challenge into the store.
	expired := &core.Challenge{
		K1:        strings.Repeat("ab", 32),
		CreatedAt: time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(-50 * time.Minute),
	}
	require.NoError(t, f.store.Save(context.Background(), expired))

	w = f.do(t, http.MethodGet, "/auth/poll/"+expired.K1)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionEndpointUnauthenticated(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(t, http.MethodGet, "/auth/session")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/auth/session", &http.Cookie{Name: SessionCookieName, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(t, http.MethodPost, "/auth/logout", f.sessionCookie(t, ownerPubkey))
	require.Equal(t, http.StatusOK, w.Code)

	var cleared *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == SessionCookieName {
			cleared = ck
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	// Max-Age=0 on the wire parses as MaxAge -1 ("delete now").
	assert.Negative(t, cleared.MaxAge)
	assert.True(t, cleared.HttpOnly)
	assert.Equal(t, "/", cleared.Path)
}

func TestDevLoginFailClosed(t *testing.T) {
	f := newFixture(t, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/dev/login", strings.NewReader(`{"pubkey":"`+ownerPubkey+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	// Valid payload, but the environment is not development.
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDevLoginInDevelopment(t *testing.T) {
	f := newFixture(t, true)

	req := httptest.NewRequest(http.MethodPost, "/auth/dev/login", strings.NewReader(`{"pubkey":"`+ownerPubkey+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got bool
	for _, ck := range w.Result().Cookies() {
		if ck.Name == SessionCookieName && ck.Value != "" {
			got = true
		}
	}
	assert.True(t, got)

	// Malformed pubkeys are still rejected.
	req = httptest.NewRequest(http.MethodPost, "/auth/dev/login", strings.NewReader(`{"pubkey":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGatePublicPath(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(t, http.MethodGet, "/bounties")
	assert.NotEqual(t, http.StatusFound, w.Code)
	assert.NotEmpty(t, w.Header().Get(gate.HeaderRequestID))
	assert.Empty(t, w.Header().Get(gate.HeaderAuthPubkey))
}

func TestGateProtectedRedirect(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(t, http.MethodGet, "/dashboard/settings")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?redirect=%2Fdashboard%2Fsettings", w.Header().Get("Location"))
}

func TestGateAdminDenied(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(t, http.MethodGet, "/admin/users", f.sessionCookie(t, memberPubkey))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, gate.UnauthorizedPath, w.Header().Get("Location"))
}

func TestWorkspaceBudgetRoleEnforcement(t *testing.T) {
	f := newFixture(t, false)

	// Owner reads the budget.
	w := f.do(t, http.MethodGet, "/workspaces/ws1/budget", f.sessionCookie(t, ownerPubkey))
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ws1", body["workspace_id"])
	assert.Equal(t, "5000", body["budget"])
	assert.Equal(t, "ws1", w.Header().Get(gate.HeaderWorkspaceID))

	// A plain member is redirected away before the handler runs.
	w = f.do(t, http.MethodGet, "/workspaces/ws1/budget", f.sessionCookie(t, memberPubkey))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, gate.UnauthorizedPath, w.Header().Get("Location"))
}
