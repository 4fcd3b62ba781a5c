package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tazhibayda/townboat/internal/chat"
	http "github.com/tazhibayda/townboat/internal/http"
	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/repo"
)

type testEnv struct {
	T      *testing.T
	Ctx    context.Context
	Mongo  *mongodb.MongoDBContainer
	Store  *repo.Store
	Sched  *chat.TimerScheduler
	Router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	mc, err := mongodb.RunContainer(ctx,
		testcontainers.WithImage("mongo:6"),
	)
	if err != nil {
		t.Fatalf("mongo container: %v", err)
	}

	uri, err := mc.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("mongo uri: %v", err)
	}

	if _, err := log.Init(false); err != nil {
		t.Fatalf("log init: %v", err)
	}

	store, err := repo.NewStore(ctx, uri, "townboat_test")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	store.Signal = repo.NewLocalSignal()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatal(err)
	}

	sched := chat.NewTimerScheduler(store)
	// Redis/Rabbit are not needed: nil falls back to memory and a no-op publisher
	h := http.NewHandler(store, nil, nil, "townboat.events", sched, http.Options{
		JWTSecret:       "test-secret",
		RefreshDays:     14,
		RateLimitPerMin: 1000,
	})

	gin.SetMode(gin.TestMode)
	r := http.NewRouter(h)

	return &testEnv{T: t, Ctx: ctx, Mongo: mc, Store: store, Sched: sched, Router: r}
}

func (e *testEnv) Close() {
	if e.Sched != nil {
		_ = e.Sched.Close()
	}
	if e.Store != nil {
		_ = e.Store.Client.Disconnect(e.Ctx)
	}
	if e.Mongo != nil {
		_ = e.Mongo.Terminate(e.Ctx)
	}
}

func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

type tokens struct{ Access, Refresh string }

// signUp registers a member and returns their tokens and id.
func (e *testEnv) signUp(email, name string) (tokens, string) {
	e.T.Helper()
	w := e.do("POST", "/api/auth/register",
		`{"email":"`+email+`","password":"StrongP4ss","name":"`+name+`","hometown":"Springfield"}`, "")
	if w.Code != 201 {
		e.T.Fatalf("register %s: %d %s", email, w.Code, w.Body.String())
	}
	var tk tokens
	decode(e.T, w, &tk)
	w = e.do("GET", "/api/auth/me", "", tk.Access)
	var me struct{ ID string }
	decode(e.T, w, &me)
	return tk, me.ID
}

// promote makes the user an admin and signs them in again.
func (e *testEnv) promote(email string) tokens {
	e.T.Helper()
	if _, err := e.Store.DB.Collection("users").UpdateOne(e.Ctx,
		bson.M{"email": email}, bson.M{"$set": bson.M{"role": "admin"}}); err != nil {
		e.T.Fatal(err)
	}
	w := e.do("POST", "/api/auth/login", `{"email":"`+email+`","password":"StrongP4ss"}`, "")
	var tk tokens
	decode(e.T, w, &tk)
	return tk
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode: %v; body=%s", err, w.Body.String())
	}
}
