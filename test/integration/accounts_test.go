// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/urang-market/accounts/internal/auth"
	authpg "github.com/urang-market/accounts/internal/auth/postgres"
	"github.com/urang-market/accounts/internal/httpapi"
	"github.com/urang-market/accounts/internal/store"
)

// testEnv holds the running service and its backing database.
type testEnv struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container testcontainers.Container
	server    *httpapi.Server
	baseURL   string
}

func setupTestEnv() (*testEnv, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	env := &testEnv{ctx: ctx, cancel: cancel}

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("accounts"),
		postgres.WithUsername("accounts"),
		postgres.WithPassword("accounts"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	env.container = pgContainer

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		env.teardown()
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		env.teardown()
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		env.teardown()
		return nil, err
	}
	_ = migrator.Close()

	pool, err := store.Connect(ctx, connStr)
	if err != nil {
		env.teardown()
		return nil, err
	}

	users := authpg.NewUserRepository(pool)
	hasher := auth.NewArgon2idHasher()

	verifier, err := auth.NewVerifier(users, hasher)
	if err != nil {
		env.teardown()
		return nil, err
	}
	registrar, err := auth.NewRegistrationService(users, hasher)
	if err != nil {
		env.teardown()
		return nil, err
	}
	changer, err := auth.NewPasswordChanger(users, verifier, hasher)
	if err != nil {
		env.teardown()
		return nil, err
	}
	tokens, err := auth.NewTokenIssuer([]byte("integration-test-signing-key-32b"), time.Hour)
	if err != nil {
		env.teardown()
		return nil, err
	}

	server, err := httpapi.NewServer(verifier, registrar, changer, tokens, httpapi.Options{
		Addr: "127.0.0.1:0",
	})
	if err != nil {
		env.teardown()
		return nil, err
	}
	if _, err := server.Start(); err != nil {
		env.teardown()
		return nil, err
	}
	env.server = server
	env.baseURL = "http://" + server.Addr()

	return env, nil
}

func (env *testEnv) teardown() {
	if env.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_ = env.server.Stop(shutdownCtx)
		cancel()
	}
	if env.container != nil {
		_ = env.container.Terminate(env.ctx)
	}
	env.cancel()
}

// postJSON sends a JSON body and returns the response.
func (env *testEnv) postJSON(path, token string, body any) (*http.Response, map[string]any) {
	raw, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())

	req, err := http.NewRequest(http.MethodPost, env.baseURL+path, bytes.NewReader(raw))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return env.send(req)
}

func (env *testEnv) patchJSON(path, token string, body any) (*http.Response, map[string]any) {
	raw, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())

	req, err := http.NewRequest(http.MethodPatch, env.baseURL+path, bytes.NewReader(raw))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return env.send(req)
}

func (env *testEnv) get(path, token string) (*http.Response, map[string]any) {
	req, err := http.NewRequest(http.MethodGet, env.baseURL+path, nil)
	Expect(err).NotTo(HaveOccurred())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return env.send(req)
}

func (env *testEnv) send(req *http.Request) (*http.Response, map[string]any) {
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

var _ = Describe("Account lifecycle", Ordered, func() {
	var env *testEnv

	const (
		email       = "alice@example.com"
		password    = "hunter22"
		newPassword = "correct horse battery"
	)

	var sessionToken string

	BeforeAll(func() {
		var err error
		env, err = setupTestEnv()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if env != nil {
			env.teardown()
		}
	})

	It("signs up a new account", func() {
		resp, body := env.postJSON("/api/auth/signup", "", map[string]string{
			"email":    email,
			"password": password,
		})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		Expect(body["email"]).To(Equal(email))
		Expect(body["id"]).NotTo(BeEmpty())
	})

	It("rejects a duplicate signup with a conflict", func() {
		resp, _ := env.postJSON("/api/auth/signup", "", map[string]string{
			"email":    email,
			"password": "another-password",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusConflict))
	})

	It("answers wrong-password and unknown-email logins identically", func() {
		wrongResp, wrongBody := env.postJSON("/api/auth/login", "", map[string]string{
			"email":    email,
			"password": "not-the-password",
		})
		unknownResp, unknownBody := env.postJSON("/api/auth/login", "", map[string]string{
			"email":    "nobody@example.com",
			"password": password,
		})

		Expect(wrongResp.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(unknownResp.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(wrongBody).To(Equal(unknownBody),
			"failure responses must not reveal whether the account exists")
	})

	It("logs in with valid credentials", func() {
		resp, body := env.postJSON("/api/auth/login", "", map[string]string{
			"email":    email,
			"password": password,
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		token, ok := body["token"].(string)
		Expect(ok).To(BeTrue(), "login response should carry a token")
		Expect(token).NotTo(BeEmpty())
		sessionToken = token
	})

	It("returns the caller identity on /api/user/me", func() {
		resp, body := env.get("/api/user/me", sessionToken)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["email"]).To(Equal(email))
	})

	It("redirects anonymous visitors away from the profile page", func() {
		resp, _ := env.get("/profile", "")
		Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
		Expect(resp.Header.Get("Location")).To(Equal("/auth"))
	})

	It("refuses a password change with the wrong current password", func() {
		resp, _ := env.patchJSON("/api/user/password", sessionToken, map[string]string{
			"old_password": "wrong",
			"new_password": newPassword,
		})
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
	})

	It("changes the password with the correct current password", func() {
		resp, _ := env.patchJSON("/api/user/password", sessionToken, map[string]string{
			"old_password": password,
			"new_password": newPassword,
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("rejects logins with the retired password", func() {
		resp, _ := env.postJSON("/api/auth/login", "", map[string]string{
			"email":    email,
			"password": password,
		})
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("accepts logins with the new password", func() {
		resp, _ := env.postJSON("/api/auth/login", "", map[string]string{
			"email":    email,
			"password": newPassword,
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("rejects requests without a session", func() {
		resp, _ := env.get("/api/user/me", "")
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})
})

var _ = Describe("Signup validation", Ordered, func() {
	var env *testEnv

	BeforeAll(func() {
		var err error
		env, err = setupTestEnv()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		env.teardown()
	})

	It("rejects emails without an @ separator", func() {
		resp, _ := env.postJSON("/api/auth/signup", "", map[string]string{
			"email":    "not-an-email",
			"password": "hunter22",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
	})

	It("rejects passwords shorter than seven characters", func() {
		resp, _ := env.postJSON("/api/auth/signup", "", map[string]string{
			"email":    fmt.Sprintf("user-%d@example.com", time.Now().UnixNano()),
			"password": "short1",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
	})
})
