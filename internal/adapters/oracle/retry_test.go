package oracle_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	oracle "github.com/okian/linotype/internal/adapters/oracle"
)

func fastPolicy() oracle.Policy {
	return oracle.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
		CallTimeout: time.Second,
	}
}

func TestErrorKinds(t *testing.T) {
	Convey("Given classified oracle errors", t, func() {
		base := errors.New("boom")

		Convey("Then kinds drive retryability", func() {
			So(oracle.Retryable(oracle.Transient(base)), ShouldBeTrue)
			So(oracle.Retryable(oracle.Malformed(base)), ShouldBeTrue)
			So(oracle.Retryable(oracle.Fatal(base)), ShouldBeFalse)
			So(oracle.IsFatal(oracle.Fatal(base)), ShouldBeTrue)
		})

		Convey("Then unclassified errors default to fatal", func() {
			So(oracle.KindOf(base), ShouldEqual, oracle.KindFatal)
			So(oracle.Retryable(base), ShouldBeFalse)
		})

		Convey("Then the cause stays reachable through the wrapper", func() {
			So(errors.Is(oracle.Transient(base), base), ShouldBeTrue)
		})
	})
}

func TestPolicyDelay(t *testing.T) {
	Convey("Given a retry policy", t, func() {
		p := oracle.Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 500 * time.Millisecond}

		Convey("Then delays double per attempt and cap at MaxDelay", func() {
			So(p.Delay(0), ShouldEqual, 100*time.Millisecond)
			So(p.Delay(1), ShouldEqual, 200*time.Millisecond)
			So(p.Delay(2), ShouldEqual, 400*time.Millisecond)
			So(p.Delay(3), ShouldEqual, 500*time.Millisecond)
			So(p.Delay(40), ShouldEqual, 500*time.Millisecond)
		})
	})
}

func TestPolicyGenerate(t *testing.T) {
	Convey("Given a scripted oracle under a retry policy", t, func() {
		ctx := context.Background()
		req := oracle.Request{Prompt: "say hi"}

		Convey("When a transient failure precedes success", func() {
			o := oracle.NewScripted(
				oracle.Reply{Err: oracle.Transient(errors.New("rate limited"))},
				oracle.Reply{Response: oracle.Response{Content: "hi"}},
			)
			resp, err := fastPolicy().Generate(ctx, o, req)

			Convey("Then the retry recovers", func() {
				So(err, ShouldBeNil)
				So(resp.Content, ShouldEqual, "hi")
				So(o.Calls(), ShouldEqual, 2)
			})
		})

		Convey("When a malformed reply precedes success", func() {
			o := oracle.NewScripted(
				oracle.Reply{Err: oracle.Malformed(errors.New("bad schema"))},
				oracle.Reply{Response: oracle.Response{Content: "ok"}},
			)
			resp, err := fastPolicy().Generate(ctx, o, req)

			So(err, ShouldBeNil)
			So(resp.Content, ShouldEqual, "ok")
		})

		Convey("When the error is fatal", func() {
			o := oracle.NewScripted(
				oracle.Reply{Err: oracle.Fatal(errors.New("bad credentials"))},
			)
			_, err := fastPolicy().Generate(ctx, o, req)

			Convey("Then no retry happens", func() {
				So(oracle.IsFatal(err), ShouldBeTrue)
				So(o.Calls(), ShouldEqual, 1)
			})
		})

		Convey("When every attempt fails transiently", func() {
			o := oracle.NewScripted().WithHandler(func(oracle.Request) (oracle.Response, error) {
				return oracle.Response{}, oracle.Transient(errors.New("still down"))
			})
			_, err := fastPolicy().Generate(ctx, o, req)

			Convey("Then the error escalates to fatal after MaxAttempts", func() {
				So(oracle.IsFatal(err), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "retries exhausted")
				So(o.Calls(), ShouldEqual, 3)
			})
		})

		Convey("When the context is cancelled between attempts", func() {
			cctx, cancel := context.WithCancel(ctx)
			o := oracle.NewScripted().WithHandler(func(oracle.Request) (oracle.Response, error) {
				cancel()
				return oracle.Response{}, oracle.Transient(errors.New("flaky"))
			})
			_, err := fastPolicy().Generate(cctx, o, req)

			Convey("Then the loop stops instead of sleeping out the budget", func() {
				So(err, ShouldNotBeNil)
				So(o.Calls(), ShouldEqual, 1)
			})
		})
	})
}

func TestHTTPOracle(t *testing.T) {
	Convey("Given a hosted completion endpoint", t, func() {
		ctx := context.Background()

		newServer := func(status int, body string) *httptest.Server {
			return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte(body))
			}))
		}

		Convey("When the provider replies normally", func() {
			srv := newServer(http.StatusOK, `{"choices":[{"message":{"content":"hello"}}]}`)
			defer srv.Close()
			o, err := oracle.New(oracle.Config{Provider: oracle.ProviderOpenAI, APIKey: "k", BaseURL: srv.URL})
			So(err, ShouldBeNil)

			resp, err := o.Generate(ctx, oracle.Request{Prompt: "hi"})
			So(err, ShouldBeNil)
			So(resp.Content, ShouldEqual, "hello")
		})

		Convey("When the provider rate-limits", func() {
			srv := newServer(http.StatusTooManyRequests, `{}`)
			defer srv.Close()
			o, _ := oracle.New(oracle.Config{Provider: oracle.ProviderOpenAI, APIKey: "k", BaseURL: srv.URL})

			_, err := o.Generate(ctx, oracle.Request{Prompt: "hi"})
			So(oracle.KindOf(err), ShouldEqual, oracle.KindTransient)
		})

		Convey("When credentials are rejected", func() {
			srv := newServer(http.StatusUnauthorized, `{"error":"bad key"}`)
			defer srv.Close()
			o, _ := oracle.New(oracle.Config{Provider: oracle.ProviderOpenAI, APIKey: "k", BaseURL: srv.URL})

			_, err := o.Generate(ctx, oracle.Request{Prompt: "hi"})
			So(oracle.IsFatal(err), ShouldBeTrue)
		})

		Convey("When the reply carries no content", func() {
			srv := newServer(http.StatusOK, `{"choices":[]}`)
			defer srv.Close()
			o, _ := oracle.New(oracle.Config{Provider: oracle.ProviderOpenAI, APIKey: "k", BaseURL: srv.URL})

			_, err := o.Generate(ctx, oracle.Request{Prompt: "hi"})
			So(oracle.KindOf(err), ShouldEqual, oracle.KindMalformed)
		})

		Convey("When the provider name is unknown", func() {
			_, err := oracle.New(oracle.Config{Provider: "carrier-pigeon"})
			So(errors.Is(err, oracle.ErrUnknownProvider), ShouldBeTrue)
		})

		Convey("When an API key is missing", func() {
			_, err := oracle.New(oracle.Config{Provider: oracle.ProviderAnthropic})
			So(err, ShouldNotBeNil)
		})
	})
}
