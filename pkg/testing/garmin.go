package testing

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeGarmin serves the garmin sso login and the activity list for a set of users.
type FakeGarmin struct {
	// Passwords maps login email to password.
	Passwords map[string]string
	// Activities maps login email to the raw json returned by the activity list.
	Activities map[string]string
	// ActivitiesCode, when set, is returned by the activity list instead of the activities.
	ActivitiesCode int

	mu              sync.Mutex
	logins          map[string]int
	activitiesCalls int
}

// NewFakeGarminServer starts the fake and closes it when the test ends.
func NewFakeGarminServer(t *testing.T, fake *FakeGarmin) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return srv
}

func (f *FakeGarmin) Logins(email string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins[email]
}

func (f *FakeGarmin) ActivitiesCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activitiesCalls
}

func encodeEmail(email string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(email))
}

func decodeEmail(value string) (string, bool) {
	email, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return "", false
	}
	return string(email), true
}

func (f *FakeGarmin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/sso/signin" && r.Method == http.MethodGet:
		fmt.Fprint(w, `<html><form><input type="hidden" name="_csrf" value="csrf-fake" /></form></html>`)
	case r.URL.Path == "/sso/signin" && r.Method == http.MethodPost:
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		email := r.PostForm.Get("username")
		password, ok := f.Passwords[email]
		if !ok || password != r.PostForm.Get("password") {
			fmt.Fprint(w, `<html><head><title>GARMIN Authentication Application</title></head></html>`)
			return
		}
		fmt.Fprintf(w, `<html><head><title>Success</title></head><script>var u = "https://sso.garmin.com/sso/embed?ticket=ST-%s";</script></html>`, encodeEmail(email))
	case r.URL.Path == "/oauth-service/oauth/exchange/user/2.0" && r.Method == http.MethodPost:
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		email, ok := decodeEmail(strings.TrimPrefix(r.PostForm.Get("ticket"), "ST-"))
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		if f.logins == nil {
			f.logins = map[string]int{}
		}
		f.logins[email]++
		f.mu.Unlock()
		fmt.Fprintf(w, `{"access_token": "%s", "token_type": "Bearer", "expires_in": 3600}`, encodeEmail(email))
	case r.URL.Path == "/activitylist-service/activities/search/activities" && r.Method == http.MethodGet:
		f.mu.Lock()
		f.activitiesCalls++
		f.mu.Unlock()
		email, ok := decodeEmail(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.ActivitiesCode != 0 {
			w.WriteHeader(f.ActivitiesCode)
			return
		}
		body, ok := f.Activities[email]
		if !ok {
			body = "[]"
		}
		fmt.Fprint(w, body)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
