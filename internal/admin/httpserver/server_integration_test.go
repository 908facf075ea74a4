package httpserver_test

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/pwm-project/pwm-admin/internal/admin/httpserver/middleware"
	"github.com/pwm-project/pwm-admin/internal/admin/testutil"
)

func TestConsoleRedirectsWithoutAuth(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(ts.URL + "/admin")
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/admin/login", resp.Header.Get("Location"))
}

func TestDashboardRendersForAuthenticatedUser(t *testing.T) {
	t.Parallel()

	auth := &tokenAuthenticator{Token: "test-token"}
	ts := testutil.NewServer(t, testutil.WithAuthenticator(auth))

	doc := getDoc(t, newClient(t), ts.URL+"/admin", auth.Token, nil)

	require.Equal(t, "Dashboard | PWM Admin", doc.Find("title").First().Text())
	require.Equal(t, "Dashboard", doc.Find("h1").First().Text())
	require.Equal(t, 1, doc.Find("[data-dashboard-summary]").Length(), "dashboard should render the summary cards")
	require.Greater(t, doc.Find("[data-category-cards] a").Length(), 0, "dashboard should render category cards")
}

func TestSettingsListFiltersAndSorts(t *testing.T) {
	t.Parallel()

	auth := &tokenAuthenticator{Token: "test-token"}
	ts := testutil.NewServer(t, testutil.WithAuthenticator(auth))
	client := newClient(t)

	doc := getDoc(t, client, ts.URL+"/admin/settings?q=password.policy", auth.Token, nil)

	rows := doc.Find("tbody tr[data-setting-key]")
	require.Equal(t, 3, rows.Length(), "policy filter should match exactly the three policy keys")
	rows.Each(func(_ int, row *goquery.Selection) {
		require.Contains(t, row.AttrOr("data-setting-key", ""), "password.policy")
	})

	doc = getDoc(t, client, ts.URL+"/admin/settings?q=password.policy&sort=Key&dir=desc", auth.Token, nil)

	header := doc.Find(`th a[data-sort-column="Key"]`).Closest("th")
	require.Equal(t, "descending", header.AttrOr("aria-sort", ""))

	first := doc.Find("tbody tr[data-setting-key]").First()
	require.Equal(t, "password.policy.minimumLength", first.AttrOr("data-setting-key", ""))
}

func TestSettingWriteRoundTrip(t *testing.T) {
	t.Parallel()

	auth := &tokenAuthenticator{Token: "test-token"}
	ts := testutil.NewServer(t, testutil.WithAuthenticator(auth))
	client := newClient(t)

	editorURL := ts.URL + "/admin/settings/password.policy.minimumLength"
	getDoc(t, client, editorURL, auth.Token, nil)
	csrf := cookieValue(t, client, ts.URL, "csrf_token")

	doc := postDoc(t, client, editorURL, auth.Token, csrf, url.Values{"value": {"12"}})
	require.Equal(t, "synced", doc.Find("[data-sync-state]").AttrOr("data-sync-state", ""))
	value, _ := doc.Find(`input[name="value"]`).Attr("value")
	require.Equal(t, "12", value)

	// A rejected write keeps the staged value and surfaces the failure.
	doc = postDoc(t, client, editorURL, auth.Token, csrf, url.Values{"value": {"-3"}})
	require.Equal(t, "failed", doc.Find("[data-sync-state]").AttrOr("data-sync-state", ""))
	require.Equal(t, 1, doc.Find("[data-save-error]").Length(), "rejected write should surface an error")
	value, _ = doc.Find(`input[name="value"]`).Attr("value")
	require.Equal(t, "-3", value, "optimistic value stays visible for retry")
}

func TestLocalePreferenceFollowsSession(t *testing.T) {
	t.Parallel()

	auth := &tokenAuthenticator{Token: "test-token"}
	ts := testutil.NewServer(t, testutil.WithAuthenticator(auth))
	client := newClient(t)

	editorURL := ts.URL + "/admin/settings/email.changePassword"
	getDoc(t, client, editorURL, auth.Token, nil)
	csrf := cookieValue(t, client, ts.URL, "csrf_token")

	doc := postDoc(t, client, editorURL+"/locales", auth.Token, csrf, url.Values{"locale": {"fr"}})
	require.Equal(t, "true", doc.Find(`[data-locale-tab="fr"]`).AttrOr("aria-selected", ""))

	// A later visit without an explicit locale opens the remembered tab.
	doc = getDoc(t, client, editorURL, auth.Token, nil)
	require.Equal(t, "true", doc.Find(`[data-locale-tab="fr"]`).AttrOr("aria-selected", ""))

	// An explicit selection replaces the preference.
	doc = getDoc(t, client, editorURL+"?locale=", auth.Token, nil)
	require.Equal(t, "true", doc.Find(`[data-locale-tab=""]`).AttrOr("aria-selected", ""))

	doc = getDoc(t, client, editorURL, auth.Token, nil)
	require.Equal(t, "true", doc.Find(`[data-locale-tab=""]`).AttrOr("aria-selected", ""))
	require.Equal(t, "false", doc.Find(`[data-locale-tab="fr"]`).AttrOr("aria-selected", ""))
}

func TestProfileScopedWritesStayIsolated(t *testing.T) {
	t.Parallel()

	auth := &tokenAuthenticator{Token: "test-token"}
	ts := testutil.NewServer(t, testutil.WithAuthenticator(auth))
	client := newClient(t)

	editorURL := ts.URL + "/admin/settings/ldap.naming.attribute"
	getDoc(t, client, editorURL, auth.Token, nil)
	csrf := cookieValue(t, client, ts.URL, "csrf_token")

	// Scope the session to a profile; the selection sticks across requests.
	doc := getDoc(t, client, editorURL+"?profile=corporate", auth.Token, nil)
	require.Equal(t, "corporate", doc.Find("[data-active-profile]").AttrOr("data-active-profile", ""))

	doc = postDoc(t, client, editorURL, auth.Token, csrf, url.Values{"value": {"uid"}})
	require.Equal(t, "synced", doc.Find("[data-sync-state]").AttrOr("data-sync-state", ""))
	require.Equal(t, "corporate", doc.Find("[data-active-profile]").AttrOr("data-active-profile", ""))
	value, _ := doc.Find(`input[name="value"]`).Attr("value")
	require.Equal(t, "uid", value)

	// The default profile keeps its own value.
	doc = getDoc(t, client, editorURL+"?profile=", auth.Token, nil)
	require.Equal(t, "", doc.Find("[data-active-profile]").AttrOr("data-active-profile", "missing"))
	value, _ = doc.Find(`input[name="value"]`).Attr("value")
	require.Equal(t, "cn", value)

	// Switching back reads the override again.
	doc = getDoc(t, client, editorURL+"?profile=corporate", auth.Token, nil)
	value, _ = doc.Find(`input[name="value"]`).Attr("value")
	require.Equal(t, "uid", value)
}

func TestPasswordValidationGatesSubmit(t *testing.T) {
	t.Parallel()

	auth := &tokenAuthenticator{Token: "test-token"}
	ts := testutil.NewServer(t, testutil.WithAuthenticator(auth))
	client := newClient(t)

	doc := getDoc(t, client, ts.URL+"/admin/password", auth.Token, nil)
	_, disabled := doc.Find("[data-password-submit]").Attr("disabled")
	require.True(t, disabled, "submit must start disabled")
	csrf := cookieValue(t, client, ts.URL, "csrf_token")

	validateURL := ts.URL + "/admin/password/validate"

	doc = postDoc(t, client, validateURL, auth.Token, csrf, url.Values{
		"password1": {"Tr0ub4dor&3"},
		"password2": {"different"},
	})
	_, disabled = doc.Find("[data-password-submit]").Attr("disabled")
	require.True(t, disabled, "mismatched passwords must keep submit disabled")
	require.Contains(t, doc.Find("[data-validation-message]").Text(), "do not match")

	doc = postDoc(t, client, validateURL, auth.Token, csrf, url.Values{
		"password1": {"Tr0ub4dor&3"},
		"password2": {"Tr0ub4dor&3"},
	})
	_, disabled = doc.Find("[data-password-submit]").Attr("disabled")
	require.False(t, disabled, "accepted password must enable submit")
	require.Contains(t, doc.Find("[data-validation-message]").Text(), "accepted")
	require.Equal(t, "100", doc.Find("[data-strength-meter]").AttrOr("aria-valuenow", ""))
}

func TestDirectoryFragmentRequiresHTMX(t *testing.T) {
	t.Parallel()

	auth := &tokenAuthenticator{Token: "test-token"}
	ts := testutil.NewServer(t, testutil.WithAuthenticator(auth))
	client := newClient(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/admin/directory/browse", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+auth.Token)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode, "fragment routes must not be directly navigable")

	doc := getDoc(t, client, ts.URL+"/admin/directory/browse?dn=ou=people,dc=example,dc=com", auth.Token, map[string]string{"HX-Request": "true"})
	require.Contains(t, doc.Find("[data-current-dn]").Text(), "ou=people")
}

type tokenAuthenticator struct {
	Token string
}

func (t *tokenAuthenticator) Authenticate(_ *http.Request, token string) (*middleware.User, error) {
	if token != t.Token {
		return nil, middleware.ErrUnauthorized
	}
	return &middleware.User{
		UID:   "tester",
		Email: "tester@example.com",
		Token: token,
		Roles: []string{"admin"},
	}, nil
}

func newClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func getDoc(t *testing.T, client *http.Client, target, token string, headers map[string]string) *goquery.Document {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return testutil.ParseHTML(t, body)
}

func postDoc(t *testing.T, client *http.Client, target, token, csrf string, form url.Values) *goquery.Document {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", csrf)
	req.Header.Set("HX-Request", "true")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return testutil.ParseHTML(t, body)
}

func cookieValue(t *testing.T, client *http.Client, base, name string) string {
	t.Helper()

	parsed, err := url.Parse(base + "/admin/")
	require.NoError(t, err)
	for _, c := range client.Jar.Cookies(parsed) {
		if c.Name == name {
			return c.Value
		}
	}
	t.Fatalf("cookie %q not issued", name)
	return ""
}
