package geocode

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// newTestLimiter never blocks, so tests do not wait on the postcodes.io budget.
func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// newRewriteClient returns a client that sends requests aimed at apiBase
// (normally DefaultBaseURL) to the httptest server instead, keeping the
// /postcodes/{clean} path so handlers can assert on it.
func newRewriteClient(srvURL, apiBase string) *http.Client {
	target, err := url.Parse(srvURL)
	if err != nil {
		panic(err)
	}
	return &http.Client{
		Transport: &postcodesTransport{
			next:    http.DefaultTransport,
			target:  target,
			apiBase: strings.TrimRight(apiBase, "/"),
		},
	}
}

type postcodesTransport struct {
	next    http.RoundTripper
	target  *url.URL
	apiBase string
}

func (t *postcodesTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !strings.HasPrefix(req.URL.String(), t.apiBase) {
		return t.next.RoundTrip(req)
	}
	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.Host = t.target.Host
	return t.next.RoundTrip(out)
}

// postcodeBody renders a postcodes.io 200 response for one postcode.
func postcodeBody(postcode string, lat, lon float64, district string) string {
	return fmt.Sprintf(`{"status":200,"result":{"postcode":%q,"latitude":%v,"longitude":%v,"admin_district":%q}}`,
		postcode, lat, lon, district)
}
