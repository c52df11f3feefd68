package payment

import (
	"net/url"
	"strings"

	"github.com/commercekit/checkout/internal/module/gateway"
	"github.com/commercekit/checkout/internal/module/order"
)

// Destination is one of the fixed set of user-visible redirect targets.
// Every internal error maps into this set; the user never sees a raw
// error page from this flow.
type Destination string

const (
	DestSuccess           Destination = "success"
	DestSummary           Destination = "summary"
	DestCardUpdateSuccess Destination = "card-update-success"
	DestCardUpdateFailed  Destination = "card-update-failed"
	DestFailure           Destination = "failure"
)

// RedirectResolver maps a return status and order into a concrete
// redirect URL. It is a pure function of its inputs; the platform base
// URL is fixed at construction time.
type RedirectResolver struct {
	baseURL string
}

// NewRedirectResolver creates a resolver for the given platform UI base URL.
func NewRedirectResolver(baseURL string) *RedirectResolver {
	return &RedirectResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

// Decide maps a return status to a destination. An invalid callback
// short-circuits to failure before the table is consulted.
func Decide(status gateway.ReturnStatus) Destination {
	if !status.Valid {
		return DestFailure
	}
	if status.Paid {
		return DestSuccess
	}
	if status.CanRetry {
		return DestSummary
	}
	if status.Kind == gateway.KindCardRenewal {
		if status.Authorized {
			return DestCardUpdateSuccess
		}
		return DestCardUpdateFailed
	}
	return DestFailure
}

// Resolve builds the redirect URL for a destination. With no override
// the platform UI shape is used: the order id is a path segment and
// the user id travels as a query parameter. With a per-namespace
// override URL the integrator shape is used instead: the override is
// the base and the order id is appended as a query parameter.
func (r *RedirectResolver) Resolve(dest Destination, o *order.Order, overrideURL string) string {
	if overrideURL != "" {
		return buildURL(strings.TrimRight(overrideURL, "/"), []string{string(dest)}, func(q url.Values) {
			q.Set("orderId", o.ID.String())
			if dest == DestSummary {
				q.Set("paymentPaid", "false")
			}
		})
	}

	return buildURL(r.baseURL, []string{o.ID.String(), string(dest)}, func(q url.Values) {
		if o.UserID != "" {
			q.Set("user", o.UserID)
		}
		if dest == DestSummary {
			q.Set("paymentPaid", "false")
		}
	})
}

// FailureURL is the generic failure redirect used when the input is so
// broken that no order can be resolved.
func (r *RedirectResolver) FailureURL() string {
	return r.baseURL + "/" + string(DestFailure)
}

func buildURL(base string, segments []string, setQuery func(url.Values)) string {
	u, err := url.Parse(base)
	if err != nil {
		// Fall back to naive joining on a malformed base.
		return base + "/" + strings.Join(segments, "/")
	}

	for _, seg := range segments {
		u.Path = strings.TrimRight(u.Path, "/") + "/" + seg
	}

	q := u.Query()
	setQuery(q)
	u.RawQuery = q.Encode()

	return u.String()
}
