package httpserver

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/watchhub/watchlist-api/internal/ratelimit"
)

func reviewCreatePath(titleID string) string {
	return "/titles/" + titleID + "/reviews/create"
}

func TestHandleCreateReview_RequiresAuth(t *testing.T) {
	srv := buildTestServer(t, nil)
	platform := createTestPlatform(t, srv, "Netflix")
	title := createTestTitle(t, srv, platform.ID, "Dark")

	rec := doRequest(t, srv, http.MethodPost, reviewCreatePath(title.ID), "", `{"rating":5}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, reviewCreatePath(title.ID), "broken.token", `{"rating":5}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", rec.Code)
	}
}

func TestHandleCreateReview_AggregateAndDuplicate(t *testing.T) {
	srv := buildTestServer(t, nil)
	platform := createTestPlatform(t, srv, "Netflix")
	title := createTestTitle(t, srv, platform.ID, "Dark")

	alice := mintToken(t, "u1", "alice", "user")
	rec := doRequest(t, srv, http.MethodPost, reviewCreatePath(title.ID), alice, `{"rating":5,"body":"great"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first review status = %d: %s", rec.Code, rec.Body.String())
	}
	var review reviewResponse
	decodeBody(t, rec, &review)
	if review.Author != "alice" || review.Rating != 5 {
		t.Fatalf("review = %+v", review)
	}

	rec = doRequest(t, srv, http.MethodGet, "/titles/"+title.ID, "", "")
	var after titleResponse
	decodeBody(t, rec, &after)
	if after.AverageRating != 5 || after.RatingCount != 1 {
		t.Fatalf("after first review avg=%v count=%d, want 5/1", after.AverageRating, after.RatingCount)
	}

	bob := mintToken(t, "u2", "bob", "user")
	rec = doRequest(t, srv, http.MethodPost, reviewCreatePath(title.ID), bob, `{"rating":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second review status = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/titles/"+title.ID, "", "")
	decodeBody(t, rec, &after)
	if after.AverageRating != 4 || after.RatingCount != 2 {
		t.Fatalf("after second review avg=%v count=%d, want 4/2", after.AverageRating, after.RatingCount)
	}

	rec = doRequest(t, srv, http.MethodPost, reviewCreatePath(title.ID), alice, `{"rating":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate status = %d, want 400: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/titles/"+title.ID, "", "")
	decodeBody(t, rec, &after)
	if after.AverageRating != 4 || after.RatingCount != 2 {
		t.Fatalf("duplicate mutated aggregate: avg=%v count=%d", after.AverageRating, after.RatingCount)
	}
}

func TestHandleCreateReview_Validation(t *testing.T) {
	srv := buildTestServer(t, nil)
	platform := createTestPlatform(t, srv, "Netflix")
	title := createTestTitle(t, srv, platform.ID, "Dark")
	alice := mintToken(t, "u1", "alice", "user")

	for _, body := range []string{`{"rating":0}`, `{"rating":6}`, `{"body":"no rating"}`, `not json`} {
		rec := doRequest(t, srv, http.MethodPost, reviewCreatePath(title.ID), alice, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q status = %d, want 400", body, rec.Code)
		}
	}

	rec := doRequest(t, srv, http.MethodPost, reviewCreatePath("00000000-0000-0000-0000-000000000000"), alice, `{"rating":4}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing title status = %d, want 404", rec.Code)
	}
}

func TestReviewOwnership(t *testing.T) {
	srv := buildTestServer(t, nil)
	platform := createTestPlatform(t, srv, "Netflix")
	title := createTestTitle(t, srv, platform.ID, "Dark")

	alice := mintToken(t, "u1", "alice", "user")
	rec := doRequest(t, srv, http.MethodPost, reviewCreatePath(title.ID), alice, `{"rating":4,"body":"good"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var review reviewResponse
	decodeBody(t, rec, &review)

	rec = doRequest(t, srv, http.MethodPut, "/reviews/"+review.ID, "", `{"rating":1}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous edit status = %d, want 401", rec.Code)
	}

	bob := mintToken(t, "u2", "bob", "user")
	rec = doRequest(t, srv, http.MethodPut, "/reviews/"+review.ID, bob, `{"rating":1}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner edit status = %d, want 403", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodDelete, "/reviews/"+review.ID, bob, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner delete status = %d, want 403", rec.Code)
	}

	// Admin role grants no review ownership.
	admin := mintToken(t, "u9", "root", "admin")
	rec = doRequest(t, srv, http.MethodPut, "/reviews/"+review.ID, admin, `{"rating":1}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("admin edit status = %d, want 403", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPut, "/reviews/"+review.ID, alice, `{"rating":2,"body":"meh"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner edit status = %d: %s", rec.Code, rec.Body.String())
	}
	var updated reviewResponse
	decodeBody(t, rec, &updated)
	if updated.Rating != 2 || updated.Body != "meh" {
		t.Fatalf("updated review = %+v", updated)
	}

	// Edits never reopen the aggregate.
	rec = doRequest(t, srv, http.MethodGet, "/titles/"+title.ID, "", "")
	var after titleResponse
	decodeBody(t, rec, &after)
	if after.AverageRating != 4 || after.RatingCount != 1 {
		t.Fatalf("edit changed aggregate: avg=%v count=%d", after.AverageRating, after.RatingCount)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/reviews/"+review.ID, alice, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete status = %d, want 204", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/reviews/"+review.ID, "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestHandleListTitleReviews_Filters(t *testing.T) {
	srv := buildTestServer(t, nil)
	platform := createTestPlatform(t, srv, "Netflix")
	title := createTestTitle(t, srv, platform.ID, "Dark")

	alice := mintToken(t, "u1", "alice", "user")
	bob := mintToken(t, "u2", "bob", "user")
	doRequest(t, srv, http.MethodPost, reviewCreatePath(title.ID), alice, `{"rating":5}`)
	doRequest(t, srv, http.MethodPost, reviewCreatePath(title.ID), bob, `{"rating":2,"active":false}`)

	rec := doRequest(t, srv, http.MethodGet, "/titles/"+title.ID+"/reviews", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var all reviewListResponse
	decodeBody(t, rec, &all)
	if len(all.Items) != 2 {
		t.Fatalf("all reviews = %d, want 2", len(all.Items))
	}

	rec = doRequest(t, srv, http.MethodGet, "/titles/"+title.ID+"/reviews?username=alice", "", "")
	var byAuthor reviewListResponse
	decodeBody(t, rec, &byAuthor)
	if len(byAuthor.Items) != 1 || byAuthor.Items[0].Author != "alice" {
		t.Fatalf("by author = %+v", byAuthor.Items)
	}

	rec = doRequest(t, srv, http.MethodGet, "/titles/"+title.ID+"/reviews?active=true", "", "")
	var active reviewListResponse
	decodeBody(t, rec, &active)
	if len(active.Items) != 1 || active.Items[0].Author != "alice" {
		t.Fatalf("active filter = %+v", active.Items)
	}

	// A missing title yields an empty collection, not a 404.
	rec = doRequest(t, srv, http.MethodGet, "/titles/00000000-0000-0000-0000-000000000000/reviews", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("missing title list status = %d, want 200", rec.Code)
	}
	var none reviewListResponse
	decodeBody(t, rec, &none)
	if len(none.Items) != 0 {
		t.Fatalf("missing title reviews = %d, want 0", len(none.Items))
	}
}

func TestHandleListUserReviews(t *testing.T) {
	srv := buildTestServer(t, nil)
	platform := createTestPlatform(t, srv, "Netflix")
	titleA := createTestTitle(t, srv, platform.ID, "Dark")
	titleB := createTestTitle(t, srv, platform.ID, "Ozark")

	alice := mintToken(t, "u1", "alice", "user")
	doRequest(t, srv, http.MethodPost, reviewCreatePath(titleA.ID), alice, `{"rating":5}`)
	doRequest(t, srv, http.MethodPost, reviewCreatePath(titleB.ID), alice, `{"rating":3}`)

	rec := doRequest(t, srv, http.MethodGet, "/reviews?username=alice", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var authored reviewListResponse
	decodeBody(t, rec, &authored)
	if len(authored.Items) != 2 {
		t.Fatalf("alice reviews = %d, want 2", len(authored.Items))
	}

	rec = doRequest(t, srv, http.MethodGet, "/reviews", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("no username status = %d", rec.Code)
	}
	var empty reviewListResponse
	decodeBody(t, rec, &empty)
	if len(empty.Items) != 0 {
		t.Fatalf("no username reviews = %d, want 0", len(empty.Items))
	}
}

func TestThrottleReviewCreate(t *testing.T) {
	srv := buildTestServer(t, map[ratelimit.Scope]ratelimit.Quota{
		ratelimit.ScopeReviewCreate: {Requests: 1, Window: 24 * time.Hour},
	})
	platform := createTestPlatform(t, srv, "Netflix")
	titleA := createTestTitle(t, srv, platform.ID, "Dark")
	titleB := createTestTitle(t, srv, platform.ID, "Ozark")

	alice := mintToken(t, "u1", "alice", "user")
	rec := doRequest(t, srv, http.MethodPost, reviewCreatePath(titleA.ID), alice, `{"rating":5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, reviewCreatePath(titleB.ID), alice, `{"rating":4}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second create status = %d, want 429", rec.Code)
	}
	var errResp errorResponse
	decodeBody(t, rec, &errResp)
	if errResp.Code != "RATE_LIMITED" {
		t.Fatalf("error code = %q, want RATE_LIMITED", errResp.Code)
	}

	// The budget is per user, not global.
	bob := mintToken(t, "u2", "bob", "user")
	rec = doRequest(t, srv, http.MethodPost, reviewCreatePath(titleB.ID), bob, `{"rating":4}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("other user create status = %d, want 201", rec.Code)
	}
}

func TestThrottleReviewDetail(t *testing.T) {
	srv := buildTestServer(t, map[ratelimit.Scope]ratelimit.Quota{
		ratelimit.ScopeReviewDetail: {Requests: 2, Window: time.Hour},
	})
	platform := createTestPlatform(t, srv, "Netflix")
	title := createTestTitle(t, srv, platform.ID, "Dark")

	alice := mintToken(t, "u1", "alice", "user")
	rec := doRequest(t, srv, http.MethodPost, reviewCreatePath(title.ID), alice, `{"rating":5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var review reviewResponse
	decodeBody(t, rec, &review)

	for i := 0; i < 2; i++ {
		rec = doRequest(t, srv, http.MethodGet, "/reviews/"+review.ID, alice, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("detail request %d status = %d, want 200", i, rec.Code)
		}
	}
	rec = doRequest(t, srv, http.MethodGet, "/reviews/"+review.ID, alice, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over-budget detail status = %d, want 429", rec.Code)
	}
}

func TestHealthzWithoutStore(t *testing.T) {
	srv := buildTestServer(t, nil)
	rec := doRequest(t, srv, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz without store status = %d, want 503", rec.Code)
	}
}

func TestConcurrentReviewCreatesViaAPI(t *testing.T) {
	srv := buildTestServer(t, nil)
	platform := createTestPlatform(t, srv, "Netflix")
	title := createTestTitle(t, srv, platform.ID, "Busy")

	const users = 5
	done := make(chan int, users)
	for i := 0; i < users; i++ {
		token := mintToken(t, fmt.Sprintf("u%d", i), fmt.Sprintf("user%d", i), "user")
		go func(token string) {
			rec := doRequest(t, srv, http.MethodPost, reviewCreatePath(title.ID), token, `{"rating":4}`)
			done <- rec.Code
		}(token)
	}
	for i := 0; i < users; i++ {
		if code := <-done; code != http.StatusCreated {
			t.Fatalf("concurrent create status = %d, want 201", code)
		}
	}

	rec := doRequest(t, srv, http.MethodGet, "/titles/"+title.ID, "", "")
	var after titleResponse
	decodeBody(t, rec, &after)
	if after.RatingCount != users {
		t.Fatalf("rating count = %d, want %d", after.RatingCount, users)
	}
}
