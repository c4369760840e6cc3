package dropdownclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeServer answers /api/dropdowns the way the real handler does and counts
// bulk fetches.
type fakeServer struct {
	bulkCalls atomic.Int32
	lastQuery atomic.Value
	lastAuth  atomic.Value
	release   chan struct{}
	holdFirst chan struct{}
}

func (f *fakeServer) handler(w http.ResponseWriter, r *http.Request) {
	f.lastQuery.Store(r.URL.RawQuery)
	f.lastAuth.Store(r.Header.Get("Authorization"))
	w.Header().Set("Content-Type", "application/json")

	reply := func(status int, message string, data interface{}) {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": status < 300,
			"message": message,
			"data":    data,
		})
	}

	switch r.Method {
	case http.MethodGet:
		n := f.bulkCalls.Add(1)
		if f.release != nil {
			<-f.release
		}
		if n == 1 && f.holdFirst != nil {
			<-f.holdFirst
		}
		reply(http.StatusOK, "All dropdowns fetched", map[string]interface{}{
			"institution_type": "School",
			"dropdowns": map[string]interface{}{
				"gender": map[string]interface{}{
					"category_id": 1, "category_key": "gender", "category_name": "Gender", "is_system": true,
					"values": []map[string]interface{}{
						{"id": 1, "value": "Male", "display_order": 1},
						{"id": 2, "value": "Female", "display_order": 2},
					},
				},
				"hostel": map[string]interface{}{
					"category_id": 9, "category_key": "hostel", "category_name": "Hostel", "values": []interface{}{},
				},
			},
		})
	case http.MethodPost:
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["value"] == "Male" {
			reply(http.StatusConflict, "This value already exists in Gender", nil)
			return
		}
		if body["action"] == "add_category" {
			reply(http.StatusCreated, "Category created", map[string]interface{}{"id": 10, "category_key": body["category_key"], "category_name": body["category_name"]})
			return
		}
		reply(http.StatusCreated, "Added", map[string]interface{}{"id": 3, "value": body["value"], "category_key": "gender", "category_name": "Gender"})
	case http.MethodDelete:
		if r.URL.Query().Get("type") == "category" {
			reply(http.StatusForbidden, "System categories cannot be deleted", nil)
			return
		}
		reply(http.StatusOK, "Value deleted successfully", nil)
	}
}

func newFake(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	f := &fakeServer{}
	srv := httptest.NewServer(http.HandlerFunc(f.handler))
	t.Cleanup(srv.Close)
	return f, srv
}

func TestLoadAll_CachesSnapshot(t *testing.T) {
	f, srv := newFake(t)
	c := New(srv.URL, WithToken("tok"))
	ctx := context.Background()

	snap, err := c.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if snap.InstitutionType != "School" || len(snap.Dropdowns) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	if _, err := c.LoadAll(ctx); err != nil {
		t.Fatal(err)
	}
	if n := f.bulkCalls.Load(); n != 1 {
		t.Errorf("bulk calls = %d, want 1", n)
	}
	if auth := f.lastAuth.Load(); auth != "Bearer tok" {
		t.Errorf("Authorization = %v", auth)
	}
}

func TestLoadAll_ExpiresAfterTTL(t *testing.T) {
	f, srv := newFake(t)
	c := New(srv.URL)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.LoadAll(ctx)
	now = now.Add(DefaultTTL - time.Second)
	c.LoadAll(ctx)
	if n := f.bulkCalls.Load(); n != 1 {
		t.Fatalf("bulk calls before expiry = %d", n)
	}

	now = now.Add(time.Second)
	c.LoadAll(ctx)
	if n := f.bulkCalls.Load(); n != 2 {
		t.Errorf("bulk calls after expiry = %d, want 2", n)
	}
}

func TestLoadAll_ConcurrentCallersShareRequest(t *testing.T) {
	f, srv := newFake(t)
	f.release = make(chan struct{})
	c := New(srv.URL)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.LoadAll(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}

	// let the first request reach the server before releasing it
	deadline := time.Now().Add(2 * time.Second)
	for f.bulkCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(f.release)
	wg.Wait()

	if n := f.bulkCalls.Load(); n != 1 {
		t.Errorf("bulk calls = %d, want 1", n)
	}
}

func TestLoadAll_AfterInvalidateDoesNotJoinEarlierRequest(t *testing.T) {
	f, srv := newFake(t)
	f.holdFirst = make(chan struct{})
	var once sync.Once
	open := func() { once.Do(func() { close(f.holdFirst) }) }
	t.Cleanup(open)
	c := New(srv.URL)

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		c.LoadAll(context.Background())
	}()
	deadline := time.Now().Add(2 * time.Second)
	for f.bulkCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	c.Invalidate()
	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		if _, err := c.LoadAll(context.Background()); err != nil {
			t.Error(err)
		}
	}()
	select {
	case <-secondDone:
	case <-time.After(2 * time.Second):
		open()
		t.Fatal("LoadAll after Invalidate reused the earlier in-flight request")
	}
	if n := f.bulkCalls.Load(); n != 2 {
		t.Errorf("bulk calls = %d, want 2", n)
	}

	open()
	<-firstDone
	c.LoadAll(context.Background())
	if n := f.bulkCalls.Load(); n != 2 {
		t.Errorf("snapshot from the later request should be cached: bulk calls = %d", n)
	}
}

func TestValuesAndCategoryName(t *testing.T) {
	_, srv := newFake(t)
	c := New(srv.URL)
	ctx := context.Background()

	values, err := c.Values(ctx, "gender")
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 2 || values[0].Value != "Male" {
		t.Errorf("gender values = %+v", values)
	}

	missing, err := c.Values(ctx, "nope")
	if err != nil || missing == nil || len(missing) != 0 {
		t.Errorf("unknown key = %v, %v", missing, err)
	}

	tests := map[string]string{
		"gender":          "Gender",
		"fee_type":        "Fee Type",
		"subject_college": "Subject College",
		"blood_group":     "Blood Group",
	}
	for key, want := range tests {
		if got := c.CategoryName(ctx, key); got != want {
			t.Errorf("CategoryName(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestCategoryName_FallsBackWhenUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))
	if got := c.CategoryName(context.Background(), "payment_mode"); got != "Payment Mode" {
		t.Errorf("CategoryName = %q", got)
	}
}

func TestWritesInvalidate(t *testing.T) {
	f, srv := newFake(t)
	c := New(srv.URL, WithInstitutionType("College"))
	ctx := context.Background()

	c.LoadAll(ctx)
	added, err := c.AddValue(ctx, "gender", "Other", nil, map[string]int{"order": 3})
	if err != nil {
		t.Fatalf("AddValue: %v", err)
	}
	if added.ID != 3 || added.CategoryName != "Gender" {
		t.Errorf("added = %+v", added)
	}
	if q, _ := f.lastQuery.Load().(string); q != "institution_type=College" {
		t.Errorf("query = %q", q)
	}

	c.LoadAll(ctx)
	if n := f.bulkCalls.Load(); n != 2 {
		t.Errorf("bulk calls after AddValue = %d, want 2", n)
	}

	cat, err := c.AddCategory(ctx, "club", "Club", nil, "")
	if err != nil || cat.ID != 10 || cat.CategoryKey != "club" {
		t.Fatalf("AddCategory = %+v, %v", cat, err)
	}
	if err := c.DeleteValue(ctx, 3); err != nil {
		t.Fatalf("DeleteValue: %v", err)
	}
	c.LoadAll(ctx)
	if n := f.bulkCalls.Load(); n != 3 {
		t.Errorf("bulk calls after deletes = %d, want 3", n)
	}
}

func TestWriteErrorsKeepCache(t *testing.T) {
	f, srv := newFake(t)
	c := New(srv.URL)
	ctx := context.Background()
	c.LoadAll(ctx)

	_, err := c.AddValue(ctx, "gender", "Male", nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict || apiErr.Message != "This value already exists in Gender" {
		t.Fatalf("AddValue duplicate err = %v", err)
	}

	err = c.DeleteCategory(ctx, 1)
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("DeleteCategory err = %v", err)
	}

	c.LoadAll(ctx)
	if n := f.bulkCalls.Load(); n != 1 {
		t.Errorf("failed writes must not invalidate: bulk calls = %d", n)
	}
}
