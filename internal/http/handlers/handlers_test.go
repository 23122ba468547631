package handlers_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"storybook/internal/domain"
	"storybook/internal/http/handlers"
	"storybook/internal/http/httpapi"
	"storybook/internal/infra"
	"storybook/internal/stories"
)

// ---- in-memory repositories ----

type memPreviews struct {
	mu   sync.Mutex
	rows map[string]*domain.Preview
}

func (m *memPreviews) Create(_ context.Context, p *domain.Preview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memPreviews) GetByID(_ context.Context, id string) (*domain.Preview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	cp.Pages = append([]domain.PageResult(nil), p.Pages...)
	return &cp, nil
}

func (m *memPreviews) Update(_ context.Context, id string, upd domain.PreviewUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.Phase != nil {
		p.Phase = *upd.Phase
	}
	if upd.Pages != nil {
		p.Pages = append([]domain.PageResult(nil), upd.Pages...)
	}
	if upd.PDFURL != nil {
		p.PDFURL = *upd.PDFURL
	}
	return nil
}

func (m *memPreviews) MarkExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type memJobs struct {
	mu   sync.Mutex
	rows map[string]*domain.Job
}

func (m *memJobs) Create(_ context.Context, j *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	m.rows[j.ID] = &cp
	return nil
}

func (m *memJobs) GetByID(_ context.Context, id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobs) Update(_ context.Context, id string, upd domain.JobUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if upd.Status != nil {
		j.Status = *upd.Status
	}
	if upd.Progress != nil {
		j.Progress = *upd.Progress
	}
	if upd.CurrentStep != nil {
		j.CurrentStep = *upd.CurrentStep
	}
	return nil
}

type memOrders struct {
	mu   sync.Mutex
	rows map[string]*domain.Order
}

func (m *memOrders) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[o.ID]; ok {
		return domain.ErrDuplicateOrder
	}
	cp := *o
	m.rows[o.ID] = &cp
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	return ok, nil
}

func (m *memOrders) Update(_ context.Context, id string, upd domain.OrderUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if upd.Status != nil {
		o.Status = *upd.Status
	}
	return nil
}

// ---- runner, dispatcher and storage fakes ----

type runCall struct {
	kind string
	id   string
	job  string
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []runCall
}

func (r *fakeRunner) RunPreview(_ context.Context, previewID, jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, runCall{kind: "preview", id: previewID, job: jobID})
}

func (r *fakeRunner) CompleteBook(_ context.Context, orderID, jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, runCall{kind: "complete", id: orderID, job: jobID})
}

// syncDispatcher runs dispatched work inline so tests see its effects.
type syncDispatcher struct{}

func (syncDispatcher) Dispatch(_ string, fn func(ctx context.Context)) {
	fn(context.Background())
}

type fakeBlobs struct{}

func (fakeBlobs) DownloadAndStore(_ context.Context, _ string, key string) (string, error) {
	return "https://storage.test/" + key, nil
}

func (fakeBlobs) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/" + key + "?signed=1", nil
}

// ---- fixture ----

type fixture struct {
	previews *memPreviews
	jobs     *memJobs
	orders   *memOrders
	runner   *fakeRunner
	router   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &infra.Config{
		AppEnv:               "test",
		FrontendURL:          "https://shop.test",
		WebhookSecret:        "test-webhook-secret",
		PreviewPages:         5,
		TotalPages:           10,
		MaxCompletionRetries: 3,
		PreviewTTL:           7 * 24 * time.Hour,
		RateLimitPerMin:      1000,
	}
	f := &fixture{
		previews: &memPreviews{rows: map[string]*domain.Preview{}},
		jobs:     &memJobs{rows: map[string]*domain.Job{}},
		orders:   &memOrders{rows: map[string]*domain.Order{}},
		runner:   &fakeRunner{},
	}
	logger := zerolog.New(io.Discard)
	app := &handlers.App{
		Previews:     f.previews,
		Jobs:         f.jobs,
		Orders:       f.orders,
		Themes:       stories.NewRegistry(),
		Orchestrator: f.runner,
		Dispatcher:   syncDispatcher{},
		Blobs:        fakeBlobs{},
		Config:       cfg,
		Logger:       logger,
	}
	f.router = httpapi.NewRouter(app, cfg, logger)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte("test-webhook-secret"))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (f *fixture) seedPreview(t *testing.T, status domain.PreviewStatus, pages int) {
	t.Helper()
	now := time.Now().UTC()
	p := &domain.Preview{
		ID:               "prev-1",
		Request:          domain.BookRequest{ChildName: "Mia", PhotoURL: "https://cdn.test/face.jpg", Theme: "enchanted_forest"},
		Status:           status,
		Phase:            domain.PhasePreview,
		PreviewPageCount: 5,
		TotalPageCount:   10,
		CreatedAt:        now,
		ExpiresAt:        now.Add(7 * 24 * time.Hour),
	}
	for n := 1; n <= pages; n++ {
		p.Pages = append(p.Pages, domain.PageResult{
			Page:       n,
			ImageURL:   "https://storage.test/final/prev-1/full.jpg",
			PreviewURL: "https://storage.test/previews/prev-1/small.jpg",
			StoryText:  "once upon a time",
		})
	}
	if status == domain.PreviewStatusPurchased {
		p.PDFURL = "https://pdf.test/prev-1.pdf"
	}
	if err := f.previews.Create(context.Background(), p); err != nil {
		t.Fatalf("seed preview: %v", err)
	}
}

// ---- previews ----

func TestCreatePreview(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"child_name":"  M1a! ","child_age":4,"photo_url":"https://cdn.test/face.jpg","theme":"enchanted_forest","customer_email":"parent@example.com","notify_on_complete":true}`)

	rec := f.do(t, http.MethodPost, "/v1/previews/", body, map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	previewID, _ := resp["preview_id"].(string)
	jobID, _ := resp["job_id"].(string)
	if previewID == "" || jobID == "" {
		t.Fatalf("response missing ids: %v", resp)
	}

	p, err := f.previews.GetByID(context.Background(), previewID)
	if err != nil {
		t.Fatalf("preview not persisted: %v", err)
	}
	if p.Request.ChildName != "Ma" {
		t.Fatalf("child name = %q, want sanitized", p.Request.ChildName)
	}
	if p.Status != domain.PreviewStatusGenerating {
		t.Fatalf("status = %q, want generating", p.Status)
	}
	if !p.NotifyOnComplete {
		t.Fatalf("notify flag not carried")
	}

	if _, err := f.jobs.GetByID(context.Background(), jobID); err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if len(f.runner.calls) != 1 || f.runner.calls[0].kind != "preview" || f.runner.calls[0].id != previewID {
		t.Fatalf("runner calls = %v", f.runner.calls)
	}
}

func TestCreatePreviewValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing photo", `{"child_name":"Mia","theme":"enchanted_forest"}`},
		{"bad photo scheme", `{"child_name":"Mia","photo_url":"ftp://x/face.jpg","theme":"enchanted_forest"}`},
		{"unknown theme", `{"child_name":"Mia","photo_url":"https://cdn.test/face.jpg","theme":"volcano_base"}`},
		{"not json", `{{{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/v1/previews/", []byte(tc.body), nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
	if len(f.runner.calls) != 0 {
		t.Fatalf("no runs expected for rejected requests")
	}
}

func TestGetPreviewLimitsPagesBeforePurchase(t *testing.T) {
	f := newFixture(t)
	f.seedPreview(t, domain.PreviewStatusActive, 10)

	rec := f.do(t, http.MethodGet, "/v1/previews/prev-1", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	pages, _ := resp["pages"].([]any)
	if len(pages) != 5 {
		t.Fatalf("pages = %d, want the 5 preview pages", len(pages))
	}
	first, _ := pages[0].(map[string]any)
	if first["image_url"] != "https://storage.test/previews/prev-1/small.jpg" {
		t.Fatalf("unpurchased preview must serve preview urls, got %v", first["image_url"])
	}
	if _, ok := resp["pdf_url"]; ok {
		t.Fatalf("pdf_url must not leak before purchase")
	}
}

func TestGetPreviewAfterPurchase(t *testing.T) {
	f := newFixture(t)
	f.seedPreview(t, domain.PreviewStatusPurchased, 10)

	rec := f.do(t, http.MethodGet, "/v1/previews/prev-1", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	pages, _ := resp["pages"].([]any)
	if len(pages) != 10 {
		t.Fatalf("pages = %d, want all 10 after purchase", len(pages))
	}
	if resp["pdf_url"] != "https://pdf.test/prev-1.pdf" {
		t.Fatalf("pdf_url = %v", resp["pdf_url"])
	}
}

func TestGetPreviewExpired(t *testing.T) {
	f := newFixture(t)
	f.seedPreview(t, domain.PreviewStatusExpired, 5)

	rec := f.do(t, http.MethodGet, "/v1/previews/prev-1", nil, nil)
	if rec.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", rec.Code)
	}
}

func TestGetPreviewNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/previews/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// ---- jobs ----

func TestGetJob(t *testing.T) {
	f := newFixture(t)
	if err := f.jobs.Create(context.Background(), &domain.Job{
		ID:          "job-1",
		TargetID:    "prev-1",
		Status:      domain.JobStatusProcessing,
		Progress:    45,
		CurrentStep: "Illustrating page 3 of 5",
	}); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	rec := f.do(t, http.MethodGet, "/v1/jobs/job-1", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["status"] != "processing" || resp["progress"] != float64(45) {
		t.Fatalf("job response = %v", resp)
	}

	rec = f.do(t, http.MethodGet, "/v1/jobs/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// ---- webhook ----

func paymentBody(event string) []byte {
	return []byte(`{"event":"` + event + `","order_id":"order-1","preview_id":"prev-1","customer_email":"parent@example.com","customer_name":"Jo"}`)
}

func TestPaymentWebhook(t *testing.T) {
	f := newFixture(t)
	f.seedPreview(t, domain.PreviewStatusActive, 5)
	body := paymentBody("payment.succeeded")

	rec := f.do(t, http.MethodPost, "/v1/webhooks/payment", body, map[string]string{"X-Webhook-Signature": sign(body)})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	o, err := f.orders.GetByID(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("order not created: %v", err)
	}
	if o.Status != domain.OrderStatusPaid {
		t.Fatalf("order status = %q, want paid", o.Status)
	}

	p, _ := f.previews.GetByID(context.Background(), "prev-1")
	if p.Status != domain.PreviewStatusPurchased {
		t.Fatalf("preview status = %q, want purchased", p.Status)
	}

	if len(f.runner.calls) != 1 || f.runner.calls[0].kind != "complete" || f.runner.calls[0].id != "order-1" {
		t.Fatalf("runner calls = %v", f.runner.calls)
	}
}

func TestPaymentWebhookBadSignature(t *testing.T) {
	f := newFixture(t)
	f.seedPreview(t, domain.PreviewStatusActive, 5)
	body := paymentBody("payment.succeeded")

	rec := f.do(t, http.MethodPost, "/v1/webhooks/payment", body, map[string]string{"X-Webhook-Signature": "deadbeef"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if ok, _ := f.orders.Exists(context.Background(), "order-1"); ok {
		t.Fatalf("order must not be created on bad signature")
	}

	rec = f.do(t, http.MethodPost, "/v1/webhooks/payment", body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for missing signature", rec.Code)
	}
}

func TestPaymentWebhookRedelivery(t *testing.T) {
	f := newFixture(t)
	f.seedPreview(t, domain.PreviewStatusActive, 5)
	body := paymentBody("payment.succeeded")
	headers := map[string]string{"X-Webhook-Signature": sign(body)}

	first := f.do(t, http.MethodPost, "/v1/webhooks/payment", body, headers)
	if first.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d", first.Code)
	}
	second := f.do(t, http.MethodPost, "/v1/webhooks/payment", body, headers)
	if second.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200", second.Code)
	}
	resp := decodeBody(t, second)
	if resp["status"] != "already_processed" {
		t.Fatalf("redelivery response = %v", resp)
	}
	if len(f.runner.calls) != 1 {
		t.Fatalf("completion must run once, got %d calls", len(f.runner.calls))
	}
}

func TestPaymentWebhookIgnoresOtherEvents(t *testing.T) {
	f := newFixture(t)
	body := paymentBody("payment.refund_requested")

	rec := f.do(t, http.MethodPost, "/v1/webhooks/payment", body, map[string]string{"X-Webhook-Signature": sign(body)})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["status"] != "ignored" {
		t.Fatalf("response = %v", resp)
	}
	if len(f.runner.calls) != 0 {
		t.Fatalf("ignored events must not start runs")
	}
}

func TestPaymentWebhookUnpurchasablePreview(t *testing.T) {
	f := newFixture(t)
	f.seedPreview(t, domain.PreviewStatusGenerating, 0)
	body := paymentBody("payment.succeeded")

	rec := f.do(t, http.MethodPost, "/v1/webhooks/payment", body, map[string]string{"X-Webhook-Signature": sign(body)})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestPaymentWebhookExpiredPreview(t *testing.T) {
	f := newFixture(t)
	f.seedPreview(t, domain.PreviewStatusExpired, 5)
	body := paymentBody("payment.succeeded")

	rec := f.do(t, http.MethodPost, "/v1/webhooks/payment", body, map[string]string{"X-Webhook-Signature": sign(body)})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

// ---- download ----

func seedOrder(t *testing.T, f *fixture, status domain.OrderStatus, pdfURL string, expires *time.Time) {
	t.Helper()
	if err := f.orders.Create(context.Background(), &domain.Order{
		ID:        "order-1",
		PreviewID: "prev-1",
		Status:    status,
		PDFURL:    pdfURL,
		ExpiresAt: expires,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func TestDownloadOrder(t *testing.T) {
	f := newFixture(t)
	future := time.Now().Add(24 * time.Hour)
	seedOrder(t, f, domain.OrderStatusCompleted, "https://pdf.test/prev-1.pdf", &future)

	rec := f.do(t, http.MethodGet, "/v1/orders/order-1/download", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["download_url"] != "https://pdf.test/prev-1.pdf" {
		t.Fatalf("download_url = %v", resp["download_url"])
	}
}

func TestDownloadOrderSignsStorageKeys(t *testing.T) {
	f := newFixture(t)
	seedOrder(t, f, domain.OrderStatusCompleted, "books/order-1.pdf", nil)

	rec := f.do(t, http.MethodGet, "/v1/orders/order-1/download", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["download_url"] != "https://storage.test/books/order-1.pdf?signed=1" {
		t.Fatalf("download_url = %v, want a signed url", resp["download_url"])
	}
}

func TestDownloadOrderNotReady(t *testing.T) {
	f := newFixture(t)
	seedOrder(t, f, domain.OrderStatusPaid, "", nil)

	rec := f.do(t, http.MethodGet, "/v1/orders/order-1/download", nil, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestDownloadOrderExpired(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour)
	seedOrder(t, f, domain.OrderStatusCompleted, "https://pdf.test/prev-1.pdf", &past)

	rec := f.do(t, http.MethodGet, "/v1/orders/order-1/download", nil, nil)
	if rec.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", rec.Code)
	}
}

func TestDownloadOrderNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/orders/nope/download", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
