package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"storybook/internal/domain"
	"storybook/internal/infra"
	"storybook/internal/pdf"
	"storybook/internal/providers/image"
	"storybook/internal/stories"
)

// fallbackFeatures stands in for the face analysis when the vision model is
// unavailable. A degraded description beats a dead preview.
const fallbackFeatures = "a cute child"

// orderDownloadWindow is how long a completed book stays downloadable.
const orderDownloadWindow = 30 * 24 * time.Hour

const pageAspectRatio = "3:4"

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Previews  domain.PreviewRepository
	Jobs      domain.JobRepository
	Orders    domain.OrderRepository
	Generator image.Generator
	Themes    *stories.Registry
	Blobs     BlobStore
	PDF       PDFAssembler
	Notifier  Notifier
	Config    Config
	Logger    infra.Logger
}

// Orchestrator drives both generation runs. It holds no per-run state; all
// progress lives in the preview, job and order records so a crashed run can
// be diagnosed from the database alone.
type Orchestrator struct {
	previews  domain.PreviewRepository
	jobs      domain.JobRepository
	orders    domain.OrderRepository
	generator image.Generator
	themes    *stories.Registry
	blobs     BlobStore
	pdf       PDFAssembler
	notifier  Notifier
	cfg       Config
	logger    infra.Logger

	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time
}

// New constructs the orchestrator.
func New(d Deps) *Orchestrator {
	o := &Orchestrator{
		previews:  d.Previews,
		jobs:      d.Jobs,
		orders:    d.Orders,
		generator: d.Generator,
		themes:    d.Themes,
		blobs:     d.Blobs,
		pdf:       d.PDF,
		notifier:  d.Notifier,
		cfg:       d.Config,
		logger:    d.Logger,
		now:       time.Now,
	}
	o.sleep = func(ctx context.Context, dur time.Duration) {
		t := time.NewTimer(dur)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
	return o
}

// RunPreview executes the preview run for a freshly created book request:
// analyze the face once, generate the cover and the first pages, and
// activate the preview. A page failure skips that page; the run only fails
// outright when not a single page could be produced.
func (o *Orchestrator) RunPreview(ctx context.Context, previewID, jobID string) {
	log := o.logger.With().Str("preview_id", previewID).Str("job_id", jobID).Logger()

	preview, err := o.previews.GetByID(ctx, previewID)
	if err != nil {
		log.Error().Err(err).Msg("pipeline: load preview")
		o.failJob(ctx, jobID, "internal error loading the request")
		return
	}
	theme, err := o.themes.Get(preview.Request.Theme)
	if err != nil {
		log.Error().Err(err).Msg("pipeline: resolve theme")
		o.failPreviewRun(ctx, preview.ID, jobID, "unknown story theme")
		return
	}

	o.updateJob(ctx, jobID, domain.JobStatusProcessing, 5, "Analyzing your photo")
	o.markAttempt(ctx, jobID, 1)

	features, err := o.generator.AnalyzeFace(ctx, preview.Request.PhotoURL)
	if err != nil || strings.TrimSpace(features) == "" {
		log.Warn().Err(err).Msg("pipeline: face analysis unavailable, using fallback")
		features = fallbackFeatures
	}
	preview.AnalyzedFeatures = features
	if err := o.previews.Update(ctx, preview.ID, domain.PreviewUpdate{AnalyzedFeatures: &features}); err != nil {
		log.Error().Err(err).Msg("pipeline: persist analyzed features")
	}

	o.updateJob(ctx, jobID, domain.JobStatusProcessing, 10, "Designing the cover")
	if url, ok := o.generateCover(ctx, preview, theme, log); ok {
		preview.CoverURL = url
		if err := o.previews.Update(ctx, preview.ID, domain.PreviewUpdate{CoverURL: &url}); err != nil {
			log.Error().Err(err).Msg("pipeline: persist cover url")
		}
	}

	total := o.cfg.PreviewPages
	for i := 1; i <= total; i++ {
		pct := 15 + ((i-1)*75)/total
		o.updateJob(ctx, jobID, domain.JobStatusProcessing, pct,
			fmt.Sprintf("Illustrating page %d of %d", i, total))

		result, ok := o.generatePage(ctx, preview, theme, i, log)
		if !ok {
			continue
		}
		preview.Pages = append(preview.Pages, result)
		if err := o.previews.Update(ctx, preview.ID, domain.PreviewUpdate{Pages: preview.Pages}); err != nil {
			log.Error().Err(err).Int("page", i).Msg("pipeline: persist page")
		}
	}

	if len(preview.Pages) == 0 {
		log.Error().Msg("pipeline: every preview page failed")
		o.failPreviewRun(ctx, preview.ID, jobID, "image generation is unavailable right now, please try again later")
		return
	}

	status := domain.PreviewStatusActive
	phase := domain.PhasePreview
	if err := o.previews.Update(ctx, preview.ID, domain.PreviewUpdate{Status: &status, Phase: &phase}); err != nil {
		log.Error().Err(err).Msg("pipeline: activate preview")
		o.failJob(ctx, jobID, "internal error saving the preview")
		return
	}

	previewURL := o.cfg.FrontendURL + "/previews/" + preview.ID
	result, _ := json.Marshal(map[string]any{
		"preview_id":  preview.ID,
		"pages":       len(preview.Pages),
		"preview_url": previewURL,
	})
	o.completeJob(ctx, jobID, result)
	log.Info().Int("pages", len(preview.Pages)).Msg("pipeline: preview ready")

	if preview.NotifyOnComplete && preview.CustomerEmail != "" {
		if err := o.notifier.SendPreviewReady(ctx, preview.CustomerEmail, preview.Request.ChildName, previewURL); err != nil {
			log.Warn().Err(err).Msg("pipeline: preview-ready email failed")
		}
	}
}

// CompleteBook executes the post-payment run: fill in every page the preview
// run did not produce, assemble the PDF, and finalize the order. Pages that
// already exist are never regenerated. Missing pages are retried across the
// whole run with exponential backoff before the order is failed.
func (o *Orchestrator) CompleteBook(ctx context.Context, orderID, jobID string) {
	log := o.logger.With().Str("order_id", orderID).Str("job_id", jobID).Logger()

	order, err := o.orders.GetByID(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Msg("pipeline: load order")
		o.failJob(ctx, jobID, "internal error loading the order")
		return
	}
	if order.Status == domain.OrderStatusCompleted {
		log.Info().Msg("pipeline: order already completed, nothing to do")
		o.completeJob(ctx, jobID, nil)
		return
	}

	preview, err := o.previews.GetByID(ctx, order.PreviewID)
	if err != nil {
		log.Error().Err(err).Msg("pipeline: load preview for order")
		o.failOrderRun(ctx, order, preview, jobID, 0, "internal error loading the book")
		return
	}
	theme, err := o.themes.Get(preview.Request.Theme)
	if err != nil {
		log.Error().Err(err).Msg("pipeline: resolve theme for order")
		o.failOrderRun(ctx, order, preview, jobID, 0, "unknown story theme")
		return
	}

	phase := domain.PhaseGeneratingFull
	if err := o.previews.Update(ctx, preview.ID, domain.PreviewUpdate{Phase: &phase}); err != nil {
		log.Error().Err(err).Msg("pipeline: mark generating_full")
	}
	o.updateJob(ctx, jobID, domain.JobStatusProcessing, 10, "Preparing the full book")

	attempts := 0
	for attempt := 1; attempt <= o.cfg.MaxRetries; attempt++ {
		attempts = attempt
		o.markAttempt(ctx, jobID, attempt)
		missing := o.missingPages(preview)
		if len(missing) == 0 {
			break
		}
		log.Info().Int("attempt", attempt).Ints("missing", missing).Msg("pipeline: completion pass")

		// Best effort only; a book without a cover falls back to page 1.
		if preview.CoverURL == "" {
			if url, ok := o.generateCover(ctx, preview, theme, log); ok {
				preview.CoverURL = url
				if err := o.previews.Update(ctx, preview.ID, domain.PreviewUpdate{CoverURL: &url}); err != nil {
					log.Error().Err(err).Msg("pipeline: persist cover url")
				}
			}
		}

		// The first failed page aborts the whole attempt. Pages already
		// persisted stay; the next attempt resumes from what is missing.
		for _, n := range missing {
			done := len(preview.Pages)
			pct := 15 + (done*75)/o.cfg.TotalPages
			o.updateJob(ctx, jobID, domain.JobStatusProcessing, pct,
				fmt.Sprintf("Illustrating page %d of %d", n, o.cfg.TotalPages))

			result, ok := o.generatePage(ctx, preview, theme, n, log)
			if !ok {
				break
			}
			preview.Pages = append(preview.Pages, result)
			if err := o.previews.Update(ctx, preview.ID, domain.PreviewUpdate{Pages: preview.Pages}); err != nil {
				log.Error().Err(err).Int("page", n).Msg("pipeline: persist page")
			}
		}

		if len(o.missingPages(preview)) == 0 {
			break
		}
		if attempt < o.cfg.MaxRetries {
			backoff := time.Duration(1<<attempt) * time.Second
			log.Warn().Int("attempt", attempt).Dur("backoff", backoff).Msg("pipeline: pages still missing, backing off")
			o.sleep(ctx, backoff)
		}
	}

	if missing := o.missingPages(preview); len(missing) > 0 {
		msg := fmt.Sprintf("%d pages could not be generated after %d attempts", len(missing), attempts)
		log.Error().Ints("missing", missing).Msg("pipeline: completion run exhausted retries")
		o.failOrderRun(ctx, order, preview, jobID, attempts, msg)
		return
	}

	status := domain.OrderStatusGeneratingPDF
	if err := o.orders.Update(ctx, order.ID, domain.OrderUpdate{Status: &status}); err != nil {
		log.Error().Err(err).Msg("pipeline: mark generating_pdf")
	}
	o.updateJob(ctx, jobID, domain.JobStatusProcessing, 92, "Assembling your book")

	pdfURL, err := o.pdf.Generate(ctx, o.assemblyRequest(preview, theme))
	if err != nil {
		log.Error().Err(err).Msg("pipeline: pdf assembly failed")
		o.failOrderRun(ctx, order, preview, jobID, attempts, "the book could not be assembled, support has been notified")
		return
	}

	pStatus := domain.PreviewStatusPurchased
	pPhase := domain.PhaseComplete
	totalPages := len(preview.Pages)
	if err := o.previews.Update(ctx, preview.ID, domain.PreviewUpdate{
		Status: &pStatus, Phase: &pPhase, PDFURL: &pdfURL, TotalPageCount: &totalPages,
	}); err != nil {
		log.Error().Err(err).Msg("pipeline: finalize preview")
		o.failJob(ctx, jobID, "internal error saving the book")
		return
	}

	oStatus := domain.OrderStatusCompleted
	expires := o.now().UTC().Add(orderDownloadWindow)
	retries := attempts
	if err := o.orders.Update(ctx, order.ID, domain.OrderUpdate{
		Status: &oStatus, PDFURL: &pdfURL, RetryCount: &retries, ExpiresAt: &expires,
	}); err != nil {
		log.Error().Err(err).Msg("pipeline: finalize order")
		o.failJob(ctx, jobID, "internal error saving the order")
		return
	}

	downloadURL := o.cfg.FrontendURL + "/orders/" + order.ID + "/download"
	resultJSON, _ := json.Marshal(map[string]any{
		"order_id":     order.ID,
		"pages":        totalPages,
		"download_url": downloadURL,
	})
	o.completeJob(ctx, jobID, resultJSON)
	log.Info().Int("pages", totalPages).Int("attempts", attempts).Msg("pipeline: book completed")

	if order.CustomerEmail != "" {
		title := theme.Title(preview.Request.ChildName)
		if err := o.notifier.SendBookReady(ctx, order.CustomerEmail, preview.Request.ChildName, title, downloadURL); err != nil {
			log.Warn().Err(err).Msg("pipeline: book-ready email failed")
		}
	}
}

// generatePage runs one provider call for a page and stores the resulting
// image. A false return means the page stays missing; the caller decides
// whether that is tolerable.
func (o *Orchestrator) generatePage(ctx context.Context, preview *domain.Preview, theme *stories.Theme, pageNum int, log infra.Logger) (domain.PageResult, bool) {
	var tplPage *stories.Page
	for i := range theme.Pages {
		if theme.Pages[i].Number == pageNum {
			tplPage = &theme.Pages[i]
			break
		}
	}
	if tplPage == nil {
		log.Error().Int("page", pageNum).Str("theme", theme.ID).Msg("pipeline: theme has no such page")
		return domain.PageResult{}, false
	}

	prompt := image.BuildLayeredPrompt(tplPage.Prompt, preview.Request.ChildName, preview.AnalyzedFeatures)
	outcome := o.generator.Generate(ctx, image.GenerateRequest{
		Prompt:           prompt,
		FaceImageURL:     preview.Request.PhotoURL,
		AnalyzedFeatures: preview.AnalyzedFeatures,
		AspectRatio:      pageAspectRatio,
		Seed:             preview.Request.Seed,
		RequestID:        fmt.Sprintf("%s-page-%02d", preview.ID, pageNum),
	})
	if !outcome.Success {
		log.Warn().Int("page", pageNum).Str("reason", string(outcome.Reason)).Str("detail", outcome.Message).Msg("pipeline: page generation failed")
		return domain.PageResult{}, false
	}

	key := fmt.Sprintf("final/%s/page_%02d.jpg", preview.ID, pageNum)
	stored, err := o.blobs.DownloadAndStore(ctx, outcome.ImageURL, key)
	if err != nil {
		log.Warn().Err(err).Int("page", pageNum).Msg("pipeline: copy to storage failed")
		return domain.PageResult{}, false
	}

	previewURL := stored
	if pageNum <= o.cfg.PreviewPages {
		previewKey := fmt.Sprintf("previews/%s/page_%02d.jpg", preview.ID, pageNum)
		if url, err := o.blobs.DownloadAndStore(ctx, outcome.ImageURL, previewKey); err == nil {
			previewURL = url
		} else {
			log.Warn().Err(err).Int("page", pageNum).Msg("pipeline: preview copy failed, serving final image")
		}
	}

	return domain.PageResult{
		Page:       pageNum,
		ImageURL:   stored,
		SourceURL:  outcome.ImageURL,
		PreviewURL: previewURL,
		StoryText:  theme.StoryTextFor(pageNum, preview.Request.ChildName),
		Prompt:     prompt,
		LatencyMS:  outcome.Latency.Milliseconds(),
		Cost:       outcome.Cost,
	}, true
}

// generateCover produces and stores the cover image. Cover failures never
// fail a run; a book without a cover is still sellable.
func (o *Orchestrator) generateCover(ctx context.Context, preview *domain.Preview, theme *stories.Theme, log infra.Logger) (string, bool) {
	prompt := image.BuildLayeredPrompt(theme.CoverPrompt, preview.Request.ChildName, preview.AnalyzedFeatures)
	outcome := o.generator.Generate(ctx, image.GenerateRequest{
		Prompt:           prompt,
		FaceImageURL:     preview.Request.PhotoURL,
		AnalyzedFeatures: preview.AnalyzedFeatures,
		AspectRatio:      pageAspectRatio,
		Seed:             preview.Request.Seed,
		RequestID:        preview.ID + "-cover",
	})
	if !outcome.Success {
		log.Warn().Str("reason", string(outcome.Reason)).Str("detail", outcome.Message).Msg("pipeline: cover generation failed")
		return "", false
	}
	stored, err := o.blobs.DownloadAndStore(ctx, outcome.ImageURL, fmt.Sprintf("final/%s/cover.jpg", preview.ID))
	if err != nil {
		log.Warn().Err(err).Msg("pipeline: cover copy to storage failed")
		return "", false
	}
	return stored, true
}

// missingPages lists the page numbers the full book still lacks, ascending.
func (o *Orchestrator) missingPages(preview *domain.Preview) []int {
	var missing []int
	for n := 1; n <= o.cfg.TotalPages; n++ {
		if !preview.HasPage(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

func (o *Orchestrator) assemblyRequest(preview *domain.Preview, theme *stories.Theme) pdf.Request {
	pages := make([]domain.PageResult, len(preview.Pages))
	copy(pages, preview.Pages)
	sort.Slice(pages, func(i, j int) bool { return pages[i].Page < pages[j].Page })

	// When no cover could be generated the first page stands in for it.
	coverURL := preview.CoverURL
	if coverURL == "" && len(pages) > 0 {
		coverURL = pages[0].ImageURL
	}

	req := pdf.Request{
		PreviewID: preview.ID,
		ChildName: preview.Request.ChildName,
		Title:     theme.Title(preview.Request.ChildName),
		CoverURL:  coverURL,
	}
	for _, p := range pages {
		req.Pages = append(req.Pages, pdf.Page{
			Page:      p.Page,
			ImageURL:  p.ImageURL,
			StoryText: p.StoryText,
		})
	}
	return req
}

func (o *Orchestrator) updateJob(ctx context.Context, jobID string, status domain.JobStatus, progress int, step string) {
	if err := o.jobs.Update(ctx, jobID, domain.JobUpdate{
		Status:      &status,
		Progress:    &progress,
		CurrentStep: &step,
	}); err != nil {
		o.logger.Error().Err(err).Str("job_id", jobID).Msg("pipeline: update job")
	}
}

// markAttempt records which completion pass the job is on.
func (o *Orchestrator) markAttempt(ctx context.Context, jobID string, attempt int) {
	if err := o.jobs.Update(ctx, jobID, domain.JobUpdate{Attempts: &attempt}); err != nil {
		o.logger.Error().Err(err).Str("job_id", jobID).Msg("pipeline: record attempt")
	}
}

func (o *Orchestrator) completeJob(ctx context.Context, jobID string, resultJSON []byte) {
	status := domain.JobStatusCompleted
	progress := 100
	step := "Done"
	if err := o.jobs.Update(ctx, jobID, domain.JobUpdate{
		Status:      &status,
		Progress:    &progress,
		CurrentStep: &step,
		ResultJSON:  resultJSON,
	}); err != nil {
		o.logger.Error().Err(err).Str("job_id", jobID).Msg("pipeline: complete job")
	}
}

func (o *Orchestrator) failJob(ctx context.Context, jobID, message string) {
	status := domain.JobStatusFailed
	if err := o.jobs.Update(ctx, jobID, domain.JobUpdate{
		Status:       &status,
		ErrorMessage: &message,
	}); err != nil {
		o.logger.Error().Err(err).Str("job_id", jobID).Msg("pipeline: fail job")
	}
}

// failPreviewRun marks both the preview and its job failed.
func (o *Orchestrator) failPreviewRun(ctx context.Context, previewID, jobID, message string) {
	status := domain.PreviewStatusFailed
	phase := domain.PhaseFailed
	if err := o.previews.Update(ctx, previewID, domain.PreviewUpdate{Status: &status, Phase: &phase}); err != nil {
		o.logger.Error().Err(err).Str("preview_id", previewID).Msg("pipeline: fail preview")
	}
	o.failJob(ctx, jobID, message)
}

// failOrderRun marks the order failed and rolls the preview phase back out
// of generating_full. Already generated pages are kept; a support-driven
// re-run resumes from them.
func (o *Orchestrator) failOrderRun(ctx context.Context, order *domain.Order, preview *domain.Preview, jobID string, retries int, message string) {
	status := domain.OrderStatusFailed
	if err := o.orders.Update(ctx, order.ID, domain.OrderUpdate{
		Status:       &status,
		RetryCount:   &retries,
		ErrorMessage: &message,
	}); err != nil {
		o.logger.Error().Err(err).Str("order_id", order.ID).Msg("pipeline: fail order")
	}
	if preview != nil {
		phase := domain.PhaseFailed
		if err := o.previews.Update(ctx, preview.ID, domain.PreviewUpdate{Phase: &phase}); err != nil {
			o.logger.Error().Err(err).Str("preview_id", preview.ID).Msg("pipeline: fail preview phase")
		}
	}
	o.failJob(ctx, jobID, message)
}
