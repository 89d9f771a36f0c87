package background

import (
	"context"
	"log"
	"time"

	"critterlog/internal/caching"
	"critterlog/internal/repositories"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler runs the periodic maintenance jobs. None of them write
// subscription rows; the billing webhook stays the sole writer.
type JobScheduler struct {
	scheduler        gocron.Scheduler
	subscriptionRepo repositories.SubscriptionRepository
	cacheSvc         caching.CacheService
	jobs             map[string]gocron.Job
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(subscriptionRepo repositories.SubscriptionRepository, cacheSvc caching.CacheService) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:        scheduler,
		subscriptionRepo: subscriptionRepo,
		cacheSvc:         cacheSvc,
		jobs:             make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Billing drift report - hourly
	driftJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.reportBillingDrift, context.Background()),
		gocron.WithName("billing-drift-report"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create billing drift job: %v", err)
	} else {
		js.jobs["billing-drift"] = driftJob
	}

	// Entitlement cache sweep - nightly
	sweepJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.sweepEntitlementCache, context.Background()),
		gocron.WithName("entitlement-cache-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create cache sweep job: %v", err)
	} else {
		js.jobs["cache-sweep"] = sweepJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// reportBillingDrift flags subscriptions still marked active after their
// billing period ended. A non-empty report usually means missed webhooks;
// the log line is the operator's cue to replay deliveries from the Stripe
// dashboard. Deliberately read-only.
func (js *JobScheduler) reportBillingDrift(ctx context.Context) error {
	stale, err := js.subscriptionRepo.ListExpiredActive(ctx, 100)
	if err != nil {
		log.Printf("Failed to check billing drift: %v", err)
		return err
	}

	if len(stale) == 0 {
		return nil
	}

	log.Printf("ALERT: %d subscriptions are active past their period end (possible missed webhooks)", len(stale))
	for _, subscription := range stale {
		log.Printf("  user=%s subscription=%v period_end=%v updated_at=%v",
			subscription.UserID.String(), subscription.StripeSubscriptionID, subscription.CurrentPeriodEnd, subscription.UpdatedAt)
	}
	return nil
}

// sweepEntitlementCache drops every cached entitlement so stale plan reads
// cannot outlive the TTL indefinitely on a busy cache. Clears cache keys
// only; subscription rows are untouched.
func (js *JobScheduler) sweepEntitlementCache(ctx context.Context) error {
	removed, err := js.cacheSvc.SweepSubscriptionCache(ctx)
	if err != nil {
		log.Printf("Failed to sweep entitlement cache: %v", err)
		return err
	}

	if removed > 0 {
		log.Printf("Entitlement cache sweep removed %d cached entries", removed)
	}
	return nil
}
