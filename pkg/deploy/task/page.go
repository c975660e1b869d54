package task

import (
	"context"

	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/errors"
)

// PageTask implements a Page's 1:1 build (spec.md §4.3): ensure the
// bucket, put its policy, sync the rendered directory, then ensure a
// CloudFront distribution fronts it.
type PageTask struct {
	Page  *compose.Page
	Cloud cloud.SiteRegistry
	act   event.Action
}

// NewPageTask builds a PageTask for the given action.
func NewPageTask(p *compose.Page, cl cloud.SiteRegistry, act event.Action) *PageTask {
	return &PageTask{Page: p, Cloud: cl, act: act}
}

func (t *PageTask) Name() string        { return "page:" + t.Page.Name }
func (t *PageTask) Action() event.Action { return t.act }

func (t *PageTask) Run(ctx context.Context, tc *Context) error {
	if t.act == event.DeleteAction {
		// Buckets carry uploaded content and a bound distribution; pages
		// are reconciled in place rather than torn down.
		emitDelete(tc, "pages", t.Page.Name, event.DeleteSkipped, "pages are reconciled in place, not deleted", nil)
		return nil
	}
	return t.createOrUpdate(ctx, tc)
}

func (t *PageTask) createOrUpdate(ctx context.Context, tc *Context) error {
	if err := t.Cloud.EnsureBucket(ctx, t.Page.Bucket); err != nil {
		emitApply(tc, "pages", t.Page.Name, event.Updated, err)
		return &errors.ProviderError{Entity: t.Page.Name, Operation: "EnsureBucket", Err: err}
	}

	if len(t.Page.BucketPolicy) > 0 {
		if err := t.Cloud.PutBucketPolicy(ctx, t.Page.Bucket, t.Page.BucketPolicy); err != nil {
			emitApply(tc, "pages", t.Page.Name, event.Updated, err)
			return &errors.ProviderError{Entity: t.Page.Name, Operation: "PutBucketPolicy", Err: err}
		}
	}

	if t.Page.Dir != "" {
		if err := t.Cloud.SyncDir(ctx, t.Page.Bucket, t.Page.Dir); err != nil {
			emitApply(tc, "pages", t.Page.Name, event.Updated, err)
			return &errors.ProviderError{Entity: t.Page.Name, Operation: "SyncDir", Err: err}
		}
	}

	distID, err := t.Cloud.EnsureDistribution(ctx, t.Page.Bucket)
	if err != nil {
		emitApply(tc, "pages", t.Page.Name, event.Updated, err)
		return &errors.ProviderError{Entity: t.Page.Name, Operation: "EnsureDistribution", Err: err}
	}

	tc.SetARN(t.Name(), distID)
	emitApply(tc, "pages", t.Page.Name, event.Updated, nil)
	return nil
}
