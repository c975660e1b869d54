package compose

import "github.com/tc-functors/tc/pkg/topology"

// buildQueue, buildChannel, buildSchedule, buildPage are the
// straightforward 1:1 builders from spec.md §4.3.

func buildQueue(spec *topology.QueueSpec, name string) *Queue {
	q := &Queue{Name: spec.Name, VisibilityTimeout: spec.VisibilityTimeout, DLQ: spec.DLQ}
	if q.Name == "" {
		q.Name = name
	}
	if q.VisibilityTimeout == 0 {
		q.VisibilityTimeout = 30
	}
	return q
}

func buildChannel(spec *topology.ChannelSpec, name string) *Channel {
	ch := &Channel{Name: spec.Name, Endpoint: spec.Endpoint}
	if ch.Name == "" {
		ch.Name = name
	}
	return ch
}

func buildSchedule(spec *topology.ScheduleSpec, name string) *Schedule {
	s := &Schedule{Name: spec.Name, Cron: spec.Cron, Payload: spec.Payload, Function: spec.Function}
	if s.Name == "" {
		s.Name = name
	}
	return s
}

// buildPage composes a static page's bucket and a bucket policy
// statement referencing the CloudFront distribution id placeholder
// (bound once the distribution exists, per spec.md §4.3).
func buildPage(spec *topology.PageSpec, name, namespace string) *Page {
	p := &Page{Name: spec.Name, Bucket: spec.Bucket, Dir: spec.Dir}
	if p.Name == "" {
		p.Name = name
	}
	if p.Bucket == "" {
		p.Bucket = namespace + "-" + name + "-{{sandbox}}"
	}
	p.BucketPolicy = map[string]any{
		"Version": "2012-10-17",
		"Statement": []any{
			map[string]any{
				"Effect":    "Allow",
				"Principal": map[string]any{"Service": "cloudfront.amazonaws.com"},
				"Action":    "s3:GetObject",
				"Resource":  "arn:aws:s3:::" + p.Bucket + "/*",
				"Condition": map[string]any{
					"StringEquals": map[string]any{
						"AWS:SourceArn": "{{lazy_id}}",
					},
				},
			},
		},
	}
	return p
}
