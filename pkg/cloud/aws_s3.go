package cloud

import (
	"context"
	"encoding/json"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func (a *AWS) EnsureBucket(ctx context.Context, name string) error {
	_, err := a.S3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: awssdk.String(name)})
	if err == nil {
		return nil
	}
	_, err = a.S3.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: awssdk.String(name)})
	if err != nil {
		if _, ok := err.(*types.BucketAlreadyOwnedByYou); ok {
			return nil
		}
		return err
	}
	return nil
}

func (a *AWS) PutBucketPolicy(ctx context.Context, name string, policy map[string]any) error {
	data, err := json.Marshal(policy)
	if err != nil {
		return err
	}
	_, err = a.S3.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: awssdk.String(name),
		Policy: awssdk.String(string(data)),
	})
	return err
}

// SyncDir uploads every regular file under dir to bucket, keyed by its
// path relative to dir (spec.md §4.5 Page deploy).
func (a *AWS) SyncDir(ctx context.Context, bucket, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
		input := &s3.PutObjectInput{
			Bucket: awssdk.String(bucket),
			Key:    awssdk.String(key),
			Body:   f,
		}
		if contentType != "" {
			input.ContentType = awssdk.String(contentType)
		}
		_, err = a.S3.PutObject(ctx, input)
		return err
	})
}

func (a *AWS) EnsureDistribution(ctx context.Context, bucket string) (string, error) {
	list, err := a.CloudFront.ListDistributions(ctx, &cloudfront.ListDistributionsInput{})
	if err != nil {
		return "", err
	}
	if list.DistributionList != nil {
		for _, d := range list.DistributionList.Items {
			if d.Origins != nil {
				for _, o := range d.Origins.Items {
					if strings.HasPrefix(awssdk.ToString(o.DomainName), bucket+".") {
						return awssdk.ToString(d.Id), nil
					}
				}
			}
		}
	}
	originID := bucket + "-origin"
	out, err := a.CloudFront.CreateDistribution(ctx, &cloudfront.CreateDistributionInput{
		DistributionConfig: &cftypes.DistributionConfig{
			CallerReference: awssdk.String(bucket),
			Comment:         awssdk.String(bucket),
			Enabled:         awssdk.Bool(true),
			DefaultRootObject: awssdk.String("index.html"),
			Origins: &cftypes.Origins{
				Quantity: awssdk.Int32(1),
				Items: []cftypes.Origin{
					{
						Id:         awssdk.String(originID),
						DomainName: awssdk.String(bucket + ".s3.amazonaws.com"),
						S3OriginConfig: &cftypes.S3OriginConfig{
							OriginAccessIdentity: awssdk.String(""),
						},
					},
				},
			},
			DefaultCacheBehavior: &cftypes.DefaultCacheBehavior{
				TargetOriginId:       awssdk.String(originID),
				ViewerProtocolPolicy: cftypes.ViewerProtocolPolicyRedirectToHttps,
				AllowedMethods: &cftypes.AllowedMethods{
					Quantity: awssdk.Int32(2),
					Items:    []cftypes.Method{cftypes.MethodGet, cftypes.MethodHead},
				},
				ForwardedValues: &cftypes.ForwardedValues{
					QueryString: awssdk.Bool(false),
					Cookies:     &cftypes.CookiePreference{Forward: cftypes.ItemSelectionNone},
				},
				MinTTL: awssdk.Int64(0),
			},
		},
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.Distribution.Id), nil
}
