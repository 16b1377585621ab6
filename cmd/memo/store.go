package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agentuity/go-memo/location"
	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "memo:snapshot"

// openLocation builds the location named by dsn. Remote locations retry
// transient failures. The returned closer releases any clients the location
// holds.
func openLocation(ctx context.Context, dsn string, s3cfg S3Config) (location.Location, func() error, error) {
	var locs []location.Location
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
	for _, part := range strings.Split(dsn, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		loc, closer, err := openOne(ctx, part, s3cfg)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		locs = append(locs, loc)
		if closer != nil {
			closers = append(closers, closer)
		}
	}
	switch len(locs) {
	case 0:
		return nil, nil, fmt.Errorf("empty store location %q", dsn)
	case 1:
		return locs[0], closeAll, nil
	}
	return location.NewChain(locs[0], locs[1:]...), closeAll, nil
}

func openOne(ctx context.Context, dsn string, s3cfg S3Config) (location.Location, func() error, error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		path, name, _ := strings.Cut(strings.TrimPrefix(dsn, "sqlite://"), "#")
		if path == "" {
			return nil, nil, fmt.Errorf("sqlite location %q has no file", dsn)
		}
		return location.NewSQLite(path, name), nil, nil

	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		addr, key, _ := strings.Cut(dsn, "#")
		if key == "" {
			key = defaultRedisKey
		}
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, nil, fmt.Errorf("error parsing redis url: %w", err)
		}
		client := redis.NewClient(opts)
		return location.NewRetry(location.NewRedis(client, key), location.DefaultRetryConfig()), client.Close, nil

	case strings.HasPrefix(dsn, "s3://"):
		bucket, key, _ := strings.Cut(strings.TrimPrefix(dsn, "s3://"), "/")
		var opts []location.S3Option
		if s3cfg.Region != "" {
			opts = append(opts, location.WithS3Region(s3cfg.Region))
		}
		if s3cfg.Endpoint != "" {
			opts = append(opts, location.WithS3Endpoint(s3cfg.Endpoint))
		}
		if s3cfg.Profile != "" {
			opts = append(opts, location.WithS3Profile(s3cfg.Profile))
		}
		loc, err := location.NewS3FromConfig(ctx, bucket, key, opts...)
		if err != nil {
			return nil, nil, err
		}
		return location.NewRetry(loc, location.DefaultRetryConfig()), nil, nil
	}
	return location.NewFile(strings.TrimPrefix(dsn, "file://")), nil, nil
}
